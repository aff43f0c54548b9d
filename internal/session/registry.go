package session

import (
	"context"
	"sync"
	"time"

	"github.com/mansoorceksport/metafit/internal/domain"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Registry keeps at most one live engine per user
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Engine

	scheduler Scheduler
	interval  time.Duration
	log       *logrus.Entry

	started   metric.Int64Counter
	completed metric.Int64Counter
}

// NewRegistry creates a registry whose engines tick on scheduler
func NewRegistry(scheduler Scheduler, interval time.Duration, logger *logrus.Logger) *Registry {
	if interval <= 0 {
		interval = defaultTickInterval
	}

	meter := otel.Meter("metafit-session")
	started, _ := meter.Int64Counter("workout.sessions.started",
		metric.WithDescription("Workout sessions opened"))
	completed, _ := meter.Int64Counter("workout.sessions.completed",
		metric.WithDescription("Workout sessions that reached the last set"))

	return &Registry{
		sessions:  make(map[string]*Engine),
		scheduler: scheduler,
		interval:  interval,
		log:       logger.WithField("component", "session_registry"),
		started:   started,
		completed: completed,
	}
}

// Open starts a session for workout, closing any session the user already had
func (r *Registry) Open(userID string, workout *domain.Workout) (*Engine, error) {
	var engine *Engine
	onComplete := func() {
		r.mu.Lock()
		if r.sessions[userID] == engine {
			delete(r.sessions, userID)
		}
		r.mu.Unlock()

		r.completed.Add(context.Background(), 1, metric.WithAttributes(attribute.String("workout.level", string(workout.Level))))
		r.log.WithFields(logrus.Fields{"user_id": userID, "workout_id": workout.ID}).Info("workout session completed")
	}

	engine, err := New(workout.Exercises,
		WithScheduler(r.scheduler),
		WithTickInterval(r.interval),
		WithOnComplete(onComplete),
	)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	previous := r.sessions[userID]
	r.sessions[userID] = engine
	r.mu.Unlock()

	if previous != nil {
		previous.Close()
	}

	r.started.Add(context.Background(), 1)
	r.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"workout_id": workout.ID,
		"exercises":  len(workout.Exercises),
	}).Info("workout session opened")

	return engine, nil
}

// Get returns the user's live engine
func (r *Registry) Get(userID string) (*Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	engine, ok := r.sessions[userID]
	if !ok {
		return nil, domain.ErrNoActiveSession
	}
	return engine, nil
}

// Close discards the user's session without recording anything
func (r *Registry) Close(userID string) error {
	r.mu.Lock()
	engine, ok := r.sessions[userID]
	delete(r.sessions, userID)
	r.mu.Unlock()

	if !ok {
		return domain.ErrNoActiveSession
	}
	engine.Close()
	r.log.WithField("user_id", userID).Info("workout session closed")
	return nil
}

// CloseAll closes every live session. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Engine)
	r.mu.Unlock()

	for _, engine := range sessions {
		engine.Close()
	}
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
