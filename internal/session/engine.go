// Package session drives a single live pass through a workout: sets, exercise
// countdowns and rest periods. Engines are in-memory only and never persisted.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/mansoorceksport/metafit/internal/domain"
)

// State of a workout session
type State string

const (
	StateAwaitingSetStart     State = "awaiting_set_start"
	StateExerciseTimerRunning State = "exercise_timer_running"
	StateResting              State = "resting"
	StateCompleted            State = "completed"
	StateClosed               State = "closed"
)

const defaultTickInterval = time.Second

// Snapshot is a read-only view of the engine
type Snapshot struct {
	State          State           `json:"state"`
	ExerciseIndex  int             `json:"exercise_index"`
	TotalExercises int             `json:"total_exercises"`
	CurrentSet     int             `json:"current_set"`
	TotalSets      int             `json:"total_sets"`
	Exercise       domain.Exercise `json:"exercise"`
	RestRemaining  int             `json:"rest_remaining"`
	RestRunning    bool            `json:"rest_running"`
	TimerRemaining int             `json:"timer_remaining"`
	TimerRunning   bool            `json:"timer_running"`
	Progress       float64         `json:"progress"`
}

// Option configures an Engine
type Option func(*Engine)

// WithScheduler sets the tick source. Without one the caller drives time through Tick.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.scheduler = s }
}

// WithTickInterval overrides the one-second tick
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) { e.interval = d }
}

// WithOnComplete registers the completion callback. It runs once, outside the engine lock.
func WithOnComplete(fn func()) Option {
	return func(e *Engine) { e.onComplete = fn }
}

// Engine is the workout execution state machine
type Engine struct {
	mu sync.Mutex

	exercises  []domain.Exercise
	scheduler  Scheduler
	interval   time.Duration
	onComplete func()

	state          State
	exerciseIndex  int
	currentSet     int // 1-based
	restRemaining  int
	timerRemaining int

	// Tick handles. At most one is held at any time.
	restCancel  Cancel
	timerCancel Cancel
	// Bumped on every acquire so a tick delivered after release is ignored
	restGen  uint64
	timerGen uint64
}

// New creates an engine positioned at the first set of the first exercise
func New(exercises []*domain.Exercise, opts ...Option) (*Engine, error) {
	if len(exercises) == 0 {
		return nil, domain.ErrInvalidWorkout
	}

	copied := make([]domain.Exercise, len(exercises))
	for i, ex := range exercises {
		if ex == nil || ex.Sets < 1 {
			return nil, fmt.Errorf("%w: exercise %d has no sets", domain.ErrInvalidWorkout, i)
		}
		copied[i] = *ex
	}

	e := &Engine{
		exercises:  copied,
		interval:   defaultTickInterval,
		state:      StateAwaitingSetStart,
		currentSet: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// StartTimer starts the countdown of a timed exercise
func (e *Engine) StartTimer() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ex := e.current()
	if e.state != StateAwaitingSetStart || !ex.Timed() {
		return domain.ErrInvalidTransition
	}

	e.state = StateExerciseTimerRunning
	e.timerRemaining = ex.Duration
	e.timerGen++
	if e.scheduler != nil {
		gen := e.timerGen
		e.timerCancel = e.scheduler.Every(e.interval, func() { e.tickTimer(gen) })
	}
	return nil
}

// CompleteSet marks the current set of a rep-based exercise as done
func (e *Engine) CompleteSet() error {
	e.mu.Lock()
	if e.state != StateAwaitingSetStart || e.current().Timed() {
		e.mu.Unlock()
		return domain.ErrInvalidTransition
	}
	completed := e.completeSetLocked()
	e.mu.Unlock()

	if completed {
		e.notifyComplete()
	}
	return nil
}

// SkipRest ends the current rest period immediately
func (e *Engine) SkipRest() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateResting {
		return domain.ErrInvalidTransition
	}
	e.releaseRest()
	e.restRemaining = 0
	e.state = StateAwaitingSetStart
	return nil
}

// Tick advances whichever countdown is running by one interval. Engines built
// with a Scheduler receive ticks automatically.
func (e *Engine) Tick() {
	e.mu.Lock()
	var completed bool
	switch e.state {
	case StateResting:
		e.stepRestLocked()
	case StateExerciseTimerRunning:
		completed = e.stepTimerLocked()
	}
	e.mu.Unlock()

	if completed {
		e.notifyComplete()
	}
}

// Close tears down every tick handle and discards the session. Idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateClosed {
		return
	}
	e.releaseRest()
	e.releaseTimer()
	e.restRemaining = 0
	e.timerRemaining = 0
	e.state = StateClosed
}

// State returns the current state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Progress returns the completed share of the workout as a percentage
func (e *Engine) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progressLocked()
}

// Snapshot returns a consistent copy of the session state
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	ex := e.current()
	return Snapshot{
		State:          e.state,
		ExerciseIndex:  e.exerciseIndex,
		TotalExercises: len(e.exercises),
		CurrentSet:     e.currentSet,
		TotalSets:      ex.Sets,
		Exercise:       *ex,
		RestRemaining:  e.restRemaining,
		RestRunning:    e.state == StateResting,
		TimerRemaining: e.timerRemaining,
		TimerRunning:   e.state == StateExerciseTimerRunning,
		Progress:       e.progressLocked(),
	}
}

func (e *Engine) current() *domain.Exercise {
	return &e.exercises[e.exerciseIndex]
}

func (e *Engine) progressLocked() float64 {
	if e.state == StateCompleted {
		return 100
	}
	total := float64(len(e.exercises))
	sets := float64(e.current().Sets)
	return 100*float64(e.exerciseIndex)/total + 100*(float64(e.currentSet-1)/sets)/total
}

// completeSetLocked applies set-complete logic and reports whether the workout finished
func (e *Engine) completeSetLocked() bool {
	ex := e.current()

	if e.currentSet < ex.Sets {
		e.currentSet++
		if ex.RestTime <= 0 {
			e.state = StateAwaitingSetStart
			return false
		}
		e.state = StateResting
		e.restRemaining = ex.RestTime
		e.restGen++
		if e.scheduler != nil {
			gen := e.restGen
			e.restCancel = e.scheduler.Every(e.interval, func() { e.tickRest(gen) })
		}
		return false
	}

	if e.exerciseIndex < len(e.exercises)-1 {
		e.exerciseIndex++
		e.currentSet = 1
		e.state = StateAwaitingSetStart
		return false
	}

	e.state = StateCompleted
	return true
}

func (e *Engine) tickRest(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateResting || gen != e.restGen {
		return
	}
	e.stepRestLocked()
}

func (e *Engine) tickTimer(gen uint64) {
	e.mu.Lock()
	if e.state != StateExerciseTimerRunning || gen != e.timerGen {
		e.mu.Unlock()
		return
	}
	completed := e.stepTimerLocked()
	e.mu.Unlock()

	if completed {
		e.notifyComplete()
	}
}

func (e *Engine) stepRestLocked() {
	e.restRemaining--
	if e.restRemaining <= 0 {
		e.restRemaining = 0
		e.releaseRest()
		e.state = StateAwaitingSetStart
	}
}

func (e *Engine) stepTimerLocked() bool {
	e.timerRemaining--
	if e.timerRemaining > 0 {
		return false
	}
	e.timerRemaining = 0
	e.releaseTimer()
	return e.completeSetLocked()
}

func (e *Engine) releaseRest() {
	if e.restCancel != nil {
		e.restCancel()
		e.restCancel = nil
	}
	e.restGen++
}

func (e *Engine) releaseTimer() {
	if e.timerCancel != nil {
		e.timerCancel()
		e.timerCancel = nil
	}
	e.timerGen++
}

func (e *Engine) notifyComplete() {
	if e.onComplete != nil {
		e.onComplete()
	}
}
