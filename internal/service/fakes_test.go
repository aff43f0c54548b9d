package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mansoorceksport/metafit/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func newTestLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

// memPlanRepo is an in-memory domain.PlanRepository that records write order
type memPlanRepo struct {
	mu        sync.Mutex
	plans     map[string]*domain.WorkoutPlan
	workouts  map[string]*domain.Workout
	exercises map[string]*domain.Exercise
	writes    []string

	failWorkoutAt int // 1-based CreateWorkout call that fails; 0 = never
	workoutCalls  int
	failReads     bool
}

func newMemPlanRepo() *memPlanRepo {
	return &memPlanRepo{
		plans:     map[string]*domain.WorkoutPlan{},
		workouts:  map[string]*domain.Workout{},
		exercises: map[string]*domain.Exercise{},
	}
}

var errStoreDown = errors.New("connection refused")

func (r *memPlanRepo) CreatePlan(_ context.Context, plan *domain.WorkoutPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *plan
	cp.Workouts = nil
	r.plans[plan.ID] = &cp
	r.writes = append(r.writes, "plan:"+plan.ID)
	return nil
}

func (r *memPlanRepo) CreateWorkout(_ context.Context, w *domain.Workout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workoutCalls++
	if r.failWorkoutAt > 0 && r.workoutCalls == r.failWorkoutAt {
		return errStoreDown
	}
	cp := *w
	cp.Exercises = nil
	r.workouts[w.ID] = &cp
	r.writes = append(r.writes, "workout:"+w.ID)
	return nil
}

func (r *memPlanRepo) CreateExercise(_ context.Context, ex *domain.Exercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ex
	r.exercises[ex.ID] = &cp
	r.writes = append(r.writes, "exercise:"+ex.ID)
	return nil
}

func (r *memPlanRepo) GetPlan(_ context.Context, planID string) (*domain.WorkoutPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[planID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memPlanRepo) ListPlansByUser(_ context.Context, userID string) ([]*domain.WorkoutPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failReads {
		return nil, errStoreDown
	}
	var out []*domain.WorkoutPlan
	for _, p := range r.plans {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sortPlans(out)
	return out, nil
}

func (r *memPlanRepo) ListWorkoutsByPlans(_ context.Context, planIDs []string) ([]*domain.Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := map[string]bool{}
	for _, id := range planIDs {
		want[id] = true
	}
	out := []*domain.Workout{}
	for _, w := range r.workouts {
		if want[w.PlanID] {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memPlanRepo) GetWorkout(_ context.Context, workoutID string) (*domain.Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failReads {
		return nil, errStoreDown
	}
	w, ok := r.workouts[workoutID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *memPlanRepo) ListExercisesByWorkout(_ context.Context, workoutID string) ([]*domain.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Exercise{}
	for _, ex := range r.exercises {
		if ex.WorkoutID == workoutID {
			cp := *ex
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memPlanRepo) DeletePlanTree(_ context.Context, planID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, w := range r.workouts {
		if w.PlanID != planID {
			continue
		}
		for exID, ex := range r.exercises {
			if ex.WorkoutID == id {
				delete(r.exercises, exID)
			}
		}
		delete(r.workouts, id)
	}
	delete(r.plans, planID)
	return nil
}

func (r *memPlanRepo) counts() (plans, workouts, exercises int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.plans), len(r.workouts), len(r.exercises)
}

func sortPlans(plans []*domain.WorkoutPlan) {
	for i := 1; i < len(plans); i++ {
		for j := i; j > 0 && plans[j].CreatedAt.Before(plans[j-1].CreatedAt); j-- {
			plans[j], plans[j-1] = plans[j-1], plans[j]
		}
	}
}

// snapshotTx runs fn and restores the repo if it fails
type snapshotTx struct {
	repo *memPlanRepo
}

func (tx snapshotTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.repo.mu.Lock()
	plans, workouts, exercises := copyMap(tx.repo.plans), copyMap(tx.repo.workouts), copyMap(tx.repo.exercises)
	tx.repo.mu.Unlock()

	if err := fn(ctx); err != nil {
		tx.repo.mu.Lock()
		tx.repo.plans, tx.repo.workouts, tx.repo.exercises = plans, workouts, exercises
		tx.repo.mu.Unlock()
		return err
	}
	return nil
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// memWorkoutCache is an in-memory domain.WorkoutCache
type memWorkoutCache struct {
	mu      sync.Mutex
	lists   map[string][]*domain.Workout
	details map[string]*domain.Workout
	hits    int
}

func newMemWorkoutCache() *memWorkoutCache {
	return &memWorkoutCache{lists: map[string][]*domain.Workout{}, details: map[string]*domain.Workout{}}
}

func (c *memWorkoutCache) GetWorkoutList(_ context.Context, userID string) ([]*domain.Workout, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list, ok := c.lists[userID]
	if !ok {
		return nil, nil
	}
	c.hits++
	return list, nil
}

func (c *memWorkoutCache) SetWorkoutList(_ context.Context, userID string, workouts []*domain.Workout, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[userID] = workouts
	return nil
}

func (c *memWorkoutCache) GetWorkoutDetail(_ context.Context, workoutID string) (*domain.Workout, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.details[workoutID]
	if !ok {
		return nil, nil
	}
	c.hits++
	return w, nil
}

func (c *memWorkoutCache) SetWorkoutDetail(_ context.Context, w *domain.Workout, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.details[w.ID] = w
	return nil
}

func (c *memWorkoutCache) InvalidateUserWorkouts(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lists, userID)
	return nil
}

func (c *memWorkoutCache) InvalidateWorkoutDetails(_ context.Context, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.details, id)
	}
	return nil
}

// memProfiles is an in-memory domain.FitnessProfileRepository
type memProfiles struct {
	mu       sync.Mutex
	profiles map[string]*domain.FitnessProfile
}

func newMemProfiles() *memProfiles {
	return &memProfiles{profiles: map[string]*domain.FitnessProfile{}}
}

func (m *memProfiles) Upsert(_ context.Context, p *domain.FitnessProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.profiles[p.UserID] = &cp
	return nil
}

func (m *memProfiles) GetByUserID(_ context.Context, userID string) (*domain.FitnessProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

// memArchive records archived responses
type memArchive struct {
	mu    sync.Mutex
	items map[string][]byte
	err   error
}

func (a *memArchive) StoreRawResponse(_ context.Context, key string, raw []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	if a.items == nil {
		a.items = map[string][]byte{}
	}
	a.items[key] = raw
	return nil
}

func (a *memArchive) keys() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.items))
	for k := range a.items {
		out = append(out, k)
	}
	return out
}
