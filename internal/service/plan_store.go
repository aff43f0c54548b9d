package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mansoorceksport/metafit/internal/domain"
	"github.com/sirupsen/logrus"
)

const defaultWorkoutCacheTTL = 10 * time.Minute

// PlanStore persists generated plans and serves the workout read views
type PlanStore struct {
	repo     domain.PlanRepository
	tx       domain.TxRunner    // optional
	cache    domain.WorkoutCache // optional
	cacheTTL time.Duration
	log      *logrus.Entry
}

// PlanStoreOption configures a PlanStore
type PlanStoreOption func(*PlanStore)

// WithTransactions runs Save inside tx so a partial write is rolled back
func WithTransactions(tx domain.TxRunner) PlanStoreOption {
	return func(s *PlanStore) { s.tx = tx }
}

// WithWorkoutCache enables read-through caching of workout views
func WithWorkoutCache(cache domain.WorkoutCache, ttl time.Duration) PlanStoreOption {
	return func(s *PlanStore) {
		s.cache = cache
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

func NewPlanStore(repo domain.PlanRepository, logger *logrus.Logger, opts ...PlanStoreOption) *PlanStore {
	s := &PlanStore{
		repo:     repo,
		cacheTTL: defaultWorkoutCacheTTL,
		log:      logger.WithField("component", "plan_store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes the plan row, then each workout row followed by its exercise rows.
// The first failure aborts the sequence. Without a TxRunner rows written before the
// failure stay in the store.
func (s *PlanStore) Save(ctx context.Context, plan *domain.WorkoutPlan, userID string) error {
	if plan == nil {
		return fmt.Errorf("%w: nil plan", domain.ErrStorage)
	}
	plan.UserID = userID

	write := func(ctx context.Context) error {
		return s.writePlan(ctx, plan)
	}

	var err error
	if s.tx != nil {
		err = s.tx.WithinTransaction(ctx, write)
	} else {
		err = write(ctx)
	}
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"plan_id": plan.ID,
		}).Error("failed to save workout plan")
		if errors.Is(err, domain.ErrStorage) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	s.invalidateUser(ctx, userID)
	s.log.WithFields(logrus.Fields{
		"user_id":  userID,
		"plan_id":  plan.ID,
		"workouts": len(plan.Workouts),
	}).Info("workout plan saved")
	return nil
}

func (s *PlanStore) writePlan(ctx context.Context, plan *domain.WorkoutPlan) error {
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now()
	}
	if err := s.repo.CreatePlan(ctx, plan); err != nil {
		return fmt.Errorf("%w: failed to insert plan %s: %v", domain.ErrStorage, plan.ID, err)
	}

	for i, w := range plan.Workouts {
		w.PlanID = plan.ID
		w.Position = i
		w.ExerciseCount = len(w.Exercises)
		if w.CreatedAt.IsZero() {
			w.CreatedAt = plan.CreatedAt
		}
		if err := s.repo.CreateWorkout(ctx, w); err != nil {
			return fmt.Errorf("%w: failed to insert workout %s: %v", domain.ErrStorage, w.ID, err)
		}

		for j, ex := range w.Exercises {
			ex.WorkoutID = w.ID
			ex.Position = j
			if ex.CreatedAt.IsZero() {
				ex.CreatedAt = w.CreatedAt
			}
			if err := s.repo.CreateExercise(ctx, ex); err != nil {
				return fmt.Errorf("%w: failed to insert exercise %s: %v", domain.ErrStorage, ex.ID, err)
			}
		}
	}
	return nil
}

// ListWorkouts returns every workout of every plan owned by userID, without exercises.
// Order: plan creation, then position inside the plan.
func (s *PlanStore) ListWorkouts(ctx context.Context, userID string) ([]*domain.Workout, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetWorkoutList(ctx, userID); err == nil && cached != nil {
			return cached, nil
		}
	}

	plans, err := s.repo.ListPlansByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list plans: %v", domain.ErrStorage, err)
	}
	if len(plans) == 0 {
		return []*domain.Workout{}, nil
	}

	planOrder := make(map[string]int, len(plans))
	planIDs := make([]string, len(plans))
	for i, p := range plans {
		planOrder[p.ID] = i
		planIDs[i] = p.ID
	}

	workouts, err := s.repo.ListWorkoutsByPlans(ctx, planIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list workouts: %v", domain.ErrStorage, err)
	}

	sort.SliceStable(workouts, func(i, j int) bool {
		pi, pj := planOrder[workouts[i].PlanID], planOrder[workouts[j].PlanID]
		if pi != pj {
			return pi < pj
		}
		return workouts[i].Position < workouts[j].Position
	})
	for _, w := range workouts {
		w.Exercises = []*domain.Exercise{}
	}

	if s.cache != nil {
		if err := s.cache.SetWorkoutList(ctx, userID, workouts, s.cacheTTL); err != nil {
			s.log.WithError(err).Warn("failed to cache workout list")
		}
	}
	return workouts, nil
}

// GetWorkoutDetail returns one workout with its exercises in execution order
func (s *PlanStore) GetWorkoutDetail(ctx context.Context, workoutID string) (*domain.Workout, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetWorkoutDetail(ctx, workoutID); err == nil && cached != nil {
			return cached, nil
		}
	}

	workout, err := s.repo.GetWorkout(ctx, workoutID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to get workout: %v", domain.ErrStorage, err)
	}

	exercises, err := s.repo.ListExercisesByWorkout(ctx, workoutID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list exercises: %v", domain.ErrStorage, err)
	}
	sort.SliceStable(exercises, func(i, j int) bool {
		return exercises[i].Position < exercises[j].Position
	})
	workout.Exercises = exercises

	if s.cache != nil {
		if err := s.cache.SetWorkoutDetail(ctx, workout, s.cacheTTL); err != nil {
			s.log.WithError(err).Warn("failed to cache workout detail")
		}
	}
	return workout, nil
}

// GetUserWorkout is GetWorkoutDetail restricted to workouts of plans owned by userID
func (s *PlanStore) GetUserWorkout(ctx context.Context, userID, workoutID string) (*domain.Workout, error) {
	workout, err := s.GetWorkoutDetail(ctx, workoutID)
	if err != nil {
		return nil, err
	}

	plan, err := s.repo.GetPlan(ctx, workout.PlanID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to get plan: %v", domain.ErrStorage, err)
	}
	if plan.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return workout, nil
}

// ListPlans returns the plan rows of a user, newest last, without workouts
func (s *PlanStore) ListPlans(ctx context.Context, userID string) ([]*domain.WorkoutPlan, error) {
	plans, err := s.repo.ListPlansByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list plans: %v", domain.ErrStorage, err)
	}
	for _, p := range plans {
		p.Workouts = []*domain.Workout{}
	}
	return plans, nil
}

// DeletePlan removes a plan and everything under it
func (s *PlanStore) DeletePlan(ctx context.Context, userID, planID string) error {
	plan, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: failed to get plan: %v", domain.ErrStorage, err)
	}
	if plan.UserID != userID {
		return domain.ErrForbidden
	}

	workouts, err := s.repo.ListWorkoutsByPlans(ctx, []string{planID})
	if err != nil {
		return fmt.Errorf("%w: failed to list workouts: %v", domain.ErrStorage, err)
	}

	if err := s.repo.DeletePlanTree(ctx, planID); err != nil {
		return fmt.Errorf("%w: failed to delete plan: %v", domain.ErrStorage, err)
	}

	s.invalidateUser(ctx, userID)
	if s.cache != nil && len(workouts) > 0 {
		ids := make([]string, len(workouts))
		for i, w := range workouts {
			ids[i] = w.ID
		}
		if err := s.cache.InvalidateWorkoutDetails(ctx, ids...); err != nil {
			s.log.WithError(err).Warn("failed to invalidate workout details")
		}
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "plan_id": planID}).Info("workout plan deleted")
	return nil
}

func (s *PlanStore) invalidateUser(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUserWorkouts(ctx, userID); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("failed to invalidate workout list cache")
	}
}
