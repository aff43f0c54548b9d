package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mansoorceksport/metafit/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// PlanService ties profile, generation and persistence together
type PlanService struct {
	profiles  domain.FitnessProfileRepository
	generator domain.PlanGenerator
	store     *PlanStore
	log       *logrus.Entry

	inflight singleflight.Group
}

func NewPlanService(
	profiles domain.FitnessProfileRepository,
	generator domain.PlanGenerator,
	store *PlanStore,
	logger *logrus.Logger,
) *PlanService {
	return &PlanService{
		profiles:  profiles,
		generator: generator,
		store:     store,
		log:       logger.WithField("component", "plan_service"),
	}
}

// GenerateForUser generates a plan from the user's stored profile and saves it.
// Concurrent calls for the same user share one generation and get the same plan.
func (s *PlanService) GenerateForUser(ctx context.Context, userID string) (*domain.WorkoutPlan, error) {
	// The shared call must not die with whichever request happened to start it
	detached := context.WithoutCancel(ctx)

	ch := s.inflight.DoChan(userID, func() (interface{}, error) {
		return s.generateAndSave(detached, userID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.log.WithField("user_id", userID).Debug("joined in-flight plan generation")
		}
		return res.Val.(*domain.WorkoutPlan), nil
	}
}

func (s *PlanService) generateAndSave(ctx context.Context, userID string) (*domain.WorkoutPlan, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	plan, err := s.generator.Generate(ctx, profile)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("plan generation failed")
		return nil, err
	}

	if err := s.store.Save(ctx, plan, userID); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":     userID,
		"plan_id":     plan.ID,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("workout plan generated")
	return plan, nil
}

// SaveProfile creates or replaces the user's fitness profile
func (s *PlanService) SaveProfile(ctx context.Context, userID string, profile *domain.FitnessProfile) (*domain.FitnessProfile, error) {
	if profile == nil {
		return nil, errors.New("profile is required")
	}
	profile.UserID = userID
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return s.profiles.GetByUserID(ctx, userID)
}

// GetProfile returns the user's fitness profile or domain.ErrProfileNotFound
func (s *PlanService) GetProfile(ctx context.Context, userID string) (*domain.FitnessProfile, error) {
	return s.profiles.GetByUserID(ctx, userID)
}
