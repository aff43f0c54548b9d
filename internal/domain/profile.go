package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrProfileNotFound = errors.New("fitness profile not found")
)

// FitnessProfile holds the onboarding answers of a user. Nil/empty fields are unknown.
type FitnessProfile struct {
	ID               string    `json:"id" bson:"_id,omitempty"`
	UserID           string    `json:"user_id" bson:"user_id"` // Unique Index
	Age              *int      `json:"age" bson:"age"`
	Height           *int      `json:"height" bson:"height"` // cm
	Weight           *int      `json:"weight" bson:"weight"` // kg
	Gender           string    `json:"gender" bson:"gender"`
	FitnessLevel     string    `json:"fitness_level" bson:"fitness_level"`
	Goals            []string  `json:"goals" bson:"goals"`
	TargetAreas      []string  `json:"target_areas" bson:"target_areas"`
	Limitations      []string  `json:"limitations" bson:"limitations"`
	WorkoutDuration  *int      `json:"workout_duration" bson:"workout_duration"`   // minutes per session
	WorkoutFrequency *int      `json:"workout_frequency" bson:"workout_frequency"` // sessions per week
	PreferredTime    string    `json:"preferred_time" bson:"preferred_time"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" bson:"updated_at"`
}

type FitnessProfileRepository interface {
	// Upsert creates or replaces the single profile of profile.UserID
	Upsert(ctx context.Context, profile *FitnessProfile) error
	GetByUserID(ctx context.Context, userID string) (*FitnessProfile, error)
}
