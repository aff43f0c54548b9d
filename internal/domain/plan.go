package domain

import (
	"context"
	"time"
)

// Level is the difficulty of a workout
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Valid reports whether l is one of the known levels
func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// Exercise is one movement of a workout.
// Duration == 0 means the exercise is counted in reps, Duration > 0 means it is timed.
type Exercise struct {
	ID          string    `json:"id" bson:"_id"`
	WorkoutID   string    `json:"workout_id,omitempty" bson:"workout_id"`
	Position    int       `json:"position" bson:"position"` // 0-based execution order
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Sets        int       `json:"sets" bson:"sets"`
	Reps        int       `json:"reps" bson:"reps"`
	Duration    int       `json:"duration" bson:"duration"`   // seconds
	RestTime    int       `json:"rest_time" bson:"rest_time"` // seconds after each set
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// Timed reports whether the exercise is driven by a countdown instead of reps
func (e Exercise) Timed() bool {
	return e.Duration > 0
}

// Workout is an ordered list of exercises with display metadata
type Workout struct {
	ID            string      `json:"id" bson:"_id"`
	PlanID        string      `json:"plan_id,omitempty" bson:"plan_id"`
	Position      int         `json:"position" bson:"position"`
	Title         string      `json:"title" bson:"title"`
	Description   string      `json:"description" bson:"description"`
	Duration      int         `json:"duration" bson:"duration"` // minutes, advisory
	Level         Level       `json:"level" bson:"level"`
	ExerciseCount int         `json:"exercise_count" bson:"exercise_count"`
	CaloriesBurn  int         `json:"calories_burn" bson:"calories_burn"`
	Exercises     []*Exercise `json:"exercises" bson:"-"`
	CreatedAt     time.Time   `json:"created_at" bson:"created_at"`
}

// WorkoutPlan is a named collection of workouts generated for one user
type WorkoutPlan struct {
	ID          string     `json:"id" bson:"_id"`
	UserID      string     `json:"user_id,omitempty" bson:"user_id"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description" bson:"description"`
	Workouts    []*Workout `json:"workouts" bson:"-"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
}

// PlanRepository is the record-level CRUD store for the plan hierarchy.
// Identifiers are always supplied by the caller.
type PlanRepository interface {
	CreatePlan(ctx context.Context, plan *WorkoutPlan) error
	CreateWorkout(ctx context.Context, workout *Workout) error
	CreateExercise(ctx context.Context, exercise *Exercise) error

	GetPlan(ctx context.Context, planID string) (*WorkoutPlan, error)
	ListPlansByUser(ctx context.Context, userID string) ([]*WorkoutPlan, error)
	ListWorkoutsByPlans(ctx context.Context, planIDs []string) ([]*Workout, error)
	GetWorkout(ctx context.Context, workoutID string) (*Workout, error)
	ListExercisesByWorkout(ctx context.Context, workoutID string) ([]*Exercise, error)

	DeletePlanTree(ctx context.Context, planID string) error
}

// TxRunner runs fn atomically. Implementations without transaction support run fn directly.
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// WorkoutCache caches read views of a user's workouts
type WorkoutCache interface {
	GetWorkoutList(ctx context.Context, userID string) ([]*Workout, error)
	SetWorkoutList(ctx context.Context, userID string, workouts []*Workout, ttl time.Duration) error
	GetWorkoutDetail(ctx context.Context, workoutID string) (*Workout, error)
	SetWorkoutDetail(ctx context.Context, workout *Workout, ttl time.Duration) error
	InvalidateUserWorkouts(ctx context.Context, userID string) error
	InvalidateWorkoutDetails(ctx context.Context, workoutIDs ...string) error
}

// PlanArchive keeps the raw text returned by the generation service
type PlanArchive interface {
	StoreRawResponse(ctx context.Context, key string, raw []byte) error
}

// PlanGenerator turns a fitness profile into a validated, identified plan
type PlanGenerator interface {
	Generate(ctx context.Context, profile *FitnessProfile) (*WorkoutPlan, error)
}
