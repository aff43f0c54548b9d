package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/metafit/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPlanRepository implements domain.PlanRepository over three collections
// linked by plan_id and workout_id
type MongoPlanRepository struct {
	plans     *mongo.Collection
	workouts  *mongo.Collection
	exercises *mongo.Collection
}

func NewMongoPlanRepository(db *mongo.Database) *MongoPlanRepository {
	repo := &MongoPlanRepository{
		plans:     db.Collection("workout_plans"),
		workouts:  db.Collection("workouts"),
		exercises: db.Collection("exercises"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = repo.plans.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	_, _ = repo.workouts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "plan_id", Value: 1}, {Key: "position", Value: 1}},
	})
	_, _ = repo.exercises.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "workout_id", Value: 1}, {Key: "position", Value: 1}},
	})

	return repo
}

func (r *MongoPlanRepository) CreatePlan(ctx context.Context, plan *domain.WorkoutPlan) error {
	if _, err := r.plans.InsertOne(ctx, plan); err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return nil
}

func (r *MongoPlanRepository) CreateWorkout(ctx context.Context, workout *domain.Workout) error {
	if _, err := r.workouts.InsertOne(ctx, workout); err != nil {
		return fmt.Errorf("failed to create workout: %w", err)
	}
	return nil
}

func (r *MongoPlanRepository) CreateExercise(ctx context.Context, exercise *domain.Exercise) error {
	if _, err := r.exercises.InsertOne(ctx, exercise); err != nil {
		return fmt.Errorf("failed to create exercise: %w", err)
	}
	return nil
}

func (r *MongoPlanRepository) GetPlan(ctx context.Context, planID string) (*domain.WorkoutPlan, error) {
	var plan domain.WorkoutPlan
	if err := r.plans.FindOne(ctx, bson.M{"_id": planID}).Decode(&plan); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return &plan, nil
}

func (r *MongoPlanRepository) ListPlansByUser(ctx context.Context, userID string) ([]*domain.WorkoutPlan, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.plans.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer cursor.Close(ctx)

	plans := []*domain.WorkoutPlan{}
	if err := cursor.All(ctx, &plans); err != nil {
		return nil, fmt.Errorf("failed to decode plans: %w", err)
	}
	return plans, nil
}

func (r *MongoPlanRepository) ListWorkoutsByPlans(ctx context.Context, planIDs []string) ([]*domain.Workout, error) {
	if len(planIDs) == 0 {
		return []*domain.Workout{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	cursor, err := r.workouts.Find(ctx, bson.M{"plan_id": bson.M{"$in": planIDs}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list workouts: %w", err)
	}
	defer cursor.Close(ctx)

	workouts := []*domain.Workout{}
	if err := cursor.All(ctx, &workouts); err != nil {
		return nil, fmt.Errorf("failed to decode workouts: %w", err)
	}
	return workouts, nil
}

func (r *MongoPlanRepository) GetWorkout(ctx context.Context, workoutID string) (*domain.Workout, error) {
	var workout domain.Workout
	if err := r.workouts.FindOne(ctx, bson.M{"_id": workoutID}).Decode(&workout); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get workout: %w", err)
	}
	return &workout, nil
}

func (r *MongoPlanRepository) ListExercisesByWorkout(ctx context.Context, workoutID string) ([]*domain.Exercise, error) {
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	cursor, err := r.exercises.Find(ctx, bson.M{"workout_id": workoutID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}
	defer cursor.Close(ctx)

	exercises := []*domain.Exercise{}
	if err := cursor.All(ctx, &exercises); err != nil {
		return nil, fmt.Errorf("failed to decode exercises: %w", err)
	}
	return exercises, nil
}

// DeletePlanTree removes exercises, then workouts, then the plan itself
func (r *MongoPlanRepository) DeletePlanTree(ctx context.Context, planID string) error {
	workouts, err := r.ListWorkoutsByPlans(ctx, []string{planID})
	if err != nil {
		return err
	}

	if len(workouts) > 0 {
		ids := make([]string, len(workouts))
		for i, w := range workouts {
			ids[i] = w.ID
		}
		if _, err := r.exercises.DeleteMany(ctx, bson.M{"workout_id": bson.M{"$in": ids}}); err != nil {
			return fmt.Errorf("failed to delete exercises: %w", err)
		}
		if _, err := r.workouts.DeleteMany(ctx, bson.M{"plan_id": planID}); err != nil {
			return fmt.Errorf("failed to delete workouts: %w", err)
		}
	}

	if _, err := r.plans.DeleteOne(ctx, bson.M{"_id": planID}); err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	return nil
}

// MongoTxRunner implements domain.TxRunner with a client session. Requires a replica set.
type MongoTxRunner struct {
	client *mongo.Client
}

func NewMongoTxRunner(client *mongo.Client) *MongoTxRunner {
	return &MongoTxRunner{client: client}
}

func (t *MongoTxRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
