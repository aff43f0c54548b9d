package repository

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/mansoorceksport/metafit/internal/domain"
	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoFitnessProfileRepository implements domain.FitnessProfileRepository
type MongoFitnessProfileRepository struct {
	collection *mongo.Collection
}

func NewMongoFitnessProfileRepository(db *mongo.Database) *MongoFitnessProfileRepository {
	coll := db.Collection("fitness_profiles")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// One profile per user
	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &MongoFitnessProfileRepository{
		collection: coll,
	}
}

// Upsert replaces every answer of the user's profile, keeping its id and created_at
func (r *MongoFitnessProfileRepository) Upsert(ctx context.Context, profile *domain.FitnessProfile) error {
	now := time.Now()
	profile.UpdatedAt = now

	update := bson.M{
		"$set": bson.M{
			"age":               profile.Age,
			"height":            profile.Height,
			"weight":            profile.Weight,
			"gender":            profile.Gender,
			"fitness_level":     profile.FitnessLevel,
			"goals":             profile.Goals,
			"target_areas":      profile.TargetAreas,
			"limitations":       profile.Limitations,
			"workout_duration":  profile.WorkoutDuration,
			"workout_frequency": profile.WorkoutFrequency,
			"preferred_time":    profile.PreferredTime,
			"updated_at":        now,
		},
		"$setOnInsert": bson.M{
			"_id":        ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
			"created_at": now,
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, bson.M{"user_id": profile.UserID}, update, opts); err != nil {
		return fmt.Errorf("failed to upsert fitness profile: %w", err)
	}
	return nil
}

func (r *MongoFitnessProfileRepository) GetByUserID(ctx context.Context, userID string) (*domain.FitnessProfile, error) {
	var profile domain.FitnessProfile
	if err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&profile); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get fitness profile: %w", err)
	}
	return &profile, nil
}
