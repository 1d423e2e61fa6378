package mongo

import (
	"athletix/training-app/internal/domain"
	"athletix/training-app/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const linkCollectionName = "coach_links"

// mongoLinkRepository implements repository.LinkRepository
type mongoLinkRepository struct {
	collection *mongo.Collection
}

// NewMongoLinkRepository creates a new CoachLink repository backed by MongoDB.
func NewMongoLinkRepository(db *mongo.Database) repository.LinkRepository {
	return &mongoLinkRepository{
		collection: db.Collection(linkCollectionName),
	}
}

// Create inserts a new coach-athlete link. The unique (coachId, athleteId)
// index is the authoritative duplicate guard: a racing insert surfaces as
// ErrConflict.
func (r *mongoLinkRepository) Create(ctx context.Context, link *domain.CoachLink) (primitive.ObjectID, error) {
	if link.CoachID == primitive.NilObjectID || link.AthleteID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("link requires coachId and athleteId")
	}

	link.ID = primitive.NewObjectID()
	if link.SinceDate.IsZero() {
		link.SinceDate = domain.DateOnly(time.Now())
	}

	result, err := r.collection.InsertOne(ctx, link)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrConflict
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted link ID")
	}
	return insertedID, nil
}

// Exists reports whether a link between the coach and athlete exists.
func (r *mongoLinkRepository) Exists(ctx context.Context, coachID, athleteID primitive.ObjectID) (bool, error) {
	filter := bson.M{"coachId": coachID, "athleteId": athleteID}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByCoach retrieves every link owned by the coach.
func (r *mongoLinkRepository) ListByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.CoachLink, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"coachId": coachID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var links []domain.CoachLink
	if err = cursor.All(ctx, &links); err != nil {
		return nil, err
	}
	return links, nil
}

// EnsureLinkIndexes creates the unique compound index guarding the
// (coach, athlete) pair invariant.
func EnsureLinkIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "coachId", Value: 1},
				{Key: "athleteId", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "athleteId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
