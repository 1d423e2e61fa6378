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

const plannedSessionCollectionName = "planned_sessions"

// mongoPlannedSessionRepository implements repository.PlannedSessionRepository
type mongoPlannedSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoPlannedSessionRepository creates a new PlannedSession repository.
func NewMongoPlannedSessionRepository(db *mongo.Database) repository.PlannedSessionRepository {
	return &mongoPlannedSessionRepository{
		collection: db.Collection(plannedSessionCollectionName),
	}
}

// CreateMany inserts a plan's prescribed sessions in order.
func (r *mongoPlannedSessionRepository) CreateMany(ctx context.Context, sessions []domain.PlannedSession) error {
	if len(sessions) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(sessions))
	for i := range sessions {
		if sessions[i].PlanID == primitive.NilObjectID || sessions[i].AthleteID == primitive.NilObjectID {
			return errors.New("planned session requires planId and athleteId")
		}
		if sessions[i].ID == primitive.NilObjectID {
			sessions[i].ID = primitive.NewObjectID()
		}
		sessions[i].Date = domain.DateOnly(sessions[i].Date)
		docs = append(docs, sessions[i])
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// GetByID retrieves a single planned session.
func (r *mongoPlannedSessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PlannedSession, error) {
	var session domain.PlannedSession
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// ListByPlan retrieves a plan's sessions in date order.
func (r *mongoPlannedSessionRepository) ListByPlan(ctx context.Context, planID primitive.ObjectID) ([]domain.PlannedSession, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"planId": planID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []domain.PlannedSession{}
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// DeleteByPlan removes a plan's sessions and returns the deleted ids so the
// caller can nullify done-session references.
func (r *mongoPlannedSessionRepository) DeleteByPlan(ctx context.Context, planID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"planId": planID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	if len(ids) == 0 {
		return ids, nil
	}
	_, err = r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// CountByAthlete counts every session prescribed to the athlete.
func (r *mongoPlannedSessionRepository) CountByAthlete(ctx context.Context, athleteID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"athleteId": athleteID})
}

// CountByAthletesInWindow groups planned-session counts per athlete over an
// inclusive date window. Athletes with no sessions are absent from the map.
func (r *mongoPlannedSessionRepository) CountByAthletesInWindow(ctx context.Context, athleteIDs []primitive.ObjectID, start, end time.Time) (map[primitive.ObjectID]int64, error) {
	counts := make(map[primitive.ObjectID]int64)
	if len(athleteIDs) == 0 {
		return counts, nil
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"athleteId": bson.M{"$in": athleteIDs},
			"date": bson.M{
				"$gte": domain.DateOnly(start),
				"$lte": domain.DateOnly(end),
			},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$athleteId",
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		AthleteID primitive.ObjectID `bson:"_id"`
		Count     int64              `bson:"count"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.AthleteID] = row.Count
	}
	return counts, nil
}

// UpcomingByAthlete retrieves the athlete's next planned sessions with
// date >= from, soonest first.
func (r *mongoPlannedSessionRepository) UpcomingByAthlete(ctx context.Context, athleteID primitive.ObjectID, from time.Time, limit int64) ([]domain.PlannedSession, error) {
	filter := bson.M{
		"athleteId": athleteID,
		"date":      bson.M{"$gte": domain.DateOnly(from)},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}}).
		SetLimit(limit)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []domain.PlannedSession{}
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// EnsurePlannedSessionIndexes creates indexes for planned_sessions.
func EnsurePlannedSessionIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "athleteId", Value: 1},
				{Key: "date", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "planId", Value: 1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
