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

const doneSessionCollectionName = "done_sessions"

// mongoDoneSessionRepository implements repository.DoneSessionRepository
type mongoDoneSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoDoneSessionRepository creates a new DoneSession repository.
func NewMongoDoneSessionRepository(db *mongo.Database) repository.DoneSessionRepository {
	return &mongoDoneSessionRepository{
		collection: db.Collection(doneSessionCollectionName),
	}
}

// Create inserts a new completed-session record. The unique partial indexes
// are the authoritative duplicate guards; a racing insert surfaces as
// ErrConflict.
func (r *mongoDoneSessionRepository) Create(ctx context.Context, session *domain.DoneSession) (primitive.ObjectID, error) {
	if session.AthleteID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("done session requires athleteId")
	}

	session.ID = primitive.NewObjectID()
	session.Date = domain.DateOnly(session.Date)

	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrConflict
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted session ID")
	}
	return insertedID, nil
}

// GetByID retrieves a completed session by its ID.
func (r *mongoDoneSessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.DoneSession, error) {
	var session domain.DoneSession
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// Update replaces the mutable fields of a completed session.
func (r *mongoDoneSessionRepository) Update(ctx context.Context, session *domain.DoneSession) error {
	session.Date = domain.DateOnly(session.Date)
	update := bson.M{"$set": bson.M{
		"plannedSessionId": session.PlannedSessionID,
		"date":             session.Date,
		"actualDistance":   session.ActualDistance,
		"actualDuration":   session.ActualDuration,
		"actualRpe":        session.ActualRPE,
		"surface":          session.Surface,
		"shoes":            session.Shoes,
		"notes":            session.Notes,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": session.ID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrConflict
		}
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a completed session.
func (r *mongoDoneSessionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// List retrieves the athlete's completed sessions, newest first, optionally
// narrowed by date range or planned-session reference.
func (r *mongoDoneSessionRepository) List(ctx context.Context, athleteID primitive.ObjectID, filter repository.DoneSessionFilter) ([]domain.DoneSession, error) {
	query := bson.M{"athleteId": athleteID}
	dateCond := bson.M{}
	if filter.StartDate != nil {
		dateCond["$gte"] = domain.DateOnly(*filter.StartDate)
	}
	if filter.EndDate != nil {
		dateCond["$lte"] = domain.DateOnly(*filter.EndDate)
	}
	if len(dateCond) > 0 {
		query["date"] = dateCond
	}
	if filter.PlannedSessionID != nil {
		query["plannedSessionId"] = *filter.PlannedSessionID
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []domain.DoneSession{}
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// FindByPlannedSession finds the athlete's done-record referencing the
// planned session, excluding the record under edit (if any).
func (r *mongoDoneSessionRepository) FindByPlannedSession(ctx context.Context, athleteID, plannedSessionID primitive.ObjectID, excludeID *primitive.ObjectID) (*domain.DoneSession, error) {
	filter := bson.M{
		"athleteId":        athleteID,
		"plannedSessionId": plannedSessionID,
	}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}
	var session domain.DoneSession
	err := r.collection.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// FindManualByDate finds the athlete's manual (unlinked) record on the
// calendar date, excluding the record under edit (if any).
func (r *mongoDoneSessionRepository) FindManualByDate(ctx context.Context, athleteID primitive.ObjectID, date time.Time, excludeID *primitive.ObjectID) (*domain.DoneSession, error) {
	filter := bson.M{
		"athleteId":        athleteID,
		"date":             domain.DateOnly(date),
		"plannedSessionId": nil,
	}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}
	var session domain.DoneSession
	err := r.collection.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// ListByPlannedSessions retrieves the athlete's done-records referencing
// any of the given planned sessions.
func (r *mongoDoneSessionRepository) ListByPlannedSessions(ctx context.Context, athleteID primitive.ObjectID, plannedIDs []primitive.ObjectID) ([]domain.DoneSession, error) {
	if len(plannedIDs) == 0 {
		return []domain.DoneSession{}, nil
	}
	filter := bson.M{
		"athleteId":        athleteID,
		"plannedSessionId": bson.M{"$in": plannedIDs},
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []domain.DoneSession{}
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CountByAthlete counts every completed session of the athlete.
func (r *mongoDoneSessionRepository) CountByAthlete(ctx context.Context, athleteID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"athleteId": athleteID})
}

// SumDistanceByAthlete sums the athlete's recorded distances, all time.
func (r *mongoDoneSessionRepository) SumDistanceByAthlete(ctx context.Context, athleteID primitive.ObjectID) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"athleteId": athleteID}}},
		{{Key: "$group", Value: bson.M{
			"_id":      nil,
			"distance": bson.M{"$sum": bson.M{"$ifNull": bson.A{"$actualDistance", 0}}},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Distance float64 `bson:"distance"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Distance, nil
}

// AggregateWindow computes distance sum, session count and mean RPE over an
// inclusive date window. $avg skips records with no recorded RPE and yields
// null when none has one, which decodes into a nil AvgRPE.
func (r *mongoDoneSessionRepository) AggregateWindow(ctx context.Context, athleteID primitive.ObjectID, start, end time.Time) (repository.WindowTotals, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"athleteId": athleteID,
			"date": bson.M{
				"$gte": domain.DateOnly(start),
				"$lte": domain.DateOnly(end),
			},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":      nil,
			"distance": bson.M{"$sum": bson.M{"$ifNull": bson.A{"$actualDistance", 0}}},
			"sessions": bson.M{"$sum": 1},
			"avgRpe":   bson.M{"$avg": "$actualRpe"},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return repository.WindowTotals{}, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Distance float64  `bson:"distance"`
		Sessions int64    `bson:"sessions"`
		AvgRPE   *float64 `bson:"avgRpe"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return repository.WindowTotals{}, err
	}
	if len(rows) == 0 {
		return repository.WindowTotals{}, nil
	}
	return repository.WindowTotals{
		TotalDistance: rows[0].Distance,
		Sessions:      rows[0].Sessions,
		AvgRPE:        rows[0].AvgRPE,
	}, nil
}

// TypeDistribution buckets the athlete's done-sessions in the window by the
// originating planned session's type, with unlinked records under "MANUAL".
func (r *mongoDoneSessionRepository) TypeDistribution(ctx context.Context, athleteID primitive.ObjectID, start, end time.Time) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"athleteId": athleteID,
			"date": bson.M{
				"$gte": domain.DateOnly(start),
				"$lte": domain.DateOnly(end),
			},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         plannedSessionCollectionName,
			"localField":   "plannedSessionId",
			"foreignField": "_id",
			"as":           "planned",
		}}},
		{{Key: "$unwind", Value: bson.M{
			"path":                       "$planned",
			"preserveNullAndEmptyArrays": true,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$ifNull": bson.A{"$planned.type", domain.TypeManual}},
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Type  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	distribution := make(map[string]int64, len(rows))
	for _, row := range rows {
		distribution[row.Type] = row.Count
	}
	return distribution, nil
}

// GroupTotalsByAthletes groups completed counts and distance sums per
// athlete over a window. Athletes with no sessions are absent from the map.
func (r *mongoDoneSessionRepository) GroupTotalsByAthletes(ctx context.Context, athleteIDs []primitive.ObjectID, start, end time.Time) (map[primitive.ObjectID]repository.AthleteWindowTotals, error) {
	totals := make(map[primitive.ObjectID]repository.AthleteWindowTotals)
	if len(athleteIDs) == 0 {
		return totals, nil
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
			"_id":      "$athleteId",
			"sessions": bson.M{"$sum": 1},
			"distance": bson.M{"$sum": bson.M{"$ifNull": bson.A{"$actualDistance", 0}}},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		AthleteID primitive.ObjectID `bson:"_id"`
		Sessions  int64              `bson:"sessions"`
		Distance  float64            `bson:"distance"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		totals[row.AthleteID] = repository.AthleteWindowTotals{
			Sessions:      row.Sessions,
			TotalDistance: row.Distance,
		}
	}
	return totals, nil
}

// UnsetPlannedRefs nullifies references to deleted planned sessions,
// turning the affected records into manual entries.
func (r *mongoDoneSessionRepository) UnsetPlannedRefs(ctx context.Context, plannedIDs []primitive.ObjectID) error {
	if len(plannedIDs) == 0 {
		return nil
	}
	filter := bson.M{"plannedSessionId": bson.M{"$in": plannedIDs}}
	_, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"plannedSessionId": nil}})
	return err
}

// EnsureDoneSessionIndexes creates the done_sessions indexes, including the
// two unique partial indexes backing the duplicate guard: one done-record
// per (athlete, planned session), one manual record per (athlete, date).
func EnsureDoneSessionIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "athleteId", Value: 1},
				{Key: "plannedSessionId", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"plannedSessionId": bson.M{"$type": "objectId"}}),
		},
		{
			Keys: bson.D{
				{Key: "athleteId", Value: 1},
				{Key: "date", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"plannedSessionId": bson.M{"$type": "null"}}),
		},
		{
			Keys: bson.D{
				{Key: "athleteId", Value: 1},
				{Key: "date", Value: -1},
			},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
