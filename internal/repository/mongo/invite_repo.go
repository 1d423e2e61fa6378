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

const inviteCollectionName = "coach_invites"

// mongoInviteRepository implements repository.InviteRepository
type mongoInviteRepository struct {
	collection *mongo.Collection
}

// NewMongoInviteRepository creates a new CoachInvite repository backed by MongoDB.
func NewMongoInviteRepository(db *mongo.Database) repository.InviteRepository {
	return &mongoInviteRepository{
		collection: db.Collection(inviteCollectionName),
	}
}

// Create inserts a new invite.
func (r *mongoInviteRepository) Create(ctx context.Context, invite *domain.CoachInvite) (primitive.ObjectID, error) {
	if invite.CoachID == primitive.NilObjectID || invite.AthleteEmail == "" {
		return primitive.NilObjectID, errors.New("invite requires coachId and athleteEmail")
	}

	invite.ID = primitive.NewObjectID()
	invite.CreatedAt = time.Now().UTC()
	if invite.Status == "" {
		invite.Status = domain.InvitePending
	}

	result, err := r.collection.InsertOne(ctx, invite)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted invite ID")
	}
	return insertedID, nil
}

// GetByID retrieves an invite by its ID.
func (r *mongoInviteRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CoachInvite, error) {
	var invite domain.CoachInvite
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&invite)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &invite, nil
}

// FindPending finds the PENDING invite for the (coach, email) pair, if any.
func (r *mongoInviteRepository) FindPending(ctx context.Context, coachID primitive.ObjectID, athleteEmail string) (*domain.CoachInvite, error) {
	filter := bson.M{
		"coachId":      coachID,
		"athleteEmail": athleteEmail,
		"status":       domain.InvitePending,
	}
	var invite domain.CoachInvite
	err := r.collection.FindOne(ctx, filter).Decode(&invite)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &invite, nil
}

// BindAthlete back-fills the athlete reference on a single invite.
func (r *mongoInviteRepository) BindAthlete(ctx context.Context, inviteID, athleteID primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": inviteID},
		bson.M{"$set": bson.M{"athleteId": athleteID}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// BindPendingByEmail binds every unbound PENDING invite targeting the email
// to the athlete. This is the deferred-binding pass run when an athlete
// registers (or lists invites) after being invited.
func (r *mongoInviteRepository) BindPendingByEmail(ctx context.Context, athleteEmail string, athleteID primitive.ObjectID) (int64, error) {
	filter := bson.M{
		"athleteEmail": athleteEmail,
		"athleteId":    nil,
		"status":       domain.InvitePending,
	}
	result, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"athleteId": athleteID}})
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// SetStatus moves an invite to a terminal state and stamps respondedAt.
func (r *mongoInviteRepository) SetStatus(ctx context.Context, inviteID primitive.ObjectID, status domain.InviteStatus, respondedAt time.Time) error {
	update := bson.M{"$set": bson.M{
		"status":      status,
		"respondedAt": respondedAt.UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": inviteID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListByCoach retrieves the coach's sent invites, newest first.
func (r *mongoInviteRepository) ListByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.CoachInvite, error) {
	return r.list(ctx, bson.M{"coachId": coachID})
}

// ListByAthlete retrieves the athlete's received invites, newest first.
func (r *mongoInviteRepository) ListByAthlete(ctx context.Context, athleteID primitive.ObjectID) ([]domain.CoachInvite, error) {
	return r.list(ctx, bson.M{"athleteId": athleteID})
}

func (r *mongoInviteRepository) list(ctx context.Context, filter bson.M) ([]domain.CoachInvite, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	invites := []domain.CoachInvite{}
	if err = cursor.All(ctx, &invites); err != nil {
		return nil, err
	}
	return invites, nil
}

// EnsureInviteIndexes creates indexes for the coach_invites collection.
func EnsureInviteIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// Serves both the pending-invite dedup lookup and coach listings.
			Keys: bson.D{
				{Key: "coachId", Value: 1},
				{Key: "athleteEmail", Value: 1},
				{Key: "status", Value: 1},
			},
		},
		{
			Keys:    bson.D{{Key: "athleteId", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			// Deferred-binding scan: unbound pending invites by email.
			Keys: bson.D{
				{Key: "athleteEmail", Value: 1},
				{Key: "status", Value: 1},
			},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
