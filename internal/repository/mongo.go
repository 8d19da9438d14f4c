package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names of the mongo backend.
const (
	UsersCollection         = "users"
	TeamsCollection         = "teams"
	MembersCollection       = "team_members"
	BeneficiariesCollection = "beneficiaries"
	FormLinksCollection     = "form_links"
	SubmissionsCollection   = "form_submissions"
)

// ---- Abstractions for testability ----

// Collection is the subset of *mongo.Collection the repositories use.
type Collection interface {
	InsertOne(ctx context.Context, document any, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	FindOne(ctx context.Context, filter any, opts ...*options.FindOneOptions) *mongo.SingleResult
	Find(ctx context.Context, filter any, opts ...*options.FindOptions) (*mongo.Cursor, error)
	UpdateOne(ctx context.Context, filter any, update any, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter any, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	DeleteMany(ctx context.Context, filter any, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	CountDocuments(ctx context.Context, filter any, opts ...*options.CountOptions) (int64, error)
}

// CollectionProvider hands out collections by name.
type CollectionProvider interface {
	Collection(name string) Collection
}

// MongoProvider adapts *mongo.Database to CollectionProvider.
type MongoProvider struct {
	db *mongo.Database
}

func NewMongoProvider(db *mongo.Database) *MongoProvider {
	return &MongoProvider{db: db}
}

func (p *MongoProvider) Collection(name string) Collection {
	return p.db.Collection(name)
}

// NewMongoStore returns a Store whose repositories use p.
func NewMongoStore(p CollectionProvider) *Store {
	return &Store{
		Users:         NewMongoUsersRepository(p),
		Teams:         NewMongoTeamsRepository(p),
		Members:       NewMongoMembershipRepository(p),
		Beneficiaries: NewMongoBeneficiaryRepository(p),
		FormLinks:     NewMongoFormLinkRepository(p),
		Submissions:   NewMongoSubmissionRepository(p),
	}
}

// EnsureMongoIndexes creates the unique and lookup indexes. It is safe to
// run on every start.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email_lower", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		MembersCollection: {
			{Keys: bson.D{{Key: "team_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		BeneficiariesCollection: {
			{Keys: bson.D{{Key: "team_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		FormLinksCollection: {
			{Keys: bson.D{{Key: "team_id", Value: 1}}},
		},
		SubmissionsCollection: {
			{Keys: bson.D{{Key: "team_id", Value: 1}, {Key: "submitted_at", Value: 1}}},
		},
	}
	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// findOne decodes the first match into out, mapping no-documents to
// ErrNotFound.
func findOne(ctx context.Context, c Collection, filter any, out any, what, id string) error {
	err := c.FindOne(ctx, filter).Decode(out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
		}
		return fmt.Errorf("failed to get %s: %w", what, err)
	}
	return nil
}

func matched(res *mongo.UpdateResult, what, id string) error {
	if res == nil || res.MatchedCount == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}

func deleted(res *mongo.DeleteResult, what, id string) error {
	if res == nil || res.DeletedCount == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}
