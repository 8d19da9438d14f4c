package repository

import (
	"context"
	"fmt"
	"strings"

	"beneficiary-data/internal/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoUsersRepository stores accounts in the users collection.
type MongoUsersRepository struct {
	provider CollectionProvider
}

func NewMongoUsersRepository(p CollectionProvider) *MongoUsersRepository {
	return &MongoUsersRepository{provider: p}
}

var _ UsersRepository = (*MongoUsersRepository)(nil)

func (r *MongoUsersRepository) CreateUser(ctx context.Context, u *domain.User) (string, error) {
	doc := newUserDoc(u)
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if _, err := r.provider.Collection(UsersCollection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("email %s: %w", u.Email, ErrConflict)
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	return doc.ID, nil
}

func (r *MongoUsersRepository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var doc userDoc
	if err := findOne(ctx, r.provider.Collection(UsersCollection), bson.M{"_id": userID}, &doc, "user", userID); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *MongoUsersRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var doc userDoc
	filter := bson.M{"email_lower": strings.ToLower(strings.TrimSpace(email))}
	if err := findOne(ctx, r.provider.Collection(UsersCollection), filter, &doc, "user", email); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}
