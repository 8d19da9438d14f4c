package repository

import (
	"context"
	"fmt"

	"beneficiary-data/internal/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTeamsRepository 团队集合
type MongoTeamsRepository struct {
	provider CollectionProvider
}

func NewMongoTeamsRepository(p CollectionProvider) *MongoTeamsRepository {
	return &MongoTeamsRepository{provider: p}
}

var _ TeamsRepository = (*MongoTeamsRepository)(nil)

func (r *MongoTeamsRepository) CreateTeam(ctx context.Context, t *domain.Team) (string, error) {
	doc := teamDoc{ID: t.TeamID, Name: t.Name, CreatedBy: t.CreatedBy, CreatedAt: t.CreatedAt}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if _, err := r.provider.Collection(TeamsCollection).InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to create team: %w", err)
	}
	return doc.ID, nil
}

func (r *MongoTeamsRepository) GetTeam(ctx context.Context, teamID string) (*domain.Team, error) {
	var doc teamDoc
	if err := findOne(ctx, r.provider.Collection(TeamsCollection), bson.M{"_id": teamID}, &doc, "team", teamID); err != nil {
		return nil, err
	}
	return &domain.Team{TeamID: doc.ID, Name: doc.Name, CreatedBy: doc.CreatedBy, CreatedAt: doc.CreatedAt}, nil
}

func (r *MongoTeamsRepository) RenameTeam(ctx context.Context, teamID, name string) error {
	res, err := r.provider.Collection(TeamsCollection).UpdateOne(ctx, bson.M{"_id": teamID}, bson.M{"$set": bson.M{"name": name}})
	if err != nil {
		return fmt.Errorf("failed to rename team: %w", err)
	}
	return matched(res, "team", teamID)
}

func (r *MongoTeamsRepository) DeleteTeam(ctx context.Context, teamID string) error {
	res, err := r.provider.Collection(TeamsCollection).DeleteOne(ctx, bson.M{"_id": teamID})
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	return deleted(res, "team", teamID)
}

// MongoMembershipRepository 成员关系集合，(team_id, user_id) 唯一
type MongoMembershipRepository struct {
	provider CollectionProvider
}

func NewMongoMembershipRepository(p CollectionProvider) *MongoMembershipRepository {
	return &MongoMembershipRepository{provider: p}
}

var _ MembershipRepository = (*MongoMembershipRepository)(nil)

func (r *MongoMembershipRepository) AddMember(ctx context.Context, m *domain.TeamMember) error {
	doc := memberDoc{
		TeamID:    m.TeamID,
		UserID:    m.UserID,
		Email:     m.Email,
		Role:      string(m.Role),
		Pending:   m.Pending,
		InvitedBy: m.InvitedBy,
		CreatedAt: m.CreatedAt,
	}
	if _, err := r.provider.Collection(MembersCollection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("member %s of team %s: %w", m.UserID, m.TeamID, ErrConflict)
		}
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

func (r *MongoMembershipRepository) GetMember(ctx context.Context, teamID, userID string) (*domain.TeamMember, error) {
	var doc memberDoc
	filter := bson.M{"team_id": teamID, "user_id": userID}
	if err := findOne(ctx, r.provider.Collection(MembersCollection), filter, &doc, "member", userID); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *MongoMembershipRepository) ListMembers(ctx context.Context, teamID string) ([]*domain.TeamMember, error) {
	return r.find(ctx, bson.M{"team_id": teamID})
}

func (r *MongoMembershipRepository) ListByUser(ctx context.Context, userID string) ([]*domain.TeamMember, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *MongoMembershipRepository) find(ctx context.Context, filter bson.M) ([]*domain.TeamMember, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "email", Value: 1}})
	cur, err := r.provider.Collection(MembersCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	var docs []memberDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode members: %w", err)
	}
	out := make([]*domain.TeamMember, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *MongoMembershipRepository) UpdateMember(ctx context.Context, m *domain.TeamMember) error {
	res, err := r.provider.Collection(MembersCollection).UpdateOne(ctx,
		bson.M{"team_id": m.TeamID, "user_id": m.UserID},
		bson.M{"$set": bson.M{"role": string(m.Role), "pending": m.Pending}},
	)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	return matched(res, "member", m.UserID)
}

func (r *MongoMembershipRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	res, err := r.provider.Collection(MembersCollection).DeleteOne(ctx, bson.M{"team_id": teamID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return deleted(res, "member", userID)
}

func (r *MongoMembershipRepository) RemoveByTeam(ctx context.Context, teamID string) error {
	if _, err := r.provider.Collection(MembersCollection).DeleteMany(ctx, bson.M{"team_id": teamID}); err != nil {
		return fmt.Errorf("failed to remove members: %w", err)
	}
	return nil
}
