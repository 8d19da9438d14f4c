package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"beneficiary-data/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mockCollection records the last call and returns canned results.
type mockCollection struct {
	inserted   []any
	insertErr  error
	lastFilter any
	lastUpdate any
	findOpts   []*options.FindOptions

	findOneDoc any
	findOneErr error
	findDocs   []any
	count      int64
	updateRes  *mongo.UpdateResult
	deleteRes  *mongo.DeleteResult
}

func (m *mockCollection) InsertOne(_ context.Context, document any, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	m.inserted = append(m.inserted, document)
	return &mongo.InsertOneResult{}, nil
}

func (m *mockCollection) FindOne(_ context.Context, filter any, _ ...*options.FindOneOptions) *mongo.SingleResult {
	m.lastFilter = filter
	doc := m.findOneDoc
	if doc == nil {
		doc = bson.D{}
	}
	return mongo.NewSingleResultFromDocument(doc, m.findOneErr, nil)
}

func (m *mockCollection) Find(_ context.Context, filter any, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	m.lastFilter = filter
	m.findOpts = opts
	return mongo.NewCursorFromDocuments(m.findDocs, nil, nil)
}

func (m *mockCollection) UpdateOne(_ context.Context, filter any, update any, _ ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	m.lastFilter = filter
	m.lastUpdate = update
	if m.updateRes == nil {
		return &mongo.UpdateResult{MatchedCount: 1}, nil
	}
	return m.updateRes, nil
}

func (m *mockCollection) DeleteOne(_ context.Context, filter any, _ ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	m.lastFilter = filter
	if m.deleteRes == nil {
		return &mongo.DeleteResult{DeletedCount: 1}, nil
	}
	return m.deleteRes, nil
}

func (m *mockCollection) DeleteMany(_ context.Context, filter any, _ ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	m.lastFilter = filter
	if m.deleteRes == nil {
		return &mongo.DeleteResult{}, nil
	}
	return m.deleteRes, nil
}

func (m *mockCollection) CountDocuments(_ context.Context, filter any, _ ...*options.CountOptions) (int64, error) {
	m.lastFilter = filter
	return m.count, nil
}

type mockProvider map[string]*mockCollection

func (p mockProvider) Collection(name string) Collection {
	c, ok := p[name]
	if !ok {
		c = &mockCollection{}
		p[name] = c
	}
	return c
}

func TestMongoBeneficiaryRepository_InsertStoresAmountAsString(t *testing.T) {
	p := mockProvider{}
	repo := NewMongoBeneficiaryRepository(p)

	id, err := repo.Insert(context.Background(), &domain.Beneficiary{
		TeamID:   "t1",
		LastName: "Reyes",
		Amount:   decimal.RequireFromString("1234.50"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	c := p[BeneficiariesCollection]
	require.Len(t, c.inserted, 1)
	doc := c.inserted[0].(beneficiaryDoc)
	assert.Equal(t, id, doc.ID)
	assert.Equal(t, "1234.5", doc.Record.Amount)
	assert.Equal(t, 1234.5, doc.Record.AmountValue)
	assert.Equal(t, "Reyes", doc.Record.Fields[domain.FieldLastName])
	assert.NotContains(t, doc.Record.Fields, domain.FieldAmount)
}

func TestMongoBeneficiaryRepository_List(t *testing.T) {
	at := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	stored := newBeneficiaryDoc(&domain.Beneficiary{
		BeneficiaryID: "b1",
		TeamID:        "t1",
		LastName:      "Dela Cruz",
		FirstName:     "Juan",
		Amount:        decimal.NewFromInt(300),
		CreatedAt:     at,
	})
	c := &mockCollection{findDocs: []any{stored}, count: 7}
	repo := NewMongoBeneficiaryRepository(mockProvider{BeneficiariesCollection: c})

	list, total, err := repo.List(context.Background(), "t1", BeneficiaryFilter{
		Search: "cruz",
		SortBy: domain.FieldLastName,
		Page:   3,
		Size:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, list, 1)
	assert.Equal(t, "b1", list[0].BeneficiaryID)
	assert.Equal(t, "Dela Cruz", list[0].LastName)
	assert.Equal(t, "300", list[0].Amount.String())
	assert.True(t, at.Equal(list[0].CreatedAt))

	filter := c.lastFilter.(bson.M)
	assert.Equal(t, "t1", filter["team_id"])
	or := filter["$or"].(bson.A)
	assert.Len(t, or, 4)
	assert.Equal(t, bson.M{"fields.last_name": primitive.Regex{Pattern: "cruz", Options: "i"}}, or[0])
	nor := filter["$nor"].(bson.A)
	require.Len(t, nor, 1)
	empty := nor[0].(bson.M)
	assert.Equal(t, 0, empty["amount_value"])
	assert.Equal(t, "", empty["fields.first_name"])
	assert.Len(t, empty, len(domain.Schema))

	require.Len(t, c.findOpts, 1)
	assert.Equal(t, int64(4), *c.findOpts[0].Skip)
	assert.Equal(t, int64(2), *c.findOpts[0].Limit)
	assert.Equal(t, bson.D{{Key: "fields.last_name", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}, c.findOpts[0].Sort)
}

func TestMongoBeneficiaryRepository_NotFound(t *testing.T) {
	c := &mockCollection{
		findOneErr: mongo.ErrNoDocuments,
		updateRes:  &mongo.UpdateResult{MatchedCount: 0},
		deleteRes:  &mongo.DeleteResult{DeletedCount: 0},
	}
	repo := NewMongoBeneficiaryRepository(mockProvider{BeneficiariesCollection: c})
	ctx := context.Background()

	_, err := repo.Get(ctx, "t1", "b1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, bson.M{"_id": "b1", "team_id": "t1"}, c.lastFilter)

	assert.ErrorIs(t, repo.Update(ctx, &domain.Beneficiary{BeneficiaryID: "b1", TeamID: "t1"}), ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "t1", "b1"), ErrNotFound)
}

func TestMongoUsersRepository(t *testing.T) {
	at := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	c := &mockCollection{findOneDoc: userDoc{ID: "u1", Email: "A@example.org", EmailLower: "a@example.org", PasswordHash: "h", CreatedAt: at}}
	repo := NewMongoUsersRepository(mockProvider{UsersCollection: c})

	u, err := repo.GetUserByEmail(context.Background(), " A@Example.org")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
	assert.Equal(t, "h", u.PasswordHash)
	assert.Equal(t, bson.M{"email_lower": "a@example.org"}, c.lastFilter)

	c.insertErr = errors.New("boom")
	_, err = repo.CreateUser(context.Background(), &domain.User{Email: "b@example.org"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConflict)
}

func TestMongoSubmissionRepository_RoundTrip(t *testing.T) {
	at := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	p := mockProvider{}
	repo := NewMongoSubmissionRepository(p)

	_, err := repo.CreateSubmission(context.Background(), &domain.Submission{
		TeamID:      "t1",
		LinkID:      "l1",
		Record:      domain.Beneficiary{LastName: "Santos", Sex: "Female", Amount: decimal.NewFromInt(50)},
		Status:      domain.SubmissionPending,
		SubmittedAt: at,
	})
	require.NoError(t, err)

	c := p[SubmissionsCollection]
	c.findDocs = c.inserted
	list, err := repo.ListSubmissions(context.Background(), "t1", "l1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Santos", list[0].Record.LastName)
	assert.Equal(t, "Female", list[0].Record.Sex)
	assert.Equal(t, "50", list[0].Record.Amount.String())
	assert.Equal(t, bson.M{"team_id": "t1", "link_id": "l1"}, c.lastFilter)
}
