package repository

import (
	"context"
	"fmt"

	"beneficiary-data/internal/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoFormLinkRepository 表单链接集合
type MongoFormLinkRepository struct {
	provider CollectionProvider
}

func NewMongoFormLinkRepository(p CollectionProvider) *MongoFormLinkRepository {
	return &MongoFormLinkRepository{provider: p}
}

var _ FormLinkRepository = (*MongoFormLinkRepository)(nil)

func (r *MongoFormLinkRepository) CreateLink(ctx context.Context, l *domain.FormLink) (string, error) {
	doc := linkDoc{ID: l.LinkID, TeamID: l.TeamID, Name: l.Name, Active: l.Active, CreatedBy: l.CreatedBy, CreatedAt: l.CreatedAt}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if _, err := r.provider.Collection(FormLinksCollection).InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to create form link: %w", err)
	}
	return doc.ID, nil
}

func (r *MongoFormLinkRepository) GetLink(ctx context.Context, teamID, linkID string) (*domain.FormLink, error) {
	var doc linkDoc
	filter := bson.M{"_id": linkID, "team_id": teamID}
	if err := findOne(ctx, r.provider.Collection(FormLinksCollection), filter, &doc, "form link", linkID); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *MongoFormLinkRepository) ListLinks(ctx context.Context, teamID string) ([]*domain.FormLink, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.provider.Collection(FormLinksCollection).Find(ctx, bson.M{"team_id": teamID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list form links: %w", err)
	}
	var docs []linkDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode form links: %w", err)
	}
	out := make([]*domain.FormLink, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *MongoFormLinkRepository) UpdateLink(ctx context.Context, l *domain.FormLink) error {
	res, err := r.provider.Collection(FormLinksCollection).UpdateOne(ctx,
		bson.M{"_id": l.LinkID, "team_id": l.TeamID},
		bson.M{"$set": bson.M{"name": l.Name, "active": l.Active}},
	)
	if err != nil {
		return fmt.Errorf("failed to update form link: %w", err)
	}
	return matched(res, "form link", l.LinkID)
}

func (r *MongoFormLinkRepository) DeleteLink(ctx context.Context, teamID, linkID string) error {
	res, err := r.provider.Collection(FormLinksCollection).DeleteOne(ctx, bson.M{"_id": linkID, "team_id": teamID})
	if err != nil {
		return fmt.Errorf("failed to delete form link: %w", err)
	}
	return deleted(res, "form link", linkID)
}

func (r *MongoFormLinkRepository) DeleteLinksByTeam(ctx context.Context, teamID string) error {
	if _, err := r.provider.Collection(FormLinksCollection).DeleteMany(ctx, bson.M{"team_id": teamID}); err != nil {
		return fmt.Errorf("failed to delete form links: %w", err)
	}
	return nil
}

// MongoSubmissionRepository 表单提交集合
type MongoSubmissionRepository struct {
	provider CollectionProvider
}

func NewMongoSubmissionRepository(p CollectionProvider) *MongoSubmissionRepository {
	return &MongoSubmissionRepository{provider: p}
}

var _ SubmissionRepository = (*MongoSubmissionRepository)(nil)

func (r *MongoSubmissionRepository) CreateSubmission(ctx context.Context, s *domain.Submission) (string, error) {
	doc := submissionDoc{
		ID:          s.SubmissionID,
		TeamID:      s.TeamID,
		LinkID:      s.LinkID,
		Record:      newRecordDoc(&s.Record),
		Status:      string(s.Status),
		PromotedID:  s.PromotedID,
		SubmittedAt: s.SubmittedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if _, err := r.provider.Collection(SubmissionsCollection).InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to create submission: %w", err)
	}
	return doc.ID, nil
}

func (r *MongoSubmissionRepository) GetSubmission(ctx context.Context, teamID, submissionID string) (*domain.Submission, error) {
	var doc submissionDoc
	filter := bson.M{"_id": submissionID, "team_id": teamID}
	if err := findOne(ctx, r.provider.Collection(SubmissionsCollection), filter, &doc, "submission", submissionID); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *MongoSubmissionRepository) ListSubmissions(ctx context.Context, teamID, linkID string) ([]*domain.Submission, error) {
	filter := bson.M{"team_id": teamID}
	if linkID != "" {
		filter["link_id"] = linkID
	}
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.provider.Collection(SubmissionsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	var docs []submissionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode submissions: %w", err)
	}
	out := make([]*domain.Submission, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *MongoSubmissionRepository) UpdateSubmission(ctx context.Context, s *domain.Submission) error {
	res, err := r.provider.Collection(SubmissionsCollection).UpdateOne(ctx,
		bson.M{"_id": s.SubmissionID, "team_id": s.TeamID},
		bson.M{"$set": bson.M{
			"record":      newRecordDoc(&s.Record),
			"status":      string(s.Status),
			"promoted_id": s.PromotedID,
			"updated_at":  s.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}
	return matched(res, "submission", s.SubmissionID)
}

func (r *MongoSubmissionRepository) DeleteSubmission(ctx context.Context, teamID, submissionID string) error {
	res, err := r.provider.Collection(SubmissionsCollection).DeleteOne(ctx, bson.M{"_id": submissionID, "team_id": teamID})
	if err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	return deleted(res, "submission", submissionID)
}

func (r *MongoSubmissionRepository) DeleteSubmissionsByTeam(ctx context.Context, teamID string) error {
	if _, err := r.provider.Collection(SubmissionsCollection).DeleteMany(ctx, bson.M{"team_id": teamID}); err != nil {
		return fmt.Errorf("failed to delete submissions: %w", err)
	}
	return nil
}
