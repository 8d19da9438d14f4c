package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"beneficiary-data/internal/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBeneficiaryRepository 受益人集合
type MongoBeneficiaryRepository struct {
	provider CollectionProvider
}

func NewMongoBeneficiaryRepository(p CollectionProvider) *MongoBeneficiaryRepository {
	return &MongoBeneficiaryRepository{provider: p}
}

var _ BeneficiaryRepository = (*MongoBeneficiaryRepository)(nil)

// caseInsensitive orders strings ignoring case.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

func mongoFilter(teamID string, f BeneficiaryFilter) bson.M {
	filter := bson.M{"team_id": teamID}
	if s := strings.TrimSpace(f.Search); s != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
		or := make(bson.A, 0, len(nameFields))
		for _, key := range nameFields {
			or = append(or, bson.M{"fields." + key: re})
		}
		filter["$or"] = or
	}
	if t := strings.TrimSpace(f.TypeOfAssistance); t != "" {
		filter["fields."+domain.FieldTypeOfAssistance] = primitive.Regex{Pattern: `^\s*` + regexp.QuoteMeta(t) + `\s*$`, Options: "i"}
	}
	filter["$nor"] = bson.A{emptyRecordDoc}
	return filter
}

// emptyRecordDoc matches documents whose fields are all blank and whose
// amount is zero.
var emptyRecordDoc = func() bson.M {
	m := bson.M{"amount_value": 0}
	for _, f := range domain.Schema {
		if f.Key != domain.FieldAmount {
			m["fields."+f.Key] = ""
		}
	}
	return m
}()

func mongoSort(f BeneficiaryFilter) bson.D {
	dir := 1
	if f.Desc {
		dir = -1
	}
	switch key := f.SortField(); key {
	case "":
		return bson.D{{Key: "created_at", Value: dir}, {Key: "_id", Value: 1}}
	case domain.FieldAmount:
		return bson.D{{Key: "amount_value", Value: dir}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "fields." + key, Value: dir}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	}
}

func (r *MongoBeneficiaryRepository) List(ctx context.Context, teamID string, filter BeneficiaryFilter) ([]*domain.Beneficiary, int, error) {
	c := r.provider.Collection(BeneficiariesCollection)
	q := mongoFilter(teamID, filter)

	total, err := c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count beneficiaries: %w", err)
	}

	opts := options.Find().SetSort(mongoSort(filter)).SetCollation(caseInsensitive)
	if filter.Size > 0 {
		opts.SetSkip(int64(filter.Offset())).SetLimit(int64(filter.Size))
	}
	cur, err := c.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list beneficiaries: %w", err)
	}
	var docs []beneficiaryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode beneficiaries: %w", err)
	}
	out := make([]*domain.Beneficiary, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, int(total), nil
}

func (r *MongoBeneficiaryRepository) Get(ctx context.Context, teamID, beneficiaryID string) (*domain.Beneficiary, error) {
	var doc beneficiaryDoc
	filter := bson.M{"_id": beneficiaryID, "team_id": teamID}
	if err := findOne(ctx, r.provider.Collection(BeneficiariesCollection), filter, &doc, "beneficiary", beneficiaryID); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *MongoBeneficiaryRepository) Insert(ctx context.Context, b *domain.Beneficiary) (string, error) {
	doc := newBeneficiaryDoc(b)
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if _, err := r.provider.Collection(BeneficiariesCollection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("beneficiary %s: %w", doc.ID, ErrConflict)
		}
		return "", fmt.Errorf("failed to insert beneficiary: %w", err)
	}
	return doc.ID, nil
}

func (r *MongoBeneficiaryRepository) Update(ctx context.Context, b *domain.Beneficiary) error {
	rec := newRecordDoc(b)
	res, err := r.provider.Collection(BeneficiariesCollection).UpdateOne(ctx,
		bson.M{"_id": b.BeneficiaryID, "team_id": b.TeamID},
		bson.M{"$set": bson.M{
			"fields":       rec.Fields,
			"amount":       rec.Amount,
			"amount_value": rec.AmountValue,
			"updated_at":   b.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update beneficiary: %w", err)
	}
	return matched(res, "beneficiary", b.BeneficiaryID)
}

func (r *MongoBeneficiaryRepository) Delete(ctx context.Context, teamID, beneficiaryID string) error {
	res, err := r.provider.Collection(BeneficiariesCollection).DeleteOne(ctx, bson.M{"_id": beneficiaryID, "team_id": teamID})
	if err != nil {
		return fmt.Errorf("failed to delete beneficiary: %w", err)
	}
	return deleted(res, "beneficiary", beneficiaryID)
}

func (r *MongoBeneficiaryRepository) DeleteByTeam(ctx context.Context, teamID string) (int, error) {
	res, err := r.provider.Collection(BeneficiariesCollection).DeleteMany(ctx, bson.M{"team_id": teamID})
	if err != nil {
		return 0, fmt.Errorf("failed to clear beneficiaries: %w", err)
	}
	return int(res.DeletedCount), nil
}
