package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"beneficiary-data/internal/domain"

	"github.com/google/uuid"
)

// PostgresBeneficiaryRepository 受益人Repository实现
// Column names are the schema field keys.
type PostgresBeneficiaryRepository struct {
	db *sql.DB
}

func NewPostgresBeneficiaryRepository(db *sql.DB) *PostgresBeneficiaryRepository {
	return &PostgresBeneficiaryRepository{db: db}
}

var _ BeneficiaryRepository = (*PostgresBeneficiaryRepository)(nil)

func schemaColumns() []string {
	cols := make([]string, 0, len(domain.Schema))
	for _, f := range domain.Schema {
		cols = append(cols, f.Key)
	}
	return cols
}

var beneficiarySelect = `SELECT beneficiary_id::text, team_id::text, ` +
	strings.Join(schemaColumns(), ", ") + `, created_at, updated_at FROM beneficiaries`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBeneficiary(row rowScanner) (*domain.Beneficiary, error) {
	var b domain.Beneficiary
	text := make([]string, len(domain.Schema))
	dest := make([]any, 0, len(domain.Schema)+4)
	dest = append(dest, &b.BeneficiaryID, &b.TeamID)
	for i, f := range domain.Schema {
		if f.Key == domain.FieldAmount {
			dest = append(dest, &b.Amount)
		} else {
			dest = append(dest, &text[i])
		}
	}
	dest = append(dest, &b.CreatedAt, &b.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	for i, f := range domain.Schema {
		if f.Key != domain.FieldAmount {
			_ = b.Set(f.Key, text[i])
		}
	}
	return &b, nil
}

// schemaValues returns the column values in schema order.
func schemaValues(b *domain.Beneficiary) []any {
	vals := make([]any, 0, len(domain.Schema))
	for _, f := range domain.Schema {
		if f.Key == domain.FieldAmount {
			vals = append(vals, b.Amount)
		} else {
			vals = append(vals, b.Get(f.Key))
		}
	}
	return vals
}

// whereClause builds the filter conditions; args start at $1 with team_id.
func whereClause(teamID string, f BeneficiaryFilter) (string, []any) {
	conds := []string{"team_id = $1"}
	args := []any{teamID}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		n := len(args)
		parts := make([]string, 0, len(nameFields))
		for _, col := range nameFields {
			parts = append(parts, fmt.Sprintf("%s ILIKE $%d", col, n))
		}
		conds = append(conds, "("+strings.Join(parts, " OR ")+")")
	}
	if t := strings.TrimSpace(f.TypeOfAssistance); t != "" {
		args = append(args, t)
		conds = append(conds, fmt.Sprintf("lower(trim(type_of_assistance)) = lower($%d)", len(args)))
	}
	conds = append(conds, nonEmptyCondition)
	return " WHERE " + strings.Join(conds, " AND "), args
}

// nonEmptyCondition excludes records whose text fields are all blank and
// whose amount is zero.
var nonEmptyCondition = func() string {
	parts := make([]string, 0, len(domain.Schema))
	for _, f := range domain.Schema {
		if f.Key == domain.FieldAmount {
			parts = append(parts, "amount <> 0")
		} else {
			parts = append(parts, f.Key+" <> ''")
		}
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}()

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func orderClause(f BeneficiaryFilter) string {
	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}
	switch key := f.SortField(); key {
	case "":
		return " ORDER BY created_at " + dir + ", beneficiary_id"
	case domain.FieldAmount:
		return " ORDER BY amount " + dir + ", created_at, beneficiary_id"
	default:
		return " ORDER BY lower(" + key + ") " + dir + ", created_at, beneficiary_id"
	}
}

func (r *PostgresBeneficiaryRepository) List(ctx context.Context, teamID string, filter BeneficiaryFilter) ([]*domain.Beneficiary, int, error) {
	where, args := whereClause(teamID, filter)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM beneficiaries`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count beneficiaries: %w", err)
	}

	q := beneficiarySelect + where + orderClause(filter)
	if filter.Size > 0 {
		args = append(args, filter.Size, filter.Offset())
		q += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list beneficiaries: %w", err)
	}
	defer rows.Close()

	out := []*domain.Beneficiary{}
	for rows.Next() {
		b, err := scanBeneficiary(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan beneficiary: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list beneficiaries: %w", err)
	}
	return out, total, nil
}

func (r *PostgresBeneficiaryRepository) Get(ctx context.Context, teamID, beneficiaryID string) (*domain.Beneficiary, error) {
	row := r.db.QueryRowContext(ctx, beneficiarySelect+` WHERE team_id = $1 AND beneficiary_id = $2`, teamID, beneficiaryID)
	b, err := scanBeneficiary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("beneficiary %s: %w", beneficiaryID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get beneficiary: %w", err)
	}
	return b, nil
}

func (r *PostgresBeneficiaryRepository) Insert(ctx context.Context, b *domain.Beneficiary) (string, error) {
	id := b.BeneficiaryID
	if id == "" {
		id = uuid.NewString()
	}
	cols := schemaColumns()
	placeholders := make([]string, 0, len(cols)+4)
	for i := 1; i <= len(cols)+4; i++ {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i))
	}
	q := `INSERT INTO beneficiaries (beneficiary_id, team_id, ` + strings.Join(cols, ", ") +
		`, created_at, updated_at) VALUES (` + strings.Join(placeholders, ", ") + `)`

	args := append([]any{id, b.TeamID}, schemaValues(b)...)
	args = append(args, b.CreatedAt, b.UpdatedAt)
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("beneficiary %s: %w", id, ErrConflict)
		}
		return "", fmt.Errorf("failed to insert beneficiary: %w", err)
	}
	return id, nil
}

func (r *PostgresBeneficiaryRepository) Update(ctx context.Context, b *domain.Beneficiary) error {
	cols := schemaColumns()
	sets := make([]string, 0, len(cols)+1)
	for i, c := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", c, i+3))
	}
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(cols)+3))
	q := `UPDATE beneficiaries SET ` + strings.Join(sets, ", ") + ` WHERE team_id = $1 AND beneficiary_id = $2`

	args := append([]any{b.TeamID, b.BeneficiaryID}, schemaValues(b)...)
	args = append(args, b.UpdatedAt)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("failed to update beneficiary: %w", err)
	}
	return affected(res, "beneficiary", b.BeneficiaryID)
}

func (r *PostgresBeneficiaryRepository) Delete(ctx context.Context, teamID, beneficiaryID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM beneficiaries WHERE team_id = $1 AND beneficiary_id = $2`, teamID, beneficiaryID)
	if err != nil {
		return fmt.Errorf("failed to delete beneficiary: %w", err)
	}
	return affected(res, "beneficiary", beneficiaryID)
}

func (r *PostgresBeneficiaryRepository) DeleteByTeam(ctx context.Context, teamID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM beneficiaries WHERE team_id = $1`, teamID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear beneficiaries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(n), nil
}
