package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"beneficiary-data/internal/authz"
	"beneficiary-data/internal/dedupe"
	"beneficiary-data/internal/domain"
	"beneficiary-data/internal/events"
	"beneficiary-data/internal/mapping"
	"beneficiary-data/internal/repository"
	"beneficiary-data/internal/spreadsheet"

	"go.uber.org/zap"
)

const (
	DefaultPageSize   = 50
	MaxPageSize       = 500
	PreviewSampleRows = 5
	DefaultMaxImport  = 20 << 20
)

// BeneficiaryService 受益人记录：列表、编辑、导入导出与去重
type BeneficiaryService struct {
	records   repository.BeneficiaryRepository
	checker   *authz.Checker
	notify    notifier
	bulk      BulkOptions
	maxImport int64
	logger    *zap.Logger
	now       func() time.Time
}

func NewBeneficiaryService(records repository.BeneficiaryRepository, checker *authz.Checker, pub events.Publisher, bulk BulkOptions, maxImport int64, logger *zap.Logger) *BeneficiaryService {
	if maxImport <= 0 {
		maxImport = DefaultMaxImport
	}
	return &BeneficiaryService{
		records:   records,
		checker:   checker,
		notify:    notifier{pub: pub, logger: logger},
		bulk:      bulk.withDefaults(),
		maxImport: maxImport,
		logger:    logger,
		now:       time.Now,
	}
}

// ListBeneficiariesRequest 列表请求
type ListBeneficiariesRequest struct {
	Search           string
	TypeOfAssistance string
	SortBy           string
	Desc             bool
	Page             int
	Size             int
}

// ListBeneficiariesResponse 列表响应
type ListBeneficiariesResponse struct {
	Items []*domain.Beneficiary `json:"items"`
	Total int                   `json:"total"`
	Page  int                   `json:"page"`
	Size  int                   `json:"size"`
}

func (s *BeneficiaryService) List(ctx context.Context, sess *domain.Session, teamID string, req ListBeneficiariesRequest) (*ListBeneficiariesResponse, error) {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.ReadRecords); err != nil {
		return nil, err
	}
	if req.SortBy != "" {
		if _, ok := domain.FieldByKey(req.SortBy); !ok && req.SortBy != "created_at" {
			return nil, invalidf("cannot sort by %q", req.SortBy)
		}
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Size <= 0 {
		req.Size = DefaultPageSize
	}
	if req.Size > MaxPageSize {
		req.Size = MaxPageSize
	}

	items, total, err := s.records.List(ctx, teamID, repository.BeneficiaryFilter{
		Search:           req.Search,
		TypeOfAssistance: req.TypeOfAssistance,
		SortBy:           req.SortBy,
		Desc:             req.Desc,
		Page:             req.Page,
		Size:             req.Size,
	})
	if err != nil {
		return nil, s.storageError("list beneficiaries", teamID, err)
	}
	return &ListBeneficiariesResponse{Items: items, Total: total, Page: req.Page, Size: req.Size}, nil
}

func (s *BeneficiaryService) Get(ctx context.Context, sess *domain.Session, teamID, id string) (*domain.Beneficiary, error) {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.ReadRecords); err != nil {
		return nil, err
	}
	b, err := s.records.Get(ctx, teamID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, s.storageError("get beneficiary", teamID, err)
	}
	return b, nil
}

// recordFromFields builds a record from field key -> value pairs. Unknown
// keys are rejected.
func recordFromFields(fields map[string]string) (*domain.Beneficiary, error) {
	b := &domain.Beneficiary{}
	errs := domain.FieldErrors{}
	for key, v := range fields {
		if _, ok := domain.FieldByKey(key); !ok {
			errs[key] = "unknown field"
			continue
		}
		if err := b.Set(key, v); err != nil {
			errs[key] = err.Error()
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return b, nil
}

// Create adds one record entered by hand. It runs the application checks.
func (s *BeneficiaryService) Create(ctx context.Context, sess *domain.Session, teamID string, fields map[string]string) (*domain.Beneficiary, error) {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.WriteRecords); err != nil {
		return nil, err
	}
	b, err := recordFromFields(fields)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if errs := domain.ValidateApplication(b, now); len(errs) > 0 {
		return nil, errs
	}
	b.TeamID = teamID
	b.CreatedAt, b.UpdatedAt = now, now
	id, err := s.records.Insert(ctx, b)
	if err != nil {
		return nil, s.storageError("create beneficiary", teamID, err)
	}
	b.BeneficiaryID = id
	return b, nil
}

// Update applies an inline edit: only the given fields change.
func (s *BeneficiaryService) Update(ctx context.Context, sess *domain.Session, teamID, id string, fields map[string]string) (*domain.Beneficiary, error) {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.WriteRecords); err != nil {
		return nil, err
	}
	b, err := s.records.Get(ctx, teamID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, s.storageError("get beneficiary", teamID, err)
	}
	errs := domain.FieldErrors{}
	for key, v := range fields {
		if _, ok := domain.FieldByKey(key); !ok {
			errs[key] = "unknown field"
			continue
		}
		if err := b.Set(key, v); err != nil {
			errs[key] = err.Error()
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	if b.IsEmpty() {
		return nil, invalidf("a record must keep at least one value")
	}
	b.UpdatedAt = s.now().UTC()
	if err := s.records.Update(ctx, b); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, s.storageError("update beneficiary", teamID, err)
	}
	return b, nil
}

// BulkEditRequest sets one field to the same value on many records.
type BulkEditRequest struct {
	IDs   []string `json:"ids"`
	Field string   `json:"field"`
	Value string   `json:"value"`
}

// BulkEdit is the mass edit. A missing record stops the run like any other
// failure.
func (s *BeneficiaryService) BulkEdit(ctx context.Context, sess *domain.Session, teamID string, req BulkEditRequest) (*BulkOutcome, error) {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.WriteRecords); err != nil {
		return nil, err
	}
	if _, ok := domain.FieldByKey(req.Field); !ok {
		return nil, invalidf("unknown field %q", req.Field)
	}
	var probe domain.Beneficiary
	if err := probe.Set(req.Field, req.Value); err != nil {
		return nil, domain.FieldErrors{req.Field: err.Error()}
	}

	ids := uniqueIDs(req.IDs)
	now := s.now().UTC()
	res := RunChunked(ctx, len(ids), s.bulk, func(ctx context.Context, i int) error {
		b, err := s.records.Get(ctx, teamID, ids[i])
		if err != nil {
			return err
		}
		if err := b.Set(req.Field, req.Value); err != nil {
			return err
		}
		if b.IsEmpty() {
			return invalidf("a record must keep at least one value")
		}
		b.UpdatedAt = now
		return s.records.Update(ctx, b)
	})
	out := outcome(len(ids), res)
	if res.Err != nil {
		s.logger.Error("bulk edit stopped", zap.String("team_id", teamID), zap.Int("succeeded", res.Succeeded), zap.Error(res.Err))
		return out, ErrOperationFailed
	}
	return out, nil
}

func (s *BeneficiaryService) Delete(ctx context.Context, sess *domain.Session, teamID, id string) error {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.DeleteRecords); err != nil {
		return err
	}
	if err := s.records.Delete(ctx, teamID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return s.storageError("delete beneficiary", teamID, err)
	}
	s.notify.publish(ctx, events.Event{Type: events.RecordsDeleted, TeamID: teamID, ActorID: sess.UserID, Count: 1, IDs: []string{id}})
	return nil
}

// BulkDelete removes every listed record. Ids that are already gone count as
// deleted, so afterwards exactly the other records remain.
func (s *BeneficiaryService) BulkDelete(ctx context.Context, sess *domain.Session, teamID string, ids []string) (*BulkOutcome, error) {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.DeleteRecords); err != nil {
		return nil, err
	}
	ids = uniqueIDs(ids)
	res := s.deleteAll(ctx, teamID, ids)
	out := outcome(len(ids), res)
	if out.Succeeded > 0 {
		s.notify.publish(ctx, events.Event{Type: events.RecordsDeleted, TeamID: teamID, ActorID: sess.UserID, Count: out.Succeeded})
	}
	if res.Err != nil {
		s.logger.Error("bulk delete stopped", zap.String("team_id", teamID), zap.Int("succeeded", res.Succeeded), zap.Error(res.Err))
		return out, ErrOperationFailed
	}
	return out, nil
}

func (s *BeneficiaryService) deleteAll(ctx context.Context, teamID string, ids []string) BulkResult {
	return RunChunked(ctx, len(ids), s.bulk, func(ctx context.Context, i int) error {
		err := s.records.Delete(ctx, teamID, ids[i])
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	})
}

// Clear deletes every record of the team. It needs explicit confirmation.
func (s *BeneficiaryService) Clear(ctx context.Context, sess *domain.Session, teamID string, confirm bool) (int, error) {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.ClearRecords); err != nil {
		return 0, err
	}
	if !confirm {
		return 0, ErrConfirmationRequired
	}
	n, err := s.records.DeleteByTeam(ctx, teamID)
	if err != nil {
		return 0, s.storageError("clear beneficiaries", teamID, err)
	}
	s.logger.Info("beneficiaries cleared", zap.String("team_id", teamID), zap.String("user_id", sess.UserID), zap.Int("count", n))
	s.notify.publish(ctx, events.Event{Type: events.RecordsCleared, TeamID: teamID, ActorID: sess.UserID, Count: n})
	return n, nil
}

// ImportPreview 导入预览：表头、建议映射与样例行
type ImportPreview struct {
	Sheets           []string                       `json:"sheets"`
	Sheet            string                         `json:"sheet"`
	Headers          []string                       `json:"headers"`
	Descriptors      []spreadsheet.HeaderDescriptor `json:"descriptors"`
	Origins          map[string]string              `json:"origins"`
	DuplicateHeaders []string                       `json:"duplicate_headers"`
	Suggestions      []mapping.Suggestion           `json:"suggestions"`
	Schema           []domain.Field                 `json:"schema"`
	RowCount         int                            `json:"row_count"`
	SampleRows       []map[string]string            `json:"sample_rows"`
}

// ImportResult 导入结果
type ImportResult struct {
	Imported  int                `json:"imported"`
	Skipped   int                `json:"skipped"`
	RowErrors []mapping.RowError `json:"row_errors"`
}

func (s *BeneficiaryService) extract(r io.Reader, filename, sheet string) (*spreadsheet.Workbook, *spreadsheet.Extraction, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxImport+1))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxImport {
		return nil, nil, invalidf("file is larger than %d bytes", s.maxImport)
	}
	wb, err := spreadsheet.ReadWorkbook(bytes.NewReader(data), filename)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	sh, err := wb.Sheet(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return wb, spreadsheet.Extract(sh), nil
}

// PreviewImport reads an upload without writing anything.
func (s *BeneficiaryService) PreviewImport(ctx context.Context, sess *domain.Session, teamID string, r io.Reader, filename, sheet string) (*ImportPreview, error) {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.WriteRecords); err != nil {
		return nil, err
	}
	wb, ex, err := s.extract(r, filename, sheet)
	if err != nil {
		return nil, err
	}
	samples := ex.Rows
	if len(samples) > PreviewSampleRows {
		samples = samples[:PreviewSampleRows]
	}
	return &ImportPreview{
		Sheets:           wb.SheetNames(),
		Sheet:            ex.Sheet,
		Headers:          ex.Headers,
		Descriptors:      ex.Descriptors,
		Origins:          ex.Origins,
		DuplicateHeaders: ex.DuplicateHeaders,
		Suggestions:      mapping.Suggest(ex.Headers, domain.Schema),
		Schema:           domain.Schema,
		RowCount:         len(ex.Rows),
		SampleRows:       samples,
	}, nil
}

// Import inserts the mapped rows of one sheet. A storage failure stops the
// run and is reported without partial counts.
func (s *BeneficiaryService) Import(ctx context.Context, sess *domain.Session, teamID string, r io.Reader, filename, sheet string, m *mapping.Mapping) (*ImportResult, error) {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.WriteRecords); err != nil {
		return nil, err
	}
	if m == nil || m.Len() == 0 {
		return nil, invalidf("map at least one column before importing")
	}
	_, ex, err := s.extract(r, filename, sheet)
	if err != nil {
		return nil, err
	}
	records, rowErrs := mapping.BuildRecords(ex, m)

	now := s.now().UTC()
	res := RunChunked(ctx, len(records), s.bulk, func(ctx context.Context, i int) error {
		b := records[i]
		b.TeamID = teamID
		// Distinct timestamps keep the sheet order under creation-time sort.
		b.CreatedAt = now.Add(time.Duration(i) * time.Microsecond)
		b.UpdatedAt = b.CreatedAt
		_, err := s.records.Insert(ctx, &b)
		return err
	})
	if res.Err != nil {
		s.logger.Error("import stopped",
			zap.String("team_id", teamID),
			zap.String("file", filename),
			zap.Int("inserted", res.Succeeded),
			zap.Error(res.Err),
		)
		return nil, ErrOperationFailed
	}

	s.logger.Info("beneficiaries imported", zap.String("team_id", teamID), zap.String("user_id", sess.UserID), zap.Int("count", res.Succeeded))
	s.notify.publish(ctx, events.Event{Type: events.RecordsImported, TeamID: teamID, ActorID: sess.UserID, Count: res.Succeeded})
	return &ImportResult{
		Imported:  res.Succeeded,
		Skipped:   len(ex.Rows) - len(records),
		RowErrors: rowErrs,
	}, nil
}

// all loads every record of the team in creation order.
func (s *BeneficiaryService) all(ctx context.Context, teamID string) ([]domain.Beneficiary, error) {
	items, _, err := s.records.List(ctx, teamID, repository.BeneficiaryFilter{})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Beneficiary, 0, len(items))
	for _, b := range items {
		out = append(out, *b)
	}
	return out, nil
}

// Export writes every record of the team as an xlsx workbook.
func (s *BeneficiaryService) Export(ctx context.Context, sess *domain.Session, teamID string) ([]byte, error) {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.ReadRecords); err != nil {
		return nil, err
	}
	records, err := s.all(ctx, teamID)
	if err != nil {
		return nil, s.storageError("export beneficiaries", teamID, err)
	}
	var buf bytes.Buffer
	if err := spreadsheet.WriteExport(&buf, records); err != nil {
		s.logger.Error("failed to build export", zap.String("team_id", teamID), zap.Error(err))
		return nil, ErrOperationFailed
	}
	return buf.Bytes(), nil
}

// ExportFilename 导出文件名，例如 beneficiaries-2024-05-01.xlsx
func (s *BeneficiaryService) ExportFilename() string {
	return "beneficiaries-" + s.now().Format("2006-01-02") + ".xlsx"
}

func (s *BeneficiaryService) FindDuplicates(ctx context.Context, sess *domain.Session, teamID string) (*dedupe.Report, error) {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.ReadRecords); err != nil {
		return nil, err
	}
	records, err := s.all(ctx, teamID)
	if err != nil {
		return nil, s.storageError("scan duplicates", teamID, err)
	}
	report := dedupe.Find(records)
	return &report, nil
}

// DuplicateRemoval 重复项清理结果
//
// Report is the scan the removal is based on. Outcome is nil until the
// removal is confirmed.
type DuplicateRemoval struct {
	Report  *dedupe.Report `json:"report"`
	Outcome *BulkOutcome   `json:"outcome,omitempty"`
}

// RemoveDuplicates rescans and deletes every duplicate except the first
// record of each group. Without confirm it returns the scan together with
// ErrConfirmationRequired and deletes nothing.
func (s *BeneficiaryService) RemoveDuplicates(ctx context.Context, sess *domain.Session, teamID string, confirm bool) (*DuplicateRemoval, error) {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.DeleteRecords); err != nil {
		return nil, err
	}
	records, err := s.all(ctx, teamID)
	if err != nil {
		return nil, s.storageError("scan duplicates", teamID, err)
	}
	report := dedupe.Find(records)
	out := &DuplicateRemoval{Report: &report}
	if !confirm {
		return out, ErrConfirmationRequired
	}

	ids := report.RemovalIDs()
	res := s.deleteAll(ctx, teamID, ids)
	out.Outcome = outcome(len(ids), res)
	if out.Outcome.Succeeded > 0 {
		s.notify.publish(ctx, events.Event{Type: events.DuplicatesRemoved, TeamID: teamID, ActorID: sess.UserID, Count: out.Outcome.Succeeded})
	}
	if res.Err != nil {
		s.logger.Error("duplicate removal stopped", zap.String("team_id", teamID), zap.Int("succeeded", res.Succeeded), zap.Error(res.Err))
		return out, ErrOperationFailed
	}
	return out, nil
}

func (s *BeneficiaryService) storageError(op, teamID string, err error) error {
	s.logger.Error("failed to "+op, zap.String("team_id", teamID), zap.Error(err))
	return ErrOperationFailed
}

// uniqueIDs drops blanks and repeats, keeping first occurrences.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
