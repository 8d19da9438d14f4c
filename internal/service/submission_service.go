package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"beneficiary-data/internal/authz"
	"beneficiary-data/internal/domain"
	"beneficiary-data/internal/events"
	"beneficiary-data/internal/repository"

	"go.uber.org/zap"
)

// SubmissionService 公开表单提交与转入受益人列表
type SubmissionService struct {
	teams       repository.TeamsRepository
	links       repository.FormLinkRepository
	submissions repository.SubmissionRepository
	records     repository.BeneficiaryRepository
	checker     *authz.Checker
	notify      notifier
	bulk        BulkOptions
	logger      *zap.Logger
	now         func() time.Time
}

func NewSubmissionService(store *repository.Store, checker *authz.Checker, pub events.Publisher, bulk BulkOptions, logger *zap.Logger) *SubmissionService {
	return &SubmissionService{
		teams:       store.Teams,
		links:       store.FormLinks,
		submissions: store.Submissions,
		records:     store.Beneficiaries,
		checker:     checker,
		notify:      notifier{pub: pub, logger: logger},
		bulk:        bulk.withDefaults(),
		logger:      logger,
		now:         time.Now,
	}
}

// PublicForm 公开表单所需信息
type PublicForm struct {
	TeamID   string         `json:"team_id"`
	TeamName string         `json:"team_name"`
	LinkID   string         `json:"link_id,omitempty"`
	LinkName string         `json:"link_name,omitempty"`
	Schema   []domain.Field `json:"schema"`
}

// open resolves the team and, when given, the link of a public request.
// Unknown teams and inactive or foreign links are ErrFormUnavailable.
func (s *SubmissionService) open(ctx context.Context, teamID, linkID string) (*domain.Team, *domain.FormLink, error) {
	if teamID == "" {
		return nil, nil, ErrFormUnavailable
	}
	team, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrFormUnavailable
		}
		return nil, nil, fmt.Errorf("failed to load team: %w", err)
	}
	if linkID == "" {
		return team, nil, nil
	}
	link, err := s.links.GetLink(ctx, teamID, linkID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrFormUnavailable
		}
		return nil, nil, fmt.Errorf("failed to load form link: %w", err)
	}
	if !link.Active || link.TeamID != teamID {
		return nil, nil, ErrFormUnavailable
	}
	return team, link, nil
}

func (s *SubmissionService) PublicForm(ctx context.Context, teamID, linkID string) (*PublicForm, error) {
	team, link, err := s.open(ctx, teamID, linkID)
	if err != nil {
		return nil, err
	}
	out := &PublicForm{TeamID: team.TeamID, TeamName: team.Name, Schema: domain.Schema}
	if link != nil {
		out.LinkID, out.LinkName = link.LinkID, link.Name
	}
	return out, nil
}

// SubmitRequest 公开表单提交
type SubmitRequest struct {
	TeamID       string            `json:"team"`
	LinkID       string            `json:"link"`
	SubmissionID string            `json:"submission_id"`
	Fields       map[string]string `json:"fields"`
}

// Submit stores an application from the public form. An empty SubmissionID
// creates a submission; otherwise the applicant's earlier submission to the
// same team and link is replaced, as long as it has not been promoted.
func (s *SubmissionService) Submit(ctx context.Context, req SubmitRequest) (*domain.Submission, error) {
	if _, _, err := s.open(ctx, req.TeamID, req.LinkID); err != nil {
		return nil, err
	}
	b, err := recordFromFields(req.Fields)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if errs := domain.ValidateApplication(b, now); len(errs) > 0 {
		return nil, errs
	}

	if req.SubmissionID == "" {
		sub := &domain.Submission{
			TeamID:      req.TeamID,
			LinkID:      req.LinkID,
			Record:      *b,
			Status:      domain.SubmissionPending,
			SubmittedAt: now,
			UpdatedAt:   now,
		}
		id, err := s.submissions.CreateSubmission(ctx, sub)
		if err != nil {
			return nil, fmt.Errorf("failed to save submission: %w", err)
		}
		sub.SubmissionID = id
		s.notify.publish(ctx, events.Event{Type: events.SubmissionReceived, TeamID: req.TeamID, Count: 1, IDs: []string{id}})
		return sub, nil
	}

	sub, err := s.submissions.GetSubmission(ctx, req.TeamID, req.SubmissionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFormUnavailable
		}
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	if sub.LinkID != req.LinkID {
		return nil, ErrFormUnavailable
	}
	if sub.Status == domain.SubmissionPromoted {
		return nil, invalidf("this application has already been processed")
	}
	sub.Record = *b
	sub.UpdatedAt = now
	if err := s.submissions.UpdateSubmission(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to update submission: %w", err)
	}
	s.notify.publish(ctx, events.Event{Type: events.SubmissionReceived, TeamID: req.TeamID, Count: 1, IDs: []string{sub.SubmissionID}})
	return sub, nil
}

// List returns the team's submissions, optionally only those of one link.
func (s *SubmissionService) List(ctx context.Context, sess *domain.Session, teamID, linkID string) ([]*domain.Submission, error) {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.ReadSubmissions); err != nil {
		return nil, err
	}
	subs, err := s.submissions.ListSubmissions(ctx, teamID, linkID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return subs, nil
}

func (s *SubmissionService) Delete(ctx context.Context, sess *domain.Session, teamID, submissionID string) error {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.DeleteSubmissions); err != nil {
		return err
	}
	return s.submissions.DeleteSubmission(ctx, teamID, submissionID)
}

// Promote copies submissions into the team's beneficiary records and marks
// them promoted. Already promoted submissions are skipped and counted as
// succeeded.
func (s *SubmissionService) Promote(ctx context.Context, sess *domain.Session, teamID string, ids []string) (*BulkOutcome, error) {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.PromoteSubmissions); err != nil {
		return nil, err
	}
	ids = uniqueIDs(ids)
	now := s.now().UTC()
	res := RunChunked(ctx, len(ids), s.bulk, func(ctx context.Context, i int) error {
		sub, err := s.submissions.GetSubmission(ctx, teamID, ids[i])
		if err != nil {
			return err
		}
		if sub.Status == domain.SubmissionPromoted {
			return nil
		}
		b := sub.Record
		b.BeneficiaryID = ""
		b.TeamID = teamID
		b.CreatedAt = now.Add(time.Duration(i) * time.Microsecond)
		b.UpdatedAt = b.CreatedAt
		id, err := s.records.Insert(ctx, &b)
		if err != nil {
			return err
		}
		sub.Status = domain.SubmissionPromoted
		sub.PromotedID = id
		sub.UpdatedAt = now
		return s.submissions.UpdateSubmission(ctx, sub)
	})
	out := outcome(len(ids), res)
	if out.Succeeded > 0 {
		s.notify.publish(ctx, events.Event{Type: events.SubmissionsPromoted, TeamID: teamID, ActorID: sess.UserID, Count: out.Succeeded})
	}
	if res.Err != nil {
		s.logger.Error("promotion stopped", zap.String("team_id", teamID), zap.Int("succeeded", res.Succeeded), zap.Error(res.Err))
		return out, ErrOperationFailed
	}
	return out, nil
}
