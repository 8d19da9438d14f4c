package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"beneficiary-data/internal/authz"
	"beneficiary-data/internal/domain"
	"beneficiary-data/internal/repository"

	"go.uber.org/zap"
)

// FormLinkService 公开申请表单链接管理
type FormLinkService struct {
	links   repository.FormLinkRepository
	checker *authz.Checker
	baseURL string
	logger  *zap.Logger
	now     func() time.Time
}

func NewFormLinkService(links repository.FormLinkRepository, checker *authz.Checker, publicBaseURL string, logger *zap.Logger) *FormLinkService {
	return &FormLinkService{
		links:   links,
		checker: checker,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:  logger,
		now:     time.Now,
	}
}

// PublicURL builds {base}/apply?team=<teamID>&link=<linkID>. The link
// parameter is left out when linkID is empty.
func (s *FormLinkService) PublicURL(teamID, linkID string) string {
	q := url.Values{}
	q.Set("team", teamID)
	if linkID != "" {
		q.Set("link", linkID)
	}
	// Encode sorts keys, which keeps team before link.
	return s.baseURL + "/apply?" + q.Encode()
}

func linkName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalidf("link name is required")
	}
	if len(name) > 120 {
		return "", invalidf("link name is too long")
	}
	return name, nil
}

func (s *FormLinkService) Create(ctx context.Context, sess *domain.Session, teamID, name string) (*domain.FormLink, error) {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.ManageFormLinks); err != nil {
		return nil, err
	}
	name, err := linkName(name)
	if err != nil {
		return nil, err
	}
	l := &domain.FormLink{TeamID: teamID, Name: name, Active: true, CreatedBy: sess.UserID, CreatedAt: s.now().UTC()}
	id, err := s.links.CreateLink(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create form link: %w", err)
	}
	l.LinkID = id
	l.URL = s.PublicURL(teamID, id)
	return l, nil
}

func (s *FormLinkService) List(ctx context.Context, sess *domain.Session, teamID string) ([]*domain.FormLink, error) {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.ReadFormLinks); err != nil {
		return nil, err
	}
	links, err := s.links.ListLinks(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list form links: %w", err)
	}
	for _, l := range links {
		l.URL = s.PublicURL(teamID, l.LinkID)
	}
	return links, nil
}

func (s *FormLinkService) Get(ctx context.Context, sess *domain.Session, teamID, linkID string) (*domain.FormLink, error) {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.ReadFormLinks); err != nil {
		return nil, err
	}
	l, err := s.links.GetLink(ctx, teamID, linkID)
	if err != nil {
		return nil, err
	}
	l.URL = s.PublicURL(teamID, l.LinkID)
	return l, nil
}

// UpdateFormLinkRequest 修改链接；nil 字段保持不变
type UpdateFormLinkRequest struct {
	Name   *string `json:"name"`
	Active *bool   `json:"active"`
}

// Update renames a link and/or switches it on or off.
func (s *FormLinkService) Update(ctx context.Context, sess *domain.Session, teamID, linkID string, req UpdateFormLinkRequest) (*domain.FormLink, error) {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.ManageFormLinks); err != nil {
		return nil, err
	}
	l, err := s.links.GetLink(ctx, teamID, linkID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name, err := linkName(*req.Name)
		if err != nil {
			return nil, err
		}
		l.Name = name
	}
	if req.Active != nil {
		l.Active = *req.Active
	}
	if err := s.links.UpdateLink(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to update form link: %w", err)
	}
	l.URL = s.PublicURL(teamID, l.LinkID)
	return l, nil
}

func (s *FormLinkService) Rename(ctx context.Context, sess *domain.Session, teamID, linkID, name string) (*domain.FormLink, error) {
	return s.Update(ctx, sess, teamID, linkID, UpdateFormLinkRequest{Name: &name})
}

func (s *FormLinkService) SetActive(ctx context.Context, sess *domain.Session, teamID, linkID string, active bool) (*domain.FormLink, error) {
	return s.Update(ctx, sess, teamID, linkID, UpdateFormLinkRequest{Active: &active})
}

// Delete removes a link. Submissions made through it are kept.
func (s *FormLinkService) Delete(ctx context.Context, sess *domain.Session, teamID, linkID string) error {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.ManageFormLinks); err != nil {
		return err
	}
	if err := s.links.DeleteLink(ctx, teamID, linkID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete form link: %w", err)
	}
	return nil
}
