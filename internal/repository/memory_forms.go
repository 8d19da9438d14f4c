package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"beneficiary-data/internal/domain"

	"github.com/google/uuid"
)

// MemoryFormLinkRepository 内存版表单链接
type MemoryFormLinkRepository struct {
	mu    sync.RWMutex
	links map[string]domain.FormLink // linkID -> link
}

func NewMemoryFormLinkRepository() *MemoryFormLinkRepository {
	return &MemoryFormLinkRepository{links: map[string]domain.FormLink{}}
}

var _ FormLinkRepository = (*MemoryFormLinkRepository)(nil)

func (r *MemoryFormLinkRepository) CreateLink(_ context.Context, l *domain.FormLink) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *l
	if stored.LinkID == "" {
		stored.LinkID = uuid.NewString()
	}
	stored.URL = ""
	r.links[stored.LinkID] = stored
	return stored.LinkID, nil
}

func (r *MemoryFormLinkRepository) GetLink(_ context.Context, teamID, linkID string) (*domain.FormLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.links[linkID]
	if !ok || l.TeamID != teamID {
		return nil, fmt.Errorf("form link %s: %w", linkID, ErrNotFound)
	}
	return &l, nil
}

func (r *MemoryFormLinkRepository) ListLinks(_ context.Context, teamID string) ([]*domain.FormLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*domain.FormLink{}
	for _, l := range r.links {
		if l.TeamID == teamID {
			l := l
			out = append(out, &l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].LinkID < out[j].LinkID
	})
	return out, nil
}

func (r *MemoryFormLinkRepository) UpdateLink(_ context.Context, l *domain.FormLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.links[l.LinkID]
	if !ok || cur.TeamID != l.TeamID {
		return fmt.Errorf("form link %s: %w", l.LinkID, ErrNotFound)
	}
	cur.Name = l.Name
	cur.Active = l.Active
	r.links[l.LinkID] = cur
	return nil
}

func (r *MemoryFormLinkRepository) DeleteLink(_ context.Context, teamID, linkID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.links[linkID]
	if !ok || cur.TeamID != teamID {
		return fmt.Errorf("form link %s: %w", linkID, ErrNotFound)
	}
	delete(r.links, linkID)
	return nil
}

func (r *MemoryFormLinkRepository) DeleteLinksByTeam(_ context.Context, teamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, l := range r.links {
		if l.TeamID == teamID {
			delete(r.links, id)
		}
	}
	return nil
}

// MemorySubmissionRepository 内存版表单提交
type MemorySubmissionRepository struct {
	mu          sync.RWMutex
	submissions map[string]domain.Submission // submissionID -> submission
}

func NewMemorySubmissionRepository() *MemorySubmissionRepository {
	return &MemorySubmissionRepository{submissions: map[string]domain.Submission{}}
}

var _ SubmissionRepository = (*MemorySubmissionRepository)(nil)

func (r *MemorySubmissionRepository) CreateSubmission(_ context.Context, s *domain.Submission) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *s
	if stored.SubmissionID == "" {
		stored.SubmissionID = uuid.NewString()
	}
	r.submissions[stored.SubmissionID] = stored
	return stored.SubmissionID, nil
}

func (r *MemorySubmissionRepository) GetSubmission(_ context.Context, teamID, submissionID string) (*domain.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.submissions[submissionID]
	if !ok || s.TeamID != teamID {
		return nil, fmt.Errorf("submission %s: %w", submissionID, ErrNotFound)
	}
	return &s, nil
}

func (r *MemorySubmissionRepository) ListSubmissions(_ context.Context, teamID, linkID string) ([]*domain.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*domain.Submission{}
	for _, s := range r.submissions {
		if s.TeamID != teamID || (linkID != "" && s.LinkID != linkID) {
			continue
		}
		s := s
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].SubmissionID < out[j].SubmissionID
	})
	return out, nil
}

func (r *MemorySubmissionRepository) UpdateSubmission(_ context.Context, s *domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.submissions[s.SubmissionID]
	if !ok || cur.TeamID != s.TeamID {
		return fmt.Errorf("submission %s: %w", s.SubmissionID, ErrNotFound)
	}
	cur.Record = s.Record
	cur.Status = s.Status
	cur.PromotedID = s.PromotedID
	cur.UpdatedAt = s.UpdatedAt
	r.submissions[s.SubmissionID] = cur
	return nil
}

func (r *MemorySubmissionRepository) DeleteSubmission(_ context.Context, teamID, submissionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.submissions[submissionID]
	if !ok || cur.TeamID != teamID {
		return fmt.Errorf("submission %s: %w", submissionID, ErrNotFound)
	}
	delete(r.submissions, submissionID)
	return nil
}

func (r *MemorySubmissionRepository) DeleteSubmissionsByTeam(_ context.Context, teamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.submissions {
		if s.TeamID == teamID {
			delete(r.submissions, id)
		}
	}
	return nil
}
