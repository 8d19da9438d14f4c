package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"beneficiary-data/internal/domain"

	"github.com/google/uuid"
)

// MemoryBeneficiaryRepository 内存版受益人记录，默认运行与测试使用
type MemoryBeneficiaryRepository struct {
	mu      sync.RWMutex
	records map[string]domain.Beneficiary // beneficiaryID -> record
}

func NewMemoryBeneficiaryRepository() *MemoryBeneficiaryRepository {
	return &MemoryBeneficiaryRepository{records: map[string]domain.Beneficiary{}}
}

var _ BeneficiaryRepository = (*MemoryBeneficiaryRepository)(nil)

func (r *MemoryBeneficiaryRepository) List(_ context.Context, teamID string, filter BeneficiaryFilter) ([]*domain.Beneficiary, int, error) {
	r.mu.RLock()
	all := make([]*domain.Beneficiary, 0, len(r.records))
	for _, b := range r.records {
		if b.TeamID != teamID || !filter.Matches(&b) {
			continue
		}
		b := b
		all = append(all, &b)
	}
	r.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool { return filter.Less(all[i], all[j]) })
	return paginate(all, filter), len(all), nil
}

func (r *MemoryBeneficiaryRepository) Get(_ context.Context, teamID, beneficiaryID string) (*domain.Beneficiary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.records[beneficiaryID]
	if !ok || b.TeamID != teamID {
		return nil, fmt.Errorf("beneficiary %s: %w", beneficiaryID, ErrNotFound)
	}
	return &b, nil
}

func (r *MemoryBeneficiaryRepository) Insert(_ context.Context, b *domain.Beneficiary) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *b
	if stored.BeneficiaryID == "" {
		stored.BeneficiaryID = uuid.NewString()
	}
	if _, ok := r.records[stored.BeneficiaryID]; ok {
		return "", fmt.Errorf("beneficiary %s: %w", stored.BeneficiaryID, ErrConflict)
	}
	r.records[stored.BeneficiaryID] = stored
	return stored.BeneficiaryID, nil
}

func (r *MemoryBeneficiaryRepository) Update(_ context.Context, b *domain.Beneficiary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.records[b.BeneficiaryID]
	if !ok || cur.TeamID != b.TeamID {
		return fmt.Errorf("beneficiary %s: %w", b.BeneficiaryID, ErrNotFound)
	}
	stored := *b
	stored.CreatedAt = cur.CreatedAt
	r.records[b.BeneficiaryID] = stored
	return nil
}

func (r *MemoryBeneficiaryRepository) Delete(_ context.Context, teamID, beneficiaryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.records[beneficiaryID]
	if !ok || cur.TeamID != teamID {
		return fmt.Errorf("beneficiary %s: %w", beneficiaryID, ErrNotFound)
	}
	delete(r.records, beneficiaryID)
	return nil
}

func (r *MemoryBeneficiaryRepository) DeleteByTeam(_ context.Context, teamID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, b := range r.records {
		if b.TeamID == teamID {
			delete(r.records, id)
			n++
		}
	}
	return n, nil
}
