package finance

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo used for tests and local development.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	rows   []*FinancialData
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{nextID: 1}
}

func (r *MemoryRepo) Upsert(_ context.Context, data *FinancialData) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, have := range r.rows {
		if have.DocID == data.DocID && have.PeriodType == data.PeriodType &&
			sameTime(have.PeriodStart, data.PeriodStart) && sameTime(have.PeriodEnd, data.PeriodEnd) {
			data.ID = have.ID
			data.CreatedAt = have.CreatedAt
			data.UpdatedAt = time.Now()
			*have = *data
			return nil
		}
	}
	data.ID = r.nextID
	r.nextID++
	now := time.Now()
	data.CreatedAt = now
	data.UpdatedAt = now
	cp := *data
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *MemoryRepo) GetByDocID(_ context.Context, docID string) ([]*FinancialData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*FinancialData
	for _, have := range r.rows {
		if have.DocID == docID {
			cp := *have
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].PeriodEnd, out[j].PeriodEnd
		switch {
		case ti == nil && tj == nil:
			return out[i].ID > out[j].ID
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.After(*tj)
		}
	})
	return out, nil
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
