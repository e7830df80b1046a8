package companies

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores companies in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	byCode map[string]Company
	nextID int64
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byCode: make(map[string]Company), nextID: 1}
}

// GetByEdinetCode returns one company by its EDINET code.
func (r *MemoryRepo) GetByEdinetCode(ctx context.Context, edinetCode string) (Company, error) {
	if err := ctx.Err(); err != nil {
		return Company{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	company, ok := r.byCode[edinetCode]
	if !ok {
		return Company{}, ErrNotFound
	}
	return company, nil
}

// GetByEdinetCodes returns existing companies keyed by EDINET code.
func (r *MemoryRepo) GetByEdinetCodes(ctx context.Context, edinetCodes []string) (map[string]Company, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Company, len(edinetCodes))
	for _, code := range edinetCodes {
		if company, ok := r.byCode[code]; ok {
			out[code] = company
		}
	}
	return out, nil
}

// Create inserts a new company; existing codes are left untouched.
func (r *MemoryRepo) Create(ctx context.Context, company Company) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byCode[company.EdinetCode]; ok {
		return nil
	}
	company.ID = r.nextID
	r.nextID++
	now := time.Now().UTC()
	company.CreatedAt = now
	company.UpdatedAt = now
	r.byCode[company.EdinetCode] = company
	return nil
}

// Update refreshes mutable fields for an existing company.
func (r *MemoryRepo) Update(ctx context.Context, company Company) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byCode[company.EdinetCode]
	if !ok {
		return ErrNotFound
	}
	if company.SecuritiesCode != nil {
		stored.SecuritiesCode = company.SecuritiesCode
	}
	stored.Name = company.Name
	if company.KanaName != nil {
		stored.KanaName = company.KanaName
	}
	stored.Active = company.Active
	stored.UpdatedAt = time.Now().UTC()
	r.byCode[company.EdinetCode] = stored
	return nil
}

// BulkCreate inserts each company, ignoring ones that already exist.
func (r *MemoryRepo) BulkCreate(ctx context.Context, list []Company) error {
	for _, company := range list {
		if err := r.Create(ctx, company); err != nil {
			return err
		}
	}
	return nil
}

// BulkUpdate applies updates one by one.
func (r *MemoryRepo) BulkUpdate(ctx context.Context, list []Company) error {
	for _, company := range list {
		if err := r.Update(ctx, company); err != nil {
			return err
		}
	}
	return nil
}

// List returns companies ordered by EDINET code.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Company, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	r.mu.RLock()
	all := make([]Company, 0, len(r.byCode))
	for _, company := range r.byCode {
		all = append(all, company)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].EdinetCode < all[j].EdinetCode })
	if offset >= len(all) {
		return []Company{}, nil
	}
	end := len(all)
	if offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}
