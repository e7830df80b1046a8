package disclosures

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores disclosure documents in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu      sync.RWMutex
	byDocID map[string]DocumentMetadata
	nextID  int64
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byDocID: make(map[string]DocumentMetadata), nextID: 1}
}

// UpsertChunk reconciles one chunk: status fields for existing rows, inserts for new.
func (r *MemoryRepo) UpsertChunk(ctx context.Context, docs []DocumentMetadata) (ChunkResult, error) {
	if err := ctx.Err(); err != nil {
		return ChunkResult{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var result ChunkResult
	now := time.Now().UTC()
	for _, doc := range docs {
		if stored, ok := r.byDocID[doc.DocID]; ok {
			stored.LegalStatus = doc.LegalStatus
			stored.WithdrawalStatus = doc.WithdrawalStatus
			stored.EditStatus = doc.EditStatus
			stored.DisclosureStatus = doc.DisclosureStatus
			stored.UpdatedAt = now
			r.byDocID[doc.DocID] = stored
			result.Updated++
			continue
		}
		doc.ID = r.nextID
		r.nextID++
		doc.CreatedAt = now
		doc.UpdatedAt = now
		r.byDocID[doc.DocID] = doc
		result.Created++
	}
	return result, nil
}

// GetByDocID returns one document by its EDINET document id.
func (r *MemoryRepo) GetByDocID(ctx context.Context, docID string) (DocumentMetadata, error) {
	if err := ctx.Err(); err != nil {
		return DocumentMetadata{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.byDocID[docID]
	if !ok {
		return DocumentMetadata{}, ErrNotFound
	}
	return doc, nil
}

// ListByFileDate returns documents filed on one date with the given legal status.
func (r *MemoryRepo) ListByFileDate(ctx context.Context, fileDate time.Time, legalStatus int) ([]DocumentMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []DocumentMetadata
	for _, doc := range r.byDocID {
		if sameDate(doc.FileDate, fileDate) && doc.LegalStatus == legalStatus {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocID < out[j].DocID })
	return out, nil
}

// DistinctCompanies returns distinct company triples from stored documents.
func (r *MemoryRepo) DistinctCompanies(ctx context.Context, fileDate *time.Time) ([]CompanyCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]CompanyCandidate)
	for _, doc := range r.byDocID {
		if doc.EdinetCode == nil || doc.CompanyName == nil || doc.LegalStatus != LegalStatusAvailable {
			continue
		}
		if fileDate != nil && !sameDate(doc.FileDate, *fileDate) {
			continue
		}
		key := *doc.EdinetCode
		if doc.SecuritiesCode != nil {
			key += "|" + *doc.SecuritiesCode
		}
		key += "|" + *doc.CompanyName
		if _, ok := seen[key]; !ok {
			seen[key] = CompanyCandidate{
				EdinetCode:     *doc.EdinetCode,
				SecuritiesCode: doc.SecuritiesCode,
				Name:           *doc.CompanyName,
			}
		}
	}
	out := make([]CompanyCandidate, 0, len(seen))
	for _, candidate := range seen {
		out = append(out, candidate)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EdinetCode < out[j].EdinetCode })
	return out, nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MemoryBatchRepo stores batch executions in memory.
type MemoryBatchRepo struct {
	mu     sync.Mutex
	byDate map[string]BatchExecution
	nextID int64
}

// NewMemoryBatchRepo constructs a MemoryBatchRepo.
func NewMemoryBatchRepo() *MemoryBatchRepo {
	return &MemoryBatchRepo{byDate: make(map[string]BatchExecution), nextID: 1}
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Begin locks or creates the batch row for one date and marks it RUNNING.
func (r *MemoryBatchRepo) Begin(ctx context.Context, batchDate time.Time, force bool) (BatchExecution, error) {
	if err := ctx.Err(); err != nil {
		return BatchExecution{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	key := dateKey(batchDate)
	if batch, ok := r.byDate[key]; ok {
		if batch.Status == BatchStatusSuccess && !force {
			return batch, ErrBatchAlreadySucceeded
		}
		batch.Status = BatchStatusRunning
		batch.ProcessedCount = 0
		batch.ErrorText = nil
		batch.StartedAt = &now
		batch.CompletedAt = nil
		r.byDate[key] = batch
		return batch, nil
	}
	batch := BatchExecution{
		ID:        r.nextID,
		BatchDate: batchDate,
		Status:    BatchStatusRunning,
		StartedAt: &now,
	}
	r.nextID++
	r.byDate[key] = batch
	return batch, nil
}

// MarkSuccess finishes a batch day with its processed count.
func (r *MemoryBatchRepo) MarkSuccess(ctx context.Context, batchDate time.Time, processedCount int) error {
	return r.finish(ctx, batchDate, BatchStatusSuccess, processedCount, nil)
}

// MarkFailed finishes a batch day with an error summary.
func (r *MemoryBatchRepo) MarkFailed(ctx context.Context, batchDate time.Time, errorText string) error {
	return r.finish(ctx, batchDate, BatchStatusFailed, -1, &errorText)
}

func (r *MemoryBatchRepo) finish(ctx context.Context, batchDate time.Time, status string, processedCount int, errorText *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := dateKey(batchDate)
	batch, ok := r.byDate[key]
	if !ok {
		return ErrNotFound
	}
	batch.Status = status
	if processedCount >= 0 {
		batch.ProcessedCount = processedCount
	}
	if errorText != nil {
		text := *errorText
		if len(text) > 2000 {
			text = text[:2000]
		}
		batch.ErrorText = &text
	}
	now := time.Now().UTC()
	batch.CompletedAt = &now
	r.byDate[key] = batch
	return nil
}

// Get returns one batch execution by date.
func (r *MemoryBatchRepo) Get(ctx context.Context, batchDate time.Time) (BatchExecution, error) {
	if err := ctx.Err(); err != nil {
		return BatchExecution{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.byDate[dateKey(batchDate)]
	if !ok {
		return BatchExecution{}, ErrNotFound
	}
	return batch, nil
}
