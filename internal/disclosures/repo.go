package disclosures

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a document or batch does not exist.
	ErrNotFound = errors.New("not found")
	// ErrBatchAlreadySucceeded is returned when a batch day already completed
	// and no force flag was given.
	ErrBatchAlreadySucceeded = errors.New("batch already succeeded")
)

// Repo defines persistence operations for disclosure documents.
// UpsertChunk is atomic: either the whole chunk commits or none of it does.
type Repo interface {
	UpsertChunk(ctx context.Context, docs []DocumentMetadata) (ChunkResult, error)
	GetByDocID(ctx context.Context, docID string) (DocumentMetadata, error)
	ListByFileDate(ctx context.Context, fileDate time.Time, legalStatus int) ([]DocumentMetadata, error)
	DistinctCompanies(ctx context.Context, fileDate *time.Time) ([]CompanyCandidate, error)
}

// BatchRepo defines persistence operations for daily batch executions.
type BatchRepo interface {
	// Begin locks or creates the batch row for one date and marks it RUNNING.
	// Returns ErrBatchAlreadySucceeded when the day completed and force is false.
	Begin(ctx context.Context, batchDate time.Time, force bool) (BatchExecution, error)
	MarkSuccess(ctx context.Context, batchDate time.Time, processedCount int) error
	MarkFailed(ctx context.Context, batchDate time.Time, errorText string) error
	Get(ctx context.Context, batchDate time.Time) (BatchExecution, error)
}
