package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound indicates the session does not exist.
var ErrNotFound = errors.New("analysis session not found")

// Repo persists analysis sessions and history. Every mutation is a
// standalone transaction so pollers can observe intermediate progress.
type Repo interface {
	Create(ctx context.Context, session *AnalysisSession) error
	GetByID(ctx context.Context, id string) (*AnalysisSession, error)
	// GetRecentCompleted returns the newest COMPLETED, non-expired session
	// of the given analysis type for the document created at or after
	// since, or ErrNotFound.
	GetRecentCompleted(ctx context.Context, docID, analysisType string, since time.Time) (*AnalysisSession, error)
	// UpdateProgress moves the session to PROCESSING and records progress.
	UpdateProgress(ctx context.Context, id string, progress int, step string) error
	Complete(ctx context.Context, id string, result json.RawMessage, summary SessionSummary) error
	Fail(ctx context.Context, id string, errText string) error
	AppendHistory(ctx context.Context, record *AnalysisHistory) error
	// PurgeExpired deletes sessions past their TTL and returns the count.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
