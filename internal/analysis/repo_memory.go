package analysis

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo used for tests and local development.
type MemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]*AnalysisSession
	history  []*AnalysisHistory
	nextHist int64
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		sessions: make(map[string]*AnalysisSession),
		nextHist: 1,
	}
}

func (r *MemoryRepo) Create(_ context.Context, session *AnalysisSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now
	cp := *session
	r.sessions[session.ID] = &cp
	return nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id string) (*AnalysisSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *session
	return &cp, nil
}

func (r *MemoryRepo) GetRecentCompleted(_ context.Context, docID, analysisType string, since time.Time) (*AnalysisSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var newest *AnalysisSession
	now := time.Now()
	for _, s := range r.sessions {
		if s.DocID != docID || s.AnalysisType != analysisType || s.Status != StatusCompleted {
			continue
		}
		if s.CreatedAt.Before(since) || s.Expired(now) {
			continue
		}
		if newest == nil || s.CreatedAt.After(newest.CreatedAt) {
			newest = s
		}
	}
	if newest == nil {
		return nil, ErrNotFound
	}
	cp := *newest
	return &cp, nil
}

func (r *MemoryRepo) UpdateProgress(_ context.Context, id string, progress int, step string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return ErrNotFound
	}
	session.Status = StatusProcessing
	session.Progress = progress
	session.Step = step
	session.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepo) Complete(_ context.Context, id string, result json.RawMessage, summary SessionSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return ErrNotFound
	}
	session.Status = StatusCompleted
	session.Progress = 100
	session.Step = "done"
	session.Result = append(json.RawMessage(nil), result...)
	session.FinancialSnapshot = append(json.RawMessage(nil), summary.FinancialSnapshot...)
	session.OverallScore = summary.OverallScore
	session.RiskLevel = summary.RiskLevel
	session.InvestmentStance = summary.InvestmentStance
	session.CashflowPattern = summary.CashflowPattern
	session.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepo) Fail(_ context.Context, id string, errText string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return ErrNotFound
	}
	session.Status = StatusFailed
	session.ErrorText = &errText
	session.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepo) AppendHistory(_ context.Context, record *AnalysisHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record.ID = r.nextHist
	r.nextHist++
	record.CreatedAt = time.Now()
	cp := *record
	r.history = append(r.history, &cp)
	return nil
}

func (r *MemoryRepo) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var purged int64
	for id, s := range r.sessions {
		if !now.After(s.ExpiresAt) {
			continue
		}
		delete(r.sessions, id)
		purged++
	}
	return purged, nil
}

// History returns a copy of the recorded history, newest last.
func (r *MemoryRepo) History() []*AnalysisHistory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*AnalysisHistory, 0, len(r.history))
	for _, h := range r.history {
		cp := *h
		out = append(out, &cp)
	}
	return out
}
