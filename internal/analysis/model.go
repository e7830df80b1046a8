package analysis

import (
	"encoding/json"
	"time"

	"github.com/noknok06/stock-dialy-sub000/internal/finance"
	"github.com/noknok06/stock-dialy-sub000/internal/insights"
	"github.com/noknok06/stock-dialy-sub000/internal/sentiment"
)

// Session statuses. StatusExpired is a view state derived from expires_at,
// never stored.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusExpired    = "expired"
)

// Analysis types.
const (
	TypeSentiment     = "sentiment"
	TypeComprehensive = "comprehensive"
)

// Investment stances.
const (
	StanceAggressive  = "aggressive"
	StanceConditional = "conditional"
	StanceCautious    = "cautious"
	StanceAvoid       = "avoid"
)

// AnalysisSession is one analysis run over a disclosure document.
type AnalysisSession struct {
	ID                string
	DocID             string
	AnalysisType      string
	Status            string
	Progress          int
	Step              string
	Result            json.RawMessage
	FinancialSnapshot json.RawMessage
	OverallScore      *float64
	RiskLevel         *string
	InvestmentStance  *string
	CashflowPattern   *string
	ErrorText         *string
	UserIP            string
	ExpiresAt         time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Expired reports whether the session is past its TTL.
func (s *AnalysisSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// ViewStatus returns the status as read APIs report it, substituting the
// expired view state past TTL.
func (s *AnalysisSession) ViewStatus(now time.Time) string {
	if s.Expired(now) {
		return StatusExpired
	}
	return s.Status
}

// AnalysisHistory is the append-only completion record.
type AnalysisHistory struct {
	ID               int64
	DocID            string
	OverallScore     *float64
	SentimentLabel   *string
	RiskLevel        *string
	CashflowPattern  *string
	DurationMs       float64
	DataCompleteness float64
	CreatedAt        time.Time
}

// Integration combines the sentiment and financial verdicts.
type Integration struct {
	OverallScore     float64  `json:"overall_score"`
	SentimentPct     *float64 `json:"sentiment_pct,omitempty"`
	FinancialScore   *float64 `json:"financial_score,omitempty"`
	RiskLevel        string   `json:"risk_level"`
	InvestmentStance string   `json:"investment_stance"`
	Recommendation   string   `json:"recommendation"`
}

// Result is the full JSON payload persisted on completion.
type Result struct {
	DocID        string              `json:"doc_id"`
	AnalysisType string              `json:"analysis_type"`
	Sentiment    *sentiment.Result   `json:"sentiment,omitempty"`
	Financial    *finance.Assessment `json:"financial,omitempty"`
	Integration  *Integration        `json:"integration,omitempty"`
	Insights     *insights.Insights  `json:"insights,omitempty"`
	MetadataOnly bool                `json:"metadata_only,omitempty"`
	GeneratedAt  string              `json:"generated_at"`
}

// SessionSummary is the denormalized completion data written alongside the
// result payload.
type SessionSummary struct {
	OverallScore      *float64
	RiskLevel         *string
	InvestmentStance  *string
	CashflowPattern   *string
	FinancialSnapshot json.RawMessage
}
