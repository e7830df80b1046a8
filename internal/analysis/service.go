package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noknok06/stock-dialy-sub000/internal/disclosures"
	"github.com/noknok06/stock-dialy-sub000/internal/edinet"
	"github.com/noknok06/stock-dialy-sub000/internal/extract"
	"github.com/noknok06/stock-dialy-sub000/internal/finance"
	"github.com/noknok06/stock-dialy-sub000/internal/insights"
	"github.com/noknok06/stock-dialy-sub000/internal/sentiment"
	"github.com/noknok06/stock-dialy-sub000/internal/shared/metrics"
	"github.com/noknok06/stock-dialy-sub000/internal/shared/telemetry"
)

// Start statuses returned to callers.
const (
	StartStatusStarted         = "started"
	StartStatusAlreadyAnalyzed = "already_analyzed"
)

var (
	// ErrDocumentNotFound indicates the document is not in the local store.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidType indicates an unknown analysis type.
	ErrInvalidType = errors.New("invalid analysis type")
)

// DocumentFetcher downloads a filing payload from EDINET.
type DocumentFetcher interface {
	GetDocument(ctx context.Context, docID string, docType int) ([]byte, error)
}

// Service orchestrates analysis sessions over disclosure documents.
type Service struct {
	Repo        Repo
	DocRepo     disclosures.Repo
	FinanceRepo finance.Repo
	Fetcher     DocumentFetcher
	Extractor   *extract.Extractor
	Sentiment   *sentiment.Analyzer
	Insights    *insights.Generator

	TTLSentiment     time.Duration
	TTLComprehensive time.Duration
	ReuseWindow      time.Duration
}

// StartResponse is the outcome of a start request.
type StartResponse struct {
	Status    string          `json:"status"`
	SessionID string          `json:"session_id"`
	Result    json.RawMessage `json:"result,omitempty"`
}

// ProgressView is the polling payload.
type ProgressView struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	Step      string `json:"step,omitempty"`
	ErrorText string `json:"error_text,omitempty"`
}

// ResultView is the final payload for a finished session.
type ResultView struct {
	SessionID string          `json:"session_id"`
	Status    string          `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
	ErrorText string          `json:"error_text,omitempty"`
}

// StartAnalysis creates a session for the document and dispatches the
// background pipeline, reusing a recent completed session unless forced.
func (s *Service) StartAnalysis(ctx context.Context, docID, analysisType string, force bool, userIP string) (StartResponse, error) {
	if docID == "" {
		return StartResponse{}, errors.New("docID is required")
	}
	if analysisType == "" {
		analysisType = TypeComprehensive
	}
	if analysisType != TypeSentiment && analysisType != TypeComprehensive {
		return StartResponse{}, ErrInvalidType
	}

	if _, err := s.DocRepo.GetByDocID(ctx, docID); err != nil {
		if errors.Is(err, disclosures.ErrNotFound) {
			return StartResponse{}, ErrDocumentNotFound
		}
		return StartResponse{}, err
	}

	if !force && s.ReuseWindow > 0 {
		since := time.Now().Add(-s.ReuseWindow)
		recent, err := s.Repo.GetRecentCompleted(ctx, docID, analysisType, since)
		if err == nil {
			return StartResponse{
				Status:    StartStatusAlreadyAnalyzed,
				SessionID: recent.ID,
				Result:    recent.Result,
			}, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return StartResponse{}, err
		}
	}

	session := &AnalysisSession{
		ID:           uuid.NewString(),
		DocID:        docID,
		AnalysisType: analysisType,
		Status:       StatusPending,
		UserIP:       userIP,
		ExpiresAt:    time.Now().Add(s.ttlFor(analysisType)),
	}
	if err := s.Repo.Create(ctx, session); err != nil {
		return StartResponse{}, err
	}

	go s.completeAsync(context.Background(), session.ID)

	return StartResponse{Status: StartStatusStarted, SessionID: session.ID}, nil
}

// GetProgress returns the polling view for a session.
func (s *Service) GetProgress(ctx context.Context, sessionID string) (ProgressView, error) {
	session, err := s.Repo.GetByID(ctx, sessionID)
	if err != nil {
		return ProgressView{}, err
	}
	view := ProgressView{
		SessionID: session.ID,
		Status:    session.ViewStatus(time.Now()),
		Progress:  session.Progress,
		Step:      session.Step,
	}
	if session.ErrorText != nil {
		view.ErrorText = *session.ErrorText
	}
	return view, nil
}

// GetResult returns the final payload for a session.
func (s *Service) GetResult(ctx context.Context, sessionID string) (ResultView, error) {
	session, err := s.Repo.GetByID(ctx, sessionID)
	if err != nil {
		return ResultView{}, err
	}
	view := ResultView{
		SessionID: session.ID,
		Status:    session.ViewStatus(time.Now()),
	}
	if view.Status == StatusCompleted {
		view.Result = session.Result
	}
	if session.ErrorText != nil {
		view.ErrorText = *session.ErrorText
	}
	return view, nil
}

// StartPurgeLoop deletes expired sessions on an interval until the context
// is cancelled.
func (s *Service) StartPurgeLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				purged, err := s.Repo.PurgeExpired(ctx, time.Now())
				if err != nil {
					telemetry.Warn("analysis.purge_failed", map[string]any{"error": err.Error()})
					continue
				}
				if purged > 0 {
					telemetry.Info("analysis.purged", map[string]any{"sessions": purged})
				}
			}
		}
	}()
}

func (s *Service) ttlFor(analysisType string) time.Duration {
	if analysisType == TypeSentiment {
		if s.TTLSentiment > 0 {
			return s.TTLSentiment
		}
		return 24 * time.Hour
	}
	if s.TTLComprehensive > 0 {
		return s.TTLComprehensive
	}
	return 48 * time.Hour
}

func (s *Service) completeAsync(ctx context.Context, sessionID string) {
	defer func() {
		if r := recover(); r != nil {
			s.failSession(ctx, sessionID, fmt.Errorf("panic: %v", r))
		}
	}()
	startedAt := time.Now()

	if err := s.Repo.UpdateProgress(ctx, sessionID, 5, "init"); err != nil {
		s.failSession(ctx, sessionID, fmt.Errorf("set processing failed: %w", err))
		return
	}
	session, err := s.Repo.GetByID(ctx, sessionID)
	if err != nil {
		s.failSession(ctx, sessionID, fmt.Errorf("session lookup: %w", err))
		return
	}
	metrics.IncAnalysisStarted()
	telemetry.Info("analysis.status", map[string]any{
		"session_id":        session.ID,
		"doc_id":            session.DocID,
		"analysis_type":     session.AnalysisType,
		"status":            StatusProcessing,
		"status_transition": "pending->processing",
	})

	doc, err := s.DocRepo.GetByDocID(ctx, session.DocID)
	if err != nil {
		s.failSession(ctx, sessionID, fmt.Errorf("document lookup doc_id=%s: %w", session.DocID, err))
		return
	}

	extracted, metadataOnly := s.extractDocument(ctx, doc)

	var sentimentRes *sentiment.Result
	if len(extracted.Sections) > 0 {
		sentimentRes = s.Sentiment.AnalyzeSections(extracted.Sections)
	}
	if err := s.Repo.UpdateProgress(ctx, sessionID, 35, "sentiment"); err != nil {
		s.failSession(ctx, sessionID, fmt.Errorf("persist sentiment progress: %w", err))
		return
	}

	var (
		assessment *finance.Assessment
		finData    *finance.FinancialData
	)
	if session.AnalysisType == TypeComprehensive {
		finData = buildFinancialData(doc, extracted, metadataOnly)
		assessment = finance.Assess(finData)
		if err := s.Repo.UpdateProgress(ctx, sessionID, 55, "finance"); err != nil {
			s.failSession(ctx, sessionID, fmt.Errorf("persist finance progress: %w", err))
			return
		}
		if s.FinanceRepo != nil && !extracted.Financials.IsEmpty() {
			if err := s.FinanceRepo.Upsert(ctx, finData); err != nil {
				s.failSession(ctx, sessionID, fmt.Errorf("persist financial data: %w", err))
				return
			}
		}
	}

	integration := integrate(sentimentRes, assessment)

	result := &Result{
		DocID:        session.DocID,
		AnalysisType: session.AnalysisType,
		Sentiment:    sentimentRes,
		Financial:    assessment,
		Integration:  integration,
		MetadataOnly: metadataOnly,
		GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if s.Insights != nil {
		result.Insights = s.Insights.Generate(ctx, insightInput(doc, sentimentRes, assessment))
	}

	payload, err := json.Marshal(result)
	if err != nil {
		s.failSession(ctx, sessionID, fmt.Errorf("marshal result: %w", err))
		return
	}
	summary := buildSummary(assessment, integration, finData)
	if err := s.Repo.Complete(ctx, sessionID, payload, summary); err != nil {
		s.failSession(ctx, sessionID, fmt.Errorf("persist result: %w", err))
		return
	}

	completedAt := time.Now()
	durationMs := float64(completedAt.Sub(startedAt).Microseconds()) / 1000.0
	history := &AnalysisHistory{
		DocID:           session.DocID,
		OverallScore:    summary.OverallScore,
		RiskLevel:       summary.RiskLevel,
		CashflowPattern: summary.CashflowPattern,
		DurationMs:      durationMs,
	}
	if sentimentRes != nil {
		history.SentimentLabel = &sentimentRes.Label
	}
	if finData != nil {
		history.DataCompleteness = finData.DataCompleteness
	}
	if err := s.Repo.AppendHistory(ctx, history); err != nil {
		telemetry.Warn("analysis.history_failed", map[string]any{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}

	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(durationMs)
	telemetry.Info("analysis.status", map[string]any{
		"session_id":        sessionID,
		"doc_id":            session.DocID,
		"status":            StatusCompleted,
		"status_transition": "processing->completed",
		"duration_ms":       durationMs,
	})
}

// extractDocument fetches and parses the filing, preferring XBRL, then PDF
// text, then a synthetic section from stored metadata so the pipeline
// always has something to analyze.
func (s *Service) extractDocument(ctx context.Context, doc disclosures.DocumentMetadata) (extract.Result, bool) {
	if s.Fetcher != nil && s.Extractor != nil && doc.XBRLFlag {
		payload, err := s.Fetcher.GetDocument(ctx, doc.DocID, edinet.DocTypeZip)
		if err == nil {
			res, extractErr := s.Extractor.FromArchive(payload)
			if extractErr == nil && (!res.Financials.IsEmpty() || len(res.Sections) > 0) {
				return res, false
			}
			if extractErr != nil {
				telemetry.Warn("analysis.archive_extract_failed", map[string]any{
					"doc_id": doc.DocID,
					"error":  extractErr.Error(),
				})
			}
		} else {
			telemetry.Warn("analysis.archive_fetch_failed", map[string]any{
				"doc_id": doc.DocID,
				"error":  err.Error(),
			})
		}
	}

	if s.Fetcher != nil && s.Extractor != nil && doc.PDFFlag {
		payload, err := s.Fetcher.GetDocument(ctx, doc.DocID, edinet.DocTypePDF)
		if err == nil {
			if text, pdfErr := s.Extractor.FromPDF(payload); pdfErr == nil && text != "" {
				return extract.Result{
					Sections: map[string]string{"本文": text},
				}, false
			}
		}
	}

	// metadata-only fallback keeps downstream steps running
	sections := map[string]string{}
	if doc.Description != nil && *doc.Description != "" {
		name := doc.DocID
		if doc.CompanyName != nil {
			name = *doc.CompanyName
		}
		sections["書類概要"] = fmt.Sprintf("%sが「%s」を提出しました。", name, *doc.Description)
	}
	return extract.Result{Sections: sections}, true
}

func buildFinancialData(doc disclosures.DocumentMetadata, res extract.Result, metadataOnly bool) *finance.FinancialData {
	data := &finance.FinancialData{
		DocID:       doc.DocID,
		EdinetCode:  doc.EdinetCode,
		PeriodType:  periodTypeOf(res.Period),
		PeriodStart: res.Period.Start,
		PeriodEnd:   res.Period.End,

		NetSales:         res.Financials.NetSales,
		OperatingIncome:  res.Financials.OperatingIncome,
		OrdinaryIncome:   res.Financials.OrdinaryIncome,
		NetIncome:        res.Financials.NetIncome,
		TotalAssets:      res.Financials.TotalAssets,
		TotalLiabilities: res.Financials.TotalLiabilities,
		NetAssets:        res.Financials.NetAssets,
		OperatingCF:      res.Financials.OperatingCF,
		InvestingCF:      res.Financials.InvestingCF,
		FinancingCF:      res.Financials.FinancingCF,
	}
	if data.PeriodStart == nil {
		data.PeriodStart = doc.PeriodStart
	}
	if data.PeriodEnd == nil {
		data.PeriodEnd = doc.PeriodEnd
	}
	if data.PeriodEnd != nil {
		year := data.PeriodEnd.Year()
		data.FiscalYear = &year
	}
	data.RecomputeRatios()
	data.RecomputeCompleteness()
	data.ExtractionConfidence = extractionConfidence(res, metadataOnly)
	return data
}

// extractionConfidence grades how trustworthy the extracted numbers are:
// XBRL facts are high confidence, PDF text carries none, metadata-only none.
func extractionConfidence(res extract.Result, metadataOnly bool) float64 {
	if metadataOnly || res.Financials.IsEmpty() {
		return 0
	}
	base := 0.6 + 0.3*float64(res.Financials.FieldCount())/10
	return math.Round(base*1000) / 1000
}

func periodTypeOf(period extract.PeriodInfo) string {
	if period.Start == nil || period.End == nil {
		return finance.PeriodUnknown
	}
	days := period.End.Sub(*period.Start).Hours() / 24
	switch {
	case days >= 300:
		return finance.PeriodAnnual
	case days >= 150:
		return finance.PeriodSemiAnnual
	case days >= 60:
		return finance.PeriodQuarter
	default:
		return finance.PeriodUnknown
	}
}

// integrate folds sentiment and financial scores into one verdict.
func integrate(sent *sentiment.Result, assess *finance.Assessment) *Integration {
	var sentimentPct, financialScore *float64
	if sent != nil {
		pct := math.Round((sent.Score+1)/2*100*10) / 10
		sentimentPct = &pct
	}
	if assess != nil && assess.HealthScore != nil {
		financialScore = assess.HealthScore
	}

	var overall float64
	switch {
	case sentimentPct != nil && financialScore != nil:
		overall = 0.3**sentimentPct + 0.7**financialScore
	case financialScore != nil:
		overall = *financialScore
	case sentimentPct != nil:
		overall = *sentimentPct
	default:
		return nil
	}
	overall = math.Round(overall*10) / 10

	risk := finance.RiskMedium
	if assess != nil {
		risk = assess.RiskLevel
	}
	stance := stanceFor(overall, risk)

	return &Integration{
		OverallScore:     overall,
		SentimentPct:     sentimentPct,
		FinancialScore:   financialScore,
		RiskLevel:        risk,
		InvestmentStance: stance,
		Recommendation:   recommendationFor(stance),
	}
}

func stanceFor(overall float64, risk string) string {
	switch {
	case risk == finance.RiskHigh:
		if overall >= 55 {
			return StanceCautious
		}
		return StanceAvoid
	case overall >= 70 && risk == finance.RiskLow:
		return StanceAggressive
	case overall >= 55:
		return StanceConditional
	case overall >= 40:
		return StanceCautious
	default:
		return StanceAvoid
	}
}

func recommendationFor(stance string) string {
	switch stance {
	case StanceAggressive:
		return "財務・記述の両面で良好です。前向きな検討に値します。"
	case StanceConditional:
		return "概ね良好ですが、一部指標の確認を条件に検討してください。"
	case StanceCautious:
		return "判断材料が割れています。リスク要因を精査のうえ慎重に検討してください。"
	default:
		return "現時点ではリスクが高く、見送りを推奨します。"
	}
}

func insightInput(doc disclosures.DocumentMetadata, sent *sentiment.Result, assess *finance.Assessment) insights.Input {
	in := insights.Input{DocID: doc.DocID}
	if doc.CompanyName != nil {
		in.CompanyName = *doc.CompanyName
	}
	if doc.Description != nil {
		in.DocDescription = *doc.Description
	}
	if sent != nil {
		in.SentimentScore = &sent.Score
		in.SentimentLabel = sent.Label
		for _, m := range sent.TopPositive {
			in.TopPositive = append(in.TopPositive, m.Term)
		}
		for _, m := range sent.TopNegative {
			in.TopNegative = append(in.TopNegative, m.Term)
		}
	}
	if assess != nil {
		in.HealthScore = assess.HealthScore
		in.RiskLevel = assess.RiskLevel
		in.CashflowPattern = assess.CashflowPattern
	}
	return in
}

func buildSummary(assess *finance.Assessment, integration *Integration, finData *finance.FinancialData) SessionSummary {
	var summary SessionSummary
	if integration != nil {
		overall := integration.OverallScore
		summary.OverallScore = &overall
		risk := integration.RiskLevel
		summary.RiskLevel = &risk
		stance := integration.InvestmentStance
		summary.InvestmentStance = &stance
	}
	if assess != nil {
		pattern := assess.CashflowPattern
		summary.CashflowPattern = &pattern
	}
	if finData != nil {
		if snapshot, err := json.Marshal(finData); err == nil {
			summary.FinancialSnapshot = snapshot
		}
	}
	return summary
}

func (s *Service) failSession(ctx context.Context, sessionID string, err error) {
	msg := sanitizeError(err)
	if updateErr := s.Repo.Fail(ctx, sessionID, msg); updateErr != nil {
		telemetry.Error("analysis.fail_update_failed", map[string]any{
			"session_id": sessionID,
			"error":      updateErr.Error(),
			"cause":      msg,
		})
	}
	metrics.IncAnalysisFailed()
	telemetry.Info("analysis.status", map[string]any{
		"session_id":        sessionID,
		"status":            StatusFailed,
		"status_transition": "processing->failed",
		"error":             msg,
	})
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
