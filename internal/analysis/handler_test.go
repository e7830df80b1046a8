package analysis

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, _, _ := newTestService(t, &stubFetcher{err: errors.New("fetch disabled")})
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r, svc
}

func TestHandlerStartAnalysisAccepted(t *testing.T) {
	r, svc := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/S100AAAA/analyze",
		strings.NewReader(`{"analysisType":"sentiment"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp StartResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != StartStatusStarted || resp.SessionID == "" {
		t.Fatalf("response = %+v", resp)
	}
	waitForTerminal(t, svc, resp.SessionID)
}

func TestHandlerStartAnalysisEmptyBodyDefaultsComprehensive(t *testing.T) {
	r, svc := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/S100AAAA/analyze", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp StartResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	waitForTerminal(t, svc, resp.SessionID)
}

func TestHandlerStartAnalysisUnknownDocument(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/S100NOPE/analyze",
		strings.NewReader(`{"analysisType":"sentiment"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandlerStartAnalysisInvalidType(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/S100AAAA/analyze",
		strings.NewReader(`{"analysisType":"astrology"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandlerProgressNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/no-such-session/progress", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandlerProgressAndResultRoundTrip(t *testing.T) {
	r, svc := newTestRouter(t)

	start := httptest.NewRequest(http.MethodPost, "/api/v1/documents/S100AAAA/analyze",
		strings.NewReader(`{"analysisType":"sentiment"}`))
	start.Header.Set("Content-Type", "application/json")
	startRec := httptest.NewRecorder()
	r.ServeHTTP(startRec, start)

	var started StartResponse
	if err := json.Unmarshal(startRec.Body.Bytes(), &started); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	waitForTerminal(t, svc, started.SessionID)

	progReq := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/"+started.SessionID+"/progress", nil)
	progRec := httptest.NewRecorder()
	r.ServeHTTP(progRec, progReq)
	if progRec.Code != http.StatusOK {
		t.Fatalf("progress status = %d", progRec.Code)
	}
	var progress ProgressView
	if err := json.Unmarshal(progRec.Body.Bytes(), &progress); err != nil {
		t.Fatalf("unmarshal progress: %v", err)
	}
	if progress.Status != StatusCompleted || progress.Progress != 100 {
		t.Fatalf("progress = %+v", progress)
	}

	resReq := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/"+started.SessionID+"/result", nil)
	resRec := httptest.NewRecorder()
	r.ServeHTTP(resRec, resReq)
	if resRec.Code != http.StatusOK {
		t.Fatalf("result status = %d", resRec.Code)
	}
	var result ResultView
	if err := json.Unmarshal(resRec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.Status != StatusCompleted || len(result.Result) == 0 {
		t.Fatalf("result = %+v", result)
	}
}
