package edinet

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(Options{
		BaseURL:     srv.URL,
		APIKey:      "test-key",
		MinInterval: time.Millisecond,
		MaxAttempts: 2,
		Timeout:     2 * time.Second,
	})
	return client, srv
}

func TestListDocumentsParsesResults(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/documents.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("date"); got != "2024-05-15" {
			t.Errorf("date = %s", got)
		}
		if got := r.URL.Query().Get("type"); got != "2" {
			t.Errorf("type = %s", got)
		}
		if got := r.URL.Query().Get("Subscription-Key"); got != "test-key" {
			t.Errorf("subscription key = %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"metadata": {"resultset": {"count": 1}, "status": "200"},
			"results": [{
				"docID": "S100A000",
				"edinetCode": "E00001",
				"secCode": "72030",
				"filerName": "トヨタ自動車株式会社",
				"docTypeCode": "120",
				"submitDateTime": "2024-05-15 15:00",
				"xbrlFlag": "1",
				"pdfFlag": "1",
				"csvFlag": "0",
				"legalStatus": "1",
				"withdrawalStatus": "0",
				"docInfoEditStatus": "0",
				"disclosureStatus": "0"
			}]
		}`))
	}))

	docs, err := client.ListDocuments(context.Background(), "2024-05-15")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	doc := docs[0]
	if doc.DocID != "S100A000" {
		t.Errorf("DocID = %s", doc.DocID)
	}
	if doc.EdinetCode == nil || *doc.EdinetCode != "E00001" {
		t.Errorf("EdinetCode = %v", doc.EdinetCode)
	}
	if doc.XBRLFlag != "1" || doc.CSVFlag != "0" {
		t.Errorf("flags = %s/%s", doc.XBRLFlag, doc.CSVFlag)
	}
}

func TestListDocumentsAuthNotRetried(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := client.ListDocuments(context.Background(), "2024-05-15")
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", calls.Load())
	}
}

func TestListDocumentsRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"metadata": {}, "results": []}`))
	}))

	docs, err := client.ListDocuments(context.Background(), "2024-05-15")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected empty results, got %d", len(docs))
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestListDocumentsExhaustedRetriesIsUnavailable(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.ListDocuments(context.Background(), "2024-05-15")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestListDocumentsNonJSONIsBadResponse(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	}))

	_, err := client.ListDocuments(context.Background(), "2024-05-15")
	if !errors.Is(err, ErrBadResponse) {
		t.Fatalf("expected ErrBadResponse, got %v", err)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.GetDocument(context.Background(), "S100XXXX", DocTypeZip)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetDocumentReturnsBytes(t *testing.T) {
	payload := []byte("PK\x03\x04zipbytes")
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/documents/S100A000" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("type"); got != "1" {
			t.Errorf("type = %s", got)
		}
		w.Write(payload)
	}))

	data, err := client.GetDocument(context.Background(), "S100A000", DocTypeZip)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if string(data) != string(payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestPacingEnforcesMinimumInterval(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"metadata": {}, "results": []}`))
	}))
	client.minInterval = 50 * time.Millisecond

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.ListDocuments(context.Background(), "2024-05-15"); err != nil {
			t.Fatalf("ListDocuments: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Fatalf("expected pacing to spread calls, elapsed %v", elapsed)
	}
}
