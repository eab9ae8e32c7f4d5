package analysis_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"opsdeck/internal/analysis"
	"opsdeck/internal/config"
)

func newClient(url string) *analysis.Client {
	return analysis.New(config.AnalysisConfig{URL: url, APIKey: "test-key"})
}

func TestAnalyzeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze-sop" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"analysis":"looks fine","steps":[{"instruction":"Wear gloves","require_photo":true}]}`))
	}))
	defer srv.Close()

	result, err := newClient(srv.URL).Analyze(context.Background(), analysis.Request{
		FileName:     "sop.pdf",
		FileContent:  "content",
		ExtractSteps: true,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.Analysis != "looks fine" || len(result.Steps) != 1 || !result.Steps[0].RequirePhoto {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestAnalyzeRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Analyze(context.Background(), analysis.Request{FileName: "a", FileContent: "b"})
	if !errors.Is(err, analysis.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestAnalyzeQuotaExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":"credits exhausted"}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Analyze(context.Background(), analysis.Request{FileName: "a", FileContent: "b"})
	if !errors.Is(err, analysis.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestAnalyzeNotConfigured(t *testing.T) {
	_, err := newClient("").Analyze(context.Background(), analysis.Request{FileName: "a", FileContent: "b"})
	if !errors.Is(err, analysis.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
