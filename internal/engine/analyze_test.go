package engine_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"opsdeck/internal/analysis"
	"opsdeck/internal/config"
	"opsdeck/internal/engine"
)

func analysisBackend(t *testing.T, status int, body string) *analysis.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return analysis.New(config.AnalysisConfig{URL: srv.URL, APIKey: "k"})
}

func TestAnalyzeSopWritesResultOnSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.Engine.Analysis = analysisBackend(t, http.StatusOK,
		`{"analysis":"two hazards found","steps":[{"instruction":"Lock out power"}]}`)
	s := createSop(t, env)

	s, err := env.Engine.AnalyzeSop(env.Ctx, engine.AnalyzeOptions{
		SopID:        s.ID,
		FileContent:  "procedure text",
		ExtractSteps: true,
		ActorID:      "tester",
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if s.AIAnalysis != "two hazards found" {
		t.Fatalf("ai_analysis = %q", s.AIAnalysis)
	}
	if len(s.Steps) != 3 {
		t.Fatalf("expected appended step, got %d", len(s.Steps))
	}
	if s.Steps[2].Instruction != "Lock out power" {
		t.Fatalf("appended step = %q", s.Steps[2].Instruction)
	}
}

func TestAnalyzeSopFailureLeavesSopUntouched(t *testing.T) {
	env := newTestEnv(t)
	env.Engine.Analysis = analysisBackend(t, http.StatusTooManyRequests, `{"error":"slow down"}`)
	s := createSop(t, env)

	_, err := env.Engine.AnalyzeSop(env.Ctx, engine.AnalyzeOptions{
		SopID:       s.ID,
		FileContent: "procedure text",
		ActorID:     "tester",
	})
	if !errors.Is(err, analysis.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	got, _ := env.Engine.Repo.GetSop(env.Ctx, s.ID)
	if got.AIAnalysis != "" || len(got.Steps) != 2 {
		t.Fatalf("sop changed after failed analysis: %+v", got)
	}
}

func TestAnalyzeSopRequiresContent(t *testing.T) {
	env := newTestEnv(t)
	s := createSop(t, env)
	if _, err := env.Engine.AnalyzeSop(env.Ctx, engine.AnalyzeOptions{SopID: s.ID, ActorID: "tester"}); err == nil {
		t.Fatalf("expected content requirement")
	}
}
