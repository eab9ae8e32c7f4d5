package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"

	"opsdeck/internal/config"
	"opsdeck/internal/db"
	"opsdeck/internal/domain"
	"opsdeck/internal/engine"
	"opsdeck/internal/migrate"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, config.Default())
	handler, err := New(Config{Engine: e, BasePath: "/v0"})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func TestSopLifecycleOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	createRes, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/sops", map[string]any{
		"title": "Mixer Cleaning",
		"owner": "Production Manager",
		"steps": []map[string]any{{"instruction": "Drain mixer"}},
	}, nil)
	if createRes.StatusCode != http.StatusCreated {
		t.Fatalf("create sop status %d: %s", createRes.StatusCode, string(data))
	}
	var created domain.SOPRecord
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal sop: %v", err)
	}
	if created.Status != "draft" || created.CurrentVersion != "v0.1" {
		t.Fatalf("new sop: %s %s", created.Status, created.CurrentVersion)
	}

	// skipping a stage yields 409 invalid_transition
	skipRes, skipBody := doJSON(t, client, http.MethodPost, srv.URL+"/v0/sops/"+created.ID+"/transition", map[string]any{
		"status": "effective",
	}, nil)
	if skipRes.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", skipRes.StatusCode, string(skipBody))
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(skipBody, &envelope); err != nil || envelope.Error.Code != "invalid_transition" {
		t.Fatalf("error envelope: %s", string(skipBody))
	}

	for _, status := range []string{"in_review", "approved", "effective"} {
		res, body := doJSON(t, client, http.MethodPost, srv.URL+"/v0/sops/"+created.ID+"/transition", map[string]any{
			"status": status,
		}, map[string]string{"X-Actor-Id": "qa-lead"})
		if res.StatusCode != http.StatusOK {
			t.Fatalf("transition to %s: %d %s", status, res.StatusCode, string(body))
		}
	}

	// content edits on an effective sop are locked
	lockRes, lockBody := doJSON(t, client, http.MethodPatch, srv.URL+"/v0/sops/"+created.ID, map[string]any{
		"title": "Renamed",
	}, nil)
	if lockRes.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 sop_locked, got %d: %s", lockRes.StatusCode, string(lockBody))
	}

	// cutting a version unlocks at the next major
	verRes, verBody := doJSON(t, client, http.MethodPost, srv.URL+"/v0/sops/"+created.ID+"/versions", nil, nil)
	if verRes.StatusCode != http.StatusCreated {
		t.Fatalf("new version: %d %s", verRes.StatusCode, string(verBody))
	}
	var bumped domain.SOPRecord
	_ = json.Unmarshal(verBody, &bumped)
	if bumped.CurrentVersion != "v1.0" || bumped.Status != "draft" {
		t.Fatalf("bumped: %s %s", bumped.CurrentVersion, bumped.Status)
	}
}

func TestModuleStatsOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	_, deptBody := doJSON(t, client, http.MethodPost, srv.URL+"/v0/org/departments", map[string]any{
		"name": "Production",
	}, nil)
	var dept domain.Department
	_ = json.Unmarshal(deptBody, &dept)

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/modules", map[string]any{
		"department_id": dept.ID,
		"name":          "Filling Line",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create module: %d %s", res.StatusCode, string(data))
	}
	var module domain.WorkModule
	_ = json.Unmarshal(data, &module)

	for _, spec := range []struct{ name, status string }{
		{"fill", "completed"},
		{"cap", "in_progress"},
	} {
		res, body := doJSON(t, client, http.MethodPost, srv.URL+"/v0/tasks", map[string]any{
			"module_id": module.ID,
			"name":      spec.name,
			"status":    spec.status,
		}, nil)
		if res.StatusCode != http.StatusCreated {
			t.Fatalf("create task %s: %d %s", spec.name, res.StatusCode, string(body))
		}
	}

	statsRes, statsBody := doJSON(t, client, http.MethodGet, srv.URL+"/v0/modules/"+module.ID, nil, nil)
	if statsRes.StatusCode != http.StatusOK {
		t.Fatalf("get module: %d %s", statsRes.StatusCode, string(statsBody))
	}
	var stats engine.ModuleStats
	if err := json.Unmarshal(statsBody, &stats); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	// (100/2)*(1 + 0.5) = 75.0 -> green
	if stats.KpiScore != 75.0 || stats.RagStatus != "green" {
		t.Fatalf("kpi=%v rag=%s", stats.KpiScore, stats.RagStatus)
	}
}

func TestTaskControlStatusOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	_, deptBody := doJSON(t, client, http.MethodPost, srv.URL+"/v0/org/departments", map[string]any{"name": "QA"}, nil)
	var dept domain.Department
	_ = json.Unmarshal(deptBody, &dept)
	_, modBody := doJSON(t, client, http.MethodPost, srv.URL+"/v0/modules", map[string]any{
		"department_id": dept.ID,
		"name":          "Checks",
	}, nil)
	var module domain.WorkModule
	_ = json.Unmarshal(modBody, &module)

	_, sopBody := doJSON(t, client, http.MethodPost, srv.URL+"/v0/sops", map[string]any{
		"title": "Check SOP",
		"owner": "QA Lead",
	}, nil)
	var sop domain.SOPRecord
	_ = json.Unmarshal(sopBody, &sop)

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/tasks", map[string]any{
		"module_id":      module.ID,
		"name":           "daily check",
		"linked_sop_ids": []string{sop.ID},
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create task: %d %s", res.StatusCode, string(data))
	}
	var task TaskResponse
	if err := json.Unmarshal(data, &task); err != nil {
		t.Fatalf("unmarshal task: %v", err)
	}
	if task.ControlStatus != "controlled" {
		t.Fatalf("control_status = %s", task.ControlStatus)
	}

	// linking an unknown sop is a 404
	badRes, badBody := doJSON(t, client, http.MethodPatch, srv.URL+"/v0/tasks/"+task.ID, map[string]any{
		"linked_sop_ids": []string{"SOP-404"},
	}, nil)
	if badRes.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", badRes.StatusCode, string(badBody))
	}
}

func TestDepartmentCycleOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	_, aBody := doJSON(t, client, http.MethodPost, srv.URL+"/v0/org/departments", map[string]any{"name": "A"}, nil)
	var a domain.Department
	_ = json.Unmarshal(aBody, &a)
	_, bBody := doJSON(t, client, http.MethodPost, srv.URL+"/v0/org/departments", map[string]any{"name": "B", "parent_id": a.ID}, nil)
	var b domain.Department
	_ = json.Unmarshal(bBody, &b)

	res, body := doJSON(t, client, http.MethodPatch, srv.URL+"/v0/org/departments/"+a.ID, map[string]any{
		"parent_id": b.ID,
	}, nil)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 cycle rejection, got %d: %s", res.StatusCode, string(body))
	}
}

func TestHealth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, body := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health: %d %s", res.StatusCode, string(body))
	}
}
