package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shaiso/Robota/internal/actions"
	"github.com/shaiso/Robota/internal/lockfile"
	"github.com/shaiso/Robota/internal/runner"
	"github.com/shaiso/Robota/internal/scheduler"
	"github.com/shaiso/Robota/internal/stats"
)

const guardedFlowJSON = `{
  "meta": {
    "name": "invoices",
    "roles": {
      "view": ["viewer", "operator"],
      "edit": ["author"],
      "publish": ["author"],
      "approve": ["approver"],
      "run": ["operator"]
    }
  },
  "steps": [
    {"id": "s1", "action": "noop", "params": {"value": 1}, "out": "result"}
  ]
}`

// testEnv — полный стек API поверх временных директорий.
type testEnv struct {
	server   *httptest.Server
	flows    *runner.Store
	lockPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	flowsDir := filepath.Join(dir, "flows")
	if err := os.MkdirAll(flowsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(flowsDir, "invoices.json"), []byte(guardedFlowJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	flows, err := runner.NewStore(flowsDir)
	if err != nil {
		t.Fatal(err)
	}
	statsStore, err := stats.Open(filepath.Join(dir, "stats.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { statsStore.Close() })

	registry := actions.NewRegistry()
	registry.Register(actions.New("noop", func(ctx context.Context, req *actions.Request) (any, error) {
		return req.Params["value"], nil
	}))

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	lockPath := filepath.Join(dir, "runner.lock")
	run := runner.New(runner.Config{
		Registry: registry,
		LockPath: lockPath,
		Recorder: statsStore,
		Logger:   logger,
	})
	sched := scheduler.New(scheduler.Config{Recorder: statsStore, Logger: logger})

	h := NewHandler(Config{
		Flows:    flows,
		Runner:   run,
		Sched:    sched,
		Stats:    statsStore,
		Registry: registry,
		Logger:   logger,
	})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testEnv{server: server, flows: flows, lockPath: lockPath}
}

// call выполняет запрос с ролью и декодирует JSON-тело, если оно есть.
func (e *testEnv) call(t *testing.T, method, path, role, body string, out any) int {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatal(err)
	}
	if role != "" {
		req.Header.Set("X-Actor-Role", role)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func TestListFlows(t *testing.T) {
	env := newTestEnv(t)

	var resp struct {
		Data  []FlowSummary `json:"data"`
		Total int           `json:"total"`
	}
	status := env.call(t, http.MethodGet, "/api/v1/flows", "viewer", "", &resp)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if resp.Total != 1 || resp.Data[0].Name != "invoices" {
		t.Errorf("unexpected list: %+v", resp)
	}
	if resp.Data[0].Published || resp.Data[0].Approved {
		t.Errorf("fresh flow should be unpublished: %+v", resp.Data[0])
	}
}

func TestGetFlow_RBAC(t *testing.T) {
	env := newTestEnv(t)

	// Роль с правом view.
	status := env.call(t, http.MethodGet, "/api/v1/flows/invoices", "viewer", "", nil)
	if status != http.StatusOK {
		t.Errorf("viewer expected 200, got %d", status)
	}

	// Роль без права view.
	var errResp ErrorResponse
	status = env.call(t, http.MethodGet, "/api/v1/flows/invoices", "author", "", &errResp)
	if status != http.StatusForbidden {
		t.Errorf("author expected 403, got %d", status)
	}
	if errResp.Error.Code != ErrCodeForbidden {
		t.Errorf("expected FORBIDDEN code, got %s", errResp.Error.Code)
	}

	// Запрос вовсе без роли.
	status = env.call(t, http.MethodGet, "/api/v1/flows/invoices", "", "", nil)
	if status != http.StatusForbidden {
		t.Errorf("no role expected 403, got %d", status)
	}
}

func TestGetFlow_NotFound(t *testing.T) {
	env := newTestEnv(t)

	status := env.call(t, http.MethodGet, "/api/v1/flows/ghost", "viewer", "", nil)
	if status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
}

func TestUpdateFlow(t *testing.T) {
	env := newTestEnv(t)

	updated := strings.Replace(guardedFlowJSON, `"value": 1`, `"value": 2`, 1)
	status := env.call(t, http.MethodPut, "/api/v1/flows/invoices", "author", updated, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	// Переименование через update запрещено.
	renamed := strings.Replace(guardedFlowJSON, `"name": "invoices"`, `"name": "other"`, 1)
	status = env.call(t, http.MethodPut, "/api/v1/flows/invoices", "author", renamed, nil)
	if status != http.StatusBadRequest {
		t.Errorf("name mismatch expected 400, got %d", status)
	}

	// Роль без права edit.
	status = env.call(t, http.MethodPut, "/api/v1/flows/invoices", "viewer", updated, nil)
	if status != http.StatusForbidden {
		t.Errorf("viewer expected 403, got %d", status)
	}
}

func TestPublishApprove(t *testing.T) {
	env := newTestEnv(t)

	status := env.call(t, http.MethodPost, "/api/v1/flows/invoices/publish", "author", "", nil)
	if status != http.StatusNoContent {
		t.Fatalf("publish expected 204, got %d", status)
	}
	status = env.call(t, http.MethodPost, "/api/v1/flows/invoices/approve", "approver", "", nil)
	if status != http.StatusNoContent {
		t.Fatalf("approve expected 204, got %d", status)
	}

	st := env.flows.State("invoices")
	if !st.Published || !st.Approved {
		t.Errorf("state not updated: %+v", st)
	}

	// Утверждать может только approver.
	status = env.call(t, http.MethodPost, "/api/v1/flows/invoices/approve", "author", "", nil)
	if status != http.StatusForbidden {
		t.Errorf("author approve expected 403, got %d", status)
	}
}

func TestCreateRun(t *testing.T) {
	env := newTestEnv(t)

	var resp struct {
		Data struct {
			Flow    string `json:"flow"`
			Status  string `json:"status"`
			Trigger string `json:"trigger"`
		} `json:"data"`
	}
	status := env.call(t, http.MethodPost, "/api/v1/flows/invoices/runs", "operator",
		`{"inputs": {"period": "daily"}}`, &resp)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if resp.Data.Status != "SUCCESS" || resp.Data.Flow != "invoices" || resp.Data.Trigger != "manual" {
		t.Errorf("unexpected run record: %+v", resp.Data)
	}

	// Запись видна в последних запусках.
	var runs struct {
		Data []stats.RunRow `json:"data"`
	}
	status = env.call(t, http.MethodGet, "/api/v1/runs", "operator", "", &runs)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(runs.Data) != 1 || runs.Data[0].Flow != "invoices" {
		t.Errorf("run not recorded: %+v", runs.Data)
	}
}

func TestCreateRun_Forbidden(t *testing.T) {
	env := newTestEnv(t)

	status := env.call(t, http.MethodPost, "/api/v1/flows/invoices/runs", "viewer", "", nil)
	if status != http.StatusForbidden {
		t.Errorf("viewer run expected 403, got %d", status)
	}

	// Отказ в праве не оставляет записи.
	var runs struct {
		Data []stats.RunRow `json:"data"`
	}
	env.call(t, http.MethodGet, "/api/v1/runs", "operator", "", &runs)
	if len(runs.Data) != 0 {
		t.Errorf("denied run must not be recorded: %+v", runs.Data)
	}
}

func TestCreateRun_LockBusy(t *testing.T) {
	env := newTestEnv(t)

	held, err := lockfile.Acquire(env.lockPath)
	if err != nil {
		t.Fatal(err)
	}
	defer held.Release()

	var resp struct {
		Data struct {
			Status string `json:"status"`
			Reason string `json:"reason"`
		} `json:"data"`
	}
	status := env.call(t, http.MethodPost, "/api/v1/flows/invoices/runs", "operator", "", &resp)
	if status != http.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}
	if resp.Data.Status != "FAILED" || resp.Data.Reason != "lock_busy" {
		t.Errorf("expected FAILED/lock_busy in body, got %+v", resp.Data)
	}
}

func TestListRuns_InvalidLimit(t *testing.T) {
	env := newTestEnv(t)

	status := env.call(t, http.MethodGet, "/api/v1/runs?limit=abc", "operator", "", nil)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
}

func TestStopRuns(t *testing.T) {
	env := newTestEnv(t)

	status := env.call(t, http.MethodPost, "/api/v1/runs/stop", "operator", "", nil)
	if status != http.StatusNoContent {
		t.Errorf("expected 204, got %d", status)
	}
}

func TestListActions(t *testing.T) {
	env := newTestEnv(t)

	var resp struct {
		Data []string `json:"data"`
	}
	status := env.call(t, http.MethodGet, "/api/v1/actions", "operator", "", &resp)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(resp.Data) != 1 || resp.Data[0] != "noop" {
		t.Errorf("unexpected actions: %v", resp.Data)
	}
}

func TestGetStats_Formats(t *testing.T) {
	env := newTestEnv(t)

	// JSON по умолчанию.
	var resp struct {
		Data struct {
			SuccessRate float64 `json:"success_rate"`
		} `json:"data"`
	}
	status := env.call(t, http.MethodGet, "/api/v1/stats", "operator", "", &resp)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	// HTML-дашборд.
	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/v1/stats?format=html", nil)
	req.Header.Set("X-Actor-Role", "operator")
	httpResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		t.Fatalf("html expected 200, got %d", httpResp.StatusCode)
	}
	if ct := httpResp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected text/html, got %s", ct)
	}

	// Незнакомый формат.
	status = env.call(t, http.MethodGet, "/api/v1/stats?format=xml", "operator", "", nil)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
}
