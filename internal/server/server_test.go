package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "github.com/felixgeelhaar/prioritizer/internal/errors"
	"github.com/felixgeelhaar/prioritizer/internal/health"
	"github.com/felixgeelhaar/prioritizer/internal/log"
	"github.com/felixgeelhaar/prioritizer/internal/session"
	"github.com/felixgeelhaar/prioritizer/internal/store"
)

// stubPrioritizer implements TaskPrioritizer with a canned result.
type stubPrioritizer struct {
	result   []session.Task
	err      error
	lastGoal string
	lastIn   []string
}

func (p *stubPrioritizer) Prioritize(ctx context.Context, goal string, tasks []string) ([]session.Task, error) {
	p.lastGoal = goal
	p.lastIn = tasks
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

func newTestServer(t *testing.T, p TaskPrioritizer) *Server {
	t.Helper()

	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	logger := log.New(log.Config{
		Level:  log.LevelError,
		Format: log.FormatJSON,
		Output: log.NewOutput(&bytes.Buffer{}),
	})

	pm := health.NewProbeManager("test")
	return NewServer(p, st, pm, logger, Config{Address: ":0"})
}

func doJSON(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, r)
	return w
}

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var e errorResponse
	if err := json.NewDecoder(w.Body).Decode(&e); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return e
}

func TestNewServerDefaults(t *testing.T) {
	s := newTestServer(t, &stubPrioritizer{})

	if s.shutdownTimeout != 30*time.Second {
		t.Errorf("default shutdown timeout: expected 30s, got %v", s.shutdownTimeout)
	}
	if s.httpServer.ReadTimeout != 10*time.Second {
		t.Errorf("default read timeout: expected 10s, got %v", s.httpServer.ReadTimeout)
	}
	if s.httpServer.WriteTimeout != 30*time.Second {
		t.Errorf("default write timeout: expected 30s, got %v", s.httpServer.WriteTimeout)
	}
}

func TestHandlePrioritize(t *testing.T) {
	stub := &stubPrioritizer{result: []session.Task{
		{Text: "write tests", Priority: session.PriorityHigh, Reason: "blocks the release"},
		{Text: "update docs", Priority: session.PriorityLow, Reason: "can wait"},
	}}
	s := newTestServer(t, stub)

	w := doJSON(t, s, http.MethodPost, "/api/prioritize",
		`{"goal":"ship the release","tasks":["write tests","update docs"]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp prioritizeResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(resp.Tasks))
	}
	if resp.Tasks[0].Priority != session.PriorityHigh {
		t.Errorf("expected first task High, got %s", resp.Tasks[0].Priority)
	}

	if stub.lastGoal != "ship the release" {
		t.Errorf("goal not passed through, got %q", stub.lastGoal)
	}
}

func TestHandlePrioritizeFiltersBlankTasks(t *testing.T) {
	stub := &stubPrioritizer{result: []session.Task{{Text: "a"}}}
	s := newTestServer(t, stub)

	w := doJSON(t, s, http.MethodPost, "/api/prioritize",
		`{"goal":"g","tasks":["a","  ",""]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(stub.lastIn) != 1 || stub.lastIn[0] != "a" {
		t.Errorf("blank tasks should be filtered before the adapter, got %v", stub.lastIn)
	}
}

func TestHandlePrioritizeValidation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"empty tasks", `{"goal":"g","tasks":[]}`, "REQUEST-002"},
		{"all blank tasks", `{"goal":"g","tasks":["  ",""]}`, "REQUEST-002"},
		{"missing tasks", `{"goal":"g"}`, "REQUEST-002"},
		{"malformed json", `{"goal":`, "REQUEST-001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &stubPrioritizer{})
			w := doJSON(t, s, http.MethodPost, "/api/prioritize", tt.body)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			e := decodeErrorBody(t, w)
			if e.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, e.Code)
			}
			if e.Retryable {
				t.Error("validation errors must not be marked retryable")
			}
		})
	}
}

func TestHandlePrioritizeUpstreamFailure(t *testing.T) {
	stub := &stubPrioritizer{err: apperrors.NewUpstreamTimeoutError(fmt.Errorf("deadline"))}
	s := newTestServer(t, stub)

	w := doJSON(t, s, http.MethodPost, "/api/prioritize", `{"goal":"g","tasks":["a"]}`)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	e := decodeErrorBody(t, w)
	if e.Code != "UPSTREAM-002" {
		t.Errorf("expected UPSTREAM-002, got %s", e.Code)
	}
	if !e.Retryable {
		t.Error("upstream failures should be marked retryable")
	}
}

func TestHandleLoadEmpty(t *testing.T) {
	s := newTestServer(t, &stubPrioritizer{})

	w := doJSON(t, s, http.MethodGet, "/api/load", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("ETag") == "" {
		t.Error("expected ETag header on load responses")
	}

	var sess session.Session
	if err := json.NewDecoder(w.Body).Decode(&sess); err != nil {
		t.Fatal(err)
	}
	if !sess.IsEmpty() {
		t.Errorf("expected empty default session, got %+v", sess)
	}
	if sess.Tasks == nil {
		t.Error("tasks must decode as an empty array, not null")
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	s := newTestServer(t, &stubPrioritizer{})

	w := doJSON(t, s, http.MethodPost, "/api/save",
		`{"goal":"ship","tasks":[{"text":"a","priority":"High","reason":"r","completed":false}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("save: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var ack ackResponse
	if err := json.NewDecoder(w.Body).Decode(&ack); err != nil {
		t.Fatal(err)
	}
	if !ack.OK || ack.SavedAt.IsZero() {
		t.Errorf("expected ok ack with savedAt, got %+v", ack)
	}

	w = doJSON(t, s, http.MethodGet, "/api/load", "")
	if w.Code != http.StatusOK {
		t.Fatalf("load: expected 200, got %d", w.Code)
	}

	var sess session.Session
	if err := json.NewDecoder(w.Body).Decode(&sess); err != nil {
		t.Fatal(err)
	}
	if sess.Goal != "ship" || len(sess.Tasks) != 1 {
		t.Errorf("roundtrip mismatch: %+v", sess)
	}
	if sess.Tasks[0].Priority != session.PriorityHigh {
		t.Errorf("expected High priority, got %s", sess.Tasks[0].Priority)
	}
}

func TestHandleSaveNullTasks(t *testing.T) {
	s := newTestServer(t, &stubPrioritizer{})

	w := doJSON(t, s, http.MethodPost, "/api/save", `{"goal":"ship"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = doJSON(t, s, http.MethodGet, "/api/load", "")
	var sess session.Session
	if err := json.NewDecoder(w.Body).Decode(&sess); err != nil {
		t.Fatal(err)
	}
	if sess.Tasks == nil {
		t.Error("null tasks must normalize to an empty array")
	}
}

func TestHandleUpdateTask(t *testing.T) {
	s := newTestServer(t, &stubPrioritizer{})

	doJSON(t, s, http.MethodPost, "/api/save",
		`{"goal":"ship","tasks":[{"text":"a"},{"text":"b"}]}`)

	w := doJSON(t, s, http.MethodPut, "/api/tasks/1", `{"completed":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// The update ack carries no save timestamp; only save stamps one.
	var ack map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &ack); err != nil {
		t.Fatal(err)
	}
	if ack["ok"] != true {
		t.Errorf("expected ok ack, got %v", ack)
	}
	if _, present := ack["savedAt"]; present {
		t.Errorf("update ack must not include savedAt, got %v", ack)
	}

	w = doJSON(t, s, http.MethodGet, "/api/load", "")
	var sess session.Session
	if err := json.NewDecoder(w.Body).Decode(&sess); err != nil {
		t.Fatal(err)
	}
	if sess.Tasks[0].Completed || !sess.Tasks[1].Completed {
		t.Errorf("expected only task 1 completed, got %+v", sess.Tasks)
	}
}

func TestHandleUpdateTaskErrors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"out of range", "/api/tasks/5", `{"completed":true}`, http.StatusNotFound, "REQUEST-003"},
		{"negative index", "/api/tasks/-1", `{"completed":true}`, http.StatusNotFound, "REQUEST-003"},
		{"non-numeric index", "/api/tasks/abc", `{"completed":true}`, http.StatusNotFound, "REQUEST-003"},
		{"missing completed field", "/api/tasks/0", `{}`, http.StatusBadRequest, "REQUEST-001"},
		{"malformed body", "/api/tasks/0", `{`, http.StatusBadRequest, "REQUEST-001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &stubPrioritizer{})
			doJSON(t, s, http.MethodPost, "/api/save", `{"goal":"g","tasks":[{"text":"a"}]}`)

			w := doJSON(t, s, http.MethodPut, tt.target, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			e := decodeErrorBody(t, w)
			if e.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, e.Code)
			}
		})
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, &stubPrioritizer{})

	w := doJSON(t, s, http.MethodGet, "/health/live", "")
	if w.Code != http.StatusOK {
		t.Errorf("liveness: expected 200, got %d", w.Code)
	}

	// Startup fails until the server is marked initialized by Start.
	w = doJSON(t, s, http.MethodGet, "/health/startup", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("startup before init: expected 503, got %d", w.Code)
	}

	s.probeManager.MarkInitialized()
	w = doJSON(t, s, http.MethodGet, "/health/startup", "")
	if w.Code != http.StatusOK {
		t.Errorf("startup after init: expected 200, got %d", w.Code)
	}

	w = doJSON(t, s, http.MethodGet, "/health/ready", "")
	if w.Code != http.StatusOK {
		t.Errorf("readiness: expected 200, got %d", w.Code)
	}

	w = doJSON(t, s, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Errorf("healthz: expected 200, got %d", w.Code)
	}
}

func TestReadinessDuringShutdown(t *testing.T) {
	s := newTestServer(t, &stubPrioritizer{})
	s.probeManager.MarkShutdown()

	w := doJSON(t, s, http.MethodGet, "/health/ready", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("readiness during shutdown: expected 503, got %d", w.Code)
	}

	var result health.ProbeResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Status != health.StatusUnhealthy {
		t.Errorf("expected unhealthy, got %s", result.Status)
	}
}

func TestStaticClientServed(t *testing.T) {
	s := newTestServer(t, &stubPrioritizer{})

	w := doJSON(t, s, http.MethodGet, "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<html") {
		t.Error("expected the embedded client page")
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t, &stubPrioritizer{})

	w := doJSON(t, s, http.MethodGet, "/health/live", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated X-Request-ID")
	}

	r := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	r.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, r)

	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("inbound request id should be honored, got %q", got)
	}
}

func TestShutdown(t *testing.T) {
	s := newTestServer(t, &stubPrioritizer{})

	if s.IsShuttingDown() {
		t.Fatal("server should not start in shutdown state")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	if !s.IsShuttingDown() {
		t.Error("expected shutdown state after Shutdown")
	}
}
