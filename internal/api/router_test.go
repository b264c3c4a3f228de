package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arunkumarkundra/choicease/internal/analysis"
	"github.com/arunkumarkundra/choicease/internal/hermes"
	"github.com/arunkumarkundra/choicease/internal/metrics"
	"github.com/arunkumarkundra/choicease/internal/store"
	"github.com/arunkumarkundra/choicease/internal/whatif"
)

const exampleDoc = `{
  "title": "Example",
  "options": [{"id": 1, "name": "A"}, {"id": 2, "name": "B"}, {"id": 3, "name": "C"}],
  "criteria": [{"id": 1, "name": "X", "importance": 5}, {"id": 2, "name": "Y", "importance": 1}],
  "weights": {"1": 5, "2": 1},
  "ratings": {"1-1": 5, "1-2": 0, "2-1": 0, "2-2": 5}
}`

// Mocks
type mockStore struct {
	mu        sync.Mutex
	decisions map[uuid.UUID]*store.Decision
	analyses  []*store.AnalysisSnapshot
}

func newMockStore() *mockStore {
	return &mockStore{decisions: make(map[uuid.UUID]*store.Decision)}
}
func (m *mockStore) CreateDecision(_ context.Context, d *store.Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	m.decisions[d.ID] = d
	return nil
}
func (m *mockStore) GetDecision(_ context.Context, id uuid.UUID) (*store.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.decisions[id], nil
}
func (m *mockStore) ListDecisions(_ context.Context, _ store.DecisionFilter) ([]*store.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.Decision
	for _, d := range m.decisions {
		out = append(out, d)
	}
	return out, nil
}
func (m *mockStore) UpdateDecision(_ context.Context, d *store.Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.decisions[d.ID]; !ok {
		return store.ErrNotFound
	}
	d.UpdatedAt = time.Now()
	m.decisions[d.ID] = d
	return nil
}
func (m *mockStore) DeleteDecision(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.decisions[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.decisions, id)
	return nil
}
func (m *mockStore) CreateAnalysis(_ context.Context, a *store.AnalysisSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	m.analyses = append(m.analyses, a)
	return nil
}
func (m *mockStore) ListAnalyses(_ context.Context, id uuid.UUID, _ int) ([]*store.AnalysisSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.AnalysisSnapshot
	for _, a := range m.analyses {
		if a.DecisionID == id {
			out = append(out, a)
		}
	}
	return out, nil
}
func (m *mockStore) Close() error { return nil }

type mockHermes struct {
	mock.Mock
}

func (m *mockHermes) Publish(subject string, data interface{}) error {
	args := m.Called(subject, data)
	return args.Error(0)
}
func (m *mockHermes) Subscribe(subject string, handler func(string, []byte)) error {
	args := m.Called(subject, handler)
	return args.Error(0)
}
func (m *mockHermes) Close() {}

type testEnv struct {
	router  http.Handler
	store   *mockStore
	hermes  *mockHermes
	manager *whatif.Manager
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ms := newMockStore()
	mh := &mockHermes{}
	mh.On("Publish", mock.Anything, mock.Anything).Return(nil)

	m := metrics.New(prometheus.NewRegistry())
	a := analysis.NewAnalyzer(analysis.Settings{Seed: 42}, logger)
	wm := whatif.NewManager(whatif.ManagerConfig{
		Session: whatif.Options{
			Debounce:   time.Hour,
			OnEvaluate: WhatIfHook(mh, m, logger),
		},
	}, logger)
	t.Cleanup(wm.Stop)

	return &testEnv{
		router:  NewRouter(ms, mh, a, wm, m, "test-token", logger),
		store:   ms,
		hermes:  mh,
		manager: wm,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}

func TestAnalyzeDocument(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, "POST", "/api/v1/analyze", exampleDoc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	rep := decode[analysis.Report](t, w)
	assert.Equal(t, []string{"A"}, rep.Winners)
	require.Len(t, rep.Weights, 2)
	assert.Equal(t, 91, rep.Weights[0].Rounded)
	assert.Equal(t, 9, rep.Weights[1].Rounded)
	assert.Len(t, rep.Results, 3)
	assert.NotNil(t, rep.Confidence.Stability)
}

func TestAnalyzeAcceptsYAML(t *testing.T) {
	env := setupTestRouter(t)
	doc := `title: Shortlist
options:
  - {id: 1, name: Keep}
  - {id: 2, name: Switch}
criteria:
  - {id: 1, name: Cost, importance: 3}
ratings:
  "1-1": 2
  "2-1": 4
`
	w := env.do(t, "POST", "/api/v1/analyze", doc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rep := decode[analysis.Report](t, w)
	assert.Equal(t, []string{"Switch"}, rep.Winners)
}

func TestAnalyzeErrors(t *testing.T) {
	env := setupTestRouter(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{"title":`, http.StatusBadRequest},
		{"no options", `{"title":"t","criteria":[{"id":1,"name":"X","importance":3}]}`, http.StatusUnprocessableEntity},
		{"no criteria", `{"title":"t","options":[{"id":1,"name":"A"}]}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, "POST", "/api/v1/analyze", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestNormalizeWeights(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, "POST", "/api/v1/weights/normalize", `{"importances":{"1":5,"2":1}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[NormalizeResponse](t, w)
	assert.InDelta(t, 90.9091, resp.Weights["1"], 0.001)
	assert.InDelta(t, 9.0909, resp.Weights["2"], 0.001)
	assert.Equal(t, map[string]int{"1": 91, "2": 9}, resp.Rounded)
	assert.InDelta(t, 100, resp.Sum, 1e-6)

	w = env.do(t, "POST", "/api/v1/weights/normalize", `{"importances":{"1":7}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, "POST", "/api/v1/weights/normalize", `{"importances":{"x":3}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDecisionLifecycle(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, "POST", "/api/v1/decisions", exampleDoc)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[store.Decision](t, w)
	assert.Equal(t, "Example", created.Title)
	assert.Len(t, created.Document.NormalizedWeights, 2)
	env.hermes.AssertCalled(t, "Publish", hermes.SubjectDecisionSaved(created.ID.String()), mock.Anything)

	w = env.do(t, "GET", "/api/v1/decisions/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "GET", "/api/v1/decisions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]store.Decision](t, w), 1)

	w = env.do(t, "POST", "/api/v1/decisions/"+created.ID.String()+"/analyze", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[AnalyzeResponse](t, w)
	assert.Equal(t, []string{"A"}, resp.Analysis.Winners)
	assert.Equal(t, resp.Report.Confidence.Percentage, resp.Analysis.Confidence)
	require.NotNil(t, resp.Analysis.StabilityPercentage)
	env.hermes.AssertCalled(t, "Publish", hermes.SubjectDecisionAnalyzed(created.ID.String()), mock.AnythingOfType("hermes.DecisionAnalyzedEvent"))

	require.Len(t, env.store.analyses, 1)
	var stored analysis.Report
	require.NoError(t, json.Unmarshal(env.store.analyses[0].Report, &stored))
	assert.Equal(t, "Example", stored.Title)

	w = env.do(t, "GET", "/api/v1/decisions/"+created.ID.String()+"/analyses", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]store.AnalysisSnapshot](t, w), 1)

	updated := strings.Replace(exampleDoc, `"Example"`, `"Example v2"`, 1)
	w = env.do(t, "PUT", "/api/v1/decisions/"+created.ID.String(), updated)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Example v2", decode[store.Decision](t, w).Title)
}

func TestDecisionNotFound(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, "GET", "/api/v1/decisions/"+uuid.New().String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, "GET", "/api/v1/decisions/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, "POST", "/api/v1/decisions/"+uuid.New().String()+"/analyze", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteDecisionRequiresAdmin(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, "POST", "/api/v1/decisions", exampleDoc)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[store.Decision](t, w).ID.String()

	w = env.do(t, "DELETE", "/api/v1/decisions/"+id, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, "DELETE", "/api/v1/decisions/"+id, "", "Authorization", "Bearer test-token")
	assert.Equal(t, http.StatusNoContent, w.Code)
	env.hermes.AssertCalled(t, "Publish", hermes.SubjectDecisionDeleted(id), mock.Anything)

	w = env.do(t, "DELETE", "/api/v1/decisions/"+id, "", "Authorization", "Bearer test-token")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWhatIfLifecycle(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, "POST", "/api/v1/whatif", `{"document":`+exampleDoc+`}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[SessionView](t, w)
	assert.Equal(t, whatif.StateIdle, created.State)
	assert.Equal(t, []string{"A"}, created.Result.Winners)
	base := "/api/v1/whatif/" + created.SessionID
	env.hermes.AssertCalled(t, "Publish", hermes.SubjectWhatIfOpened(created.SessionID), mock.Anything)

	w = env.do(t, "PUT", base+"/weights", `{"weights":{"1":0}}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	pending := decode[SessionView](t, w)
	assert.Equal(t, whatif.StatePending, pending.State)
	assert.Equal(t, []string{"A"}, pending.Result.Winners, "evaluation waits for the debounce period")

	w = env.do(t, "GET", base+"?flush=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	flushed := decode[SessionView](t, w)
	assert.Equal(t, whatif.StateIdle, flushed.State)
	assert.Equal(t, []string{"B"}, flushed.Result.Winners)
	assert.True(t, flushed.Result.WinnerChanged)
	assert.InDelta(t, 100, flushed.NormalizedWeights[2], 1e-9)
	env.hermes.AssertCalled(t, "Publish", hermes.SubjectWhatIfWinnerChanged(created.SessionID), mock.AnythingOfType("hermes.WhatIfWinnerChangedEvent"))

	w = env.do(t, "POST", base+"/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"A"}, decode[SessionView](t, w).Result.Winners)

	w = env.do(t, "DELETE", base, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, "GET", base, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWhatIfFromSavedDecision(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, "POST", "/api/v1/decisions", exampleDoc)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[store.Decision](t, w).ID.String()

	w = env.do(t, "POST", "/api/v1/whatif", `{"decision_id":"`+id+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 1, env.manager.Len())

	w = env.do(t, "POST", "/api/v1/whatif", `{"decision_id":"`+uuid.New().String()+`"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, "POST", "/api/v1/whatif", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWhatIfRejectsInvalidWeights(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, "POST", "/api/v1/whatif", `{"document":`+exampleDoc+`}`)
	require.Equal(t, http.StatusCreated, w.Code)
	base := "/api/v1/whatif/" + decode[SessionView](t, w).SessionID

	w = env.do(t, "PUT", base+"/weights", `{"weights":{"1":-5}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, "PUT", base+"/weights", `{"weights":{"9":10}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, "PUT", base+"/weights", `{"weights":{}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsRequiresAdmin(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, "GET", "/api/v1/stats", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, "GET", "/api/v1/stats", "", "Authorization", "Bearer test-token")
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[Stats](t, w)
	assert.Equal(t, analysis.DefaultStabilityTrials, stats.StabilityTrials)
	assert.True(t, stats.Seeded)
}

func TestRouterWithoutStore(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := analysis.NewAnalyzer(analysis.Settings{}, logger)
	wm := whatif.NewManager(whatif.ManagerConfig{}, logger)
	t.Cleanup(wm.Stop)
	router := NewRouter(nil, nil, a, wm, nil, "", logger)

	req := httptest.NewRequest("GET", "/api/v1/decisions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest("POST", "/api/v1/analyze", strings.NewReader(exampleDoc))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("POST", "/api/v1/whatif", strings.NewReader(`{"decision_id":"`+uuid.New().String()+`"}`))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsRouterHealth(t *testing.T) {
	router := NewMetricsRouter()
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
