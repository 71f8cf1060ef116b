/*
handlers_test.go - HTTP tests for the leave API

Tests for:
- Identity (header, bearer token, rejection)
- Period admission, rejection with 422 and the French notice
- Quota, balance, preview, edit and delete endpoints
- Storage failures mapped to 503
- Demo scenarios
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-planner/api"
	"github.com/warp/leave-planner/generic"
	"github.com/warp/leave-planner/leave"
	"github.com/warp/leave-planner/store/memory"
)

const testSecret = "test-secret"

type testServer struct {
	t      *testing.T
	router http.Handler
	auth   *api.Authenticator
	store  *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.New()
	return newTestServerWithStore(t, store, store)
}

func newTestServerWithStore(t *testing.T, store leave.Store, mem *memory.Store) *testServer {
	t.Helper()
	planner := leave.NewPlanner(store, store, nil)
	auth := api.NewAuthenticator(testSecret, true)
	h := api.NewHandler(planner, nil, nil)
	return &testServer{
		t:      t,
		router: api.NewRouter(h, api.RouterOptions{Auth: auth}),
		auth:   auth,
		store:  mem,
	}
}

func (s *testServer) do(method, path, user string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(api.HeaderUserID, user)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func days(v float64) generic.Days { return generic.NewDays(v) }

// =============================================================================
// IDENTITY
// =============================================================================

func TestIdentify_RequiresUser(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/me/balance", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdentify_BearerToken(t *testing.T) {
	s := newTestServer(t)
	token, err := s.auth.GenerateToken("alice", time.Hour)
	require.NoError(t, err)

	// GIVEN: alice creates a period through a token
	req := httptest.NewRequest(http.MethodPost, "/api/me/periods",
		bytes.NewBufferString(`{"start_date":"2025-06-02","end_date":"2025-06-02","type":"vacation"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// THEN: the period belongs to alice
	periods, err := s.store.ListPeriods(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, periods, 1)
}

func TestIdentify_InvalidTokenDoesNotFallBack(t *testing.T) {
	s := newTestServer(t)
	other := api.NewAuthenticator("another-secret", true)
	token, err := other.GenerateToken("mallory", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/me/periods", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(api.HeaderUserID, "alice")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdentify_HeaderDisabled(t *testing.T) {
	store := memory.New()
	h := api.NewHandler(leave.NewPlanner(store, store, nil), nil, nil)
	router := api.NewRouter(h, api.RouterOptions{Auth: api.NewAuthenticator(testSecret, false)})

	req := httptest.NewRequest(http.MethodGet, "/api/me/periods", nil)
	req.Header.Set(api.HeaderUserID, "alice")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =============================================================================
// COST
// =============================================================================

func TestGetCost(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		query string
		want  float64
		label string
	}{
		{"week with weekend", "start=2025-06-02&end=2025-06-08", 5, "2 juin - 8 juin"},
		{"morning", "start=2025-06-02&granularity=morning", 0.5, "2 juin (matin)"},
		{"saturday", "start=2025-06-07&end=2025-06-07", 0, "7 juin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodGet, "/api/cost?"+tt.query, "", nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			got := decode[api.CostDTO](t, rec)
			assert.True(t, got.WorkingDays.Equal(days(tt.want)), "got %s", got.WorkingDays)
			assert.Equal(t, tt.label, got.Label)
		})
	}
}

func TestGetCost_WidestRange(t *testing.T) {
	s := newTestServer(t)

	started := time.Now()
	rec := s.do(http.MethodGet, "/api/cost?start=0001-01-02&end=9999-12-31", "", nil)
	elapsed := time.Since(started)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[api.CostDTO](t, rec)
	assert.True(t, got.WorkingDays.Equal(generic.DaysFromInt(2608614)), "got %s", got.WorkingDays)
	assert.Less(t, elapsed, 50*time.Millisecond)
}

func TestGetCost_InvalidInput(t *testing.T) {
	s := newTestServer(t)

	for _, q := range []string{"", "start=2025-06-08&end=2025-06-02", "start=02/06/2025", "start=2025-06-02&granularity=evening"} {
		rec := s.do(http.MethodGet, "/api/cost?"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "query %q", q)
	}
}

// =============================================================================
// PERIODS
// =============================================================================

func TestCreatePeriod_CommitsAndUpdatesBalance(t *testing.T) {
	s := newTestServer(t)

	// WHEN: a five-day week is requested
	rec := s.do(http.MethodPost, "/api/me/periods", "alice", api.PeriodRequest{
		StartDate: "2025-06-02", EndDate: "2025-06-08", Category: "vacation", Note: "Bretagne",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[api.PeriodDTO](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.WorkingDays.Equal(days(5)))
	assert.Equal(t, "full", created.Granularity)

	// THEN: the balance reflects it
	rec = s.do(http.MethodGet, "/api/me/balance", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[api.SummaryDTO](t, rec)

	require.Len(t, summary.Balances, 4)
	annual := summary.Balances[0]
	assert.Equal(t, "vacation", annual.Category)
	assert.True(t, annual.Used.Equal(days(5)))
	assert.True(t, annual.Remaining.Equal(days(20)))
	assert.InDelta(t, 20.0, annual.UsagePercent, 0.001)
	require.Len(t, summary.Periods, 1)
	assert.Equal(t, "Bretagne", summary.Periods[0].Note)

	unpaid := summary.Balances[3]
	assert.Equal(t, "unpaid", unpaid.Category)
	assert.Nil(t, unpaid.Allotment)
}

func TestCreatePeriod_InsufficientBalance(t *testing.T) {
	s := newTestServer(t)

	// GIVEN: 24.5 of 25 annual days used
	rec := s.do(http.MethodPost, "/api/scenarios/load", "alice", api.LoadScenarioRequest{ScenarioID: "near-quota"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// WHEN: a full day is requested
	rec = s.do(http.MethodPost, "/api/me/periods", "alice", api.PeriodRequest{
		StartDate: "2025-06-02", EndDate: "2025-06-02", Category: "annual",
	})

	// THEN: 422 with the notice, nothing written
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[api.InsufficientBalanceDTO](t, rec)
	assert.Equal(t, "vacation", body.Category)
	assert.True(t, body.Requested.Equal(days(1)))
	assert.True(t, body.Available.Equal(days(0.5)))
	assert.Equal(t, "Pas assez de jours de congés payés disponibles !", body.Notice)

	periods, err := s.store.ListPeriods(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, periods, 4)

	// WHEN: a morning is requested instead
	rec = s.do(http.MethodPost, "/api/me/periods", "alice", api.PeriodRequest{
		StartDate: "2025-06-02", Category: "vacation", Granularity: "morning",
	})

	// THEN: accepted, remaining is exactly 0
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	summary := decode[api.SummaryDTO](t, s.do(http.MethodGet, "/api/me/balance", "alice", nil))
	assert.True(t, summary.Balances[0].Remaining.IsZero())
}

func TestCreatePeriod_InvalidRequests(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body any
	}{
		{"unknown category", api.PeriodRequest{StartDate: "2025-06-02", Category: "sabbatical"}},
		{"unknown granularity", api.PeriodRequest{StartDate: "2025-06-02", Category: "rtt", Granularity: "night"}},
		{"bad date", api.PeriodRequest{StartDate: "2 juin", Category: "rtt"}},
		{"reversed", api.PeriodRequest{StartDate: "2025-06-06", EndDate: "2025-06-02", Category: "rtt"}},
		{"not json", "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/api/me/periods", "alice", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	periods, err := s.store.ListPeriods(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, periods)
}

func TestPreviewPeriod(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK,
		s.do(http.MethodPost, "/api/scenarios/load", "alice", api.LoadScenarioRequest{ScenarioID: "near-quota"}).Code)

	rec := s.do(http.MethodPost, "/api/me/periods/preview", "alice", api.PeriodRequest{
		StartDate: "2025-06-02", EndDate: "2025-06-03", Category: "vacation",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	preview := decode[api.PreviewDTO](t, rec)
	assert.False(t, preview.Admissible)
	assert.True(t, preview.WorkingDays.Equal(days(2)))
	assert.Equal(t, "Pas assez de jours de congés payés disponibles !", preview.Notice)

	rec = s.do(http.MethodPost, "/api/me/periods/preview", "alice", api.PeriodRequest{
		StartDate: "2025-06-02", EndDate: "2025-06-03", Category: "rtt",
	})
	preview = decode[api.PreviewDTO](t, rec)
	assert.True(t, preview.Admissible)
	require.NotNil(t, preview.Available)
	assert.True(t, preview.Available.Equal(days(15)))

	// preview never writes
	periods, err := s.store.ListPeriods(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, periods, 4)
}

func TestUpdateAndDeletePeriod(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/me/periods", "alice", api.PeriodRequest{
		StartDate: "2025-06-02", EndDate: "2025-06-06", Category: "rtt",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	first := decode[api.PeriodDTO](t, rec)

	// Edit: the old period no longer counts against the new one
	rec = s.do(http.MethodPut, "/api/me/periods/"+first.ID, "alice", api.PeriodRequest{
		StartDate: "2025-06-09", EndDate: "2025-06-20", Category: "rtt",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	edited := decode[api.PeriodDTO](t, rec)
	assert.NotEqual(t, first.ID, edited.ID)
	assert.True(t, edited.WorkingDays.Equal(days(10)))

	listed := decode[[]api.PeriodDTO](t, s.do(http.MethodGet, "/api/me/periods", "alice", nil))
	require.Len(t, listed, 1)
	assert.Equal(t, edited.ID, listed[0].ID)

	// Another user cannot delete it
	rec = s.do(http.MethodDelete, "/api/me/periods/"+edited.ID, "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodDelete, "/api/me/periods/"+edited.ID, "alice", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodDelete, "/api/me/periods/"+edited.ID, "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// QUOTA
// =============================================================================

func TestQuota_DefaultAndUpdate(t *testing.T) {
	s := newTestServer(t)

	quota := decode[api.QuotaDTO](t, s.do(http.MethodGet, "/api/me/quota", "alice", nil))
	assert.True(t, quota.Annual.Equal(days(25)))
	assert.True(t, quota.CompTime.Equal(days(15)))
	assert.True(t, quota.CarriedOver.Equal(days(5)))

	rec := s.do(http.MethodPut, "/api/me/quota", "alice", map[string]any{
		"vacation": 27, "rtt": 10.5, "previous_year": 0,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	quota = decode[api.QuotaDTO](t, s.do(http.MethodGet, "/api/me/quota", "alice", nil))
	assert.True(t, quota.Annual.Equal(days(27)))
	assert.True(t, quota.CompTime.Equal(days(10.5)))
	assert.True(t, quota.CarriedOver.IsZero())

	// bob still has the default
	quota = decode[api.QuotaDTO](t, s.do(http.MethodGet, "/api/me/quota", "bob", nil))
	assert.True(t, quota.Annual.Equal(days(25)))
}

func TestQuota_RejectsNegative(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPut, "/api/me/quota", "alice", map[string]any{
		"vacation": -1, "rtt": 15, "previous_year": 5,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// STORAGE FAILURES
// =============================================================================

type brokenStore struct{ *memory.Store }

var errDown = errors.New("connection refused")

func (b brokenStore) ListPeriods(context.Context, leave.UserID) ([]leave.Period, error) {
	return nil, errDown
}

func (b brokenStore) InsertPeriod(context.Context, leave.UserID, leave.Period) (leave.Period, error) {
	return leave.Period{}, errDown
}

func (b brokenStore) Ping(context.Context) error { return errDown }

func TestStorageUnavailable(t *testing.T) {
	mem := memory.New()
	store := brokenStore{mem}
	h := api.NewHandler(leave.NewPlanner(store, store, nil), store, nil)
	router := api.NewRouter(h, api.RouterOptions{})

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/me/balance", ""},
		{http.MethodPost, "/api/me/periods", `{"start_date":"2025-06-02","type":"rtt"}`},
		{http.MethodGet, "/healthz", ""},
	} {
		req := httptest.NewRequest(tc.method, tc.path, bytes.NewBufferString(tc.body))
		req.Header.Set(api.HeaderUserID, "alice")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "%s %s", tc.method, tc.path)
	}

	periods, err := mem.ListPeriods(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, periods)
}

func TestHealthz_OK(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}
