package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atlas-cloud/tripdex/internal/domain"
)

type fakePlanner struct {
	state *domain.PlannerState
	err   error
}

func (f *fakePlanner) Plan(_ context.Context, prefs domain.UserPreferences) (*domain.PlannerState, error) {
	if f.err != nil {
		return nil, f.err
	}
	if err := prefs.Validate(); err != nil {
		return nil, err
	}
	return f.state, nil
}

type fakeStats map[domain.Source]int

func (f fakeStats) DocumentCounts() map[domain.Source]int { return f }

func newTestHandler(planner PlanService, stats IndexStats) http.Handler {
	s := NewServer(planner, stats, zap.NewNop())
	r := chirouter.NewRouter()
	s.Routes(r)
	return r
}

const validPlanBody = `{
	"destinations": ["Paris"],
	"start_date": "2024-06-15T00:00:00Z",
	"end_date": "2024-06-17T00:00:00Z",
	"budget_level": "budget"
}`

func TestCreatePlan_OK(t *testing.T) {
	planner := &fakePlanner{state: &domain.PlannerState{
		AggregatedContext: "## Trip Planning Context\n",
		IterationCount:    0,
		Warnings:          []string{"tips index has no persisted data, serving empty results"},
	}}
	handler := newTestHandler(planner, nil)

	req := httptest.NewRequest("POST", "/v1/plan", strings.NewReader(validPlanBody))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp planResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(resp.AggregatedContext, "## Trip Planning Context") {
		t.Errorf("aggregated_context = %q", resp.AggregatedContext)
	}
	if len(resp.Warnings) != 1 {
		t.Errorf("warnings = %v, want startup warning passed through", resp.Warnings)
	}
}

func TestCreatePlan_MalformedBody_400(t *testing.T) {
	handler := newTestHandler(&fakePlanner{}, nil)

	req := httptest.NewRequest("POST", "/v1/plan", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}

	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Code != codeBadRequest {
		t.Errorf("code = %q, want %q", errResp.Code, codeBadRequest)
	}
}

func TestCreatePlan_InvalidPreferences_400(t *testing.T) {
	handler := newTestHandler(&fakePlanner{}, nil)

	req := httptest.NewRequest("POST", "/v1/plan", strings.NewReader(`{"destinations": []}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}

	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Code != codeValidationFailed {
		t.Errorf("code = %q, want %q", errResp.Code, codeValidationFailed)
	}
}

func TestCreatePlan_EmbeddingProviderDown_502(t *testing.T) {
	handler := newTestHandler(&fakePlanner{err: domain.ErrEmbeddingProviderError}, nil)

	req := httptest.NewRequest("POST", "/v1/plan", strings.NewReader(validPlanBody))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusBadGateway)
	}
}

func TestCreatePlan_Timeout_504(t *testing.T) {
	handler := newTestHandler(&fakePlanner{err: context.DeadlineExceeded}, nil)

	req := httptest.NewRequest("POST", "/v1/plan", strings.NewReader(validPlanBody))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusGatewayTimeout {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusGatewayTimeout)
	}
}

func TestHealthCheck(t *testing.T) {
	stats := fakeStats{
		domain.SourceAttractions: 12,
		domain.SourceFood:        0,
	}
	handler := newTestHandler(&fakePlanner{}, stats)

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp struct {
		Status  string         `json:"status"`
		Indexes map[string]int `json:"indexes"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
	if resp.Indexes["attractions"] != 12 {
		t.Errorf("attractions count = %d, want 12", resp.Indexes["attractions"])
	}
}
