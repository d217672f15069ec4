package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"outdial-platform/internal/audit"
	"outdial-platform/internal/auth"
	"outdial-platform/internal/campaign"
	"outdial-platform/internal/dialer"
	"outdial-platform/internal/orchestrator"
	"outdial-platform/internal/reporting"

	"github.com/gin-gonic/gin"
)

// stubDialer keeps every batch permanently in progress so the detached run
// does not interfere with handler assertions.
type stubDialer struct {
	healthErr error
	submitErr error
}

func (s stubDialer) Name() string                              { return "stub" }
func (s stubDialer) HealthCheck(ctx context.Context) error     { return s.healthErr }
func (s stubDialer) SubmitBatch(ctx context.Context, req dialer.SubmitBatchRequest) (dialer.SubmitBatchResult, error) {
	if s.submitErr != nil {
		return dialer.SubmitBatchResult{}, s.submitErr
	}
	return dialer.SubmitBatchResult{JobID: "job-1"}, nil
}
func (s stubDialer) GetBatchStatus(ctx context.Context, jobID string) (dialer.BatchSnapshot, error) {
	return dialer.BatchSnapshot{JobID: jobID, State: dialer.BatchStateFailed}, nil
}
func (s stubDialer) GetCallDetail(ctx context.Context, conversationID string) (dialer.CallDetail, error) {
	return dialer.CallDetail{}, errors.New("not found")
}

type fixture struct {
	store *campaign.MemoryStore
	orch  *orchestrator.Orchestrator
	r     *gin.Engine
}

func newFixture(t *testing.T, d dialer.BatchDialer) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := campaign.NewMemoryStore()
	store.Campaigns["camp-1"] = campaign.Campaign{ID: "camp-1", WorkspaceID: "ws-1", Name: "Spring promo"}
	store.Leads["lead-1"] = campaign.Lead{ID: "lead-1", CampaignID: "camp-1", Phone: "+15550000001", Status: campaign.LeadStatusPending}

	runs := audit.NewService(audit.NewMemoryRepo())
	orch := orchestrator.New(
		store, d, orchestrator.NewInProcessGuard(), reporting.NewService(store), runs,
		orchestrator.Config{PollInterval: 2 * time.Millisecond, MaxWait: time.Second}, nil,
	)
	h := Handlers{Store: store, Orchestrator: orch, Reporting: reporting.NewService(store), Runs: runs}

	r := gin.New()
	identity := func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), "user-1", "ws-1", "owner")
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
	r.POST("/v1/campaigns/:campaign_id/start", identity, h.StartCampaign)
	r.GET("/v1/campaigns/:campaign_id/summary", identity, h.CampaignSummary)
	r.GET("/v1/campaigns/:campaign_id/runs", identity, h.RunHistory)
	r.POST("/v1/campaigns/:campaign_id/stats/recompute", identity, h.RecomputeStats)

	return &fixture{store: store, orch: orch, r: r}
}

func (f *fixture) do(method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	f.r.ServeHTTP(w, req)
	return w
}

func TestStartCampaign_Accepted(t *testing.T) {
	f := newFixture(t, stubDialer{})
	w := f.do(http.MethodPost, "/v1/campaigns/camp-1/start")
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	f.orch.Wait()
}

func TestStartCampaign_NotFound(t *testing.T) {
	f := newFixture(t, stubDialer{})
	if w := f.do(http.MethodPost, "/v1/campaigns/missing/start"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestStartCampaign_CrossWorkspaceLooksLikeNotFound(t *testing.T) {
	f := newFixture(t, stubDialer{})
	f.store.Campaigns["camp-2"] = campaign.Campaign{ID: "camp-2", WorkspaceID: "ws-other"}
	if w := f.do(http.MethodPost, "/v1/campaigns/camp-2/start"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for cross-tenant access, got %d", w.Code)
	}
}

func TestStartCampaign_NoPendingLeads(t *testing.T) {
	f := newFixture(t, stubDialer{})
	failed := campaign.LeadStatusFailed
	_ = f.store.UpdateLead(context.Background(), "lead-1", campaign.LeadUpdate{Status: &failed})
	if w := f.do(http.MethodPost, "/v1/campaigns/camp-1/start"); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}

func TestStartCampaign_ProviderMisconfigured(t *testing.T) {
	f := newFixture(t, stubDialer{healthErr: errors.New("missing api key")})
	if w := f.do(http.MethodPost, "/v1/campaigns/camp-1/start"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestStartCampaign_ConflictWhileRunning(t *testing.T) {
	// A dialer that blocks the run in its polling loop long enough for the
	// second request to collide with the guard.
	f := newFixture(t, stubDialer{})
	if w := f.do(http.MethodPost, "/v1/campaigns/camp-1/start"); w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	// With lead-1 now calling there are no pending leads, but the guard check
	// runs first and must win while the run is still alive.
	w := f.do(http.MethodPost, "/v1/campaigns/camp-1/start")
	if w.Code != http.StatusConflict && w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 409 (or 422 after the run drained), got %d", w.Code)
	}
	f.orch.Wait()
}

func TestCampaignSummary(t *testing.T) {
	f := newFixture(t, stubDialer{})
	w := f.do(http.MethodGet, "/v1/campaigns/camp-1/summary")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var sum reporting.CampaignSummary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.CampaignID != "camp-1" || sum.TotalLeads != 1 || sum.PendingLeads != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestRecomputeStats(t *testing.T) {
	f := newFixture(t, stubDialer{})
	completed := campaign.LeadStatusCompleted
	_ = f.store.UpdateLead(context.Background(), "lead-1", campaign.LeadUpdate{Status: &completed})

	w := f.do(http.MethodPost, "/v1/campaigns/camp-1/stats/recompute")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	camp, _ := f.store.GetCampaign(context.Background(), "camp-1")
	if camp.SuccessfulCalls != 1 || camp.CompletedCalls != 1 {
		t.Fatalf("counters not persisted: %+v", camp)
	}
}

func TestRunHistory(t *testing.T) {
	f := newFixture(t, stubDialer{})
	if w := f.do(http.MethodPost, "/v1/campaigns/camp-1/start"); w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	f.orch.Wait()

	w := f.do(http.MethodGet, "/v1/campaigns/camp-1/runs")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var out struct {
		CampaignID string        `json:"campaign_id"`
		Events     []audit.Event `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(out.Events) < 2 {
		t.Fatalf("expected run start and terminal events, got %+v", out.Events)
	}
}
