package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/accesskeep/accesskeep/internal/app"
	"github.com/accesskeep/accesskeep/internal/database/testutil"
	"github.com/accesskeep/accesskeep/internal/middleware"
	"github.com/accesskeep/accesskeep/internal/realtime"
)

const seededClient = "C.1000000000000000"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate(), testutil.WithSeedData())
	cfg := &app.Config{
		Approvals: app.ApprovalConfig{MatchReason: true},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
	}

	router, err := NewRouter(db, cfg, realtime.NewHub())
	require.NoError(t, err)
	return router
}

func do(t *testing.T, router *gin.Engine, method, target, actor, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != "" {
		req.Header.Set(middleware.ActorHeader, actor)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var envelope struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	return envelope.Data
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ok")
}

func TestAPIRequiresActorHeader(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/approvals/client", "", "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "PERMISSION_DENIED")
}

func TestApprovalLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	// Request access as alice, notifying bob.
	rec := do(t, router, http.MethodPost, "/api/approvals/client/"+seededClient, "alice",
		`{"reason":"case 42","notified_users":["bob"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	data := decodeData(t, rec)
	request, ok := data["request"].(map[string]any)
	require.True(t, ok)
	approvalID, ok := request["id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, approvalID)
	require.Equal(t, false, data["is_valid"])

	// Not yet granted.
	rec = do(t, router, http.MethodGet, "/api/authorize/client/"+seededClient+"?reason=case+42", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decision := decodeData(t, rec)
	require.Equal(t, false, decision["granted"])

	// Self-approval is rejected.
	rec = do(t, router, http.MethodPost, "/api/approvals/client/"+seededClient+"/"+approvalID+"/grant", "alice", "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Bob grants; validity flips.
	rec = do(t, router, http.MethodPost, "/api/approvals/client/"+seededClient+"/"+approvalID+"/grant", "bob", "")
	require.Equal(t, http.StatusOK, rec.Code)
	granted := decodeData(t, rec)
	require.Equal(t, true, granted["is_valid"])

	rec = do(t, router, http.MethodGet, "/api/authorize/client/"+seededClient+"?reason=case+42", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decision = decodeData(t, rec)
	require.Equal(t, true, decision["granted"])

	// Bob saw a pending request notification; alice saw the grant.
	rec = do(t, router, http.MethodGet, "/api/notifications/pending/count", "bob", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, decodeData(t, rec)["count"])

	rec = do(t, router, http.MethodGet, "/api/notifications/pending/count", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, decodeData(t, rec)["count"])

	// Reading the feed resets pending.
	rec = do(t, router, http.MethodGet, "/api/notifications", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/notifications/pending/count", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 0, decodeData(t, rec)["count"])
}

func TestApprovalUnknownSubjectRejected(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/approvals/client/C.ffffffffffffffff", "alice",
		`{"reason":"case 42"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApprovalUnknownKindRejected(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/approvals/widget", "alice", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGlobalNotificationsOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/global-notifications", "admin",
		`{"severity":"ERROR","header":"Storage degraded","content":"writes may be slow"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/global-notifications", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Storage degraded")
}

func TestGetMissingApprovalReturns404(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/approvals/client/"+seededClient+"/nope", "alice", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
