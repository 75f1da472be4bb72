package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/fieldsight/fieldsight/internal/app"
	iauth "github.com/fieldsight/fieldsight/internal/auth"
	"github.com/fieldsight/fieldsight/internal/collab"
	"github.com/fieldsight/fieldsight/internal/database"
	"github.com/fieldsight/fieldsight/internal/database/testutil"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	hub := collab.NewHub()

	jwt, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "router-test-secret", Issuer: "fieldsight"})
	require.NoError(t, err)

	cfg := &app.Config{}
	cfg.Monitoring.Health.Enabled = true

	router, routerErr := NewRouter(db, hub, jwt, cfg, nil)
	require.NoError(t, routerErr)
	return router
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if len(rec.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	}
	return rec, env
}

func decodeInto(t *testing.T, raw json.RawMessage, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestUnknownRouteReturnsErrorEnvelope(t *testing.T) {
	router := newTestRouter(t)

	rec, env := doJSON(t, router, http.MethodGet, "/api/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.False(t, env.Success)
	require.NotNil(t, env.Error)
	require.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestDemoSessionIssuesToken(t *testing.T) {
	router := newTestRouter(t)

	rec, env := doJSON(t, router, http.MethodPost, "/api/auth/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)

	var data struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	decodeInto(t, env.Data, &data)
	require.NotEmpty(t, data.Token)
	require.Equal(t, database.DemoOfficerID, data.User.ID)
}

func TestInspectionLifecycleOverREST(t *testing.T) {
	router := newTestRouter(t)

	rec, env := doJSON(t, router, http.MethodPost, "/api/inspections", map[string]any{
		"reference": "INS-2026-0042",
		"site_name": "Harbourside Depot",
		"summary":   "Initial walkthrough",
		"breaches": []map[string]any{
			{"code": "EPA-101", "description": "Unbunded fuel storage", "severity": "major"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %v", env)

	var created struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		Breaches []struct {
			ID   string `json:"id"`
			Code string `json:"code"`
		} `json:"breaches"`
	}
	decodeInto(t, env.Data, &created)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "draft", created.Status)
	require.Len(t, created.Breaches, 1)

	rec, env = doJSON(t, router, http.MethodPatch, "/api/inspections/"+created.ID, map[string]any{
		"status": "submitted",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = doJSON(t, router, http.MethodGet, "/api/inspections/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched struct {
		Status string `json:"status"`
	}
	decodeInto(t, env.Data, &fetched)
	require.Equal(t, "submitted", fetched.Status)

	rec, _ = doJSON(t, router, http.MethodGet, "/api/inspections", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestScheduleCreationFansOutToNotifications(t *testing.T) {
	router := newTestRouter(t)

	rec, env := doJSON(t, router, http.MethodPost, "/api/team-schedules", map[string]any{
		"team_id":          database.DemoTeamID,
		"title":            "Quarterly site sweep",
		"priority":         "high",
		"scheduled_for":    time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"assigned_members": []string{database.DemoOfficerID},
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %v", env)

	var schedule struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeInto(t, env.Data, &schedule)
	require.Equal(t, "pending", schedule.Status)

	// The demo officer is the assignee, so the assignment notification
	// must be visible through the notification listing.
	rec, env = doJSON(t, router, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var notifications []struct {
		Type     string `json:"type"`
		Priority string `json:"priority"`
	}
	decodeInto(t, env.Data, &notifications)
	require.NotEmpty(t, notifications)
	require.Equal(t, "job_assignment", notifications[0].Type)
	require.Equal(t, "high", notifications[0].Priority)

	// Activating the job dispatches a second notification to the assignee.
	rec, _ = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/schedules/%s", schedule.ID), map[string]any{
		"status": "active",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = doJSON(t, router, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, env.Data, &notifications)

	types := make([]string, 0, len(notifications))
	for _, n := range notifications {
		types = append(types, n.Type)
	}
	require.Contains(t, types, "job_dispatched")
}

func TestTeamRosterEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec, env := doJSON(t, router, http.MethodGet, "/api/teams", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var teams []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	decodeInto(t, env.Data, &teams)
	require.NotEmpty(t, teams)

	rec, env = doJSON(t, router, http.MethodGet, "/api/teams/"+database.DemoTeamID+"/members", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var members []struct {
		ID string `json:"id"`
	}
	decodeInto(t, env.Data, &members)
	require.Len(t, members, 1)
	require.Equal(t, database.DemoOfficerID, members[0].ID)
}
