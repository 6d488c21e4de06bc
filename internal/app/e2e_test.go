package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"profinder/internal/database"
	"profinder/internal/domain"
	jwtsvc "profinder/internal/pkg/jwt"
	"profinder/internal/realtime"
)

type E2ETestSuite struct {
	router     *gin.Engine
	db         *gorm.DB
	jwtService *jwtsvc.Service
	hub        *realtime.Hub
}

type TestResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorDetail    `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(":memory:")
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, database.Migrate(db))

	s := &E2ETestSuite{
		db:         db,
		jwtService: jwtsvc.New("test_secret_key_32_characters_min", time.Hour),
		hub:        realtime.NewHub(),
	}
	s.router = NewRouter(Deps{DB: db, JWT: s.jwtService, Hub: s.hub, MetricsEnabled: true})
	t.Cleanup(s.hub.Close)
	return s
}

func (s *E2ETestSuite) createUser(t *testing.T, name string, role domain.UserRole) (*domain.User, string) {
	t.Helper()
	u := &domain.User{Name: name, Email: strings.ToLower(name) + "@test.com", Role: role}
	require.NoError(t, s.db.Create(u).Error)
	token, err := s.jwtService.GenerateToken(u.ID, string(role))
	require.NoError(t, err)
	return u, token
}

func (s *E2ETestSuite) token(t *testing.T, u *domain.User, role domain.UserRole) string {
	t.Helper()
	token, err := s.jwtService.GenerateToken(u.ID, string(role))
	require.NoError(t, err)
	return token
}

func (s *E2ETestSuite) makeRequest(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, *TestResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp TestResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, &resp
}

func decode[T any](t *testing.T, resp *TestResponse) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	return out
}

// =============================================================================
// Flow 1: verification, request lifecycle and the audit trail
// =============================================================================

func TestFlow1_VerificationAndRequestLifecycle(t *testing.T) {
	s := setupTestSuite(t)
	_, rootToken := s.createUser(t, "Root", domain.RoleSuperAdmin)
	_, clientToken := s.createUser(t, "Asha", domain.RoleUser)
	pro, proUserToken := s.createUser(t, "Deepak", domain.RoleUser)

	var profileID int64
	t.Run("POST /verification/submit", func(t *testing.T) {
		w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/verification/submit", map[string]any{
			"profession":  "plumber",
			"experience":  8,
			"city":        "Pune",
			"postal_code": "411001",
			"aadhar_card": "identity/doc.png",
		}, proUserToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		profile := decode[domain.ProfessionalProfile](t, resp)
		assert.Equal(t, domain.ProfilePending, profile.Status)
		profileID = profile.ID
	})

	// the role flip takes effect with a fresh token
	proToken := s.token(t, pro, domain.RoleAdmin)

	t.Run("superadmin sees the verification request", func(t *testing.T) {
		w, resp := s.makeRequest(t, http.MethodGet, "/api/v1/notifications", nil, rootToken)
		require.Equal(t, http.StatusOK, w.Code)
		list := decode[struct {
			Notifications []map[string]any `json:"notifications"`
			UnreadCount   int64            `json:"unread_count"`
		}](t, resp)
		require.Len(t, list.Notifications, 1)
		assert.Equal(t, "admin_verification_request", list.Notifications[0]["type"])
		assert.Equal(t, int64(1), list.UnreadCount)
	})

	t.Run("requests against a pending professional are refused", func(t *testing.T) {
		w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/requests", map[string]any{
			"professional_id": profileID,
			"title":           "Fix tap",
			"description":     "Leaks",
			"estimated_days":  5,
		}, clientToken)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "NOT_ELIGIBLE", resp.Error.Code)
	})

	t.Run("PUT /superadmin/profiles/:id/decision", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/superadmin/profiles/%d/decision", profileID)
		w, _ := s.makeRequest(t, http.MethodPut, path, map[string]string{"decision": "verified"}, proToken)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w, _ = s.makeRequest(t, http.MethodPut, path, map[string]string{"decision": "verified"}, rootToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	var requestID int64
	t.Run("POST /requests", func(t *testing.T) {
		w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/requests", map[string]any{
			"professional_id": profileID,
			"title":           "Fix tap",
			"description":     "Leaks",
			"estimated_days":  5,
		}, clientToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		req := decode[domain.ServiceRequest](t, resp)
		assert.Equal(t, domain.RequestPending, req.Status)
		requestID = req.ID
	})

	t.Run("professional drives the request to completion", func(t *testing.T) {
		w, _ := s.makeRequest(t, http.MethodPut, fmt.Sprintf("/api/v1/requests/%d/respond", requestID), map[string]any{
			"decision":   "approved",
			"start_date": "2024-01-01",
			"end_date":   "2024-01-06",
		}, proToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		for _, next := range []string{"in_progress", "completed"} {
			w, _ = s.makeRequest(t, http.MethodPut, fmt.Sprintf("/api/v1/requests/%d/status", requestID), map[string]string{"status": next}, proToken)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		}

		w, resp := s.makeRequest(t, http.MethodPut, fmt.Sprintf("/api/v1/requests/%d/status", requestID), map[string]string{"status": "in_progress"}, proToken)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "INVALID_STATE", resp.Error.Code)
	})

	t.Run("GET /requests/:id", func(t *testing.T) {
		w, resp := s.makeRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/requests/%d", requestID), nil, clientToken)
		require.Equal(t, http.StatusOK, w.Code)
		view := decode[map[string]any](t, resp)
		assert.Equal(t, "completed", view["status"])
		assert.Equal(t, "Asha", view["requester"].(map[string]any)["name"])
	})

	t.Run("client got one notification per step", func(t *testing.T) {
		w, resp := s.makeRequest(t, http.MethodGet, "/api/v1/notifications", nil, clientToken)
		require.Equal(t, http.StatusOK, w.Code)
		list := decode[struct {
			Total int64 `json:"total"`
		}](t, resp)
		assert.Equal(t, int64(3), list.Total)
	})

	t.Run("GET /activity filtered by request", func(t *testing.T) {
		w, resp := s.makeRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/activity?request_id=%d", requestID), nil, rootToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		page := decode[domain.PaginatedResponse[domain.ActivityRecord]](t, resp)
		assert.Equal(t, int64(4), page.TotalItems)
		require.Len(t, page.Data, 4)
		assert.Equal(t, domain.ActionRequestCompleted, page.Data[0].ActionType)

		w, _ = s.makeRequest(t, http.MethodGet, "/api/v1/activity", nil, clientToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("GET /professionals", func(t *testing.T) {
		w, resp := s.makeRequest(t, http.MethodGet, "/api/v1/professionals", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		list := decode[[]map[string]any](t, resp)
		require.Len(t, list, 1)
		assert.Equal(t, "Deepak", list[0]["name"])
		assert.NotContains(t, list[0], "aadhar_card")
	})
}

// =============================================================================
// Flow 2: authentication errors
// =============================================================================

func TestFlow2_Authentication(t *testing.T) {
	s := setupTestSuite(t)

	w, resp := s.makeRequest(t, http.MethodGet, "/api/v1/requests", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_HEADER_MISSING", resp.Error.Code)

	w, resp = s.makeRequest(t, http.MethodGet, "/api/v1/requests", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", resp.Error.Code)

	w, _ = s.makeRequest(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

// =============================================================================
// Flow 3: realtime broadcast of a verification submission
// =============================================================================

func TestFlow3_RealtimeVerificationBroadcast(t *testing.T) {
	s := setupTestSuite(t)
	root, _ := s.createUser(t, "Root", domain.RoleSuperAdmin)
	_, applicantToken := s.createUser(t, "Esha", domain.RoleUser)

	srv := httptest.NewServer(s.router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + s.token(t, root, domain.RoleSuperAdmin)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "join", "topic": realtime.TopicSuperAdmin}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var joined realtime.Event
	require.NoError(t, conn.ReadJSON(&joined))
	require.Equal(t, realtime.EventJoined, joined.Type)

	w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/verification/submit", map[string]any{
		"profession":  "electrician",
		"experience":  2,
		"city":        "Mumbai",
		"postal_code": "400001",
		"voter_id":    "identity/voter.pdf",
	}, applicantToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	profile := decode[domain.ProfessionalProfile](t, resp)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev struct {
		Type    string `json:"type"`
		Payload struct {
			Message          string `json:"message"`
			RelatedProfileID int64  `json:"related_profile_id"`
		} `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, realtime.EventNewAdminVerification, ev.Type)
	assert.Equal(t, profile.ID, ev.Payload.RelatedProfileID)
	assert.Contains(t, ev.Payload.Message, "Esha")
}
