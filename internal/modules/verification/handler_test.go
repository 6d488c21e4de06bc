package verification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profinder/internal/domain"
	"profinder/internal/storage"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func setupTestRouter(t *testing.T, docs storage.DocumentStore) (*gin.Engine, *harness) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := newHarness(t, docs)
	r := gin.New()
	handler := NewHandler(h.svc)
	handler.RegisterPublicRoutes(r.Group("/api/v1"))

	authed := r.Group("/api/v1")
	authed.Use(func(c *gin.Context) {
		if userID := c.GetHeader("X-Test-User-ID"); userID != "" {
			id, _ := strconv.ParseInt(userID, 10, 64)
			c.Set("user_id", id)
			c.Set("role", c.GetHeader("X-Test-Role"))
		}
		c.Next()
	})
	handler.RegisterRoutes(authed)
	return r, h
}

func doJSON(r http.Handler, method, path string, body any, actor domain.Actor) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User-ID", strconv.FormatInt(actor.ID, 10))
	req.Header.Set("X-Test-Role", string(actor.Role))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func uploadDocument(t *testing.T, r http.Handler, actor domain.Actor, kind string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("kind", kind))
	part, err := w.CreateFormFile("file", "scan.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/verification/documents", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-Test-User-ID", strconv.FormatInt(actor.ID, 10))
	req.Header.Set("X-Test-Role", string(actor.Role))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()
	var body struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.True(t, body.Success, rr.Body.String())
	require.NoError(t, json.Unmarshal(body.Data, out))
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error.Code
}

func TestHandler_UploadSubmitDecide(t *testing.T) {
	r, h := setupTestRouter(t, newMemoryStore())
	root := h.user(t, "root", domain.RoleSuperAdmin)
	applicant := h.user(t, "ravi", domain.RoleUser)

	rr := uploadDocument(t, r, applicant, "aadhar_card", pngHeader)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var doc DocumentResponse
	decodeData(t, rr, &doc)
	assert.Equal(t, "aadhar_card", doc.Kind)
	assert.Equal(t, fmt.Sprintf("identity/%d/aadhar_card-test.png", applicant.ID), doc.Ref)

	rr = doJSON(r, http.MethodPost, "/api/v1/verification/submit", SubmitRequest{
		Profession: "electrician",
		Experience: 3,
		City:       "Surat",
		PostalCode: "395003",
		AadharCard: doc.Ref,
	}, applicant)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var profile domain.ProfessionalProfile
	decodeData(t, rr, &profile)
	assert.Equal(t, domain.ProfilePending, profile.Status)

	rr = doJSON(r, http.MethodGet, "/api/v1/professionals", nil, domain.Actor{})
	require.Equal(t, http.StatusOK, rr.Code)
	var public []ProfileView
	decodeData(t, rr, &public)
	assert.Empty(t, public)

	path := fmt.Sprintf("/api/v1/superadmin/profiles/%d/decision", profile.ID)
	rr = doJSON(r, http.MethodPut, path, DecisionRequest{Decision: domain.ProfileVerified}, domain.Actor{ID: applicant.ID, Role: domain.RoleAdmin})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = doJSON(r, http.MethodPut, path, DecisionRequest{Decision: domain.ProfileVerified}, root)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doJSON(r, http.MethodPut, path, DecisionRequest{Decision: domain.ProfileRejected}, root)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "INVALID_STATE", errorCode(t, rr))

	rr = doJSON(r, http.MethodGet, "/api/v1/professionals", nil, domain.Actor{})
	require.Equal(t, http.StatusOK, rr.Code)
	decodeData(t, rr, &public)
	require.Len(t, public, 1)
	assert.Equal(t, "ravi", public[0].Name)
	assert.Empty(t, public[0].AadharCard)

	rr = doJSON(r, http.MethodGet, "/api/v1/superadmin/dashboard-stats", nil, root)
	require.Equal(t, http.StatusOK, rr.Code)
	var stats DashboardStats
	decodeData(t, rr, &stats)
	assert.Equal(t, int64(1), stats.Verified)
	assert.Equal(t, int64(2), stats.TotalUsers)
}

func TestHandler_SubmitErrors(t *testing.T) {
	r, h := setupTestRouter(t, nil)
	applicant := h.user(t, "ravi", domain.RoleUser)

	rr := doJSON(r, http.MethodPost, "/api/v1/verification/submit", SubmitRequest{
		Profession: "welder",
		City:       "Kochi",
		PostalCode: "682001",
	}, applicant)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "INVALID_INPUT", errorCode(t, rr))

	rr = doJSON(r, http.MethodPost, "/api/v1/verification/submit", map[string]any{"city": "Kochi"}, applicant)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	body := SubmitRequest{Profession: "welder", City: "Kochi", PostalCode: "682001", VoterID: "V-1"}
	rr = doJSON(r, http.MethodPost, "/api/v1/verification/submit", body, applicant)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	rr = doJSON(r, http.MethodPost, "/api/v1/verification/submit", body, applicant)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "CONFLICT", errorCode(t, rr))

	rr = doJSON(r, http.MethodGet, "/api/v1/verification/me", nil, applicant)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHandler_UploadRejections(t *testing.T) {
	r, h := setupTestRouter(t, nil)
	applicant := h.user(t, "ravi", domain.RoleUser)

	rr := uploadDocument(t, r, applicant, "aadhar_card", pngHeader)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "STORAGE_DISABLED", errorCode(t, rr))

	r, h = setupTestRouter(t, newMemoryStore())
	applicant = h.user(t, "ravi", domain.RoleUser)

	rr = uploadDocument(t, r, applicant, "passport", pngHeader)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = uploadDocument(t, r, applicant, "voter_id", []byte("#!/bin/sh\necho hi\n"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "INVALID_INPUT", errorCode(t, rr))
}

func TestHandler_AccountOversight(t *testing.T) {
	r, h := setupTestRouter(t, nil)
	root := h.user(t, "root", domain.RoleSuperAdmin)
	applicant := h.user(t, "ravi", domain.RoleUser)
	h.user(t, "asha", domain.RoleUser)

	rr := doJSON(r, http.MethodPost, "/api/v1/verification/submit", map[string]any{
		"profession": "plumber", "experience": 3, "city": "Jaipur", "postal_code": "302001", "aadhar_card": "identity/doc.png",
	}, applicant)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = doJSON(r, http.MethodGet, "/api/v1/superadmin/users", nil, root)
	require.Equal(t, http.StatusOK, rr.Code)
	var users []map[string]any
	decodeData(t, rr, &users)
	require.Len(t, users, 1)
	assert.Equal(t, "asha", users[0]["name"])
	assert.NotContains(t, users[0], "password_hash")

	rr = doJSON(r, http.MethodGet, "/api/v1/users/all", nil, root)
	require.Equal(t, http.StatusOK, rr.Code)
	decodeData(t, rr, &users)
	assert.Len(t, users, 3)

	rr = doJSON(r, http.MethodGet, "/api/v1/superadmin/admins", nil, root)
	require.Equal(t, http.StatusOK, rr.Code)
	var admins []ProfileView
	decodeData(t, rr, &admins)
	require.Len(t, admins, 1)
	assert.Equal(t, "ravi", admins[0].Name)

	rr = doJSON(r, http.MethodGet, "/api/v1/users/all", nil, applicant)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestHandler_UpdateProfile(t *testing.T) {
	r, h := setupTestRouter(t, nil)
	applicant := h.user(t, "ravi", domain.RoleUser)

	rr := doJSON(r, http.MethodPost, "/api/v1/verification/submit", map[string]any{
		"profession": "plumber", "experience": 3, "city": "Jaipur", "postal_code": "302001", "voter_id": "identity/v.pdf",
	}, applicant)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	body := map[string]any{"profession": "electrician", "experience": 4, "city": "Pune", "postal_code": "411001", "mobile": "9800000000"}

	rr = doJSON(r, http.MethodPut, "/api/v1/admin/profile", body, applicant)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	admin := domain.Actor{ID: applicant.ID, Role: domain.RoleAdmin}
	rr = doJSON(r, http.MethodPut, "/api/v1/admin/profile", map[string]any{"profession": "electrician"}, admin)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "INVALID_INPUT", errorCode(t, rr))

	rr = doJSON(r, http.MethodPut, "/api/v1/admin/profile", body, admin)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var profile domain.ProfessionalProfile
	decodeData(t, rr, &profile)
	assert.Equal(t, "electrician", profile.Profession)
	assert.Equal(t, domain.ProfilePending, profile.Status)
}
