package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"device-access-control/internal/authz"
	"device-access-control/internal/storage"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider, err := storage.NewFileProvider(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { provider.Close() })

	svc := authz.NewService(provider, nil)

	r := gin.New()
	r.Use(ErrorHandler())
	api := r.Group("/api")
	DeviceAPI(api, svc)
	AdminAPI(api, svc)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	payload := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload), "body: %s", w.Body.String())
	}
	return w, payload
}

func TestRequestRequiresHWID(t *testing.T) {
	r := newTestRouter(t)

	w, payload := doJSON(t, r, http.MethodPost, "/api/request", `{"hostname":"h"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, payload["success"])
}

func TestCheckRequiresHWID(t *testing.T) {
	r := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodGet, "/api/check", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncRejectsNonObjectTenants(t *testing.T) {
	r := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/sync/tenants", `{"tenants":[1,2]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/sync/tenants", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResourceUnknownDevice(t *testing.T) {
	r := newTestRouter(t)

	w, payload := doJSON(t, r, http.MethodGet, "/api/resource?hwid=nope", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "invalid", payload["status"])
}

func TestDeviceLifecycle(t *testing.T) {
	r := newTestRouter(t)

	// Unknown device requests access and lands in the review queue
	w, payload := doJSON(t, r, http.MethodPost, "/api/request",
		`{"hwid":"HW1","hostname":"host1","os":"win"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, payload["authorized"])
	assert.Nil(t, payload["denied"])

	w, payload = doJSON(t, r, http.MethodGet, "/api/requests", "")
	require.Equal(t, http.StatusOK, w.Code)
	requests := payload["requests"].([]any)
	require.Len(t, requests, 1)
	entry := requests[0].(map[string]any)
	assert.Equal(t, "HW1", entry["hwid"])
	assert.Equal(t, "pending", entry["status"])

	// Admin approves
	w, payload = doJSON(t, r, http.MethodPost, "/api/approve",
		`{"hwid":"HW1","name":"Acme","resource_url":"http://x/jar"}`)
	require.Equal(t, http.StatusOK, w.Code)
	tenantID := payload["tenant_id"].(string)
	assert.NotEmpty(t, tenantID)

	w, payload = doJSON(t, r, http.MethodGet, "/api/check?hwid=HW1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, payload["authorized"])

	w, payload = doJSON(t, r, http.MethodGet, "/api/resource?hwid=HW1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "active", payload["status"])
	assert.Equal(t, "http://x/jar", payload["resource_url"])

	w, payload = doJSON(t, r, http.MethodGet, "/api/tenants", "")
	require.Equal(t, http.StatusOK, w.Code)
	tenants := payload["tenants"].([]any)
	require.Len(t, tenants, 1)
	assert.Equal(t, tenantID, tenants[0].(map[string]any)["tenant_id"])

	// Admin denies, revoking the approval
	w, _ = doJSON(t, r, http.MethodPost, "/api/deny", `{"hwid":"HW1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, payload = doJSON(t, r, http.MethodGet, "/api/check?hwid=HW1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, payload["authorized"])

	w, payload = doJSON(t, r, http.MethodPost, "/api/request",
		`{"hwid":"HW1","hostname":"host1","os":"win"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, payload["denied"])

	w, payload = doJSON(t, r, http.MethodGet, "/api/tenants", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, payload["tenants"])
}
