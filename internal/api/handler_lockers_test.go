package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locker-dispatch-backend/internal/model"
)

func (e *testEnv) userRequest(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestUserAuth(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("missing token", func(t *testing.T) {
		w := env.userRequest(t, http.MethodGet, "/api/lockers", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := env.userRequest(t, http.MethodGet, "/api/lockers", nil, "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCreateAndListLockers(t *testing.T) {
	env := setupTestEnv(t)
	token, err := env.jwt.SignToken("user-1", "user-1@example.com")
	require.NoError(t, err)

	device := model.Device{APIKeyHash: "h", Enabled: true}
	require.NoError(t, env.db.Create(&device).Error)

	t.Run("rejects missing fields", func(t *testing.T) {
		w := env.userRequest(t, http.MethodPost, "/api/lockers", gin.H{"name": "Hallway"}, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("creates and lists", func(t *testing.T) {
		w := env.userRequest(t, http.MethodPost, "/api/lockers",
			gin.H{"name": "Hallway A", "deviceId": device.ID}, token)
		require.Equal(t, http.StatusCreated, w.Code)

		var created struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.NotEmpty(t, created.ID)

		w = env.userRequest(t, http.MethodGet, "/api/lockers", nil, token)
		require.Equal(t, http.StatusOK, w.Code)

		var lockers []model.Locker
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lockers))
		require.Len(t, lockers, 1)
		assert.Equal(t, created.ID, lockers[0].ID)
		assert.Equal(t, model.LockerStatusLocked, lockers[0].Status)
	})
}

func TestRequestUnlock(t *testing.T) {
	env := setupTestEnv(t)
	locker, _ := env.seedBoundDevice(t, "L1")
	token, err := env.jwt.SignToken("user-1", "")
	require.NoError(t, err)

	t.Run("unknown locker", func(t *testing.T) {
		w := env.userRequest(t, http.MethodPost, "/api/lockers/nope/unlock", nil, token)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("enqueues a pending command for the caller", func(t *testing.T) {
		w := env.userRequest(t, http.MethodPost, "/api/lockers/"+locker.ID+"/unlock", nil, token)
		require.Equal(t, http.StatusAccepted, w.Code)

		var resp struct {
			CommandID string `json:"commandId"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.CommandID)

		var cmd model.Command
		require.NoError(t, env.db.First(&cmd, "id = ?", resp.CommandID).Error)
		assert.Equal(t, model.CommandStatusPending, cmd.Status)
		assert.Equal(t, "user-1", cmd.RequestedBy)
		assert.Equal(t, locker.ID, cmd.LockerID)
	})
}
