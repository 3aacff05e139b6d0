package api

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptions(t *testing.T) {
	env := setupTestEnv(t)
	locker, _ := env.seedBoundDevice(t, "L1")
	token, err := env.jwt.SignToken("user-1", "")
	require.NoError(t, err)

	t.Run("rejects invalid body", func(t *testing.T) {
		w := env.userRequest(t, http.MethodPut, "/api/subscriptions", nil, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"invalid request"}`, w.Body.String())
	})

	t.Run("put then get roundtrip", func(t *testing.T) {
		w := env.userRequest(t, http.MethodPut, "/api/subscriptions", gin.H{
			"endpoint":           "https://example.com/push",
			"p256dh":             "key",
			"auth":               "auth",
			"subscribed_lockers": []string{locker.ID},
		}, token)
		require.Equal(t, http.StatusCreated, w.Code)

		w = env.userRequest(t, http.MethodGet,
			"/api/subscriptions?endpoint=https%3A%2F%2Fexample.com%2Fpush", nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"subscribed_lockers":["`+locker.ID+`"]}`, w.Body.String())
	})

	t.Run("delete", func(t *testing.T) {
		w := env.userRequest(t, http.MethodDelete, "/api/subscriptions",
			gin.H{"endpoint": "https://example.com/push"}, token)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = env.userRequest(t, http.MethodGet,
			"/api/subscriptions?endpoint=https%3A%2F%2Fexample.com%2Fpush", nil, token)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
