package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vpskeeper/vpskeeper/internal/config"
)

func authApp(t *testing.T) *fiber.App {
	t.Helper()
	h := NewAuthHandler(&config.Config{
		AdminUsername:   "owner",
		AdminPassword:   "correcthorse",
		AdminTelegramID: 123456,
		JWTSecret:       "test-secret",
	})
	app := fiber.New()
	app.Post("/api/auth/login", h.Login)
	app.Post("/api/auth/refresh", h.Refresh)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) (int, map[string]any) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return resp.StatusCode, parsed
}

func TestLogin(t *testing.T) {
	app := authApp(t)

	t.Run("valid credentials", func(t *testing.T) {
		status, body := postJSON(t, app, "/api/auth/login", map[string]string{
			"username": "owner",
			"password": "correcthorse",
		})
		assert.Equal(t, fiber.StatusOK, status)
		assert.NotEmpty(t, body["access_token"])
		assert.NotEmpty(t, body["refresh_token"])
	})

	t.Run("wrong password", func(t *testing.T) {
		status, _ := postJSON(t, app, "/api/auth/login", map[string]string{
			"username": "owner",
			"password": "hunter2",
		})
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})

	t.Run("wrong username", func(t *testing.T) {
		status, _ := postJSON(t, app, "/api/auth/login", map[string]string{
			"username": "intruder",
			"password": "correcthorse",
		})
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})
}

func TestRefresh(t *testing.T) {
	app := authApp(t)

	_, login := postJSON(t, app, "/api/auth/login", map[string]string{
		"username": "owner",
		"password": "correcthorse",
	})
	refreshToken, _ := login["refresh_token"].(string)
	require.NotEmpty(t, refreshToken)

	status, body := postJSON(t, app, "/api/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})
	assert.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, body["access_token"])

	status, _ = postJSON(t, app, "/api/auth/refresh", map[string]string{
		"refresh_token": "garbage",
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = postJSON(t, app, "/api/auth/refresh", map[string]string{})
	assert.Equal(t, fiber.StatusBadRequest, status)
}
