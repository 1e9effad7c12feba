package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"aidly-widget-be/internal/bootstrap"
	"aidly-widget-be/internal/config"
	"aidly-widget-be/internal/dto"
	"aidly-widget-be/internal/server"
	"aidly-widget-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

type envelope[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func TestAuthFlow(t *testing.T) {
	// Load .env from root (2 levels up) because tests run in package dir
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	if os.Getenv("DB_CONNECTION_STRING") == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}
	if os.Getenv("JWT_SECRET") == "" {
		os.Setenv("JWT_SECRET", "integration-test-secret")
	}
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	container := bootstrap.NewContainer(db, cfg)
	srv := server.New(cfg, container)
	app := srv.GetApp()

	username := "flow-" + uuid.New().String()[:8]
	password := "s3cret-pass"

	post := func(path, bearer string, payload any) *http.Response {
		t.Helper()
		body, _ := json.Marshal(payload)
		req := httptest.NewRequest("POST", path, strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json")
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		resp, err := app.Test(req, -1)
		assert.NoError(t, err)
		return resp
	}

	var pair dto.TokenPairResponse

	t.Run("Register", func(t *testing.T) {
		resp := post("/api/auth/register", "", dto.RegisterRequest{
			Username: username,
			Password: password,
		})
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("Login issues token pair", func(t *testing.T) {
		resp := post("/api/auth/login", "", dto.LoginRequest{
			Username: username,
			Password: password,
		})
		assert.Equal(t, 200, resp.StatusCode)

		var result envelope[dto.TokenPairResponse]
		json.NewDecoder(resp.Body).Decode(&result)
		assert.True(t, result.Success)
		assert.NotEmpty(t, result.Data.AccessToken)
		assert.NotEmpty(t, result.Data.RenewalToken)
		pair = result.Data
	})

	t.Run("Renew rotates, replay loses", func(t *testing.T) {
		resp := post("/api/auth/renew", "", dto.RenewRequest{RenewalToken: pair.RenewalToken})
		assert.Equal(t, 200, resp.StatusCode)

		var result envelope[dto.TokenPairResponse]
		json.NewDecoder(resp.Body).Decode(&result)
		assert.NotEqual(t, pair.RenewalToken, result.Data.RenewalToken)

		// the consumed secret must be dead now
		resp = post("/api/auth/renew", "", dto.RenewRequest{RenewalToken: pair.RenewalToken})
		assert.Equal(t, 401, resp.StatusCode)

		pair = result.Data
	})

	t.Run("Profile requires valid identity token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/auth/me", nil)
		resp, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode)

		req = httptest.NewRequest("GET", "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		resp, err = app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var result envelope[dto.UserProfileResponse]
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, username, result.Data.Username)
	})

	t.Run("Logout all kills every secret", func(t *testing.T) {
		// the replay above revoked the whole lineage; start a fresh one
		resp := post("/api/auth/login", "", dto.LoginRequest{
			Username: username,
			Password: password,
		})
		assert.Equal(t, 200, resp.StatusCode)
		var result envelope[dto.TokenPairResponse]
		json.NewDecoder(resp.Body).Decode(&result)
		pair = result.Data

		resp = post("/api/auth/logout-all", pair.AccessToken, struct{}{})
		assert.Equal(t, 200, resp.StatusCode)

		resp = post("/api/auth/renew", "", dto.RenewRequest{RenewalToken: pair.RenewalToken})
		assert.Equal(t, 401, resp.StatusCode)
	})
}
