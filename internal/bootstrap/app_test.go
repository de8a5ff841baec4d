package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filing-backend/internal/shared/config"
)

func devConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:              "dev",
		ObjectStoreType:  "local",
		LocalStoreDir:    t.TempDir(),
		DBDriver:         "postgres",
		LLMProvider:      "none",
		LLMMode:          "off",
		UploadRatePerMin: 10,
	}
}

func serve(app *App, method, path string, guest bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if guest {
		req.Header.Set("X-Guest-Id", "g1")
	}
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	return resp
}

func TestBuildInMemory(t *testing.T) {
	app, err := Build(context.Background(), devConfig(t))
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.DB)
	assert.Nil(t, app.LLM)

	assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/api/v1/health", false).Code)
	assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/api/v1/metrics", false).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(app, http.MethodGet, "/api/v1/documents", false).Code)

	resp := serve(app, http.MethodGet, "/api/v1/me", true)
	require.Equal(t, http.StatusOK, resp.Code)
	var me map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, "guest:g1", me["userId"])
	assert.Equal(t, true, me["guest"])

	assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/api/v1/profile", true).Code)
	assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/api/v1/usage/llm", true).Code)
	assert.Equal(t, http.StatusNotFound, serve(app, http.MethodDelete, "/api/v1/documents/missing", true).Code)
}

func TestBuildWithSQLite(t *testing.T) {
	cfg := devConfig(t)
	cfg.DBDriver = "sqlite"
	cfg.SQLitePath = filepath.Join(t.TempDir(), "filing.db")

	app, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Close()

	require.NotNil(t, app.DB)
	resp := serve(app, http.MethodGet, "/api/v1/documents", true)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := devConfig(t)
	cfg.Env = "production"
	cfg.JWTSecret = "s3cret"

	_, err := Build(context.Background(), cfg)
	assert.Error(t, err)
}

func TestBuildRejectsUnknownMode(t *testing.T) {
	cfg := devConfig(t)
	cfg.LLMMode = "always"

	_, err := Build(context.Background(), cfg)
	assert.Error(t, err)
}
