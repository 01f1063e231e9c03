package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/annel0/leafdecay/internal/auth"
	"github.com/annel0/leafdecay/internal/decay"
	"github.com/annel0/leafdecay/internal/eventbus"
	"github.com/annel0/leafdecay/internal/vec"
	"github.com/annel0/leafdecay/internal/world"
	"github.com/annel0/leafdecay/internal/world/block"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*RestServer, *world.WorldManager) {
	t.Helper()

	bus := eventbus.NewMemoryBus(4096)
	t.Cleanup(func() { _ = bus.Close() })

	cfg := world.DefaultConfig()
	cfg.Height = 64
	wm := world.NewWorldManager(cfg, decay.NewEngine(nil), bus)
	for x := -1; x <= 1; x++ {
		for z := -1; z <= 1; z++ {
			wm.LoadChunk(vec.Vec2{X: x, Y: z})
		}
	}

	rs := NewRestServer(Config{World: wm, Bus: bus, Registry: prometheus.NewRegistry()})
	return rs, wm
}

func do(t *testing.T, rs *RestServer, method, url string, body interface{}) (*httptest.ResponseRecorder, GenericResponse) {
	t.Helper()
	return doAuth(t, rs, method, url, "", body)
}

func doAuth(t *testing.T, rs *RestServer, method, url, token string, body interface{}) (*httptest.ResponseRecorder, GenericResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	w := httptest.NewRecorder()
	rs.Router().ServeHTTP(w, req)

	var resp GenericResponse
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func dataMap(t *testing.T, resp GenericResponse) map[string]interface{} {
	t.Helper()
	m, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data должен быть объектом: %v", resp.Data)
	return m
}

func TestHealth(t *testing.T) {
	rs, _ := newTestServer(t)

	w, _ := do(t, rs, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestBlocksEndpoints(t *testing.T) {
	rs, _ := newTestServer(t)

	w, resp := do(t, rs, http.MethodPost, "/api/blocks", map[string]interface{}{
		"x": 1, "y": 10, "z": 1, "block": "fir_leaves", "player_placed": true,
	})
	require.Equal(t, http.StatusOK, w.Code, resp.Message)

	w, resp = do(t, rs, http.MethodGet, "/api/blocks?x=1&y=10&z=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataMap(t, resp)
	assert.Equal(t, "fir_leaves", data["name"])
	assert.Equal(t, "foliage", data["support"])
	assert.Equal(t, false, data["metadata"].(map[string]interface{})[block.MetaDecayable])

	w, _ = do(t, rs, http.MethodGet, "/api/blocks?x=1&y=abc&z=1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, rs, http.MethodGet, "/api/blocks?x=500&y=1&z=1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = do(t, rs, http.MethodGet, "/api/blocks?x=1&y=-5&z=1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, rs, http.MethodPost, "/api/blocks", map[string]interface{}{
		"x": 1, "y": 10, "z": 1, "block": "obsidian",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, rs, http.MethodPost, "/api/blocks", map[string]interface{}{"block": "stone"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "координаты обязательны")
}

func TestDecayInspectAndCheck(t *testing.T) {
	rs, wm := newTestServer(t)
	require.NoError(t, wm.PlantTree(vec.Vec3{X: 0, Y: 10, Z: 0}, block.Palm, 4))

	w, resp := do(t, rs, http.MethodGet, "/api/decay/inspect?x=2&y=13&z=0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataMap(t, resp)
	assert.Equal(t, "persist", data["outcome"])
	assert.Equal(t, 2.0, data["distance"])
	assert.Equal(t, "extended18", data["adjacency"])

	w, resp = do(t, rs, http.MethodGet, "/api/decay/inspect?x=2&y=13&z=0&adjacency=orthogonal6", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "decay", dataMap(t, resp)["outcome"])

	w, _ = do(t, rs, http.MethodGet, "/api/decay/inspect?x=2&y=13&z=0&adjacency=corners", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = do(t, rs, http.MethodGet, "/api/decay/candidates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 9.0, dataMap(t, resp)["total"])

	w, resp = do(t, rs, http.MethodPost, "/api/decay/check", map[string]int{"x": 2, "y": 13, "z": 0})
	require.Equal(t, http.StatusOK, w.Code, resp.Message)
	assert.Equal(t, "persist", dataMap(t, resp)["outcome"])

	// Камень - не листва
	w, _ = do(t, rs, http.MethodPost, "/api/blocks", map[string]interface{}{"x": 5, "y": 5, "z": 5, "block": "stone"})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, rs, http.MethodPost, "/api/decay/check", map[string]int{"x": 5, "y": 5, "z": 5})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Ствол сломан - принудительная проверка роняет лист
	for y := 10; y < 14; y++ {
		w, _ = do(t, rs, http.MethodPost, "/api/blocks", map[string]interface{}{"x": 0, "y": y, "z": 0, "block": "air"})
		require.Equal(t, http.StatusOK, w.Code)
	}
	w, resp = do(t, rs, http.MethodPost, "/api/decay/check", map[string]int{"x": 2, "y": 13, "z": 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "decay", dataMap(t, resp)["outcome"])

	id, _ := wm.BlockIDAt(vec.Vec3{X: 2, Y: 13, Z: 0})
	assert.Equal(t, block.AirBlockID, id)
}

func TestPlantTreeAndStats(t *testing.T) {
	rs, _ := newTestServer(t)

	w, resp := do(t, rs, http.MethodPost, "/api/trees", map[string]interface{}{
		"x": 0, "y": 10, "z": 0, "variant": "sakura",
	})
	require.Equal(t, http.StatusCreated, w.Code, resp.Message)

	w, _ = do(t, rs, http.MethodPost, "/api/trees", map[string]interface{}{
		"x": 0, "y": 10, "z": 0, "variant": "baobab",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, rs, http.MethodPost, "/api/trees", map[string]interface{}{
		"x": 300, "y": 10, "z": 0, "variant": "fir",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, resp = do(t, rs, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataMap(t, resp)
	worldStats := data["world"].(map[string]interface{})
	assert.Equal(t, 57.0, worldStats["candidates"])
	assert.Equal(t, 9.0, worldStats["loaded_chunks"])
	assert.Contains(t, data, "server")
	assert.Contains(t, data, "eventbus")

	w, resp = do(t, rs, http.MethodGet, "/api/items", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, dataMap(t, resp)["total"])
}

func TestMetricsEndpoint(t *testing.T) {
	rs, _ := newTestServer(t)
	do(t, rs, http.MethodGet, "/health", nil)

	w := httptest.NewRecorder()
	rs.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "leafdecay_api_http_request_duration_seconds")
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "5с", formatUptime(5e9))
	assert.Equal(t, "2м 3с", formatUptime(123e9))
	assert.Equal(t, "1ч 0м 1с", formatUptime(3601e9))
	assert.Equal(t, "1д 1ч 0м 0с", formatUptime(90000e9))
}

func newAuthServer(t *testing.T) *RestServer {
	t.Helper()
	_, wm := newTestServer(t)

	repo := auth.NewMemoryOperatorRepo()
	hash, err := auth.HashPassword("leaves")
	require.NoError(t, err)
	_, err = repo.Create("forester", hash)
	require.NoError(t, err)
	tokens, err := auth.NewTokenIssuer([]byte(strings.Repeat("s", auth.MinSecretLen)), time.Hour)
	require.NoError(t, err)

	return NewRestServer(Config{
		World:    wm,
		Registry: prometheus.NewRegistry(),
		Auth:     auth.NewAuthenticator(repo, tokens),
	})
}

func TestLoginDisabled(t *testing.T) {
	rs, _ := newTestServer(t)
	w, _ := do(t, rs, http.MethodPost, "/api/auth/login", map[string]string{"name": "a", "password": "b"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	rs := newAuthServer(t)
	body := map[string]interface{}{"x": 1, "y": 10, "z": 1, "block": "stone"}

	w, _ := do(t, rs, http.MethodPost, "/api/blocks", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = doAuth(t, rs, http.MethodPost, "/api/blocks", "Token abc", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "формат заголовка")

	w, _ = doAuth(t, rs, http.MethodPost, "/api/blocks", "Bearer abc", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Чтение доступно без токена
	w, _ = do(t, rs, http.MethodGet, "/api/blocks?x=1&y=10&z=1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, rs, http.MethodPost, "/api/auth/login", map[string]string{"name": "forester", "password": "oak"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = do(t, rs, http.MethodPost, "/api/auth/login", map[string]string{"name": "forester"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := do(t, rs, http.MethodPost, "/api/auth/login", map[string]string{"name": "forester", "password": "leaves"})
	require.Equal(t, http.StatusOK, w.Code, resp.Message)
	token, ok := dataMap(t, resp)["token"].(string)
	require.True(t, ok)

	w, resp = doAuth(t, rs, http.MethodPost, "/api/blocks", "Bearer "+token, body)
	assert.Equal(t, http.StatusOK, w.Code, resp.Message)

	w, _ = doAuth(t, rs, http.MethodPost, "/api/trees", "Bearer "+token, map[string]interface{}{
		"x": 0, "y": 10, "z": 0, "variant": "fir",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}
