package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"one-os/configs"
	"one-os/internal/cache"
	"one-os/internal/database"
	"one-os/internal/logger"
	"one-os/internal/realtime"
	"one-os/internal/services"
	"one-os/internal/testutil"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	bus    *realtime.LocalBus
	auth   *services.AuthService
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	log := logger.Nop()

	db := testutil.DB(t)
	bus := realtime.NewLocalBus()
	cm := cache.NewCacheManager(ctx, "", log)
	cm.InvalidateOn(bus)
	auth := services.NewAuthService(db, testutil.JWTSecret, time.Hour)

	_, token, err := auth.Register(ctx, "owner@agency.test", "password1", "Owner")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	cfg := &configs.Config{CacheTTL: time.Minute, ClampConversion: true}
	router := NewRouter(RouterConfig{
		Config: cfg,
		DB:     database.NewFromDB(db, log),
		Cache:  cm,
		Bus:    bus,
		Auth:   auth,
		Log:    log,
	})
	return &testEnv{router: router, db: db, bus: bus, auth: auth, token: token}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return e.doAs(t, e.token, method, path, body)
}

func (e *testEnv) doAs(t *testing.T, token, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status: want=%d got=%d body=%s", want, w.Code, w.Body.String())
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	w := env.doAs(t, "", http.MethodGet, "/health", nil)
	expectStatus(t, w, http.StatusOK)

	var body struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
	}
	decode(t, w, &body)
	if body.Status != "healthy" || body.Services["redis"] != "local_cache_only" {
		t.Fatalf("health: got=%+v", body)
	}
}

func TestSwaggerDoc(t *testing.T) {
	env := newTestEnv(t)
	w := env.doAs(t, "", http.MethodGet, "/swagger/doc.json", nil)
	expectStatus(t, w, http.StatusOK)

	var doc struct {
		Info  map[string]interface{}     `json:"info"`
		Paths map[string]json.RawMessage `json:"paths"`
	}
	decode(t, w, &doc)
	if doc.Info["title"] != "ONE OS API" {
		t.Fatalf("title: got=%v", doc.Info["title"])
	}
	if _, ok := doc.Paths["/api/scoring/health"]; !ok {
		t.Fatalf("paths: missing /api/scoring/health")
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/api/clients", "/api/scorecard", "/api/me"} {
		w := env.doAs(t, "", http.MethodGet, path, nil)
		expectStatus(t, w, http.StatusUnauthorized)
	}
}
