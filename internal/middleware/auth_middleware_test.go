package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"one-os/internal/cache"
	"one-os/internal/logger"
	"one-os/internal/services"
	"one-os/internal/testutil"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(t *testing.T, limit int) (*gin.Engine, *services.AuthService) {
	t.Helper()
	auth := services.NewAuthService(testutil.DB(t), testutil.JWTSecret, time.Hour)
	cm := cache.NewCacheManager(context.Background(), "", logger.Nop())

	r := gin.New()
	r.Use(RequestID(logger.Nop()), ValidationMiddleware())
	g := r.Group("/api")
	g.Use(AuthMiddleware(auth), RateLimitMiddleware(cm, limit, logger.Nop()))
	g.GET("/me", func(c *gin.Context) {
		s, _ := services.SessionFrom(c)
		c.JSON(http.StatusOK, gin.H{"email": s.Email})
	})
	g.POST("/echo", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r, auth
}

func TestAuthMiddleware(t *testing.T) {
	r, auth := protectedRouter(t, 0)
	_, token, err := auth.Register(context.Background(), "a@b.com", "pw", "A")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	cases := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", "", http.StatusUnauthorized},
		{"bearer", "Bearer " + token, "", http.StatusOK},
		{"query", "", "?access_token=" + token, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/me"+tc.query, nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("%s: want=%d got=%d body=%s", tc.name, tc.want, w.Code, w.Body.String())
		}
		if w.Header().Get(headerRequestID) == "" {
			t.Fatalf("%s: missing request id header", tc.name)
		}
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	r, auth := protectedRouter(t, 2)
	_, token, _ := auth.Register(context.Background(), "a@b.com", "pw", "A")

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes: want=[200 200 429] got=%v", codes)
	}
}

func TestValidationMiddlewareRequiresJSON(t *testing.T) {
	r, auth := protectedRouter(t, 0)
	_, token, _ := auth.Register(context.Background(), "a@b.com", "pw", "A")

	req := httptest.NewRequest(http.MethodPost, "/api/echo", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("form body: want=400 got=%d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/echo", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("json body: want=204 got=%d", w.Code)
	}
}
