package middlewares

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/roastery_backend/utils"
)

func newAuthRouter(isRevoked TokenRevokedFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CorrelationMiddleware())
	r.Use(AuthMiddleware(isRevoked))
	r.GET("/me", func(c *gin.Context) {
		username, _ := utils.GetUsernameFromContext(c.Request.Context())
		userId, _ := utils.GetUserIdFromContext(c.Request.Context())
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"username": username, "user_id": userId, "cid": cid})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	token, err := utils.JwtGenerate("u-1", "owner")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	notRevoked := func(string) (bool, error) { return false, nil }
	revoked := func(string) (bool, error) { return true, nil }
	broken := func(string) (bool, error) { return false, errors.New("redis down") }

	tests := []struct {
		name      string
		header    string
		isRevoked TokenRevokedFunc
		want      int
	}{
		{"missing header", "", notRevoked, http.StatusUnauthorized},
		{"not bearer", "Basic abc", notRevoked, http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", notRevoked, http.StatusUnauthorized},
		{"valid token", "Bearer " + token, notRevoked, http.StatusOK},
		{"revoked token", "Bearer " + token, revoked, http.StatusUnauthorized},
		{"revocation store down", "Bearer " + token, broken, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newAuthRouter(tt.isRevoked)
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestCorrelationMiddleware_EchoesHeader(t *testing.T) {
	token, _ := utils.JwtGenerate("u-1", "owner")
	r := newAuthRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(CorrelationHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get(CorrelationHeader); got != "abc-123" {
		t.Fatalf("correlation header = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get(CorrelationHeader) == "" {
		t.Fatal("expected a generated correlation id")
	}
}
