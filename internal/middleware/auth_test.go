package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/journalkeep/journal-backend/pkg/jwt"
)

func newAuthRouter(m *jwt.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuth(m))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c), "username": GetUsername(c)})
	})
	return r
}

func doAuth(r *gin.Engine, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth_ValidAccessToken(t *testing.T) {
	m := jwt.NewManager("secret", "test", time.Minute, time.Hour)
	token, err := m.GenerateAccessToken(7, "alice")
	if err != nil {
		t.Fatal(err)
	}

	w := doAuth(newAuthRouter(m), "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"username":"alice"`) || !strings.Contains(w.Body.String(), `"id":7`) {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	m := jwt.NewManager("secret", "test", time.Minute, time.Hour)
	w := doAuth(newAuthRouter(m), "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Missing authorization header") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestJWTAuth_BadFormat(t *testing.T) {
	m := jwt.NewManager("secret", "test", time.Minute, time.Hour)
	for _, h := range []string{"Token abc", "Bearer", "Bearer "} {
		w := doAuth(newAuthRouter(m), h)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%q: expected 401, got %d", h, w.Code)
		}
	}
}

func TestJWTAuth_RefreshTokenRejected(t *testing.T) {
	m := jwt.NewManager("secret", "test", time.Minute, time.Hour)
	token, _ := m.GenerateRefreshToken(7, "alice")

	w := doAuth(newAuthRouter(m), "Bearer "+token)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestJWTAuth_Expired(t *testing.T) {
	m := jwt.NewManager("secret", "test", -time.Minute, time.Hour)
	token, _ := m.GenerateAccessToken(7, "alice")

	w := doAuth(newAuthRouter(m), "Bearer "+token)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Token expired") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}
