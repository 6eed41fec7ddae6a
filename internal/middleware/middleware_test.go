package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type errorBody struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func newAuthRouter(m *JWTManager) *gin.Engine {
	r := gin.New()
	r.GET("/api/me", RequireAuth(m), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":    CurrentUserID(c),
			"actor": CurrentActor(c),
		})
	})
	r.GET("/admin/ping", RequireAuth(m), RequireRole("admin"), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return r
}

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	t.Run("Round trip", func(t *testing.T) {
		token, err := m.GenerateToken(42, "ada@example.com", "user")
		require.NoError(t, err)

		claims, err := m.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "42", claims.Subject)
		assert.Equal(t, "ada@example.com", claims.Email)
		assert.Equal(t, "user", claims.Role)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		token, err := NewJWTManager("other-secret", time.Hour).GenerateToken(1, "x@example.com", "admin")
		require.NoError(t, err)

		_, err = m.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("Expired token", func(t *testing.T) {
		token, err := NewJWTManager("test-secret", -time.Minute).GenerateToken(1, "x@example.com", "user")
		require.NoError(t, err)

		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("Rejects unsigned token", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: "admin"})
		s, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = m.ValidateToken(s)
		assert.Error(t, err)
	})
}

func TestRequireAuth(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	r := newAuthRouter(m)

	userToken, err := m.GenerateToken(7, "ada@example.com", "user")
	require.NoError(t, err)
	adminToken, err := m.GenerateToken(1, "root@example.com", "admin")
	require.NoError(t, err)

	// Test Case 1: no credentials
	t.Run("Missing cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		body := decodeError(t, w)
		assert.False(t, body.Success)
		assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
	})

	// Test Case 2: session cookie
	t.Run("Cookie session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: userToken})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			ID    uint   `json:"id"`
			Actor string `json:"actor"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, uint(7), body.ID)
		assert.Equal(t, "ada@example.com", body.Actor)
	})

	// Test Case 3: bearer header
	t.Run("Bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer "+userToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	// Test Case 4: garbage token
	t.Run("Invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-jwt"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	// Test Case 5: role gate
	t.Run("Admin route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: userToken})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "FORBIDDEN", decodeError(t, w).Error.Code)

		req = httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: adminToken})
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "pong", w.Body.String())
	})
}

func TestRateLimiter(t *testing.T) {
	limiterMap := newRateLimiterMap(RateLimiterConfig{RequestsPerSecond: 1, Burst: 2})
	r := gin.New()
	r.Use(rateLimit(limiterMap))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("Burst then reject", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
		assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)

		w := send("10.0.0.1")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.Equal(t, "RATE_LIMITED", decodeError(t, w).Error.Code)
	})

	t.Run("Separate budget per client", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, send("10.0.0.2").Code)
	})

	t.Run("Evicts idle clients", func(t *testing.T) {
		removed := limiterMap.evictIdle(time.Now().Add(time.Minute))
		assert.Equal(t, 2, removed)
	})
}
