package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course_market_backend/guard"
	"course_market_backend/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTokens() *TokenService {
	return NewTokenService(nil, []byte("test-secret"), time.Hour, 24*time.Hour)
}

func echoUser(c *gin.Context) {
	id, ok := UserID(c)
	if !ok {
		c.String(http.StatusOK, "anonymous")
		return
	}
	c.String(http.StatusOK, id.String())
}

func TestAuthMiddleware(t *testing.T) {
	tokens := newTokens()
	userID := uuid.New()
	valid, err := tokens.SignAccessToken(userID)
	require.NoError(t, err)

	expired := NewTokenService(nil, []byte("test-secret"), -time.Minute, time.Hour)
	expiredToken, err := expired.SignAccessToken(userID)
	require.NoError(t, err)

	otherSecret := NewTokenService(nil, []byte("other"), time.Hour, time.Hour)
	forged, err := otherSecret.SignAccessToken(userID)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens, logger.Nop()), echoUser)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + valid, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + valid, http.StatusUnauthorized},
		{"expired", "Bearer " + expiredToken, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + forged, http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, userID.String(), w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	tokens := newTokens()
	userID := uuid.New()
	valid, err := tokens.SignAccessToken(userID)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/guard", OptionalAuth(tokens), echoUser)

	for header, want := range map[string]string{
		"":                "anonymous",
		"Bearer nonsense": "anonymous",
		"Bearer " + valid: userID.String(),
	} {
		req := httptest.NewRequest(http.MethodGet, "/guard", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, want, w.Body.String())
	}
}

func TestAuthMiddleware_StoresOnlyUserID(t *testing.T) {
	tokens := newTokens()
	userID := uuid.New()
	token, err := tokens.SignAccessToken(userID)
	require.NoError(t, err)

	var stored int
	var got any
	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens, logger.Nop()), func(c *gin.Context) {
		stored = len(c.Keys)
		got, _ = c.Get(ContextUserID)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, stored)
	assert.Equal(t, userID, got)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "battery staple"))
}

type roleTable map[uuid.UUID]string

func (r roleTable) UserType(_ context.Context, id uuid.UUID) (string, error) {
	return r[id], nil
}

func TestRequireRoles(t *testing.T) {
	tokens := newTokens()
	teacher, student := uuid.New(), uuid.New()
	g := guard.New(guard.DefaultRoutes(), roleTable{teacher: "teacher", student: "student"}, logger.Nop())

	r := gin.New()
	r.POST("/courses/publish", AuthMiddleware(tokens, logger.Nop()), RequireRoles(g, "teacher"), echoUser)

	call := func(id uuid.UUID) *httptest.ResponseRecorder {
		token, err := tokens.SignAccessToken(id)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/courses/publish", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := call(teacher)
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(student)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Insufficient role for this resource","redirect_to":"/student"}`, w.Body.String())

	// no profile role yet
	w = call(uuid.New())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRateLimiter(client, logger.Nop())
	r := gin.New()
	r.POST("/publish", limiter.Limit("publish", 2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	hit := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/publish", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusCreated, hit().Code)
	assert.Equal(t, http.StatusCreated, hit().Code)
	w := hit()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusCreated, hit().Code)
}

func TestRateLimiter_CounterWithoutExpiryGetsWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	// counter left behind without a TTL
	key := "rate_limit:publish:10.0.0.1"
	require.NoError(t, mr.Set(key, "5"))

	r := gin.New()
	r.POST("/publish", NewRateLimiter(client, logger.Nop()).Limit("publish", 2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	hit := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/publish", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := hit()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	ttl := mr.TTL(key)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusCreated, hit().Code)
}

func TestRateLimiter_RedisDownLetsRequestsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	r := gin.New()
	r.GET("/x", NewRateLimiter(client, logger.Nop()).Limit("x", 1, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
