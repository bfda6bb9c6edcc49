// AngelaMos | 2026
// middleware_test.go

package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/brasil-no-mundo/internal/config"
	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
)

type stubVerifier map[string]*AccessTokenClaims

func (v stubVerifier) VerifyAccessToken(
	_ context.Context,
	token string,
) (*AccessTokenClaims, error) {
	switch token {
	case "expired":
		return nil, fmt.Errorf("verify: %w", core.ErrTokenExpired)
	case "revoked":
		return nil, fmt.Errorf("verify: %w", core.ErrTokenRevoked)
	}
	if claims, ok := v[token]; ok {
		return claims, nil
	}
	return nil, fmt.Errorf("verify: %w", core.ErrTokenInvalid)
}

var verifier = stubVerifier{
	"member": {UserID: "u1", Name: "Ana", Role: domain.RoleUser, Tier: domain.TierFree},
	"admin":  {UserID: "a1", Name: "Root", Role: domain.RoleAdmin, Tier: domain.TierPro},
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	core.OK(w, map[string]string{"user_id": GetUserID(r.Context())})
})

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error.Code
}

func request(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		r.AddCookie(&http.Cookie{Name: "token", Value: token})
	}
	return r
}

func TestAuthenticator(t *testing.T) {
	h := Authenticator(verifier, "token")(okHandler)

	tests := []struct {
		token string
		want  int
		code  string
	}{
		{"", http.StatusUnauthorized, "TOKEN_MISSING"},
		{"garbage", http.StatusForbidden, "TOKEN_INVALID"},
		{"expired", http.StatusForbidden, "TOKEN_EXPIRED"},
		{"revoked", http.StatusForbidden, "TOKEN_REVOKED"},
		{"member", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run("token="+tt.token, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, request(tt.token))
			assert.Equal(t, tt.want, rec.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, errorCode(t, rec))
			}
		})
	}
}

func TestAuthenticator_BearerFallback(t *testing.T) {
	h := Authenticator(verifier, "token")(okHandler)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer member")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOptionalAuth(t *testing.T) {
	var seen string
	h := OptionalAuth(verifier, "token")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserID(r.Context())
	}))

	for token, want := range map[string]string{"": "", "garbage": "", "member": "u1"} {
		seen = "unset"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, request(token))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, want, seen, token)
	}
}

func TestRequireAdmin(t *testing.T) {
	h := Authenticator(verifier, "token")(RequireAdmin(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request("member"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request("admin"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	RequireAdmin(okHandler).ServeHTTP(rec, request(""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCORS(t *testing.T) {
	h := CORS(config.CORSConfig{
		AllowedOrigins:   []string{"https://brasilnomundo.com"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})(okHandler)

	preflight := httptest.NewRequest(http.MethodOptions, "/api/state", nil)
	preflight.Header.Set("Origin", "https://brasilnomundo.com")
	preflight.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, preflight)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://brasilnomundo.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	foreign := httptest.NewRequest(http.MethodOptions, "/api/state", nil)
	foreign.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, foreign)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "not valid!")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.NotEqual(t, "not valid!", seen)
	assert.Len(t, seen, 36)
}

func TestRecoverer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Recoverer(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, rec))
}

func TestRateLimiter_LocalFallback(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{
		Limit: redis_rate.Limit{Rate: 2, Burst: 2, Period: time.Hour},
	})
	defer rl.Close()

	h := rl.Handler(okHandler)

	for i := range 2 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, request(""))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(""))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, rec))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimiter_Bypass(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{
		Limit:      redis_rate.Limit{Rate: 1, Burst: 1, Period: time.Hour},
		BypassFunc: func(*http.Request) bool { return true },
	})
	defer rl.Close()

	h := rl.Handler(okHandler)
	for range 3 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, request(""))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestTiered_ProGetsMoreRoom(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{})
	defer rl.Close()

	tiers := map[string]TierConfig{
		domain.TierFree: {RequestsPerMinute: 1, BurstSize: 1},
		domain.TierPro:  {RequestsPerMinute: 60, BurstSize: 3},
	}
	h := Authenticator(verifier, "token")(rl.Tiered(tiers)(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request("member"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.TierFree, rec.Header().Get("X-RateLimit-Tier"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request("member"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	for range 3 {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, request("admin"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.TierPro, rec.Header().Get("X-RateLimit-Tier"))
	}
}
