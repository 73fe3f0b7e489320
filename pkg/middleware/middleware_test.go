package middleware_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chessd/pkg/claims"
	"chessd/pkg/middleware"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func signed(t *testing.T, method jwt.SigningMethod, key any, c *claims.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, c).SignedString(key)
	require.NoError(t, err)
	return s
}

func adminClaims() *claims.Claims {
	return &claims.Claims{
		Role: claims.RoleAdmin,
		StandardClaims: jwt.StandardClaims{
			Subject:   "ops",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	}
}

func protected(t *testing.T, secret string) (http.Handler, *bool) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		c, ok := r.Context().Value(claims.TokenContextKey).(*claims.Claims)
		assert.True(t, ok)
		assert.Equal(t, "ops", c.Subject)
	})
	return middleware.CheckJWT(secret, slog.Default())(next), &called
}

func TestCheckJWT(t *testing.T) {
	cases := []struct {
		name   string
		secret string
		header func(t *testing.T) string
		status int
		passes bool
	}{
		{
			name:   "valid admin",
			secret: secret,
			header: func(t *testing.T) string { return "Bearer " + signed(t, jwt.SigningMethodHS256, []byte(secret), adminClaims()) },
			status: http.StatusOK,
			passes: true,
		},
		{
			name:   "missing header",
			secret: secret,
			header: func(*testing.T) string { return "" },
			status: http.StatusUnauthorized,
		},
		{
			name:   "not bearer",
			secret: secret,
			header: func(*testing.T) string { return "Basic abc" },
			status: http.StatusUnauthorized,
		},
		{
			name:   "wrong secret",
			secret: secret,
			header: func(t *testing.T) string { return "Bearer " + signed(t, jwt.SigningMethodHS256, []byte("other"), adminClaims()) },
			status: http.StatusUnauthorized,
		},
		{
			name:   "wrong algorithm",
			secret: secret,
			header: func(t *testing.T) string { return "Bearer " + signed(t, jwt.SigningMethodHS512, []byte(secret), adminClaims()) },
			status: http.StatusUnauthorized,
		},
		{
			name:   "expired",
			secret: secret,
			header: func(t *testing.T) string {
				c := adminClaims()
				c.ExpiresAt = time.Now().Add(-time.Hour).Unix()
				return "Bearer " + signed(t, jwt.SigningMethodHS256, []byte(secret), c)
			},
			status: http.StatusUnauthorized,
		},
		{
			name:   "not admin",
			secret: secret,
			header: func(t *testing.T) string {
				c := adminClaims()
				c.Role = "player"
				return "Bearer " + signed(t, jwt.SigningMethodHS256, []byte(secret), c)
			},
			status: http.StatusForbidden,
		},
		{
			name:   "disabled without secret",
			secret: "",
			header: func(t *testing.T) string { return "Bearer " + signed(t, jwt.SigningMethodHS256, []byte("anything"), adminClaims()) },
			status: http.StatusForbidden,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, called := protected(t, tc.secret)
			r := httptest.NewRequest(http.MethodPost, "/admin/reap/finished", nil)
			if v := tc.header(t); v != "" {
				r.Header.Set("Authorization", v)
			}
			w := httptest.NewRecorder()

			h.ServeHTTP(w, r)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.passes, *called)
		})
	}
}

func TestPanic(t *testing.T) {
	h := middleware.Panic(slog.Default())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()

	assert.NotPanics(t, func() {
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/game", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLogging(t *testing.T) {
	h := middleware.Logging(slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	w := httptest.NewRecorder()

	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
}
