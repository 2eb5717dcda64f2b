package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yumyumCoachAPI/internal/metrics"
)

var testSecret = []byte("test-secret-key-for-testing-only")

func mockToken(t *testing.T, subject string, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": subject,
		"iss": "https://clerk.test",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(expiresIn).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func hmacVerifier(_ context.Context, token string) (string, error) {
	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return testSecret, nil
	})
	if err != nil {
		return "", err
	}
	return parsed.Claims.GetSubject()
}

func echoClerkID(w http.ResponseWriter, r *http.Request) {
	id, ok := GetClerkID(r.Context())
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Write([]byte(id))
}

func TestAuthMiddleware(t *testing.T) {
	handler := AuthMiddleware(hmacVerifier)(http.HandlerFunc(echoClerkID))

	tests := []struct {
		name   string
		header string
		status int
		body   string
		reason string
	}{
		{"valid token", "Bearer " + mockToken(t, "user_123", time.Hour), http.StatusOK, "user_123", ""},
		{"missing header", "", http.StatusUnauthorized, "", "missing_header"},
		{"no bearer prefix", mockToken(t, "user_123", time.Hour), http.StatusUnauthorized, "", "bad_format"},
		{"expired token", "Bearer " + mockToken(t, "user_123", -time.Hour), http.StatusUnauthorized, "", "invalid_token"},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, "", "invalid_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var before float64
			if tt.reason != "" {
				before = testutil.ToFloat64(metrics.AuthRejections.WithLabelValues(tt.reason))
			}

			req := httptest.NewRequest(http.MethodGet, "/api/v1/challenges", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rr.Body.String())
			}
			if tt.reason != "" {
				assert.Contains(t, rr.Body.String(), `"error"`)
				after := testutil.ToFloat64(metrics.AuthRejections.WithLabelValues(tt.reason))
				assert.Equal(t, before+1, after)
			}
		})
	}
}

func TestAuthMiddlewareRejectsEmptySubject(t *testing.T) {
	handler := AuthMiddleware(func(context.Context, string) (string, error) {
		return "", nil
	})(http.HandlerFunc(echoClerkID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetClerkID(t *testing.T) {
	_, ok := GetClerkID(context.Background())
	assert.False(t, ok)

	id, ok := GetClerkID(WithClerkID(context.Background(), "user_9"))
	assert.True(t, ok)
	assert.Equal(t, "user_9", id)
}

func TestMonitorMiddlewareUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(MonitorMiddleware)
	r.HandleFunc("/api/v1/challenges/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	counter := metrics.HTTPRequestsTotal.WithLabelValues("/api/v1/challenges/{id}", http.MethodGet, "404")
	before := testutil.ToFloat64(counter)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/challenges/42", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestBasicAuthMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name       string
		configUser string
		configPass string
		user, pass string
		setAuth    bool
		status     int
	}{
		{"valid credentials", "prom", "secret", "prom", "secret", true, http.StatusOK},
		{"wrong password", "prom", "secret", "prom", "nope", true, http.StatusUnauthorized},
		{"no credentials", "prom", "secret", "", "", false, http.StatusUnauthorized},
		{"unconfigured", "", "", "", "", true, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rr := httptest.NewRecorder()
			BasicAuthMiddleware(tt.configUser, tt.configPass)(ok).ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remote, forwarded string) int {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = remote
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234", ""))
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1235", ""))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1236", ""))

	// a different client has its own bucket
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1234", ""))
	assert.Equal(t, http.StatusOK, send("10.0.0.9:1", "203.0.113.7, 10.0.0.9"))
	assert.Equal(t, http.StatusOK, send("10.0.0.9:2", "203.0.113.7"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.9:3", "203.0.113.7"))
}

func TestRateLimiterEvictsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(5, 30)
	rl.limiter("10.0.0.1")
	rl.limiter("10.0.0.2")
	rl.visitors["10.0.0.1"].lastSeen = time.Now().Add(-10 * time.Minute)

	rl.evictIdle(time.Now())

	assert.NotContains(t, rl.visitors, "10.0.0.1")
	assert.Contains(t, rl.visitors, "10.0.0.2")
}

func TestRateLimiterCleanupStops(t *testing.T) {
	rl := NewRateLimiter(5, 30)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.Cleanup(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal(errors.New("cleanup did not stop"))
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("generates an id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		got := rec.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(got)
		require.NoError(t, err)
		assert.Equal(t, got, seen)
	})

	t.Run("keeps a valid caller id", func(t *testing.T) {
		incoming := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, incoming)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, incoming, rec.Header().Get(RequestIDHeader))
		assert.Equal(t, incoming, seen)
	})

	t.Run("replaces a malformed caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "not-a-uuid\r\nX-Injected: 1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		got := rec.Header().Get(RequestIDHeader)
		assert.NotContains(t, got, "not-a-uuid")
		_, err := uuid.Parse(got)
		assert.NoError(t, err)
	})

	assert.Empty(t, GetRequestID(context.Background()))
}
