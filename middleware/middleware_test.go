package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "habitsAPI/internal/errors"
	"habitsAPI/internal/types/user"
)

func stubVerifier(t *testing.T) {
	t.Helper()
	orig := verifyToken
	verifyToken = func(ctx context.Context, token string) (string, error) {
		if token == "good" {
			return "user_clerk", nil
		}
		return "", errors.New("bad signature")
	}
	t.Cleanup(func() { verifyToken = orig })
}

func TestClerkAuthMiddleware(t *testing.T) {
	stubVerifier(t)

	var seen string
	h := ClerkAuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetClerkID(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"no bearer prefix", "good", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "user_clerk", seen)
			} else {
				assert.Empty(t, seen)
			}
		})
	}
}

type lookupFunc func(ctx context.Context, clerkID string) (*user.User, error)

func (f lookupFunc) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	return f(ctx, clerkID)
}

func TestUserResolver(t *testing.T) {
	id := uuid.New()
	users := lookupFunc(func(ctx context.Context, clerkID string) (*user.User, error) {
		switch clerkID {
		case "known":
			return &user.User{ID: id, ClerkID: clerkID}, nil
		case "broken":
			return nil, errors.New("db down")
		}
		return nil, apperrors.NotFound("user not found")
	})

	var got uuid.UUID
	h := UserResolver(users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetUserID(r.Context())
	}))

	serve := func(ctx context.Context) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(context.Background()))
	assert.Equal(t, http.StatusNotFound, serve(WithClerkID(context.Background(), "ghost")))
	assert.Equal(t, http.StatusInternalServerError, serve(WithClerkID(context.Background(), "broken")))
	assert.Equal(t, http.StatusOK, serve(WithClerkID(context.Background(), "known")))
	assert.Equal(t, id, got)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.1, 172.16.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, http.StatusTooManyRequests}, codes)

	// other clients have their own bucket
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Zero(t, rl.sweep(time.Now()))
	assert.Equal(t, 2, rl.sweep(time.Now().Add(visitorTTL+time.Second)))
}

func TestBasicAuthMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	h := BasicAuthMiddleware("prom", "secret")(ok)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.SetBasicAuth("prom", "secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	unset := BasicAuthMiddleware("", "")(ok)
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("", "")
	rec = httptest.NewRecorder()
	unset.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPprofSecurityMiddleware(t *testing.T) {
	h := PprofSecurityMiddleware("s3cret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req.Header.Set("X-Pprof-Secret", "s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMonitorMiddlewareUsesRouteTemplate(t *testing.T) {
	var path string
	r := mux.NewRouter()
	r.Use(MonitorMiddleware)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			path = routeTemplate(req)
			next.ServeHTTP(w, req)
		})
	})
	r.HandleFunc("/habits/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/habits/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "/habits/{id}", path)
}
