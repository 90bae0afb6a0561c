package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devport-app/devport/internal/auth"
)

func TestRequireAuth(t *testing.T) {
	repo := newStubRepo()
	service := auth.NewService(repo)
	_, raw, err := service.Register(context.Background(), "Dev One", "dev@test.local", "password123")
	require.NoError(t, err)

	mw := auth.Middleware{Service: service}
	var seen *auth.Principal
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("attaches principal", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+raw)
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		require.Equal(t, http.StatusOK, res.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "dev@test.local", seen.Email)
	})

	t.Run("missing header is 401", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
		assert.Nil(t, seen)
	})

	t.Run("bad credential is 401 with generic body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer dp_bad_credential")
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
		assert.NotContains(t, res.Body.String(), "not found")
	})
}

func TestRequireVerified(t *testing.T) {
	mw := auth.Middleware{}
	handler := mw.RequireVerified(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("no principal is 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("unverified principal is 403", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := auth.ContextWithPrincipal(req.Context(), &auth.Principal{ID: 1})
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req.WithContext(ctx))
		assert.Equal(t, http.StatusForbidden, res.Code)
	})

	t.Run("verified principal passes", func(t *testing.T) {
		now := time.Now()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := auth.ContextWithPrincipal(req.Context(), &auth.Principal{ID: 1, VerifiedAt: &now})
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req.WithContext(ctx))
		assert.Equal(t, http.StatusOK, res.Code)
	})
}
