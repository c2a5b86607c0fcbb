package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "pdsoauth/pkg/domain-errors"
)

type validatorFunc func(ctx context.Context, token string) (*Claims, error)

func (f validatorFunc) ValidateAccessToken(ctx context.Context, token string) (*Claims, error) {
	return f(ctx, token)
}

func newProtected(t *testing.T, v TokenValidator) (http.Handler, *Claims) {
	t.Helper()
	seen := &Claims{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := RequireAuth(v, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		*seen = *claims
		w.WriteHeader(http.StatusOK)
	}))
	return h, seen
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body["error"]
}

func TestRequireAuth(t *testing.T) {
	t.Run("valid bearer token reaches the handler with claims", func(t *testing.T) {
		h, seen := newProtected(t, validatorFunc(func(_ context.Context, token string) (*Claims, error) {
			assert.Equal(t, "access-jwt", token)
			return &Claims{ClientID: "application", Subject: "did:plc:abc"}, nil
		}))
		r := httptest.NewRequest(http.MethodGet, "/secure/", nil)
		r.Header.Set("Authorization", "Bearer access-jwt")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application", seen.ClientID)
	})

	t.Run("missing header is rejected without calling the validator", func(t *testing.T) {
		h, _ := newProtected(t, validatorFunc(func(context.Context, string) (*Claims, error) {
			t.Fatal("validator must not be called")
			return nil, nil
		}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/secure/", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid_token", errorOf(t, w))
	})

	t.Run("unknown token is 401", func(t *testing.T) {
		h, _ := newProtected(t, validatorFunc(func(context.Context, string) (*Claims, error) {
			return nil, dErrors.New(dErrors.CodeInvalidToken, "access token is invalid")
		}))
		r := httptest.NewRequest(http.MethodGet, "/secure/", nil)
		r.Header.Set("Authorization", "Bearer nope")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("store failure is 500", func(t *testing.T) {
		h, _ := newProtected(t, validatorFunc(func(context.Context, string) (*Claims, error) {
			return nil, dErrors.Wrap(errors.New("redis down"), dErrors.CodeInternal, "failed to load token")
		}))
		r := httptest.NewRequest(http.MethodGet, "/secure/", nil)
		r.Header.Set("Authorization", "Bearer tok")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "server_error", errorOf(t, w))
	})
}
