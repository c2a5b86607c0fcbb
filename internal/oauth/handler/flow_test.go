package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"pdsoauth/internal/identity"
	"pdsoauth/internal/oauth/handler"
	"pdsoauth/internal/oauth/models"
	"pdsoauth/internal/oauth/service"
	"pdsoauth/internal/oauth/service/mocks"
	codestore "pdsoauth/internal/oauth/store/authorization-code"
	clientstore "pdsoauth/internal/oauth/store/client"
	tokenstore "pdsoauth/internal/oauth/store/token"
	"pdsoauth/pkg/testutil"
)

const clientApp = "http://localhost:2583/client/app"

type flow struct {
	router chi.Router
	bridge *mocks.MockSessionBridge
	now    time.Time
}

func newFlow(t *testing.T) *flow {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	clients := clientstore.NewInMemory()
	client, err := models.NewClient("application", "", []models.GrantType{models.GrantAuthorizationCode, models.GrantRefreshToken}, []string{clientApp}, now)
	require.NoError(t, err)
	require.NoError(t, clients.Create(context.Background(), client))

	bridge := mocks.NewMockSessionBridge(gomock.NewController(t))
	svc := service.New(clients, codestore.NewInMemory(), tokenstore.NewInMemory(), bridge, service.Config{})

	r := chi.NewRouter()
	handler.New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return &flow{router: r, bridge: bridge, now: now}
}

func (f *flow) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.DoRequest(f.router, testutil.WithTime(req, f.now))
}

func (f *flow) login(t *testing.T, password string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(testutil.NewFormRequest(t, http.MethodPost, "/oauth/authorize", url.Values{
		"client_id":     {"application"},
		"redirect_uri":  {clientApp},
		"response_type": {"code"},
		"grant_type":    {"authorization_code"},
		"state":         {"xyz"},
		"username":      {"alice.test"},
		"password":      {password},
	}))
}

func (f *flow) exchange(t *testing.T, code string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(testutil.NewFormRequest(t, http.MethodPost, "/oauth/token", url.Values{
		"grant_type":   {"authorization_code"},
		"client_id":    {"application"},
		"code":         {code},
		"redirect_uri": {clientApp},
	}))
}

func TestAuthorizationCodeFlow(t *testing.T) {
	testutil.Given(t, "a registered browser client", func(t *testing.T) {
		f := newFlow(t)

		testutil.When(t, "the user signs in with valid credentials", func(t *testing.T) {
			f.bridge.EXPECT().ExchangePassword(gomock.Any(), "alice.test", "hunter2").
				Return(&models.SessionCredentials{AccessToken: "alice-access", RefreshToken: "alice-refresh"}, nil)

			rr := f.login(t, "hunter2")
			require.Equal(t, http.StatusFound, rr.Code)
			location := testutil.RedirectLocation(t, rr)
			code := location.Query().Get("code")

			testutil.Then(t, "the client is redirected with a code and the state", func(t *testing.T) {
				assert.Equal(t, "/client/app", location.Path)
				assert.Equal(t, "xyz", location.Query().Get("state"))
				assert.Len(t, code, 40)
			})

			testutil.Then(t, "the code exchanges for the upstream session once", func(t *testing.T) {
				rr := f.exchange(t, code)
				require.Equal(t, http.StatusOK, rr.Code)
				body := testutil.UnmarshalResponse[models.TokenResult](t, rr)
				assert.Equal(t, "alice-access", body.AccessToken)
				assert.Equal(t, "alice-refresh", body.RefreshToken)
				assert.Equal(t, "bearer", body.TokenType)
				assert.Equal(t, 7200, body.ExpiresIn)

				replay := f.exchange(t, code)
				assert.Equal(t, http.StatusBadRequest, replay.Code)
				assert.Contains(t, replay.Body.String(), "invalid_grant")
			})

			testutil.Then(t, "the access token opens the protected resource", func(t *testing.T) {
				req := testutil.NewJSONRequest(t, http.MethodGet, "/secure/", nil)
				req.Header.Set("Authorization", "Bearer alice-access")
				rr := f.do(req)
				assert.Equal(t, http.StatusOK, rr.Code)
				assert.JSONEq(t, `{"success":true}`, rr.Body.String())
			})
		})

		testutil.When(t, "the password is wrong", func(t *testing.T) {
			f.bridge.EXPECT().ExchangePassword(gomock.Any(), "alice.test", "nope").
				Return(nil, &identity.Error{Kind: identity.KindCredentialRejected, Op: "createSession", Status: http.StatusUnauthorized})

			rr := f.login(t, "nope")

			testutil.Then(t, "the user is sent back to the login page", func(t *testing.T) {
				require.Equal(t, http.StatusFound, rr.Code)
				location := testutil.RedirectLocation(t, rr)
				assert.Equal(t, "/oauth", location.Path)
				assert.Equal(t, "false", location.Query().Get("success"))
				assert.Equal(t, "application", location.Query().Get("client_id"))
				assert.Equal(t, "xyz", location.Query().Get("state"))
			})
		})
	})
}
