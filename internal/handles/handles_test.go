package handles

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks AccountResolver

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"pdsoauth/internal/handles/mocks"
	"pdsoauth/internal/identity"
	"pdsoauth/pkg/platform/httputil"
	"pdsoauth/pkg/platform/sentinel"
	"pdsoauth/pkg/testutil"
)

type HandlesSuite struct {
	suite.Suite
	accounts *mocks.MockAccountResolver
	router   chi.Router
}

func TestHandlesSuite(t *testing.T) {
	suite.Run(t, new(HandlesSuite))
}

func (s *HandlesSuite) SetupTest() {
	s.accounts = mocks.NewMockAccountResolver(gomock.NewController(s.T()))
	service := NewService(s.accounts, "pds.example.com", []string{".pds.example.com", ".test"}, nil)
	s.router = chi.NewRouter()
	NewHandler(service).Register(s.router)
}

func (s *HandlesSuite) check(domain string) (int, *httputil.ErrorResponse) {
	path := "/tls-check"
	if domain != "" {
		path += "?domain=" + domain
	}
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, path, nil))
	if rr.Code == http.StatusOK {
		s.JSONEq(`{"success":true}`, rr.Body.String())
		return rr.Code, nil
	}
	return rr.Code, testutil.UnmarshalResponse[httputil.ErrorResponse](s.T(), rr)
}

func (s *HandlesSuite) TestCheckHandle() {
	s.Run("missing domain", func() {
		status, body := s.check("")
		s.Equal(http.StatusBadRequest, status)
		s.Equal("InvalidRequest", body.Error)
		s.Equal("bad or missing domain query param", body.Message)
	})

	s.Run("service hostname needs no lookup", func() {
		status, _ := s.check("pds.example.com")
		s.Equal(http.StatusOK, status)
	})

	s.Run("foreign domain", func() {
		status, body := s.check("alice.other.org")
		s.Equal(http.StatusBadRequest, status)
		s.Equal("handles are not provided on this domain", body.Message)
	})

	s.Run("hosted handle", func() {
		s.accounts.EXPECT().GetAccount(gomock.Any(), "alice.test").
			Return(&identity.Account{Handle: "alice.test", DID: "did:plc:alice"}, nil)
		status, _ := s.check("alice.test")
		s.Equal(http.StatusOK, status)
	})

	s.Run("unknown handle", func() {
		s.accounts.EXPECT().GetAccount(gomock.Any(), "ghost.pds.example.com").
			Return(nil, fmt.Errorf("handle %q: %w", "ghost.pds.example.com", sentinel.ErrNotFound))
		status, body := s.check("ghost.pds.example.com")
		s.Equal(http.StatusNotFound, status)
		s.Equal("NotFound", body.Error)
		s.Equal("handle not found for this domain", body.Message)
	})

	s.Run("lookup failure", func() {
		s.accounts.EXPECT().GetAccount(gomock.Any(), "bob.test").
			Return(nil, &identity.Error{Kind: identity.KindUpstreamUnavailable, Op: "resolveHandle", Err: errors.New("connection refused")})
		status, body := s.check("bob.test")
		s.Equal(http.StatusInternalServerError, status)
		s.Equal("InternalServerError", body.Error)
		s.Equal("Internal Server Error", body.Message)
	})
}
