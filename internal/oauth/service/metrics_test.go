package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"pdsoauth/internal/oauth/models"
	"pdsoauth/internal/platform/metrics"
)

func (s *ServiceSuite) TestGrantMetrics() {
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.service = New(s.clients, s.codes, s.tokens, s.bridge, Config{}, WithMetrics(m))
	req := func() *models.TokenRequest {
		return &models.TokenRequest{GrantType: "password", ClientID: "cli", Username: "alice.test", Password: "hunter2"}
	}

	s.expectPassword(session(upstreamAccess, upstreamRefresh), nil)
	_, err := s.service.Token(s.ctx(), req())
	s.Require().NoError(err)

	s.expectPassword(nil, rejected)
	_, err = s.service.Token(s.ctx(), req())
	s.Require().Error(err)

	s.Equal(1.0, testutil.ToFloat64(m.GrantsTotal.WithLabelValues("password", "success")))
	s.Equal(1.0, testutil.ToFloat64(m.GrantsTotal.WithLabelValues("password", "invalid_grant")))
	s.Equal(2.0, testutil.ToFloat64(m.GrantStateTotal.WithLabelValues("password", "client-validated")))
	s.Equal(1.0, testutil.ToFloat64(m.GrantStateTotal.WithLabelValues("password", "token-issued")))
	s.Equal(1.0, testutil.ToFloat64(m.GrantStateTotal.WithLabelValues("password", "responded")))
	s.Equal(1.0, testutil.ToFloat64(m.GrantStateTotal.WithLabelValues("password", "error")))
}
