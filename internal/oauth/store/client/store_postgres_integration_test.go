//go:build integration

package client_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"pdsoauth/internal/oauth/models"
	"pdsoauth/internal/oauth/store/client"
	"pdsoauth/internal/platform/config"
	"pdsoauth/internal/platform/postgres"
	"pdsoauth/pkg/platform/sentinel"
	"pdsoauth/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	db    *sql.DB
	store *client.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	dsn := containers.NewPostgresURL(s.T())
	db, err := postgres.Open(context.Background(), config.PostgresConfig{URL: dsn})
	s.Require().NoError(err)
	s.db = db
	s.store = client.NewPostgres(db)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.db.ExecContext(context.Background(), `TRUNCATE oauth_clients`)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	registered, err := models.NewClient("application", "hash",
		[]models.GrantType{models.GrantAuthorizationCode, models.GrantRefreshToken},
		[]string{"http://localhost:2583/client/app", "http://localhost/cb"},
		time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(ctx, registered))

	found, err := s.store.FindByID(ctx, "application")
	s.Require().NoError(err)
	s.Equal(registered.Grants, found.Grants)
	s.Equal(registered.RedirectURIs, found.RedirectURIs)
	s.Equal("hash", found.SecretHash)
	s.True(registered.CreatedAt.Equal(found.CreatedAt))

	_, err = s.store.FindByID(ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentCreate verifies that concurrent registration of the same
// client ID results in exactly one success.
func (s *PostgresStoreSuite) TestConcurrentCreate() {
	ctx := context.Background()
	const goroutines = 20

	var successes, conflicts atomic.Int32
	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			registered, _ := models.NewClient("racer", "", []models.GrantType{models.GrantPassword}, []string{"http://localhost/cb"}, time.Now())
			err := s.store.Create(ctx, registered)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}
