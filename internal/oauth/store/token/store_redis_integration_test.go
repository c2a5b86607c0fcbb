//go:build integration

package token

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"pdsoauth/pkg/testutil/containers"
)

func TestRedisContainerTokenStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	client := containers.NewRedisClient(t)

	suite.Run(t, &TokenStoreSuite{newStore: func() tokenStore {
		if err := client.FlushDB(context.Background()).Err(); err != nil {
			t.Fatalf("flush redis: %v", err)
		}
		return NewRedis(client)
	}})
}
