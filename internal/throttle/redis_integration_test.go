//go:build integration

package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/kittygram/kittygram-api/internal/appconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedisContainer(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err, "could not start container")
	t.Cleanup(func() { redisC.Terminate(ctx) })

	endpoint, err := redisC.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisStore_FixedWindow(t *testing.T) {
	client := setupRedisContainer(t)
	store := NewRedisStore(client, "test:")
	ctx := context.Background()
	rate := Rate{Requests: 2, Period: time.Minute}

	ok, _, err := store.Hit(ctx, "throttle_low_request_user:alice", rate, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _, err = store.Hit(ctx, "throttle_low_request_user:alice", rate, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, wait, err := store.Hit(ctx, "throttle_low_request_user:alice", rate, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, wait > 0 && wait <= time.Minute, "wait %s", wait)

	ok, _, err = store.Hit(ctx, "throttle_low_request_user:bob", rate, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ttl, err := client.PTTL(ctx, "test:throttle_low_request_user:alice").Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0, "window keys expire")
}

func TestRedisStore_SharedChain(t *testing.T) {
	client := setupRedisContainer(t)
	chains, err := NewChains(appconfig.Default().Throttle, NewRedisStore(client, "chain:"))
	require.NoError(t, err)

	now := time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC)
	req := Request{User: "alice", IP: "10.0.0.1", Scope: LowRequestScope, Now: now}

	assert.True(t, chains.Cats.Allow(context.Background(), req).Allowed)
	d := chains.Cats.Allow(context.Background(), req)
	assert.False(t, d.Allowed)
	assert.Equal(t, "scoped", d.Throttle)
}
