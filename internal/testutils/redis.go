package testutils

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// TestRedisURLEnv names a running redis that integration tests may use
// instead of starting a container
const TestRedisURLEnv = "TEST_REDIS_URL"

// CreateMiniredisClient starts an in-process redis server and returns a
// client for it. Both are closed when the test ends.
func CreateMiniredisClient(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})

	return mr, client
}

// ConnectTestRedis returns a client for the redis named by TEST_REDIS_URL,
// or nil when the variable is unset. The selected database is flushed
// before and after the test.
func ConnectTestRedis(t *testing.T) redis.UniversalClient {
	t.Helper()

	url := os.Getenv(TestRedisURLEnv)
	if url == "" {
		return nil
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err, "parse %s", TestRedisURLEnv)

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis at %s not available: %v", opts.Addr, err)
	}
	require.NoError(t, client.FlushDB(ctx).Err())

	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}

// WaitForRedis polls addr until it answers PING or timeout passes
func WaitForRedis(addr string, timeout time.Duration) error {
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err := client.Ping(ctx).Err()
		cancel()

		if err == nil {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("redis at %s not ready after %v", addr, timeout)
}
