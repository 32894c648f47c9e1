package testutil

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"khata/internal/remote"
)

// SetupTestStore starts an in-process Redis and returns a document store
// backed by it. The server and client are cleaned up with the test.
func SetupTestStore(t *testing.T) remote.DocumentStore {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return remote.NewRedisStoreFromClient(client)
}
