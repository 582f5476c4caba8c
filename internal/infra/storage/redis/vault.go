package redis

import (
	"context"
	"fmt"

	"github.com/nocturnelabs/vaultdesk/internal/vaultbook"

	redis "github.com/redis/go-redis/v9"
)

// vaultStoragePrefix is the base key prefix for tracked vault lists.
const vaultStoragePrefix = "vaultbook"

// vaultStorageKey returns the Redis key holding the tracked vault list for
// the given chain.
//
// Format: "vaultbook:storage:{chainID}"
func vaultStorageKey(chainID string) string {
	return fmt.Sprintf("%s:storage:%s", vaultStoragePrefix, chainID)
}

// ReadVaults implements the vaultbook.VaultStorage interface using a Redis
// list, preserving insertion order across round trips.
func (c *client) ReadVaults(ctx context.Context, chainID string) ([]string, error) {
	return c.conn.LRange(ctx, vaultStorageKey(chainID), 0, -1).Result()
}

// WriteVaults replaces the persisted vault list for the given chain. The
// delete and re-push run in one transactional pipeline so concurrent readers
// never observe a half-written list.
func (c *client) WriteVaults(ctx context.Context, chainID string, addresses []string) error {
	key := vaultStorageKey(chainID)

	_, err := c.conn.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(addresses) > 0 {
			values := make([]any, len(addresses))
			for i, addr := range addresses {
				values[i] = addr
			}
			pipe.RPush(ctx, key, values...)
		}
		return nil
	})
	return err
}

// Compile-time assertion that *client satisfies the vaultbook.VaultStorage interface
var _ vaultbook.VaultStorage = new(client)
