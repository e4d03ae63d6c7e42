package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyCatalog = "pools:catalog"

// Cache guarda a projeção do catálogo de pools no Redis.
// Mutação de pool invalida a chave; leituras repovoam com TTL curto.
type Cache struct{ R *redis.Client }

func New(r *redis.Client) *Cache { return &Cache{R: r} }

func (c *Cache) GetCatalog(ctx context.Context, dst any) (bool, error) {
	b, err := c.R.Get(ctx, keyCatalog).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *Cache) SetCatalog(ctx context.Context, v any, ttl time.Duration) error {
	b, _ := json.Marshal(v)
	return c.R.Set(ctx, keyCatalog, b, ttl).Err()
}

func (c *Cache) InvalidateCatalog(ctx context.Context) error {
	return c.R.Del(ctx, keyCatalog).Err()
}
