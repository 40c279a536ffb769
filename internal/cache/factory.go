package cache

import (
	"fmt"
	"time"

	"github.com/otcheredev/clinical-records-api/internal/config"
)

// New builds the tenant snapshot cache described by the configuration and
// returns the TTL to store snapshots with. A disabled cache yields a zero TTL,
// so every lookup reaches the database.
func New(c config.CacheConfig, r config.RedisConfig) (Cache, time.Duration, error) {
	if c.Enabled && c.Type == "redis" {
		rc, err := NewRedisCache(RedisOptions{
			Addr:     fmt.Sprintf("%s:%d", r.Host, r.Port),
			Password: r.Password,
			DB:       r.DB,
			Prefix:   r.Prefix,
		})
		if err != nil {
			return nil, 0, err
		}
		return rc, c.TTL, nil
	}

	ttl := c.TTL
	if !c.Enabled {
		ttl = 0
	}
	return NewMemoryCache(c.TTL, 10*time.Minute), ttl, nil
}
