package config

import "time"

// CacheConfig tunes the Redis response cache used on the public
// train-browse endpoints.  Caching is skipped entirely when Enabled is
// false or no Redis client is available.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadCacheConfig reads the cache settings from environment variables.
// The default 15s TTL keeps seat counts near-fresh while absorbing browse
// bursts.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled: envBool("CACHE_ENABLED", true),
		TTL:     envDur("CACHE_TTL", 15*time.Second),
		Prefix:  envStr("CACHE_PREFIX", "cache"),
	}
}
