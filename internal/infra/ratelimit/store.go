package ratelimit

import (
	"github.com/gofiber/fiber/v2"
	memoryStorage "github.com/gofiber/storage/memory/v2"
	redisStorage "github.com/gofiber/storage/redis/v2"

	"github.com/FangWolf96/corepoint-ingest/internal/infra/logging"
)

// RedisConfig selects the Redis database used for limiter state.
type RedisConfig struct {
	Addr string
	DB   int
}

// NewStore returns limiter storage backed by Redis when an address is
// configured, falling back to in-process memory when Redis is unavailable.
func NewStore(cfg RedisConfig) fiber.Storage {
	if cfg.Addr == "" {
		return memoryStorage.New()
	}

	var store fiber.Storage = memoryStorage.New() // safe default

	func() {
		defer func() {
			if r := recover(); r != nil {
				logging.Error("Redis limiter store init panicked, falling back to memory", "panic", r)
			}
		}()
		store = redisStorage.New(redisStorage.Config{
			Addrs:    []string{cfg.Addr},
			Database: cfg.DB,
		})
		logging.Info("Using Redis for rate limiting", "addr", cfg.Addr, "db", cfg.DB)
	}()

	return store
}
