package database

import (
	"context"
	"log"

	"github.com/go-redis/redis/v8"

	"github.com/gameportal/backend/internal/config"
)

// InitRedis initializes the Redis client used for the session token
// blacklist. The portal keeps working without Redis; a nil client is
// returned if the connection fails.
func InitRedis(cfg config.RedisConfig) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection failed, continuing without Redis: %v", err)
		return nil
	}

	log.Println("Redis connection established")
	return rdb
}
