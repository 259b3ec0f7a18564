package database

import (
	"github.com/redis/go-redis/v9"

	"github.com/kindredapp/kindred-go/internal/config"
)

func NewRedis(conf config.Server) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: conf.RedisAddr,
		DB:   conf.RedisDB,
	})
}
