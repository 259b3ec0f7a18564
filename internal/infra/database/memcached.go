package database

import (
	"github.com/bradfitz/gomemcache/memcache"

	"github.com/kindredapp/kindred-go/internal/config"
)

func NewMemcached(conf config.Server) *memcache.Client {
	return memcache.New(conf.MemcachedAddr)
}
