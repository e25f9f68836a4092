package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionKey returns the cache key holding the owner of a login session (JWT ID).
func (r *CacheKeyStruct) SessionKey(jti string) string {
	return fmt.Sprintf("session:%s", jti)
}

// ChangeChannel returns the Redis PubSub channel carrying coalesced marksheet changes.
func (r *CacheKeyStruct) ChangeChannel() string {
	return "marksheet:changes"
}

var CacheKey = NewCacheKeyStruct()
