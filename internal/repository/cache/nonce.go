package cache

import (
	"context"
	"time"
)

// NonceCache is the in-process nonce store for a single node.
type NonceCache struct {
	cch KV
}

func NewNonceCache(cch KV) *NonceCache {
	return &NonceCache{cch: cch}
}

func (n *NonceCache) Remember(_ context.Context, nonce string, ttl time.Duration) (bool, error) {
	return n.cch.PutIfAbsent("nonce:"+nonce, struct{}{}, ttl), nil
}
