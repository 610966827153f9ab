package oidc

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	linkTokenTTL     = 15 * time.Minute
	linkTokenEntries = 1024
)

// LinkTokenCache holds pending link requests behind random single-use tokens.
// Entries expire after fifteen minutes whether or not they were consumed.
type LinkTokenCache struct {
	cache *expirable.LRU[string, LinkRequest]
}

func NewLinkTokenCache() *LinkTokenCache {
	return &LinkTokenCache{
		cache: expirable.NewLRU[string, LinkRequest](linkTokenEntries, nil, linkTokenTTL),
	}
}

// Issue stores a pending link request and returns its token.
func (c *LinkTokenCache) Issue(req LinkRequest) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)
	c.cache.Add(token, req)
	return token, nil
}

// Consume returns the pending request for a token and invalidates it. A
// second call with the same token misses.
func (c *LinkTokenCache) Consume(token string) (LinkRequest, bool) {
	req, ok := c.cache.Get(token)
	if ok {
		c.cache.Remove(token)
	}
	return req, ok
}
