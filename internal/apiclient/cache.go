package apiclient

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"
	"time"
)

type cacheEntry struct {
	resp       *Response
	insertedAt time.Time
	ttl        time.Duration
}

// cacheGet returns a copy of the cached response marked FromCache. An entry
// is served until more than its ttl has passed; expired entries are removed
// on read.
func (c *Client) cacheGet(key string) (*Response, bool) {
	entry, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	if entry.ttl > 0 && c.clock.Since(entry.insertedAt) > entry.ttl {
		c.cache.Remove(key)
		return nil, false
	}
	resp := entry.resp.clone()
	resp.FromCache = true
	return resp, true
}

func (c *Client) cacheSet(key string, resp *Response, ttl time.Duration) {
	c.cache.Add(key, cacheEntry{resp: resp.clone(), insertedAt: c.clock.Now(), ttl: ttl})
}

// clone copies r so that callers cannot modify a cached entry.
func (r *Response) clone() *Response {
	out := *r
	out.Data = json.RawMessage(bytes.Clone(r.Data))
	out.Raw = bytes.Clone(r.Raw)
	out.Header = r.Header.Clone()
	return &out
}

// CacheLen returns the number of cached responses, expired ones included.
func (c *Client) CacheLen() int { return c.cache.Len() }

// ClearCache drops every cached response.
func (c *Client) ClearCache() { c.cache.Purge() }

// InvalidateCache drops cached responses whose URL starts with the URL of
// endpoint. It returns the number of entries removed.
func (c *Client) InvalidateCache(endpoint string) int {
	u, err := c.buildURL(endpoint, nil)
	if err != nil {
		return 0
	}
	prefix := requestKey("GET", u)
	return c.removeCached(func(key string) bool { return strings.HasPrefix(key, prefix) })
}

// invalidateResource drops cached GET responses for the resource path of u,
// with or without a query.
func (c *Client) invalidateResource(u string) int {
	parsed, err := url.Parse(u)
	if err != nil {
		return 0
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	base := requestKey("GET", parsed.String())
	return c.removeCached(func(key string) bool {
		return key == base || strings.HasPrefix(key, base+"?")
	})
}

func (c *Client) removeCached(match func(string) bool) int {
	n := 0
	for _, key := range c.cache.Keys() {
		if match(key) && c.cache.Remove(key) {
			n++
		}
	}
	return n
}
