// Package cache holds in-process caches fed by the real-time market data
// listener.
package cache

import (
	"sync"

	"github.com/ZanKramar/polymarket-trading/internal/domain"
)

// BookCache keeps the latest orderbook per market. The feed listener is the
// only writer; the bot reads it for best-effort snapshot enrichment.
type BookCache struct {
	mu    sync.RWMutex
	books map[string]domain.Orderbook
}

// NewBookCache returns an empty cache.
func NewBookCache() *BookCache {
	return &BookCache{books: make(map[string]domain.Orderbook)}
}

// Set stores the latest book for its market, replacing any previous entry.
func (c *BookCache) Set(book domain.Orderbook) {
	c.mu.Lock()
	c.books[book.MarketID] = book
	c.mu.Unlock()
}

// Get returns the latest book for marketID, if one has been seen.
func (c *BookCache) Get(marketID string) (domain.Orderbook, bool) {
	c.mu.RLock()
	book, ok := c.books[marketID]
	c.mu.RUnlock()
	return book, ok
}

// Len returns the number of cached books.
func (c *BookCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.books)
}
