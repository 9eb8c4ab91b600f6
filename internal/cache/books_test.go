package cache

import (
	"testing"
	"time"

	"github.com/ZanKramar/polymarket-trading/internal/domain"
)

func TestBookCacheSetGet(t *testing.T) {
	c := NewBookCache()

	if _, ok := c.Get("m1"); ok {
		t.Error("empty cache returned a book")
	}

	book := domain.Orderbook{
		MarketID: "m1",
		Yes: domain.BookSide{
			Bids: []domain.BookLevel{{Price: 0.48, Size: 100}},
			Asks: []domain.BookLevel{{Price: 0.52, Size: 80}},
		},
		UpdatedAt: time.Now(),
	}
	c.Set(book)

	got, ok := c.Get("m1")
	if !ok {
		t.Fatal("book missing after Set")
	}
	if got.Yes.Bids[0].Price != 0.48 {
		t.Errorf("best bid = %v, want 0.48", got.Yes.Bids[0].Price)
	}
}

func TestBookCacheReplaces(t *testing.T) {
	c := NewBookCache()

	c.Set(domain.Orderbook{MarketID: "m1", Yes: domain.BookSide{Bids: []domain.BookLevel{{Price: 0.40, Size: 1}}}})
	c.Set(domain.Orderbook{MarketID: "m1", Yes: domain.BookSide{Bids: []domain.BookLevel{{Price: 0.45, Size: 1}}}})

	got, _ := c.Get("m1")
	if got.Yes.Bids[0].Price != 0.45 {
		t.Errorf("stale book survived replace: %v", got.Yes.Bids[0].Price)
	}
	if c.Len() != 1 {
		t.Errorf("len = %d, want 1", c.Len())
	}
}
