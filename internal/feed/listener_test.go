package feed

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ZanKramar/polymarket-trading/internal/cache"
	"github.com/ZanKramar/polymarket-trading/internal/domain"
	"github.com/ZanKramar/polymarket-trading/internal/platform/polymarket"
)

func testListener(c domain.BookCache) *Listener {
	return NewListener("wss://example", c, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandleBookMergesBothSides(t *testing.T) {
	books := cache.NewBookCache()
	l := testListener(books)
	l.Watch(map[string]domain.TokenRef{
		"tok-yes": {MarketID: "m1", Side: domain.SideYes},
		"tok-no":  {MarketID: "m1", Side: domain.SideNo},
	})

	now := time.Now()
	l.handleBook(polymarket.BookUpdate{
		AssetID:   "tok-yes",
		Bids:      []domain.BookLevel{{Price: 0.48, Size: 100}},
		Asks:      []domain.BookLevel{{Price: 0.52, Size: 80}},
		Timestamp: now,
	})
	l.handleBook(polymarket.BookUpdate{
		AssetID:   "tok-no",
		Bids:      []domain.BookLevel{{Price: 0.46, Size: 50}},
		Asks:      []domain.BookLevel{{Price: 0.54, Size: 60}},
		Timestamp: now.Add(time.Second),
	})

	book, ok := books.Get("m1")
	if !ok {
		t.Fatal("book missing after both updates")
	}
	if len(book.Yes.Bids) != 1 || book.Yes.Bids[0].Price != 0.48 {
		t.Errorf("yes side = %+v", book.Yes)
	}
	if len(book.No.Asks) != 1 || book.No.Asks[0].Price != 0.54 {
		t.Errorf("no side = %+v", book.No)
	}
	// Second update must not clobber the first token's side.
	if len(book.Yes.Asks) != 1 {
		t.Error("yes asks lost when merging no-side update")
	}
}

func TestHandleBookIgnoresUnknownToken(t *testing.T) {
	books := cache.NewBookCache()
	l := testListener(books)

	l.handleBook(polymarket.BookUpdate{AssetID: "mystery", Timestamp: time.Now()})
	if books.Len() != 0 {
		t.Error("unknown token produced a cache entry")
	}
}
