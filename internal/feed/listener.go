// Package feed runs the real-time market data listener. It is the only
// writer to the orderbook cache; the bot reads the cache for best-effort
// snapshot enrichment and never depends on it being fresh.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ZanKramar/polymarket-trading/internal/domain"
	"github.com/ZanKramar/polymarket-trading/internal/platform/polymarket"
)

// Listener subscribes to per-token book snapshots over the CLOB WebSocket,
// merges the two outcome tokens of each market into one orderbook, and
// publishes the result to the cache.
type Listener struct {
	wsURL string
	cache domain.BookCache
	log   *slog.Logger

	mu     sync.Mutex
	client *polymarket.WSClient
	tokens map[string]domain.TokenRef // asset ID -> market/side
	subbed map[string]bool            // asset IDs already subscribed
}

// NewListener creates a listener publishing into cache.
func NewListener(wsURL string, cache domain.BookCache, log *slog.Logger) *Listener {
	return &Listener{
		wsURL:  wsURL,
		cache:  cache,
		log:    log.With("component", "feed"),
		tokens: make(map[string]domain.TokenRef),
		subbed: make(map[string]bool),
	}
}

// Run connects and serves book updates until ctx is cancelled. Connection
// drops are retried with a fixed delay; the WebSocket client handles its own
// mid-session reconnects.
func (l *Listener) Run(ctx context.Context) error {
	for {
		if err := l.connect(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.log.Warn("feed connect failed, retrying", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
				continue
			}
		}
		break
	}

	<-ctx.Done()

	l.mu.Lock()
	if l.client != nil {
		_ = l.client.Close()
	}
	l.mu.Unlock()
	return ctx.Err()
}

func (l *Listener) connect(ctx context.Context) error {
	client := polymarket.NewWSClient(l.wsURL)
	client.OnBook(l.handleBook)

	connCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := client.Connect(connCtx); err != nil {
		return err
	}

	l.mu.Lock()
	l.client = client
	l.mu.Unlock()
	l.log.Info("feed connected", "url", l.wsURL)
	return nil
}

// Watch registers outcome tokens to stream books for. Tokens already watched
// are skipped; new ones are subscribed on the live connection. Failures are
// logged and left for the next Watch call, since enrichment is best effort.
func (l *Listener) Watch(tokens map[string]domain.TokenRef) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var fresh []string
	for assetID, ref := range tokens {
		l.tokens[assetID] = ref
		if !l.subbed[assetID] {
			fresh = append(fresh, assetID)
		}
	}
	if len(fresh) == 0 || l.client == nil {
		return
	}

	if err := l.client.Subscribe(fresh); err != nil {
		l.log.Warn("book subscription failed", "assets", len(fresh), "error", err)
		return
	}
	for _, id := range fresh {
		l.subbed[id] = true
	}
	l.log.Debug("subscribed to books", "assets", len(fresh))
}

// handleBook merges a per-token snapshot into the market's cached orderbook.
// Reading back the previous entry is safe because this handler is the only
// writer.
func (l *Listener) handleBook(upd polymarket.BookUpdate) {
	l.mu.Lock()
	ref, ok := l.tokens[upd.AssetID]
	l.mu.Unlock()
	if !ok {
		return
	}

	book, _ := l.cache.Get(ref.MarketID)
	book.MarketID = ref.MarketID
	side := domain.BookSide{Bids: upd.Bids, Asks: upd.Asks}
	if ref.Side == domain.SideYes {
		book.Yes = side
	} else {
		book.No = side
	}
	book.UpdatedAt = upd.Timestamp
	l.cache.Set(book)
}
