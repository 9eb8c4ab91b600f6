package domain

// BookCache holds the latest orderbook per market, written only by the feed
// listener goroutine and read by the bot for best-effort snapshot enrichment.
// Staleness is acceptable; the bot always prefers freshly fetched REST data
// and treats the cache purely as enrichment.
type BookCache interface {
	Set(book Orderbook)
	Get(marketID string) (Orderbook, bool)
}

// TokenRef maps an outcome token ID back to its market and side. The market
// data source produces these so the feed listener knows how to fold
// per-token book updates into whole-market orderbooks.
type TokenRef struct {
	MarketID string
	Side     Side
}
