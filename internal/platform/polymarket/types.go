package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/ZanKramar/polymarket-trading/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIMarket represents a market as returned by the Polymarket Gamma API.
type APIMarket struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	ConditionID   string   `json:"conditionId"`
	Slug          string   `json:"slug"`
	Active        flexBool `json:"active"` // API may send bool or "true"/"false" string
	Closed        flexBool `json:"closed"`
	Archived      flexBool `json:"archived"`
	Outcomes      string   `json:"outcomes"`      // JSON-encoded: e.g. "[\"Yes\",\"No\"]"
	OutcomePrices string   `json:"outcomePrices"` // JSON-encoded: e.g. "[\"0.5\",\"0.5\"]"
	Volume        string   `json:"volume"`
	EndDate       string   `json:"endDate"`
	ClobTokenIDs  string   `json:"clobTokenIds"` // JSON-encoded: e.g. "[\"123\",\"456\"]"
	Tokens        []Token  `json:"tokens"`
}

// Token represents a token entry inside the Gamma API market response.
type Token struct {
	TokenID string `json:"token_id"`
	Outcome string `json:"outcome"`
	Winner  bool   `json:"winner"`
}

// Tradeable reports whether the market is open for trading.
func (m *APIMarket) Tradeable() bool {
	return bool(m.Active) && !bool(m.Closed) && !bool(m.Archived)
}

// ToDomainMarket converts an APIMarket to a domain snapshot. The Gamma API
// encodes outcome prices as a JSON array inside a JSON string; the first
// element is the Yes price and the second the No price. Unparseable prices
// default to zero, which no strategy will act on.
func (m *APIMarket) ToDomainMarket() domain.Market {
	out := domain.Market{
		ID:       m.ID,
		Question: m.Question,
		Slug:     m.Slug,
		Active:   m.Tradeable(),
	}

	yes, no, ok := parsePricePair(m.OutcomePrices)
	if ok {
		out.YesPrice = yes
		out.NoPrice = no
	}

	if v, err := strconv.ParseFloat(m.Volume, 64); err == nil {
		out.Volume = v
	}
	if t, err := time.Parse(time.RFC3339, m.EndDate); err == nil {
		out.CloseTime = t
	}
	return out
}

// TokenIDs returns the CLOB token IDs in outcome order (Yes first).
func (m *APIMarket) TokenIDs() []string {
	var ids []string
	if err := json.Unmarshal([]byte(m.ClobTokenIDs), &ids); err != nil {
		return nil
	}
	return ids
}

// parsePricePair decodes a doubly-encoded price array like
// "[\"0.55\",\"0.47\"]" into its two float values.
func parsePricePair(encoded string) (yes, no float64, ok bool) {
	var raw []string
	if err := json.Unmarshal([]byte(encoded), &raw); err != nil || len(raw) < 2 {
		return 0, 0, false
	}
	yes, err1 := strconv.ParseFloat(raw[0], 64)
	no, err2 := strconv.ParseFloat(raw[1], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return yes, no, true
}

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// APIOrderResult is the response from placing an order via the CLOB API.
type APIOrderResult struct {
	Success     bool   `json:"success"`
	ErrorMsg    string `json:"errorMsg,omitempty"`
	OrderID     string `json:"orderID,omitempty"`
	Status      string `json:"status,omitempty"`
	ShouldRetry bool   `json:"shouldRetry,omitempty"`
}

// --------------------------------------------------------------------------
// WebSocket DTOs
// --------------------------------------------------------------------------

// BookMessage represents a full orderbook snapshot for one outcome token
// delivered over WebSocket.
type BookMessage struct {
	AssetID   string         `json:"asset_id"`
	Market    string         `json:"market"`
	Bids      []WSPriceLevel `json:"bids"`
	Asks      []WSPriceLevel `json:"asks"`
	Timestamp string         `json:"timestamp"`
	Hash      string         `json:"hash"`
}

// WSPriceLevel is a single bid/ask level in the WebSocket orderbook data.
type WSPriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// WSCommand is the JSON payload sent to the WebSocket to subscribe or
// unsubscribe.
type WSCommand struct {
	Type    string   `json:"type"` // "subscribe" or "unsubscribe"
	Channel string   `json:"channel,omitempty"`
	Assets  []string `json:"assets_ids,omitempty"`
}

// BookUpdate is the decoded per-token book snapshot handed to feed handlers.
type BookUpdate struct {
	AssetID   string
	MarketID  string
	Bids      []domain.BookLevel
	Asks      []domain.BookLevel
	Timestamp time.Time
}

// ToBookUpdate converts a raw WebSocket book message into typed levels. Bids
// arrive sorted best first, asks likewise; levels that fail to parse are
// dropped.
func (b *BookMessage) ToBookUpdate() BookUpdate {
	upd := BookUpdate{
		AssetID:  b.AssetID,
		MarketID: b.Market,
		Bids:     parseLevels(b.Bids),
		Asks:     parseLevels(b.Asks),
	}
	if ms, err := strconv.ParseInt(b.Timestamp, 10, 64); err == nil {
		upd.Timestamp = time.UnixMilli(ms)
	} else {
		upd.Timestamp = time.Now()
	}
	return upd
}

func parseLevels(raw []WSPriceLevel) []domain.BookLevel {
	out := make([]domain.BookLevel, 0, len(raw))
	for _, lvl := range raw {
		price, err1 := strconv.ParseFloat(lvl.Price, 64)
		size, err2 := strconv.ParseFloat(lvl.Size, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, domain.BookLevel{Price: price, Size: size})
	}
	return out
}
