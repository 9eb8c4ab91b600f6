package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ZanKramar/polymarket-trading/internal/domain"
)

// windowPeriod is the cadence of the recurring BTC up/down markets. Each
// market's slug embeds the Unix timestamp of its window start, aligned to
// this period.
const windowPeriod = 15 * time.Minute

// GammaClient is the REST client for the Polymarket Gamma API, which
// provides market discovery and resolution state. Its fetch methods never
// fail the caller on transport errors; they log and return what they have,
// so a flaky API reads as "no data this cycle".
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string, log *slog.Logger) *GammaClient {
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With("component", "gamma"),
	}
}

// FetchActiveMarkets pages through /markets and returns up to maxTotal
// tradeable snapshots, limit per page. A transport or decode failure ends
// pagination early and returns whatever was collected, possibly nothing.
func (g *GammaClient) FetchActiveMarkets(ctx context.Context, limit, maxTotal int) []domain.Market {
	var out []domain.Market

	for offset := 0; len(out) < maxTotal; offset += limit {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(limit))
		params.Set("offset", strconv.Itoa(offset))
		params.Set("active", "true")
		params.Set("closed", "false")

		body, err := g.doGet(ctx, "/markets?"+params.Encode())
		if err != nil {
			g.log.Warn("market page fetch failed, ending pagination", "offset", offset, "error", err)
			break
		}

		var page []APIMarket
		if err := json.Unmarshal(body, &page); err != nil {
			g.log.Warn("market page decode failed, ending pagination", "offset", offset, "error", err)
			break
		}
		if len(page) == 0 {
			break
		}

		for i := range page {
			if !page[i].Tradeable() {
				continue
			}
			out = append(out, page[i].ToDomainMarket())
			if len(out) >= maxTotal {
				break
			}
		}
		if len(page) < limit {
			break
		}
	}
	return out
}

// WindowSlugs returns the slugs of the BTC up/down markets covering the
// previous window, the current window, and the following futureCount
// windows. The previous window matters because its market is usually still
// open and near expiry, which the close-time strategies trade. Window starts
// are aligned to the recurring period.
func WindowSlugs(now time.Time, futureCount int) []string {
	start := now.UTC().Truncate(windowPeriod)
	slugs := make([]string, 0, futureCount+2)
	for i := -1; i <= futureCount; i++ {
		ts := start.Add(time.Duration(i) * windowPeriod).Unix()
		slugs = append(slugs, fmt.Sprintf("btc-updown-15m-%d", ts))
	}
	return slugs
}

// FetchWindowMarkets looks up the deterministic BTC up/down slugs for the
// previous, current, and upcoming windows and returns the tradeable ones,
// together with the outcome-token mapping for the real-time book feed. Slugs
// that do not exist yet are skipped quietly; other failures are logged and
// skipped.
func (g *GammaClient) FetchWindowMarkets(ctx context.Context, count int) ([]domain.Market, map[string]domain.TokenRef) {
	var out []domain.Market
	tokens := make(map[string]domain.TokenRef)

	for _, slug := range WindowSlugs(time.Now(), count) {
		m, err := g.GetMarketBySlug(ctx, slug)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				g.log.Warn("window market fetch failed", "slug", slug, "error", err)
			}
			continue
		}
		if !m.Tradeable() {
			continue
		}
		out = append(out, m.ToDomainMarket())

		// Token IDs come in outcome order: Up (Yes) first, Down (No) second.
		if ids := m.TokenIDs(); len(ids) >= 2 {
			tokens[ids[0]] = domain.TokenRef{MarketID: m.ID, Side: domain.SideYes}
			tokens[ids[1]] = domain.TokenRef{MarketID: m.ID, Side: domain.SideNo}
		}
	}
	return out, tokens
}

// GetMarketBySlug returns the raw market looked up by its URL slug, so
// callers can reach token IDs as well as the domain snapshot.
func (g *GammaClient) GetMarketBySlug(ctx context.Context, slug string) (APIMarket, error) {
	params := url.Values{}
	params.Set("slug", slug)

	body, err := g.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return APIMarket{}, fmt.Errorf("polymarket/gamma: get market by slug %s: %w", slug, err)
	}

	var markets []APIMarket
	if err := json.Unmarshal(body, &markets); err != nil {
		return APIMarket{}, fmt.Errorf("polymarket/gamma: decode markets: %w", err)
	}
	if len(markets) == 0 {
		return APIMarket{}, fmt.Errorf("polymarket/gamma: %w: slug=%s", domain.ErrNotFound, slug)
	}
	return markets[0], nil
}

// MarketResolution holds the resolution state of a market.
type MarketResolution struct {
	Closed bool // market is closed/settled
	YesWon bool // the Yes outcome won (only meaningful when Closed)
}

// GetMarketResolution fetches a market by ID and reports whether it has
// closed and which side won. Used by the paper-trade resolution sweep.
func (g *GammaClient) GetMarketResolution(ctx context.Context, marketID string) (MarketResolution, error) {
	body, err := g.doGet(ctx, "/markets/"+url.PathEscape(marketID))
	if err != nil {
		return MarketResolution{}, fmt.Errorf("polymarket/gamma: get market %s: %w", marketID, err)
	}

	var m APIMarket
	if err := json.Unmarshal(body, &m); err != nil {
		return MarketResolution{}, fmt.Errorf("polymarket/gamma: decode market: %w", err)
	}

	res := MarketResolution{Closed: bool(m.Closed)}
	for _, t := range m.Tokens {
		if t.Outcome == "Yes" && t.Winner {
			res.YesWon = true
			break
		}
	}
	if res.Closed && len(m.Tokens) == 0 {
		// Some Gamma responses omit tokens; fall back to settled prices.
		if yes, _, ok := parsePricePair(m.OutcomePrices); ok {
			res.YesWon = yes >= 0.99
		}
	}
	return res, nil
}

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}
