package polymarket

import (
	"encoding/json"
	"strconv"
	"testing"
	"time"
)

func TestWindowSlugsAlignedToPeriod(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 7, 33, 0, time.UTC)
	slugs := WindowSlugs(now, 3)

	// Previous + current + 3 future windows.
	if len(slugs) != 5 {
		t.Fatalf("got %d slugs, want 5", len(slugs))
	}

	// 12:07:33 falls inside the window starting at 12:00:00; the list also
	// covers the still-open near-expiry market of the 11:45:00 window.
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	want := []string{
		"btc-updown-15m-" + itoa(start.Add(-15*time.Minute).Unix()),
		"btc-updown-15m-" + itoa(start.Unix()),
		"btc-updown-15m-" + itoa(start.Add(15*time.Minute).Unix()),
		"btc-updown-15m-" + itoa(start.Add(30*time.Minute).Unix()),
		"btc-updown-15m-" + itoa(start.Add(45*time.Minute).Unix()),
	}
	for i := range want {
		if slugs[i] != want[i] {
			t.Errorf("slug[%d] = %s, want %s", i, slugs[i], want[i])
		}
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func TestWindowSlugsStableWithinWindow(t *testing.T) {
	a := WindowSlugs(time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC), 2)
	b := WindowSlugs(time.Date(2026, 3, 1, 12, 14, 59, 0, time.UTC), 2)
	if a[0] != b[0] {
		t.Errorf("same window produced different slugs: %s vs %s", a[0], b[0])
	}
}

func TestAPIMarketToDomain(t *testing.T) {
	raw := `{
		"id": "0xm1",
		"question": "Bitcoin Up or Down - March 1, 12PM ET",
		"slug": "btc-updown-15m-1772380800",
		"active": "true",
		"closed": false,
		"outcomePrices": "[\"0.55\",\"0.47\"]",
		"volume": "1234.5",
		"endDate": "2026-03-01T12:15:00Z"
	}`

	var m APIMarket
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	d := m.ToDomainMarket()
	if d.YesPrice != 0.55 || d.NoPrice != 0.47 {
		t.Errorf("prices = %v/%v, want 0.55/0.47", d.YesPrice, d.NoPrice)
	}
	if d.Volume != 1234.5 {
		t.Errorf("volume = %v", d.Volume)
	}
	if !d.Active {
		t.Error("market should be active")
	}
	if d.CloseTime.IsZero() {
		t.Error("close time not parsed")
	}
}

func TestAPIMarketFlexBoolVariants(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want bool
	}{
		{"bool true", `{"active": true, "closed": false}`, true},
		{"string true", `{"active": "true", "closed": false}`, true},
		{"string false", `{"active": "false", "closed": false}`, false},
		{"closed wins", `{"active": true, "closed": true}`, false},
		{"archived wins", `{"active": true, "closed": false, "archived": true}`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var m APIMarket
			if err := json.Unmarshal([]byte(tc.raw), &m); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if m.Tradeable() != tc.want {
				t.Errorf("Tradeable() = %v, want %v", m.Tradeable(), tc.want)
			}
		})
	}
}

func TestAPIMarketMalformedPrices(t *testing.T) {
	var m APIMarket
	if err := json.Unmarshal([]byte(`{"id":"m1","outcomePrices":"not json","active":true}`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	d := m.ToDomainMarket()
	if d.YesPrice != 0 || d.NoPrice != 0 {
		t.Errorf("malformed prices should default to zero, got %v/%v", d.YesPrice, d.NoPrice)
	}
}

func TestBookMessageToBookUpdate(t *testing.T) {
	msg := BookMessage{
		AssetID:   "tok1",
		Market:    "0xm1",
		Bids:      []WSPriceLevel{{Price: "0.48", Size: "100"}, {Price: "bad", Size: "1"}},
		Asks:      []WSPriceLevel{{Price: "0.52", Size: "80"}},
		Timestamp: "1772380800000",
	}

	upd := msg.ToBookUpdate()
	if len(upd.Bids) != 1 {
		t.Fatalf("bids = %d, want 1 (malformed level dropped)", len(upd.Bids))
	}
	if upd.Bids[0].Price != 0.48 || upd.Bids[0].Size != 100 {
		t.Errorf("bid = %+v", upd.Bids[0])
	}
	if upd.Timestamp.UnixMilli() != 1772380800000 {
		t.Errorf("timestamp = %v", upd.Timestamp)
	}
}
