package s3blob

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ZanKramar/polymarket-trading/internal/domain"
)

type fakePutter struct {
	puts map[string]string
	err  error
}

func (p *fakePutter) Put(ctx context.Context, path string, data io.Reader, contentType string) error {
	if p.err != nil {
		return p.err
	}
	body, _ := io.ReadAll(data)
	if p.puts == nil {
		p.puts = make(map[string]string)
	}
	p.puts[path] = string(body)
	return nil
}

type fixedPositions []domain.Position

func (f fixedPositions) ListAll() []domain.Position { return f }

type fixedPapers []domain.PaperTrade

func (f fixedPapers) All() []domain.PaperTrade { return f }

func testArchiver(putter BlobPutter, positions PositionSource, papers PaperTradeSource) *Archiver {
	a := NewArchiver(putter, positions, papers, time.Minute,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	a.now = func() time.Time {
		return time.Date(2025, 9, 1, 14, 30, 0, 0, time.UTC)
	}
	return a
}

func TestSnapshotUploadsBothLedgers(t *testing.T) {
	putter := &fakePutter{}
	positions := fixedPositions{
		{Strategy: "alpha", MarketID: "m1", Side: domain.SideYes, Shares: 10, EntryPrice: 0.40},
	}
	papers := fixedPapers{
		{TradeID: "t1", MarketID: "m1", Side: domain.SideYes, Amount: 10, EntryPrice: 0.40},
		{TradeID: "t2", MarketID: "m2", Side: domain.SideNo, Amount: 5, EntryPrice: 0.55, Resolved: true},
	}

	testArchiver(putter, positions, papers).Snapshot(context.Background())

	posBody, ok := putter.puts["snapshots/positions/2025-09-01/1430.jsonl"]
	if !ok {
		t.Fatalf("missing positions upload, got keys %v", keys(putter.puts))
	}
	if got := strings.Count(posBody, "\n"); got != 1 {
		t.Errorf("positions lines = %d, want 1", got)
	}

	paperBody, ok := putter.puts["snapshots/paper_trades/2025-09-01/1430.jsonl"]
	if !ok {
		t.Fatalf("missing paper trades upload, got keys %v", keys(putter.puts))
	}
	if got := strings.Count(paperBody, "\n"); got != 2 {
		t.Errorf("paper trade lines = %d, want 2", got)
	}
	if !strings.Contains(paperBody, `"trade_id":"t1"`) {
		t.Errorf("paper body missing t1: %s", paperBody)
	}
}

func TestSnapshotSkipsEmptyLedgers(t *testing.T) {
	putter := &fakePutter{}

	testArchiver(putter, fixedPositions{}, fixedPapers{}).Snapshot(context.Background())

	if len(putter.puts) != 0 {
		t.Errorf("expected no uploads for empty ledgers, got %v", keys(putter.puts))
	}
}

func TestSnapshotToleratesUploadFailure(t *testing.T) {
	putter := &fakePutter{err: errors.New("bucket gone")}
	positions := fixedPositions{{Strategy: "alpha", MarketID: "m1", Side: domain.SideYes, Shares: 1}}

	// Must not panic or abort; failures are logged and retried next tick.
	testArchiver(putter, positions, fixedPapers{}).Snapshot(context.Background())
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
