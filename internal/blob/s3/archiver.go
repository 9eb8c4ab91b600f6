package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ZanKramar/polymarket-trading/internal/domain"
)

// PositionSource exposes the position ledger's current contents for
// archival. The ledger satisfies this with its ListAll method.
type PositionSource interface {
	ListAll() []domain.Position
}

// PaperTradeSource exposes the paper-trade ledger's current contents for
// archival, resolved records included.
type PaperTradeSource interface {
	All() []domain.PaperTrade
}

// BlobPutter is the single upload operation the archiver needs.
type BlobPutter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// Archiver periodically serialises both ledgers to JSONL and uploads the
// result. Uploads are best effort: a failed cycle is logged and the next
// tick retries with fresh data, so no upload is ever individually critical.
type Archiver struct {
	writer    BlobPutter
	positions PositionSource
	papers    PaperTradeSource
	interval  time.Duration
	log       *slog.Logger
	now       func() time.Time
}

// NewArchiver creates an Archiver that snapshots positions and papers every
// interval once Run is called.
func NewArchiver(writer BlobPutter, positions PositionSource, papers PaperTradeSource, interval time.Duration, log *slog.Logger) *Archiver {
	return &Archiver{
		writer:    writer,
		positions: positions,
		papers:    papers,
		interval:  interval,
		log:       log.With("component", "archiver"),
		now:       time.Now,
	}
}

// Run uploads snapshots on each tick until ctx is cancelled, with one final
// snapshot on the way out.
func (a *Archiver) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			a.Snapshot(flushCtx)
			cancel()
			return ctx.Err()
		case <-ticker.C:
			a.Snapshot(ctx)
		}
	}
}

// Snapshot uploads the current state of both ledgers. Failures are logged
// per upload and do not abort the other upload.
func (a *Archiver) Snapshot(ctx context.Context) {
	ts := a.now().UTC()

	if n, err := uploadJSONL(ctx, a.writer, "positions", ts, a.positions.ListAll()); err != nil {
		a.log.Error("position snapshot upload failed", "error", err)
	} else if n > 0 {
		a.log.Info("position snapshot archived", "records", n)
	}

	if n, err := uploadJSONL(ctx, a.writer, "paper_trades", ts, a.papers.All()); err != nil {
		a.log.Error("paper trade snapshot upload failed", "error", err)
	} else if n > 0 {
		a.log.Info("paper trade snapshot archived", "records", n)
	}
}

// uploadJSONL marshals records and uploads them under the kind's snapshot
// path. An empty slice uploads nothing.
func uploadJSONL[T any](ctx context.Context, w BlobPutter, kind string, ts time.Time, records []T) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	buf, err := marshalJSONL(records)
	if err != nil {
		return 0, fmt.Errorf("s3blob: marshal %s: %w", kind, err)
	}

	path := snapshotPath(kind, ts)
	if err := w.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: upload %s: %w", path, err)
	}
	return len(records), nil
}

// snapshotPath builds the object key, partitioned by day with a
// minute-resolution filename so successive snapshots never collide:
//
//	snapshots/positions/2025-09-01/1430.jsonl
func snapshotPath(kind string, ts time.Time) string {
	return fmt.Sprintf("snapshots/%s/%s/%s.jsonl", kind, ts.Format("2006-01-02"), ts.Format("1504"))
}

// marshalJSONL serialises records as newline-delimited JSON, one compact
// line per record.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
