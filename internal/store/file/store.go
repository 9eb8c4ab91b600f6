// Package file implements the ledger snapshot store on top of plain JSON
// files, rewritten wholesale on every save. Writes go through a temp file and
// rename so a crash mid-write never leaves a truncated snapshot behind.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZanKramar/polymarket-trading/internal/domain"
)

// Store persists position and paper-trade snapshots as two independent JSON
// files, keyed the way the ledgers key them. The files are human-inspectable.
type Store struct {
	positionsPath   string
	paperTradesPath string
}

// New creates a file-backed snapshot store writing to the given paths.
func New(positionsPath, paperTradesPath string) *Store {
	return &Store{
		positionsPath:   positionsPath,
		paperTradesPath: paperTradesPath,
	}
}

// LoadPositions reads the positions snapshot. A missing file yields an empty
// map; a malformed file is an error for the caller to log and discard.
func (s *Store) LoadPositions(_ context.Context) (map[string]domain.Position, error) {
	out := make(map[string]domain.Position)
	if err := loadJSON(s.positionsPath, &out); err != nil {
		return nil, fmt.Errorf("file: load positions: %w", err)
	}
	return out, nil
}

// SavePositions rewrites the whole positions snapshot.
func (s *Store) SavePositions(_ context.Context, positions map[string]domain.Position) error {
	if err := saveJSON(s.positionsPath, positions); err != nil {
		return fmt.Errorf("file: save positions: %w", err)
	}
	return nil
}

// LoadPaperTrades reads the paper-trade snapshot. A missing file yields an
// empty map; a malformed file is an error for the caller to log and discard.
func (s *Store) LoadPaperTrades(_ context.Context) (map[string]domain.PaperTrade, error) {
	out := make(map[string]domain.PaperTrade)
	if err := loadJSON(s.paperTradesPath, &out); err != nil {
		return nil, fmt.Errorf("file: load paper trades: %w", err)
	}
	return out, nil
}

// SavePaperTrades rewrites the whole paper-trade snapshot.
func (s *Store) SavePaperTrades(_ context.Context, trades map[string]domain.PaperTrade) error {
	if err := saveJSON(s.paperTradesPath, trades); err != nil {
		return fmt.Errorf("file: save paper trades: %w", err)
	}
	return nil
}

func loadJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, dst)
}

func saveJSON(path string, src any) error {
	data, err := json.MarshalIndent(src, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
