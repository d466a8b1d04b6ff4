package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/arbvault/arbctl/types"
	"go.uber.org/zap"
)

// MaxEntries caps the persisted history; the oldest entries are
// evicted first.
const MaxEntries = 50

// Store owns the persisted transaction history: an append-only,
// newest-first list capped at MaxEntries, serialized as JSON.
type Store struct {
	path   string
	logger *zap.Logger

	mu sync.Mutex
}

// NewStore creates a store backed by the JSON file at path.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history path cannot be empty")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &Store{path: path, logger: logger}, nil
}

// Load returns the persisted records, newest first. When nothing has
// been persisted yet it returns the demo seed so a first run shows a
// populated history; the seed is never written back.
func (s *Store) Load() ([]*types.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return demoSeed(), nil
	}
	return records, nil
}

// Append prepends a record and truncates the list to MaxEntries.
func (s *Store) Append(rec *types.TransactionRecord) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return err
	}
	records = append([]*types.TransactionRecord{rec}, records...)
	if len(records) > MaxEntries {
		records = records[:MaxEntries]
	}
	return s.write(records)
}

// Update re-persists an already-appended record, matched by id. The
// store does not interpret the change; status transitions are the
// lifecycle manager's responsibility.
func (s *Store) Update(rec *types.TransactionRecord) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return err
	}
	for i, r := range records {
		if r.ID == rec.ID {
			records[i] = rec
			return s.write(records)
		}
	}
	return fmt.Errorf("record %s not found", rec.ID)
}

// read returns only what is persisted; the demo seed is a Load-time
// presentation concern.
func (s *Store) read() ([]*types.TransactionRecord, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var records []*types.TransactionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return records, nil
}

func (s *Store) write(records []*types.TransactionRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace history: %w", err)
	}
	return nil
}

// demoSeed gives first-time users a populated history. The entries are
// fabricated and must never be persisted as real activity.
func demoSeed() []*types.TransactionRecord {
	now := time.Now().UnixMilli()
	return []*types.TransactionRecord{
		{
			ID:        "demo1",
			Kind:      types.KindFlashLoan,
			CreatedAt: now - 3*60*60*1000,
			Asset:     "WETH",
			Amount:    "10.0",
			Status:    types.StatusSuccess,
			TxHash:    "0x3f5c9b7d2a914e06c8d14febc14c7a63a8b1d0e14deef2b60e2e5f5f2b1a9c01",
		},
		{
			ID:        "demo2",
			Kind:      types.KindSwap,
			CreatedAt: now - 2*60*60*1000,
			Asset:     "WETH → USDC",
			Amount:    "10.0 → 24731.52",
			Status:    types.StatusSuccess,
			TxHash:    "0x88d1a4c6f0b34a5d9c6f3d2e1b0a99887766554433221100ffeeddccbbaa9902",
		},
		{
			ID:        "demo3",
			Kind:      types.KindWithdrawal,
			CreatedAt: now - 60*60*1000,
			Asset:     "ETH",
			Status:    types.StatusSuccess,
			TxHash:    "0xc0ffee254729296a45a3885639ac7e10f9d54979ae0c4f1f1b5f1c2d3e4f5a03",
		},
	}
}
