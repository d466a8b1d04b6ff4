package types

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Kind classifies a transaction record.
type Kind string

const (
	KindFlashLoan  Kind = "flash_loan"
	KindSwap       Kind = "swap"
	KindRepay      Kind = "repay"
	KindWithdrawal Kind = "withdrawal"
)

// Status is the lifecycle state of a record. Transitions are monotonic:
// pending moves to exactly one of success or failed and never back.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// TransactionRecord is one entry of the local transaction history.
type TransactionRecord struct {
	ID        string `json:"id"`
	Kind      Kind   `json:"kind"`
	CreatedAt int64  `json:"created_at"`
	Asset     string `json:"asset,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Status    Status `json:"status"`
	TxHash    string `json:"tx_hash,omitempty"`
}

var idSeq uint64

// NewRecordID generates a process-local unique identifier. The id is
// not derived from any on-chain value.
func NewRecordID() string {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], atomic.AddUint64(&idSeq, 1))
	binary.BigEndian.PutUint64(buf[8:], uint64(time.Now().UnixNano()))
	return fmt.Sprintf("%016x", xxhash.Sum64(buf[:]))
}

// NewPendingRecord creates a record for a locally submitted call.
func NewPendingRecord(kind Kind, asset, amount string) *TransactionRecord {
	return &TransactionRecord{
		ID:        NewRecordID(),
		Kind:      kind,
		CreatedAt: time.Now().UnixMilli(),
		Asset:     asset,
		Amount:    amount,
		Status:    StatusPending,
	}
}

// NewDerivedRecord creates a terminal record synthesized from a decoded
// receipt event.
func NewDerivedRecord(kind Kind, asset, amount, txHash string) *TransactionRecord {
	return &TransactionRecord{
		ID:        NewRecordID(),
		Kind:      kind,
		CreatedAt: time.Now().UnixMilli(),
		Asset:     asset,
		Amount:    amount,
		Status:    StatusSuccess,
		TxHash:    txHash,
	}
}

// SetTxHash records the chain transaction hash. The hash is immutable
// once set.
func (r *TransactionRecord) SetTxHash(hash string) error {
	if r.TxHash != "" && r.TxHash != hash {
		return fmt.Errorf("tx hash already set to %s", r.TxHash)
	}
	r.TxHash = hash
	return nil
}

// Finalize applies a terminal status. A record is finalized at most
// once; a second transition or a transition to pending is rejected.
func (r *TransactionRecord) Finalize(status Status) error {
	if status != StatusSuccess && status != StatusFailed {
		return fmt.Errorf("cannot finalize to %q", status)
	}
	if r.Status != StatusPending {
		return fmt.Errorf("record %s already %s", r.ID, r.Status)
	}
	r.Status = status
	return nil
}

// Terminal reports whether the record has reached a terminal status.
func (r *TransactionRecord) Terminal() bool {
	return r.Status == StatusSuccess || r.Status == StatusFailed
}
