package wallet

import (
	"errors"
	"fmt"
)

var (
	// ErrWalletUnavailable means no provider endpoint or key material
	// was configured, so no session can be established.
	ErrWalletUnavailable = errors.New("wallet unavailable")

	// ErrNotConnected means an operation requires a bound session that
	// has not been established yet.
	ErrNotConnected = errors.New("not connected")

	// ErrNetworkMismatch means the connected chain is not in the
	// supported set.
	ErrNetworkMismatch = errors.New("unsupported network")
)

// NetworkMismatchError carries the offending chain id alongside
// ErrNetworkMismatch.
type NetworkMismatchError struct {
	ChainID   uint64
	Supported []uint64
}

func (e *NetworkMismatchError) Error() string {
	return fmt.Sprintf("chain %d is not supported (supported: %v)", e.ChainID, e.Supported)
}

func (e *NetworkMismatchError) Is(target error) bool {
	return target == ErrNetworkMismatch
}
