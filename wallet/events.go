package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// EventType identifies an out-of-band session change.
type EventType string

const (
	EventChainChanged   EventType = "chain_changed"
	EventAccountChanged EventType = "account_changed"
)

// Event is delivered to subscribed observers when the connected chain
// or account changes.
type Event struct {
	Type    EventType
	ChainID uint64
	Account common.Address
}

type observerSet struct {
	mu          sync.Mutex
	nextID      int
	listeners   map[int]func(Event)
	lastChainID uint64
	lastAccount common.Address
}

// Subscribe registers an observer for chain/account change events and
// returns its unsubscribe function. Unsubscribing is idempotent, so a
// reconnecting caller can always defer it without leaking listeners.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.observers.mu.Lock()
	defer s.observers.mu.Unlock()

	if s.observers.listeners == nil {
		s.observers.listeners = make(map[int]func(Event))
	}
	id := s.observers.nextID
	s.observers.nextID++
	s.observers.listeners[id] = fn

	return func() {
		s.observers.mu.Lock()
		defer s.observers.mu.Unlock()
		delete(s.observers.listeners, id)
	}
}

// Watch polls the backend for chain changes until ctx is cancelled.
// Notifications are idempotent: an unchanged chain id produces no
// callback.
func (s *Session) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			chainID, err := s.backend.ChainID(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Warn("Chain id poll failed", zap.Error(err))
				continue
			}
			s.observeChain(chainID.Uint64())
		}
	}
}

// observeChain dispatches a chain-changed event if, and only if, the
// id differs from the last observed one.
func (s *Session) observeChain(chainID uint64) {
	s.observers.mu.Lock()
	if chainID == s.observers.lastChainID {
		s.observers.mu.Unlock()
		return
	}
	s.observers.lastChainID = chainID
	listeners := snapshot(s.observers.listeners)
	account := s.observers.lastAccount
	s.observers.mu.Unlock()

	s.logger.Warn("Connected chain changed", zap.Uint64("chain_id", chainID))
	dispatch(listeners, Event{Type: EventChainChanged, ChainID: chainID, Account: account})
}

// observeAccount dispatches an account-changed event with the same
// duplicate suppression as observeChain.
func (s *Session) observeAccount(account common.Address) {
	s.observers.mu.Lock()
	if account == s.observers.lastAccount {
		s.observers.mu.Unlock()
		return
	}
	s.observers.lastAccount = account
	listeners := snapshot(s.observers.listeners)
	chainID := s.observers.lastChainID
	s.observers.mu.Unlock()

	s.logger.Warn("Connected account changed", zap.String("account", account.Hex()))
	dispatch(listeners, Event{Type: EventAccountChanged, ChainID: chainID, Account: account})
}

func snapshot(listeners map[int]func(Event)) []func(Event) {
	out := make([]func(Event), 0, len(listeners))
	for _, fn := range listeners {
		out = append(out, fn)
	}
	return out
}

func dispatch(listeners []func(Event), ev Event) {
	for _, fn := range listeners {
		fn(ev)
	}
}
