package wallet

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveChain(t *testing.T) {
	backend := &fakeBackend{chainID: big.NewInt(1)}
	session := newTestSession(t, backend, nil)

	var events []Event
	unsubscribe := session.Subscribe(func(ev Event) {
		events = append(events, ev)
	})
	defer unsubscribe()

	t.Run("unchanged id is suppressed", func(t *testing.T) {
		session.observeChain(1)
		session.observeChain(1)
		assert.Empty(t, events)
	})

	t.Run("changed id dispatches once", func(t *testing.T) {
		session.observeChain(56)
		require.Len(t, events, 1)
		assert.Equal(t, EventChainChanged, events[0].Type)
		assert.Equal(t, uint64(56), events[0].ChainID)

		session.observeChain(56)
		assert.Len(t, events, 1)
	})

	t.Run("change back dispatches again", func(t *testing.T) {
		session.observeChain(1)
		assert.Len(t, events, 2)
	})
}

func TestObserveAccount(t *testing.T) {
	backend := &fakeBackend{chainID: big.NewInt(1)}
	session := newTestSession(t, backend, nil)

	var events []Event
	unsubscribe := session.Subscribe(func(ev Event) {
		events = append(events, ev)
	})
	defer unsubscribe()

	session.observeAccount(session.Address())
	assert.Empty(t, events, "the connect-time account is already observed")

	other := common.HexToAddress("0x04")
	session.observeAccount(other)
	require.Len(t, events, 1)
	assert.Equal(t, EventAccountChanged, events[0].Type)
	assert.Equal(t, other, events[0].Account)
}

func TestUnsubscribe(t *testing.T) {
	backend := &fakeBackend{chainID: big.NewInt(1)}
	session := newTestSession(t, backend, nil)

	var calls int
	unsubscribe := session.Subscribe(func(Event) { calls++ })

	session.observeChain(2)
	assert.Equal(t, 1, calls)

	unsubscribe()
	unsubscribe() // idempotent

	session.observeChain(3)
	assert.Equal(t, 1, calls)
}

func TestMultipleSubscribers(t *testing.T) {
	backend := &fakeBackend{chainID: big.NewInt(1)}
	session := newTestSession(t, backend, nil)

	var a, b int
	defer session.Subscribe(func(Event) { a++ })()
	defer session.Subscribe(func(Event) { b++ })()

	session.observeChain(2)
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}
