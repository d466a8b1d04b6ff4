package history

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/arbvault/arbctl/types"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.json")
	store, err := NewStore(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	return store, path
}

func TestNewStore(t *testing.T) {
	logger := zaptest.NewLogger(t)

	_, err := NewStore("", logger)
	require.Error(t, err)

	_, err = NewStore("history.json", nil)
	require.Error(t, err)
}

func TestLoadDemoSeed(t *testing.T) {
	store, path := newTestStore(t)

	records, err := store.Load()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "demo1", records[0].ID)
	assert.Equal(t, types.KindFlashLoan, records[0].Kind)
	assert.Equal(t, "demo2", records[1].ID)
	assert.Equal(t, types.KindSwap, records[1].Kind)
	assert.Equal(t, "demo3", records[2].ID)
	assert.Equal(t, types.KindWithdrawal, records[2].Kind)
	for _, r := range records {
		assert.Equal(t, types.StatusSuccess, r.Status)
		assert.NotEmpty(t, r.TxHash)
	}

	// Loading the seed must not create the file.
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestAppendReplacesSeed(t *testing.T) {
	store, _ := newTestStore(t)

	rec := types.NewPendingRecord(types.KindFlashLoan, "WETH", "1.5")
	require.NoError(t, store.Append(rec))

	records, err := store.Load()
	require.NoError(t, err)
	require.Len(t, records, 1, "seed entries are never persisted")
	assert.Equal(t, rec.ID, records[0].ID)
}

func TestAppendNewestFirst(t *testing.T) {
	store, _ := newTestStore(t)

	first := types.NewPendingRecord(types.KindFlashLoan, "WETH", "1")
	second := types.NewPendingRecord(types.KindWithdrawal, "ETH", "")
	require.NoError(t, store.Append(first))
	require.NoError(t, store.Append(second))

	records, err := store.Load()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, second.ID, records[0].ID)
	assert.Equal(t, first.ID, records[1].ID)
}

func TestAppendCap(t *testing.T) {
	store, _ := newTestStore(t)

	var last *types.TransactionRecord
	for i := 0; i < MaxEntries+10; i++ {
		last = types.NewPendingRecord(types.KindFlashLoan, "WETH", fmt.Sprintf("%d", i+1))
		require.NoError(t, store.Append(last))
	}

	records, err := store.Load()
	require.NoError(t, err)
	require.Len(t, records, MaxEntries)
	assert.Equal(t, last.ID, records[0].ID, "newest entry survives eviction")
}

func TestUpdate(t *testing.T) {
	store, _ := newTestStore(t)

	rec := types.NewPendingRecord(types.KindFlashLoan, "WETH", "1")
	require.NoError(t, store.Append(rec))

	require.NoError(t, rec.SetTxHash("0xdead"))
	require.NoError(t, rec.Finalize(types.StatusSuccess))
	require.NoError(t, store.Update(rec))

	records, err := store.Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, types.StatusSuccess, records[0].Status)
	assert.Equal(t, "0xdead", records[0].TxHash)
}

func TestUpdateUnknownRecord(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Append(types.NewPendingRecord(types.KindFlashLoan, "WETH", "1")))

	stray := types.NewPendingRecord(types.KindWithdrawal, "ETH", "")
	require.Error(t, store.Update(stray))
}

func TestLoadCorruptFile(t *testing.T) {
	store, path := newTestStore(t)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := store.Load()
	require.Error(t, err)
}
