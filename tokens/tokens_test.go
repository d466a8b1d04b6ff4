package tokens

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals uint8
		want     string
		wantErr  bool
	}{
		{name: "whole", amount: "10", decimals: 18, want: "10000000000000000000"},
		{name: "fraction", amount: "10.5", decimals: 18, want: "10500000000000000000"},
		{name: "sub one", amount: "0.000001", decimals: 6, want: "1"},
		{name: "zero decimals", amount: "42", decimals: 0, want: "42"},
		{name: "whitespace trimmed", amount: " 1.0 ", decimals: 6, want: "1000000"},
		{name: "empty", amount: "", decimals: 18, wantErr: true},
		{name: "zero", amount: "0", decimals: 18, wantErr: true},
		{name: "zero fraction", amount: "0.0", decimals: 18, wantErr: true},
		{name: "negative", amount: "-1", decimals: 18, wantErr: true},
		{name: "plus sign", amount: "+1", decimals: 18, wantErr: true},
		{name: "not a number", amount: "ten", decimals: 18, wantErr: true},
		{name: "two dots", amount: "1.2.3", decimals: 18, wantErr: true},
		{name: "too fine", amount: "0.0000001", decimals: 6, wantErr: true},
		{name: "bare dot", amount: ".", decimals: 18, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimal(tt.amount, tt.decimals)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFormatDecimal(t *testing.T) {
	wei := func(s string) *big.Int {
		v, ok := new(big.Int).SetString(s, 10)
		require.True(t, ok)
		return v
	}

	assert.Equal(t, "10", FormatDecimal(wei("10000000000000000000"), 18))
	assert.Equal(t, "10.5", FormatDecimal(wei("10500000000000000000"), 18))
	assert.Equal(t, "0.000001", FormatDecimal(wei("1"), 6))
	assert.Equal(t, "42", FormatDecimal(wei("42"), 0))
	assert.Equal(t, "0", FormatDecimal(nil, 18))
	assert.Equal(t, "0", FormatDecimal(big.NewInt(0), 18))
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, amount := range []string{"1", "0.5", "123.456", "0.000001"} {
		raw, err := ParseDecimal(amount, 6)
		require.NoError(t, err)
		assert.Equal(t, amount, FormatDecimal(raw, 6))
	}
}

func TestTableResolve(t *testing.T) {
	table := DefaultTable()

	t.Run("symbol case insensitive", func(t *testing.T) {
		upper, err := table.Resolve("WETH")
		require.NoError(t, err)
		lower, err := table.Resolve("weth")
		require.NoError(t, err)
		assert.Equal(t, upper, lower)
	})

	t.Run("raw address passes through", func(t *testing.T) {
		addr, err := table.Resolve("0x1111111111111111111111111111111111111111")
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress("0x1111111111111111111111111111111111111111"), addr)
	})

	t.Run("unknown symbol", func(t *testing.T) {
		_, err := table.Resolve("NOPE")
		require.Error(t, err)
	})
}

func TestResolveSymbol(t *testing.T) {
	table := DefaultTable()

	usdc := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	assert.Equal(t, "USDC", table.ResolveSymbol(usdc))

	unknown := common.HexToAddress("0x1234567890abcdef1234567890abcdef12345678")
	got := table.ResolveSymbol(unknown)
	assert.Equal(t, "0x1234…5678", got)
}

func TestDecimals(t *testing.T) {
	table := DefaultTable()

	assert.Equal(t, uint8(6), table.Decimals(common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")))
	assert.Equal(t, uint8(8), table.Decimals(common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599")))
	assert.Equal(t, uint8(DefaultDecimals), table.Decimals(common.HexToAddress("0x1234567890abcdef1234567890abcdef12345678")))
}

func TestLoadTable(t *testing.T) {
	t.Run("override merges with builtin", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tokens.yaml")
		data := "- symbol: TEST\n  name: Test Token\n  address: \"0x1234567890abcdef1234567890abcdef12345678\"\n  decimals: 9\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

		table, err := LoadTable(path)
		require.NoError(t, err)

		d, ok := table.LookupSymbol("TEST")
		require.True(t, ok)
		assert.Equal(t, uint8(9), d.Decimals)

		_, ok = table.LookupSymbol("WETH")
		assert.True(t, ok, "builtin entries survive the merge")
	})

	t.Run("invalid entry rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tokens.yaml")
		data := "- symbol: BAD\n  address: not-an-address\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

		_, err := LoadTable(path)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTable(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})
}
