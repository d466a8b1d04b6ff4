package tokens

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v2"
)

// NativeSymbol is the display label used for native-currency entries.
const NativeSymbol = "ETH"

// DefaultDecimals is assumed for tokens missing from the table.
const DefaultDecimals = 18

// Descriptor is static reference data for a single token.
type Descriptor struct {
	Symbol   string `yaml:"symbol" json:"symbol"`
	Name     string `yaml:"name" json:"name"`
	Address  string `yaml:"address" json:"address"`
	Decimals uint8  `yaml:"decimals" json:"decimals"`
}

// Table resolves token addresses to display symbols and decimal
// precision. It is immutable after construction.
type Table struct {
	byAddress map[string]Descriptor
	bySymbol  map[string]Descriptor
}

var defaultDescriptors = []Descriptor{
	{Symbol: "WETH", Name: "Wrapped Ether", Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18},
	{Symbol: "USDC", Name: "USD Coin", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6},
	{Symbol: "USDT", Name: "Tether USD", Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6},
	{Symbol: "DAI", Name: "Dai Stablecoin", Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Decimals: 18},
	{Symbol: "WBTC", Name: "Wrapped BTC", Address: "0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599", Decimals: 8},
	{Symbol: "LINK", Name: "ChainLink Token", Address: "0x514910771AF9Ca656af840dff83E8264EcF986CA", Decimals: 18},
	{Symbol: "UNI", Name: "Uniswap", Address: "0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984", Decimals: 18},
}

// DefaultTable returns the builtin mainnet token table.
func DefaultTable() *Table {
	return newTable(defaultDescriptors)
}

// LoadTable builds a table from the builtin descriptors merged with the
// YAML file at path. File entries override builtin ones by address.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token table: %w", err)
	}

	var extra []Descriptor
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("failed to parse token table: %w", err)
	}
	for i, d := range extra {
		if d.Symbol == "" || !common.IsHexAddress(d.Address) {
			return nil, fmt.Errorf("invalid token entry %d: symbol=%q address=%q", i, d.Symbol, d.Address)
		}
	}

	return newTable(append(append([]Descriptor{}, defaultDescriptors...), extra...)), nil
}

func newTable(descriptors []Descriptor) *Table {
	t := &Table{
		byAddress: make(map[string]Descriptor, len(descriptors)),
		bySymbol:  make(map[string]Descriptor, len(descriptors)),
	}
	for _, d := range descriptors {
		t.byAddress[strings.ToLower(d.Address)] = d
		t.bySymbol[strings.ToUpper(d.Symbol)] = d
	}
	return t
}

// Lookup returns the descriptor for an address, matching
// case-insensitively.
func (t *Table) Lookup(addr common.Address) (Descriptor, bool) {
	d, ok := t.byAddress[strings.ToLower(addr.Hex())]
	return d, ok
}

// LookupSymbol returns the descriptor for a display symbol.
func (t *Table) LookupSymbol(symbol string) (Descriptor, bool) {
	d, ok := t.bySymbol[strings.ToUpper(symbol)]
	return d, ok
}

// Resolve accepts either a known symbol or a hex address and returns
// the token address.
func (t *Table) Resolve(input string) (common.Address, error) {
	if common.IsHexAddress(input) {
		return common.HexToAddress(input), nil
	}
	if d, ok := t.LookupSymbol(input); ok {
		return common.HexToAddress(d.Address), nil
	}
	return common.Address{}, fmt.Errorf("unknown token %q", input)
}

// ResolveSymbol returns the configured symbol for a known address, or a
// truncated rendering of the address when unknown.
func (t *Table) ResolveSymbol(addr common.Address) string {
	if d, ok := t.Lookup(addr); ok {
		return d.Symbol
	}
	return TruncateAddress(addr)
}

// Decimals returns the declared decimal precision for an address,
// defaulting to 18 for unknown tokens.
func (t *Table) Decimals(addr common.Address) uint8 {
	if d, ok := t.Lookup(addr); ok {
		return d.Decimals
	}
	return DefaultDecimals
}

// TruncateAddress renders an address as its first six and last four
// hex characters.
func TruncateAddress(addr common.Address) string {
	s := addr.Hex()
	return s[:6] + "…" + s[len(s)-4:]
}

// ParseAmount converts a positive decimal amount string into base
// units using the token's declared precision. Fractions finer than the
// token's precision are rejected rather than rounded.
func (t *Table) ParseAmount(amount string, addr common.Address) (*big.Int, error) {
	return ParseDecimal(amount, t.Decimals(addr))
}

// FormatAmount renders a base-unit amount as a decimal string using
// the token's declared precision.
func (t *Table) FormatAmount(raw *big.Int, addr common.Address) string {
	return FormatDecimal(raw, t.Decimals(addr))
}

// ParseDecimal scales a decimal string by 10^decimals. The amount must
// be strictly positive.
func ParseDecimal(amount string, decimals uint8) (*big.Int, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" && fracPart == "" {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	if intPart == "" {
		intPart = "0"
	}
	if !isDigits(intPart) || (fracPart != "" && !isDigits(fracPart)) {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	if len(fracPart) > int(decimals) {
		return nil, fmt.Errorf("amount %q exceeds token precision of %d decimals", amount, decimals)
	}

	// Pad the fraction out to the token's precision and treat the whole
	// string as one integer.
	padded := intPart + fracPart + strings.Repeat("0", int(decimals)-len(fracPart))
	scaled, ok := new(big.Int).SetString(padded, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	if scaled.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %q", amount)
	}
	return scaled, nil
}

// FormatDecimal is the inverse of ParseDecimal: it divides raw by
// 10^decimals exactly, trimming trailing zeros from the fraction.
func FormatDecimal(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}
	if decimals == 0 {
		return raw.String()
	}

	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	quo, rem := new(big.Int).QuoRem(raw, divisor, new(big.Int))

	neg := rem.Sign() < 0
	rem.Abs(rem)
	if rem.Sign() == 0 {
		return quo.String()
	}

	rs := rem.String()
	if len(rs) < int(decimals) {
		rs = strings.Repeat("0", int(decimals)-len(rs)) + rs
	}
	frac := strings.TrimRight(rs, "0")
	prefix := ""
	if neg && quo.Sign() == 0 {
		prefix = "-"
	}
	return prefix + quo.String() + "." + frac
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
