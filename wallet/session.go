package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

// erc20MetadataABI covers the two read-only calls used to describe
// tokens missing from the static table.
const erc20MetadataABI = `[
	{"inputs":[],"name":"symbol","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"}
]`

const metadataCacheSize = 256

// Backend is the subset of the Ethereum client the session depends on.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

// TokenMetadata is the cached result of on-chain symbol/decimals reads.
type TokenMetadata struct {
	Symbol   string
	Decimals uint8
}

// Session is an explicitly constructed wallet binding: one backend,
// one key, one account. It replaces any module-wide provider state and
// is passed to every operation that needs the chain.
type Session struct {
	backend   Backend
	key       *ecdsa.PrivateKey
	address   common.Address
	chainID   *big.Int
	erc20     abi.ABI
	metaCache *lru.Cache
	logger    *zap.Logger

	observers observerSet
}

// Dial connects to the RPC endpoint, loads the signing key and
// verifies the chain against the supported set.
func Dial(ctx context.Context, rpcURL, privateKeyHex string, supported []uint64, logger *zap.Logger) (*Session, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("%w: no RPC endpoint configured", ErrWalletUnavailable)
	}
	if privateKeyHex == "" {
		return nil, fmt.Errorf("%w: no private key configured", ErrWalletUnavailable)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid private key: %v", ErrWalletUnavailable, err)
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrWalletUnavailable, rpcURL, err)
	}

	session, err := NewSession(ctx, client, key, supported, logger)
	if err != nil {
		client.Close()
		return nil, err
	}
	return session, nil
}

// NewSession binds an already-connected backend. Split out of Dial so
// tests can inject a fake backend.
func NewSession(ctx context.Context, backend Backend, key *ecdsa.PrivateKey, supported []uint64, logger *zap.Logger) (*Session, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend cannot be nil")
	}
	if key == nil {
		return nil, fmt.Errorf("key cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query chain id: %w", err)
	}
	if err := checkSupported(chainID.Uint64(), supported); err != nil {
		return nil, err
	}

	parsed, err := abi.JSON(strings.NewReader(erc20MetadataABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC-20 ABI: %w", err)
	}

	cache, err := lru.New(metadataCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata cache: %w", err)
	}

	s := &Session{
		backend:   backend,
		key:       key,
		address:   crypto.PubkeyToAddress(key.PublicKey),
		chainID:   chainID,
		erc20:     parsed,
		metaCache: cache,
		logger:    logger,
	}
	s.observers.lastChainID = chainID.Uint64()
	s.observers.lastAccount = s.address

	logger.Info("Session established",
		zap.String("account", s.address.Hex()),
		zap.Uint64("chain_id", chainID.Uint64()))

	return s, nil
}

func checkSupported(chainID uint64, supported []uint64) error {
	if len(supported) == 0 {
		return nil
	}
	for _, id := range supported {
		if id == chainID {
			return nil
		}
	}
	return &NetworkMismatchError{ChainID: chainID, Supported: supported}
}

// Address returns the account derived from the signing key.
func (s *Session) Address() common.Address {
	return s.address
}

// ChainID returns the chain id captured at connect time.
func (s *Session) ChainID() *big.Int {
	return new(big.Int).Set(s.chainID)
}

// Backend exposes the underlying client for bound contract calls.
func (s *Session) Backend() Backend {
	return s.backend
}

// BalanceAt returns the account's native balance.
func (s *Session) BalanceAt(ctx context.Context) (*big.Int, error) {
	return s.backend.BalanceAt(ctx, s.address, nil)
}

// TokenBalance returns the account's balance of an ERC-20 token.
func (s *Session) TokenBalance(ctx context.Context, token common.Address) (*big.Int, error) {
	// balanceOf(address) selector + padded account argument.
	data := append(crypto.Keccak256([]byte("balanceOf(address)"))[:4],
		common.LeftPadBytes(s.address.Bytes(), 32)...)

	result, err := s.backend.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("balanceOf call failed: %w", err)
	}
	return new(big.Int).SetBytes(result), nil
}

// TokenMetadata reads symbol() and decimals() for a token, caching
// results for the life of the session.
func (s *Session) TokenMetadata(ctx context.Context, token common.Address) (TokenMetadata, error) {
	key := strings.ToLower(token.Hex())
	if cached, ok := s.metaCache.Get(key); ok {
		return cached.(TokenMetadata), nil
	}

	symbol, err := s.callString(ctx, token, "symbol")
	if err != nil {
		return TokenMetadata{}, fmt.Errorf("failed to read symbol: %w", err)
	}
	decimals, err := s.callUint8(ctx, token, "decimals")
	if err != nil {
		return TokenMetadata{}, fmt.Errorf("failed to read decimals: %w", err)
	}

	meta := TokenMetadata{Symbol: symbol, Decimals: decimals}
	s.metaCache.Add(key, meta)
	return meta, nil
}

func (s *Session) callString(ctx context.Context, to common.Address, method string) (string, error) {
	out, err := s.call(ctx, to, method)
	if err != nil {
		return "", err
	}
	v, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected %s return type", method)
	}
	return v, nil
}

func (s *Session) callUint8(ctx context.Context, to common.Address, method string) (uint8, error) {
	out, err := s.call(ctx, to, method)
	if err != nil {
		return 0, err
	}
	v, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected %s return type", method)
	}
	return v, nil
}

func (s *Session) call(ctx context.Context, to common.Address, method string) ([]interface{}, error) {
	data, err := s.erc20.Pack(method)
	if err != nil {
		return nil, err
	}
	result, err := s.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	out, err := s.erc20.Unpack(method, result)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty %s return", method)
	}
	return out, nil
}

// SignTx signs a transaction with the session key for the connected
// chain.
func (s *Session) SignTx(tx *types.Transaction) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.key)
}

// Close releases the backend connection.
func (s *Session) Close() {
	s.backend.Close()
}
