package contract

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/arbvault/arbctl/wallet"
)

const (
	defaultReceiptPollInterval = 2 * time.Second

	// gasHeadroomPercent is added on top of the node's gas estimate;
	// flash-loan execution paths vary with pool state between estimate
	// and inclusion.
	gasHeadroomPercent = 20
)

// BoundClient is the contract binding: one deployed address, one
// session, typed wrappers for the mutating entry points and the
// read-only queries. All RPC traffic passes through the rate limiter.
type BoundClient struct {
	session      *wallet.Session
	address      common.Address
	abi          abi.ABI
	limiter      *rate.Limiter
	logger       *zap.Logger
	pollInterval time.Duration
}

// Bind binds the deployed contract to a connected session.
func Bind(session *wallet.Session, address common.Address, rps float64, burst int, logger *zap.Logger) (*BoundClient, error) {
	if session == nil {
		return nil, fmt.Errorf("%w: bind requires a session", wallet.ErrNotConnected)
	}
	if address == (common.Address{}) {
		return nil, fmt.Errorf("contract address cannot be zero")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 1
	}

	parsed, err := ParsedABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
	}

	return &BoundClient{
		session:      session,
		address:      address,
		abi:          parsed,
		limiter:      rate.NewLimiter(rate.Limit(rps), burst),
		logger:       logger,
		pollInterval: defaultReceiptPollInterval,
	}, nil
}

// Address returns the bound contract address.
func (c *BoundClient) Address() common.Address {
	return c.address
}

// RequestFlashLoan submits the flash-loan entry point with the scaled
// base-unit amount and both pool fee tiers.
func (c *BoundClient) RequestFlashLoan(ctx context.Context, asset common.Address, amount *big.Int, tokenB common.Address, fee1, fee2 uint32) (*types.Transaction, error) {
	data, err := c.abi.Pack("requestFlashLoan", asset, amount,
		tokenB, big.NewInt(int64(fee1)), big.NewInt(int64(fee2)))
	if err != nil {
		return nil, fmt.Errorf("failed to pack requestFlashLoan: %w", err)
	}
	return c.submit(ctx, data)
}

// WithdrawToken submits a withdrawal of the contract's full balance of
// a token. The contract determines the amount; none is supplied.
func (c *BoundClient) WithdrawToken(ctx context.Context, token common.Address) (*types.Transaction, error) {
	data, err := c.abi.Pack("withdrawToken", token)
	if err != nil {
		return nil, fmt.Errorf("failed to pack withdrawToken: %w", err)
	}
	return c.submit(ctx, data)
}

// WithdrawETH submits a withdrawal of the contract's full native
// balance.
func (c *BoundClient) WithdrawETH(ctx context.Context) (*types.Transaction, error) {
	data, err := c.abi.Pack("withdrawETH")
	if err != nil {
		return nil, fmt.Errorf("failed to pack withdrawETH: %w", err)
	}
	return c.submit(ctx, data)
}

// Owner returns the contract owner.
func (c *BoundClient) Owner(ctx context.Context) (common.Address, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return common.Address{}, err
	}

	data, err := c.abi.Pack("owner")
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to pack owner: %w", err)
	}

	result, err := c.session.Backend().CallContract(ctx, ethereum.CallMsg{To: &c.address, Data: data}, nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("owner call failed: %w", err)
	}

	out, err := c.abi.Unpack("owner", result)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to unpack owner: %w", err)
	}
	owner, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected owner return type")
	}
	return owner, nil
}

// BalanceETH returns the contract's native balance.
func (c *BoundClient) BalanceETH(ctx context.Context) (*big.Int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.session.Backend().BalanceAt(ctx, c.address, nil)
}

// submit builds, signs and broadcasts a dynamic-fee transaction
// carrying the packed calldata.
func (c *BoundClient) submit(ctx context.Context, data []byte) (*types.Transaction, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	backend := c.session.Backend()
	from := c.session.Address()

	nonce, err := backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	tip, err := backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas tip cap: %w", err)
	}

	head, err := backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest header: %w", err)
	}
	// feeCap = 2*baseFee + tip rides out base fee growth while the
	// transaction is pending.
	feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))

	gas, err := backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &c.address,
		Data:  data,
		Value: big.NewInt(0),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to estimate gas: %w", err)
	}
	gas += gas * gasHeadroomPercent / 100

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   c.session.ChainID(),
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &c.address,
		Data:      data,
	})

	signed, err := c.session.SignTx(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	c.logger.Info("Transaction broadcast",
		zap.String("tx_hash", signed.Hash().Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas", gas))

	return signed, nil
}

// WaitMined blocks until the transaction is confirmed. The wait is
// unbounded; cancelling ctx is the only way out.
func (c *BoundClient) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.session.Backend().TransactionReceipt(ctx, tx.Hash())
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && err != ethereum.NotFound {
			c.logger.Debug("Receipt poll failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
