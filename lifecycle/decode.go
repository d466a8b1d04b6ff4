package lifecycle

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/arbvault/arbctl/contract"
	"github.com/arbvault/arbctl/tokens"
	"github.com/arbvault/arbctl/types"
)

const swapArrow = " → "

// DecodeResult is the outcome of decoding a single receipt log: either
// a derived record or a skip with its reason. Skips are expected for
// logs emitted by other contracts in the same transaction and are
// never fatal.
type DecodeResult struct {
	Record *types.TransactionRecord
	Skip   string
}

func skip(format string, args ...interface{}) DecodeResult {
	return DecodeResult{Skip: fmt.Sprintf(format, args...)}
}

// DecodeReceiptEvents matches each receipt log against the contract's
// three event shapes and yields one terminal record per decoded event.
// Each derived record carries a fresh id and the parent receipt's
// transaction hash.
func (m *Manager) DecodeReceiptEvents(receipt *ethtypes.Receipt) []DecodeResult {
	parsed, err := contract.ParsedABI()
	if err != nil {
		m.logger.Error("Contract ABI unavailable", zap.Error(err))
		return nil
	}

	txHash := receipt.TxHash.Hex()
	results := make([]DecodeResult, 0, len(receipt.Logs))

	for i, log := range receipt.Logs {
		if log == nil || len(log.Topics) == 0 {
			results = append(results, skip("log %d has no topics", i))
			continue
		}

		event, err := parsed.EventByID(log.Topics[0])
		if err != nil {
			results = append(results, skip("log %d: unknown event %s", i, log.Topics[0].Hex()))
			continue
		}

		values, err := parsed.Unpack(event.Name, log.Data)
		if err != nil {
			results = append(results, skip("log %d: failed to unpack %s: %v", i, event.Name, err))
			continue
		}

		results = append(results, m.decodeEvent(event.Name, values, txHash, i))
	}
	return results
}

func (m *Manager) decodeEvent(name string, values []interface{}, txHash string, index int) DecodeResult {
	switch name {
	case contract.EventFlashLoanInitiated:
		asset, amount, ok := addressAndAmount(values)
		if !ok {
			return skip("log %d: malformed %s payload", index, name)
		}
		return DecodeResult{Record: types.NewDerivedRecord(types.KindFlashLoan,
			m.table.ResolveSymbol(asset),
			m.table.FormatAmount(amount, asset),
			txHash)}

	case contract.EventSwapExecuted:
		if len(values) != 4 {
			return skip("log %d: malformed %s payload", index, name)
		}
		tokenIn, ok1 := values[0].(common.Address)
		tokenOut, ok2 := values[1].(common.Address)
		amountIn, ok3 := values[2].(*big.Int)
		amountOut, ok4 := values[3].(*big.Int)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return skip("log %d: malformed %s payload", index, name)
		}

		// Both amounts are formatted with the input token's decimals.
		// When the out token's precision differs this is a display
		// approximation.
		inDecimals := m.table.Decimals(tokenIn)
		return DecodeResult{Record: types.NewDerivedRecord(types.KindSwap,
			m.table.ResolveSymbol(tokenIn)+swapArrow+m.table.ResolveSymbol(tokenOut),
			tokens.FormatDecimal(amountIn, inDecimals)+swapArrow+tokens.FormatDecimal(amountOut, inDecimals),
			txHash)}

	case contract.EventFlashLoanRepaid:
		if len(values) != 3 {
			return skip("log %d: malformed %s payload", index, name)
		}
		asset, ok1 := values[0].(common.Address)
		amount, ok2 := values[1].(*big.Int)
		premium, ok3 := values[2].(*big.Int)
		if !ok1 || !ok2 || !ok3 {
			return skip("log %d: malformed %s payload", index, name)
		}

		m.logger.Debug("Flash loan repaid",
			zap.String("asset", m.table.ResolveSymbol(asset)),
			zap.String("premium", premium.String()))
		return DecodeResult{Record: types.NewDerivedRecord(types.KindRepay,
			m.table.ResolveSymbol(asset),
			m.table.FormatAmount(amount, asset),
			txHash)}

	default:
		return skip("log %d: unknown event %s", index, name)
	}
}

func addressAndAmount(values []interface{}) (common.Address, *big.Int, bool) {
	if len(values) != 2 {
		return common.Address{}, nil, false
	}
	addr, ok1 := values[0].(common.Address)
	amount, ok2 := values[1].(*big.Int)
	if !ok1 || !ok2 {
		return common.Address{}, nil, false
	}
	return addr, amount, true
}
