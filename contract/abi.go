package contract

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// arbVaultABI is the fixed call and event surface of the deployed
// flash-loan arbitrage contract. Signatures must match the deployment
// byte-exactly; a mismatch surfaces as a call failure.
const arbVaultABI = `[
	{"inputs":[{"internalType":"address","name":"asset","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"},{"internalType":"address","name":"tokenB","type":"address"},{"internalType":"uint24","name":"fee1","type":"uint24"},{"internalType":"uint24","name":"fee2","type":"uint24"}],"name":"requestFlashLoan","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"address","name":"token","type":"address"}],"name":"withdrawToken","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[],"name":"withdrawETH","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[],"name":"owner","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":false,"internalType":"address","name":"asset","type":"address"},{"indexed":false,"internalType":"uint256","name":"amount","type":"uint256"}],"name":"FlashLoanInitiated","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":false,"internalType":"address","name":"tokenIn","type":"address"},{"indexed":false,"internalType":"address","name":"tokenOut","type":"address"},{"indexed":false,"internalType":"uint256","name":"amountIn","type":"uint256"},{"indexed":false,"internalType":"uint256","name":"amountOut","type":"uint256"}],"name":"SwapExecuted","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":false,"internalType":"address","name":"asset","type":"address"},{"indexed":false,"internalType":"uint256","name":"amount","type":"uint256"},{"indexed":false,"internalType":"uint256","name":"premium","type":"uint256"}],"name":"FlashLoanRepaid","type":"event"}
]`

// Event names emitted by the contract.
const (
	EventFlashLoanInitiated = "FlashLoanInitiated"
	EventSwapExecuted       = "SwapExecuted"
	EventFlashLoanRepaid    = "FlashLoanRepaid"
)

var (
	parsedABI abi.ABI
	parseErr  error
	parseOnce sync.Once
)

// ParsedABI returns the parsed contract ABI, shared between the bound
// client and the receipt event decoder.
func ParsedABI() (abi.ABI, error) {
	parseOnce.Do(func() {
		parsedABI, parseErr = abi.JSON(strings.NewReader(arbVaultABI))
	})
	return parsedABI, parseErr
}
