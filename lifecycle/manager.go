package lifecycle

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"

	"github.com/arbvault/arbctl/tokens"
	"github.com/arbvault/arbctl/types"
	"github.com/arbvault/arbctl/utils/metrics"
)

// ContractCaller is the contract surface the manager submits through.
// Defined here so tests can substitute a fake client.
type ContractCaller interface {
	RequestFlashLoan(ctx context.Context, asset common.Address, amount *big.Int, tokenB common.Address, fee1, fee2 uint32) (*ethtypes.Transaction, error)
	WithdrawToken(ctx context.Context, token common.Address) (*ethtypes.Transaction, error)
	WithdrawETH(ctx context.Context) (*ethtypes.Transaction, error)
	WaitMined(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Receipt, error)
}

// Recorder is the history surface the manager writes to.
type Recorder interface {
	Append(rec *types.TransactionRecord) error
	Update(rec *types.TransactionRecord) error
}

// FlashLoanRequest carries the parameters of a flash-loan submission.
// Amount is the user-entered decimal string, scaled here using the
// asset's declared precision.
type FlashLoanRequest struct {
	Asset  common.Address
	Amount string
	TokenB common.Address
	Fee1   uint32
	Fee2   uint32
}

// WithdrawalRequest selects between the native and the token
// withdrawal entry points. No amount is supplied; the contract
// withdraws its full balance.
type WithdrawalRequest struct {
	Token  common.Address
	Native bool
}

// Manager converts contract calls into tracked records: it creates the
// pending record, blocks on confirmation, applies the terminal status
// and decodes receipt events into derived records.
type Manager struct {
	client  ContractCaller
	table   *tokens.Table
	store   Recorder
	logger  *zap.Logger
	metrics struct {
		submissions    prometheus.CounterVec
		confirmLatency prometheus.Histogram
		decodeSkips    prometheus.Counter
		successCount   prometheus.Counter
		totalCount     prometheus.Counter
		successRate    prometheus.Gauge
	}
}

// NewManager creates a transaction lifecycle manager.
func NewManager(client ContractCaller, table *tokens.Table, store Recorder, logger *zap.Logger) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("client cannot be nil")
	}
	if table == nil {
		return nil, fmt.Errorf("token table cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	m := &Manager{
		client: client,
		table:  table,
		store:  store,
		logger: logger,
	}

	m.metrics.submissions = *prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arbctl_submissions_total",
		Help: "Number of contract call submissions by kind",
	}, []string{"kind"})

	m.metrics.confirmLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "arbctl_confirmation_latency_seconds",
		Help:    "Time between broadcast and receipt",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	m.metrics.decodeSkips = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arbctl_decode_skips_total",
		Help: "Number of receipt logs skipped during event decoding",
	})

	m.metrics.successCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arbctl_confirmed_success_total",
		Help: "Number of calls confirmed successful",
	})

	m.metrics.totalCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arbctl_confirmed_total",
		Help: "Total number of confirmed calls",
	})

	m.metrics.successRate = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "arbctl_success_rate",
		Help: "Fraction of confirmed calls that succeeded",
	})

	metrics.Register(&m.metrics.submissions, m.metrics.confirmLatency,
		m.metrics.decodeSkips, m.metrics.successCount,
		m.metrics.totalCount, m.metrics.successRate)

	return m, nil
}

// SubmitFlashLoan validates and scales the amount, submits the
// flash-loan entry point, tracks the record through confirmation and
// appends derived records decoded from the receipt.
//
// Validation and submission failures return a *CallError with no
// record appended. A failure while awaiting confirmation returns the
// record still pending alongside the error; reconciling such a record
// is the caller's concern.
func (m *Manager) SubmitFlashLoan(ctx context.Context, req FlashLoanRequest) (*types.TransactionRecord, error) {
	amount, err := m.table.ParseAmount(req.Amount, req.Asset)
	if err != nil {
		return nil, &CallError{Op: "flash loan", Err: err}
	}

	rec := types.NewPendingRecord(types.KindFlashLoan,
		m.table.ResolveSymbol(req.Asset),
		m.table.FormatAmount(amount, req.Asset))

	m.metrics.submissions.WithLabelValues(string(types.KindFlashLoan)).Inc()
	m.logger.Info("Submitting flash loan",
		zap.String("id", rec.ID),
		zap.String("asset", rec.Asset),
		zap.String("amount", amount.String()),
		zap.Uint32("fee1", req.Fee1),
		zap.Uint32("fee2", req.Fee2))

	tx, err := m.client.RequestFlashLoan(ctx, req.Asset, amount, req.TokenB, req.Fee1, req.Fee2)
	if err != nil {
		return nil, &CallError{Op: "flash loan", Err: err}
	}

	if err := m.track(ctx, rec, tx, "flash loan"); err != nil {
		return rec, err
	}
	return rec, nil
}

// SubmitWithdrawal submits a withdrawal of the contract's full native
// or token balance and tracks the record through confirmation.
func (m *Manager) SubmitWithdrawal(ctx context.Context, req WithdrawalRequest) (*types.TransactionRecord, error) {
	var (
		asset string
		tx    *ethtypes.Transaction
		err   error
	)

	m.metrics.submissions.WithLabelValues(string(types.KindWithdrawal)).Inc()

	if req.Native {
		asset = tokens.NativeSymbol
		tx, err = m.client.WithdrawETH(ctx)
	} else {
		if req.Token == (common.Address{}) {
			return nil, callError("withdrawal", "token address cannot be zero")
		}
		asset = m.table.ResolveSymbol(req.Token)
		tx, err = m.client.WithdrawToken(ctx, req.Token)
	}
	if err != nil {
		return nil, &CallError{Op: "withdrawal", Err: err}
	}

	rec := types.NewPendingRecord(types.KindWithdrawal, asset, "")
	m.logger.Info("Submitting withdrawal",
		zap.String("id", rec.ID),
		zap.String("asset", asset))

	if err := m.track(ctx, rec, tx, "withdrawal"); err != nil {
		return rec, err
	}
	return rec, nil
}

// track persists the broadcast record, blocks until the receipt
// arrives, applies the terminal status and, on success, appends
// records derived from the receipt's event logs.
func (m *Manager) track(ctx context.Context, rec *types.TransactionRecord, tx *ethtypes.Transaction, op string) error {
	if err := rec.SetTxHash(tx.Hash().Hex()); err != nil {
		return &CallError{Op: op, Err: err}
	}
	if err := m.store.Append(rec); err != nil {
		return &CallError{Op: op, Err: err}
	}

	start := time.Now()
	receipt, err := m.client.WaitMined(ctx, tx)
	if err != nil {
		// The record stays pending; there is no way to abort an
		// in-flight on-chain call.
		m.logger.Warn("Confirmation wait failed, record left pending",
			zap.String("id", rec.ID),
			zap.String("tx_hash", rec.TxHash),
			zap.Error(err))
		return &CallError{Op: op, Err: err}
	}
	m.metrics.confirmLatency.Observe(time.Since(start).Seconds())

	status := types.StatusFailed
	if receipt.Status == ethtypes.ReceiptStatusSuccessful {
		status = types.StatusSuccess
	}
	if err := rec.Finalize(status); err != nil {
		return &CallError{Op: op, Err: err}
	}
	if err := m.store.Update(rec); err != nil {
		return &CallError{Op: op, Err: err}
	}

	m.metrics.totalCount.Inc()
	if status == types.StatusSuccess {
		m.metrics.successCount.Inc()
	}
	m.updateSuccessRate()

	m.logger.Info("Transaction confirmed",
		zap.String("id", rec.ID),
		zap.String("tx_hash", rec.TxHash),
		zap.String("status", string(status)))

	if status != types.StatusSuccess {
		return nil
	}

	for _, result := range m.DecodeReceiptEvents(receipt) {
		if result.Record == nil {
			m.metrics.decodeSkips.Inc()
			m.logger.Debug("Skipped receipt log",
				zap.String("tx_hash", rec.TxHash),
				zap.String("reason", result.Skip))
			continue
		}
		if err := m.store.Append(result.Record); err != nil {
			return &CallError{Op: op, Err: err}
		}
	}
	return nil
}

// updateSuccessRate recomputes the success-rate gauge from the counter
// values.
func (m *Manager) updateSuccessRate() {
	var successCount, totalCount float64

	ch := make(chan prometheus.Metric, 1)
	m.metrics.successCount.Collect(ch)
	if metric := <-ch; metric != nil {
		out := &dto.Metric{}
		if err := metric.Write(out); err == nil && out.Counter != nil {
			successCount = *out.Counter.Value
		}
	}

	m.metrics.totalCount.Collect(ch)
	if metric := <-ch; metric != nil {
		out := &dto.Metric{}
		if err := metric.Write(out); err == nil && out.Counter != nil {
			totalCount = *out.Counter.Value
		}
	}

	if totalCount > 0 {
		m.metrics.successRate.Set(successCount / totalCount)
	}
}
