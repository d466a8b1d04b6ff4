package cmd

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/arbvault/arbctl/config"
	"github.com/arbvault/arbctl/contract"
	"github.com/arbvault/arbctl/history"
	"github.com/arbvault/arbctl/lifecycle"
	"github.com/arbvault/arbctl/tokens"
	"github.com/arbvault/arbctl/utils"
	"github.com/arbvault/arbctl/utils/metrics"
	"github.com/arbvault/arbctl/wallet"
)

// app bundles everything a command needs: one session, one bound
// contract, one store, one manager.
type app struct {
	cfg     *config.Config
	table   *tokens.Table
	session *wallet.Session
	client  *contract.BoundClient
	store   *history.Store
	manager *lifecycle.Manager
	logger  *zap.Logger
}

func (a *app) Close() {
	if a.session != nil {
		a.session.Close()
	}
}

// loadConfig loads .env and the config file; no chain connection yet.
func loadConfig() (*config.Config, *tokens.Table, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	table := tokens.DefaultTable()
	if cfg.TokenTablePath != "" {
		table, err = tokens.LoadTable(cfg.TokenTablePath)
		if err != nil {
			return nil, nil, err
		}
	}
	return cfg, table, nil
}

// connect builds the full app: session, bound contract, store and
// lifecycle manager. Mutating commands require ARBCTL_PRIVATE_KEY.
func connect(ctx context.Context) (*app, error) {
	log := utils.GetLogger()

	cfg, table, err := loadConfig()
	if err != nil {
		return nil, err
	}

	key, err := config.GetRequiredEnv(config.EnvPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", wallet.ErrWalletUnavailable, err)
	}

	session, err := wallet.Dial(ctx, cfg.RPCEndpoint, key, cfg.SupportedChains, log)
	if err != nil {
		return nil, err
	}

	if !common.IsHexAddress(cfg.ContractAddress) {
		session.Close()
		return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
	}

	client, err := contract.Bind(session, common.HexToAddress(cfg.ContractAddress),
		cfg.RPCRateLimit.RequestsPerSecond, cfg.RPCRateLimit.BurstSize, log)
	if err != nil {
		session.Close()
		return nil, err
	}

	store, err := history.NewStore(cfg.HistoryPath, log)
	if err != nil {
		session.Close()
		return nil, err
	}

	manager, err := lifecycle.NewManager(client, table, store, log)
	if err != nil {
		session.Close()
		return nil, err
	}

	if cfg.PrometheusEnabled {
		go func() {
			if err := metrics.Serve(ctx, cfg.PrometheusEndpoint, log); err != nil {
				log.Warn("Metrics server failed", zap.Error(err))
			}
		}()
	}

	return &app{
		cfg:     cfg,
		table:   table,
		session: session,
		client:  client,
		store:   store,
		manager: manager,
		logger:  log,
	}, nil
}
