// Command stakingd is the staking core's long-running node process: it
// owns the committed Snapshot, runs the Block Driver against a local block
// loop, and serves the advisory query/notification surfaces in staking/api.
//
// The handshake to the external consensus driver (spec.md §6.1's
// InitChain/BeginBlock/EndBlock contract) is a local call contract, not a
// wire protocol (SPEC_FULL.md §B "deliberately not carried forward"): this
// binary drives that contract itself off a local ticker until it is
// embedded behind a real consensus driver integration.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"stakingcore/config"
	"stakingcore/core/state"
	"stakingcore/core/types"
	"stakingcore/crypto"
	"stakingcore/observability/logging"
	telemetry "stakingcore/observability/otel"
	"stakingcore/staking/api"
	"stakingcore/staking/coinbase"
	"stakingcore/staking/driver"
	"stakingcore/staking/genesis"
	"stakingcore/staking/params"
	"stakingcore/storage"
)

// blockInterval paces the local block loop. Production deployments drive
// ProcessBlock from the real consensus driver's BeginBlock/EndBlock calls
// instead of a ticker.
const blockInterval = 5 * time.Second

func main() {
	configFile := flag.String("config", "./stakingd.toml", "Path to the node configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("STAKINGCORE_ENV"))
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(*cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.SetupFile(cfg.Observability.ServiceName, env, logging.FileConfig{
		Path:       cfg.Observability.LogFilePath,
		MaxSizeMB:  cfg.Observability.LogMaxSizeMB,
		MaxAgeDays: cfg.Observability.LogMaxAgeDays,
		MaxBackups: cfg.Observability.LogMaxBackups,
	})

	insecure := true
	if v := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			insecure = parsed
		}
	}
	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: cfg.Observability.ServiceName,
		Environment: env,
		Endpoint:    cfg.Observability.OTLPEndpoint,
		Insecure:    insecure,
		Headers:     telemetry.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		Metrics:     true,
		Traces:      true,
	})
	if err != nil {
		logger.Error("failed to initialise telemetry", "err", err)
		os.Exit(1)
	}
	defer func() {
		if shutdownTelemetry != nil {
			_ = shutdownTelemetry(context.Background())
		}
	}()

	econ, err := params.Load(cfg.EconomicParamsPath)
	if err != nil {
		logger.Error("failed to load economic parameters", "err", err)
		os.Exit(1)
	}

	entries, err := genesis.Load(cfg.GenesisPath)
	if err != nil {
		logger.Error("failed to load genesis", "err", err)
		os.Exit(1)
	}
	genesisSnap, err := genesis.BuildSnapshot(entries)
	if err != nil {
		logger.Error("failed to build genesis snapshot", "err", err)
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	if err := manager.LoadOrInit(genesisSnap); err != nil {
		logger.Error("failed to load or initialise state", "err", err)
		os.Exit(1)
	}

	wal, err := coinbase.OpenWAL(filepath.Join(cfg.DataDir, "payout_wal.db"))
	if err != nil {
		logger.Error("failed to open payout wal", "err", err)
		os.Exit(1)
	}
	defer wal.Close()

	if path := strings.TrimSpace(cfg.ValidatorKeyPath); path != "" {
		if addr, err := loadOperatorAddress(path); err != nil {
			logger.Warn("failed to load validator key", "err", err)
		} else {
			logger.Info("loaded operator identity", "address", addr.String())
		}
	}

	ledger := &loggingLedger{logger: logger}
	d := driver.New(econ, ledger, wal)

	srv := api.New(manager, econ, api.Config{
		QueryListenAddr:            cfg.QueryListenAddr,
		NotifyListenAddr:           cfg.NotifyListenAddr,
		SubmissionJWTSecret:        cfg.Governance.SubmissionJWTSecret,
		SubmissionJWTIssuer:        cfg.Governance.SubmissionJWTIssuer,
		RateLimitPerSecond:         cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst:             cfg.RateLimit.Burst,
		SubmissionQuotaPerEpoch:    cfg.Governance.SubmissionQuotaPerEpoch,
		SubmissionQuotaEpochBlocks: cfg.Governance.SubmissionQuotaEpochBlocks,
	})
	if err := srv.Start(); err != nil {
		logger.Error("failed to start api server", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("stakingd started", "query_addr", cfg.QueryListenAddr, "notify_addr", cfg.NotifyListenAddr)
	runBlockLoop(ctx, logger, manager, d, srv)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info("stakingd stopped")
}

// runBlockLoop drives Driver.ProcessBlock on a fixed local interval,
// rotating the proposer round-robin over the current active set and
// assuming full commit participation, since no real consensus driver feed
// is wired yet (see package doc comment).
func runBlockLoop(ctx context.Context, logger *slog.Logger, manager *state.Manager, d *driver.Driver, srv *api.Server) {
	ticker := time.NewTicker(blockInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := manager.Current()
			height := snap.LastHeight + 1
			proposer := selectProposer(snap.ActiveSet, height)

			input := types.BeginBlockInput{
				Height:            height,
				Proposer:          proposer,
				LastCommitSigners: append([]types.TdPubKey(nil), snap.ActiveSet...),
			}
			ops := srv.DrainSubmissions()

			result, stakingErr := d.ProcessBlock(snap, input, ops, types.ZeroAmount())
			if stakingErr != nil {
				logger.Error("block processing failed; halting", "height", height, "err", stakingErr.Error())
				return
			}

			hash, err := manager.Commit(height)
			if err != nil {
				logger.Error("failed to commit snapshot", "height", height, "err", err)
				continue
			}

			logger.Info("block processed", "height", height, "hash", hex.EncodeToString(hash[:]), "events", len(result.Events), "diff", len(result.Diff))
			srv.Publish(height, result.Events, result.Diff)
		}
	}
}

func selectProposer(activeSet []types.TdPubKey, height uint64) types.TdPubKey {
	if len(activeSet) == 0 {
		return types.TdPubKey{}
	}
	sorted := append([]types.TdPubKey(nil), activeSet...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })
	return sorted[height%uint64(len(sorted))]
}

func loadOperatorAddress(path string) (crypto.Address, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return crypto.Address{}, err
	}
	keyBytes, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return crypto.Address{}, err
	}
	priv, err := crypto.PrivateKeyFromBytes(keyBytes)
	if err != nil {
		return crypto.Address{}, err
	}
	return priv.PubKey().Address(), nil
}

// loggingLedger is a placeholder LedgerView: the real ledger collaborator
// (spec.md §6.2) lives in an external system this repo doesn't own. It logs
// settled payouts rather than moving funds, so stakingd is runnable
// standalone without fabricating a ledger integration.
type loggingLedger struct {
	logger *slog.Logger
}

func (l *loggingLedger) ApplyPayout(target [20]byte, amount types.Amount) error {
	l.logger.Info("payout settled", "target", hex.EncodeToString(target[:]), "amount", amount.String())
	return nil
}
