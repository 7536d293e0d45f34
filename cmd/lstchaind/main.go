package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lstchain/config"
	"lstchain/core/state"
	"lstchain/native/pools"
	"lstchain/observability/logging"
	"lstchain/observability/metrics"
	"lstchain/storage"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Setup("lstchaind", "").Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	logger := logging.Setup("lstchaind", cfg.Environment)

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "ledger"))
	if err != nil {
		logger.Error("failed to open database", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	params, err := engineParams(cfg.Pools)
	if err != nil {
		logger.Error("invalid pools configuration", "error", err)
		os.Exit(1)
	}
	engine, err := pools.NewEngine(state.NewManager(db), params, pools.NewStaticProvider())
	if err != nil {
		logger.Error("failed to construct pools engine", "error", err)
		os.Exit(1)
	}
	engine.SetLogger(logger.With("module", "pools"))

	registry := prometheus.NewRegistry()
	engine.SetMetrics(metrics.NewPoolsMetrics(registry))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: cfg.MetricsAddress, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	logger.Info("lstchaind started", "data_dir", cfg.DataDir,
		"metrics", cfg.MetricsAddress, "era", engine.CurrentEra())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics server shutdown failed", "error", err)
	}
	logger.Info("lstchaind stopped")
}

func engineParams(cfg config.PoolsConfig) (pools.Params, error) {
	existential, err := cfg.ExistentialDepositAmount()
	if err != nil {
		return pools.Params{}, err
	}
	maxTVL, err := cfg.MaxTVLAmount()
	if err != nil {
		return pools.Params{}, err
	}
	sink, err := cfg.RemainderSinkAddress()
	if err != nil {
		return pools.Params{}, err
	}
	params := pools.Params{
		BondingDuration:    cfg.BondingDuration,
		HistoryDepth:       cfg.HistoryDepth,
		MaxPoolMembers:     cfg.MaxPoolMembers,
		MaxTargets:         cfg.MaxTargets,
		MaxUnbondingEras:   cfg.MaxUnbondingEras,
		MaxPendingSlashes:  cfg.MaxPendingSlashes,
		MaxBoostMembers:    cfg.MaxBoostMembers,
		ExistentialDeposit: existential,
		MaxTVL:             maxTVL,
		RemainderSink:      sink,
	}
	return params, params.Validate()
}
