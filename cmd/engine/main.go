// Command engine runs the AgentRank scan engine: an HTTP server that
// executes browser-agent diagnostic sessions and a background sweeper
// that enforces recording retention.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/agentrank/engine/pkg/api"
	"github.com/agentrank/engine/pkg/browser/adapters/agentd"
	"github.com/agentrank/engine/pkg/config"
	"github.com/agentrank/engine/pkg/logging"
	"github.com/agentrank/engine/pkg/recording"
	"github.com/agentrank/engine/pkg/scan"
)

// Version information - set via ldflags during build
var (
	version = "1.0.0-dev"
	commit  = "unknown"
)

func main() {
	var configPath string
	var showVersion bool
	flag.StringVar(&configPath, "config", os.Getenv("ENGINE_CONFIG"), "path to the engine config file")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("engine %s (%s)\n", version, commit)
		return
	}

	if err := run(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "engine: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New("engine", logging.ParseLevel(cfg.Logging.Level))
	logger.Info("starting engine",
		"version", version,
		"address", cfg.Server.Address,
		"recordings", cfg.Recording.Root,
		"storage_configured", cfg.StorageConfigured(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := recording.NewR2Store(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("init replay store: %w", err)
	}

	recordings := recording.NewManager(cfg.Recording.Root, store, recording.RetryConfig{
		MaxAttempts: cfg.Storage.UploadAttempts,
		BaseDelay:   cfg.Storage.UploadBase,
		MaxDelay:    cfg.Storage.UploadMax,
	}, logger.WithComponent("recording"))

	sweeper := recording.NewSweeper(
		cfg.Recording.Root,
		cfg.Recording.RetentionWindow,
		cfg.Recording.SweepInterval,
		logger.WithComponent("sweeper"),
	)

	agentdCfg := agentd.Config{
		Endpoint:       cfg.Agentd.Endpoint,
		ControlTimeout: cfg.Agentd.Timeout,
	}
	runtime, err := agentd.NewRuntime(agentdCfg)
	if err != nil {
		return fmt.Errorf("init browser runtime: %w", err)
	}
	defer runtime.Close()

	runner, err := agentd.NewRunner(agentdCfg)
	if err != nil {
		return fmt.Errorf("init agent runner: %w", err)
	}

	orch := scan.New(runner, runtime, recordings, cfg.Scan, logger.WithComponent("scan"))

	server := api.NewServer(api.ServerConfig{
		Address:           cfg.Server.Address,
		Orchestrator:      orch,
		ScanRatePerMinute: cfg.Server.ScanRatePerMinute,
		ScanBurst:         cfg.Server.ScanBurst,
		Logger:            logger.WithComponent("api"),
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(ctx)
	})
	g.Go(func() error {
		sweeper.Run(ctx)
		return nil
	})

	err = g.Wait()
	logger.Info("engine stopped")
	return err
}
