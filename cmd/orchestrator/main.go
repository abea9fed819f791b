package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/stablerail/cctp-orchestrator/pkg/api"
	"github.com/stablerail/cctp-orchestrator/pkg/app/httpserver"
	"github.com/stablerail/cctp-orchestrator/pkg/aptos"
	"github.com/stablerail/cctp-orchestrator/pkg/attestation"
	"github.com/stablerail/cctp-orchestrator/pkg/bridge"
	"github.com/stablerail/cctp-orchestrator/pkg/bridge/pg"
	"github.com/stablerail/cctp-orchestrator/pkg/config"
	"github.com/stablerail/cctp-orchestrator/pkg/evm"
	"github.com/stablerail/cctp-orchestrator/pkg/pgutil"
)

func main() {
	cfgPath := flag.String("config", "config.example.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("error reading configuration file: %s", err.Error())
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("error creating logger: %s", err.Error())
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Orchestrator exited with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	var store bridge.Store
	if cfg.Database.Host != "" {
		db, err := pgutil.ConnectDB(&cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		store = pg.NewStore(db)
		logger.Info("Using Postgres bridge store", zap.String("database", cfg.Database.Database))
	} else {
		store = bridge.NewMemStore()
		logger.Warn("No database configured, bridge state is process-lifetime only")
	}

	chains := make(map[string]bridge.SourceChain, len(cfg.Chains))
	for name, chainCfg := range cfg.Chains {
		client, err := evm.NewClient(chainCfg, logger.Named("evm."+name))
		if err != nil {
			return fmt.Errorf("chain %s: %w", name, err)
		}
		chains[name] = client
		logger.Info("Source chain configured",
			zap.String("chain", name),
			zap.Int64("chain_id", chainCfg.ChainID),
			zap.Uint32("cctp_domain", chainCfg.CCTPDomain))
	}

	attester := attestation.NewClient(cfg.Attestation, logger.Named("attestation"))

	destination, err := aptos.NewClient(cfg.Aptos, logger.Named("aptos"))
	if err != nil {
		return err
	}

	protocols := make([]bridge.Protocol, 0, len(cfg.Bridge.Protocols))
	for _, p := range cfg.Bridge.Protocols {
		protocols = append(protocols, bridge.Protocol{Name: p.Name, APY: p.APY, TVL: p.TVL})
	}

	orchestrator := bridge.NewOrchestrator(bridge.Options{
		Store:             store,
		Chains:            chains,
		Attester:          attester,
		Destination:       destination,
		DestinationDomain: cfg.Aptos.CCTPDomain,
		Policy:            bridge.PolicyFromConfig(cfg.Bridge),
		Protocols:         protocols,
		Logger:            logger.Named("bridge"),
	})
	defer orchestrator.Stop()

	server := api.NewServer(orchestrator, cfg.Auth, cfg.Monitoring.Enabled, logger.Named("api"))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return httpserver.ServeAndWait(ctx, logger, srv, cfg.Server.ShutdownTimeout)
}
