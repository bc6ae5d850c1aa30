package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/claimlens-ai/claimlens/internal/audit"
	"github.com/claimlens-ai/claimlens/internal/citecheck"
	"github.com/claimlens-ai/claimlens/internal/config"
	"github.com/claimlens-ai/claimlens/internal/factcheck"
	"github.com/claimlens-ai/claimlens/internal/nli"
	"github.com/claimlens-ai/claimlens/internal/server"
	"github.com/claimlens-ai/claimlens/internal/telemetry"
)

func main() {
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides config)")
	configPath := flag.String("config", "claimlens.yaml", "Path to claimlens config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	addr := cfg.Server.Addr
	if *addrFlag != "" {
		addr = *addrFlag
	}

	ctx := context.Background()

	tel, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Protocol: cfg.Telemetry.Protocol,
		Service:  cfg.Telemetry.Service,
		Version:  server.Version,
	})
	if err != nil {
		log.Fatalf("failed to set up telemetry: %v", err)
	}

	// Model bundle: download or reuse, then load the NLI engine. Lexical-only
	// operation is allowed unless the config demands the model.
	var (
		engine        *nli.Engine
		bundleVersion string
	)
	bundleDir, err := nli.EnsureBundle(ctx, cfg.Models)
	if err != nil {
		log.Fatalf("failed to prepare model bundle: %v", err)
	}
	if bundleDir != "" {
		engine, err = nli.LoadEngine(bundleDir, cfg.Models.SeqLen)
		if err != nil {
			if cfg.Models.RequireNLI {
				log.Fatalf("failed to load NLI engine: %v", err)
			}
			log.Printf("NLI engine unavailable, falling back to lexical scoring: %v", err)
			engine = nil
		} else {
			bundleVersion = filepath.Base(bundleDir)
			log.Printf("NLI engine loaded from bundle %s", bundleVersion)
		}
	} else if cfg.Models.RequireNLI {
		log.Fatalf("models.require_nli is set but no bundle is configured or installed; run claimlens-setup or set models.base_url and models.version")
	} else {
		log.Printf("no model bundle installed; running with lexical evidence scoring only")
	}

	citations, err := citecheck.New(cfg.Citations)
	if err != nil {
		log.Fatalf("failed to set up citation verifier: %v", err)
	}
	facts := factcheck.New(cfg.Facts, engine, cfg.Models.ContradictionThreshold)

	sinks, err := audit.BuildSinks(cfg.Audit.Sinks)
	if err != nil {
		log.Fatalf("failed to build audit sinks: %v", err)
	}
	emitter := audit.NewEmitter(audit.EmitterConfig{
		QueueSize:       cfg.Audit.QueueSize,
		Workers:         cfg.Audit.Workers,
		ShutdownTimeout: time.Duration(cfg.Audit.ShutdownTimeoutSeconds) * time.Second,
	}, sinks)

	srv := server.New(cfg, server.Deps{
		Citations:     citations,
		Facts:         facts,
		Audit:         emitter,
		Telemetry:     tel,
		BundleVersion: bundleVersion,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Printf("received %s, shutting down", sig)
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	emitter.Close(shutdownCtx)
	if err := citations.Close(); err != nil {
		log.Printf("closing citation cache: %v", err)
	}
	tel.Shutdown(shutdownCtx)
}
