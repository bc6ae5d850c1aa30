package main

import (
	"context"
	"flag"
	"log"

	"github.com/claimlens-ai/claimlens/internal/config"
	"github.com/claimlens-ai/claimlens/internal/nli"
)

// claimlens-setup pre-downloads the model bundle so the first /verify request
// doesn't pay the download cost. It also sanity-loads the engine once.
func main() {
	configPath := flag.String("config", "claimlens.yaml", "Path to claimlens config file")
	version := flag.String("version", "", "bundle version to install (overrides config)")
	skipLoad := flag.Bool("skip-load", false, "skip loading the engine after install")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *version != "" {
		cfg.Models.Version = *version
	}
	if cfg.Models.Version == "" || cfg.Models.BaseURL == "" {
		log.Fatalf("models.version and models.base_url must be set (flags or config) to install a bundle")
	}

	dir, err := nli.EnsureBundle(context.Background(), cfg.Models)
	if err != nil {
		log.Fatalf("bundle install failed: %v", err)
	}
	if dir == "" {
		log.Fatalf("no bundle installed; check models.base_url and models.version")
	}
	log.Printf("model bundle ready at %s", dir)

	if *skipLoad {
		return
	}
	engine, err := nli.LoadEngine(dir, cfg.Models.SeqLen)
	if err != nil {
		log.Fatalf("bundle installed but engine failed to load: %v", err)
	}
	if !engine.Ready() {
		log.Fatalf("engine loaded but not ready")
	}
	log.Printf("NLI engine loads cleanly; claimlens will start in nli mode")
}
