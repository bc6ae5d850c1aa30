package nli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/claimlens-ai/claimlens/internal/config"
)

// EnsureBundle makes sure a usable model bundle is installed under the
// configured models directory and returns its path. An empty path with a nil
// error means no bundle is available and the caller decides whether lexical
// fallback is acceptable.
func EnsureBundle(ctx context.Context, cfg config.ModelsConfig) (string, error) {
	state, err := LoadBundleState(cfg.Dir)
	if err != nil && !errors.Is(err, ErrBundleStateNotFound) {
		return "", err
	}

	version := cfg.Version
	if version == "" {
		version = state.CurrentVersion
	}
	if version == "" {
		return "", nil
	}

	bundleDir := filepath.Join(cfg.Dir, version)
	installed := BundleFilesPresent(bundleDir)

	if installed && !cfg.UpdateOnStart {
		return bundleDir, nil
	}

	if cfg.BaseURL == "" {
		if installed {
			return bundleDir, nil
		}
		return "", nil
	}

	if installed && cfg.UpdateOnStart {
		if local, err := ReadLocalVersion(bundleDir); err == nil && local == version {
			return bundleDir, nil
		}
	}

	log.Printf("claimlens installing model bundle version=%s", version)
	if err := DownloadAndInstall(ctx, bundleDir, cfg.BaseURL, version, cfg.DownloadTimeoutSeconds); err != nil {
		if installed {
			log.Printf("claimlens bundle update failed, keeping installed version: %v", err)
			return bundleDir, nil
		}
		return "", fmt.Errorf("install model bundle: %w", err)
	}

	newState := BundleState{CurrentVersion: version}
	if state.CurrentVersion != "" && state.CurrentVersion != version {
		newState.PreviousVersion = state.CurrentVersion
	}
	if err := SaveBundleState(cfg.Dir, newState); err != nil {
		return "", err
	}
	return bundleDir, nil
}
