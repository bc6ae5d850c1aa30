package nli

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ManifestFile describes one file entry in manifest.json.
type ManifestFile struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// Manifest mirrors the manifest.json published alongside a model bundle.
type Manifest struct {
	Name      string         `json:"name"`
	Version   string         `json:"version"`
	CreatedAt string         `json:"created_at"`
	Files     []ManifestFile `json:"files"`
}

// DownloadAndInstall fetches a model bundle and atomically installs it at
// destDir. The manifest lives at <baseURL>/<version>/manifest.json and each
// file at <baseURL>/<version>/<path>; every file is checked against its
// manifest sha256 before the bundle replaces the previous install.
func DownloadAndInstall(ctx context.Context, destDir, baseURL, version string, timeoutSeconds int) error {
	if strings.TrimSpace(destDir) == "" {
		return errors.New("destDir is empty")
	}
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return errors.New("bundle base url is empty")
	}
	if strings.TrimSpace(version) == "" {
		return errors.New("bundle version is empty")
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 300
	}

	client := &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second}
	versionBase := baseURL + "/" + url.PathEscape(version)

	manifestBytes, manifest, err := downloadManifest(ctx, client, versionBase+"/manifest.json")
	if err != nil {
		return err
	}
	if manifest.Version != version {
		return fmt.Errorf("manifest version mismatch: expected %s, got %s", version, manifest.Version)
	}

	parent := filepath.Dir(destDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create bundle parent dir: %w", err)
	}

	tmpDir, err := os.MkdirTemp(parent, "claimlens-bundle-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := downloadBundleFiles(ctx, client, tmpDir, manifest.Files, versionBase); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "manifest.json"), manifestBytes, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "version"), []byte(version), 0o644); err != nil {
		return fmt.Errorf("write version file: %w", err)
	}

	backup := destDir + ".bak"
	if _, statErr := os.Stat(destDir); statErr == nil {
		_ = os.RemoveAll(backup)
		if err := os.Rename(destDir, backup); err != nil {
			return fmt.Errorf("backup existing bundle: %w", err)
		}
	}

	if err := os.Rename(tmpDir, destDir); err != nil {
		if _, restoreErr := os.Stat(backup); restoreErr == nil {
			_ = os.Rename(backup, destDir)
		}
		return fmt.Errorf("install new bundle: %w", err)
	}

	_ = os.RemoveAll(backup)
	return nil
}

// ReadLocalVersion returns the installed bundle version if present.
func ReadLocalVersion(bundleDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(bundleDir, "version"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// BundleFilesPresent checks that the key files exist on disk.
func BundleFilesPresent(bundleDir string) bool {
	required := []string{
		"nli.onnx",
		"embedder.onnx",
		"label_map.json",
		"meta.yaml",
		filepath.Join("tokenizer", "vocab.txt"),
	}
	for _, p := range required {
		if _, err := os.Stat(filepath.Join(bundleDir, p)); err != nil {
			return false
		}
	}
	return true
}

func downloadManifest(ctx context.Context, client *http.Client, manifestURL string) ([]byte, *Manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build manifest request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("download manifest %s: %w", manifestURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, nil, fmt.Errorf("download manifest %s status: %s: %s", manifestURL, resp.Status, strings.TrimSpace(string(errBody)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read manifest body: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, nil, fmt.Errorf("decode manifest: %w", err)
	}
	return data, &manifest, nil
}

func downloadBundleFiles(ctx context.Context, client *http.Client, baseDir string, files []ManifestFile, baseURL string) error {
	for _, f := range files {
		if strings.Contains(f.Path, "..") || filepath.IsAbs(f.Path) {
			return fmt.Errorf("manifest path %q escapes bundle dir", f.Path)
		}
		log.Printf("claimlens downloading %s (%d bytes)", f.Path, f.Size)
		localPath := filepath.Join(baseDir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			return fmt.Errorf("create dir for %s: %w", f.Path, err)
		}

		remote := baseURL + "/" + f.Path
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, remote, nil)
		if err != nil {
			return fmt.Errorf("build file request for %s: %w", f.Path, err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("download file %s (%s): %w", f.Path, remote, err)
		}
		if resp.StatusCode != http.StatusOK {
			errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			resp.Body.Close()
			return fmt.Errorf("download file %s (%s) status: %s: %s", f.Path, remote, resp.Status, strings.TrimSpace(string(errBody)))
		}

		dst, err := os.Create(localPath)
		if err != nil {
			resp.Body.Close()
			return fmt.Errorf("create local file %s: %w", localPath, err)
		}

		h := sha256.New()
		prog := newProgressLogger(f.Path, f.Size)
		n, err := io.Copy(io.MultiWriter(dst, h), io.TeeReader(resp.Body, prog))
		resp.Body.Close()
		closeErr := dst.Close()
		prog.Finish()
		if err != nil {
			return fmt.Errorf("write file %s: %w", f.Path, err)
		}
		if closeErr != nil {
			return fmt.Errorf("close file %s: %w", f.Path, closeErr)
		}

		if n != f.Size && f.Size > 0 {
			return fmt.Errorf("size mismatch for %s: expected %d, got %d", f.Path, f.Size, n)
		}

		sum := hex.EncodeToString(h.Sum(nil))
		if f.SHA256 != "" && !strings.EqualFold(sum, f.SHA256) {
			return fmt.Errorf("sha256 mismatch for %s: expected %s, got %s", f.Path, f.SHA256, sum)
		}
	}
	return nil
}

type progressLogger struct {
	name       string
	total      int64
	downloaded int64
	step       int64
	next       int64
	start      time.Time
}

func newProgressLogger(name string, total int64) *progressLogger {
	step := total / 20 // aim for ~5% increments
	if step <= 0 {
		step = 1 << 20 // 1MB steps for unknown/very small totals
	}
	return &progressLogger{
		name:  name,
		total: total,
		step:  step,
		next:  step,
		start: time.Now(),
	}
}

func (p *progressLogger) Write(b []byte) (int, error) {
	n := len(b)
	p.downloaded += int64(n)
	if p.downloaded >= p.next {
		percent := int64(0)
		if p.total > 0 {
			percent = p.downloaded * 100 / p.total
		}
		log.Printf("claimlens download progress %s: %d/%d bytes (%d%%)", p.name, p.downloaded, p.total, percent)
		p.next += p.step
	}
	return n, nil
}

func (p *progressLogger) Finish() {
	if p == nil {
		return
	}
	duration := time.Since(p.start).Round(time.Second)
	log.Printf("claimlens download complete %s: %d bytes in %s", p.name, p.downloaded, duration)
}
