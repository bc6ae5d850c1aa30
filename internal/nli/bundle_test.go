package nli

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func bundleServer(t *testing.T, version string, files map[string]string, tamper bool) *httptest.Server {
	t.Helper()

	manifest := Manifest{Name: "claimlens", Version: version}
	for path, content := range files {
		sum := sha256.Sum256([]byte(content))
		sha := hex.EncodeToString(sum[:])
		if tamper {
			sha = strings.Repeat("0", 64)
		}
		manifest.Files = append(manifest.Files, ManifestFile{
			Path:   path,
			SHA256: sha,
			Size:   int64(len(content)),
		})
	}
	manifestBytes, err := json.Marshal(manifest)
	if err != nil {
		t.Fatal(err)
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix := "/" + version + "/"
		if !strings.HasPrefix(r.URL.Path, prefix) {
			http.NotFound(w, r)
			return
		}
		name := strings.TrimPrefix(r.URL.Path, prefix)
		if name == "manifest.json" {
			w.Write(manifestBytes)
			return
		}
		if content, ok := files[name]; ok {
			fmt.Fprint(w, content)
			return
		}
		http.NotFound(w, r)
	}))
}

func TestDownloadAndInstall(t *testing.T) {
	files := map[string]string{
		"label_map.json":      `["entailment","neutral","contradiction"]`,
		"meta.yaml":           "hidden_size: 384\n",
		"tokenizer/vocab.txt": "[PAD]\n[UNK]\n[CLS]\n[SEP]\n",
	}
	srv := bundleServer(t, "v1", files, false)
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "models", "v1")
	if err := DownloadAndInstall(context.Background(), dest, srv.URL, "v1", 10); err != nil {
		t.Fatal(err)
	}

	for path, content := range files {
		got, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(path)))
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if string(got) != content {
			t.Errorf("%s content mismatch", path)
		}
	}

	version, err := ReadLocalVersion(dest)
	if err != nil || version != "v1" {
		t.Errorf("local version = %q (%v), want v1", version, err)
	}
}

func TestDownloadRejectsBadChecksum(t *testing.T) {
	srv := bundleServer(t, "v1", map[string]string{"label_map.json": "[]"}, true)
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "models", "v1")
	err := DownloadAndInstall(context.Background(), dest, srv.URL, "v1", 10)
	if err == nil || !strings.Contains(err.Error(), "sha256 mismatch") {
		t.Fatalf("err = %v, want sha256 mismatch", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("failed install should not leave a bundle behind")
	}
}

func TestDownloadRejectsVersionMismatch(t *testing.T) {
	// The server publishes a stale manifest for a different version.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"claimlens","version":"v1","files":[]}`))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "models", "v2")
	err := DownloadAndInstall(context.Background(), dest, srv.URL, "v2", 10)
	if err == nil || !strings.Contains(err.Error(), "version mismatch") {
		t.Fatalf("err = %v, want version mismatch", err)
	}
}

func TestDownloadRejectsPathTraversal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "manifest.json") {
			w.Write([]byte(`{"name":"claimlens","version":"v1","files":[{"path":"../evil","sha256":"","size":0}]}`))
			return
		}
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "models", "v1")
	err := DownloadAndInstall(context.Background(), dest, srv.URL, "v1", 10)
	if err == nil || !strings.Contains(err.Error(), "escapes bundle dir") {
		t.Fatalf("err = %v, want path traversal rejection", err)
	}
}

func TestBundleStateRoundTrip(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadBundleState(dir); err != ErrBundleStateNotFound {
		t.Fatalf("err = %v, want ErrBundleStateNotFound", err)
	}

	want := BundleState{CurrentVersion: "v2", PreviousVersion: "v1"}
	if err := SaveBundleState(dir, want); err != nil {
		t.Fatal(err)
	}

	got, err := LoadBundleState(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("state = %+v, want %+v", got, want)
	}
}
