package circuits

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spectre-protocol/spectre-shield/log"
	"golang.org/x/sync/errgroup"
)

// CheckHashes determines whether artifact content is verified against
// its pinned sha256 on load and download. It can be disabled by setting
// the SPECTRE_CHECK_HASHES environment variable to false or 0.
var CheckHashes = true

// BaseDir is the path where downloaded artifacts are cached. If an
// artifact is not found in any of its local candidate paths or the
// cache, it is downloaded and stored here. Defaults to the
// SPECTRE_ARTIFACTS_DIR env var or the user cache directory.
var BaseDir string

func init() {
	if checkHashes := os.Getenv("SPECTRE_CHECK_HASHES"); checkHashes != "" {
		if strings.ToLower(checkHashes) == "false" || checkHashes == "0" {
			CheckHashes = false
		}
	}
	if dir := os.Getenv("SPECTRE_ARTIFACTS_DIR"); dir != "" {
		BaseDir = dir
	} else {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			log.Warnf("unable to access user home directory, using temporary directory: %v", err)
			BaseDir = filepath.Join(os.TempDir(), "spectre-artifacts")
		} else {
			BaseDir = filepath.Join(home, ".cache", "spectre-artifacts")
		}
	}
	if err := os.MkdirAll(BaseDir, 0o755); err != nil {
		log.Errorf("failed to create BaseDir %s: %v", BaseDir, err)
	}
}

// wasmMagic is the mandatory 4-byte header of a WebAssembly binary.
var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6d}

// Stage identifies where an artifact is in its load lifecycle.
type Stage string

const (
	StageIdle        Stage = "idle"
	StageDownloading Stage = "downloading"
	StageValidating  Stage = "validating"
	StageReady       Stage = "ready"
)

// Progress is a snapshot of an artifact load, delivered to the
// optional callback. TotalBytes is zero when the remote server does
// not announce a content length.
type Progress struct {
	Artifact    string
	Stage       Stage
	BytesLoaded int64
	TotalBytes  int64
	Message     string
}

// ProgressFunc receives load progress snapshots. It may be nil.
type ProgressFunc func(Progress)

// Artifact is one binary the prover needs: a witness-generator wasm or
// a Groth16 proving key. Load resolves it from the local candidate
// paths first, then the cache directory, then the remote URL, and
// validates the content before exposing it.
type Artifact struct {
	// Name is the cache file name and the label used in progress
	// reports and errors.
	Name string
	// LocalPaths are candidate file paths tried in order before any
	// network access.
	LocalPaths []string
	// RemoteURL is the download fallback; empty disables it.
	RemoteURL string
	// Hash is the optional pinned sha256 of the content.
	Hash []byte
	// WasmHeader requires the content to start with the wasm magic
	// number.
	WasmHeader bool

	content []byte
}

// Content returns the loaded bytes, or nil before a successful Load.
func (a *Artifact) Content() []byte {
	return a.content
}

// Load resolves and validates the artifact content. On any failure the
// content stays unset, so a later retry starts clean. A nil report is
// allowed.
func (a *Artifact) Load(ctx context.Context, report ProgressFunc) error {
	if len(a.content) != 0 {
		return nil
	}
	emit(report, Progress{Artifact: a.Name, Stage: StageIdle})

	paths := append([]string{}, a.LocalPaths...)
	if a.Name != "" {
		paths = append(paths, filepath.Join(BaseDir, a.Name))
	}
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("error reading %s: %w", path, err)
		}
		emit(report, Progress{Artifact: a.Name, Stage: StageValidating,
			BytesLoaded: int64(len(content)), TotalBytes: int64(len(content))})
		if err := a.validate(content); err != nil {
			return fmt.Errorf("invalid artifact at %s: %w", path, err)
		}
		log.Debugw("artifact loaded from local path", "artifact", a.Name, "path", path)
		a.content = content
		emit(report, Progress{Artifact: a.Name, Stage: StageReady,
			BytesLoaded: int64(len(content)), TotalBytes: int64(len(content))})
		return nil
	}

	if a.RemoteURL == "" {
		return fmt.Errorf("artifact %s not found locally and no remote url provided", a.Name)
	}
	content, err := a.download(ctx, report)
	if err != nil {
		return err
	}
	emit(report, Progress{Artifact: a.Name, Stage: StageValidating,
		BytesLoaded: int64(len(content)), TotalBytes: int64(len(content))})
	if err := a.validate(content); err != nil {
		// drop the cached copy so the next attempt re-downloads
		if a.Name != "" {
			_ = os.Remove(filepath.Join(BaseDir, a.Name))
		}
		return fmt.Errorf("invalid artifact from %s: %w", a.RemoteURL, err)
	}
	a.content = content
	emit(report, Progress{Artifact: a.Name, Stage: StageReady,
		BytesLoaded: int64(len(content)), TotalBytes: int64(len(content))})
	return nil
}

// validate checks the wasm header and the pinned hash, in that order.
func (a *Artifact) validate(content []byte) error {
	if a.WasmHeader {
		if len(content) < len(wasmMagic) {
			return fmt.Errorf("content too short for a wasm binary (%d bytes)", len(content))
		}
		if !bytes.Equal(content[:len(wasmMagic)], wasmMagic) {
			return fmt.Errorf("wrong wasm magic number: expected %x, got %x",
				wasmMagic, content[:len(wasmMagic)])
		}
	}
	if CheckHashes && len(a.Hash) != 0 {
		sum := sha256.Sum256(content)
		if !bytes.Equal(sum[:], a.Hash) {
			return fmt.Errorf("hash mismatch: expected %x, got %x", a.Hash, sum[:])
		}
	}
	return nil
}

// download fetches the artifact into the cache directory through a
// .partial file, supporting resume, then reads it back.
func (a *Artifact) download(ctx context.Context, report ProgressFunc) ([]byte, error) {
	if _, err := url.Parse(a.RemoteURL); err != nil {
		return nil, fmt.Errorf("error parsing the artifact URL: %w", err)
	}
	path := filepath.Join(BaseDir, a.Name)
	partialPath := path + ".partial"

	var startByte int64
	if info, err := os.Stat(partialPath); err == nil {
		startByte = info.Size()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.RemoteURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating the artifact request: %w", err)
	}
	if startByte > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", startByte))
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error performing the request: %w", err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			log.Warnf("error closing response body: %v", err)
		}
	}()
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("error downloading artifact %s: http status: %d", a.RemoteURL, res.StatusCode)
	}
	var fileMode int
	if startByte > 0 && res.StatusCode == http.StatusPartialContent {
		fileMode = os.O_APPEND | os.O_WRONLY
	} else {
		startByte = 0
		fileMode = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	fd, err := os.OpenFile(partialPath, fileMode, 0o644)
	if err != nil {
		return nil, fmt.Errorf("error opening artifact file: %w", err)
	}
	defer func() {
		if err := fd.Close(); err != nil {
			log.Warnf("error closing artifact file: %v", err)
		}
	}()

	// a negative ContentLength means the server did not announce a
	// total; report zero instead of a bogus value
	var contentLength int64
	if res.ContentLength >= 0 {
		contentLength = res.ContentLength + startByte
	}
	pr := &progressReader{
		reader:        res.Body,
		total:         startByte,
		contentLength: contentLength,
	}
	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(fd, pr)
		done <- err
	}()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			if err != nil {
				return nil, fmt.Errorf("error copying data to file: %w", err)
			}
			goto finished
		case <-ticker.C:
			total := atomic.LoadInt64(&pr.total)
			emit(report, Progress{
				Artifact:    a.Name,
				Stage:       StageDownloading,
				BytesLoaded: total,
				TotalBytes:  pr.contentLength,
			})
			downloadedMiB := float64(total) / (1024 * 1024)
			var percentage float64
			if pr.contentLength > 0 {
				percentage = (float64(total) / float64(pr.contentLength)) * 100
			}
			log.Debugw("downloading artifact", "artifact", a.Name, "url", a.RemoteURL,
				"downloaded", fmt.Sprintf("%.2fMiB", downloadedMiB),
				"progress", fmt.Sprintf("%.2f%%", percentage))
		}
	}
finished:
	if err := os.Rename(partialPath, path); err != nil {
		return nil, fmt.Errorf("error renaming file: %w", err)
	}
	return os.ReadFile(path)
}

func emit(report ProgressFunc, p Progress) {
	if report != nil {
		report(p)
	}
}

// progressReader wraps an io.Reader and keeps track of the total bytes
// read.
type progressReader struct {
	reader        io.Reader
	total         int64 // updated atomically
	contentLength int64
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	atomic.AddInt64(&pr.total, int64(n))
	return n, err
}

// ArtifactSet holds the two artifacts of the transaction circuit and
// loads them together. Load is safe for concurrent use: callers racing
// on a cold set share a single load attempt, and nothing is marked
// ready unless both artifacts validated.
type ArtifactSet struct {
	witness    *Artifact
	provingKey *Artifact

	mu     sync.Mutex
	loaded bool
}

// NewArtifactSet creates an ArtifactSet from a witness-generator
// artifact and a proving key artifact.
func NewArtifactSet(witness, provingKey *Artifact) *ArtifactSet {
	return &ArtifactSet{witness: witness, provingKey: provingKey}
}

// Load resolves both artifacts concurrently. It is idempotent once it
// has succeeded; after a failure the set stays unloaded and the next
// call retries from scratch.
func (s *ArtifactSet) Load(ctx context.Context, report ProgressFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.witness.Load(ctx, report); err != nil {
			return fmt.Errorf("error loading witness generator: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.provingKey.Load(ctx, report); err != nil {
			return fmt.Errorf("error loading proving key: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	s.loaded = true
	return nil
}

// Loaded reports whether both artifacts are resolved and validated.
func (s *ArtifactSet) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// WitnessBytes returns the witness generator wasm, or nil before Load.
func (s *ArtifactSet) WitnessBytes() []byte {
	if s.witness == nil {
		return nil
	}
	return s.witness.Content()
}

// ProvingKeyBytes returns the proving key, or nil before Load.
func (s *ArtifactSet) ProvingKeyBytes() []byte {
	if s.provingKey == nil {
		return nil
	}
	return s.provingKey.Content()
}
