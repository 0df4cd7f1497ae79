package circuits

import (
	"context"
	"crypto/sha256"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func writeTestArtifact(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	err := os.WriteFile(path, content, 0o644)
	qt.Assert(t, err, qt.IsNil)
	return path
}

func TestArtifactLoadLocal(t *testing.T) {
	c := qt.New(t)
	content := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, 0xaa}
	path := writeTestArtifact(t, "circuit.wasm", content)

	var stages []Stage
	a := &Artifact{
		Name:       "circuit.wasm",
		LocalPaths: []string{filepath.Join(t.TempDir(), "missing.wasm"), path},
		WasmHeader: true,
	}
	err := a.Load(context.Background(), func(p Progress) {
		stages = append(stages, p.Stage)
	})
	c.Assert(err, qt.IsNil)
	c.Assert(a.Content(), qt.DeepEquals, content)
	c.Assert(stages, qt.DeepEquals, []Stage{StageIdle, StageValidating, StageReady})

	// a second load is a no-op
	err = a.Load(context.Background(), func(p Progress) {
		c.Fatalf("unexpected progress report %+v", p)
	})
	c.Assert(err, qt.IsNil)
}

func TestArtifactWasmMagic(t *testing.T) {
	c := qt.New(t)
	path := writeTestArtifact(t, "bad.wasm", []byte{0xde, 0xad, 0xbe, 0xef, 0x01})

	a := &Artifact{Name: "bad.wasm", LocalPaths: []string{path}, WasmHeader: true}
	err := a.Load(context.Background(), nil)
	// the error names the bytes actually found
	c.Assert(err, qt.ErrorMatches, `.*wrong wasm magic number: expected 0061736d, got deadbeef`)
	c.Assert(a.Content(), qt.IsNil)

	short := &Artifact{
		Name:       "short.wasm",
		LocalPaths: []string{writeTestArtifact(t, "short.wasm", []byte{0x00})},
		WasmHeader: true,
	}
	err = short.Load(context.Background(), nil)
	c.Assert(err, qt.ErrorMatches, `.*content too short for a wasm binary.*`)
}

func TestArtifactHashPin(t *testing.T) {
	c := qt.New(t)
	content := []byte("proving key bytes")
	path := writeTestArtifact(t, "circuit.zkey", content)
	sum := sha256.Sum256(content)

	good := &Artifact{Name: "circuit.zkey", LocalPaths: []string{path}, Hash: sum[:]}
	c.Assert(good.Load(context.Background(), nil), qt.IsNil)
	c.Assert(good.Content(), qt.DeepEquals, content)

	wrong := sha256.Sum256([]byte("something else"))
	bad := &Artifact{Name: "circuit.zkey", LocalPaths: []string{path}, Hash: wrong[:]}
	err := bad.Load(context.Background(), nil)
	c.Assert(err, qt.ErrorMatches, `.*hash mismatch.*`)
	c.Assert(bad.Content(), qt.IsNil)
}

func TestArtifactDownload(t *testing.T) {
	c := qt.New(t)
	origBaseDir := BaseDir
	BaseDir = t.TempDir()
	defer func() { BaseDir = origBaseDir }()

	content := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(content)
	}))
	defer srv.Close()

	a := &Artifact{Name: "remote.wasm", RemoteURL: srv.URL, WasmHeader: true}
	err := a.Load(context.Background(), nil)
	c.Assert(err, qt.IsNil)
	c.Assert(a.Content(), qt.DeepEquals, content)

	// the download landed in the cache
	cached, err := os.ReadFile(filepath.Join(BaseDir, "remote.wasm"))
	c.Assert(err, qt.IsNil)
	c.Assert(cached, qt.DeepEquals, content)

	// a fresh artifact with the same name hits the cache, not the
	// network
	srv.Close()
	b := &Artifact{Name: "remote.wasm", RemoteURL: srv.URL, WasmHeader: true}
	c.Assert(b.Load(context.Background(), nil), qt.IsNil)
	c.Assert(b.Content(), qt.DeepEquals, content)
}

func TestArtifactDownloadUnknownLength(t *testing.T) {
	c := qt.New(t)
	origBaseDir := BaseDir
	BaseDir = t.TempDir()
	defer func() { BaseDir = origBaseDir }()

	content := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	// flushing mid-body forces a chunked response with no
	// Content-Length, so the client sees an unknown total
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(content[:4])
		w.(http.Flusher).Flush()
		time.Sleep(1200 * time.Millisecond)
		_, _ = w.Write(content[4:])
	}))
	defer srv.Close()

	var reports []Progress
	a := &Artifact{Name: "chunked.wasm", RemoteURL: srv.URL, WasmHeader: true}
	err := a.Load(context.Background(), func(p Progress) {
		reports = append(reports, p)
	})
	c.Assert(err, qt.IsNil)
	c.Assert(a.Content(), qt.DeepEquals, content)

	// an unknown total reports as zero, never negative
	var sawDownloading bool
	for _, p := range reports {
		c.Assert(p.TotalBytes >= 0, qt.IsTrue)
		if p.Stage == StageDownloading {
			sawDownloading = true
			c.Assert(p.TotalBytes, qt.Equals, int64(0))
		}
	}
	c.Assert(sawDownloading, qt.IsTrue)
}

func TestArtifactDownloadInvalidContent(t *testing.T) {
	c := qt.New(t)
	origBaseDir := BaseDir
	BaseDir = t.TempDir()
	defer func() { BaseDir = origBaseDir }()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not a wasm binary"))
	}))
	defer srv.Close()

	a := &Artifact{Name: "corrupt.wasm", RemoteURL: srv.URL, WasmHeader: true}
	err := a.Load(context.Background(), nil)
	c.Assert(err, qt.ErrorMatches, `.*wrong wasm magic number.*`)
	c.Assert(a.Content(), qt.IsNil)

	// the invalid download must not stay cached
	_, err = os.Stat(filepath.Join(BaseDir, "corrupt.wasm"))
	c.Assert(os.IsNotExist(err), qt.IsTrue)
}

func TestArtifactSetLoad(t *testing.T) {
	c := qt.New(t)
	wasm := writeTestArtifact(t, "c.wasm", []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00})
	zkey := writeTestArtifact(t, "c.zkey", []byte("zkey content"))

	set := NewArtifactSet(
		&Artifact{Name: "c.wasm", LocalPaths: []string{wasm}, WasmHeader: true},
		&Artifact{Name: "c.zkey", LocalPaths: []string{zkey}},
	)
	c.Assert(set.Loaded(), qt.IsFalse)
	c.Assert(set.WitnessBytes(), qt.IsNil)

	err := set.Load(context.Background(), nil)
	c.Assert(err, qt.IsNil)
	c.Assert(set.Loaded(), qt.IsTrue)
	c.Assert(set.WitnessBytes(), qt.HasLen, 8)
	c.Assert(set.ProvingKeyBytes(), qt.DeepEquals, []byte("zkey content"))
}

func TestArtifactSetLoadFailureLeavesUnloaded(t *testing.T) {
	c := qt.New(t)
	wasm := writeTestArtifact(t, "c.wasm", []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00})

	set := NewArtifactSet(
		&Artifact{Name: "c.wasm", LocalPaths: []string{wasm}, WasmHeader: true},
		&Artifact{Name: "gone.zkey", LocalPaths: []string{filepath.Join(t.TempDir(), "gone.zkey")}},
	)
	err := set.Load(context.Background(), nil)
	c.Assert(err, qt.ErrorMatches, `error loading proving key.*`)
	c.Assert(set.Loaded(), qt.IsFalse)
}
