package main

import (
	"context"
	"encoding/hex"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/spectre-protocol/spectre-shield/api"
	"github.com/spectre-protocol/spectre-shield/circuits"
	"github.com/spectre-protocol/spectre-shield/log"
	"github.com/spectre-protocol/spectre-shield/service"
	"github.com/spectre-protocol/spectre-shield/solana"
	"github.com/spectre-protocol/spectre-shield/storage"
	"github.com/spectre-protocol/spectre-shield/tree"
	"github.com/spectre-protocol/spectre-shield/withdraw"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
)

func main() {
	host := flag.String("host", "0.0.0.0", "API host to bind")
	port := flag.Int("port", 9090, "API port to bind")
	dataDir := flag.String("dataDir", defaultDataDir(), "directory for the note store and the commitment tree")
	wasmPath := flag.String("circuitWasm", "", "local path of the witness generator wasm")
	wasmURL := flag.String("circuitWasmURL", "", "download URL of the witness generator wasm")
	wasmHash := flag.String("circuitWasmHash", "", "hex sha256 of the witness generator wasm")
	zkeyPath := flag.String("provingKey", "", "local path of the Groth16 proving key")
	zkeyURL := flag.String("provingKeyURL", "", "download URL of the Groth16 proving key")
	zkeyHash := flag.String("provingKeyHash", "", "hex sha256 of the Groth16 proving key")
	relayerURL := flag.String("relayerURL", "", "relayer base URL; empty disables the withdrawal coordinator")
	programID := flag.String("programID", "", "shield program address, required with a relayer")
	syncInterval := flag.Duration("syncInterval", 30*time.Second, "relayer poll interval")
	logLevel := flag.String("logLevel", "info", "log level (debug, info, warn, error)")
	flag.Parse()
	log.Init(*logLevel, "stdout", nil)

	database, err := metadb.New(db.TypePebble, filepath.Join(*dataDir, "notes"))
	if err != nil {
		log.Fatalf("cannot open the note store database: %v", err)
	}
	stg := storage.New(database)
	defer func() {
		if err := stg.Close(); err != nil {
			log.Warnf("error closing the note store: %v", err)
		}
	}()

	treeDB, err := metadb.New(db.TypePebble, filepath.Join(*dataDir, "tree"))
	if err != nil {
		log.Fatalf("cannot open the commitment tree database: %v", err)
	}
	commitmentTree, err := tree.New(treeDB)
	if err != nil {
		log.Fatalf("cannot open the commitment tree: %v", err)
	}

	artifacts := circuits.NewArtifactSet(
		artifact("transaction.wasm", *wasmPath, *wasmURL, *wasmHash, true),
		artifact("transaction.zkey", *zkeyPath, *zkeyURL, *zkeyHash, false),
	)
	svc := service.New(service.Config{
		Artifacts: artifacts,
		Storage:   stg,
		Tree:      commitmentTree,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// resolve the circuit artifacts ahead of the first proof request
	go func() {
		if err := svc.DownloadArtifacts(ctx); err != nil {
			log.Warnw("artifact preload failed, will retry on first proof request", "error", err.Error())
		}
	}()

	var coordinator *withdraw.Coordinator
	if *relayerURL != "" {
		program, err := solana.DecodeAddress(*programID)
		if err != nil {
			log.Fatalf("invalid program address %q: %v", *programID, err)
		}
		relayer, err := withdraw.NewHTTPRelayer(*relayerURL)
		if err != nil {
			log.Fatal(err)
		}
		coordinator, err = withdraw.New(withdraw.Config{
			Relayer:   relayer,
			Storage:   stg,
			ProgramID: program,
			Interval:  *syncInterval,
		})
		if err != nil {
			log.Fatal(err)
		}
		if err := coordinator.Start(ctx); err != nil {
			log.Fatal(err)
		}
		defer coordinator.Stop()
	}

	if _, err := api.New(&api.APIConfig{
		Host:        *host,
		Port:        *port,
		Service:     svc,
		Coordinator: coordinator,
	}); err != nil {
		log.Fatal(err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	log.Infow("shutting down", "signal", (<-sig).String())
}

// artifact builds an Artifact from its flag values. An empty hash
// disables pinning.
func artifact(name, localPath, remoteURL, hexHash string, wasm bool) *circuits.Artifact {
	a := &circuits.Artifact{
		Name:       name,
		RemoteURL:  remoteURL,
		WasmHeader: wasm,
	}
	if localPath != "" {
		a.LocalPaths = []string{localPath}
	}
	if hexHash != "" {
		hash, err := hex.DecodeString(hexHash)
		if err != nil {
			log.Fatalf("invalid sha256 for artifact %s: %v", name, err)
		}
		a.Hash = hash
	}
	return a
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "spectred")
	}
	return filepath.Join(home, ".spectred")
}
