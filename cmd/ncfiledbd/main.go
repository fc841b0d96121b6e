// Command ncfiledbd is the daemon entry point: it loads a
// DatastoreConfig, opens the file-backed datastore, and serves the
// admin socket until interrupted.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cesnet/ncfiledb/pkg/adminsock"
	"github.com/cesnet/ncfiledb/pkg/config"
	"github.com/cesnet/ncfiledb/pkg/filestore"
	"github.com/cesnet/ncfiledb/pkg/logger"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "/etc/ncfiledb/datastore.yaml", "Path to the datastore YAML config")
		socketPath  = flag.String("socket", "/run/ncfiledb/admin.sock", "Path to the admin Unix socket")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("ncfiledbd version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	log := logger.New("ncfiledbd", logger.DefaultConfig())
	log.Info("starting ncfiledbd", "version", version, "commit", commit)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ds, err := filestore.Open(cfg)
	if err != nil {
		log.Error("failed to open datastore", "error", err)
		os.Exit(1)
	}
	defer ds.Close()

	srv := adminsock.New(ds, nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(*socketPath)
	}()
	log.Info("admin socket listening", "path", *socketPath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			log.Error("admin socket stopped unexpectedly", "error", err)
		}
	}

	if err := srv.Close(); err != nil {
		log.Error("error during shutdown", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
