// Command ncfiledbctl is a readline-based interactive shell driving
// the six datastore operations directly against a local
// *filestore.Datastore, grounded on the teacher repo's
// cmd/arca-cli interactive shell (same completer/history/prompt idiom,
// re-themed to get-config/lock/unlock/lockinfo/copy-config/
// delete-config/edit-config instead of router set/delete/show).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cesnet/ncfiledb/pkg/config"
	"github.com/cesnet/ncfiledb/pkg/filestore"
)

func main() {
	var (
		configPath = flag.String("config", "/etc/ncfiledb/datastore.yaml", "Path to the datastore YAML config")
		username   = flag.String("user", os.Getenv("USER"), "Session username shown in the startup banner")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		cfg = config.DefaultDatastoreConfig()
	}

	ds, err := filestore.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open datastore: %v\n", err)
		os.Exit(1)
	}
	defer ds.Close()

	if *username == "" {
		*username = "admin"
	}

	shell, err := NewInteractiveShell(ds, *username)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize interactive shell: %v\n", err)
		os.Exit(1)
	}

	if err := shell.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
