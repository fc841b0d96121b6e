// Package filestore implements the file-backed NETCONF configuration
// datastore core: path and file bootstrap (C1), the parsed document and
// node index (C2), the inter-process mutex (C3), reload/sync (C4), the
// NETCONF lock registry (C5) and the operation layer (C6). XML tree
// manipulation, edit-config merge semantics, NACM and YANG model
// loading are consumed as collaborators through the etree, editconfig,
// nacm and yangmodel packages; this package never reaches into their
// internals.
package filestore

import (
	"os"
	"sync"
	"time"

	"github.com/beevik/etree"
	"golang.org/x/sys/unix"

	"github.com/cesnet/ncfiledb/pkg/config"
	"github.com/cesnet/ncfiledb/pkg/logger"
	"github.com/cesnet/ncfiledb/pkg/yangmodel"
)

// Target selects one of the three datastores a Datastore carries.
type Target int

const (
	Running Target = iota
	Startup
	Candidate
)

// Datastore is a file-backed NETCONF configuration datastore handle.
// The zero value is not usable; construct one with Open.
type Datastore struct {
	// mu is the within-process half of C3's mutual exclusion: a single
	// open-file-description's flock does not re-block a second
	// acquirer from the same process, so goroutines sharing one
	// *Datastore must also serialize on a Go-level mutex around the
	// whole critical section (see locked in mutex.go), not just around
	// the held/doc/node-index bookkeeping.
	mu sync.Mutex

	cfg config.DatastoreConfig
	log *logger.Logger

	file *os.File
	sem  *procMutex
	held bool

	doc        *etree.Document
	running    *etree.Element
	startup    *etree.Element
	candidate  *etree.Element
	lastAccess time.Time

	model *yangmodel.Model
}

// Open bootstraps the backing file (C1), performs the initial reload
// (C4) and opens the named inter-process mutex (C3) for cfg.Path,
// returning a ready handle.
func Open(cfg config.DatastoreConfig) (*Datastore, error) {
	log := logger.New("filestore", nil)

	mode := cfg.FileMode
	if mode == 0 {
		mode = 0o600
	}
	lockDir := cfg.LockDir
	if lockDir == "" {
		lockDir = os.TempDir()
	}

	f, doc, running, startup, candidate, err := bootstrap(cfg.Path, mode, log)
	if err != nil {
		return nil, err
	}

	sem, err := openProcMutex(lockDir, cfg.Path)
	if err != nil {
		f.Close()
		return nil, newOperationFailed("failed to open datastore mutex", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		sem.close()
		return nil, newOperationFailed("failed to stat backing file", err)
	}

	return &Datastore{
		cfg:        cfg,
		log:        log,
		file:       f,
		sem:        sem,
		doc:        doc,
		running:    running,
		startup:    startup,
		candidate:  candidate,
		lastAccess: info.ModTime(),
	}, nil
}

// SetModel attaches the parsed YANG model handle consumed, opaquely,
// by the NACM write-permission collaborator during copy-config.
func (ds *Datastore) SetModel(m *yangmodel.Model) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.model = m
}

// Close releases any held mutex, closes the semaphore file descriptor
// and the backing file handle. The named mutex itself is
// kernel-persistent and outlives Close: other processes may still hold
// references to the same lock file.
func (ds *Datastore) Close() error {
	ds.mu.Lock()
	held := ds.held
	ds.held = false
	ds.mu.Unlock()

	if held {
		// locked() holds ds.mu for its whole critical section and
		// always releases the flock on every exit path, so Close
		// blocks behind any in-flight operation and should never
		// observe held == true here. Force the flock closed anyway
		// rather than leak it, in case that invariant is ever broken.
		unix.Flock(int(ds.sem.file.Fd()), unix.LOCK_UN)
	}

	semErr := ds.sem.close()
	fileErr := ds.file.Close()
	if semErr != nil {
		return semErr
	}
	return fileErr
}
