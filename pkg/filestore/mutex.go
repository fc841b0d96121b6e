package filestore

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// procMutex is C3's named, kernel-persistent binary semaphore, realized
// as an advisory flock(2) on a dedicated lock file: both are
// kernel-persistent, shared by every process that opens the same
// backing path, and flock's blocking wait matches a semaphore wait.
type procMutex struct {
	file *os.File
}

// semaphoreName derives the lock file name deterministically from the
// absolute datastore path: sentinel "ncfiledb_" followed by every "/"
// replaced with "_", suffixed ".lock" (spec.md §6: "/" + path with "/"
// replaced by "_").
func semaphoreName(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "ncfiledb_" + strings.ReplaceAll(abs, "/", "_") + ".lock"
}

func openProcMutex(lockDir, path string) (*procMutex, error) {
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(lockDir, semaphoreName(path)), os.O_CREATE|os.O_RDWR, 0o666)
	if err != nil {
		return nil, err
	}
	return &procMutex{file: f}, nil
}

func (m *procMutex) close() error {
	return m.file.Close()
}

// errLockTimeout is returned by acquire when timeout elapses before
// the flock could be obtained.
var errLockTimeout = errors.New("timed out waiting for datastore mutex")

// pollInterval is how often a timed acquire retries LOCK_EX|LOCK_NB.
const pollInterval = 10 * time.Millisecond

// acquire obtains the flock, masking every blockable signal for the
// duration — the Go analogue of the original's sigprocmask discipline
// around its semaphore wait — and pins the calling goroutine to its OS
// thread so the mask applies to the thread that actually executes the
// critical section. timeout <= 0 waits indefinitely, matching the
// original's unbounded semaphore wait; otherwise acquire polls and
// returns errLockTimeout if the deadline passes. The returned release
// func restores both and must be called exactly once.
func (m *procMutex) acquire(timeout time.Duration) (release func(), err error) {
	runtime.LockOSThread()

	var full, saved unix.Sigset_t
	fillSigset(&full)
	if err := unix.PthreadSigmask(unix.SIG_SETMASK, &full, &saved); err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}

	if lockErr := m.flockWait(timeout); lockErr != nil {
		unix.PthreadSigmask(unix.SIG_SETMASK, &saved, nil)
		runtime.UnlockOSThread()
		return nil, lockErr
	}

	return func() {
		unix.Flock(int(m.file.Fd()), unix.LOCK_UN)
		unix.PthreadSigmask(unix.SIG_SETMASK, &saved, nil)
		runtime.UnlockOSThread()
	}, nil
}

func (m *procMutex) flockWait(timeout time.Duration) error {
	if timeout <= 0 {
		return unix.Flock(int(m.file.Fd()), unix.LOCK_EX)
	}

	deadline := time.Now().Add(timeout)
	for {
		err := unix.Flock(int(m.file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return nil
		}
		if err != unix.EWOULDBLOCK && err != unix.EAGAIN {
			return err
		}
		if time.Now().After(deadline) {
			return errLockTimeout
		}
		time.Sleep(pollInterval)
	}
}

// fillSigset sets every bit, the Go equivalent of sigfillset(3).
func fillSigset(set *unix.Sigset_t) {
	for i := range set.Val {
		set.Val[i] = ^uint64(0)
	}
}

// locked is the scoped C3 acquisition every C6 operation body is
// literally a single call to: acquire the OS mutex, run fn, then
// release on every exit path, matching spec.md §9's "Scoped resource
// release" design note.
//
// ds.mu is held for fn's entire duration, not just around the held
// flag: a single open-file-description's flock does not re-block a
// second acquirer from the same process (the kernel considers the OFD
// already the lock holder), so goroutines sharing one *Datastore would
// otherwise run fn concurrently against the same ds.doc/node-index.
// ds.mu is what gives this the within-process serialization spec.md §5
// expects from the original's semaphore wait; the flock underneath it
// still provides the across-process half.
func (ds *Datastore) locked(fn func() error) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	release, err := ds.sem.acquire(ds.cfg.LockTimeout)
	if err != nil {
		return newOperationFailed("failed to acquire datastore mutex", err)
	}
	defer release()

	ds.held = true
	defer func() { ds.held = false }()

	return fn()
}
