package filestore

import (
	"github.com/beevik/etree"
)

// reload implements C4's Reload: if the file's mtime has not advanced
// past lastAccess, return without re-reading. Otherwise parse the file
// into a new document and, on success, atomically swap it in and
// refresh the node index; on failure the old document is left intact.
// Must be called with the OS mutex held.
func (ds *Datastore) reload() error {
	if !ds.held {
		panic("filestore: reload called without the datastore mutex held")
	}

	info, err := ds.file.Stat()
	if err != nil {
		return newOperationFailed("failed to stat datastore file", err)
	}
	if !info.ModTime().After(ds.lastAccess) {
		ds.log.Debug("reload skipped, mtime unchanged", "path", ds.file.Name())
		return nil
	}

	if _, err := ds.file.Seek(0, 0); err != nil {
		return newOperationFailed("failed to seek datastore file", err)
	}
	newDoc := etree.NewDocument()
	if _, err := newDoc.ReadFrom(ds.file); err != nil {
		return newOperationFailed("failed to parse datastore file", err)
	}
	running, startup, candidate, ok := structureCheck(newDoc, ds.log)
	if !ok {
		return newOperationFailed("datastore file no longer has a valid frame", nil)
	}

	ds.doc = newDoc
	ds.running = running
	ds.startup = startup
	ds.candidate = candidate
	ds.lastAccess = info.ModTime()
	ds.log.Debug("reloaded datastore file", "mtime", info.ModTime())
	return nil
}
