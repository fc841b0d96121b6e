package filestore

import (
	"os"

	"github.com/beevik/etree"
)

// writeDocument truncates f to zero, rewinds, and serializes doc as
// formatted UTF-8 XML with an XML 1.0 declaration.
func writeDocument(f *os.File, doc *etree.Document) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	doc.Indent(2)
	_, err := doc.WriteTo(f)
	return err
}

// sync implements C4's Sync: truncate-and-rewrite the backing file from
// ds.doc, refreshing lastAccess to the mtime observed right after the
// write. Must be called with the OS mutex held; failure leaves the
// in-memory document unchanged so the caller may retry.
func (ds *Datastore) sync() error {
	if !ds.held {
		panic("filestore: sync called without the datastore mutex held")
	}
	if err := writeDocument(ds.file, ds.doc); err != nil {
		return newOperationFailed("failed to sync datastore file", err)
	}
	info, err := ds.file.Stat()
	if err != nil {
		return newOperationFailed("failed to stat datastore file after sync", err)
	}
	ds.lastAccess = info.ModTime()
	return nil
}
