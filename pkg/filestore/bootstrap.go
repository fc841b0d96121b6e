package filestore

import (
	"io"
	"os"
	"path/filepath"

	"github.com/beevik/etree"

	ncerrors "github.com/cesnet/ncfiledb/pkg/errors"
	"github.com/cesnet/ncfiledb/pkg/logger"
)

// bootstrap implements C1: open-or-create the backing file, quarantine
// and reframe on corruption, populate the node handles and clear stale
// NETCONF locks (spec.md §4.1 steps 1-6).
func bootstrap(path string, mode os.FileMode, log *logger.Logger) (*os.File, *etree.Document, *etree.Element, *etree.Element, *etree.Element, error) {
	_, statErr := os.Stat(path)
	switch {
	case os.IsNotExist(statErr):
		f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, mode)
		if err != nil {
			return nil, nil, nil, nil, nil, ncerrors.ConfigInvalid(path, err)
		}
		doc := newEmptyDocument()
		if err := writeDocument(f, doc); err != nil {
			f.Close()
			return nil, nil, nil, nil, nil, ncerrors.ConfigInvalid(path, err)
		}
		running, startup, candidate, _ := structureCheck(doc, log)
		return f, doc, running, startup, candidate, nil

	case statErr != nil:
		return nil, nil, nil, nil, nil, ncerrors.ConfigInvalid(path, statErr)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, nil, nil, nil, ncerrors.ConfigInvalid(path, err)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		f.Close()
		return nil, nil, nil, nil, nil, ncerrors.ConfigInvalid(path, err)
	}

	// A zero-byte file is treated identically to "missing": straight to
	// the canonical empty frame, no quarantine (recovered from
	// original_source).
	var doc *etree.Document
	var running, startup, candidate *etree.Element
	ok := false
	if len(data) > 0 {
		doc = etree.NewDocument()
		if parseErr := doc.ReadFromBytes(data); parseErr == nil {
			running, startup, candidate, ok = structureCheck(doc, log)
		}
	}

	if !ok {
		target := f
		if len(data) > 0 {
			if log != nil {
				log.Warn("backing file is malformed, preserving original and starting a fresh frame", "path", path)
			}
			sibling, cerr := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
			if cerr != nil {
				f.Close()
				return nil, nil, nil, nil, nil, ncerrors.ConfigInvalid(path, cerr)
			}
			f.Close()
			target = sibling
		}
		doc = newEmptyDocument()
		if werr := writeDocument(target, doc); werr != nil {
			target.Close()
			return nil, nil, nil, nil, nil, ncerrors.ConfigInvalid(path, werr)
		}
		running, startup, candidate, _ = structureCheck(doc, log)
		f = target
	}

	// Step 6: a fresh process never inherits NETCONF locks; clear them
	// unconditionally and persist (Open Question in spec.md §9: this
	// races when several long-lived processes share a file, accepted
	// as-is matching the original).
	clearLock(running)
	clearLock(startup)
	clearLock(candidate)
	if err := writeDocument(f, doc); err != nil {
		f.Close()
		return nil, nil, nil, nil, nil, ncerrors.ConfigInvalid(path, err)
	}

	return f, doc, running, startup, candidate, nil
}
