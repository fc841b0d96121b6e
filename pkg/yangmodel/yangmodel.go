// Package yangmodel is the thin pass-through to the YANG data-model layer
// that SPEC_FULL.md §1 treats as an external collaborator: the datastore
// core only ever consumes a parsed model handle and a key-node accessor
// for a given list path, never YANG semantics directly.
//
// Grounded on the teacher repo's pkg/netconf/yang_model.go, generalized
// from a single embedded router schema to an arbitrary loaded module.
package yangmodel

import (
	"fmt"
	"strings"
	"sync"

	"github.com/openconfig/goyang/pkg/yang"
)

// Model wraps a parsed set of YANG modules.
type Model struct {
	mu      sync.RWMutex
	modules *yang.Modules
	entries map[string]*yang.Entry
}

// Load parses yangText (a single YANG module source) under the given
// file name, processes imports, and builds the entry tree used for
// key-node lookups.
func Load(yangText, fileName string) (*Model, error) {
	ms := yang.NewModules()
	if err := ms.Parse(yangText, fileName); err != nil {
		return nil, fmt.Errorf("parse YANG module %s: %w", fileName, err)
	}
	if errs := ms.Process(); len(errs) > 0 {
		return nil, fmt.Errorf("process YANG modules: %v", errs[0])
	}

	m := &Model{modules: ms, entries: make(map[string]*yang.Entry)}
	for name, mod := range ms.Modules {
		m.entries[name] = yang.ToEntry(mod)
	}
	return m, nil
}

// Module returns the named parsed YANG module.
func (m *Model) Module(name string) (*yang.Module, error) {
	if m == nil {
		return nil, fmt.Errorf("yang model not initialized")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	mod := m.modules.Modules[name]
	if mod == nil {
		return nil, fmt.Errorf("module %q not found", name)
	}
	return mod, nil
}

// Modules lists the names of all loaded YANG modules.
func (m *Model) Modules() []string {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.modules.Modules))
	for name := range m.modules.Modules {
		names = append(names, name)
	}
	return names
}

// KeyNodes returns the key leaf names of the YANG list found by walking
// listPath ("/"-separated element names) from each loaded module's root.
// This is the "key-node list accessor" SPEC_FULL.md requires of the YANG
// collaborator. Nothing in this module calls it: filestore passes nil
// keys to nacm.CheckWritePermitted, which ignores them.
func (m *Model) KeyNodes(listPath string) ([]string, error) {
	if m == nil {
		return nil, fmt.Errorf("yang model not initialized")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	segments := strings.FieldsFunc(listPath, func(r rune) bool { return r == '/' })
	if len(segments) == 0 {
		return nil, fmt.Errorf("empty list path")
	}

	for _, root := range m.entries {
		entry := root
		matched := true
		for _, seg := range segments {
			child, ok := entry.Dir[seg]
			if !ok {
				matched = false
				break
			}
			entry = child
		}
		if !matched {
			continue
		}
		if entry.Key == "" {
			return nil, fmt.Errorf("%s is not a keyed list", listPath)
		}
		return strings.Fields(entry.Key), nil
	}

	return nil, fmt.Errorf("list path not found: %s", listPath)
}
