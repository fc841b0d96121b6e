// Package editconfig implements the edit-config merge collaborator
// SPEC_FULL.md treats as an external black box invoked over two XML
// trees: operation attributes (merge/replace/create/delete/remove),
// default-operation handling and error-option handling, per RFC 6241
// §7.2. The datastore core never inspects merge internals; it only
// calls Apply.
//
// Grounded on the teacher repo's pkg/netconf ApplyConfigEdit switch-on-
// default-operation structure, generalized from typed router-config
// structs to a generic *etree.Element tree since this collaborator must
// work over arbitrary YANG-modeled content, not one fixed schema.
package editconfig

import (
	"fmt"

	"github.com/beevik/etree"
)

// DefaultOperation is the RFC 6241 default-operation value.
type DefaultOperation string

const (
	DefaultOpMerge   DefaultOperation = "merge"
	DefaultOpReplace DefaultOperation = "replace"
	DefaultOpNone    DefaultOperation = "none"
)

// ErrorOption is the RFC 6241 error-option value. With ErrorContinue, an
// element with an invalid operation attribute, a delete of a missing node
// or a create of an existing node is skipped and the rest is applied; any
// other value stops at the first such failure. There is no
// rollback-on-error: a failed Apply leaves working partially edited.
type ErrorOption string

const (
	ErrorStop     ErrorOption = "stop-on-error"
	ErrorContinue ErrorOption = "continue-on-error"
)

// opAttrLocal is the local name of the RFC 6241 nc:operation attribute.
const opAttrLocal = "operation"

type nodeOp string

const (
	opMerge   nodeOp = "merge"
	opReplace nodeOp = "replace"
	opCreate  nodeOp = "create"
	opDelete  nodeOp = "delete"
	opRemove  nodeOp = "remove"
)

// Apply merges edit into working according to defOp, honoring any
// per-element nc:operation attribute in edit, and returns the resulting
// tree. working is mutated in place and also returned for convenience.
func Apply(working, edit *etree.Element, defOp DefaultOperation, errOp ErrorOption) (*etree.Element, error) {
	if edit == nil {
		return working, nil
	}
	switch defOp {
	case DefaultOpMerge, DefaultOpReplace, DefaultOpNone, "":
	default:
		return nil, fmt.Errorf("unsupported default-operation: %s", defOp)
	}
	if defOp == "" {
		defOp = DefaultOpMerge
	}

	if err := mergeChildren(working, edit, defOp, errOp); err != nil {
		return nil, err
	}
	return working, nil
}

func elementOp(e *etree.Element, defOp DefaultOperation) (nodeOp, error) {
	attr := e.SelectAttr(opAttrLocal)
	if attr == nil {
		if defOp == DefaultOpReplace {
			return opReplace, nil
		}
		return opMerge, nil
	}
	switch nodeOp(attr.Value) {
	case opMerge, opReplace, opCreate, opDelete, opRemove:
		return nodeOp(attr.Value), nil
	default:
		return "", fmt.Errorf("invalid operation attribute: %s", attr.Value)
	}
}

// findMatch returns the child of parent with the same tag as candidate,
// and — when candidate carries attributes other than operation (a YANG
// list key) — the same attribute set, so list entries are matched by key
// rather than merged positionally.
func findMatch(parent *etree.Element, candidate *etree.Element) *etree.Element {
	for _, child := range parent.ChildElements() {
		if child.Tag != candidate.Tag {
			continue
		}
		if sameKey(child, candidate) {
			return child
		}
	}
	return nil
}

func sameKey(a, b *etree.Element) bool {
	for _, attr := range b.Attr {
		if attr.Key == opAttrLocal {
			continue
		}
		if a.SelectAttrValue(attr.Key, "\x00") != attr.Value {
			return false
		}
	}
	// Unkeyed elements (no attributes besides operation) are matched on
	// tag alone: findMatch already filtered by tag, and a well-formed
	// YANG container has at most one instance of an unkeyed child.
	return true
}

func mergeChildren(working, edit *etree.Element, defOp DefaultOperation, errOp ErrorOption) error {
	for _, editChild := range edit.ChildElements() {
		op, err := elementOp(editChild, defOp)
		if err != nil {
			if errOp == ErrorContinue {
				continue
			}
			return err
		}

		existing := findMatch(working, editChild)

		switch op {
		case opDelete:
			if existing == nil {
				if errOp == ErrorContinue {
					continue
				}
				return fmt.Errorf("delete: node %s does not exist", editChild.Tag)
			}
			working.RemoveChild(existing)

		case opRemove:
			if existing != nil {
				working.RemoveChild(existing)
			}

		case opCreate:
			if existing != nil {
				if errOp == ErrorContinue {
					continue
				}
				return fmt.Errorf("create: node %s already exists", editChild.Tag)
			}
			working.AddChild(editChild.Copy())

		case opReplace:
			if existing != nil {
				working.RemoveChild(existing)
			}
			working.AddChild(editChild.Copy())

		case opMerge:
			if existing == nil {
				working.AddChild(editChild.Copy())
				continue
			}
			if len(editChild.ChildElements()) == 0 {
				existing.SetText(editChild.Text())
				copyAttrs(existing, editChild)
				continue
			}
			copyAttrs(existing, editChild)
			if err := mergeChildren(existing, editChild, defOp, errOp); err != nil {
				return err
			}
		}
	}
	return nil
}

func copyAttrs(dst, src *etree.Element) {
	for _, attr := range src.Attr {
		if attr.Key == opAttrLocal {
			continue
		}
		dst.CreateAttr(attr.Key, attr.Value)
	}
}
