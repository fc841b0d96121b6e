package filestore

import (
	"github.com/beevik/etree"

	"github.com/cesnet/ncfiledb/pkg/logger"
)

const (
	namespace = "urn:cesnet:tmc:datastores:file"
	rootTag   = "datastores"
)

func (t Target) tag() string {
	switch t {
	case Running:
		return "running"
	case Startup:
		return "startup"
	case Candidate:
		return "candidate"
	default:
		return ""
	}
}

// String implements fmt.Stringer for logging.
func (t Target) String() string {
	if s := t.tag(); s != "" {
		return s
	}
	return "CONFIG"
}

// newEmptyDocument builds the canonical empty frame: three empty
// datastore elements with empty lock/locktime, candidate with
// modified="false" (spec.md §4.1 step 4).
func newEmptyDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(rootTag)
	root.CreateAttr("xmlns", namespace)
	for _, tag := range []string{"running", "startup", "candidate"} {
		el := root.CreateElement(tag)
		el.CreateAttr("lock", "")
		el.CreateAttr("locktime", "")
		if tag == "candidate" {
			el.CreateAttr("modified", "false")
		}
	}
	return doc
}

// structureCheck implements C2's structure_check(doc): root must be
// datastores, with exactly one running/startup/candidate among its
// element children. Unknown siblings are tolerated and logged at
// verbose level (recovered from original_source).
func structureCheck(doc *etree.Document, log *logger.Logger) (running, startup, candidate *etree.Element, ok bool) {
	root := doc.Root()
	if root == nil || root.Tag != rootTag {
		return nil, nil, nil, false
	}

	seen := make(map[string]*etree.Element, 3)
	for _, child := range root.ChildElements() {
		switch child.Tag {
		case "running", "startup", "candidate":
			if _, dup := seen[child.Tag]; dup {
				return nil, nil, nil, false
			}
			seen[child.Tag] = child
		default:
			if log != nil {
				log.Debug("ignoring unknown sibling element under datastores root", "tag", child.Tag)
			}
		}
	}

	running, startup, candidate = seen["running"], seen["startup"], seen["candidate"]
	if running == nil || startup == nil || candidate == nil {
		return nil, nil, nil, false
	}
	return running, startup, candidate, true
}

// serializeChildren renders el's element children as a standalone XML
// fragment — the contract of get-config, which returns the *children*
// of the selected datastore element, not the wrapping element itself.
func serializeChildren(el *etree.Element) (string, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	for _, child := range el.ChildElements() {
		doc.AddChild(child.Copy())
	}
	doc.Indent(2)
	return doc.WriteToString()
}

// detachedCopy deep-copies el into a standalone element with no parent,
// for use as a working document independent of the main document
// (spec.md §4.6 "Build a working copy ... as an independent document").
func detachedCopy(el *etree.Element) *etree.Element {
	return el.Copy()
}

// replaceChildren removes target's current element children and
// attaches deep copies of working's children in their place.
func replaceChildren(target, working *etree.Element) {
	for _, child := range target.ChildElements() {
		target.RemoveChild(child)
	}
	for _, child := range working.ChildElements() {
		target.AddChild(child.Copy())
	}
}

// resetCandidate drops candidate's children and deep-copies running's
// children into it, clearing the modified flag (C5 unlock's special
// case for target == candidate).
func resetCandidate(candidate, running *etree.Element) {
	for _, child := range candidate.ChildElements() {
		candidate.RemoveChild(child)
	}
	for _, child := range running.ChildElements() {
		candidate.AddChild(child.Copy())
	}
	setModified(candidate, false)
}
