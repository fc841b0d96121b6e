// Package nacm provides the two NACM predicates SPEC_FULL.md treats as
// external collaborators to the datastore core: read redaction and
// write-permission evaluation, modeled after RFC 6536 §3.2.4 but
// deliberately simplified — the datastore core only ever calls these two
// functions and never inspects NACM rule internals.
package nacm

import (
	"github.com/beevik/etree"

	"github.com/cesnet/ncfiledb/pkg/session"
	"github.com/cesnet/ncfiledb/pkg/yangmodel"
)

// Verdict is the result of a write-permission check.
type Verdict int

const (
	Permit Verdict = iota
	Deny
	Error
)

// Context carries the NACM-relevant parts of an RPC invocation: the
// requesting session, the operation name, and the rule set to evaluate
// against. A nil Rules is permissive (RFC 6536's default-deny only binds
// nodes explicitly annotated nacm:default-deny-write/-all; none are
// configured until the operator sets Rules).
type Context struct {
	Session   *session.Session
	Operation string
	Rules     *Rules
}

// Rule grants or denies access to elements whose tag equals Path (e.g.
// "interfaces"); an empty Path matches every element. Path is compared
// with a single element tag, so dotted multi-level paths never match.
// Groups is the set of session capability strings (stand-ins for NACM
// group membership) the rule applies to; an empty Groups matches any
// session.
type Rule struct {
	Path    string
	Groups  []string
	Action  Verdict // Permit or Deny only
	ReadOk  bool    // governs RedactUnreadable
	WriteOk bool    // governs CheckWritePermitted
}

// Rules is an ordered NACM-like rule list. The first matching rule wins;
// no match defaults to permit, mirroring RFC 6536's default of
// nacm:default-deny only applying to explicitly annotated nodes — this
// module has none, so the default stays permissive until rules are
// configured.
type Rules struct {
	rules []Rule
}

// NewRules builds a rule set. Order matters: earlier rules take priority.
func NewRules(rules ...Rule) *Rules {
	return &Rules{rules: rules}
}

func (r *Rules) match(path string, ctx Context) (Rule, bool) {
	if r == nil {
		return Rule{}, false
	}
	for _, rule := range r.rules {
		if rule.Path != "" && rule.Path != path {
			continue
		}
		if len(rule.Groups) == 0 {
			return rule, true
		}
		if ctx.Session == nil {
			continue
		}
		for _, g := range rule.Groups {
			if ctx.Session.HasCapability(g) {
				return rule, true
			}
		}
	}
	return Rule{}, false
}

// RedactUnreadable removes, in place, every child of doc for which a
// matching rule denies read access (RFC 6536 §3.2.4 ¶3).
func RedactUnreadable(doc *etree.Element, ctx Context) {
	if ctx.Rules == nil || doc == nil {
		return
	}
	for _, child := range doc.ChildElements() {
		rule, matched := ctx.Rules.match(child.Tag, ctx)
		if matched && rule.Action == Deny && !rule.ReadOk {
			doc.RemoveChild(child)
			continue
		}
		RedactUnreadable(child, ctx)
	}
}

// CheckWritePermitted evaluates whether replacing old's children with
// new's children is permitted, per SPEC_FULL.md's
// check_write_permitted(old, new, model, keys, ctx) collaborator
// signature. model/keys are the pass-through YANG handles threaded
// through so a richer implementation could resolve per-list-entry rules
// by key; this implementation matches rules by element tag only.
func CheckWritePermitted(old, new *etree.Element, model *yangmodel.Model, keys []string, ctx Context) Verdict {
	_ = model
	_ = keys
	_ = old
	if ctx.Session == nil {
		return Error
	}
	if ctx.Rules == nil || new == nil {
		return Permit
	}
	for _, child := range new.ChildElements() {
		rule, matched := ctx.Rules.match(child.Tag, ctx)
		if matched && rule.Action == Deny && !rule.WriteOk {
			return Deny
		}
	}
	return Permit
}
