package filestore

import (
	"fmt"
	"time"

	"github.com/beevik/etree"

	"github.com/cesnet/ncfiledb/pkg/editconfig"
	"github.com/cesnet/ncfiledb/pkg/nacm"
	"github.com/cesnet/ncfiledb/pkg/session"
)

// ConfigLiteral is the copy-config source sentinel meaning "config is
// an XML string that becomes the source root" (spec.md §4.6's CONFIG
// selector).
const ConfigLiteral Target = -1

func (ds *Datastore) element(t Target) (*etree.Element, error) {
	switch t {
	case Running:
		return ds.running, nil
	case Startup:
		return ds.startup, nil
	case Candidate:
		return ds.candidate, nil
	default:
		return nil, newBadElement("", fmt.Sprintf("%d", int(t)))
	}
}

func sourceLabel(source Target) string {
	if source == ConfigLiteral {
		return "CONFIG"
	}
	return source.String()
}

// Changed reports whether the backing file has changed since the last
// reload/sync observed by this handle, per spec.md §6's changed op: on
// a stat failure it conservatively returns true.
func (ds *Datastore) Changed() bool {
	result := true
	err := ds.locked(func() error {
		info, statErr := ds.file.Stat()
		if statErr != nil {
			return nil
		}
		result = info.ModTime().After(ds.lastAccess)
		return nil
	})
	if err != nil {
		return true
	}
	return result
}

// LockInfo implements C5's lockinfo: returns the current holder and
// lock time for target, or ok == false when unlocked.
func (ds *Datastore) LockInfo(target Target) (sid string, at time.Time, ok bool) {
	_ = ds.locked(func() error {
		if err := ds.reload(); err != nil {
			return err
		}
		el, err := ds.element(target)
		if err != nil {
			return err
		}
		holder := lockAttr(el)
		if holder == "" {
			return nil
		}
		ts, perr := time.Parse(time.RFC3339, locktimeAttr(el))
		if perr != nil {
			return nil
		}
		sid, at, ok = holder, ts, true
		return nil
	})
	return sid, at, ok
}

// Lock implements C5's lock, wrapped in C6's LOCK-reload-...-UNLOCK
// skeleton: denies when someone else already holds target, and
// special-cases a modified-but-unlocked candidate (spec.md §4.5).
func (ds *Datastore) Lock(sess *session.Session, target Target) error {
	return ds.locked(func() error {
		if err := ds.reload(); err != nil {
			return err
		}
		el, err := ds.element(target)
		if err != nil {
			return err
		}
		if !accessGranted(el, dummySessionID) {
			holder := lockAttr(el)
			return newLockDenied(el.Tag, holder, fmt.Sprintf("datastore %s is locked by another session", el.Tag))
		}
		if target == Candidate && isModified(ds.candidate) {
			return newLockDenied("candidate", "", "Candidate datastore not locked but already modified.")
		}
		setLock(el, sidOf(sess), time.Now())
		ds.log.Info("lock acquired", "target", el.Tag, "session", sidOf(sess))
		return ds.sync()
	})
}

// Unlock implements C5's unlock: fails if target is not locked or is
// locked by a different session; releasing candidate's lock resets it
// to running's content and clears the modified flag.
func (ds *Datastore) Unlock(sess *session.Session, target Target) error {
	return ds.locked(func() error {
		if err := ds.reload(); err != nil {
			return err
		}
		el, err := ds.element(target)
		if err != nil {
			return err
		}
		holder := lockAttr(el)
		sid := sidOf(sess)
		if holder == "" || holder != sid {
			return newOperationFailed(fmt.Sprintf("datastore %s is not locked by this session", el.Tag), nil)
		}
		if target == Candidate {
			resetCandidate(ds.candidate, ds.running)
		}
		clearLock(el)
		ds.log.Info("lock released", "target", el.Tag, "session", sid)
		return ds.sync()
	})
}

// GetConfig implements C6's get-config: returns the serialised
// children of source, not the wrapping element itself. NACM redaction
// is the caller's responsibility (spec.md §4.6).
func (ds *Datastore) GetConfig(sess *session.Session, source Target) (string, error) {
	var out string
	err := ds.locked(func() error {
		if err := ds.reload(); err != nil {
			return err
		}
		el, err := ds.element(source)
		if err != nil {
			return err
		}
		out, err = serializeChildren(el)
		return err
	})
	return out, err
}

// copySourceRoot builds a detached working element representing the
// effective source root for copy-config: a stored datastore's element,
// or the parsed root of a CONFIG literal.
func (ds *Datastore) copySourceRoot(source Target, config string) (*etree.Element, error) {
	if source == ConfigLiteral {
		doc := etree.NewDocument()
		if err := doc.ReadFromString(config); err != nil {
			return nil, newOperationFailed("failed to parse source config", err)
		}
		root := doc.Root()
		if root == nil {
			return nil, newOperationFailed("source config has no root element", nil)
		}
		return detachedCopy(root), nil
	}
	el, err := ds.element(source)
	if err != nil {
		return nil, err
	}
	return detachedCopy(el), nil
}

// CopyConfig implements C6's copy-config: target (and, on the commit
// path running<-candidate, source) access checks, the empty-to-empty
// not-applicable short circuit, NACM with the running->startup
// exemption, and sync.
func (ds *Datastore) CopyConfig(sess *session.Session, rpcCtx nacm.Context, target Target, source Target, config string) error {
	return ds.locked(func() error {
		if err := ds.reload(); err != nil {
			return err
		}
		targetEl, err := ds.element(target)
		if err != nil {
			return err
		}

		sid := sidOf(sess)
		if !accessGranted(targetEl, sid) {
			return newInUse("copy-config", targetEl.Tag, lockAttr(targetEl))
		}
		if target == Running && source == Candidate {
			srcEl, err := ds.element(source)
			if err != nil {
				return err
			}
			if !accessGranted(srcEl, sid) {
				return newInUse("copy-config", srcEl.Tag, lockAttr(srcEl))
			}
		}

		working, err := ds.copySourceRoot(source, config)
		if err != nil {
			return err
		}

		if len(working.ChildElements()) == 0 && len(targetEl.ChildElements()) == 0 {
			return newNotApplicable("both source and target are empty")
		}

		if source == Running && target == Startup {
			// NACM exempt per RFC 6536 §3.2.4 ¶2: skip both redaction
			// and the write-permission check entirely.
		} else {
			if source == Running || source == Startup || source == Candidate {
				nacm.RedactUnreadable(working, rpcCtx)
			}
			switch nacm.CheckWritePermitted(targetEl, working, ds.model, nil, rpcCtx) {
			case nacm.Deny:
				return newAccessDenied("copy-config", "write denied by NACM")
			case nacm.Error:
				return newOperationFailed("NACM write-permission evaluation failed", nil)
			}
		}

		replaceChildren(targetEl, working)
		if target == Candidate {
			setModified(ds.candidate, source != Running)
		}

		ds.log.Info("copy-config", "source", sourceLabel(source), "target", targetEl.Tag)
		return ds.sync()
	})
}

// DeleteConfig implements C6's delete-config: running can never be
// deleted; otherwise the target's children are unlinked.
func (ds *Datastore) DeleteConfig(sess *session.Session, target Target) error {
	return ds.locked(func() error {
		if err := ds.reload(); err != nil {
			return err
		}
		if target == Running {
			return newOperationFailed("Cannot delete a running datastore.", nil)
		}
		el, err := ds.element(target)
		if err != nil {
			return err
		}
		sid := sidOf(sess)
		if !accessGranted(el, sid) {
			return newInUse("delete-config", el.Tag, lockAttr(el))
		}
		for _, child := range el.ChildElements() {
			el.RemoveChild(child)
		}
		if target == Candidate {
			setModified(ds.candidate, true)
		}
		ds.log.Info("delete-config", "target", el.Tag)
		return ds.sync()
	})
}

// EditConfig implements C6's edit-config: parses config, builds a
// detached working copy of target's children, invokes the editconfig
// collaborator, then replaces target's children with the result.
func (ds *Datastore) EditConfig(sess *session.Session, rpcCtx nacm.Context, target Target, config string, defOp editconfig.DefaultOperation, errOp editconfig.ErrorOption) error {
	return ds.locked(func() error {
		if err := ds.reload(); err != nil {
			return err
		}
		el, err := ds.element(target)
		if err != nil {
			return err
		}
		sid := sidOf(sess)
		if !accessGranted(el, sid) {
			return newInUse("edit-config", el.Tag, lockAttr(el))
		}

		editDoc := etree.NewDocument()
		if err := editDoc.ReadFromString(config); err != nil {
			return newOperationFailed("failed to parse edit-config content", err)
		}
		// The top-level elements of config are data nodes of the target
		// datastore; Apply merges a container's children, so they are
		// gathered under one before the call.
		editRoot := etree.NewElement("config")
		for _, child := range editDoc.ChildElements() {
			editRoot.AddChild(child.Copy())
		}
		if len(editRoot.ChildElements()) == 0 {
			return newOperationFailed("edit-config content has no root element", nil)
		}

		working := detachedCopy(el)
		if _, err := editconfig.Apply(working, editRoot, defOp, errOp); err != nil {
			return newOperationFailed("edit-config merge failed", err)
		}

		replaceChildren(el, working)
		if target == Candidate {
			setModified(ds.candidate, true)
		}

		ds.log.Info("edit-config", "target", el.Tag)
		return ds.sync()
	})
}
