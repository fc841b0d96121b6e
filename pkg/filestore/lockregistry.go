package filestore

import (
	"hash/fnv"
	"time"

	"github.com/beevik/etree"

	"github.com/cesnet/ncfiledb/pkg/session"
)

// dummySessionID is the reserved probing sentinel of spec.md §4.5: it
// can never equal a real session.Session.ID (a github.com/google/uuid
// string), so it is used internally to ask "is this locked by anyone
// at all" without claiming to be the holder.
const dummySessionID = "\x00dummy"

func lockAttr(target *etree.Element) string {
	return target.SelectAttrValue("lock", "")
}

func locktimeAttr(target *etree.Element) string {
	return target.SelectAttrValue("locktime", "")
}

// accessGranted implements C5's access_granted(target, session): empty
// lock grants anyone, a matching holder grants that session, anything
// else denies.
func accessGranted(target *etree.Element, sid string) bool {
	holder := lockAttr(target)
	if holder == "" {
		return true
	}
	return sid != "" && holder == sid
}

func setLock(target *etree.Element, sid string, at time.Time) {
	target.CreateAttr("lock", sid)
	target.CreateAttr("locktime", at.UTC().Format(time.RFC3339))
}

func clearLock(target *etree.Element) {
	target.CreateAttr("lock", "")
	target.CreateAttr("locktime", "")
}

func isModified(candidate *etree.Element) bool {
	return candidate.SelectAttrValue("modified", "false") == "true"
}

func setModified(candidate *etree.Element, modified bool) {
	if modified {
		candidate.CreateAttr("modified", "true")
	} else {
		candidate.CreateAttr("modified", "false")
	}
}

// sessionNumericID derives a stable uint32 from a session id string for
// RFC 6241's numeric <lock-owner-session> element. This datastore's
// session ids are UUID strings (github.com/google/uuid), so the
// numeric id is a hash for error-reporting purposes only, not a true
// session-table index.
func sessionNumericID(sid string) uint32 {
	if sid == "" {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(sid))
	return h.Sum32()
}

func sidOf(sess *session.Session) string {
	if sess == nil {
		return ""
	}
	return sess.ID
}
