// Package session describes the NETCONF session objects consumed by the
// datastore core. Transport (SSH, TLS, capability exchange) is out of
// scope; a Session here is only the identity and capability set the
// datastore and its NACM collaborator need to make decisions.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Session identifies the caller of a datastore operation.
type Session struct {
	ID           string
	Username     string
	Hostname     string
	Capabilities []string
	Established  time.Time
}

// New creates a session with a freshly generated id.
func New(username, hostname string, capabilities []string) *Session {
	return &Session{
		ID:           uuid.NewString(),
		Username:     username,
		Hostname:     hostname,
		Capabilities: capabilities,
		Established:  time.Now(),
	}
}

// HasCapability reports whether the session advertised the given NETCONF
// capability URI.
func (s *Session) HasCapability(uri string) bool {
	if s == nil {
		return false
	}
	for _, c := range s.Capabilities {
		if c == uri {
			return true
		}
	}
	return false
}
