package waveflow

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// SessionHeader carries the current session identifier on calls that ask for it.
const SessionHeader = "Sessionid"

// DefaultSessionFields are the response body fields a server-assigned
// session is adopted from, in order of preference.
var DefaultSessionFields = []string{"session_id", "workflow_id"}

// sessionStore holds at most one current session identifier. Concurrent
// writers are not ordered: the last store wins.
type sessionStore struct {
	current atomic.Pointer[string]
}

func (s *sessionStore) load() string {
	if p := s.current.Load(); p != nil {
		return *p
	}
	return ""
}

func (s *sessionStore) store(id string) {
	if id == "" {
		s.current.Store(nil)
		return
	}
	s.current.Store(&id)
}

// ensure returns the current session, creating a random one when none is set.
func (s *sessionStore) ensure() string {
	for {
		p := s.current.Load()
		if p != nil {
			return *p
		}
		id := uuid.NewString()
		if s.current.CompareAndSwap(nil, &id) {
			return id
		}
	}
}

// clearIf drops the current session only when it still equals id.
func (s *sessionStore) clearIf(id string) bool {
	for {
		p := s.current.Load()
		if p == nil || *p != id {
			return false
		}
		if s.current.CompareAndSwap(p, nil) {
			return true
		}
	}
}

// Session returns the current session identifier, or "" when none is held.
func (g *Gateway) Session() string {
	return g.session.load()
}

// SetSession overwrites the current session identifier. An empty id clears it.
func (g *Gateway) SetSession(id string) {
	g.session.store(id)
}

// EnsureSession returns the current session identifier, generating a random
// one client-side if the gateway holds none.
func (g *Gateway) EnsureSession() string {
	return g.session.ensure()
}

// ClearSession forgets the current session identifier.
func (g *Gateway) ClearSession() {
	g.session.store("")
}

// ReleaseSession clears the current session only if it equals id. It reports
// whether the session was cleared.
func (g *Gateway) ReleaseSession(id string) bool {
	if id == "" {
		return false
	}
	return g.session.clearIf(id)
}

// adoptSession stores the first non-empty session field of a JSON object
// payload and returns it with the field it came from.
func (g *Gateway) adoptSession(payload any) (string, string) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return "", ""
	}
	for _, field := range g.sessionFields {
		if id, ok := obj[field].(string); ok && id != "" {
			g.session.store(id)
			return id, field
		}
	}
	return "", ""
}
