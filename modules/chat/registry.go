package chat

import (
	"strings"
	"sync"
)

// Registry is the set of open connections.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Connection
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*Connection),
	}
}

// Register adds a newly accepted connection.
func (r *Registry) Register(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[conn.ID()]; ok {
		return
	}
	r.conns[conn.ID()] = conn
	r.order = append(r.order, conn.ID())
}

// Unregister removes a connection. Removing twice is a no-op.
func (r *Registry) Unregister(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[conn.ID()]; !ok {
		return
	}
	delete(r.conns, conn.ID())
	for i, id := range r.order {
		if id == conn.ID() {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// FindByIdentity returns the first registered connection whose claimed
// identity has the given id. Duplicate logins are not disambiguated.
func (r *Registry) FindByIdentity(logicalID string) (*Connection, bool) {
	if logicalID == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		conn := r.conns[id]
		if conn.IdentityID() == logicalID {
			return conn, true
		}
	}
	return nil, false
}

// IdentityInUse reports whether a connection other than except claims
// logicalID. The comparison ignores case.
func (r *Registry) IdentityInUse(logicalID string, except *Connection) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, conn := range r.conns {
		if conn == except {
			continue
		}
		if strings.EqualFold(conn.IdentityID(), logicalID) {
			return true
		}
	}
	return false
}

// All returns every registered connection in registration order.
func (r *Registry) All() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Connection, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.conns[id])
	}
	return result
}

// Get returns a connection by its session handle.
func (r *Registry) Get(connectionID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[connectionID]
	return conn, ok
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
