package relay

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrAlreadyRegistered is returned when the same connection is
// registered twice. This indicates a programming error in the caller.
var ErrAlreadyRegistered = errors.New("connection already registered")

// Conn is one live bidirectional stream as tracked by the registry.
// The bound identity is fixed at construction and never changes.
type Conn struct {
	ID       string
	Identity Identity
	Outbox   *Queue
}

// NewConn constructs a connection bound to the given identity.
func NewConn(identity Identity) *Conn {
	return &Conn{
		ID:       uuid.NewString(),
		Identity: identity,
		Outbox:   NewQueue(),
	}
}

// Registry is the set of currently live connections. All access is
// serialized behind one mutex; no operation blocks on I/O while
// holding it.
//
// Entries keep registration order. Identity lookup is a linear scan
// returning the first match, so when two connections share an identity
// the earlier registration wins until it deregisters.
type Registry struct {
	mu    sync.Mutex
	conns []*Conn
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a connection. Fails only if the same connection is
// already present.
func (r *Registry) Register(c *Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.conns {
		if existing == c {
			return ErrAlreadyRegistered
		}
	}
	r.conns = append(r.conns, c)
	return nil
}

// Deregister removes a connection. No-op if it was already removed.
func (r *Registry) Deregister(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.conns {
		if existing == c {
			r.conns = append(r.conns[:i], r.conns[i+1:]...)
			return
		}
	}
}

// FindByIdentity returns the first registered connection bound to
// identity, or nil if none is connected.
func (r *Registry) FindByIdentity(identity Identity) *Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findLocked(identity)
}

// Deliver pushes msg onto the outbox of the first connection bound to
// identity. Lookup and enqueue happen under the registry lock so the
// target cannot deregister in between. Returns false if no connection
// with that identity is registered.
func (r *Registry) Deliver(identity Identity, msg Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	target := r.findLocked(identity)
	if target == nil {
		return false
	}
	target.Outbox.Push(msg)
	return true
}

// Len reports the number of registered connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

func (r *Registry) findLocked(identity Identity) *Conn {
	for _, c := range r.conns {
		if c.Identity == identity {
			return c
		}
	}
	return nil
}
