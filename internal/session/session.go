// internal/session/session.go
package session

import (
	"errors"
	"sync"

	"github.com/tamzrod/uniform-watch/internal/logger"
)

const logModule = "session"

var ErrNoSession = errors.New("session: not signed in")

// User is the signed-in identity as reported by the identity provider.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Provider is the external identity source.
// Subscribe must deliver the current user (nil when signed out) and every later change.
type Provider interface {
	Subscribe(fn func(*User)) (cancel func())
}

// Broker holds the single process-wide subscription to the Provider
// and fans changes out to views.
type Broker struct {
	mu      sync.Mutex
	current *User
	subs    map[int]func(*User)
	nextSub int
	closed  bool

	cancel func()
}

func NewBroker(p Provider) (*Broker, error) {
	if p == nil {
		return nil, errors.New("session: provider required")
	}
	b := &Broker{subs: make(map[int]func(*User))}
	b.cancel = p.Subscribe(b.set)
	return b, nil
}

func (b *Broker) set(u *User) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	prev := b.current
	if u != nil {
		cp := *u
		u = &cp
	}
	b.current = u
	subs := make([]func(*User), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	switch {
	case u != nil && (prev == nil || *prev != *u):
		logger.Info(logModule, "signed in as %s", u.Email)
	case u == nil && prev != nil:
		logger.Info(logModule, "signed out")
	}

	for _, fn := range subs {
		fn(u)
	}
}

// Subscribe registers fn for identity changes. It is called once with the current user.
func (b *Broker) Subscribe(fn func(*User)) (cancel func()) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return func() {}
	}
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	cur := b.current
	b.mu.Unlock()

	fn(cur)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Context returns the view-facing handle.
func (b *Broker) Context() Context { return Context{b: b} }

// Close releases the provider subscription. Safe to call more than once.
func (b *Broker) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.subs = make(map[int]func(*User))
	cancel := b.cancel
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Context is passed explicitly to every view that needs the current user.
type Context struct {
	b *Broker
}

// User returns a copy of the signed-in user.
func (c Context) User() (User, bool) {
	if c.b == nil {
		return User{}, false
	}
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	if c.b.current == nil {
		return User{}, false
	}
	return *c.b.current, true
}

// Require returns the signed-in user or ErrNoSession.
func (c Context) Require() (User, error) {
	u, ok := c.User()
	if !ok {
		return User{}, ErrNoSession
	}
	return u, nil
}
