// internal/session/static.go
package session

import "sync"

// StaticProvider serves an identity configured locally, for kiosks and tests.
type StaticProvider struct {
	mu      sync.Mutex
	user    *User
	subs    map[int]func(*User)
	nextSub int
}

// NewStaticProvider signs in u, or starts signed out when u is nil.
func NewStaticProvider(u *User) *StaticProvider {
	p := &StaticProvider{subs: make(map[int]func(*User))}
	if u != nil {
		cp := *u
		p.user = &cp
	}
	return p
}

func (p *StaticProvider) Subscribe(fn func(*User)) (cancel func()) {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	cur := p.user
	p.mu.Unlock()

	fn(cur)

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

// Set changes the identity and notifies subscribers. nil signs out.
func (p *StaticProvider) Set(u *User) {
	p.mu.Lock()
	if u != nil {
		cp := *u
		u = &cp
	}
	p.user = u
	subs := make([]func(*User), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(u)
	}
}

// Subscribers reports how many subscriptions are active.
func (p *StaticProvider) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// ConfiguredUser builds the kiosk identity from config. Empty email means signed out.
func ConfiguredUser(name, email string) *User {
	if email == "" {
		return nil
	}
	if name == "" {
		name = email
	}
	return &User{ID: email, Name: name, Email: email}
}
