// Package session guards protected views: a Gate sends the visitor to the
// sign-in screen when no session is present, on first render and whenever
// an observed session goes away.
package session

import (
	"sync"

	"github.com/templui/ecoscan/internal/model"
)

// Gate is mounted once per protected view.
type Gate struct {
	redirect func()

	mu          sync.Mutex
	present     bool
	unsubscribe func()
}

// NewGate returns a gate that calls redirect to leave the protected view.
func NewGate(redirect func()) *Gate {
	return &Gate{redirect: redirect}
}

// Mount checks the session the view starts with. It returns false, after
// redirecting, when there is none; the protected content must not render.
// With a non-nil subscribe the gate keeps observing session changes until
// Unmount.
func (g *Gate) Mount(current *model.Session, subscribe SubscribeFunc) bool {
	g.mu.Lock()
	g.present = current.IsActive()
	g.mu.Unlock()

	if !current.IsActive() {
		g.redirect()
		return false
	}

	if subscribe != nil {
		unsubscribe := subscribe(g.observe)
		g.mu.Lock()
		g.unsubscribe = unsubscribe
		g.mu.Unlock()
	}
	return true
}

// Check feeds the gate a freshly loaded session, for changes that may have
// happened before the subscription was in place.
func (g *Gate) Check(current *model.Session) {
	g.observe(current)
}

// observe redirects once per transition into "no session".
func (g *Gate) observe(current *model.Session) {
	g.mu.Lock()
	wasPresent := g.present
	g.present = current.IsActive()
	g.mu.Unlock()

	if wasPresent && !current.IsActive() {
		g.redirect()
	}
}

// Unmount stops observing. Safe to call more than once.
func (g *Gate) Unmount() {
	g.mu.Lock()
	unsubscribe := g.unsubscribe
	g.unsubscribe = nil
	g.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
