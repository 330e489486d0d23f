package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/ecoscan/internal/model"
)

func active(id string) *model.Session {
	return &model.Session{ID: id, UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}
}

func TestGate_NoSessionRedirectsImmediately(t *testing.T) {
	redirects := 0
	gate := NewGate(func() { redirects++ })

	ok := gate.Mount(nil, nil)

	assert.False(t, ok)
	assert.Equal(t, 1, redirects)
}

func TestGate_RevokedSessionCountsAsAbsent(t *testing.T) {
	redirects := 0
	gate := NewGate(func() { redirects++ })

	s := active("s1")
	now := time.Now()
	s.RevokedAt = &now

	assert.False(t, gate.Mount(s, nil))
	assert.Equal(t, 1, redirects)
}

func TestGate_ActiveSessionRenders(t *testing.T) {
	redirects := 0
	gate := NewGate(func() { redirects++ })

	assert.True(t, gate.Mount(active("s1"), nil))
	assert.Zero(t, redirects)
}

func TestGate_RedirectsOncePerSignOut(t *testing.T) {
	broker := NewBroker()
	redirects := 0
	gate := NewGate(func() { redirects++ })

	assert.True(t, gate.Mount(active("s1"), broker.SubscribeTo("s1")))
	assert.Equal(t, 1, broker.Listeners("s1"))

	broker.Publish("s1", nil)
	broker.Publish("s1", nil)
	assert.Equal(t, 1, redirects, "repeated absent notifications redirect once")

	broker.Publish("s1", active("s1"))
	broker.Publish("s1", nil)
	assert.Equal(t, 2, redirects, "a new transition redirects again")
}

func TestGate_UnmountStopsObserving(t *testing.T) {
	broker := NewBroker()
	redirects := 0
	gate := NewGate(func() { redirects++ })

	gate.Mount(active("s1"), broker.SubscribeTo("s1"))
	gate.Unmount()
	gate.Unmount()

	broker.Publish("s1", nil)
	assert.Zero(t, redirects)
	assert.Zero(t, broker.Listeners("s1"))
}

func TestGate_FailedMountDoesNotSubscribe(t *testing.T) {
	broker := NewBroker()
	gate := NewGate(func() {})

	gate.Mount(nil, broker.SubscribeTo("s1"))

	assert.Zero(t, broker.Listeners("s1"))
}

func TestBroker_OnlyNotifiesMatchingSession(t *testing.T) {
	broker := NewBroker()
	var got []string

	unsubscribe := broker.Subscribe("s1", func(*model.Session) { got = append(got, "s1") })
	defer unsubscribe()
	broker.Subscribe("s2", func(*model.Session) { got = append(got, "s2") })

	broker.Publish("s1", nil)

	assert.Equal(t, []string{"s1"}, got)
}

func TestBroker_ListenerMayUnsubscribeItself(t *testing.T) {
	broker := NewBroker()
	calls := 0

	var unsubscribe func()
	unsubscribe = broker.Subscribe("s1", func(*model.Session) {
		calls++
		unsubscribe()
	})

	broker.Publish("s1", nil)
	broker.Publish("s1", nil)

	assert.Equal(t, 1, calls)
}

func TestGate_CheckCatchesMissedSignOut(t *testing.T) {
	broker := NewBroker()
	redirects := 0
	gate := NewGate(func() { redirects++ })

	require.True(t, gate.Mount(active("s1"), broker.SubscribeTo("s1")))
	gate.Check(active("s1"))
	assert.Zero(t, redirects)

	gate.Check(nil)
	broker.Publish("s1", nil)
	assert.Equal(t, 1, redirects)
}
