package broadcast

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/bullsgame/internal/model"
	"github.com/mcoot/bullsgame/internal/testutil"
)

// fakeSubscriber accepts up to capacity snapshots
type fakeSubscriber struct {
	mu        sync.Mutex
	capacity  int
	snapshots []model.Snapshot
	closed    bool
}

func newFakeSubscriber(capacity int) *fakeSubscriber {
	return &fakeSubscriber{capacity: capacity}
}

func (f *fakeSubscriber) Deliver(snapshot model.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.snapshots) >= f.capacity {
		return model.ErrSlowConsumer
	}
	f.snapshots = append(f.snapshots, snapshot)
	return nil
}

func (f *fakeSubscriber) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSubscriber) received() []model.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Snapshot(nil), f.snapshots...)
}

func (f *fakeSubscriber) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// brokenSubscriber fails every delivery with an unexpected error
type brokenSubscriber struct {
	fakeSubscriber
}

func (b *brokenSubscriber) Deliver(model.Snapshot) error {
	return errors.New("encode failed")
}

func testView(message string) model.RoomView {
	return model.RoomView{
		Room:    "den",
		Phase:   model.PhasePlaying,
		Message: message,
		Players: []model.RosterEntry{
			{Name: "alice", Role: model.RolePlayer, Readiness: model.ReadinessUnready},
			{Name: "bob", Role: model.RolePlayer, Readiness: model.ReadinessUnready},
		},
		Inputs: map[model.PlayerName]string{"alice": "12", "bob": "9"},
	}
}

func TestPublishPersonalisesSnapshots(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	alice := newFakeSubscriber(10)
	bob := newFakeSubscriber(10)
	hub.Subscribe(alice, "alice")
	hub.Subscribe(bob, "bob")

	sent := hub.Publish(testView("hello"))
	assert.Equal(t, 2, sent)

	require.Len(t, alice.received(), 1)
	require.Len(t, bob.received(), 1)

	tests := []struct {
		name   string
		sub    *fakeSubscriber
		player model.PlayerName
		input  string
	}{
		{name: "alice sees her own input", sub: alice, player: "alice", input: "12"},
		{name: "bob sees his own input", sub: bob, player: "bob", input: "9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := tt.sub.received()[0]
			if snap.PlayerName != tt.player {
				t.Errorf("PlayerName = %q, want %q", snap.PlayerName, tt.player)
			}
			if snap.InputValue != tt.input {
				t.Errorf("InputValue = %q, want %q", snap.InputValue, tt.input)
			}
			if snap.Message != "hello" {
				t.Errorf("Message = %q, want %q", snap.Message, "hello")
			}
		})
	}
}

func TestPublishKeepsOrderPerSubscriber(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	sub := newFakeSubscriber(100)
	hub.Subscribe(sub, "alice")

	for i := range 20 {
		hub.Publish(testView(fmt.Sprintf("update %d", i)))
	}

	received := sub.received()
	require.Len(t, received, 20)
	for i, snap := range received {
		assert.Equal(t, fmt.Sprintf("update %d", i), snap.Message)
	}
}

func TestSlowSubscriberIsEvicted(t *testing.T) {
	logger, logs := testutil.CaptureLogger()
	hub := NewHub(logger)
	slow := newFakeSubscriber(1)
	fast := newFakeSubscriber(10)
	hub.Subscribe(slow, "alice")
	hub.Subscribe(fast, "bob")

	hub.Publish(testView("one"))
	sent := hub.Publish(testView("two"))

	assert.Equal(t, 1, sent)
	assert.True(t, slow.isClosed())
	assert.False(t, fast.isClosed())
	assert.Equal(t, 1, hub.Count())
	assert.Len(t, fast.received(), 2)
	assert.Contains(t, logs.String(), "evicting slow subscriber")

	hub.Publish(testView("three"))
	assert.Len(t, slow.received(), 1, "evicted subscribers get nothing further")
}

func TestFailingSubscriberIsEvicted(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	broken := &brokenSubscriber{}
	hub.Subscribe(broken, "alice")

	assert.Equal(t, 0, hub.Publish(testView("one")))
	assert.True(t, broken.isClosed())
	assert.Equal(t, 0, hub.Count())
}

func TestUnsubscribe(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	sub := newFakeSubscriber(10)
	hub.Subscribe(sub, "alice")

	assert.True(t, hub.Unsubscribe(sub))
	assert.False(t, hub.Unsubscribe(sub))
	assert.Equal(t, 0, hub.Publish(testView("one")))
	assert.False(t, sub.isClosed())
}

func TestCloseDisconnectsSubscribers(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	sub := newFakeSubscriber(10)
	hub.Subscribe(sub, "alice")

	hub.Close()
	assert.True(t, sub.isClosed())
	assert.Equal(t, 0, hub.Count())

	late := newFakeSubscriber(10)
	hub.Subscribe(late, "bob")
	assert.True(t, late.isClosed())
	assert.Equal(t, 0, hub.Count())

	hub.Close()
}
