// Copyright 2024-2026 Aiku AI

package roomsettings

import (
	"sync"

	"maunium.net/go/mautrix/id"
)

// Toggle is the navigation signal that opens, retargets or closes a room's
// settings panel. An empty Tab leaves the panel's tab selection alone.
type Toggle struct {
	RoomID id.RoomID
	Tab    Tab
}

// SettingsSignal is the emitter panels subscribe to. Implementations must
// return an unsubscribe func that is safe to call more than once.
type SettingsSignal interface {
	SubscribeToggle(fn func(Toggle)) (unsubscribe func())
}

// Hub is a small fan-out implementation of SettingsSignal, connecting
// whatever drives navigation to the panels listening for it.
type Hub struct {
	mu   sync.Mutex
	next uint64
	subs map[uint64]func(Toggle)
}

var _ SettingsSignal = (*Hub)(nil)

// NewHub creates an empty signal hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]func(Toggle))}
}

// SubscribeToggle registers fn for future toggle signals.
func (h *Hub) SubscribeToggle(fn func(Toggle)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	token := h.next
	h.next++
	h.subs[token] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, token)
	}
}

// Emit delivers the signal to every current subscriber. Subscribers are
// called outside the hub's lock so they may subscribe or unsubscribe from
// within the callback.
func (h *Hub) Emit(t Toggle) {
	h.mu.Lock()
	fns := make([]func(Toggle), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn(t)
	}
}
