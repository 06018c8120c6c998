// Copyright 2024-2026 Aiku AI

package mxsession

import (
	"sync"

	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// Store accumulates the slice of sync state the toolkit reads: global
// account data and per-room state events. It is written by the sync loop
// and read from any goroutine.
type Store struct {
	mu          sync.RWMutex
	accountData map[event.Type]*event.Event
	rooms       map[id.RoomID]*RoomState

	obsMu     sync.Mutex
	obsNext   uint64
	observers map[uint64]func(id.RoomID)
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accountData: make(map[event.Type]*event.Event),
		rooms:       make(map[id.RoomID]*RoomState),
		observers:   make(map[uint64]func(id.RoomID)),
	}
}

// AccountData returns the latest global account data event of the given
// type, or nil if none has been seen.
func (s *Store) AccountData(evtType event.Type) *event.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountData[evtType]
}

// PutAccountData records a global account data event. Room-scoped account
// data is ignored.
func (s *Store) PutAccountData(evt *event.Event) {
	if evt == nil || evt.RoomID != "" {
		return
	}
	parseContent(evt)
	s.mu.Lock()
	s.accountData[evt.Type] = evt
	s.mu.Unlock()
}

// Room returns the room with the given ID, or nil if no state has been
// seen for it.
func (s *Store) Room(roomID id.RoomID) *RoomState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[roomID]
}

// PutState records a state event under its room, creating the room on
// first sight, and notifies room update observers.
func (s *Store) PutState(evt *event.Event) {
	if evt == nil || evt.RoomID == "" || evt.StateKey == nil {
		return
	}
	parseContent(evt)
	s.mu.Lock()
	room, ok := s.rooms[evt.RoomID]
	if !ok {
		room = newRoomState(evt.RoomID)
		s.rooms[evt.RoomID] = room
	}
	s.mu.Unlock()
	room.put(evt)
	s.notifyRoomUpdate(evt.RoomID)
}

// OnRoomUpdate registers a callback fired after every state change to any
// room. The returned func removes the registration.
func (s *Store) OnRoomUpdate(fn func(roomID id.RoomID)) (unsubscribe func()) {
	s.obsMu.Lock()
	token := s.obsNext
	s.obsNext++
	s.observers[token] = fn
	s.obsMu.Unlock()
	return func() {
		s.obsMu.Lock()
		delete(s.observers, token)
		s.obsMu.Unlock()
	}
}

func (s *Store) notifyRoomUpdate(roomID id.RoomID) {
	s.obsMu.Lock()
	fns := make([]func(id.RoomID), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()
	for _, fn := range fns {
		fn(roomID)
	}
}

// parseContent eagerly parses the event's typed content so readers can use
// the Content accessors. Unparseable content is tolerated; accessors on
// such events return zero values.
func parseContent(evt *event.Event) {
	_ = evt.Content.ParseRaw(evt.Type)
}
