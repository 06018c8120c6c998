// Copyright 2024-2026 Aiku AI

package mxsession

import (
	"maps"
	"slices"
	"sync"

	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/aiku/matrix-roomkit/pkg/emotes"
	"github.com/aiku/matrix-roomkit/pkg/roomsettings"
)

// RoomState is the accumulated state of one room, keyed by event type and
// state key. Later events replace earlier ones with the same key pair.
type RoomState struct {
	roomID id.RoomID

	mu    sync.RWMutex
	state map[event.Type]map[string]*event.Event
}

var (
	_ emotes.Room       = (*RoomState)(nil)
	_ roomsettings.Room = (*RoomState)(nil)
)

func newRoomState(roomID id.RoomID) *RoomState {
	return &RoomState{
		roomID: roomID,
		state:  make(map[event.Type]map[string]*event.Event),
	}
}

func (r *RoomState) put(evt *event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byKey, ok := r.state[evt.Type]
	if !ok {
		byKey = make(map[string]*event.Event)
		r.state[evt.Type] = byKey
	}
	byKey[*evt.StateKey] = evt
}

// ID returns the room ID.
func (r *RoomState) ID() id.RoomID {
	return r.roomID
}

// StateEvent returns the state event with the given type and state key, or
// nil if absent.
func (r *RoomState) StateEvent(evtType event.Type, stateKey string) *event.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state[evtType][stateKey]
}

// StateEvents returns all state events of the given type in state key
// order.
func (r *RoomState) StateEvents(evtType event.Type) []*event.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byKey := r.state[evtType]
	events := make([]*event.Event, 0, len(byKey))
	for _, key := range slices.Sorted(maps.Keys(byKey)) {
		events = append(events, byKey[key])
	}
	return events
}

// Name returns the room's display name: the m.room.name content, falling
// back to the canonical alias and finally the room ID.
func (r *RoomState) Name() string {
	if evt := r.StateEvent(event.StateRoomName, ""); evt != nil {
		if name := evt.Content.AsRoomName().Name; name != "" {
			return name
		}
	}
	if alias := r.CanonicalAlias(); alias != "" {
		return string(alias)
	}
	return string(r.roomID)
}

// Topic returns the room topic, or empty.
func (r *RoomState) Topic() string {
	evt := r.StateEvent(event.StateTopic, "")
	if evt == nil {
		return ""
	}
	return evt.Content.AsTopic().Topic
}

// AvatarURL returns the room avatar mxc URI, or empty.
func (r *RoomState) AvatarURL() id.ContentURIString {
	evt := r.StateEvent(event.StateRoomAvatar, "")
	if evt == nil {
		return ""
	}
	return evt.Content.AsRoomAvatar().URL
}

// CanonicalAlias returns the room's canonical alias, or empty.
func (r *RoomState) CanonicalAlias() id.RoomAlias {
	evt := r.StateEvent(event.StateCanonicalAlias, "")
	if evt == nil {
		return ""
	}
	return evt.Content.AsCanonicalAlias().Alias
}

// PowerLevels returns the room's power levels, or nil if the event hasn't
// been seen.
func (r *RoomState) PowerLevels() *event.PowerLevelsEventContent {
	evt := r.StateEvent(event.StatePowerLevels, "")
	if evt == nil {
		return nil
	}
	return evt.Content.AsPowerLevels()
}

// MaySendStateEvent reports whether the user's power level allows sending
// the given state event type. Without a power levels event the answer is
// no; every published room has one.
func (r *RoomState) MaySendStateEvent(evtType event.Type, userID id.UserID) bool {
	pl := r.PowerLevels()
	if pl == nil {
		return false
	}
	return pl.GetUserLevel(userID) >= pl.GetEventLevel(evtType)
}

// CanInvite reports whether the user's power level allows inviting.
func (r *RoomState) CanInvite(userID id.UserID) bool {
	pl := r.PowerLevels()
	if pl == nil {
		return false
	}
	return pl.GetUserLevel(userID) >= pl.Invite()
}
