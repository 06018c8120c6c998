// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package emotes

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// fakeSession implements Session backed by plain maps.
type fakeSession struct {
	userID      id.UserID
	accountData map[event.Type]*event.Event
	rooms       map[id.RoomID]*fakeRoom
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		userID:      "@tester:example.com",
		accountData: make(map[event.Type]*event.Event),
		rooms:       make(map[id.RoomID]*fakeRoom),
	}
}

func (f *fakeSession) UserID() id.UserID {
	return f.userID
}

func (f *fakeSession) AccountData(evtType event.Type) *event.Event {
	return f.accountData[evtType]
}

func (f *fakeSession) Room(roomID id.RoomID) Room {
	room, ok := f.rooms[roomID]
	if !ok {
		return nil
	}
	return room
}

// addRoom registers an empty room and returns it for further setup.
func (f *fakeSession) addRoom(roomID id.RoomID) *fakeRoom {
	room := &fakeRoom{
		roomID: roomID,
		state:  make(map[event.Type]map[string]*event.Event),
	}
	f.rooms[roomID] = room
	return room
}

// fakeRoom implements Room backed by a plain state map.
type fakeRoom struct {
	roomID    id.RoomID
	name      string
	avatarURL id.ContentURIString
	state     map[event.Type]map[string]*event.Event
}

func (f *fakeRoom) ID() id.RoomID {
	return f.roomID
}

func (f *fakeRoom) Name() string {
	return f.name
}

func (f *fakeRoom) AvatarURL() id.ContentURIString {
	return f.avatarURL
}

func (f *fakeRoom) StateEvent(evtType event.Type, stateKey string) *event.Event {
	return f.state[evtType][stateKey]
}

func (f *fakeRoom) StateEvents(evtType event.Type) []*event.Event {
	byKey := f.state[evtType]
	evts := make([]*event.Event, 0, len(byKey))
	for _, stateKey := range slices.Sorted(maps.Keys(byKey)) {
		evts = append(evts, byKey[stateKey])
	}
	return evts
}

func (f *fakeRoom) putState(evt *event.Event) {
	if f.state[evt.Type] == nil {
		f.state[evt.Type] = make(map[string]*event.Event)
	}
	f.state[evt.Type][*evt.StateKey] = evt
}

// makePackEvent builds an im.ponies.room_emotes state event from raw JSON
// content, leaving parsing to the code under test.
func makePackEvent(evtID id.EventID, stateKey string, raw string) *event.Event {
	return &event.Event{
		ID:       evtID,
		Type:     StateImagePack,
		StateKey: &stateKey,
		Content:  event.Content{VeryRaw: json.RawMessage(raw)},
	}
}

// makeAccountDataEvent builds a global account data event from raw JSON
// content.
func makeAccountDataEvent(evtType event.Type, raw string) *event.Event {
	return &event.Event{
		Type:    evtType,
		Content: event.Content{VeryRaw: json.RawMessage(raw)},
	}
}

// packJSON renders a minimal pack content body with the given images, each
// mapped to a distinct mxc URL.
func packJSON(name string, shortcodes ...string) string {
	images := make(map[string]map[string]string, len(shortcodes))
	for _, code := range shortcodes {
		images[code] = map[string]string{"url": fmt.Sprintf("mxc://example.com/%s", code)}
	}
	content := map[string]any{"images": images}
	if name != "" {
		content["pack"] = map[string]string{"display_name": name}
	}
	raw, err := json.Marshal(content)
	if err != nil {
		panic(err)
	}
	return string(raw)
}

// newTestResolver wires a resolver to the given session with logging off.
func newTestResolver(session Session) *Resolver {
	return NewResolver(session, zerolog.Nop())
}
