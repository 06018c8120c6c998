// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package roomsettings

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// Client is the slice of a Matrix session the profile editor mutates
// through. This keeps the editor testable without a homeserver.
type Client interface {
	UserID() id.UserID
	SetRoomName(ctx context.Context, roomID id.RoomID, name string) error
	SetRoomTopic(ctx context.Context, roomID id.RoomID, topic string) error
	UploadMedia(ctx context.Context, data []byte, mimeType, fileName string) (id.ContentURI, error)
	SendStateEvent(ctx context.Context, roomID id.RoomID, evtType event.Type, stateKey string, content any) error
}

// Room is the read surface the editor diffs submitted values against.
type Room interface {
	ID() id.RoomID
	Name() string
	Topic() string
	AvatarURL() id.ContentURIString
	MaySendStateEvent(evtType event.Type, userID id.UserID) bool
}

// RoomObserver grants the ability to watch rooms for state updates.
type RoomObserver interface {
	OnRoomUpdate(fn func(roomID id.RoomID)) (unsubscribe func())
}

// StatusKind classifies a Status.
type StatusKind string

const (
	StatusSaving    StatusKind = "saving"
	StatusUploading StatusKind = "uploading"
	StatusSaved     StatusKind = "saved"
	StatusError     StatusKind = "error"
	// StatusRefreshed signals that the room's profile changed underneath
	// the editor and displayed values should be re-read.
	StatusRefreshed StatusKind = "refreshed"
)

// Status is a user-facing progress report from an asynchronous mutation.
type Status struct {
	Kind    StatusKind
	Message string
}

// ProfileEditor drives the name/topic/avatar section of room settings. All
// mutations run asynchronously and report through the OnStatus callback.
// After Close, results from still-running mutations are dropped instead of
// reaching the callback.
type ProfileEditor struct {
	client Client
	room   Room
	log    zerolog.Logger

	mu          sync.Mutex
	closed      bool
	onStatus    func(Status)
	unsubscribe func()
}

// NewProfileEditor wires an editor for the given room. observer may be nil
// when the surrounding app has no room update feed.
func NewProfileEditor(client Client, room Room, observer RoomObserver, log zerolog.Logger) *ProfileEditor {
	e := &ProfileEditor{
		client: client,
		room:   room,
		log:    log.With().Str("component", "profile_editor").Str("room_id", room.ID().String()).Logger(),
	}
	if observer != nil {
		e.unsubscribe = observer.OnRoomUpdate(e.handleRoomUpdate)
	}
	return e
}

// OnStatus registers the status callback, replacing any previous one.
func (e *ProfileEditor) OnStatus(fn func(Status)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onStatus = fn
}

// CanEditName reports whether the logged-in user may change the room name.
func (e *ProfileEditor) CanEditName() bool {
	return e.room.MaySendStateEvent(event.StateRoomName, e.client.UserID())
}

// CanEditTopic reports whether the logged-in user may change the topic.
func (e *ProfileEditor) CanEditTopic() bool {
	return e.room.MaySendStateEvent(event.StateTopic, e.client.UserID())
}

// CanEditAvatar reports whether the logged-in user may change the avatar.
func (e *ProfileEditor) CanEditAvatar() bool {
	return e.room.MaySendStateEvent(event.StateRoomAvatar, e.client.UserID())
}

// Submit saves the name and topic, skipping values that already match the
// room's current state. A submit with nothing changed reports StatusSaved
// without touching the server. The current values are snapshotted here so
// the diff reflects what the user saw when they hit save.
func (e *ProfileEditor) Submit(ctx context.Context, name, topic string) {
	currentName, currentTopic := e.room.Name(), e.room.Topic()
	go e.submit(ctx, currentName, currentTopic, name, topic)
}

func (e *ProfileEditor) submit(ctx context.Context, currentName, currentTopic, name, topic string) {
	changeName := name != currentName
	changeTopic := topic != currentTopic
	if !changeName && !changeTopic {
		e.notify(Status{Kind: StatusSaved})
		return
	}
	if changeName && !e.CanEditName() {
		e.notify(Status{Kind: StatusError, Message: "You are not allowed to change the room name"})
		return
	}
	if changeTopic && !e.CanEditTopic() {
		e.notify(Status{Kind: StatusError, Message: "You are not allowed to change the room topic"})
		return
	}

	e.notify(Status{Kind: StatusSaving})
	if changeName {
		if err := e.client.SetRoomName(ctx, e.room.ID(), name); err != nil {
			e.log.Error().Err(err).Msg("Failed to set room name")
			e.notify(Status{Kind: StatusError, Message: statusMessage(err, "Failed to save room name")})
			return
		}
	}
	if changeTopic {
		if err := e.client.SetRoomTopic(ctx, e.room.ID(), topic); err != nil {
			e.log.Error().Err(err).Msg("Failed to set room topic")
			e.notify(Status{Kind: StatusError, Message: statusMessage(err, "Failed to save room topic")})
			return
		}
	}
	e.notify(Status{Kind: StatusSaved})
}

// Close drops the editor: the status callback is detached and the room
// update subscription released. Mutations still in flight keep running but
// their results no longer reach the callback.
func (e *ProfileEditor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.onStatus = nil
	unsub := e.unsubscribe
	e.unsubscribe = nil
	e.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (e *ProfileEditor) handleRoomUpdate(roomID id.RoomID) {
	if roomID != e.room.ID() {
		return
	}
	e.notify(Status{Kind: StatusRefreshed})
}

// notify delivers a status unless the editor has been closed.
func (e *ProfileEditor) notify(st Status) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	fn := e.onStatus
	e.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}

// statusMessage extracts the server's human-readable error for display,
// falling back to a generic message. Transport-level detail stays in the
// logs rather than the status line.
func statusMessage(err error, fallback string) string {
	var httpErr mautrix.HTTPError
	if errors.As(err, &httpErr) && httpErr.RespError != nil && httpErr.RespError.Err != "" {
		return httpErr.RespError.Err
	}
	return fallback
}
