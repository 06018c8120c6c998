// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package mxsession maintains a live Matrix session for the toolkit: a
// mautrix client, a sync-fed store of the room state and account data the
// other packages read, and the thin mutation surface the settings
// controllers call.
package mxsession

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/aiku/matrix-roomkit/pkg/emotes"
	"github.com/aiku/matrix-roomkit/pkg/roomsettings"
)

// watchedStateTypes are the room state event types applied to the store.
var watchedStateTypes = []event.Type{
	event.StateRoomName,
	event.StateTopic,
	event.StateRoomAvatar,
	event.StateCanonicalAlias,
	event.StatePowerLevels,
	emotes.StateImagePack,
}

// Session wraps a mautrix client together with the store its sync loop
// feeds. One Session corresponds to one logged-in user.
type Session struct {
	client *mautrix.Client
	store  *Store
	log    zerolog.Logger

	initialSync chan struct{}
}

var (
	_ roomsettings.Client       = (*Session)(nil)
	_ roomsettings.RoomObserver = (*Session)(nil)
)

// NewSession creates a session against the given homeserver. userID and
// accessToken may be empty before login.
func NewSession(homeserverURL string, userID id.UserID, accessToken string, log zerolog.Logger) (*Session, error) {
	client, err := mautrix.NewClient(homeserverURL, userID, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create matrix client: %w", err)
	}
	s := &Session{
		client:      client,
		store:       NewStore(),
		log:         log.With().Str("component", "mx_session").Logger(),
		initialSync: make(chan struct{}),
	}
	client.Log = s.log

	syncer := mautrix.NewDefaultSyncer()
	// Parse failures must not kill the sync loop; unparseable events still
	// reach the store and read as zero values there.
	syncer.ParseEventContent = true
	syncer.ParseErrorHandler = func(evt *event.Event, err error) bool {
		s.log.Debug().Err(err).Str("event_type", evt.Type.Type).Msg("Failed to parse event content")
		return true
	}
	for _, evtType := range watchedStateTypes {
		syncer.OnEventType(evtType, s.handleStateEvent)
	}
	syncer.OnEventType(emotes.AccountDataUserEmotes, s.handleAccountData)
	syncer.OnEventType(emotes.AccountDataEmoteRooms, s.handleAccountData)
	client.Syncer = &readySyncer{
		DefaultSyncer: syncer,
		ready:         func() { close(s.initialSync) },
	}
	return s, nil
}

// UserID returns the ID of the logged-in user.
func (s *Session) UserID() id.UserID {
	return s.client.UserID
}

// AccessToken returns the access token in use, for persisting after login.
func (s *Session) AccessToken() string {
	return s.client.AccessToken
}

// Store returns the sync-fed store.
func (s *Session) Store() *Store {
	return s.store
}

// Room returns the synced state of the given room, or nil if the room has
// not been seen.
func (s *Session) Room(roomID id.RoomID) *RoomState {
	return s.store.Room(roomID)
}

// OnRoomUpdate implements roomsettings.RoomObserver on top of the store.
func (s *Session) OnRoomUpdate(fn func(roomID id.RoomID)) (unsubscribe func()) {
	return s.store.OnRoomUpdate(fn)
}

// EmoteSession adapts the session to the read surface the emote resolver
// consumes. The indirection keeps a missing room as a true interface nil.
func (s *Session) EmoteSession() emotes.Session {
	return emoteSession{s}
}

type emoteSession struct {
	s *Session
}

var _ emotes.Session = emoteSession{}

func (es emoteSession) UserID() id.UserID {
	return es.s.UserID()
}

func (es emoteSession) AccountData(evtType event.Type) *event.Event {
	return es.s.store.AccountData(evtType)
}

func (es emoteSession) Room(roomID id.RoomID) emotes.Room {
	room := es.s.store.Room(roomID)
	if room == nil {
		return nil
	}
	return room
}

// LoginPassword performs a password login and stores the resulting
// credentials on the client.
func (s *Session) LoginPassword(ctx context.Context, username, password string) (*mautrix.RespLogin, error) {
	resp, err := s.client.Login(ctx, &mautrix.ReqLogin{
		Type: mautrix.AuthTypePassword,
		Identifier: mautrix.UserIdentifier{
			Type: mautrix.IdentifierTypeUser,
			User: username,
		},
		Password:                 password,
		InitialDeviceDisplayName: "roomkit",
		StoreCredentials:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	s.log.Info().Str("user_id", resp.UserID.String()).Msg("Logged in")
	return resp, nil
}

// Whoami verifies the current credentials with the homeserver.
func (s *Session) Whoami(ctx context.Context) (*mautrix.RespWhoami, error) {
	resp, err := s.client.Whoami(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to verify credentials: %w", err)
	}
	return resp, nil
}

// Sync runs the long-poll sync loop until ctx is cancelled. Cancellation
// is a clean exit.
func (s *Session) Sync(ctx context.Context) error {
	s.log.Info().Str("user_id", s.client.UserID.String()).Msg("Starting sync")
	err := s.client.SyncWithContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}

// WaitForInitialSync blocks until the first sync response has been fully
// applied to the store, or ctx is done.
func (s *Session) WaitForInitialSync(ctx context.Context) error {
	select {
	case <-s.initialSync:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetRoomName sends an m.room.name state event.
func (s *Session) SetRoomName(ctx context.Context, roomID id.RoomID, name string) error {
	_, err := s.client.SendStateEvent(ctx, roomID, event.StateRoomName, "", &event.RoomNameEventContent{Name: name})
	if err != nil {
		return fmt.Errorf("failed to set room name: %w", err)
	}
	return nil
}

// SetRoomTopic sends an m.room.topic state event.
func (s *Session) SetRoomTopic(ctx context.Context, roomID id.RoomID, topic string) error {
	_, err := s.client.SendStateEvent(ctx, roomID, event.StateTopic, "", &event.TopicEventContent{Topic: topic})
	if err != nil {
		return fmt.Errorf("failed to set room topic: %w", err)
	}
	return nil
}

// SendStateEvent sends an arbitrary state event.
func (s *Session) SendStateEvent(ctx context.Context, roomID id.RoomID, evtType event.Type, stateKey string, content any) error {
	_, err := s.client.SendStateEvent(ctx, roomID, evtType, stateKey, content)
	if err != nil {
		return fmt.Errorf("failed to send %s state event: %w", evtType.Type, err)
	}
	return nil
}

// UploadMedia uploads a blob to the media repository and returns its mxc
// URI.
func (s *Session) UploadMedia(ctx context.Context, data []byte, mimeType, fileName string) (id.ContentURI, error) {
	resp, err := s.client.UploadMedia(ctx, mautrix.ReqUploadMedia{
		ContentBytes: data,
		ContentType:  mimeType,
		FileName:     fileName,
	})
	if err != nil {
		return id.ContentURI{}, fmt.Errorf("failed to upload media: %w", err)
	}
	return resp.ContentURI, nil
}

func (s *Session) handleStateEvent(_ context.Context, evt *event.Event) {
	s.store.PutState(evt)
}

func (s *Session) handleAccountData(_ context.Context, evt *event.Event) {
	// im.ponies account data types can also appear as room account data;
	// only the global scope feeds the store.
	if evt.RoomID != "" {
		return
	}
	s.store.PutAccountData(evt)
}

// readySyncer closes over the initial sync signal: the first response
// (since == "") counts as processed only after the embedded syncer has run
// every handler, so waiters observe a complete snapshot.
type readySyncer struct {
	*mautrix.DefaultSyncer
	once  sync.Once
	ready func()
}

var _ mautrix.Syncer = (*readySyncer)(nil)

func (s *readySyncer) ProcessResponse(ctx context.Context, resp *mautrix.RespSync, since string) error {
	err := s.DefaultSyncer.ProcessResponse(ctx, resp, since)
	if err == nil && since == "" {
		s.once.Do(s.ready)
	}
	return err
}
