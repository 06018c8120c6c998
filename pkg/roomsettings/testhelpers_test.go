// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package roomsettings

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

type nameCall struct {
	RoomID id.RoomID
	Name   string
}

type topicCall struct {
	RoomID id.RoomID
	Topic  string
}

type uploadCall struct {
	Data     []byte
	MimeType string
	FileName string
}

type stateCall struct {
	RoomID   id.RoomID
	Type     event.Type
	StateKey string
	Content  any
}

// fakeClient implements Client, recording every mutation and returning
// injectable errors. nameGate, when set, blocks SetRoomName until the gate
// is closed so tests can interleave Close with an in-flight call.
type fakeClient struct {
	mu         sync.Mutex
	nameCalls  []nameCall
	topicCalls []topicCall
	uploads    []uploadCall
	stateCalls []stateCall

	nameErr   error
	topicErr  error
	uploadErr error
	stateErr  error
	uploadURI id.ContentURI

	nameGate chan struct{}
}

func (c *fakeClient) UserID() id.UserID {
	return "@me:example.com"
}

func (c *fakeClient) SetRoomName(_ context.Context, roomID id.RoomID, name string) error {
	c.mu.Lock()
	c.nameCalls = append(c.nameCalls, nameCall{RoomID: roomID, Name: name})
	gate := c.nameGate
	c.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return c.nameErr
}

func (c *fakeClient) SetRoomTopic(_ context.Context, roomID id.RoomID, topic string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topicCalls = append(c.topicCalls, topicCall{RoomID: roomID, Topic: topic})
	return c.topicErr
}

func (c *fakeClient) UploadMedia(_ context.Context, data []byte, mimeType, fileName string) (id.ContentURI, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploads = append(c.uploads, uploadCall{Data: data, MimeType: mimeType, FileName: fileName})
	if c.uploadErr != nil {
		return id.ContentURI{}, c.uploadErr
	}
	return c.uploadURI, nil
}

func (c *fakeClient) SendStateEvent(_ context.Context, roomID id.RoomID, evtType event.Type, stateKey string, content any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateCalls = append(c.stateCalls, stateCall{RoomID: roomID, Type: evtType, StateKey: stateKey, Content: content})
	return c.stateErr
}

func (c *fakeClient) NameCalls() []nameCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]nameCall, len(c.nameCalls))
	copy(cp, c.nameCalls)
	return cp
}

func (c *fakeClient) TopicCalls() []topicCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]topicCall, len(c.topicCalls))
	copy(cp, c.topicCalls)
	return cp
}

func (c *fakeClient) Uploads() []uploadCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]uploadCall, len(c.uploads))
	copy(cp, c.uploads)
	return cp
}

func (c *fakeClient) StateCalls() []stateCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]stateCall, len(c.stateCalls))
	copy(cp, c.stateCalls)
	return cp
}

// fakeRoom implements Room with fixed values; state event types listed in
// denied are reported as not sendable.
type fakeRoom struct {
	roomID    id.RoomID
	name      string
	topic     string
	avatarURL id.ContentURIString
	denied    map[event.Type]bool
}

func (f *fakeRoom) ID() id.RoomID                  { return f.roomID }
func (f *fakeRoom) Name() string                   { return f.name }
func (f *fakeRoom) Topic() string                  { return f.topic }
func (f *fakeRoom) AvatarURL() id.ContentURIString { return f.avatarURL }

func (f *fakeRoom) MaySendStateEvent(evtType event.Type, _ id.UserID) bool {
	return !f.denied[evtType]
}

// fakeObserver implements RoomObserver, delivering updates synchronously.
type fakeObserver struct {
	mu         sync.Mutex
	subs       []func(id.RoomID)
	unsubCalls int
}

func (o *fakeObserver) OnRoomUpdate(fn func(id.RoomID)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.subs = append(o.subs, fn)
	token := len(o.subs) - 1
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.subs[token] = nil
		o.unsubCalls++
	}
}

func (o *fakeObserver) emit(roomID id.RoomID) {
	o.mu.Lock()
	fns := make([]func(id.RoomID), 0, len(o.subs))
	for _, fn := range o.subs {
		if fn != nil {
			fns = append(fns, fn)
		}
	}
	o.mu.Unlock()
	for _, fn := range fns {
		fn(roomID)
	}
}

// statusRecorder captures statuses from the editor callback and lets tests
// block until a particular kind arrives.
type statusRecorder struct {
	mu  sync.Mutex
	got []Status
	ch  chan Status
}

func newStatusRecorder() *statusRecorder {
	return &statusRecorder{ch: make(chan Status, 16)}
}

func (r *statusRecorder) callback(st Status) {
	r.mu.Lock()
	r.got = append(r.got, st)
	r.mu.Unlock()
	r.ch <- st
}

func (r *statusRecorder) Statuses() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]Status, len(r.got))
	copy(cp, r.got)
	return cp
}

// wait consumes statuses until one of the given kind shows up.
func (r *statusRecorder) wait(t *testing.T, kind StatusKind) Status {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case st := <-r.ch:
			if st.Kind == kind {
				return st
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %q status, got %+v", kind, r.Statuses())
		}
	}
}

// waitTerminal consumes statuses until the mutation finishes either way.
func (r *statusRecorder) waitTerminal(t *testing.T) Status {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case st := <-r.ch:
			if st.Kind == StatusSaved || st.Kind == StatusError {
				return st
			}
		case <-timeout:
			t.Fatalf("timed out waiting for a terminal status, got %+v", r.Statuses())
		}
	}
}

// assertSilent fails if any status arrives within the window.
func (r *statusRecorder) assertSilent(t *testing.T, window time.Duration) {
	t.Helper()
	select {
	case st := <-r.ch:
		t.Fatalf("unexpected status %+v after close", st)
	case <-time.After(window):
	}
}

// newTestEditor builds an editor over the fakes with the recorder attached.
func newTestEditor(client *fakeClient, room *fakeRoom, observer RoomObserver) (*ProfileEditor, *statusRecorder) {
	editor := NewProfileEditor(client, room, observer, zerolog.Nop())
	recorder := newStatusRecorder()
	editor.OnStatus(recorder.callback)
	return editor, recorder
}
