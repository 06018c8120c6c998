// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package mxsession

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

func makeStateEvent(roomID id.RoomID, evtType event.Type, stateKey, raw string) *event.Event {
	sk := stateKey
	return &event.Event{
		ID:       id.EventID("$" + evtType.Type + "/" + stateKey),
		Type:     evtType,
		RoomID:   roomID,
		Sender:   "@admin:example.com",
		StateKey: &sk,
		Content:  event.Content{VeryRaw: json.RawMessage(raw)},
	}
}

func makeAccountDataEvent(evtType event.Type, raw string) *event.Event {
	return &event.Event{
		Type:    evtType,
		Content: event.Content{VeryRaw: json.RawMessage(raw)},
	}
}

// endpointCall records which API endpoints were hit during a test.
type endpointCall struct {
	Method string
	Path   string
	Body   string
}

// fakeHomeserver wraps an httptest.Server simulating the client-server API
// endpoints the session touches. It records calls and serves canned
// responses.
type fakeHomeserver struct {
	Server *httptest.Server

	mu    sync.Mutex
	calls []endpointCall
	syncs int

	// SyncBody is returned verbatim for the first /sync request. Later
	// requests get an empty response after a short delay, mimicking long
	// polling.
	SyncBody string
	// FailEndpoints maps path substrings to Matrix error codes returned as
	// a 403 for matching requests.
	FailEndpoints map[string]string
}

func newFakeHomeserver() *fakeHomeserver {
	f := &fakeHomeserver{FailEndpoints: make(map[string]string)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handler))
	return f
}

func (f *fakeHomeserver) Close() {
	f.Server.Close()
}

func (f *fakeHomeserver) record(method, path, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, endpointCall{Method: method, Path: path, Body: body})
}

func (f *fakeHomeserver) Calls() []endpointCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]endpointCall, len(f.calls))
	copy(cp, f.calls)
	return cp
}

// FindCall returns the first recorded call whose path contains the given
// substring.
func (f *fakeHomeserver) FindCall(pathPart string) (endpointCall, bool) {
	for _, call := range f.Calls() {
		if strings.Contains(call.Path, pathPart) {
			return call, true
		}
	}
	return endpointCall{}, false
}

func (f *fakeHomeserver) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.record(r.Method, r.URL.Path, string(body))

	for part, errcode := range f.FailEndpoints {
		if strings.Contains(r.URL.Path, part) {
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]string{"errcode": errcode, "error": "You cannot do that"})
			return
		}
	}

	path := r.URL.Path
	switch {
	case r.Method == "GET" && strings.HasSuffix(path, "/sync"):
		f.mu.Lock()
		n := f.syncs
		f.syncs++
		f.mu.Unlock()
		if n == 0 && f.SyncBody != "" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(f.SyncBody))
			return
		}
		time.Sleep(25 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]any{"next_batch": fmt.Sprintf("s%d", n+1)})

	case r.Method == "POST" && strings.HasSuffix(path, "/filter"):
		_ = json.NewEncoder(w).Encode(map[string]string{"filter_id": "1"})

	case r.Method == "POST" && strings.HasSuffix(path, "/login"):
		_ = json.NewEncoder(w).Encode(map[string]string{
			"user_id":      "@tester:example.com",
			"access_token": "syt_secret",
			"device_id":    "ROOMKIT1",
		})

	case r.Method == "GET" && strings.HasSuffix(path, "/account/whoami"):
		_ = json.NewEncoder(w).Encode(map[string]string{
			"user_id":   "@tester:example.com",
			"device_id": "ROOMKIT1",
		})

	case r.Method == "PUT" && strings.Contains(path, "/state/"):
		_ = json.NewEncoder(w).Encode(map[string]string{"event_id": "$sent"})

	case r.Method == "POST" && strings.Contains(path, "/media/") && strings.Contains(path, "/upload"):
		_ = json.NewEncoder(w).Encode(map[string]string{"content_uri": "mxc://example.com/uploaded"})

	default:
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"errcode": "M_UNRECOGNIZED", "error": "Unknown endpoint"})
	}
}
