// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package roomsettings holds the controllers behind a room's settings
// surface: the settings panel itself and the room profile editor. Nothing
// here renders anything; controllers track state and fire change callbacks
// for whatever UI layer sits on top.
package roomsettings

import (
	"sync"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix/id"
)

// Tab identifies one page of the settings panel.
type Tab string

const (
	TabGeneral     Tab = "general"
	TabMembers     Tab = "members"
	TabEmojis      Tab = "emojis"
	TabPermissions Tab = "permissions"
	TabSecurity    Tab = "security"
)

// Panel tracks the visibility and tab selection of one room's settings
// panel. It reacts to toggle signals from the moment it is constructed and
// stops reacting after Close.
type Panel struct {
	roomID id.RoomID
	log    zerolog.Logger

	mu          sync.Mutex
	tab         Tab
	visible     bool
	closed      bool
	onChange    func()
	unsubscribe func()
}

// NewPanel creates a panel for the given room and subscribes it to the
// toggle signal.
func NewPanel(roomID id.RoomID, signal SettingsSignal, log zerolog.Logger) *Panel {
	p := &Panel{
		roomID: roomID,
		tab:    TabGeneral,
		log:    log.With().Str("component", "settings_panel").Str("room_id", roomID.String()).Logger(),
	}
	p.unsubscribe = signal.SubscribeToggle(p.handleToggle)
	return p
}

// RoomID returns the room this panel belongs to.
func (p *Panel) RoomID() id.RoomID {
	return p.roomID
}

// Visible reports whether the panel is currently shown.
func (p *Panel) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// SelectedTab returns the active tab.
func (p *Panel) SelectedTab() Tab {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tab
}

// OnChange registers the callback fired after every state transition,
// replacing any previous one. The callback runs on whichever goroutine
// delivered the signal.
func (p *Panel) OnChange(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

// SelectTab switches the active tab directly, e.g. from a sidebar click.
func (p *Panel) SelectTab(tab Tab) {
	p.mu.Lock()
	if p.closed || p.tab == tab {
		p.mu.Unlock()
		return
	}
	p.tab = tab
	fn := p.onChange
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// handleToggle applies one navigation signal. Toggling the panel that is
// already showing the requested view closes it; requesting a different tab
// while visible only retargets; any signal for another room hides this
// panel so two rooms' settings never show at once.
func (p *Panel) handleToggle(t Toggle) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	wasVisible, wasTab := p.visible, p.tab
	switch {
	case t.RoomID != p.roomID:
		p.visible = false
	case !p.visible:
		p.visible = true
		if t.Tab != "" {
			p.tab = t.Tab
		}
	case t.Tab != "" && t.Tab != p.tab:
		p.tab = t.Tab
	default:
		p.visible = false
	}
	visible, tab := p.visible, p.tab
	changed := visible != wasVisible || tab != wasTab
	fn := p.onChange
	p.mu.Unlock()

	if changed {
		p.log.Debug().Bool("visible", visible).Str("tab", string(tab)).Msg("Settings panel state changed")
		if fn != nil {
			fn()
		}
	}
}

// Close permanently detaches the panel from the toggle signal. It is safe
// to call more than once.
func (p *Panel) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.onChange = nil
	unsub := p.unsubscribe
	p.unsubscribe = nil
	p.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}
