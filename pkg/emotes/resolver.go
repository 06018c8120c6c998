// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package emotes

import (
	"maps"
	"slices"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// Session is the narrow slice of a Matrix session the resolver reads from.
// Implementations serve everything from already-synced local state; methods
// must not block on network I/O.
type Session interface {
	// UserID returns the ID of the logged-in user.
	UserID() id.UserID
	// AccountData returns the latest global account data event of the given
	// type, or nil if none has been seen.
	AccountData(evtType event.Type) *event.Event
	// Room returns the room with the given ID, or nil if it is not loaded.
	Room(roomID id.RoomID) Room
}

// Room is the room-state surface packs are read from.
type Room interface {
	ID() id.RoomID
	Name() string
	AvatarURL() id.ContentURIString
	// StateEvent returns the state event with the given type and state key,
	// or nil if absent.
	StateEvent(evtType event.Type, stateKey string) *event.Event
	// StateEvents returns all state events of the given type, in state key
	// order.
	StateEvents(evtType event.Type) []*event.Event
}

// Emoji is a unified completion entry: either a standard Unicode emoji or a
// custom image from a pack. Exactly one of Unicode and URL is set.
type Emoji struct {
	// Shortcode is the primary completion name, without colons.
	Shortcode string
	// Aliases lists every shortcode the entry answers to, sorted. Custom
	// images have exactly one.
	Aliases []string
	Unicode string
	URL     id.ContentURIString
	// Body is the fallback text used as alt text when sending a custom
	// image. Empty for standard emoji.
	Body string
	// Pack points at the source pack of a custom image.
	Pack *ImagePack
}

// IsCustom reports whether the entry is a pack image rather than a standard
// Unicode emoji.
func (e Emoji) IsCustom() bool {
	return e.URL != ""
}

// Resolver assembles the image packs relevant to a room context and merges
// them with the standard emoji table into shortcode lookups. It keeps no
// state of its own; every call reads the session fresh.
type Resolver struct {
	session Session
	log     zerolog.Logger
}

// NewResolver creates a resolver over the given session.
func NewResolver(session Session, log zerolog.Logger) *Resolver {
	return &Resolver{
		session: session,
		log:     log.With().Str("component", "emote_resolver").Logger(),
	}
}

// UserPack returns the user's personal pack from account data, or nil if
// there is none. A personal pack without a name is called "Your Emoji", and
// since account data events carry no event ID, the user's own ID serves as
// the pack's dedup identity.
func (r *Resolver) UserPack() *ImagePack {
	pack := ParsePack(r.session.AccountData(AccountDataUserEmotes), nil)
	if pack == nil {
		return nil
	}
	if pack.DisplayName == "" {
		pack.DisplayName = "Your Emoji"
	}
	if pack.ID == "" {
		pack.ID = id.EventID(r.session.UserID())
	}
	return pack
}

// PacksInRoom returns the packs defined in the room's state, in state key
// order. room may be nil.
func (r *Resolver) PacksInRoom(room Room) []*ImagePack {
	if room == nil {
		return nil
	}
	evts := room.StateEvents(StateImagePack)
	packs := make([]*ImagePack, 0, len(evts))
	for _, evt := range evts {
		if pack := ParsePack(evt, room); pack != nil {
			packs = append(packs, pack)
		}
	}
	return packs
}

// GlobalPacks returns the packs the user enabled everywhere via
// im.ponies.emote_rooms, in room ID order. Only state keys explicitly
// listed in the account data are included; rooms that are not loaded and
// state events that no longer exist contribute nothing.
func (r *Resolver) GlobalPacks() []*ImagePack {
	evt := r.session.AccountData(AccountDataEmoteRooms)
	if evt == nil {
		return nil
	}
	content := parseEmoteRoomsContent(evt)
	var packs []*ImagePack
	for _, roomID := range slices.Sorted(maps.Keys(content.Rooms)) {
		room := r.session.Room(roomID)
		if room == nil {
			r.log.Debug().Str("room_id", roomID.String()).Msg("Skipping emote room that is not loaded")
			continue
		}
		for _, stateKey := range slices.Sorted(maps.Keys(content.Rooms[roomID])) {
			packEvt := room.StateEvent(StateImagePack, stateKey)
			if packEvt == nil {
				continue
			}
			if pack := ParsePack(packEvt, room); pack != nil {
				packs = append(packs, pack)
			}
		}
	}
	return packs
}

// RelevantPacks returns every pack usable in the room, highest priority
// first: the personal pack, then packs defined in the room itself, then
// globally enabled packs. A pack reachable through several sources appears
// once, at its first position, keyed by pack ID. room may be nil for
// contexts outside any room.
func (r *Resolver) RelevantPacks(room Room) []*ImagePack {
	var all []*ImagePack
	if pack := r.UserPack(); pack != nil {
		all = append(all, pack)
	}
	all = append(all, r.PacksInRoom(room)...)
	all = append(all, r.GlobalPacks()...)

	seen := make(map[id.EventID]struct{}, len(all))
	packs := make([]*ImagePack, 0, len(all))
	for _, pack := range all {
		if _, dup := seen[pack.ID]; dup {
			continue
		}
		seen[pack.ID] = struct{}{}
		packs = append(packs, pack)
	}
	return packs
}

// ShortcodeMap returns every shortcode usable in the room context mapped to
// its winning emoji. Standard emoji are indexed under each of their aliases
// and participate only in emoticon usage. Custom images override standard
// emoji, and higher priority packs override lower ones.
func (r *Resolver) ShortcodeMap(room Room, usage Usage) map[string]Emoji {
	packs := r.RelevantPacks(room)
	sources := make([][]Emoji, 0, len(packs)+1)
	if usage == UsageEmoticon {
		sources = append(sources, StandardEmoji())
	}
	// Lowest priority first so later writes win.
	for i := len(packs) - 1; i >= 0; i-- {
		sources = append(sources, packEmojis(packs[i], usage))
	}
	merged := make(map[string]Emoji)
	overlay(merged, emojiAliases, sources...)
	return merged
}

// CompletionList returns completion candidates for the room context:
// standard emoji in canonical order with shadowed entries removed, followed
// by custom images sorted by shortcode. Each shortcode appears exactly once.
// A standard emoji is shadowed as soon as any of its aliases collides with a
// custom shortcode, so a collision never leaves two entries answering to the
// same name.
func (r *Resolver) CompletionList(room Room, usage Usage) []Emoji {
	packs := r.RelevantPacks(room)
	sources := make([][]Emoji, 0, len(packs))
	for i := len(packs) - 1; i >= 0; i-- {
		sources = append(sources, packEmojis(packs[i], usage))
	}
	custom := make(map[string]Emoji)
	overlay(custom, emojiAliases, sources...)

	var out []Emoji
	if usage == UsageEmoticon {
		for _, std := range StandardEmoji() {
			shadowed := slices.ContainsFunc(std.Aliases, func(alias string) bool {
				_, ok := custom[alias]
				return ok
			})
			if shadowed {
				continue
			}
			out = append(out, std)
		}
	}
	for _, shortcode := range slices.Sorted(maps.Keys(custom)) {
		out = append(out, custom[shortcode])
	}
	return out
}

func emojiAliases(e Emoji) []string {
	return e.Aliases
}

// packEmojis converts a pack's images for one usage into completion entries.
func packEmojis(pack *ImagePack, usage Usage) []Emoji {
	images := pack.ImagesForUsage(usage)
	out := make([]Emoji, len(images))
	for i, img := range images {
		body := img.Body
		if body == "" {
			body = img.Shortcode
		}
		out[i] = Emoji{
			Shortcode: img.Shortcode,
			Aliases:   []string{img.Shortcode},
			URL:       img.URL,
			Body:      body,
			Pack:      pack,
		}
	}
	return out
}
