// Copyright 2024-2026 Aiku AI

package emotes

import (
	"reflect"

	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// Event types defined by MSC2545. Image packs live in room state (one pack
// per state key, the empty key is valid) and in the user's global account
// data; the emote_rooms account data event records which room packs the user
// enabled everywhere.
var (
	StateImagePack        = event.Type{Type: "im.ponies.room_emotes", Class: event.StateEventType}
	AccountDataUserEmotes = event.Type{Type: "im.ponies.user_emotes", Class: event.AccountDataEventType}
	AccountDataEmoteRooms = event.Type{Type: "im.ponies.emote_rooms", Class: event.AccountDataEventType}
)

func init() {
	event.TypeMap[StateImagePack] = reflect.TypeOf(ImagePackEventContent{})
	event.TypeMap[AccountDataUserEmotes] = reflect.TypeOf(ImagePackEventContent{})
	event.TypeMap[AccountDataEmoteRooms] = reflect.TypeOf(EmoteRoomsEventContent{})
}

// Usage restricts where a pack or image may be used.
type Usage string

const (
	UsageEmoticon Usage = "emoticon"
	UsageSticker  Usage = "sticker"
)

// ImagePackEventContent is the wire content of im.ponies.room_emotes state
// events and im.ponies.user_emotes account data.
type ImagePackEventContent struct {
	Pack   *PackMeta            `json:"pack,omitempty"`
	Images map[string]PackImage `json:"images,omitempty"`
}

// PackMeta is the optional pack object inside an image pack event.
type PackMeta struct {
	DisplayName string              `json:"display_name,omitempty"`
	AvatarURL   id.ContentURIString `json:"avatar_url,omitempty"`
	Usage       []Usage             `json:"usage,omitempty"`
	Attribution string              `json:"attribution,omitempty"`
}

// PackImage is a single image entry keyed by shortcode in the wire format.
type PackImage struct {
	URL   id.ContentURIString `json:"url"`
	Body  string              `json:"body,omitempty"`
	Info  *event.FileInfo     `json:"info,omitempty"`
	Usage []Usage             `json:"usage,omitempty"`
}

// EmoteRoomsEventContent is the wire content of im.ponies.emote_rooms
// account data. The inner map is keyed by the state key of the enabled pack;
// the values carry no information, presence alone enables the pack.
type EmoteRoomsEventContent struct {
	Rooms map[id.RoomID]map[string]struct{} `json:"rooms,omitempty"`
}
