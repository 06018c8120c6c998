// Copyright 2024-2026 Aiku AI

package emotes

import (
	"errors"
	"maps"
	"slices"

	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// Image is a single custom emoji or sticker resolved from an image pack.
type Image struct {
	Shortcode string
	URL       id.ContentURIString
	Body      string
	Info      *event.FileInfo
	Usage     []Usage
}

// AllowsUsage reports whether the image may be used in the given context.
// An image without usage restrictions is valid everywhere.
func (i Image) AllowsUsage(usage Usage) bool {
	return len(i.Usage) == 0 || slices.Contains(i.Usage, usage)
}

// ImagePack is a parsed image pack event. Images are sorted by shortcode so
// iteration order is stable across syncs.
type ImagePack struct {
	// ID is the identity used for deduplication: the source state event ID,
	// or the owning user's ID for account data packs.
	ID          id.EventID
	DisplayName string
	AvatarURL   id.ContentURIString
	Usage       []Usage
	Attribution string
	Images      []Image
}

// AllowsUsage reports whether the pack as a whole may be used in the given
// context. A pack without usage restrictions allows both.
func (p *ImagePack) AllowsUsage(usage Usage) bool {
	return len(p.Usage) == 0 || slices.Contains(p.Usage, usage)
}

// ImagesForUsage returns the images valid in the given context.
func (p *ImagePack) ImagesForUsage(usage Usage) []Image {
	images := make([]Image, 0, len(p.Images))
	for _, img := range p.Images {
		if img.AllowsUsage(usage) {
			images = append(images, img)
		}
	}
	return images
}

// Emoticons returns the images usable as emoji in text messages.
func (p *ImagePack) Emoticons() []Image {
	return p.ImagesForUsage(UsageEmoticon)
}

// Stickers returns the images usable as standalone stickers.
func (p *ImagePack) Stickers() []Image {
	return p.ImagesForUsage(UsageSticker)
}

// ParsePack converts an image pack event into an ImagePack. It is tolerant
// on purpose: packs are authored by other users, so malformed content yields
// an empty but usable pack rather than an error. Only a nil event yields a
// nil pack.
//
// Images without a URL are dropped. An image without its own usage list
// inherits the pack-level one. Missing display metadata falls back to the
// room the pack lives in; room may be nil for account data packs.
func ParsePack(evt *event.Event, room Room) *ImagePack {
	if evt == nil {
		return nil
	}
	content := parseImagePackContent(evt)
	pack := &ImagePack{ID: evt.ID}
	if content.Pack != nil {
		pack.DisplayName = content.Pack.DisplayName
		pack.AvatarURL = content.Pack.AvatarURL
		pack.Usage = content.Pack.Usage
		pack.Attribution = content.Pack.Attribution
	}
	if room != nil {
		if pack.DisplayName == "" {
			pack.DisplayName = room.Name()
		}
		if pack.AvatarURL == "" {
			pack.AvatarURL = room.AvatarURL()
		}
	}
	pack.Images = make([]Image, 0, len(content.Images))
	for _, shortcode := range slices.Sorted(maps.Keys(content.Images)) {
		img := content.Images[shortcode]
		if img.URL == "" {
			continue
		}
		usage := img.Usage
		if len(usage) == 0 {
			usage = pack.Usage
		}
		pack.Images = append(pack.Images, Image{
			Shortcode: shortcode,
			URL:       img.URL,
			Body:      img.Body,
			Info:      img.Info,
			Usage:     usage,
		})
	}
	return pack
}

// parseImagePackContent extracts the typed content from an event, treating
// anything unparseable as an empty pack.
func parseImagePackContent(evt *event.Event) *ImagePackEventContent {
	if err := evt.Content.ParseRaw(evt.Type); err != nil && !errors.Is(err, event.ErrContentAlreadyParsed) {
		return &ImagePackEventContent{}
	}
	content, ok := evt.Content.Parsed.(*ImagePackEventContent)
	if !ok {
		return &ImagePackEventContent{}
	}
	return content
}

// parseEmoteRoomsContent extracts the typed content from an emote_rooms
// account data event, treating anything unparseable as empty.
func parseEmoteRoomsContent(evt *event.Event) *EmoteRoomsEventContent {
	if err := evt.Content.ParseRaw(evt.Type); err != nil && !errors.Is(err, event.ErrContentAlreadyParsed) {
		return &EmoteRoomsEventContent{}
	}
	content, ok := evt.Content.Parsed.(*EmoteRoomsEventContent)
	if !ok {
		return &EmoteRoomsEventContent{}
	}
	return content
}
