// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package emotes resolves MSC2545 custom emoji and sticker packs into the
// shortcode indexes a Matrix client needs for autocompletion and message
// composition.
//
// Packs come from three sources, in priority order: the user's personal pack
// (im.ponies.user_emotes account data), packs defined in the current room
// (im.ponies.room_emotes state events, one per state key), and packs from
// other rooms the user explicitly enabled (im.ponies.emote_rooms account
// data). The same pack reached through multiple sources is counted once, at
// its highest-priority position.
//
// # Core Types
//
// [ImagePack] is a parsed pack: metadata plus its images in deterministic
// order. [ParsePack] is tolerant on purpose. Malformed events produce an
// empty but usable pack, never an error, because pack data is authored by
// other users and a broken pack must not take down the composer.
//
// [Resolver] assembles packs for a room context and merges them with the
// built-in Unicode emoji table into shortcode lookups. All reads are served
// from already-synced local state; no method on it performs I/O.
//
// [Emoji] is the unified completion entry: either a standard Unicode emoji
// or a custom image, distinguished by [Emoji.IsCustom].
//
// # Precedence
//
// When several sources define the same shortcode, the personal pack beats
// room packs, which beat globally enabled packs. Standard Unicode emoji lose
// to any custom image sharing one of their shortcode aliases.
package emotes
