// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package emotes

import (
	"slices"
	"strings"
	"sync"

	"github.com/kyokomi/emoji/v2"
	"go.mau.fi/util/variationselector"
)

var (
	standardOnce  sync.Once
	standardTable []Emoji
)

// StandardEmoji returns the built-in Unicode emoji table in canonical order:
// sorted by primary shortcode, with the aliases of each entry sorted as
// well. The primary shortcode is the alphabetically first alias. The
// returned slice is shared; callers must not modify it.
func StandardEmoji() []Emoji {
	standardOnce.Do(buildStandardTable)
	return standardTable
}

func buildStandardTable() {
	// The reverse code map is keyed by raw Unicode sequences, and distinct
	// raw sequences can normalize to the same fully qualified emoji, so
	// aliases are merged after qualification.
	byUnicode := make(map[string][]string, len(emoji.RevCodeMap()))
	for unicode, codes := range emoji.RevCodeMap() {
		qualified := variationselector.FullyQualify(unicode)
		for _, code := range codes {
			byUnicode[qualified] = append(byUnicode[qualified], strings.Trim(code, ":"))
		}
	}

	standardTable = make([]Emoji, 0, len(byUnicode))
	for unicode, aliases := range byUnicode {
		slices.Sort(aliases)
		aliases = slices.Compact(aliases)
		standardTable = append(standardTable, Emoji{
			Shortcode: aliases[0],
			Aliases:   aliases,
			Unicode:   unicode,
		})
	}
	slices.SortFunc(standardTable, func(a, b Emoji) int {
		return strings.Compare(a.Shortcode, b.Shortcode)
	})
}
