// Copyright 2024-2026 Aiku AI

package emotes

// overlay writes each source's entries into dst under every key the entry
// answers to. Sources are applied in order, so entries from later sources
// overwrite earlier ones on key collisions. Callers pass sources lowest
// priority first.
func overlay[V any](dst map[string]V, keys func(V) []string, sources ...[]V) {
	for _, source := range sources {
		for _, entry := range source {
			for _, key := range keys(entry) {
				dst[key] = entry
			}
		}
	}
}
