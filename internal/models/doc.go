// Package models defines the domain entities and collaborator interfaces for ytdeck.
//
// The package contains three categories of types:
//
// 1. Catalog values copied between collections
//   - [Track] : a playable search result
//   - [SearchOptions] : tuning parameters for one search call
//
// 2. Persisted documents
//   - [Playlist] : a named, ordered list of tracks owned by a profile
//
// 3. Transient session state
//   - [PlaybackState] : now playing plus the pending queue
//   - [SearchSession] : the typeahead state of one search box
//
// [PlaylistStore] is the document-store contract implemented by the repositories package.
package models
