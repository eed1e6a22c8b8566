// Package tasks orchestrates playback and playlist curation on top of a [models.PlaylistStore].
//
// # Core Components
//
//  1. [Player] : Playback queue manager
//     - Owns the current track, the pending queue, and a bounded history for [Player.Previous]
//     - Notifies a [PlayerSurface] whenever the current track or play state changes
//     - Loads whole playlists through the store with [Player.PlayPlaylist]
//
//  2. [Reorder] : Track reorder engine
//     - Moves one track to a clamped target index and returns the new ordering
//
//  3. [Library] : Playlist CRUD
//     - Keeps an in-memory view of the owner's playlists consistent with the store
//     - Adds tracks local-then-remote and rolls the view back if the store write fails
//
// # Event Reporting
//
// Library operations emit [Event] values on an optional channel.
// Events use select with default so a slow reader never blocks a mutation.
package tasks
