// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a single screen with three panels:
//  1. Search box : every keystroke is handed to the suggestion pipeline
//  2. Suggestions : the latest resolved suggestions for the query
//  3. Queue : the now-playing track and the pending queue
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Suggestion updates, playback renders, and library events each flow through a channel that the model drains
// one message at a time, so none of the producers ever block on rendering.
//
// [Surface] is the player surface handed to the playback queue manager.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, tab, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
