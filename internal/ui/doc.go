// Package ui implements an interactive terminal interface for running the rotation using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [RotationView] : The singers in rotation order with their estimated wait and next song
//  2. [QueueView] : One singer's queue, with played flags and key changes
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Rotation changes arrive on the session's notification channel, and auto-advance events arrive on the controller's
// event channel. Countdown callbacks are dispatched onto the update loop with [tea.Program.Send], and the "Up next"
// alert is redrawn every second while an advance is pending.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
// There is no media player attached, so playback signals are simulated with p (playing) and e (end of song).
package ui
