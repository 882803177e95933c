// Package ui implements an interactive terminal player using bubbletea's Elm architecture.
//
// The [Model] subscribes to a playback session and re-renders on every [session.Snapshot] it receives:
//  1. [LoadingView] : Waiting for the player surface or for native playlist discovery
//  2. [PlayerView] : Queue list, now-playing line, modifiers and volume
//
// Session snapshots arrive through a one-slot channel that always holds the latest state, so a slow render
// never blocks the session. Commands issued from key bindings run as [tea.Cmd]s and report failures back
// through the Msg union type.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, space, n/p, q) with contextual help displayed via
// charmbracelet/bubbles/help.
package ui
