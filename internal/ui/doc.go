// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a short workflow for library sync:
//  1. [TrackListView] : Review the tracks about to be synced
//  2. [ConfirmView] : Confirm the sync operation
//  3. [SyncView] : Monitor real-time progress updates
//  4. [ResultView] : Display the outcome report
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the sync coordinator, providing non-blocking status reporting.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
