package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ryecroft/amsync/internal/library"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TrackListView ViewState = iota
	ConfirmView
	SyncView
	ResultView
)

// RunFunc starts the sync, streaming progress into the given channel.
type RunFunc func(ctx context.Context, progress chan<- library.ProgressUpdate) (library.Report, error)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	playlist     string
	tracks       []library.Track
	run          RunFunc
	width        int
	height       int
	trackList    list.Model
	progressChan chan library.ProgressUpdate
	progress     library.ProgressUpdate
	report       *library.Report
	err          error
	help         help.Model
	keys         keyMap
}

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	up    key.Binding
	down  key.Binding
	enter key.Binding
	back  key.Binding
	yes   key.Binding
	no    key.Binding
	quit  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "sync"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		yes: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "yes"),
		),
		no: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "no"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.back, k.yes, k.no},
		{k.quit},
	}
}

// trackItem wraps [library.Track] to implement list.Item.
type trackItem struct {
	track library.Track
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return desc
}

type progressUpdateMsg library.ProgressUpdate

type syncCompleteMsg struct {
	report *library.Report
	err    error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, playlist string, tracks []library.Track, run RunFunc) *Model {
	items := make([]list.Item, len(tracks))
	for i, track := range tracks {
		items[i] = trackItem{track: track}
	}

	trackList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	trackList.Title = fmt.Sprintf("Sync %d tracks to '%s'", len(tracks), playlist)

	return &Model{
		ctx:       ctx,
		view:      TrackListView,
		playlist:  playlist,
		tracks:    tracks,
		run:       run,
		trackList: trackList,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case progressUpdateMsg:
		m.progress = library.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case syncCompleteMsg:
		m.report = msg.report
		m.err = msg.err
		m.view = ResultView
		return m, nil
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "n", "esc":
		m.view = TrackListView
		return m, nil
	case "y":
		m.view = SyncView
		return m, m.startSync()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == TrackListView {
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) startSync() tea.Cmd {
	m.progressChan = make(chan library.ProgressUpdate, 50)

	go func() {
		report, err := m.run(m.ctx, m.progressChan)
		m.report = &report
		m.err = err
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return syncCompleteMsg{report: m.report, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return syncCompleteMsg{report: m.report, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Sync to '%s'?", m.playlist))
	info := fmt.Sprintf("\nPlaylist: %s\nTracks: %d\n", m.playlist, len(m.tracks))

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderSync() string {
	title := styles.title.Render("Syncing Library")

	var phase string
	switch m.progress.Phase {
	case library.PhaseResolving:
		phase = fmt.Sprintf("Resolving tracks (%d/%d)", m.progress.Index, m.progress.Total)
	case library.PhaseLibraryAdd:
		phase = "Adding songs to library..."
	case library.PhaseSettling:
		phase = "Waiting for the library to catch up..."
	case library.PhasePlaylistAdd:
		phase = fmt.Sprintf("Building playlist (%d/%d)", m.progress.Index, m.progress.Total)
	default:
		phase = "Processing..."
	}

	detail := m.progress.Track
	if m.progress.Message != "" {
		detail = m.progress.Message
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, detail)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v\n\nPress q to quit", m.err))
	}

	if m.report == nil {
		return styles.err.Render("No report available\n\nPress q to quit")
	}

	title := styles.ok.Render("✓ Sync Complete!")
	info := fmt.Sprintf(
		"\nPlaylist: %s\nRequested: %d\nAdded: %d\nNot found: %d\nFailed: %d",
		m.report.Playlist,
		m.report.Requested,
		len(m.report.Added),
		len(m.report.NotFound),
		len(m.report.FailedSync),
	)

	var missing string
	if len(m.report.NotFound) > 0 || len(m.report.FailedSync) > 0 {
		missing = fmt.Sprintf("\n\n%s", styles.warn.Render("Tracks needing attention:"))
		for _, track := range m.report.NotFound {
			missing += fmt.Sprintf("\n  • %s (not in catalog)", track)
		}
		for _, failed := range m.report.FailedSync {
			missing += fmt.Sprintf("\n  • %s (%s)", failed.Track, failed.Reason)
		}
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, missing, helpView)
}
