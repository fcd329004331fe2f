package library

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ryecroft/amsync/internal/catalog"
	"github.com/ryecroft/amsync/internal/resolver"
	"github.com/ryecroft/amsync/internal/shared"
	tu "github.com/ryecroft/amsync/internal/testing"
)

// mockResolver maps track titles to scripted results.
type mockResolver struct {
	results map[string]resolver.Result
	calls   int
}

func (m *mockResolver) Resolve(ctx context.Context, req resolver.Request) (resolver.Result, error) {
	m.calls++
	if err := ctx.Err(); err != nil {
		return resolver.Result{}, err
	}
	return m.results[req.Track], nil
}

type mockLibrary struct {
	added [][]string
	err   error
}

func (m *mockLibrary) AddToLibrary(ctx context.Context, ids []string) error {
	m.added = append(m.added, ids)
	return m.err
}

// mockPlaylist records calls and fails the terms listed in failTerms.
type mockPlaylist struct {
	ensured   []string
	addCalls  []string
	failTerms map[string]error
	ensureErr error
}

func (m *mockPlaylist) EnsurePlaylist(ctx context.Context, name string) error {
	m.ensured = append(m.ensured, name)
	return m.ensureErr
}

func (m *mockPlaylist) AddTrackToPlaylist(ctx context.Context, playlist, term string) error {
	m.addCalls = append(m.addCalls, term)
	if err, ok := m.failTerms[term]; ok {
		return err
	}
	return nil
}

func song(id, title, artist string) catalog.Song {
	return catalog.Song{ID: id, Title: title, Artist: artist}
}

func resolved(s catalog.Song, score float64) resolver.Result {
	return resolver.Result{Song: &s, Score: score}
}

func newCoordinator(t *testing.T, opts Opts) *Coordinator {
	t.Helper()
	if opts.SettleDelay == 0 {
		opts.SettleDelay = time.Millisecond
	}
	c, err := NewCoordinator(opts)
	if err != nil {
		t.Fatalf("failed to create coordinator: %v", err)
	}
	return c
}

func TestLocalSearchTerms(t *testing.T) {
	t.Run("full metadata", func(t *testing.T) {
		got := localSearchTerms("Karma Police", "Radiohead", "OK Computer")
		want := []string{
			"Karma Police",
			"Karma Police Radiohead",
			"Radiohead Karma Police",
			"Karma Police OK Computer",
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("localSearchTerms() = %v, want %v", got, want)
		}
	})

	t.Run("missing artist and album deduplicated", func(t *testing.T) {
		got := localSearchTerms("Karma Police", "", "")
		if !reflect.DeepEqual(got, []string{"Karma Police"}) {
			t.Errorf("localSearchTerms() = %v", got)
		}
	})
}

func TestSyncBatch(t *testing.T) {
	tracks := []Track{
		{Title: "Karma Police", Artist: "Radiohead", Album: "OK Computer"},
		{Title: "Teardrop", Artist: "Massive Attack"},
		{Title: "Obscure B-Side", Artist: "Nobody"},
	}

	scripted := map[string]resolver.Result{
		"Karma Police": resolved(song("1", "Karma Police", "Radiohead"), 1.0),
		"Teardrop":     resolved(song("2", "Teardrop", "Massive Attack"), 0.8),
	}

	t.Run("full run", func(t *testing.T) {
		lib := &mockLibrary{}
		pl := &mockPlaylist{}
		c := newCoordinator(t, Opts{
			Resolver: &mockResolver{results: scripted},
			Library:  lib,
			Playlist: pl,
		})

		report, err := c.SyncBatch(context.Background(), "Road Trip", tracks)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !report.Complete() {
			t.Errorf("report does not cover every requested track: %+v", report)
		}
		if len(report.Added) != 2 {
			t.Errorf("expected 2 added, got %d", len(report.Added))
		}
		if len(report.NotFound) != 1 || report.NotFound[0].Title != "Obscure B-Side" {
			t.Errorf("expected Obscure B-Side in not found, got %v", report.NotFound)
		}
		if len(report.FailedSync) != 0 {
			t.Errorf("expected no sync failures, got %v", report.FailedSync)
		}

		if len(lib.added) != 1 || !reflect.DeepEqual(lib.added[0], []string{"1", "2"}) {
			t.Errorf("expected single bulk add of both ids, got %v", lib.added)
		}
		if len(pl.ensured) != 1 || pl.ensured[0] != "Road Trip" {
			t.Errorf("expected playlist ensured once, got %v", pl.ensured)
		}
	})

	t.Run("batch add failure fails every resolved track", func(t *testing.T) {
		lib := &mockLibrary{err: errors.New("503 service unavailable")}
		pl := &mockPlaylist{}
		c := newCoordinator(t, Opts{
			Resolver: &mockResolver{results: scripted},
			Library:  lib,
			Playlist: pl,
		})

		report, err := c.SyncBatch(context.Background(), "Road Trip", tracks)
		if !errors.Is(err, ErrBatchAdd) {
			t.Fatalf("expected ErrBatchAdd, got %v", err)
		}

		if !report.Complete() {
			t.Errorf("report must still cover every track: %+v", report)
		}
		if len(report.FailedSync) != 2 {
			t.Errorf("expected both resolved tracks in failed sync, got %v", report.FailedSync)
		}
		if len(report.Added) != 0 {
			t.Errorf("nothing must be reported added, got %v", report.Added)
		}
		if len(pl.addCalls) != 0 {
			t.Errorf("playlist must not be touched after batch failure, got %v", pl.addCalls)
		}
	})

	t.Run("playlist setup failure fails every resolved track", func(t *testing.T) {
		pl := &mockPlaylist{ensureErr: errors.New("Music app not running")}
		c := newCoordinator(t, Opts{
			Resolver: &mockResolver{results: scripted},
			Library:  &mockLibrary{},
			Playlist: pl,
		})

		report, err := c.SyncBatch(context.Background(), "Road Trip", tracks)
		if err == nil {
			t.Fatal("expected an error")
		}

		if !report.Complete() {
			t.Errorf("report must still cover every track: %+v", report)
		}
		if len(report.FailedSync) != 2 {
			t.Errorf("expected both resolved tracks in failed sync, got %v", report.FailedSync)
		}
		if len(pl.addCalls) != 0 {
			t.Errorf("no tracks must be placed, got %v", pl.addCalls)
		}
	})

	t.Run("term fallback places track on later term", func(t *testing.T) {
		pl := &mockPlaylist{failTerms: map[string]error{
			"Karma Police": shared.ErrTrackNotFound,
		}}
		c := newCoordinator(t, Opts{
			Resolver: &mockResolver{results: scripted},
			Library:  &mockLibrary{},
			Playlist: pl,
		})

		report, err := c.SyncBatch(context.Background(), "Road Trip", tracks[:1])
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(report.Added) != 1 {
			t.Fatalf("expected track added via fallback term, got %+v", report)
		}
		if len(pl.addCalls) != 2 || pl.addCalls[1] != "Karma Police Radiohead" {
			t.Errorf("expected fallback to combined term, got %v", pl.addCalls)
		}
	})

	t.Run("unplaceable track lands in failed sync with reason", func(t *testing.T) {
		pl := &mockPlaylist{failTerms: map[string]error{
			"Karma Police":             shared.ErrTrackNotFound,
			"Karma Police Radiohead":   shared.ErrTrackNotFound,
			"Radiohead Karma Police":   shared.ErrTrackNotFound,
			"Karma Police OK Computer": shared.ErrTrackNotFound,
		}}
		c := newCoordinator(t, Opts{
			Resolver: &mockResolver{results: scripted},
			Library:  &mockLibrary{},
			Playlist: pl,
		})

		report, err := c.SyncBatch(context.Background(), "Road Trip", tracks[:1])
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !report.Complete() {
			t.Errorf("report must cover the track: %+v", report)
		}
		if len(report.FailedSync) != 1 {
			t.Fatalf("expected failed sync entry, got %+v", report)
		}
		if report.FailedSync[0].Reason == "" {
			t.Error("expected a failure reason")
		}
	})

	t.Run("nothing resolved skips library and playlist", func(t *testing.T) {
		lib := &mockLibrary{}
		pl := &mockPlaylist{}
		c := newCoordinator(t, Opts{
			Resolver: &mockResolver{results: nil},
			Library:  lib,
			Playlist: pl,
		})

		report, err := c.SyncBatch(context.Background(), "Road Trip", tracks)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(report.NotFound) != 3 {
			t.Errorf("expected all tracks not found, got %+v", report)
		}
		if len(lib.added) != 0 || len(pl.ensured) != 0 {
			t.Error("expected no library or playlist activity")
		}
	})

	t.Run("cancelled context aborts resolution", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		c := newCoordinator(t, Opts{
			Resolver: &mockResolver{results: scripted},
			Library:  &mockLibrary{},
			Playlist: &mockPlaylist{},
		})

		if _, err := c.SyncBatch(ctx, "Road Trip", tracks); err == nil {
			t.Error("expected context error")
		}
	})

	t.Run("progress updates never block", func(t *testing.T) {
		updates := make(chan ProgressUpdate, 1)
		c := newCoordinator(t, Opts{
			Resolver: &mockResolver{results: scripted},
			Library:  &mockLibrary{},
			Playlist: &mockPlaylist{},
			Progress: updates,
		})

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = c.SyncBatch(context.Background(), "Road Trip", tracks)
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("sync blocked on unconsumed progress channel")
		}
	})

	t.Run("requires dependencies", func(t *testing.T) {
		if _, err := NewCoordinator(Opts{}); err == nil {
			t.Error("expected error for missing dependencies")
		}
	})

	t.Run("with real resolver over a mocked catalog", func(t *testing.T) {
		searcher := &tu.MockSearcher{Songs: []catalog.Song{
			song("1", "Karma Police", "Radiohead"),
		}}
		res, err := resolver.New(resolver.Opts{Search: searcher})
		if err != nil {
			t.Fatalf("failed to create resolver: %v", err)
		}

		lib := &mockLibrary{}
		pl := &mockPlaylist{}
		c := newCoordinator(t, Opts{Resolver: res, Library: lib, Playlist: pl})

		report, err := c.SyncBatch(context.Background(), "Road Trip", tracks[:1])
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(report.Added) != 1 || report.Added[0].Song.ID != "1" {
			t.Fatalf("expected catalog song placed, got %+v", report)
		}
		if searcher.Calls != 1 {
			t.Errorf("expected resolution to short-circuit after one search, got %d", searcher.Calls)
		}
	})
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseResolving, "resolving"},
		{PhaseLibraryAdd, "adding to library"},
		{PhaseSettling, "waiting for library"},
		{PhasePlaylistAdd, "building playlist"},
		{PhaseDone, "done"},
		{Phase(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.want)
		}
	}
}
