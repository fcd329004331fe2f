package library

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ryecroft/amsync/internal/resolver"
	"github.com/ryecroft/amsync/internal/shared"
)

const defaultSettleDelay = 3 * time.Second

// TrackResolver maps a track request to its catalog song.
type TrackResolver interface {
	Resolve(ctx context.Context, req resolver.Request) (resolver.Result, error)
}

// LibraryAdder performs the bulk add of catalog songs to the library.
type LibraryAdder interface {
	AddToLibrary(ctx context.Context, ids []string) error
}

// PlaylistWriter places library tracks into a named playlist.
type PlaylistWriter interface {
	EnsurePlaylist(ctx context.Context, name string) error
	AddTrackToPlaylist(ctx context.Context, playlist, term string) error
}

// Coordinator runs the sync state machine: resolve every track, add
// the resolved songs to the library in one call, wait for the library
// to settle, then place each track into the playlist.
type Coordinator struct {
	resolver    TrackResolver
	library     LibraryAdder
	playlist    PlaylistWriter
	settleDelay time.Duration
	progress    chan<- ProgressUpdate
	logger      *log.Logger
}

// Opts configures a Coordinator.
type Opts struct {
	Resolver    TrackResolver
	Library     LibraryAdder
	Playlist    PlaylistWriter
	SettleDelay time.Duration
	Progress    chan<- ProgressUpdate
	Logger      *log.Logger
}

// NewCoordinator creates a sync coordinator.
func NewCoordinator(opts Opts) (*Coordinator, error) {
	if opts.Resolver == nil || opts.Library == nil || opts.Playlist == nil {
		return nil, fmt.Errorf("%w: resolver, library and playlist are required", shared.ErrInvalidArgument)
	}

	if opts.SettleDelay <= 0 {
		opts.SettleDelay = defaultSettleDelay
	}

	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Coordinator{
		resolver:    opts.Resolver,
		library:     opts.Library,
		playlist:    opts.Playlist,
		settleDelay: opts.SettleDelay,
		progress:    opts.Progress,
		logger:      opts.Logger,
	}, nil
}

// SyncBatch syncs tracks into the named playlist. The returned report
// accounts for every requested track even when the batch add fails; in
// that case the error wraps ErrBatchAdd.
func (c *Coordinator) SyncBatch(ctx context.Context, playlist string, tracks []Track) (Report, error) {
	report := Report{Playlist: playlist, Requested: len(tracks)}

	resolved, err := c.resolveAll(ctx, tracks, &report)
	if err != nil {
		return report, err
	}

	if len(resolved) == 0 {
		c.sendProgress(ProgressUpdate{Phase: PhaseDone, Total: len(tracks)})
		return report, nil
	}

	c.sendProgress(ProgressUpdate{Phase: PhaseLibraryAdd, Total: len(resolved)})

	ids := make([]string, len(resolved))
	for i, r := range resolved {
		ids[i] = r.Song.ID
	}

	if err := c.library.AddToLibrary(ctx, ids); err != nil {
		c.logger.Error("bulk library add failed", "count", len(ids), "error", err)

		for _, r := range resolved {
			report.FailedSync = append(report.FailedSync, FailedTrack{
				Track:  r.Track,
				Song:   r.Song,
				Reason: fmt.Sprintf("library add failed: %v", err),
			})
		}

		return report, fmt.Errorf("%w: %v", ErrBatchAdd, err)
	}

	c.sendProgress(ProgressUpdate{Phase: PhaseSettling})

	if err := c.settle(ctx); err != nil {
		return report, err
	}

	if err := c.playlist.EnsurePlaylist(ctx, playlist); err != nil {
		for _, r := range resolved {
			report.FailedSync = append(report.FailedSync, FailedTrack{
				Track:  r.Track,
				Song:   r.Song,
				Reason: fmt.Sprintf("playlist unavailable: %v", err),
			})
		}

		return report, fmt.Errorf("preparing playlist %q: %w", playlist, err)
	}

	c.placeAll(ctx, playlist, resolved, &report)

	c.sendProgress(ProgressUpdate{Phase: PhaseDone, Total: len(tracks)})

	c.logger.Info("sync complete",
		"playlist", playlist,
		"requested", report.Requested,
		"added", len(report.Added),
		"not_found", len(report.NotFound),
		"failed", len(report.FailedSync))

	return report, nil
}

func (c *Coordinator) resolveAll(ctx context.Context, tracks []Track, report *Report) ([]ResolvedTrack, error) {
	resolved := make([]ResolvedTrack, 0, len(tracks))

	for i, track := range tracks {
		c.sendProgress(ProgressUpdate{
			Phase: PhaseResolving,
			Index: i + 1,
			Total: len(tracks),
			Track: track.String(),
		})

		result, err := c.resolver.Resolve(ctx, resolver.Request{Track: track.Title, Artist: track.Artist})
		if err != nil {
			return nil, fmt.Errorf("resolving %q: %w", track.String(), err)
		}

		if !result.Found() {
			c.logger.Debug("no catalog match", "track", track.String())
			report.NotFound = append(report.NotFound, track)
			continue
		}

		resolved = append(resolved, ResolvedTrack{Track: track, Song: *result.Song, Score: result.Score})
	}

	return resolved, nil
}

func (c *Coordinator) placeAll(ctx context.Context, playlist string, resolved []ResolvedTrack, report *Report) {
	for i, r := range resolved {
		c.sendProgress(ProgressUpdate{
			Phase: PhasePlaylistAdd,
			Index: i + 1,
			Total: len(resolved),
			Track: r.Track.String(),
		})

		if err := c.placeTrack(ctx, playlist, r); err != nil {
			report.FailedSync = append(report.FailedSync, FailedTrack{
				Track:  r.Track,
				Song:   r.Song,
				Reason: err.Error(),
			})
			continue
		}

		report.Added = append(report.Added, r)
	}
}

// placeTrack tries each local search term until one lands the track in
// the playlist.
func (c *Coordinator) placeTrack(ctx context.Context, playlist string, r ResolvedTrack) error {
	var lastErr error

	for _, term := range localSearchTerms(r.Song.Title, r.Song.Artist, r.Song.Album) {
		err := c.playlist.AddTrackToPlaylist(ctx, playlist, term)
		if err == nil {
			return nil
		}

		lastErr = err
	}

	if lastErr == nil {
		lastErr = shared.ErrTrackNotFound
	}

	return fmt.Errorf("not placed in playlist: %w", lastErr)
}

func (c *Coordinator) settle(ctx context.Context) error {
	timer := time.NewTimer(c.settleDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// localSearchTerms builds the queries tried against the local library,
// most specific combinations first.
func localSearchTerms(title, artist, album string) []string {
	candidates := []string{
		title,
		strings.TrimSpace(title + " " + artist),
		strings.TrimSpace(artist + " " + title),
		strings.TrimSpace(title + " " + album),
	}

	seen := make(map[string]bool, len(candidates))
	terms := make([]string, 0, len(candidates))

	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}

		seen[c] = true
		terms = append(terms, c)
	}

	return terms
}
