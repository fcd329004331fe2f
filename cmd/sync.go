package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/ryecroft/amsync/internal/catalog"
	"github.com/ryecroft/amsync/internal/formatter"
	"github.com/ryecroft/amsync/internal/library"
	"github.com/ryecroft/amsync/internal/matching"
	"github.com/ryecroft/amsync/internal/repositories"
	"github.com/ryecroft/amsync/internal/resolver"
	"github.com/ryecroft/amsync/internal/shared"
	"github.com/ryecroft/amsync/internal/ui"
)

// SyncRun resolves the tracks in the input file and syncs them into the
// named playlist.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	playlist := cmd.String("playlist")
	inputPath := cmd.String("file")
	reportPath := cmd.String("report")

	tracks, err := parseTracksFile(inputPath)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return fmt.Errorf("%w: no tracks found in %s", shared.ErrInvalidInput, inputPath)
	}

	seen := make(map[string]bool, len(tracks))
	for _, track := range tracks {
		key := matching.NormalizeTrackKey(track.Title, track.Artist)
		if seen[key] {
			r.logger.Warn("duplicate track in input", "track", track.String())
		}
		seen[key] = true
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	client := r.catalogClient(db)

	res, err := resolver.New(resolver.Opts{
		Search: client,
		Pacer:  r.searchPacer(),
		Cache:  repositories.NewSongCache(repositories.NewSongRepository(db), client.Storefront()),
		Logger: r.logger,
	})
	if err != nil {
		return err
	}

	if cmd.Bool("remote") {
		return r.syncRemote(ctx, client, res, db, playlist, tracks, reportPath)
	}

	runSync := func(ctx context.Context, progress chan<- library.ProgressUpdate) (library.Report, error) {
		coordinator, err := library.NewCoordinator(library.Opts{
			Resolver:    res,
			Library:     client,
			Playlist:    r.music,
			SettleDelay: time.Duration(r.config.Sync.SettleDelayMS) * time.Millisecond,
			Progress:    progress,
			Logger:      r.logger,
		})
		if err != nil {
			return library.Report{}, err
		}
		return coordinator.SyncBatch(ctx, playlist, tracks)
	}

	var report library.Report

	if cmd.Bool("tui") {
		// Redirect logs to file to avoid interfering with TUI rendering
		fileLogger, err := shared.NewFileLogger("./tmp/amsync-tui.log")
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		r.SetLogger(fileLogger)

		model := ui.NewModel(ctx, playlist, tracks, runSync)
		if _, err := tea.NewProgram(model).Run(); err != nil {
			return fmt.Errorf("error running TUI: %w", err)
		}

		return nil
	}

	r.writePlain("Syncing %d tracks to '%s'...\n\n", len(tracks), playlist)

	progressCh := make(chan library.ProgressUpdate, 50)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		for update := range progressCh {
			switch update.Phase {
			case library.PhaseResolving:
				r.writePlain("🔍 [%d/%d] %s\n", update.Index, update.Total, update.Track)
			case library.PhaseLibraryAdd:
				r.writePlain("\n📥 Adding %d songs to library...\n", update.Total)
			case library.PhaseSettling:
				r.writePlain("⏳ Waiting for the library to catch up...\n")
			case library.PhasePlaylistAdd:
				r.writePlain("📝 [%d/%d] %s\n", update.Index, update.Total, update.Track)
			}
		}
	}()

	report, err = runSync(ctx, progressCh)
	close(progressCh)
	<-progressDone

	// Batch-scoped failures still yield a complete report; show and
	// record it before surfacing the error.
	if err != nil && !report.Complete() {
		return err
	}

	r.printReport(report)

	if reportErr := r.finishReport(db, report, reportPath); reportErr != nil {
		if err == nil {
			return reportErr
		}
		r.logger.Warn("failed to write report", "error", reportErr)
	}

	return err
}

// syncRemote creates a catalog playlist over the API instead of driving
// the local Music application.
func (r *Runner) syncRemote(ctx context.Context, client *catalog.Client, res *resolver.Resolver, db *sql.DB, playlist string, tracks []library.Track, reportPath string) error {
	r.writePlain("Resolving %d tracks for remote playlist '%s'...\n\n", len(tracks), playlist)

	report := library.Report{Playlist: playlist, Requested: len(tracks)}
	var resolved []library.ResolvedTrack

	for i, track := range tracks {
		r.writePlain("🔍 [%d/%d] %s\n", i+1, len(tracks), track)

		result, err := res.Resolve(ctx, resolver.Request{Track: track.Title, Artist: track.Artist})
		if err != nil {
			return fmt.Errorf("resolving %q: %w", track.String(), err)
		}

		if !result.Found() {
			report.NotFound = append(report.NotFound, track)
			continue
		}

		resolved = append(resolved, library.ResolvedTrack{Track: track, Song: *result.Song, Score: result.Score})
	}

	if len(resolved) > 0 {
		ids := make([]string, len(resolved))
		for i, rt := range resolved {
			ids[i] = rt.Song.ID
		}

		playlistID, err := client.CreatePlaylist(ctx, playlist, r.config.Sync.Description, ids)
		if err != nil {
			for _, rt := range resolved {
				report.FailedSync = append(report.FailedSync, library.FailedTrack{
					Track:  rt.Track,
					Song:   rt.Song,
					Reason: fmt.Sprintf("playlist create failed: %v", err),
				})
			}
			r.printReport(report)
			if reportErr := r.finishReport(db, report, reportPath); reportErr != nil {
				r.logger.Warn("failed to write report", "error", reportErr)
			}
			return err
		}

		report.Added = resolved
		r.writePlain("\n📝 Created playlist %s (%s)\n", playlist, playlistID)
	}

	r.printReport(report)
	return r.finishReport(db, report, reportPath)
}

func (r *Runner) printReport(report library.Report) {
	r.writePlain("\n")
	r.writePlainHeader("Sync Complete!")
	r.writePlain("Playlist: %s\n", report.Playlist)
	r.writePlain("Requested: %d\n", report.Requested)
	r.writePlain("Added: %d\n", len(report.Added))
	r.writePlain("Not found: %d\n", len(report.NotFound))
	r.writePlain("Failed: %d\n", len(report.FailedSync))

	if len(report.NotFound) > 0 {
		r.writePlain("\nNot found in catalog:\n")
		for _, track := range report.NotFound {
			r.writePlain("  - %s\n", track)
		}
	}

	if len(report.FailedSync) > 0 {
		r.writePlain("\nResolved but not synced:\n")
		for _, failed := range report.FailedSync {
			r.writePlain("  - %s (%s)\n", failed.Track, failed.Reason)
		}
		r.writePlain("These tracks may still be propagating to your library; retry the sync shortly.\n")
	}
}

// finishReport records the run in the database and optionally writes a
// report file.
func (r *Runner) finishReport(db *sql.DB, report library.Report, reportPath string) error {
	runs := repositories.NewSyncRunRepository(db)
	if _, err := runs.RecordReport(report.Playlist, report.Requested, len(report.Added), len(report.NotFound), len(report.FailedSync)); err != nil {
		r.logger.Warn("failed to record sync run", "error", err)
	}

	if reportPath == "" {
		return nil
	}

	if err := formatter.WriteReport(report, reportPath); err != nil {
		return err
	}

	r.writePlain("\nReport written to %s\n", reportPath)
	return nil
}

// parseTracksFile reads the sync input: a JSON array of tracks, a CSV
// with a title/artist/album header, or plain text lines ("Artist - Title").
func parseTracksFile(path string) ([]library.Track, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: input file", shared.ErrMissingArgument)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tracks file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		var tracks []library.Track
		if err := json.Unmarshal(data, &tracks); err != nil {
			return nil, fmt.Errorf("failed to parse tracks JSON: %w", err)
		}
		return tracks, nil
	case ".csv":
		return parseTracksCSV(data)
	default:
		return parseTracksText(data), nil
	}
}

func parseTracksCSV(data []byte) ([]library.Track, error) {
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse tracks CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	titleCol, artistCol, albumCol := -1, -1, -1
	for i, col := range records[0] {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "title", "track", "name", "song":
			titleCol = i
		case "artist":
			artistCol = i
		case "album":
			albumCol = i
		}
	}
	if titleCol < 0 {
		return nil, fmt.Errorf("%w: CSV must have a title column", shared.ErrInvalidInput)
	}

	field := func(record []string, col int) string {
		if col < 0 || col >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[col])
	}

	var tracks []library.Track
	for _, record := range records[1:] {
		title := field(record, titleCol)
		if title == "" {
			continue
		}

		tracks = append(tracks, library.Track{
			Title:  title,
			Artist: field(record, artistCol),
			Album:  field(record, albumCol),
		})
	}

	return tracks, nil
}

func parseTracksText(data []byte) []library.Track {
	var tracks []library.Track

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if artist, title, found := strings.Cut(line, " - "); found {
			tracks = append(tracks, library.Track{
				Title:  strings.TrimSpace(title),
				Artist: strings.TrimSpace(artist),
			})
			continue
		}

		tracks = append(tracks, library.Track{Title: line})
	}

	return tracks
}

// syncCommand runs the full resolve-and-sync pipeline
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Resolve tracks and sync them into a playlist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "playlist",
				Aliases:  []string{"p"},
				Usage:    "Destination playlist name",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Tracks file (.json, .csv, or plain text 'Artist - Title' lines)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write a report file (.json, .md, .csv, or plain text)",
			},
			&cli.BoolFlag{
				Name:  "remote",
				Usage: "Create a playlist via the API instead of the local Music app",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Run with the interactive terminal UI",
			},
		},
		Action: r.SyncRun,
	}
}
