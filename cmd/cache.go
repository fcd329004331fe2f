package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/ryecroft/amsync/internal/repositories"
)

// CacheList shows songs cached by previous resolutions.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewSongRepository(db)

	if catalogID := cmd.String("catalog-id"); catalogID != "" {
		storefront := cmd.String("storefront")
		if storefront == "" {
			storefront = r.config.Credentials.AppleMusic.Storefront
		}

		song, err := repo.GetByCatalogID(storefront, catalogID)
		if err != nil {
			return err
		}

		if cmd.Bool("json") {
			return r.writeJSON(song.Song(), cmd.Bool("pretty"))
		}

		r.writePlain("%s - %s", song.Title(), song.Artist())
		if album := song.Album(); album != "" {
			r.writePlain(" (%s)", album)
		}
		r.writePlain(" [%s/%s]\n", song.Storefront(), song.CatalogID())
		return nil
	}

	criteria := map[string]any{}
	if artist := cmd.String("artist"); artist != "" {
		criteria["artist"] = artist
	}
	if storefront := cmd.String("storefront"); storefront != "" {
		criteria["storefront"] = storefront
	}

	songs, err := repo.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		catalogSongs := make([]any, len(songs))
		for i, song := range songs {
			catalogSongs[i] = song.Song()
		}
		return r.writeJSON(catalogSongs, cmd.Bool("pretty"))
	}

	if len(songs) == 0 {
		r.writePlainln("No cached songs.")
		return nil
	}

	r.writePlainHeader("Cached Songs")
	for i, song := range songs {
		r.writePlain("%d. %s - %s", i+1, song.Title(), song.Artist())
		if album := song.Album(); album != "" {
			r.writePlain(" (%s)", album)
		}
		r.writePlain(" [%s/%s]\n", song.Storefront(), song.CatalogID())
	}

	return nil
}

// CacheHistory shows recorded sync runs, newest first.
func (r *Runner) CacheHistory(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	criteria := map[string]any{}
	if playlist := cmd.String("playlist"); playlist != "" {
		criteria["playlist"] = playlist
	}

	runs, err := repositories.NewSyncRunRepository(db).List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		type runSummary struct {
			Playlist   string    `json:"playlist"`
			Requested  int       `json:"requested"`
			Added      int       `json:"added"`
			NotFound   int       `json:"not_found"`
			FailedSync int       `json:"failed_sync"`
			At         time.Time `json:"at"`
		}

		summaries := make([]runSummary, len(runs))
		for i, run := range runs {
			summaries[i] = runSummary{
				Playlist:   run.Playlist(),
				Requested:  run.Requested(),
				Added:      run.Added(),
				NotFound:   run.NotFound(),
				FailedSync: run.FailedSync(),
				At:         run.CreatedAt(),
			}
		}
		return r.writeJSON(summaries, cmd.Bool("pretty"))
	}

	if len(runs) == 0 {
		r.writePlainln("No sync runs recorded.")
		return nil
	}

	r.writePlainHeader("Sync History")
	for _, run := range runs {
		r.writePlain("%s  %-24s  %d requested, %d added, %d not found, %d failed\n",
			run.CreatedAt().Format("2006-01-02 15:04"),
			run.Playlist(), run.Requested(), run.Added(), run.NotFound(), run.FailedSync())
	}

	return nil
}

// cacheCommand inspects the local resolution cache and sync history
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect cached songs and sync history",
		Commands: []*cli.Command{
			{
				Name:  "songs",
				Usage: "List cached catalog songs",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "artist",
						Aliases: []string{"a"},
						Usage:   "Filter by artist",
					},
					&cli.StringFlag{
						Name:  "storefront",
						Usage: "Filter by storefront",
					},
					&cli.StringFlag{
						Name:  "catalog-id",
						Usage: "Show a single song by catalog identifier",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
						Value: true,
					},
				},
				Action: r.CacheList,
			},
			{
				Name:  "history",
				Usage: "List recorded sync runs",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "playlist",
						Aliases: []string{"p"},
						Usage:   "Filter by playlist name",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
						Value: true,
					},
				},
				Action: r.CacheHistory,
			},
		},
	}
}
