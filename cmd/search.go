package main

import (
	"context"
	"fmt"

	"github.com/ryecroft/amsync/internal/repositories"
	"github.com/ryecroft/amsync/internal/resolver"
	"github.com/ryecroft/amsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search queries the catalog and prints the raw candidate list.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	term := cmd.StringArg("term")
	if term == "" {
		return fmt.Errorf("%w: search term", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		r.logger.Debug("database unavailable, using config credentials only", "error", err)
		db = nil
	}
	if db != nil {
		defer db.Close()
	}

	client := r.catalogClient(db)

	songs, err := client.Search(ctx, term, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}

	if len(songs) == 0 {
		r.writePlain("No results for %q\n", term)
		return nil
	}

	r.writePlain("Results for %q (%s storefront):\n", term, client.Storefront())
	for i, song := range songs {
		r.writePlain("  %d. %s - %s", i+1, song.Artist, song.Title)
		if song.Album != "" {
			r.writePlain(" (%s)", song.Album)
		}
		r.writePlain(" [%s]\n", song.ID)
	}

	return nil
}

// Resolve finds the best catalog match for a track and prints it with
// its match score.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	track := cmd.String("track")
	artist := cmd.String("artist")

	db, err := r.openDatabase()
	if err != nil {
		r.logger.Debug("database unavailable, resolving without cache", "error", err)
		db = nil
	}
	if db != nil {
		defer db.Close()
	}

	client := r.catalogClient(db)

	opts := resolver.Opts{
		Search: client,
		Pacer:  r.searchPacer(),
		Logger: r.logger,
	}
	if db != nil {
		opts.Cache = repositories.NewSongCache(repositories.NewSongRepository(db), client.Storefront())
	}

	res, err := resolver.New(opts)
	if err != nil {
		return err
	}

	result, err := res.Resolve(ctx, resolver.Request{Track: track, Artist: artist})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	if !result.Found() {
		r.writePlain("No match for %s", track)
		if artist != "" {
			r.writePlain(" by %s", artist)
		}
		r.writePlain("\n")
		return nil
	}

	song := result.Song
	r.writePlain("✓ %s - %s", song.Artist, song.Title)
	if song.Album != "" {
		r.writePlain(" (%s)", song.Album)
	}
	r.writePlain("\n  catalog id: %s, score: %.2f\n", song.ID, result.Score)

	return nil
}

// searchCommand queries the catalog directly
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the Apple Music catalog for songs",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "term",
			},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
				Value: 10,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Search,
	}
}

// resolveCommand finds the best catalog match for a single track
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Find the best catalog match for a track",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "track",
				Aliases:  []string{"t"},
				Usage:    "Track title",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "artist",
				Aliases: []string{"a"},
				Usage:   "Artist name",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Resolve,
	}
}
