// Package resolver maps free-text (track, artist) references to catalog songs.
//
// Resolution queries a list of search-term variants in decreasing order of
// precision and accepts the first candidate that clears a fixed score
// threshold. Transport errors on individual variants are logged and treated
// as empty results so a single network blip never aborts a whole resolution.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ryecroft/amsync/internal/catalog"
	"github.com/ryecroft/amsync/internal/matching"
	"github.com/ryecroft/amsync/internal/shared"
)

// AcceptThreshold is the minimum candidate score for a Found result.
const AcceptThreshold = 0.4

// searchLimit is the number of candidates requested per query variant.
const searchLimit = 10

// Searcher performs a catalog search. Implemented by [catalog.Client].
type Searcher interface {
	Search(ctx context.Context, term string, limit int) ([]catalog.Song, error)
}

// SongCacher records resolved songs and serves them back on later
// lookups. Implemented by repositories.SongCache; a nil cacher
// disables caching. LookupSong returns (nil, nil) on a miss.
type SongCacher interface {
	LookupSong(track, artist string) (*catalog.Song, error)
	CacheSong(song catalog.Song) error
}

// Request is a caller-supplied track reference. Artist is optional.
type Request struct {
	Track  string `json:"track"`
	Artist string `json:"artist,omitempty"`
}

// Result is the outcome of resolving a single Request. Song is nil when no
// candidate cleared the acceptance threshold; Score is meaningful only when
// Song is set.
type Result struct {
	Song  *catalog.Song
	Score float64
}

// Found reports whether the resolution produced a qualifying catalog song.
func (r Result) Found() bool {
	return r.Song != nil
}

// Resolver resolves track references against a catalog Searcher.
type Resolver struct {
	search Searcher
	pacer  Pacer
	cache  SongCacher
	logger *log.Logger
}

// Opts contains configuration for creating a Resolver.
type Opts struct {
	Search Searcher
	Pacer  Pacer       // defaults to no pacing
	Cache  SongCacher  // optional
	Logger *log.Logger // defaults to a stderr logger
}

// New creates a Resolver.
func New(opts Opts) (*Resolver, error) {
	if opts.Search == nil {
		return nil, fmt.Errorf("%w: searcher is required", shared.ErrInvalidArgument)
	}
	if opts.Pacer == nil {
		opts.Pacer = NewDelayPacer(0)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Resolver{
		search: opts.Search,
		pacer:  opts.Pacer,
		cache:  opts.Cache,
		logger: opts.Logger,
	}, nil
}

// Resolve maps a Request to the best-scoring catalog song.
//
// A qualifying song already in the cache is served without touching the
// network. Otherwise variants are tried in order and the first candidate
// scoring at or above [AcceptThreshold] wins immediately; remaining
// variants are not queried. The returned error is non-nil only when the
// context is done.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Result, error) {
	if result, ok := r.cachedResult(req); ok {
		return result, nil
	}

	for _, variant := range QueryVariants(req.Track, req.Artist) {
		if err := r.pacer.Wait(ctx); err != nil {
			return Result{}, err
		}

		songs, err := r.search.Search(ctx, variant, searchLimit)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			// A failed variant is treated as an empty result set.
			r.logger.Warn("search variant failed", "variant", variant, "error", err)
			continue
		}
		if len(songs) == 0 {
			continue
		}

		best, score := bestCandidate(songs, req)
		if score >= AcceptThreshold {
			r.logger.Debug("resolved", "track", req.Track, "variant", variant, "score", score)
			r.cacheSong(*best)
			return Result{Song: best, Score: score}, nil
		}
	}

	r.logger.Debug("no qualifying match", "track", req.Track, "artist", req.Artist)
	return Result{}, nil
}

// bestCandidate scores every candidate and returns the maximum.
func bestCandidate(songs []catalog.Song, req Request) (*catalog.Song, float64) {
	var best *catalog.Song
	bestScore := -1.0

	for i := range songs {
		score := matching.Score(songs[i].Title, songs[i].Artist, req.Track, req.Artist)
		if score > bestScore {
			best = &songs[i]
			bestScore = score
		}
	}

	return best, bestScore
}

// cachedResult serves a resolution from the cache. Lookup failures and
// cached songs that no longer clear the threshold fall through to the
// network path.
func (r *Resolver) cachedResult(req Request) (Result, bool) {
	if r.cache == nil {
		return Result{}, false
	}

	song, err := r.cache.LookupSong(req.Track, req.Artist)
	if err != nil {
		r.logger.Warn("cache lookup failed", "track", req.Track, "error", err)
		return Result{}, false
	}
	if song == nil {
		return Result{}, false
	}

	score := matching.Score(song.Title, song.Artist, req.Track, req.Artist)
	if score < AcceptThreshold {
		return Result{}, false
	}

	r.logger.Debug("resolved from cache", "track", req.Track, "score", score)
	return Result{Song: song, Score: score}, true
}

func (r *Resolver) cacheSong(song catalog.Song) {
	if r.cache == nil {
		return
	}
	if err := r.cache.CacheSong(song); err != nil {
		r.logger.Warn("failed to cache resolved song", "id", song.ID, "error", err)
	}
}

// QueryVariants builds the ordered search terms for a (track, artist) pair.
//
// Normalized combined forms lead so precise queries run before looser
// single-field ones; raw forms are appended only when normalization changed
// the input. Empty and duplicate variants are dropped.
func QueryVariants(track, artist string) []string {
	normTrack := matching.Normalize(track)
	normArtist := matching.Normalize(artist)

	candidates := combinedForms(normTrack, normArtist)
	if normTrack != track || normArtist != artist {
		candidates = append(candidates, combinedForms(track, artist)...)
	}

	seen := make(map[string]bool, len(candidates))
	variants := make([]string, 0, len(candidates))
	for _, v := range candidates {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		variants = append(variants, v)
	}

	return variants
}

func combinedForms(track, artist string) []string {
	if artist == "" {
		return []string{track}
	}

	return []string{
		track + " " + artist,
		artist + " " + track,
		track,
		artist,
	}
}
