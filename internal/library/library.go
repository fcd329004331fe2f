// Package library coordinates the multi-step sync of tracks into the
// user's library and a named playlist.
package library

import (
	"errors"
	"fmt"

	"github.com/ryecroft/amsync/internal/catalog"
)

// ErrBatchAdd reports that the bulk library add failed. The failure is
// batch-scoped: every resolved track in the batch shares it.
var ErrBatchAdd = errors.New("library batch add failed")

// Track is one sync request item.
type Track struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album,omitempty"`
}

func (t Track) String() string {
	if t.Artist == "" {
		return t.Title
	}
	return fmt.Sprintf("%s – %s", t.Title, t.Artist)
}

// ResolvedTrack pairs a request with the catalog song it resolved to.
type ResolvedTrack struct {
	Track Track        `json:"track"`
	Song  catalog.Song `json:"song"`
	Score float64      `json:"score"`
}

// FailedTrack is a resolved track that could not be placed in the
// playlist, with the reason it failed.
type FailedTrack struct {
	Track  Track        `json:"track"`
	Song   catalog.Song `json:"song"`
	Reason string       `json:"reason"`
}

// Report is the outcome of one sync run. Added, NotFound and
// FailedSync are disjoint and together cover every requested track.
type Report struct {
	Playlist   string          `json:"playlist"`
	Requested  int             `json:"requested"`
	Added      []ResolvedTrack `json:"added"`
	NotFound   []Track         `json:"not_found"`
	FailedSync []FailedTrack   `json:"failed_sync"`
}

// Complete reports whether every requested track was accounted for.
func (r Report) Complete() bool {
	return len(r.Added)+len(r.NotFound)+len(r.FailedSync) == r.Requested
}
