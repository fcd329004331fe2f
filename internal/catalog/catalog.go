// package catalog implements a client for the Apple Music API.
//
// Response types are based on https://developer.apple.com/documentation/applemusicapi
package catalog

import (
	"errors"
	"fmt"
)

// ErrSongNotFound indicates a point lookup for an unknown catalog ID.
//
// A 404 on a song lookup is a normal negative result, not a remote failure.
var ErrSongNotFound = errors.New("song not found in catalog")

// RemoteError represents a non-2xx HTTP outcome from the Apple Music API.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("apple music API error: status %d: %s", e.StatusCode, e.Body)
}

// Song is an immutable catalog item. Every Song produced by the client has a
// non-empty ID; entries without one are dropped during decoding.
type Song struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Artist      string   `json:"artist"`
	Album       string   `json:"album"`
	DurationMS  int      `json:"duration_ms"`
	ReleaseDate string   `json:"release_date,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	PreviewURL  string   `json:"preview_url,omitempty"`
}

// songAttributes mirrors the attributes object of a catalog song resource.
type songAttributes struct {
	Name             string   `json:"name"`
	ArtistName       string   `json:"artistName"`
	AlbumName        string   `json:"albumName"`
	DurationInMillis int      `json:"durationInMillis"`
	ReleaseDate      string   `json:"releaseDate"`
	GenreNames       []string `json:"genreNames"`
	Previews         []struct {
		URL string `json:"url"`
	} `json:"previews"`
}

// songResource mirrors a catalog song resource object.
type songResource struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Attributes songAttributes `json:"attributes"`
}

// searchResponse mirrors the body of GET /v1/catalog/{storefront}/search.
type searchResponse struct {
	Results struct {
		Songs *struct {
			Data []songResource `json:"data"`
		} `json:"songs"`
	} `json:"results"`
}

// songsResponse mirrors the body of GET /v1/catalog/{storefront}/songs/{id}.
type songsResponse struct {
	Data []songResource `json:"data"`
}

// toSong converts a wire resource into a Song.
func (r songResource) toSong() Song {
	s := Song{
		ID:          r.ID,
		Title:       r.Attributes.Name,
		Artist:      r.Attributes.ArtistName,
		Album:       r.Attributes.AlbumName,
		DurationMS:  r.Attributes.DurationInMillis,
		ReleaseDate: r.Attributes.ReleaseDate,
		Genres:      r.Attributes.GenreNames,
	}

	if len(r.Attributes.Previews) > 0 {
		s.PreviewURL = r.Attributes.Previews[0].URL
	}

	return s
}

// collectSongs converts wire resources, dropping any entry with an empty ID.
func collectSongs(resources []songResource) []Song {
	songs := make([]Song, 0, len(resources))
	for _, r := range resources {
		if r.ID == "" {
			continue
		}
		songs = append(songs, r.toSong())
	}
	return songs
}
