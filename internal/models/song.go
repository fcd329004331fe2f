package models

import (
	"fmt"

	"github.com/ryecroft/amsync/internal/catalog"
	"github.com/ryecroft/amsync/internal/shared"
)

// CachedSong is a catalog song persisted after resolution so repeat
// lookups skip the network.
type CachedSong struct {
	base
	storefront  string
	catalogID   string
	title       string
	artist      string
	album       string
	durationMS  int
	releaseDate string
}

// NewCachedSong creates a cache entry from a catalog song.
func NewCachedSong(sequence int, storefront string, song catalog.Song) *CachedSong {
	return &CachedSong{
		base:        newBase(sequence),
		storefront:  storefront,
		catalogID:   song.ID,
		title:       song.Title,
		artist:      song.Artist,
		album:       song.Album,
		durationMS:  song.DurationMS,
		releaseDate: song.ReleaseDate,
	}
}

func (s *CachedSong) Storefront() string  { return s.storefront }
func (s *CachedSong) CatalogID() string   { return s.catalogID }
func (s *CachedSong) Title() string       { return s.title }
func (s *CachedSong) Artist() string      { return s.artist }
func (s *CachedSong) Album() string       { return s.album }
func (s *CachedSong) DurationMS() int     { return s.durationMS }
func (s *CachedSong) ReleaseDate() string { return s.releaseDate }

// Song converts the cache entry back to its catalog form.
func (s *CachedSong) Song() catalog.Song {
	return catalog.Song{
		ID:          s.catalogID,
		Title:       s.title,
		Artist:      s.artist,
		Album:       s.album,
		DurationMS:  s.durationMS,
		ReleaseDate: s.releaseDate,
	}
}

// Validate checks the fields required to look the song up again.
func (s *CachedSong) Validate() error {
	if s.catalogID == "" {
		return fmt.Errorf("%w: catalog id is required", shared.ErrInvalidInput)
	}

	if s.title == "" {
		return fmt.Errorf("%w: title is required", shared.ErrInvalidInput)
	}

	if s.storefront == "" {
		return fmt.Errorf("%w: storefront is required", shared.ErrInvalidInput)
	}

	return nil
}
