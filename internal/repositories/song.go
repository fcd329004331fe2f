package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ryecroft/amsync/internal/catalog"
	"github.com/ryecroft/amsync/internal/models"
	"github.com/ryecroft/amsync/internal/shared"
)

// ErrSongNotCached marks a lookup that matched no cached song.
var ErrSongNotCached = errors.New("song not cached")

// SongRepository implements [models.Repository] for [models.CachedSong] persistence.
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new [SongRepository] with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

// Create inserts a song into the cache. Re-caching a song already
// present for the storefront refreshes its metadata instead of
// inserting a duplicate.
func (r *SongRepository) Create(song *models.CachedSong) error {
	sequence, err := NextSequence(r.db, "songs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	song.SetID(id)

	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO songs (id, sequence, storefront, catalog_id, title, artist, album, duration_ms, release_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(storefront, catalog_id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			duration_ms = excluded.duration_ms,
			release_date = excluded.release_date,
			updated_at = excluded.updated_at,
			deleted_at = NULL
	`

	_, err = r.db.Exec(query, id, sequence, song.Storefront(), song.CatalogID(), song.Title(),
		song.Artist(), song.Album(), song.DurationMS(), song.ReleaseDate(), song.CreatedAt(), song.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}

	return nil
}

// Get retrieves a cached song by ID, excluding soft-deleted songs
func (r *SongRepository) Get(id string) (*models.CachedSong, error) {
	query := `
		SELECT id, sequence, storefront, catalog_id, title, artist, album, duration_ms, release_date, created_at, updated_at
		FROM songs
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanSong(r.db.QueryRow(query, id))
}

// GetByCatalogID retrieves a cached song by its storefront and catalog identifier.
func (r *SongRepository) GetByCatalogID(storefront, catalogID string) (*models.CachedSong, error) {
	query := `
		SELECT id, sequence, storefront, catalog_id, title, artist, album, duration_ms, release_date, created_at, updated_at
		FROM songs
		WHERE storefront = ? AND catalog_id = ? AND deleted_at IS NULL
	`

	return r.scanSong(r.db.QueryRow(query, storefront, catalogID))
}

// GetByTitleArtist retrieves the most recently cached song matching a
// title and artist, comparing case-insensitively. Returns
// [ErrSongNotCached] when nothing matches.
func (r *SongRepository) GetByTitleArtist(storefront, title, artist string) (*models.CachedSong, error) {
	query := `
		SELECT id, sequence, storefront, catalog_id, title, artist, album, duration_ms, release_date, created_at, updated_at
		FROM songs
		WHERE storefront = ? AND title = ? COLLATE NOCASE AND artist = ? COLLATE NOCASE AND deleted_at IS NULL
		ORDER BY updated_at DESC
		LIMIT 1
	`

	return r.scanSong(r.db.QueryRow(query, storefront, title, artist))
}

// Update modifies an existing cached song
func (r *SongRepository) Update(song *models.CachedSong) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	song.SetUpdatedAt(now)

	query := `
		UPDATE songs
		SET title = ?, artist = ?, album = ?, duration_ms = ?, release_date = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, song.Title(), song.Artist(), song.Album(), song.DurationMS(), song.ReleaseDate(), now, song.ID())
	if err != nil {
		return fmt.Errorf("failed to update song: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("song not found or already deleted: %s", song.ID())
	}

	return nil
}

// Delete soft-deletes a cached song by ID
func (r *SongRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE songs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("song not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all cached songs matching the given criteria, excluding soft-deleted songs
func (r *SongRepository) List(criteria map[string]any) ([]*models.CachedSong, error) {
	query := `
		SELECT id, sequence, storefront, catalog_id, title, artist, album, duration_ms, release_date, created_at, updated_at
		FROM songs
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if storefront, ok := criteria["storefront"].(string); ok && storefront != "" {
		query += " AND storefront = ?"
		args = append(args, storefront)
	}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ?"
		args = append(args, artist)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var songs []*models.CachedSong
	for rows.Next() {
		song, err := r.scanSong(rows)
		if err != nil {
			return nil, err
		}

		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return songs, nil
}

func (r *SongRepository) scanSong(row rowScanner) (*models.CachedSong, error) {
	var (
		id          string
		sequence    int
		storefront  string
		catalogID   string
		title       string
		artist      string
		album       string
		durationMS  int
		releaseDate string
		createdAt   time.Time
		updatedAt   time.Time
	)

	err := row.Scan(&id, &sequence, &storefront, &catalogID, &title, &artist, &album, &durationMS, &releaseDate, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrSongNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}

	song := models.NewCachedSong(sequence, storefront, catalog.Song{
		ID:          catalogID,
		Title:       title,
		Artist:      artist,
		Album:       album,
		DurationMS:  durationMS,
		ReleaseDate: releaseDate,
	})
	song.SetID(id)
	song.SetCreatedAt(createdAt)
	song.SetUpdatedAt(updatedAt)

	return song, nil
}

// SongCache adapts [SongRepository] to the resolver's cache interface,
// tagging every entry with the configured storefront.
type SongCache struct {
	repo       *SongRepository
	storefront string
}

// NewSongCache creates a cache bound to a storefront.
func NewSongCache(repo *SongRepository, storefront string) *SongCache {
	return &SongCache{repo: repo, storefront: storefront}
}

// CacheSong persists a resolved catalog song.
func (c *SongCache) CacheSong(song catalog.Song) error {
	return c.repo.Create(models.NewCachedSong(0, c.storefront, song))
}

// LookupSong retrieves a previously cached song by title and artist.
// A miss returns (nil, nil) so the resolver can fall through to a
// network search.
func (c *SongCache) LookupSong(track, artist string) (*catalog.Song, error) {
	cached, err := c.repo.GetByTitleArtist(c.storefront, track, artist)
	if errors.Is(err, ErrSongNotCached) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	song := cached.Song()
	return &song, nil
}
