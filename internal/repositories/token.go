package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ryecroft/amsync/internal/models"
	"github.com/ryecroft/amsync/internal/shared"
)

// TokenRepository implements [models.Repository] for [models.StoredToken] persistence.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new [TokenRepository] with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create inserts a new token into the database with generated ID and sequence
func (r *TokenRepository) Create(token *models.StoredToken) error {
	sequence, err := NextSequence(r.db, "tokens")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	token.SetID(id)

	if err := token.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO tokens (id, sequence, kind, value, expires_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var expiresAt any
	if !token.ExpiresAt().IsZero() {
		expiresAt = token.ExpiresAt()
	}

	_, err = r.db.Exec(query, id, sequence, token.Kind(), token.Value(), expiresAt, token.CreatedAt(), token.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert token: %w", err)
	}

	return nil
}

// Get retrieves a token by ID, excluding soft-deleted tokens
func (r *TokenRepository) Get(id string) (*models.StoredToken, error) {
	query := `
		SELECT id, sequence, kind, value, expires_at, created_at, updated_at
		FROM tokens
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanToken(r.db.QueryRow(query, id))
}

// GetByKind retrieves the active token of the given kind.
func (r *TokenRepository) GetByKind(kind string) (*models.StoredToken, error) {
	query := `
		SELECT id, sequence, kind, value, expires_at, created_at, updated_at
		FROM tokens
		WHERE kind = ? AND deleted_at IS NULL
		ORDER BY sequence DESC
		LIMIT 1
	`

	return r.scanToken(r.db.QueryRow(query, kind))
}

// Set replaces the active token of the given kind: any existing token
// is soft-deleted before the new one is inserted.
func (r *TokenRepository) Set(kind, value string, expiresAt time.Time) (*models.StoredToken, error) {
	now := time.Now()

	_, err := r.db.Exec(`UPDATE tokens SET deleted_at = ? WHERE kind = ? AND deleted_at IS NULL`, now, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to retire previous token: %w", err)
	}

	token := models.NewStoredToken(0, kind, value, expiresAt)
	if err := r.Create(token); err != nil {
		return nil, err
	}

	return token, nil
}

// Update modifies an existing token in the database
func (r *TokenRepository) Update(token *models.StoredToken) error {
	if err := token.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	token.SetUpdatedAt(now)

	var expiresAt any
	if !token.ExpiresAt().IsZero() {
		expiresAt = token.ExpiresAt()
	}

	query := `
		UPDATE tokens
		SET value = ?, expires_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, token.Value(), expiresAt, now, token.ID())
	if err != nil {
		return fmt.Errorf("failed to update token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("token not found or already deleted: %s", token.ID())
	}

	return nil
}

// Delete soft-deletes a token by ID
func (r *TokenRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE tokens
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("token not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all tokens matching the given criteria, excluding soft-deleted tokens
func (r *TokenRepository) List(criteria map[string]any) ([]*models.StoredToken, error) {
	query := `
		SELECT id, sequence, kind, value, expires_at, created_at, updated_at
		FROM tokens
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if kind, ok := criteria["kind"].(string); ok && kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*models.StoredToken
	for rows.Next() {
		token, err := r.scanToken(rows)
		if err != nil {
			return nil, err
		}

		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tokens, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *TokenRepository) scanToken(row rowScanner) (*models.StoredToken, error) {
	var (
		id        string
		sequence  int
		kind      string
		value     string
		expiresAt sql.NullTime
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(&id, &sequence, &kind, &value, &expiresAt, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("token not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan token: %w", err)
	}

	var expiry time.Time
	if expiresAt.Valid {
		expiry = expiresAt.Time
	}

	token := models.NewStoredToken(sequence, kind, value, expiry)
	token.SetID(id)
	token.SetCreatedAt(createdAt)
	token.SetUpdatedAt(updatedAt)

	return token, nil
}
