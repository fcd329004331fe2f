package models

import (
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/ryecroft/amsync/internal/shared"
)

// Token kinds stored in the credential table.
const (
	TokenKindDeveloper = "developer"
	TokenKindUser      = "user"
)

// StoredToken is a persisted API credential. Developer tokens carry an
// expiry baked into the JWT; user tokens are opaque and expire only
// when revoked, so a zero expiry means "does not expire".
type StoredToken struct {
	base
	kind      string
	value     string
	expiresAt time.Time
}

// NewStoredToken creates a token of the given kind.
func NewStoredToken(sequence int, kind, value string, expiresAt time.Time) *StoredToken {
	return &StoredToken{base: newBase(sequence), kind: kind, value: value, expiresAt: expiresAt}
}

func (t *StoredToken) Kind() string          { return t.kind }
func (t *StoredToken) Value() string         { return t.value }
func (t *StoredToken) ExpiresAt() time.Time  { return t.expiresAt }
func (t *StoredToken) SetValue(value string) { t.value = value }

func (t *StoredToken) SetExpiresAt(expiresAt time.Time) { t.expiresAt = expiresAt }

// OAuth exposes the credential as an [oauth2.Token] so expiry handling
// follows the oauth2 package's semantics.
func (t *StoredToken) OAuth() *oauth2.Token {
	return &oauth2.Token{AccessToken: t.value, Expiry: t.expiresAt}
}

// Expired reports whether the token is past its expiry.
func (t *StoredToken) Expired() bool {
	return !t.OAuth().Valid()
}

// Validate checks kind and value.
func (t *StoredToken) Validate() error {
	if t.kind != TokenKindDeveloper && t.kind != TokenKindUser {
		return fmt.Errorf("%w: unknown token kind %q", shared.ErrInvalidInput, t.kind)
	}

	if t.value == "" {
		return fmt.Errorf("%w: token value is required", shared.ErrInvalidInput)
	}

	return nil
}
