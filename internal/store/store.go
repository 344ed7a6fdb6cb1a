// Package store holds the marketplace ledger: one document per user plus a
// process-wide settings document. The backing store only supports loading and
// replacing whole documents, so every mutation is a read-modify-write of a
// full record and callers must serialize access per key (see KeyMutex).
package store

import (
	"context"

	"github.com/keychainmdip/dex-market/internal/domain"
)

// Store defines whole-document ledger operations. Implementations return
// domain.ErrNotFound (wrapped) when a requested document does not exist, and
// deep copies so callers never share state with the store.
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// GetUser loads a user document by DID
	GetUser(ctx context.Context, did domain.DID) (*domain.User, error)
	// PutUser replaces a user document
	PutUser(ctx context.Context, user *domain.User) error
	// PutUsers replaces several user documents atomically; either every
	// document is written or none is
	PutUsers(ctx context.Context, users []*domain.User) error
	// ListUsers returns all user documents
	ListUsers(ctx context.Context) ([]domain.User, error)
	// GetSettings loads the process-wide settings document
	GetSettings(ctx context.Context) (*domain.Settings, error)
	// PutSettings replaces the settings document
	PutSettings(ctx context.Context, settings *domain.Settings) error
}
