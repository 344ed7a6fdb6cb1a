package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/keychainmdip/dex-market/internal/domain"
)

// Login records a successful challenge/response login for a DID. On first
// login it creates the user record: role from the access policy, starting
// credits from settings (with a matching ledger entry) and a default
// collection.
func (e *Engine) Login(ctx context.Context, did domain.DID) (*domain.User, error) {
	if !did.Valid() {
		return nil, fmt.Errorf("invalid user DID %q: %w", did, domain.ErrValidation)
	}

	unlock := e.locks.LockAll(did.String())
	defer unlock()

	now := e.clock.Now()

	user, err := e.store.GetUser(ctx, did)
	switch {
	case err == nil:
		user.LastLogin = now
		user.Logins++
	case errors.Is(err, domain.ErrNotFound):
		user, err = e.createUser(ctx, did)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := e.store.PutUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (e *Engine) createUser(ctx context.Context, did domain.DID) (*domain.User, error) {
	settings, err := e.settings(ctx)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	collection, err := e.km.CreateAsset(ctx, collectionAsset(&domain.CollectionDoc{
		Name:    defaultCollectionName,
		Owner:   did,
		Created: now,
	}))
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		DID:         did,
		Role:        e.policy.RoleFor(did),
		FirstLogin:  now,
		LastLogin:   now,
		Logins:      1,
		Collections: []domain.DID{collection},
	}
	if settings.StartingCredits > 0 {
		recordTx(user, now, domain.TxCreditPurchase, settings.StartingCredits, "")
	}
	return user, nil
}

// settings loads the settings document, seeding it on first use
func (e *Engine) settings(ctx context.Context) (*domain.Settings, error) {
	settings, err := e.store.GetSettings(ctx)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	settings = &domain.Settings{StartingCredits: e.starting}
	if err := e.store.PutSettings(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// GetUser loads a user record
func (e *Engine) GetUser(ctx context.Context, did domain.DID) (*domain.User, error) {
	return e.store.GetUser(ctx, did)
}

// ListUsers returns every user record; callers gate this behind admin checks
func (e *Engine) ListUsers(ctx context.Context) ([]domain.User, error) {
	return e.store.ListUsers(ctx)
}
