package market

import (
	"context"
	"fmt"

	"github.com/keychainmdip/dex-market/internal/domain"
)

// Top-up bounds for a single credit purchase
const (
	MinCreditPurchase = 1
	MaxCreditPurchase = 1_000_000
)

// ProfileUpdate carries the editable profile fields; nil means unchanged
type ProfileUpdate struct {
	Name    *string
	Tagline *string
}

const maxProfileField = 120

// UpdateProfile edits a user's own display fields
func (e *Engine) UpdateProfile(ctx context.Context, actor domain.DID, update ProfileUpdate) (*domain.User, error) {
	if update.Name != nil && len(*update.Name) > maxProfileField {
		return nil, fmt.Errorf("name too long: %w", domain.ErrValidation)
	}
	if update.Tagline != nil && len(*update.Tagline) > maxProfileField {
		return nil, fmt.Errorf("tagline too long: %w", domain.ErrValidation)
	}

	unlock := e.locks.LockAll(actor.String())
	defer unlock()

	user, err := e.store.GetUser(ctx, actor)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Tagline != nil {
		user.Tagline = *update.Tagline
	}

	if err := e.store.PutUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetPFP stores an uploaded image and makes it the user's profile picture
func (e *Engine) SetPFP(ctx context.Context, actor domain.DID, data []byte) (*domain.User, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image: %w", domain.ErrValidation)
	}

	unlock := e.locks.LockAll(actor.String())
	defer unlock()

	user, err := e.store.GetUser(ctx, actor)
	if err != nil {
		return nil, err
	}

	_, info, err := e.km.CreateImage(ctx, data)
	if err != nil {
		return nil, err
	}
	user.PFP = info

	if err := e.store.PutUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AddCredits tops up a user's balance. Users may top up themselves; topping
// up anyone else requires admin capability.
func (e *Engine) AddCredits(ctx context.Context, actor, target domain.DID, amount int64) (*domain.User, error) {
	if amount < MinCreditPurchase || amount > MaxCreditPurchase {
		return nil, fmt.Errorf("amount %d out of range [%d, %d]: %w",
			amount, MinCreditPurchase, MaxCreditPurchase, domain.ErrValidation)
	}

	if actor != target {
		actorUser, err := e.store.GetUser(ctx, actor)
		if err != nil {
			return nil, err
		}
		if !e.policy.IsAdmin(actorUser) {
			return nil, fmt.Errorf("admin required to grant credits: %w", domain.ErrForbidden)
		}
	}

	unlock := e.locks.LockAll(target.String())
	defer unlock()

	user, err := e.store.GetUser(ctx, target)
	if err != nil {
		return nil, err
	}

	recordTx(user, e.clock.Now(), domain.TxCreditPurchase, amount, "")

	if err := e.store.PutUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetRole assigns a role to a user. Admin-only; the Owner role can be
// neither granted nor taken away.
func (e *Engine) SetRole(ctx context.Context, actor, target domain.DID, role domain.Role) (*domain.User, error) {
	if !role.IsAssignable() {
		return nil, fmt.Errorf("role %q is not assignable: %w", role, domain.ErrValidation)
	}

	actorUser, err := e.store.GetUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !e.policy.IsAdmin(actorUser) {
		return nil, fmt.Errorf("admin required to assign roles: %w", domain.ErrForbidden)
	}

	unlock := e.locks.LockAll(target.String())
	defer unlock()

	user, err := e.store.GetUser(ctx, target)
	if err != nil {
		return nil, err
	}
	if user.Role == domain.RoleOwner || e.policy.IsOwner(user.DID) {
		return nil, fmt.Errorf("the owner's role is immutable: %w", domain.ErrForbidden)
	}

	user.Role = role

	if err := e.store.PutUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
