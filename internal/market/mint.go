package market

import (
	"context"
	"fmt"

	"github.com/keychainmdip/dex-market/internal/domain"
)

// Mint turns an unminted matrix into a fixed run of token editions. The
// actor must own the matrix and cover the minting fee; the whole operation
// is all-or-nothing.
func (e *Engine) Mint(ctx context.Context, actor, matrixDID domain.DID, editions, royalty int, license domain.License) error {
	if editions < domain.MinEditions || editions > domain.MaxEditions {
		return fmt.Errorf("editions %d out of range [%d, %d]: %w",
			editions, domain.MinEditions, domain.MaxEditions, domain.ErrValidation)
	}
	if royalty < domain.MinRoyalty || royalty > domain.MaxRoyalty {
		return fmt.Errorf("royalty %d out of range [%d, %d]: %w",
			royalty, domain.MinRoyalty, domain.MaxRoyalty, domain.ErrValidation)
	}
	if !domain.IsValidLicense(license) {
		return fmt.Errorf("unknown license %q: %w", license, domain.ErrValidation)
	}

	unlock := e.locks.LockAll(matrixDID.String(), actor.String())
	defer unlock()

	matrix, err := e.resolveMatrix(ctx, matrixDID)
	if err != nil {
		return err
	}
	if matrix.Owner != actor {
		return fmt.Errorf("%s does not own matrix %s: %w", actor, matrixDID, domain.ErrForbidden)
	}
	if matrix.IsMinted() {
		return fmt.Errorf("matrix %s is already minted: %w", matrixDID, domain.ErrConflict)
	}

	user, err := e.store.GetUser(ctx, actor)
	if err != nil {
		return err
	}

	// Storage was paid at upload; minting charges per edition only
	fee := e.rates.MintingFee(editions)
	if user.Credits < fee {
		return fmt.Errorf("minting fee %d exceeds balance %d: %w", fee, user.Credits, domain.ErrInsufficientFunds)
	}

	now := e.clock.Now()
	tokens := make([]domain.DID, 0, editions)
	for i := 1; i <= editions; i++ {
		tokenDID, err := e.km.CreateAsset(ctx, tokenAsset(&domain.TokenDoc{
			Matrix:  matrixDID,
			Edition: i,
			Title:   fmt.Sprintf("%s (#%d of %d)", matrix.Title, i, editions),
			Owner:   actor,
			Price:   0,
		}))
		if err != nil {
			return err
		}
		tokens = append(tokens, tokenDID)
	}

	matrix.Minted = &domain.MintedRecord{
		Editions: editions,
		Royalty:  royalty,
		License:  license,
		Tokens:   tokens,
		History: []domain.HistoryEvent{{
			Time:  now,
			Type:  domain.EventMint,
			Actor: actor,
			Title: matrix.Title,
		}},
	}
	if err := e.km.UpdateAsset(ctx, matrixDID, matrixAsset(matrix)); err != nil {
		return err
	}

	recordTx(user, now, domain.TxMint, -fee, matrixDID)
	return e.store.PutUser(ctx, user)
}

// Unmint removes a matrix's minted record, returning it to the editable
// state. Refused while any edition is held by a third party. Token DIDs are
// decoupled, not deleted: the SDK has no delete, so they become inert.
// Minting fees are not refunded; the ledger gets a zero-delta entry.
func (e *Engine) Unmint(ctx context.Context, actor, matrixDID domain.DID) error {
	unlock := e.locks.LockAll(matrixDID.String(), actor.String())
	defer unlock()

	matrix, err := e.resolveMatrix(ctx, matrixDID)
	if err != nil {
		return err
	}
	if matrix.Owner != actor {
		return fmt.Errorf("%s does not own matrix %s: %w", actor, matrixDID, domain.ErrForbidden)
	}
	if !matrix.IsMinted() {
		return fmt.Errorf("matrix %s is not minted: %w", matrixDID, domain.ErrConflict)
	}

	for _, tokenDID := range matrix.Minted.Tokens {
		token, err := e.resolveToken(ctx, tokenDID)
		if err != nil {
			return err
		}
		if token.Owner != matrix.Owner && token.Owner != e.custodian {
			return fmt.Errorf("edition %d of %s is held by %s: %w",
				token.Edition, matrixDID, token.Owner, domain.ErrConflict)
		}
	}

	user, err := e.store.GetUser(ctx, actor)
	if err != nil {
		return err
	}

	matrix.Minted = nil
	if err := e.km.UpdateAsset(ctx, matrixDID, matrixAsset(matrix)); err != nil {
		return err
	}

	recordTx(user, e.clock.Now(), domain.TxUnmint, 0, matrixDID)
	return e.store.PutUser(ctx, user)
}
