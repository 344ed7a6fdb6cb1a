package market

import (
	"context"
	"fmt"

	"github.com/keychainmdip/dex-market/internal/domain"
	"github.com/keychainmdip/dex-market/internal/pricing"
)

// SetPrice lists a token for sale (price > 0) or delists it (price 0). The
// matching history event is always appended, even when the price is
// unchanged.
func (e *Engine) SetPrice(ctx context.Context, actor, tokenDID domain.DID, price int64) error {
	if price < 0 {
		return fmt.Errorf("negative price: %w", domain.ErrValidation)
	}

	// The matrix back-reference is immutable, so it can be read before
	// locking to learn the full key set.
	token, err := e.resolveToken(ctx, tokenDID)
	if err != nil {
		return err
	}

	unlock := e.locks.LockAll(tokenDID.String(), token.Matrix.String())
	defer unlock()

	token, err = e.resolveToken(ctx, tokenDID)
	if err != nil {
		return err
	}
	if token.Owner != actor {
		return fmt.Errorf("%s does not own token %s: %w", actor, tokenDID, domain.ErrForbidden)
	}

	matrix, err := e.resolveMatrix(ctx, token.Matrix)
	if err != nil {
		return err
	}
	if !matrix.IsMinted() {
		return fmt.Errorf("matrix %s is not minted: %w", token.Matrix, domain.ErrConflict)
	}

	token.Price = price
	if err := e.km.UpdateAsset(ctx, tokenDID, tokenAsset(token)); err != nil {
		return err
	}

	event := domain.EventList
	if price == 0 {
		event = domain.EventDelist
	}
	matrix.Minted.History = append(matrix.Minted.History, domain.HistoryEvent{
		Time:    e.clock.Now(),
		Type:    event,
		Actor:   actor,
		Edition: token.Edition,
		Price:   price,
		Token:   tokenDID,
		Title:   token.Title,
	})
	return e.km.UpdateAsset(ctx, token.Matrix, matrixAsset(matrix))
}

// Buy transfers a listed token to the buyer. Credits are conserved: the
// buyer pays the list price, the creator receives the royalty cut and the
// seller the remainder. Every validation runs before any write; the ledger
// update for all parties is a single batched store write at the end.
func (e *Engine) Buy(ctx context.Context, buyer, tokenDID domain.DID) error {
	// First resolve learns the parties so the full key set can be locked
	token, err := e.resolveToken(ctx, tokenDID)
	if err != nil {
		return err
	}
	matrix, err := e.resolveMatrix(ctx, token.Matrix)
	if err != nil {
		return err
	}

	seller := token.Owner
	creator := matrix.Owner

	unlock := e.locks.LockAll(lockKeys(tokenDID, token.Matrix, buyer, seller, creator)...)
	defer unlock()

	// Re-read under the locks; a concurrent sale may have won the race
	token, err = e.resolveToken(ctx, tokenDID)
	if err != nil {
		return err
	}
	matrix, err = e.resolveMatrix(ctx, token.Matrix)
	if err != nil {
		return err
	}
	if token.Owner != seller || matrix.Owner != creator {
		return fmt.Errorf("token %s changed hands during purchase: %w", tokenDID, domain.ErrConflict)
	}
	if !matrix.IsMinted() {
		return fmt.Errorf("matrix %s is not minted: %w", token.Matrix, domain.ErrConflict)
	}
	if buyer == seller {
		return fmt.Errorf("cannot buy your own token: %w", domain.ErrConflict)
	}
	price := token.Price
	if price <= 0 {
		return fmt.Errorf("token %s is not for sale: %w", tokenDID, domain.ErrValidation)
	}

	// The creator may coincide with the buyer (a buy-back); load each
	// party once so their ledger entries land on the same document
	loaded := make(map[domain.DID]*domain.User, 3)
	var batch []*domain.User
	load := func(did domain.DID) (*domain.User, error) {
		if u, ok := loaded[did]; ok {
			return u, nil
		}
		u, err := e.store.GetUser(ctx, did)
		if err != nil {
			return nil, err
		}
		loaded[did] = u
		batch = append(batch, u)
		return u, nil
	}

	buyerUser, err := load(buyer)
	if err != nil {
		return err
	}
	sellerUser, err := load(seller)
	if err != nil {
		return err
	}
	if buyerUser.Credits < price {
		return fmt.Errorf("price %d exceeds balance %d: %w", price, buyerUser.Credits, domain.ErrInsufficientFunds)
	}

	royalty := int64(0)
	var creatorUser *domain.User
	if creator != seller {
		creatorUser, err = load(creator)
		if err != nil {
			return err
		}
		royalty = pricing.RoyaltyCut(matrix.Minted.Royalty, price)
	}

	// SDK writes first: ownership transfer, then audit history
	now := e.clock.Now()
	token.Owner = buyer
	token.Price = 0
	if err := e.km.UpdateAsset(ctx, tokenDID, tokenAsset(token)); err != nil {
		return err
	}

	matrix.Minted.History = append(matrix.Minted.History, domain.HistoryEvent{
		Time:    now,
		Type:    domain.EventSale,
		Actor:   buyer,
		Edition: token.Edition,
		Price:   price,
		Seller:  seller,
		Token:   tokenDID,
		Title:   token.Title,
	})
	if err := e.km.UpdateAsset(ctx, token.Matrix, matrixAsset(matrix)); err != nil {
		return err
	}

	// Ledger last, all parties in one batch
	recordTx(buyerUser, now, domain.TxBuy, -price, tokenDID)
	if buyer != creator {
		buyerUser.Collected = append(buyerUser.Collected, tokenDID)
	}
	recordTx(sellerUser, now, domain.TxSale, price-royalty, tokenDID)
	sellerUser.DropCollected(tokenDID)

	if creatorUser != nil && royalty > 0 {
		recordTx(creatorUser, now, domain.TxRoyalty, royalty, tokenDID)
	}
	if err := e.store.PutUsers(ctx, batch); err != nil {
		return err
	}

	e.notify(
		[]domain.DID{seller},
		[]domain.DID{buyer, creator},
		"Edition sold",
		fmt.Sprintf("%s sold to %s for %d credits", token.Title, buyer, price),
	)
	return nil
}
