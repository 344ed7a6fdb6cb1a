package market

import (
	"context"
	"fmt"

	"github.com/keychainmdip/dex-market/internal/domain"
)

const maxCollectionName = 120

// ownedCollection loads a collection and checks the actor owns it
func (e *Engine) ownedCollection(ctx context.Context, actor, did domain.DID) (*domain.CollectionDoc, error) {
	collection, err := e.resolveCollection(ctx, did)
	if err != nil {
		return nil, err
	}
	if collection.Owner != actor {
		return nil, fmt.Errorf("%s does not own collection %s: %w", actor, did, domain.ErrForbidden)
	}
	return collection, nil
}

// CreateCollection creates an empty collection owned by the actor
func (e *Engine) CreateCollection(ctx context.Context, actor domain.DID, name string) (domain.DID, error) {
	if name == "" || len(name) > maxCollectionName {
		return "", fmt.Errorf("invalid collection name: %w", domain.ErrValidation)
	}

	unlock := e.locks.LockAll(actor.String())
	defer unlock()

	user, err := e.store.GetUser(ctx, actor)
	if err != nil {
		return "", err
	}

	did, err := e.km.CreateAsset(ctx, collectionAsset(&domain.CollectionDoc{
		Name:    name,
		Owner:   actor,
		Created: e.clock.Now(),
	}))
	if err != nil {
		return "", err
	}

	user.Collections = append(user.Collections, did)
	if err := e.store.PutUser(ctx, user); err != nil {
		return "", err
	}
	return did, nil
}

// RenameCollection renames a collection the actor owns
func (e *Engine) RenameCollection(ctx context.Context, actor, did domain.DID, name string) error {
	if name == "" || len(name) > maxCollectionName {
		return fmt.Errorf("invalid collection name: %w", domain.ErrValidation)
	}

	unlock := e.locks.LockAll(did.String())
	defer unlock()

	collection, err := e.ownedCollection(ctx, actor, did)
	if err != nil {
		return err
	}

	collection.Name = name
	return e.km.UpdateAsset(ctx, did, collectionAsset(collection))
}

// RemoveCollection removes an empty collection from the actor's index. The
// collection document itself stays behind its DID; only the marketplace
// forgets it.
func (e *Engine) RemoveCollection(ctx context.Context, actor, did domain.DID) error {
	unlock := e.locks.LockAll(did.String(), actor.String())
	defer unlock()

	collection, err := e.ownedCollection(ctx, actor, did)
	if err != nil {
		return err
	}
	if len(collection.Assets) > 0 {
		return fmt.Errorf("collection %s is not empty: %w", did, domain.ErrConflict)
	}

	user, err := e.store.GetUser(ctx, actor)
	if err != nil {
		return err
	}

	out := user.Collections[:0]
	for _, c := range user.Collections {
		if c != did {
			out = append(out, c)
		}
	}
	user.Collections = out

	return e.store.PutUser(ctx, user)
}

// PublishCollection toggles a collection's public visibility
func (e *Engine) PublishCollection(ctx context.Context, actor, did domain.DID, published bool) error {
	unlock := e.locks.LockAll(did.String())
	defer unlock()

	collection, err := e.ownedCollection(ctx, actor, did)
	if err != nil {
		return err
	}

	collection.Published = published
	return e.km.UpdateAsset(ctx, did, collectionAsset(collection))
}

// SortAssets reorders a collection. The new order must be a permutation of
// the current asset list.
func (e *Engine) SortAssets(ctx context.Context, actor, did domain.DID, order []domain.DID) error {
	unlock := e.locks.LockAll(did.String())
	defer unlock()

	collection, err := e.ownedCollection(ctx, actor, did)
	if err != nil {
		return err
	}

	if len(order) != len(collection.Assets) {
		return fmt.Errorf("order does not match collection contents: %w", domain.ErrValidation)
	}
	current := make(map[domain.DID]int, len(collection.Assets))
	for _, a := range collection.Assets {
		current[a]++
	}
	for _, a := range order {
		current[a]--
		if current[a] < 0 {
			return fmt.Errorf("order does not match collection contents: %w", domain.ErrValidation)
		}
	}

	collection.Assets = append([]domain.DID(nil), order...)
	return e.km.UpdateAsset(ctx, did, collectionAsset(collection))
}

// MoveAsset moves an unminted matrix between two collections the actor owns
func (e *Engine) MoveAsset(ctx context.Context, actor, matrixDID, toCollection domain.DID) error {
	// First resolve learns the source collection so the full key set can be
	// locked in one sorted acquisition
	matrix, err := e.resolveMatrix(ctx, matrixDID)
	if err != nil {
		return err
	}
	fromDID := matrix.Collection

	unlock := e.locks.LockAll(lockKeys(matrixDID, fromDID, toCollection, actor)...)
	defer unlock()

	// Re-read under the locks; a concurrent move may have won the race
	matrix, err = e.resolveMatrix(ctx, matrixDID)
	if err != nil {
		return err
	}
	if matrix.Collection != fromDID {
		return fmt.Errorf("matrix %s moved during relocation: %w", matrixDID, domain.ErrConflict)
	}
	if matrix.Owner != actor {
		return fmt.Errorf("%s does not own matrix %s: %w", actor, matrixDID, domain.ErrForbidden)
	}
	if matrix.IsMinted() {
		return fmt.Errorf("matrix %s is minted, collection membership is frozen: %w", matrixDID, domain.ErrConflict)
	}
	if matrix.Collection == toCollection {
		return nil
	}

	from, err := e.ownedCollection(ctx, actor, fromDID)
	if err != nil {
		return err
	}
	to, err := e.ownedCollection(ctx, actor, toCollection)
	if err != nil {
		return err
	}

	out := from.Assets[:0]
	for _, a := range from.Assets {
		if a != matrixDID {
			out = append(out, a)
		}
	}
	from.Assets = out
	to.Assets = append(to.Assets, matrixDID)
	matrix.Collection = toCollection

	if err := e.km.UpdateAsset(ctx, toCollection, collectionAsset(to)); err != nil {
		return err
	}
	if err := e.km.UpdateAsset(ctx, fromDID, collectionAsset(from)); err != nil {
		return err
	}
	return e.km.UpdateAsset(ctx, matrixDID, matrixAsset(matrix))
}
