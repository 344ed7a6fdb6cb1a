package market

import (
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/keychainmdip/dex-market/internal/domain"
)

const defaultMatrixTitle = "Untitled"

// MaxUploadBytes bounds a single image upload
const MaxUploadBytes = 32 << 20

// Upload stores an image, creates its matrix asset inside one of the actor's
// collections and debits the storage fee. The matrix starts unminted.
func (e *Engine) Upload(ctx context.Context, actor, collection domain.DID, title string, data []byte) (domain.DID, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty upload: %w", domain.ErrValidation)
	}
	if len(data) > MaxUploadBytes {
		return "", fmt.Errorf("upload exceeds %d bytes: %w", MaxUploadBytes, domain.ErrValidation)
	}
	if mtype := mimetype.Detect(data); !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("unsupported media type %s: %w", mtype.String(), domain.ErrValidation)
	}
	if title == "" {
		title = defaultMatrixTitle
	}
	if len(title) > maxCollectionName {
		return "", fmt.Errorf("title too long: %w", domain.ErrValidation)
	}

	unlock := e.locks.LockAll(collection.String(), actor.String())
	defer unlock()

	doc, err := e.ownedCollection(ctx, actor, collection)
	if err != nil {
		return "", err
	}

	user, err := e.store.GetUser(ctx, actor)
	if err != nil {
		return "", err
	}

	fee := e.rates.StorageFee(int64(len(data)))
	if user.Credits < fee {
		return "", fmt.Errorf("storage fee %d exceeds balance %d: %w", fee, user.Credits, domain.ErrInsufficientFunds)
	}

	_, info, err := e.km.CreateImage(ctx, data)
	if err != nil {
		return "", err
	}

	matrixDID, err := e.km.CreateAsset(ctx, matrixAsset(&domain.MatrixDoc{
		Title:      title,
		Owner:      actor,
		Collection: collection,
		Image:      *info,
		Created:    e.clock.Now(),
	}))
	if err != nil {
		return "", err
	}

	doc.Assets = append(doc.Assets, matrixDID)
	if err := e.km.UpdateAsset(ctx, collection, collectionAsset(doc)); err != nil {
		return "", err
	}

	// Ledger write last: an SDK failure above leaves the balance untouched
	user.Created = append(user.Created, matrixDID)
	recordTx(user, e.clock.Now(), domain.TxUpload, -fee, matrixDID)
	if err := e.store.PutUser(ctx, user); err != nil {
		return "", err
	}
	return matrixDID, nil
}

// EditMatrix retitles an unminted matrix. Once minted the title is frozen:
// token titles were derived from it.
func (e *Engine) EditMatrix(ctx context.Context, actor, matrixDID domain.DID, title string) error {
	if title == "" || len(title) > maxCollectionName {
		return fmt.Errorf("invalid title: %w", domain.ErrValidation)
	}

	unlock := e.locks.LockAll(matrixDID.String())
	defer unlock()

	matrix, err := e.resolveMatrix(ctx, matrixDID)
	if err != nil {
		return err
	}
	if matrix.Owner != actor {
		return fmt.Errorf("%s does not own matrix %s: %w", actor, matrixDID, domain.ErrForbidden)
	}
	if matrix.IsMinted() {
		return fmt.Errorf("matrix %s is minted: %w", matrixDID, domain.ErrConflict)
	}

	matrix.Title = title
	return e.km.UpdateAsset(ctx, matrixDID, matrixAsset(matrix))
}
