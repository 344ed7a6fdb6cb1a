package market

import (
	"context"

	"github.com/keychainmdip/dex-market/internal/domain"
)

// Read-side passthroughs used by the HTTP surface. They hold no locks:
// readers see whichever whole document was last replaced.

// GetAsset resolves any marketplace asset document
func (e *Engine) GetAsset(ctx context.Context, did domain.DID) (*domain.AssetDoc, error) {
	return e.km.ResolveAsset(ctx, did)
}

// GetCollection resolves a collection document
func (e *Engine) GetCollection(ctx context.Context, did domain.DID) (*domain.CollectionDoc, error) {
	return e.resolveCollection(ctx, did)
}

// GetMatrix resolves a matrix document
func (e *Engine) GetMatrix(ctx context.Context, did domain.DID) (*domain.MatrixDoc, error) {
	return e.resolveMatrix(ctx, did)
}

// GetToken resolves a token document
func (e *Engine) GetToken(ctx context.Context, did domain.DID) (*domain.TokenDoc, error) {
	return e.resolveToken(ctx, did)
}

// FetchBlob retrieves a content-addressed blob and its media type
func (e *Engine) FetchBlob(ctx context.Context, cid string) ([]byte, string, error) {
	return e.km.FetchBlob(ctx, cid)
}
