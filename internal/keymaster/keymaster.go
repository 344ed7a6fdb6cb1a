// Package keymaster is the boundary to the external MDIP identity/asset SDK:
// DID resolution, challenge/response login, opaque asset documents and
// content-addressed blob storage. The marketplace treats it as a black box
// that is already consistent and durable.
package keymaster

import (
	"context"
	"encoding/json"

	"github.com/keychainmdip/dex-market/internal/domain"
)

// VerifyResult is the outcome of a challenge/response verification
type VerifyResult struct {
	Match     bool       `json:"match"`
	Challenge domain.DID `json:"challenge"`
	Responder domain.DID `json:"responder"`
}

// Challenge is a pending login challenge issued by the wallet
type Challenge struct {
	DID domain.DID `json:"did"`
	URL string     `json:"url"`
}

// Client defines the SDK operations the marketplace consumes
//
//go:generate mockgen -source=keymaster.go -destination=../mocks/keymaster.go -package=mocks -mock_names=Client=MockKeymaster
type Client interface {
	// ResolveDID resolves any DID to its raw document metadata
	ResolveDID(ctx context.Context, did domain.DID) (json.RawMessage, error)

	// CreateAsset stores a new asset document and returns its DID
	CreateAsset(ctx context.Context, doc *domain.AssetDoc) (domain.DID, error)
	// ResolveAsset loads the asset document behind a DID
	ResolveAsset(ctx context.Context, did domain.DID) (*domain.AssetDoc, error)
	// UpdateAsset replaces the asset document behind a DID
	UpdateAsset(ctx context.Context, did domain.DID, doc *domain.AssetDoc) error
	// CloneAsset creates a new asset referencing the original's content
	CloneAsset(ctx context.Context, did domain.DID) (domain.DID, error)

	// CreateImage stores an image blob and returns its DID and metadata
	CreateImage(ctx context.Context, data []byte) (domain.DID, *domain.ImageInfo, error)
	// FetchBlob retrieves a content-addressed blob and its media type
	FetchBlob(ctx context.Context, cid string) ([]byte, string, error)

	// CreateChallenge issues a login challenge with the given callback URL
	CreateChallenge(ctx context.Context, callback string) (*Challenge, error)
	// VerifyResponse verifies a challenge response. Transient failures are
	// retried a bounded number of times before the whole login fails.
	VerifyResponse(ctx context.Context, response string) (*VerifyResult, error)
}
