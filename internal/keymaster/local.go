package keymaster

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"sync"

	// register decoders for image dimension probing
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/gowebpki/jcs"

	"github.com/keychainmdip/dex-market/internal/domain"
)

// localClient is an in-process keymaster used for standalone demo mode and
// tests. Asset DIDs are content-addressed: the document is canonicalized
// with JCS (RFC 8785) and hashed, so identical documents resolve to stable
// identifiers across restarts. Login responses are unsigned JSON
// {challenge, responder} pairs; real verification belongs to the remote SDK.
type localClient struct {
	mu         sync.RWMutex
	assets     map[domain.DID]*domain.AssetDoc
	blobs      map[string][]byte
	blobTypes  map[string]string
	challenges map[domain.DID]bool
}

// NewLocalClient creates an in-process keymaster
func NewLocalClient() Client {
	return &localClient{
		assets:     make(map[domain.DID]*domain.AssetDoc),
		blobs:      make(map[string][]byte),
		blobTypes:  make(map[string]string),
		challenges: make(map[domain.DID]bool),
	}
}

// contentDID derives a content-addressed DID from a document
func contentDID(doc any) (domain.DID, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize document: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return domain.DID("did:local:" + hex.EncodeToString(sum[:16])), nil
}

func (c *localClient) ResolveDID(_ context.Context, did domain.DID) (json.RawMessage, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if doc, ok := c.assets[did]; ok {
		return json.Marshal(doc)
	}
	if c.challenges[did] {
		return json.Marshal(map[string]string{"did": did.String(), "type": "challenge"})
	}
	return nil, fmt.Errorf("did %s: %w", did, domain.ErrNotFound)
}

func (c *localClient) CreateAsset(_ context.Context, doc *domain.AssetDoc) (domain.DID, error) {
	if !doc.Valid() {
		return "", fmt.Errorf("malformed asset document: %w", domain.ErrValidation)
	}
	// salt the hash with a nonce so equal documents still get distinct DIDs
	did, err := contentDID(struct {
		Doc   *domain.AssetDoc `json:"doc"`
		Nonce string           `json:"nonce"`
	}{doc, uuid.NewString()})
	if err != nil {
		return "", err
	}

	cp := *doc
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assets[did] = &cp
	return did, nil
}

func (c *localClient) ResolveAsset(_ context.Context, did domain.DID) (*domain.AssetDoc, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.assets[did]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", did, domain.ErrNotFound)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var cp domain.AssetDoc
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (c *localClient) UpdateAsset(_ context.Context, did domain.DID, doc *domain.AssetDoc) error {
	if !doc.Valid() {
		return fmt.Errorf("malformed asset document: %w", domain.ErrValidation)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.assets[did]; !ok {
		return fmt.Errorf("asset %s: %w", did, domain.ErrNotFound)
	}
	cp := *doc
	c.assets[did] = &cp
	return nil
}

func (c *localClient) CloneAsset(ctx context.Context, did domain.DID) (domain.DID, error) {
	doc, err := c.ResolveAsset(ctx, did)
	if err != nil {
		return "", err
	}
	return c.CreateAsset(ctx, doc)
}

func (c *localClient) CreateImage(_ context.Context, data []byte) (domain.DID, *domain.ImageInfo, error) {
	mime := mimetype.Detect(data)

	width, height := 0, 0
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		width, height = cfg.Width, cfg.Height
	}

	sum := sha256.Sum256(data)
	cid := "cid:" + hex.EncodeToString(sum[:])

	info := &domain.ImageInfo{
		CID:    cid,
		Bytes:  int64(len(data)),
		Width:  width,
		Height: height,
		Type:   mime.String(),
	}

	did, err := contentDID(info)
	if err != nil {
		return "", nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.blobs[cid] = bytes.Clone(data)
	c.blobTypes[cid] = mime.String()
	return did, info, nil
}

func (c *localClient) FetchBlob(_ context.Context, cid string) ([]byte, string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.blobs[cid]
	if !ok {
		return nil, "", fmt.Errorf("blob %s: %w", cid, domain.ErrNotFound)
	}
	return bytes.Clone(data), c.blobTypes[cid], nil
}

func (c *localClient) CreateChallenge(_ context.Context, callback string) (*Challenge, error) {
	did := domain.DID("did:local:challenge-" + uuid.NewString())
	c.mu.Lock()
	defer c.mu.Unlock()
	c.challenges[did] = true
	return &Challenge{DID: did, URL: callback}, nil
}

func (c *localClient) VerifyResponse(_ context.Context, response string) (*VerifyResult, error) {
	var body struct {
		Challenge domain.DID `json:"challenge"`
		Responder domain.DID `json:"responder"`
	}
	if err := json.Unmarshal([]byte(response), &body); err != nil {
		return &VerifyResult{Match: false}, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.challenges[body.Challenge] || !body.Responder.Valid() {
		return &VerifyResult{Match: false}, nil
	}
	return &VerifyResult{
		Match:     true,
		Challenge: body.Challenge,
		Responder: body.Responder,
	}, nil
}
