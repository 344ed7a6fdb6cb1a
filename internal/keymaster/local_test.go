package keymaster

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keychainmdip/dex-market/internal/domain"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestLocalAssetLifecycle(t *testing.T) {
	ctx := context.Background()
	c := NewLocalClient()

	doc := &domain.AssetDoc{
		Kind: domain.KindMatrix,
		Matrix: &domain.MatrixDoc{
			Title: "Sunrise",
			Owner: "did:mdip:alice",
			Image: domain.ImageInfo{CID: "cid:abc", Bytes: 10},
		},
	}

	did, err := c.CreateAsset(ctx, doc)
	require.NoError(t, err)
	assert.True(t, did.Valid())

	got, err := c.ResolveAsset(ctx, did)
	require.NoError(t, err)
	assert.Equal(t, "Sunrise", got.Matrix.Title)

	// resolved documents are copies
	got.Matrix.Title = "changed"
	again, err := c.ResolveAsset(ctx, did)
	require.NoError(t, err)
	assert.Equal(t, "Sunrise", again.Matrix.Title)

	got.Matrix.Title = "Sunset"
	require.NoError(t, c.UpdateAsset(ctx, did, got))
	updated, err := c.ResolveAsset(ctx, did)
	require.NoError(t, err)
	assert.Equal(t, "Sunset", updated.Matrix.Title)

	clone, err := c.CloneAsset(ctx, did)
	require.NoError(t, err)
	assert.NotEqual(t, did, clone)
	cloned, err := c.ResolveAsset(ctx, clone)
	require.NoError(t, err)
	assert.Equal(t, "Sunset", cloned.Matrix.Title)

	_, err = c.ResolveAsset(ctx, "did:local:missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocalCreateAssetRejectsMalformedDoc(t *testing.T) {
	c := NewLocalClient()
	_, err := c.CreateAsset(context.Background(), &domain.AssetDoc{Kind: domain.KindMatrix})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLocalEqualDocsGetDistinctDIDs(t *testing.T) {
	ctx := context.Background()
	c := NewLocalClient()

	doc := &domain.AssetDoc{
		Kind:       domain.KindCollection,
		Collection: &domain.CollectionDoc{Name: "Gallery", Owner: "did:mdip:alice"},
	}

	a, err := c.CreateAsset(ctx, doc)
	require.NoError(t, err)
	b, err := c.CreateAsset(ctx, doc)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestLocalCreateImage(t *testing.T) {
	ctx := context.Background()
	c := NewLocalClient()

	data := pngBytes(t, 64, 48)
	did, info, err := c.CreateImage(ctx, data)
	require.NoError(t, err)
	assert.True(t, did.Valid())
	assert.Equal(t, int64(len(data)), info.Bytes)
	assert.Equal(t, 64, info.Width)
	assert.Equal(t, 48, info.Height)
	assert.Equal(t, "image/png", info.Type)

	blob, mime, err := c.FetchBlob(ctx, info.CID)
	require.NoError(t, err)
	assert.Equal(t, data, blob)
	assert.Equal(t, "image/png", mime)

	// identical bytes hash to the identical CID
	_, info2, err := c.CreateImage(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, info.CID, info2.CID)

	_, _, err = c.FetchBlob(ctx, "cid:missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocalChallengeVerify(t *testing.T) {
	ctx := context.Background()
	c := NewLocalClient()

	challenge, err := c.CreateChallenge(ctx, "http://localhost:3000/api/login")
	require.NoError(t, err)
	assert.True(t, challenge.DID.Valid())

	response, err := json.Marshal(map[string]string{
		"challenge": challenge.DID.String(),
		"responder": "did:mdip:alice",
	})
	require.NoError(t, err)

	result, err := c.VerifyResponse(ctx, string(response))
	require.NoError(t, err)
	assert.True(t, result.Match)
	assert.Equal(t, challenge.DID, result.Challenge)
	assert.Equal(t, domain.DID("did:mdip:alice"), result.Responder)

	// unknown challenge never matches
	bogus, _ := json.Marshal(map[string]string{
		"challenge": "did:local:challenge-unknown",
		"responder": "did:mdip:alice",
	})
	result, err = c.VerifyResponse(ctx, string(bogus))
	require.NoError(t, err)
	assert.False(t, result.Match)

	// garbage input never matches
	result, err = c.VerifyResponse(ctx, "not json")
	require.NoError(t, err)
	assert.False(t, result.Match)
}
