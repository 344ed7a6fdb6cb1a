package market

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keychainmdip/dex-market/internal/domain"
)

func TestMint(t *testing.T) {
	f := newFixture(t)
	f.login(aliceDID)
	matrixDID := f.upload(aliceDID, "Sunrise")
	before := f.user(aliceDID).Credits

	require.NoError(t, f.engine.Mint(f.ctx, aliceDID, matrixDID, 3, 10, "CC BY"))

	// Minting three editions at the default rate costs exactly 300
	after := f.user(aliceDID)
	assert.Equal(t, before-300, after.Credits)
	replayLedger(t, after)
	last := after.History[len(after.History)-1]
	assert.Equal(t, domain.TxMint, last.Type)
	assert.Equal(t, int64(-300), last.Amount)
	assert.Equal(t, matrixDID, last.Asset)

	matrix := f.matrix(matrixDID)
	require.True(t, matrix.IsMinted())
	assert.Equal(t, 3, matrix.Minted.Editions)
	assert.Equal(t, 10, matrix.Minted.Royalty)
	assert.Equal(t, domain.License("CC BY"), matrix.Minted.License)
	require.Len(t, matrix.Minted.Tokens, 3)
	require.Len(t, matrix.Minted.History, 1)
	assert.Equal(t, domain.EventMint, matrix.Minted.History[0].Type)

	for i, tokenDID := range matrix.Minted.Tokens {
		token := f.token(tokenDID)
		assert.Equal(t, i+1, token.Edition)
		assert.Equal(t, fmt.Sprintf("Sunrise (#%d of 3)", i+1), token.Title)
		assert.Equal(t, aliceDID, token.Owner)
		assert.Zero(t, token.Price)
		assert.Equal(t, matrixDID, token.Matrix)
	}
}

func TestMintBounds(t *testing.T) {
	f := newFixture(t)
	f.login(aliceDID)

	tests := []struct {
		name     string
		editions int
		royalty  int
		license  domain.License
		wantErr  error
	}{
		{name: "one edition", editions: 1, royalty: 0, license: "CC0"},
		{name: "max editions", editions: 100, royalty: 25, license: "CC0"},
		{name: "zero editions", editions: 0, royalty: 10, license: "CC0", wantErr: domain.ErrValidation},
		{name: "too many editions", editions: 101, royalty: 10, license: "CC0", wantErr: domain.ErrValidation},
		{name: "negative royalty", editions: 1, royalty: -1, license: "CC0", wantErr: domain.ErrValidation},
		{name: "royalty too high", editions: 1, royalty: 26, license: "CC0", wantErr: domain.ErrValidation},
		{name: "unknown license", editions: 1, royalty: 10, license: "WTFPL", wantErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Max editions costs 10000; fund the account enough for any row
			if f.user(aliceDID).Credits < 10_000 {
				_, err := f.engine.AddCredits(f.ctx, aliceDID, aliceDID, 20_000)
				require.NoError(t, err)
			}
			matrixDID := f.upload(aliceDID, "Bounds")

			err := f.engine.Mint(f.ctx, aliceDID, matrixDID, tt.editions, tt.royalty, tt.license)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.False(t, f.matrix(matrixDID).IsMinted())
				return
			}
			require.NoError(t, err)
			assert.True(t, f.matrix(matrixDID).IsMinted())
		})
	}
}

func TestMintInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	f.login(aliceDID)
	matrixDID := f.upload(aliceDID, "Pricey")
	before := f.user(aliceDID)

	// 100 editions cost 10000, far above the starting balance
	err := f.engine.Mint(f.ctx, aliceDID, matrixDID, 100, 0, "CC0")
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// No side effects at all
	after := f.user(aliceDID)
	assert.Equal(t, before.Credits, after.Credits)
	assert.Len(t, after.History, len(before.History))
	assert.False(t, f.matrix(matrixDID).IsMinted())
}

func TestMintAuthorization(t *testing.T) {
	f := newFixture(t)
	f.login(aliceDID)
	f.login(bobDID)
	matrixDID := f.upload(aliceDID, "Mine")

	err := f.engine.Mint(f.ctx, bobDID, matrixDID, 1, 0, "CC0")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.False(t, f.matrix(matrixDID).IsMinted())
}

func TestMintAlreadyMinted(t *testing.T) {
	f := newFixture(t)
	f.login(aliceDID)
	matrixDID := f.mintedMatrix(aliceDID, "Twice", 1, 0)

	err := f.engine.Mint(f.ctx, aliceDID, matrixDID, 2, 0, "CC0")
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 1, f.matrix(matrixDID).Minted.Editions)
}

func TestUnmintRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.login(aliceDID)
	matrixDID := f.mintedMatrix(aliceDID, "Cycle", 2, 5)
	before := f.user(aliceDID)

	require.NoError(t, f.engine.Unmint(f.ctx, aliceDID, matrixDID))

	matrix := f.matrix(matrixDID)
	assert.False(t, matrix.IsMinted())

	// No refund, but the ledger records the event with a zero delta
	after := f.user(aliceDID)
	assert.Equal(t, before.Credits, after.Credits)
	last := after.History[len(after.History)-1]
	assert.Equal(t, domain.TxUnmint, last.Type)
	assert.Zero(t, last.Amount)
	replayLedger(t, after)

	// The matrix is editable and mintable again
	require.NoError(t, f.engine.EditMatrix(f.ctx, aliceDID, matrixDID, "Cycle II"))
	require.NoError(t, f.engine.Mint(f.ctx, aliceDID, matrixDID, 1, 0, "CC0"))
	assert.Equal(t, 1, f.matrix(matrixDID).Minted.Editions)
}

func TestUnmintBlockedByThirdPartyHolder(t *testing.T) {
	f := newFixture(t)
	f.login(aliceDID)
	f.login(bobDID)
	matrixDID := f.mintedMatrix(aliceDID, "Held", 2, 0)

	tokenDID := f.matrix(matrixDID).Minted.Tokens[0]
	require.NoError(t, f.engine.SetPrice(f.ctx, aliceDID, tokenDID, 100))
	require.NoError(t, f.engine.Buy(f.ctx, bobDID, tokenDID))

	err := f.engine.Unmint(f.ctx, aliceDID, matrixDID)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.True(t, f.matrix(matrixDID).IsMinted())
}

func TestUnmintAllowsCustodianHeldTokens(t *testing.T) {
	f := newFixture(t)
	f.login(aliceDID)
	matrixDID := f.mintedMatrix(aliceDID, "Escrowed", 2, 0)

	// Park an edition with the marketplace's own identity
	tokenDID := f.matrix(matrixDID).Minted.Tokens[1]
	token := f.token(tokenDID)
	token.Owner = custodianDID
	require.NoError(t, f.km.UpdateAsset(f.ctx, tokenDID, &domain.AssetDoc{Kind: domain.KindToken, Token: token}))

	assert.NoError(t, f.engine.Unmint(f.ctx, aliceDID, matrixDID))
}

func TestUnmintRequiresMinted(t *testing.T) {
	f := newFixture(t)
	f.login(aliceDID)
	matrixDID := f.upload(aliceDID, "Raw")

	err := f.engine.Unmint(f.ctx, aliceDID, matrixDID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestEditMatrixFrozenWhileMinted(t *testing.T) {
	f := newFixture(t)
	f.login(aliceDID)
	matrixDID := f.mintedMatrix(aliceDID, "Frozen", 1, 0)

	err := f.engine.EditMatrix(f.ctx, aliceDID, matrixDID, "Thawed")
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "Frozen", f.matrix(matrixDID).Title)
}
