package market

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/keychainmdip/dex-market/internal/auth"
	"github.com/keychainmdip/dex-market/internal/domain"
	"github.com/keychainmdip/dex-market/internal/keymaster"
	"github.com/keychainmdip/dex-market/internal/mocks"
	"github.com/keychainmdip/dex-market/internal/pricing"
	"github.com/keychainmdip/dex-market/internal/store"
)

const (
	ownerDID     = domain.DID("did:test:owner")
	custodianDID = domain.DID("did:test:custodian")
	aliceDID     = domain.DID("did:test:alice")
	bobDID       = domain.DID("did:test:bob")
	carolDID     = domain.DID("did:test:carol")

	testStartingCredits = 500
)

// fixture wires an engine against the in-memory store and the local
// in-process keymaster, with a pinned advanceable clock
type fixture struct {
	t      *testing.T
	ctx    context.Context
	engine *Engine
	store  store.Store
	km     keymaster.Client
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		store: store.NewMemoryStore(),
		km:    keymaster.NewLocalClient(),
		now:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().DoAndReturn(func() time.Time { return f.now }).AnyTimes()
	clock.EXPECT().Since(gomock.Any()).DoAndReturn(func(t time.Time) time.Duration { return f.now.Sub(t) }).AnyTimes()

	f.engine = NewEngine(Config{
		Store:           f.store,
		Keymaster:       f.km,
		Policy:          auth.Policy{OwnerDID: ownerDID},
		Rates:           pricing.Policy{StorageRate: pricing.DefaultStorageRate, EditionRate: pricing.DefaultEditionRate},
		Clock:           clock,
		Custodian:       custodianDID,
		StartingCredits: testStartingCredits,
	})
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) login(did domain.DID) *domain.User {
	f.t.Helper()
	user, err := f.engine.Login(f.ctx, did)
	require.NoError(f.t, err)
	return user
}

func (f *fixture) user(did domain.DID) *domain.User {
	f.t.Helper()
	user, err := f.store.GetUser(f.ctx, did)
	require.NoError(f.t, err)
	return user
}

// upload creates a matrix in the user's default collection and returns its DID
func (f *fixture) upload(owner domain.DID, title string) domain.DID {
	f.t.Helper()
	user := f.user(owner)
	require.NotEmpty(f.t, user.Collections)
	did, err := f.engine.Upload(f.ctx, owner, user.Collections[0], title, pngBytes(f.t))
	require.NoError(f.t, err)
	return did
}

// mintedMatrix uploads and mints in one step, returning the matrix DID
func (f *fixture) mintedMatrix(owner domain.DID, title string, editions, royalty int) domain.DID {
	f.t.Helper()
	matrixDID := f.upload(owner, title)
	require.NoError(f.t, f.engine.Mint(f.ctx, owner, matrixDID, editions, royalty, "CC0"))
	return matrixDID
}

func (f *fixture) matrix(did domain.DID) *domain.MatrixDoc {
	f.t.Helper()
	matrix, err := f.engine.GetMatrix(f.ctx, did)
	require.NoError(f.t, err)
	return matrix
}

func (f *fixture) token(did domain.DID) *domain.TokenDoc {
	f.t.Helper()
	token, err := f.engine.GetToken(f.ctx, did)
	require.NoError(f.t, err)
	return token
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

// replayLedger checks the running-balance invariant: every entry's balance
// equals the previous balance plus its delta, and the final balance matches
// the live one
func replayLedger(t *testing.T, user *domain.User) {
	t.Helper()
	var balance int64
	for i, tx := range user.History {
		balance += tx.Amount
		require.Equal(t, balance, tx.Balance, "entry %d of %s", i, user.DID)
	}
	require.Equal(t, user.Credits, balance, "ledger of %s does not replay to live balance", user.DID)
}
