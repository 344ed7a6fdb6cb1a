package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keychainmdip/dex-market/internal/domain"
)

func TestMemoryStoreUsers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.GetUser(ctx, "did:mdip:alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	alice := &domain.User{DID: "did:mdip:alice", Role: domain.RoleMember, Credits: 500}
	require.NoError(t, s.PutUser(ctx, alice))

	got, err := s.GetUser(ctx, "did:mdip:alice")
	require.NoError(t, err)
	assert.Equal(t, int64(500), got.Credits)

	// store holds a copy, not the caller's pointer
	alice.Credits = 0
	got2, err := s.GetUser(ctx, "did:mdip:alice")
	require.NoError(t, err)
	assert.Equal(t, int64(500), got2.Credits)

	// mutating a returned copy does not touch the stored document
	got2.Credits = 7
	got3, err := s.GetUser(ctx, "did:mdip:alice")
	require.NoError(t, err)
	assert.Equal(t, int64(500), got3.Credits)
}

func TestMemoryStorePutUsersBatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := s.PutUsers(ctx, []*domain.User{
		{DID: "did:mdip:bob", Credits: 1},
		{DID: "did:mdip:carol", Credits: 2},
	})
	require.NoError(t, err)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, domain.DID("did:mdip:bob"), users[0].DID)
	assert.Equal(t, domain.DID("did:mdip:carol"), users[1].DID)
}

func TestMemoryStoreSettings(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.GetSettings(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.PutSettings(ctx, &domain.Settings{StartingCredits: 1000}))

	settings, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), settings.StartingCredits)
}
