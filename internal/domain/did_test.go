package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keychainmdip/dex-market/internal/domain"
)

func TestDIDValid(t *testing.T) {
	tests := []struct {
		name  string
		did   domain.DID
		valid bool
	}{
		{"mdip did", "did:mdip:z3v8AuaYLYQfYzUkWuvnd6LzXNV1cSZn3sSmcJCn6WR6prM7Arg", true},
		{"key did", "did:key:z6MkhaXgBZDvotDkL5257faiztiGiC2QtKLGpbnnEGta2doK", true},
		{"missing suffix", "did:mdip:", false},
		{"missing method", "did::abc", false},
		{"not a did", "z3v8AuaYLYQ", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.did.Valid())
		})
	}
}

func TestAssetDocValid(t *testing.T) {
	matrix := &MatrixFixture
	assert.True(t, (&domain.AssetDoc{Kind: domain.KindMatrix, Matrix: matrix}).Valid())
	assert.False(t, (&domain.AssetDoc{Kind: domain.KindMatrix}).Valid())
	assert.False(t, (&domain.AssetDoc{Kind: domain.KindToken, Matrix: matrix}).Valid())
	assert.False(t, (&domain.AssetDoc{
		Kind:   domain.KindMatrix,
		Matrix: matrix,
		Token:  &domain.TokenDoc{},
	}).Valid())
	assert.False(t, (&domain.AssetDoc{Kind: "image", Matrix: matrix}).Valid())
}

// MatrixFixture is a minimal valid matrix document shared by tests
var MatrixFixture = domain.MatrixDoc{
	Title: "Sunrise",
	Owner: "did:mdip:alice",
	Image: domain.ImageInfo{CID: "bafytest", Bytes: 1024, Width: 64, Height: 64, Type: "image/png"},
}

func TestLicenses(t *testing.T) {
	assert.True(t, domain.IsValidLicense("CC0"))
	assert.True(t, domain.IsValidLicense("CC BY-NC-SA"))
	assert.False(t, domain.IsValidLicense("MIT"))
	assert.False(t, domain.IsValidLicense(""))
}

func TestRoleIsAssignable(t *testing.T) {
	assert.True(t, domain.RoleAdmin.IsAssignable())
	assert.True(t, domain.RoleMember.IsAssignable())
	assert.False(t, domain.RoleOwner.IsAssignable())
	assert.False(t, domain.Role("Root").IsAssignable())
}

func TestUserCollectedIndex(t *testing.T) {
	u := domain.User{Collected: []domain.DID{"did:mdip:t1", "did:mdip:t2"}}

	assert.True(t, u.HasCollected("did:mdip:t1"))
	assert.False(t, u.HasCollected("did:mdip:t3"))

	u.DropCollected("did:mdip:t1")
	assert.False(t, u.HasCollected("did:mdip:t1"))
	assert.Equal(t, []domain.DID{"did:mdip:t2"}, u.Collected)

	// dropping an absent DID is a no-op
	u.DropCollected("did:mdip:t9")
	assert.Equal(t, []domain.DID{"did:mdip:t2"}, u.Collected)
}
