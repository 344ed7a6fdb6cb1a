package domain

import "time"

// AssetKind discriminates the asset documents stored behind a DID.
// Each kind carries only its legal attributes so that invalid states
// (e.g. a token with a minted record) cannot be represented.
type AssetKind string

const (
	KindCollection AssetKind = "collection"
	KindMatrix     AssetKind = "matrix"
	KindToken      AssetKind = "token"
)

// AssetDoc is the tagged document stored in the gatekeeper for every
// marketplace asset. Exactly one of the payload fields is non-nil,
// matching Kind.
type AssetDoc struct {
	Kind       AssetKind      `json:"kind"`
	Collection *CollectionDoc `json:"collection,omitempty"`
	Matrix     *MatrixDoc     `json:"matrix,omitempty"`
	Token      *TokenDoc      `json:"token,omitempty"`
}

// Valid checks that exactly the payload matching Kind is present
func (a *AssetDoc) Valid() bool {
	switch a.Kind {
	case KindCollection:
		return a.Collection != nil && a.Matrix == nil && a.Token == nil
	case KindMatrix:
		return a.Matrix != nil && a.Collection == nil && a.Token == nil
	case KindToken:
		return a.Token != nil && a.Collection == nil && a.Matrix == nil
	}
	return false
}

// CollectionDoc is a named container of matrix assets owned by one user.
// Asset order is significant: it drives next/prev navigation and sorting.
type CollectionDoc struct {
	Name      string     `json:"name"`
	Owner     DID        `json:"owner"`
	Assets    []DID      `json:"assets,omitempty"`
	Published bool       `json:"published"`
	Thumbnail *ImageInfo `json:"thumbnail,omitempty"`
	Created   time.Time  `json:"created"`
}

// MatrixDoc is the canonical, editable representation of an uploaded image.
// Once Minted is set, image content, owner and collection membership are
// frozen until unmint.
type MatrixDoc struct {
	Title      string        `json:"title"`
	Owner      DID           `json:"owner"`
	Collection DID           `json:"collection"`
	Image      ImageInfo     `json:"image"`
	Created    time.Time     `json:"created"`
	Minted     *MintedRecord `json:"minted,omitempty"`
}

// IsMinted reports whether the matrix currently has token editions
func (m *MatrixDoc) IsMinted() bool {
	return m.Minted != nil
}

// Edition bounds and royalty bounds for minting
const (
	MinEditions = 1
	MaxEditions = 100
	MinRoyalty  = 0
	MaxRoyalty  = 25
)

// MintedRecord is the sub-record written on a matrix at mint time.
// Tokens has length Editions; index i holds edition number i+1.
// History is strictly time-ordered and append-only.
type MintedRecord struct {
	Editions int            `json:"editions"`
	Royalty  int            `json:"royalty"`
	License  License        `json:"license"`
	Tokens   []DID          `json:"tokens"`
	History  []HistoryEvent `json:"history"`
}

// EventType tags an entry in a matrix's minted history
type EventType string

const (
	EventMint   EventType = "mint"
	EventList   EventType = "list"
	EventDelist EventType = "delist"
	EventSale   EventType = "sale"
)

// HistoryEvent is one informational entry in a matrix's minted history.
// Credit effects are recorded only in user ledgers, never here.
type HistoryEvent struct {
	Time    time.Time `json:"time"`
	Type    EventType `json:"type"`
	Actor   DID       `json:"actor"`
	Edition int       `json:"edition,omitempty"`
	Price   int64     `json:"price,omitempty"`
	Seller  DID       `json:"seller,omitempty"`
	Token   DID       `json:"token,omitempty"`
	Title   string    `json:"title,omitempty"`
}

// TokenDoc is one fungible edition of a minted matrix. Edition is 1-based
// and immutable for the token's lifetime; Price 0 means not for sale.
type TokenDoc struct {
	Matrix  DID    `json:"matrix"`
	Edition int    `json:"edition"`
	Title   string `json:"title"`
	Owner   DID    `json:"owner"`
	Price   int64  `json:"price"`
}
