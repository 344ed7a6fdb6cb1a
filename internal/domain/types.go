package domain

import "time"

// Role represents a user's marketplace role. Exactly one role per user;
// RoleOwner is assigned once to the configured owner DID and is immutable.
type Role string

const (
	RoleOwner     Role = "Owner"
	RoleAdmin     Role = "Admin"
	RoleModerator Role = "Moderator"
	RoleMember    Role = "Member"
)

// AssignableRoles lists the roles an admin may set. RoleOwner is excluded:
// it belongs to the configured owner DID for the life of the deployment.
var AssignableRoles = []Role{RoleAdmin, RoleModerator, RoleMember}

// IsAssignable checks if a role can be granted through the role endpoint
func (r Role) IsAssignable() bool {
	for _, v := range AssignableRoles {
		if r == v {
			return true
		}
	}
	return false
}

// License identifies the usage license attached to a minted matrix
type License string

// Licenses maps every accepted license identifier to its canonical deed URL.
// Minting rejects identifiers outside this set.
var Licenses = map[License]string{
	"CC BY":       "https://creativecommons.org/licenses/by/4.0/",
	"CC BY-SA":    "https://creativecommons.org/licenses/by-sa/4.0/",
	"CC BY-NC":    "https://creativecommons.org/licenses/by-nc/4.0/",
	"CC BY-NC-SA": "https://creativecommons.org/licenses/by-nc-sa/4.0/",
	"CC BY-ND":    "https://creativecommons.org/licenses/by-nd/4.0/",
	"CC BY-NC-ND": "https://creativecommons.org/licenses/by-nc-nd/4.0/",
	"CC0":         "https://creativecommons.org/publicdomain/zero/1.0/",
}

// IsValidLicense checks if a license identifier is in the accepted set
func IsValidLicense(l License) bool {
	_, ok := Licenses[l]
	return ok
}

// ImageInfo describes a content-addressed image blob held by the gatekeeper
type ImageInfo struct {
	CID    string `json:"cid"`
	Bytes  int64  `json:"bytes"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Type   string `json:"type"`
}

// TxType tags an entry in a user's transaction ledger
type TxType string

const (
	TxCreditPurchase TxType = "credit-purchase"
	TxMint           TxType = "mint"
	TxUnmint         TxType = "unmint"
	TxBuy            TxType = "buy"
	TxSale           TxType = "sale"
	TxRoyalty        TxType = "royalty"
	TxUpload         TxType = "upload"
)

// TransactionRecord is one append-only entry in a user's credit ledger.
// Balance is a running total: it must equal the previous entry's balance
// plus this entry's signed Amount.
type TransactionRecord struct {
	Time    time.Time `json:"time"`
	Type    TxType    `json:"type"`
	Amount  int64     `json:"amount"`
	Balance int64     `json:"balance"`
	Asset   DID       `json:"asset,omitempty"`
}

// User is the per-user ledger document. Created on first successful login,
// mutated by profile edits, credit changes and every marketplace transaction;
// never deleted.
type User struct {
	DID         DID                 `json:"did"`
	Role        Role                `json:"role"`
	Credits     int64               `json:"credits"`
	Name        string              `json:"name,omitempty"`
	Tagline     string              `json:"tagline,omitempty"`
	PFP         *ImageInfo          `json:"pfp,omitempty"`
	FirstLogin  time.Time           `json:"firstLogin"`
	LastLogin   time.Time           `json:"lastLogin"`
	Logins      int                 `json:"logins"`
	Collections []DID               `json:"collections,omitempty"`
	Created     []DID               `json:"created,omitempty"`
	Collected   []DID               `json:"collected,omitempty"`
	History     []TransactionRecord `json:"history,omitempty"`
}

// HasCollected reports whether the user's collected index contains the DID
func (u *User) HasCollected(did DID) bool {
	for _, d := range u.Collected {
		if d == did {
			return true
		}
	}
	return false
}

// DropCollected removes a DID from the user's collected index, if present
func (u *User) DropCollected(did DID) {
	out := u.Collected[:0]
	for _, d := range u.Collected {
		if d != did {
			out = append(out, d)
		}
	}
	u.Collected = out
}

// Settings is the process-wide settings document
type Settings struct {
	DefaultPFP       *ImageInfo `json:"defaultPfp,omitempty"`
	DefaultThumbnail *ImageInfo `json:"defaultThumbnail,omitempty"`
	StartingCredits  int64      `json:"startingCredits"`
}
