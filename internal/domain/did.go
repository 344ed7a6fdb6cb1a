package domain

import "strings"

// DID represents a Decentralized Identifier (W3C standard). DIDs are opaque,
// globally unique strings resolved through the external MDIP gatekeeper; the
// marketplace never inspects anything beyond the method prefix.
type DID string

// String returns the string representation of the DID
func (d DID) String() string {
	return string(d)
}

// Valid checks that the identifier has the did:<method>:<suffix> shape
func (d DID) Valid() bool {
	parts := strings.SplitN(string(d), ":", 3)
	return len(parts) == 3 && parts[0] == "did" && parts[1] != "" && parts[2] != ""
}

// Empty reports whether the DID is unset
func (d DID) Empty() bool {
	return d == ""
}
