// Package auth implements badge-style authorization: a principal proves a role
// by signing with the key whose Hash160 is registered for that role.
package auth

import (
	"encoding/hex"
	"fmt"
	"strings"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
)

// IdentitySize is the byte length of an Identity.
const IdentitySize = 20

// Identity names a principal: Hash160 of its compressed public key.
// Recipients, owners, and distributors are all identities.
type Identity [IdentitySize]byte

// IdentityFromPubKey derives the identity of pub.
func IdentityFromPubKey(pub *ec.PublicKey) Identity {
	var id Identity
	copy(id[:], bsvhash.Hash160(pub.Compressed()))
	return id
}

// ParseIdentity decodes a 40-character hex identity.
func ParseIdentity(s string) (Identity, error) {
	var id Identity
	s = strings.TrimSpace(s)
	if len(s) != hex.EncodedLen(IdentitySize) {
		return id, fmt.Errorf("%w: expected %d hex chars, got %d", ErrInvalidIdentity, hex.EncodedLen(IdentitySize), len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
	}
	copy(id[:], b)
	return id, nil
}

// String returns the hex form.
func (id Identity) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether the identity is unset.
func (id Identity) IsZero() bool {
	return id == Identity{}
}
