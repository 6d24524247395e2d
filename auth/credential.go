package auth

import (
	"context"
	"crypto/rand"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"golang.org/x/crypto/blake2b"
)

// Operation names a protected action. Credentials are bound to one operation.
type Operation string

const (
	OpDeposit              Operation = "deposit"
	OpDistributeFromEscrow Operation = "distribute_from_escrow"
	OpDistributeSupplied   Operation = "distribute_supplied"
	OpSetDistributor       Operation = "set_distributor"
	OpLockerDeposit        Operation = "locker_deposit"
	OpClaim                Operation = "claim"
)

const nonceSize = 16

// Credential is a presented badge: a signature over the operation name and a
// fresh nonce, made with the key behind the caller's identity.
type Credential struct {
	PublicKey *ec.PublicKey
	Signature *ec.Signature
	Operation Operation
	Nonce     []byte
}

// Sign issues a credential for op.
func Sign(priv *ec.PrivateKey, op Operation) (*Credential, error) {
	if priv == nil {
		return nil, ErrNilKey
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("auth: generate nonce: %w", err)
	}
	sig, err := priv.Sign(credentialDigest(op, nonce))
	if err != nil {
		return nil, fmt.Errorf("auth: sign credential: %w", err)
	}
	return &Credential{
		PublicKey: priv.PubKey(),
		Signature: sig,
		Operation: op,
		Nonce:     nonce,
	}, nil
}

// Identity returns the identity the credential speaks for.
func (c *Credential) Identity() Identity {
	return IdentityFromPubKey(c.PublicKey)
}

// Verify checks that the credential is well formed and signed for op.
func (c *Credential) Verify(op Operation) error {
	if c == nil {
		return ErrMissingCredential
	}
	if c.PublicKey == nil || c.Signature == nil || len(c.Nonce) == 0 {
		return fmt.Errorf("%w: incomplete credential", ErrInvalidCredential)
	}
	if c.Operation != op {
		return fmt.Errorf("%w: have %q, need %q", ErrOperationMismatch, c.Operation, op)
	}
	if !c.Signature.Verify(credentialDigest(c.Operation, c.Nonce), c.PublicKey) {
		return fmt.Errorf("%w: signature does not verify", ErrInvalidCredential)
	}
	return nil
}

// credentialDigest = BLAKE2b-256(len(op) || op || nonce).
func credentialDigest(op Operation, nonce []byte) []byte {
	buf := make([]byte, 0, 1+len(op)+len(nonce))
	buf = append(buf, byte(len(op)))
	buf = append(buf, op...)
	buf = append(buf, nonce...)
	sum := blake2b.Sum256(buf)
	return sum[:]
}

type credentialKey struct{}

// WithCredential attaches cred to ctx so it can cross interfaces that do not
// carry one explicitly.
func WithCredential(ctx context.Context, cred *Credential) context.Context {
	return context.WithValue(ctx, credentialKey{}, cred)
}

// CredentialFrom returns the credential attached to ctx, if any.
func CredentialFrom(ctx context.Context) (*Credential, bool) {
	cred, ok := ctx.Value(credentialKey{}).(*Credential)
	return cred, ok && cred != nil
}
