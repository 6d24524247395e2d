package claims

import "errors"

var (
	// ErrUnauthorizedDepositor indicates the caller is not a registered depositor.
	ErrUnauthorizedDepositor = errors.New("claims: caller is not an authorized depositor")

	// ErrRecipientUnknown indicates a recipient without an account when accounts are required.
	ErrRecipientUnknown = errors.New("claims: recipient has no account")

	// ErrNoDirectory indicates account checks were requested but no directory is configured.
	ErrNoDirectory = errors.New("claims: no account directory configured")

	// ErrAllocationMismatch indicates an allocation kind that does not fit the supplied bucket.
	ErrAllocationMismatch = errors.New("claims: allocation does not match bucket asset kind")

	// ErrNoClaims indicates the recipient has nothing to claim for the asset.
	ErrNoClaims = errors.New("claims: nothing to claim")

	// ErrNotRecipient indicates the claim credential belongs to someone else.
	ErrNotRecipient = errors.New("claims: credential does not belong to recipient")

	// ErrDirectoryLookup indicates the account directory could not answer.
	ErrDirectoryLookup = errors.New("claims: account directory lookup failed")

	// ErrClaimNotFound indicates a claim ID absent from the store.
	ErrClaimNotFound = errors.New("claims: claim not found")
)
