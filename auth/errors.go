package auth

import "errors"

var (
	// ErrInvalidIdentity indicates an identity string is not 40 hex characters.
	ErrInvalidIdentity = errors.New("auth: invalid identity")

	// ErrMissingCredential indicates a protected operation was called without a credential.
	ErrMissingCredential = errors.New("auth: missing credential")

	// ErrInvalidCredential indicates the credential signature does not verify.
	ErrInvalidCredential = errors.New("auth: invalid credential")

	// ErrOperationMismatch indicates the credential was issued for another operation.
	ErrOperationMismatch = errors.New("auth: credential issued for a different operation")

	// ErrUnauthorized indicates the caller holds none of the roles the operation requires.
	ErrUnauthorized = errors.New("auth: caller not authorized for operation")

	// ErrNilKey indicates a required key is nil.
	ErrNilKey = errors.New("auth: key is nil")

	// ErrZeroIdentity indicates an unset identity where one is required.
	ErrZeroIdentity = errors.New("auth: identity is unset")

	// ErrDecryptionFailed indicates a wrong password or a corrupted key file.
	ErrDecryptionFailed = errors.New("auth: key decryption failed (wrong password or corrupted data)")

	// ErrChecksumMismatch indicates the key checksum did not verify after decryption.
	ErrChecksumMismatch = errors.New("auth: key checksum mismatch")
)
