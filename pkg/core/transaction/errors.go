package transaction

import "errors"

// Construction errors.
var (
	ErrMissingPrivateKey = errors.New("private key is missing")
	ErrMissingPublicKey  = errors.New("public key is missing")
	ErrMissingActions    = errors.New("actions are missing")
	ErrMissingSignature  = errors.New("signature is missing")
)

// Validation errors. Both are reported separately, so that a forged or
// corrupted signature can be told apart from a wrong signer.
var (
	// ErrInvalidSignature is returned when the signature doesn't match the
	// transaction contents and the public key.
	ErrInvalidSignature = errors.New("invalid transaction signature")
	// ErrInvalidPublicKey is returned when the signer address is not the
	// address of the public key.
	ErrInvalidPublicKey = errors.New("signer doesn't match the public key")
)

// ErrInvalidFormat is returned for encoded transactions that can't be
// decoded.
var ErrInvalidFormat = errors.New("invalid transaction format")
