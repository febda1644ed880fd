package types

import "errors"

var (
	// ErrMalformedEmbeddedEncoding is returned when a Borsh blob carried inside
	// the wire schema is truncated, has trailing bytes or holds an invalid value.
	ErrMalformedEmbeddedEncoding = errors.New("malformed embedded encoding")
	// ErrMissingField is returned when a required wire field is absent.
	ErrMissingField = errors.New("required field missing")
	// ErrOutOfRange is returned when a wire integer does not fit its domain type.
	ErrOutOfRange = errors.New("integer out of range")
	// ErrInvalidResponse is returned when an envelope carries no recognized case.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrUnexpectedResponse is returned when an envelope carries a case that is
	// out of scope for the handshake, such as a post-handshake message.
	ErrUnexpectedResponse = errors.New("unexpected response")

	ErrInvalidKeyType       = errors.New("invalid key type")
	ErrInvalidKeyLength     = errors.New("invalid key length")
	ErrInvalidHashLength    = errors.New("invalid hash length")
	ErrUnsupportedKeyType   = errors.New("unsupported key type")
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrInvalidKeyTextFormat = errors.New("invalid key format, expected <key_type>:<base58>")
)
