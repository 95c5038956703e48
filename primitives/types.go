// Package primitives implements the low-level cryptographic building blocks
// of the split-value voting protocol: a tweaked SHA-256 hash, HMAC-SHA256
// commitments, little-endian bignum encoding, a deterministic named-source
// randomness registry, and primality testing.
//
// None of these are novel cryptography; they are deliberately simple,
// auditable primitives chosen so that the protocol layers above can be
// verified independently of any single primitive's implementation.
package primitives

import "errors"

var (
	// ErrInvalidKeyLength is returned when a commitment key is not a valid
	// base64 string of exactly 44 characters.
	ErrInvalidKeyLength = errors.New("primitives: commitment key must be 44 base64 characters")

	// ErrInvalidTweak is returned when a hash tweak is outside [0, 255].
	ErrInvalidTweak = errors.New("primitives: tweak out of range")

	// ErrUnknownSource is returned when NextBytes/NextInt/NextIntN is called
	// on a source name that was never Init'd.
	ErrUnknownSource = errors.New("primitives: unknown randomness source")

	// ErrSourceExists is returned by Init when the name is already registered
	// and re-initialization was not requested.
	ErrSourceExists = errors.New("primitives: randomness source already initialized")

	// ErrNotPrime is returned by operations that require a prime modulus.
	ErrNotPrime = errors.New("primitives: modulus is not prime")
)

// CommitmentKeySize is the size in bytes of a commitment randomizer (ru, rv).
const CommitmentKeySize = 32

// HashSize is the output size in bytes of Hash and Com.
const HashSize = 32
