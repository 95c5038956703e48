package primitives

import "crypto/sha256"

// Hash computes a tweaked SHA-256 digest of x. A tweak of 0 is plain
// SHA-256(x). A non-zero tweak in [0, 255] replaces the first byte of x with
// (x[0] + tweak) mod 256 before hashing, giving independent hash families
// from a single underlying primitive without a second algorithm.
func Hash(x []byte, tweak int) ([HashSize]byte, error) {
	var out [HashSize]byte
	if tweak < 0 || tweak > 255 {
		return out, ErrInvalidTweak
	}
	if tweak == 0 {
		out = sha256.Sum256(x)
		return out, nil
	}
	tweaked := make([]byte, len(x))
	copy(tweaked, x)
	if len(tweaked) == 0 {
		tweaked = []byte{byte(tweak)}
	} else {
		tweaked[0] = byte((int(tweaked[0]) + tweak) % 256)
	}
	out = sha256.Sum256(tweaked)
	return out, nil
}

// MustHash panics on an invalid tweak; it exists for call sites that pass a
// compile-time-constant tweak and want to avoid threading an error return.
func MustHash(x []byte, tweak int) [HashSize]byte {
	h, err := Hash(x, tweak)
	if err != nil {
		panic(err)
	}
	return h
}

// HashString is a convenience wrapper hashing a UTF-8 string with tweak 0.
func HashString(s string) [HashSize]byte {
	return sha256.Sum256([]byte(s))
}
