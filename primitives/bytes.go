package primitives

import (
	"encoding/hex"
	"math/big"
)

// IntToBytes encodes x as little-endian bytes. If length > 0 the result is
// zero-padded or truncated (from the high end) to exactly length bytes;
// length <= 0 requests the minimal representation, with a single zero byte
// for x == 0.
func IntToBytes(x *big.Int, length int) []byte {
	be := x.Bytes() // big-endian, minimal
	le := make([]byte, len(be))
	for i, b := range be {
		le[len(be)-1-i] = b
	}
	if len(le) == 0 {
		le = []byte{0}
	}
	if length <= 0 {
		return le
	}
	out := make([]byte, length)
	copy(out, le)
	return out[:length]
}

// BytesToInt decodes little-endian bytes into a non-negative big.Int.
func BytesToInt(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i, v := range b {
		be[len(b)-1-i] = v
	}
	return new(big.Int).SetBytes(be)
}

// BytesToHex returns lowercase hex, matching the transcript encoding
// contract in the external-interfaces section of the spec.
func BytesToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// HexToBytes decodes lowercase (or uppercase) hex.
func HexToBytes(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
