package bitcoin

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // no stdlib RIPEMD160, this is the ecosystem's answer
)

// Hash256 represents a 256-bit hash (32 bytes). It carries no byte order of
// its own: a value is either in natural (internal) order, as DoubleSHA256
// produces it, or in the byte-reversed display order used for printed
// txids; callers convert between the two with Reversed.
type Hash256 [32]byte

// ZeroHash is the all-zero 256-bit hash.
var ZeroHash = Hash256{}

// NewHash256FromBytes builds a Hash256 from a 32-byte slice, keeping its byte order.
func NewHash256FromBytes(b []byte) (Hash256, error) {
	if len(b) != 32 {
		return ZeroHash, fmt.Errorf("invalid hash length: expected 32 bytes, got %d", len(b))
	}
	var h Hash256
	copy(h[:], b)
	return h, nil
}

// NewHash256FromString parses a display-order hex txid/hash.
func NewHash256FromString(s string) (Hash256, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ZeroHash, fmt.Errorf("invalid hex string: %w", err)
	}
	return NewHash256FromBytes(b)
}

// String renders the stored bytes as lowercase hex, in the order held.
func (h Hash256) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns the underlying 32 bytes in the order held.
func (h Hash256) Bytes() []byte {
	return h[:]
}

// IsZero reports whether the hash is all zeros.
func (h Hash256) IsZero() bool {
	return h == ZeroHash
}

// Reversed returns a copy of h with its bytes in reverse order, the conversion
// between natural (wire/internal) order and display order. Display order,
// read as a big-endian integer, is the value proof-of-work compares against
// the target.
func (h Hash256) Reversed() Hash256 {
	var out Hash256
	for i := 0; i < 32; i++ {
		out[i] = h[31-i]
	}
	return out
}

// ReverseBytes returns a new slice with b's bytes reversed.
func ReverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

// DoubleSHA256 computes SHA256(SHA256(data)).
func DoubleSHA256(data []byte) Hash256 {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return Hash256(second)
}

// Hash160 represents a 160-bit (20 byte) hash used for P2PKH/P2SH/P2WPKH programs.
type Hash160 [20]byte

// ZeroHash160 is the all-zero 160-bit hash.
var ZeroHash160 = Hash160{}

// NewHash160FromBytes builds a Hash160 from a 20-byte slice.
func NewHash160FromBytes(b []byte) (Hash160, error) {
	if len(b) != 20 {
		return ZeroHash160, fmt.Errorf("invalid hash160 length: expected 20 bytes, got %d", len(b))
	}
	var h Hash160
	copy(h[:], b)
	return h, nil
}

// String renders the hash160 as lowercase hex.
func (h Hash160) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns the underlying 20 bytes.
func (h Hash160) Bytes() []byte {
	return h[:]
}

// Hash160Sum computes RIPEMD160(SHA256(data)), the digest behind every P2PKH,
// P2SH and P2WPKH program.
func Hash160Sum(data []byte) Hash160 {
	sum := sha256.Sum256(data)
	r := ripemd160.New()
	r.Write(sum[:]) //nolint:errcheck // ripemd160.Write never returns an error
	var out Hash160
	copy(out[:], r.Sum(nil))
	return out
}
