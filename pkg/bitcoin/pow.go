package bitcoin

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
)

// BlockHeader is the 80-byte structure whose double-SHA-256 must fall at or
// under the target for a block to be accepted (base spec §3/§4.7).
type BlockHeader struct {
	Version       uint32
	PrevBlockHash Hash256
	MerkleRoot    Hash256
	Timestamp     uint32
	Bits          uint32
	Nonce         uint32
}

// Serialize writes the 80-byte wire form of the header. Integer fields are
// little-endian; the two hash fields are written as-is ("raw", per base
// spec §4.7) since this node already carries them in the natural byte
// order the hash functions produce.
func (h BlockHeader) Serialize() []byte {
	buf := make([]byte, 80)
	binary.LittleEndian.PutUint32(buf[0:4], h.Version)
	copy(buf[4:36], h.PrevBlockHash[:])
	copy(buf[36:68], h.MerkleRoot[:])
	binary.LittleEndian.PutUint32(buf[68:72], h.Timestamp)
	binary.LittleEndian.PutUint32(buf[72:76], h.Bits)
	binary.LittleEndian.PutUint32(buf[76:80], h.Nonce)
	return buf
}

// Hash returns double_sha256(Serialize()) reinterpreted as a big-endian
// 256-bit integer, the value compared against the target.
func (h BlockHeader) Hash() *big.Int {
	digest := DoubleSHA256(h.Serialize())
	reversed := ReverseBytes(digest[:])
	return new(big.Int).SetBytes(reversed)
}

// ParseTarget parses a 64-hex-character big-endian target.
func ParseTarget(targetHex string) (*big.Int, error) {
	raw, err := hex.DecodeString(targetHex)
	if err != nil {
		return nil, fmt.Errorf("invalid target hex: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("target must be 32 bytes (64 hex chars), got %d bytes", len(raw))
	}
	return new(big.Int).SetBytes(raw), nil
}

// CompactBits encodes a target as Bitcoin's compact "nBits" representation
// (base spec §4.7): strip leading zero bytes, take the first three bytes as
// the significand, and if its top bit is set shift right by one byte and
// bump the size to keep the encoded value non-negative.
func CompactBits(target *big.Int) uint32 {
	raw := target.Bytes() // big-endian, no leading zero bytes
	size := uint32(len(raw))

	var significand uint32
	switch {
	case len(raw) >= 3:
		significand = uint32(raw[0])<<16 | uint32(raw[1])<<8 | uint32(raw[2])
	case len(raw) == 2:
		significand = uint32(raw[0])<<16 | uint32(raw[1])<<8
	case len(raw) == 1:
		significand = uint32(raw[0]) << 16
	default:
		return 0
	}

	if significand&0x00800000 != 0 {
		significand >>= 8
		size++
	}

	return size<<24 | (significand & 0x00ffffff)
}

// CompactToTarget is the inverse of CompactBits, used to recover the target
// a header's Bits field encodes.
func CompactToTarget(bits uint32) *big.Int {
	size := bits >> 24
	significand := big.NewInt(int64(bits & 0x00ffffff))
	if size <= 3 {
		return significand.Rsh(significand, uint(8*(3-size)))
	}
	return significand.Lsh(significand, uint(8*(size-3)))
}

// Mine searches nonces starting at 0 until the header's hash falls at or
// under target, mutating and returning header with the winning nonce. The
// base spec does not extend to extra-nonce rolling or timestamp bumping:
// nonce space exhaustion returns an error rather than looping forever.
func Mine(header BlockHeader, target *big.Int) (BlockHeader, error) {
	for nonce := uint32(0); ; nonce++ {
		header.Nonce = nonce
		if header.Hash().Cmp(target) <= 0 {
			return header, nil
		}
		if nonce == ^uint32(0) {
			return header, fmt.Errorf("nonce space exhausted without finding a solution")
		}
	}
}
