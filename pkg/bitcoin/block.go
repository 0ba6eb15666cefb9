package bitcoin

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Block-assembly constants from the base spec (§3/§4.6). The weight cap
// leaves headroom under the BIP-141 4,000,000 consensus limit for the
// coinbase itself; the base subsidy and the fixed coinbase scriptsig/payout
// bytes are embedded constants the base spec leaves to the implementer
// (Design Notes open question 4) — see DESIGN.md for the values chosen here.
const (
	MaxBlockWeight      uint64 = 3_993_000
	CoinbaseBaseSubsidy uint64 = 650_082_296
	coinbaseScriptSigLen       = 37
)

// minerPayoutHash is the fixed P2PKH payout program's 20-byte hash. It is
// derived deterministically rather than picked as an arbitrary byte
// pattern, purely so the constant is traceable to something readable.
var minerPayoutHash = Hash160Sum([]byte("bitcoin-echo-miner"))

// SelectForBlock walks candidates in fee-density order, accumulating weight
// until the next candidate would cross MaxBlockWeight, and stops there
// without searching further (base spec §4.6).
func SelectForBlock(candidates *CandidateSet) (selected []CandidateEntry, totalFee uint64) {
	var weight uint64
	for _, e := range candidates.Entries() {
		if weight+e.Weight > MaxBlockWeight {
			break
		}
		selected = append(selected, e)
		weight += e.Weight
		totalFee += e.Fee
	}
	return selected, totalFee
}

// buildCoinbaseScriptSig encodes a minimal-push block-height followed by a
// miner tag, padded/truncated so the whole scriptsig is exactly 37 bytes
// (base spec §4.6).
func buildCoinbaseScriptSig(height int64) []byte {
	heightNum := scriptNumBytes(height)
	push := append([]byte{byte(len(heightNum))}, heightNum...)

	tag := "bitcoin-echo"
	tagSpace := coinbaseScriptSigLen - len(push)
	tagBytes := make([]byte, tagSpace)
	copy(tagBytes, tag)
	return append(push, tagBytes...)
}

// buildWitnessCommitmentScript builds the OP_RETURN output carrying the
// witness commitment: 6a24aa21a9ed ‖ commitment (base spec §4.6/§4.1
// Glossary).
func buildWitnessCommitmentScript(commitment Hash256) []byte {
	out := []byte{0x6a, 0x24, 0xaa, 0x21, 0xa9, 0xed}
	return append(out, commitment[:]...)
}

// BuildCoinbase constructs the fixed coinbase skeleton described in base
// spec §4.6: one input spending a null outpoint, a payout output carrying
// the accumulated fees atop the base subsidy, and an OP_RETURN output
// committing to witnessRoot (computed over natural-order wtxids, coinbase
// wtxid fixed at all-zero, by the caller).
func BuildCoinbase(height int64, totalFee uint64, witnessRoot Hash256) *Transaction {
	var reserved [32]byte
	commitmentPreimage := make([]byte, 0, 64)
	commitmentPreimage = append(commitmentPreimage, witnessRoot[:]...)
	commitmentPreimage = append(commitmentPreimage, reserved[:]...)
	commitment := DoubleSHA256(commitmentPreimage)

	return &Transaction{
		Version:  1,
		LockTime: 0,
		Inputs: []Input{{
			PrevTxID:  strings.Repeat("00", 32),
			Vout:      0xFFFFFFFF,
			ScriptSig: buildCoinbaseScriptSig(height),
			Witness:   [][]byte{reserved[:]},
			Sequence:  0xFFFFFFFF,
		}},
		Outputs: []Output{
			{
				Value:        CoinbaseBaseSubsidy + totalFee,
				ScriptPubKey: BuildP2PKHScriptCode(minerPayoutHash.Bytes()),
				Kind:         ScriptP2PKH,
			},
			{
				Value:        0,
				ScriptPubKey: buildWitnessCommitmentScript(commitment),
				Kind:         ScriptUnknown,
			},
		},
	}
}

// AssembledBlock is everything AssembleBlock produces: the solved header,
// the coinbase's witness-form hex, and the display-order txid list with
// the coinbase first (base spec §6 output format).
type AssembledBlock struct {
	Header      BlockHeader
	CoinbaseHex string
	TxIDs       []string
}

// AssembleBlock runs the full base-spec §4.6/§4.7 pipeline stage:
// weight-bounded selection, coinbase construction, both Merkle roots, and
// the proof-of-work search.
func AssembleBlock(candidates *CandidateSet, prevBlockHash Hash256, timestamp uint32, targetHex string, height int64) (*AssembledBlock, error) {
	selected, totalFee := SelectForBlock(candidates)

	witnessHashes := make([]Hash256, 0, len(selected)+1)
	witnessHashes = append(witnessHashes, ZeroHash) // coinbase wtxid, fixed
	for _, e := range selected {
		witnessHashes = append(witnessHashes, e.WTxID.Reversed())
	}
	witnessRoot := MerkleRoot(witnessHashes)

	coinbaseTx := BuildCoinbase(height, totalFee, witnessRoot)
	forms, reason, err := coinbaseTx.Serialize()
	if err != nil {
		return nil, fmt.Errorf("serializing coinbase: %w", err)
	}
	if reason != "" {
		return nil, fmt.Errorf("coinbase failed guard condition: %s", reason)
	}

	txidHashes := make([]Hash256, 0, len(selected)+1)
	txidHashes = append(txidHashes, forms.TxID.Reversed())
	for _, e := range selected {
		txidHashes = append(txidHashes, e.TxID.Reversed())
	}
	merkleRoot := MerkleRoot(txidHashes)

	target, err := ParseTarget(targetHex)
	if err != nil {
		return nil, fmt.Errorf("parsing target: %w", err)
	}
	bits := CompactBits(target)

	header := BlockHeader{
		Version:       1,
		PrevBlockHash: prevBlockHash,
		MerkleRoot:    merkleRoot,
		Timestamp:     timestamp,
		Bits:          bits,
	}
	minedHeader, err := Mine(header, target)
	if err != nil {
		return nil, fmt.Errorf("mining header: %w", err)
	}

	txids := make([]string, 0, len(selected)+1)
	txids = append(txids, forms.TxID.String())
	for _, e := range selected {
		txids = append(txids, e.TxID.String())
	}

	return &AssembledBlock{
		Header:      minedHeader,
		CoinbaseHex: hex.EncodeToString(forms.WitnessPreimage),
		TxIDs:       txids,
	}, nil
}
