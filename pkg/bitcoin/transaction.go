package bitcoin

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// ScriptKind is the closed tagged union of locking-script dialects this node
// recognizes, replacing the repeated string comparisons a naive port of the
// JSON "scriptpubkey_type" field would otherwise scatter through the verifier.
type ScriptKind int

const (
	ScriptUnknown ScriptKind = iota
	ScriptP2PKH
	ScriptP2SH
	ScriptV0P2WPKH
	ScriptV0P2WSH
)

// ParseScriptKind maps the mempool JSON's scriptpubkey_type string onto the
// closed ScriptKind union. Unrecognized type strings (p2pk, p2tr, nulldata,
// ...) classify as ScriptUnknown; inputs referencing them are never verifiable
// by this node and are dropped by the verifier.
func ParseScriptKind(s string) ScriptKind {
	switch s {
	case "p2pkh":
		return ScriptP2PKH
	case "p2sh":
		return ScriptP2SH
	case "v0_p2wpkh":
		return ScriptV0P2WPKH
	case "v0_p2wsh":
		return ScriptV0P2WSH
	default:
		return ScriptUnknown
	}
}

func (k ScriptKind) String() string {
	switch k {
	case ScriptP2PKH:
		return "p2pkh"
	case ScriptP2SH:
		return "p2sh"
	case ScriptV0P2WPKH:
		return "v0_p2wpkh"
	case ScriptV0P2WSH:
		return "v0_p2wsh"
	default:
		return "unknown"
	}
}

// Prevout is the output being spent by an Input, embedded directly so the
// verifier never needs a separate UTXO lookup for the happy path.
type Prevout struct {
	ScriptPubKey []byte
	Kind         ScriptKind
	ASM          string
	Address      string
	Value        uint64
}

// Output is one output of a Transaction.
type Output struct {
	ScriptPubKey []byte
	Kind         ScriptKind
	Address      string
	Value        uint64
}

// Input is one input of a Transaction: a reference to a previous output plus
// everything needed to unlock it.
type Input struct {
	PrevTxID             string // display-order hex, as carried in the JSON
	Vout                 uint32
	Prevout              Prevout
	ScriptSig            []byte
	ScriptSigASM         string
	Witness              [][]byte
	InnerRedeemScriptASM string // only set when Prevout.Kind == ScriptP2SH
	Sequence             uint32
	IsCoinbase           bool
}

// Transaction is the in-memory record of a candidate transaction.
type Transaction struct {
	Version  int32
	LockTime uint32
	Inputs   []Input
	Outputs  []Output
}

// HasWitness reports whether the transaction carries any SegWit witness data,
// per the base spec's detection rule: a non-empty witness on the first input.
func (tx *Transaction) HasWitness() bool {
	return len(tx.Inputs) > 0 && len(tx.Inputs[0].Witness) > 0
}

// Guard thresholds from the base spec. They exist only because the
// serializer writes single-byte length prefixes instead of canonical
// VarInt/CompactSize encoding; a future revision replacing that encoding
// would drop these bounds entirely (see DESIGN.md).
const (
	maxLegacyInputs  = 50
	maxSegwitInputs  = 200
	maxLegacyOutputs = 200
	maxSegwitOutputs = 255
	maxScriptSigLen  = 255
	maxScriptPubKeyLen = 50
)

// guardReason reports why a transaction fails the single-byte-length-prefix
// bounds, or "" if it passes. Transactions that fail are skipped, not aborted
// (tier-1 error handling, base spec §7).
func (tx *Transaction) guardReason() string {
	segwit := tx.HasWitness()
	maxIn, maxOut := maxLegacyInputs, maxLegacyOutputs
	if segwit {
		maxIn, maxOut = maxSegwitInputs, maxSegwitOutputs
	}
	if len(tx.Inputs) >= maxIn {
		return fmt.Sprintf("input count %d exceeds guard %d", len(tx.Inputs), maxIn)
	}
	if len(tx.Outputs) >= maxOut {
		return fmt.Sprintf("output count %d exceeds guard %d", len(tx.Outputs), maxOut)
	}
	for i, in := range tx.Inputs {
		if len(in.ScriptSig) >= maxScriptSigLen {
			return fmt.Sprintf("input %d scriptsig length %d exceeds guard", i, len(in.ScriptSig))
		}
		if len(in.Prevout.ScriptPubKey) >= maxScriptPubKeyLen {
			return fmt.Sprintf("input %d prevout scriptpubkey length %d exceeds guard", i, len(in.Prevout.ScriptPubKey))
		}
	}
	for i, out := range tx.Outputs {
		if len(out.ScriptPubKey) >= maxScriptPubKeyLen {
			return fmt.Sprintf("output %d scriptpubkey length %d exceeds guard", i, len(out.ScriptPubKey))
		}
	}
	return ""
}

// writeScriptPush writes a single-byte length prefix followed by data. The
// guard thresholds above ensure len(data) always fits in one byte by the
// time this is called from the serializer or sighash builder.
func writeScriptPush(buf *bytes.Buffer, data []byte) {
	buf.WriteByte(byte(len(data)))
	buf.Write(data)
}

func writePrevTxID(buf *bytes.Buffer, txid string) error {
	raw, err := hex.DecodeString(txid)
	if err != nil || len(raw) != 32 {
		return fmt.Errorf("invalid prevout txid %q", txid)
	}
	buf.Write(ReverseBytes(raw))
	return nil
}

// legacyPreimage writes the base-spec §4.2 non-witness serialization.
func (tx *Transaction) legacyPreimage() ([]byte, error) {
	var buf bytes.Buffer
	var v4 [4]byte
	binary.LittleEndian.PutUint32(v4[:], uint32(tx.Version))
	buf.Write(v4[:])

	buf.WriteByte(byte(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		if err := writePrevTxID(&buf, in.PrevTxID); err != nil {
			return nil, err
		}
		var vout4 [4]byte
		binary.LittleEndian.PutUint32(vout4[:], in.Vout)
		buf.Write(vout4[:])
		writeScriptPush(&buf, in.ScriptSig)
		var seq4 [4]byte
		binary.LittleEndian.PutUint32(seq4[:], in.Sequence)
		buf.Write(seq4[:])
	}

	buf.WriteByte(byte(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		var val8 [8]byte
		binary.LittleEndian.PutUint64(val8[:], out.Value)
		buf.Write(val8[:])
		writeScriptPush(&buf, out.ScriptPubKey)
	}

	var lt4 [4]byte
	binary.LittleEndian.PutUint32(lt4[:], tx.LockTime)
	buf.Write(lt4[:])
	return buf.Bytes(), nil
}

// witnessPreimage writes the base-spec §4.2 witness serialization: the
// legacy layout with marker/flag inserted and a witness section appended
// before locktime.
func (tx *Transaction) witnessPreimage() ([]byte, int, error) {
	var buf bytes.Buffer
	var v4 [4]byte
	binary.LittleEndian.PutUint32(v4[:], uint32(tx.Version))
	buf.Write(v4[:])

	buf.WriteByte(0x00)
	buf.WriteByte(0x01)
	witnessBytesStart := buf.Len()

	inputSectionStart := buf.Len()
	buf.WriteByte(byte(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		if err := writePrevTxID(&buf, in.PrevTxID); err != nil {
			return nil, 0, err
		}
		var vout4 [4]byte
		binary.LittleEndian.PutUint32(vout4[:], in.Vout)
		buf.Write(vout4[:])
		writeScriptPush(&buf, in.ScriptSig)
		var seq4 [4]byte
		binary.LittleEndian.PutUint32(seq4[:], in.Sequence)
		buf.Write(seq4[:])
	}
	_ = inputSectionStart

	buf.WriteByte(byte(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		var val8 [8]byte
		binary.LittleEndian.PutUint64(val8[:], out.Value)
		buf.Write(val8[:])
		writeScriptPush(&buf, out.ScriptPubKey)
	}

	// Witness bytes counted so far: marker+flag only (the input/output
	// sections above are non-witness bytes shared with the legacy form).
	markerFlagBytes := witnessBytesStart - 2 // always 4 (the marker's offset); unused
	_ = markerFlagBytes

	witnessSectionStart := buf.Len()
	for _, in := range tx.Inputs {
		buf.WriteByte(byte(len(in.Witness)))
		for _, item := range in.Witness {
			writeScriptPush(&buf, item)
		}
	}
	witnessSectionLen := buf.Len() - witnessSectionStart

	var lt4 [4]byte
	binary.LittleEndian.PutUint32(lt4[:], tx.LockTime)
	buf.Write(lt4[:])

	// Witness bytes = marker+flag (2) + witness section.
	witnessByteCount := 2 + witnessSectionLen
	return buf.Bytes(), witnessByteCount, nil
}

// Fee returns Σ input.prevout.value − Σ output.value.
func (tx *Transaction) Fee() int64 {
	var in, out int64
	for _, i := range tx.Inputs {
		in += int64(i.Prevout.Value)
	}
	for _, o := range tx.Outputs {
		out += int64(o.Value)
	}
	return in - out
}

// SerializedForms holds everything the block assembler needs from one
// transaction: its two preimages, its weight and its fee.
type SerializedForms struct {
	LegacyPreimage  []byte
	WitnessPreimage []byte
	Weight          uint64
	Fee             int64
	TxID            Hash256
	WTxID           Hash256
}

// Serialize produces the legacy and witness preimages, the weight and the
// fee for tx, or reports the guard-condition reason a malformed/oversized
// transaction should be skipped instead.
func (tx *Transaction) Serialize() (*SerializedForms, string, error) {
	if reason := tx.guardReason(); reason != "" {
		return nil, reason, nil
	}

	legacy, err := tx.legacyPreimage()
	if err != nil {
		return nil, "", err
	}
	txid := DoubleSHA256(legacy).Reversed()

	forms := &SerializedForms{
		LegacyPreimage: legacy,
		Fee:            tx.Fee(),
		TxID:           txid,
	}

	if !tx.HasWitness() {
		forms.WitnessPreimage = legacy
		forms.WTxID = txid
		forms.Weight = uint64(len(legacy)) * 4
		return forms, "", nil
	}

	witness, witnessBytes, err := tx.witnessPreimage()
	if err != nil {
		return nil, "", err
	}
	forms.WitnessPreimage = witness
	forms.WTxID = DoubleSHA256(witness).Reversed()
	nonWitnessBytes := len(witness) - witnessBytes
	forms.Weight = uint64(nonWitnessBytes)*4 + uint64(witnessBytes)
	return forms, "", nil
}
