package bitcoin

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// SighashAll is the only sighash flag this node's sighash builders
// construct (base spec §4.3 scope: SIGHASH_ALL for legacy and BIP-143).
const SighashAll uint32 = 1

// SighashType extracts the trailing sighash-flag byte from a DER signature
// and returns the signature with that byte stripped, ready for DER parsing.
func SighashType(sigWithType []byte) (sig []byte, sighashType uint32, err error) {
	if len(sigWithType) < 1 {
		return nil, 0, fmt.Errorf("signature too short to carry a sighash byte")
	}
	return sigWithType[:len(sigWithType)-1], uint32(sigWithType[len(sigWithType)-1]), nil
}

// BuildP2PKHScriptCode synthesizes the standard P2PKH program
// OP_DUP OP_HASH160 <20-byte-hash> OP_EQUALVERIFY OP_CHECKSIG for a
// witness pubkey hash, the BIP-143 scriptcode substituted for P2WPKH.
func BuildP2PKHScriptCode(pubKeyHash []byte) []byte {
	out := make([]byte, 0, 25)
	out = append(out, byte(OP_DUP), byte(OP_HASH160), byte(len(pubKeyHash)))
	out = append(out, pubKeyHash...)
	out = append(out, byte(OP_EQUALVERIFY), byte(OP_CHECKSIG))
	return out
}

// LegacySigHash builds the base spec §4.3 legacy (P2PKH) sighash preimage
// digest for the input at inputIndex.
func LegacySigHash(tx *Transaction, inputIndex int, sighashType uint32) (Hash256, error) {
	if inputIndex < 0 || inputIndex >= len(tx.Inputs) {
		return ZeroHash, fmt.Errorf("input index %d out of range", inputIndex)
	}

	var buf bytes.Buffer
	var v4 [4]byte
	binary.LittleEndian.PutUint32(v4[:], uint32(tx.Version))
	buf.Write(v4[:])

	buf.WriteByte(byte(len(tx.Inputs)))
	for i, in := range tx.Inputs {
		if err := writePrevTxID(&buf, in.PrevTxID); err != nil {
			return ZeroHash, err
		}
		var vout4 [4]byte
		binary.LittleEndian.PutUint32(vout4[:], in.Vout)
		buf.Write(vout4[:])
		if i == inputIndex {
			writeScriptPush(&buf, in.Prevout.ScriptPubKey)
		} else {
			buf.WriteByte(0)
		}
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

	var st4 [4]byte
	binary.LittleEndian.PutUint32(st4[:], sighashType)
	buf.Write(st4[:])

	return DoubleSHA256(buf.Bytes()), nil
}

// BIP143SigHash builds the BIP-143 sighash preimage digest (base spec
// §4.3) for the input at inputIndex, given the scriptcode substituted for
// that input's witness program (P2PKH-shaped for P2WPKH, the raw witness
// script length-prefixed for P2WSH).
func BIP143SigHash(tx *Transaction, inputIndex int, scriptCode []byte, sighashType uint32) (Hash256, error) {
	if inputIndex < 0 || inputIndex >= len(tx.Inputs) {
		return ZeroHash, fmt.Errorf("input index %d out of range", inputIndex)
	}
	in := tx.Inputs[inputIndex]

	var prevouts bytes.Buffer
	var sequences bytes.Buffer
	for _, i := range tx.Inputs {
		if err := writePrevTxID(&prevouts, i.PrevTxID); err != nil {
			return ZeroHash, err
		}
		var vout4 [4]byte
		binary.LittleEndian.PutUint32(vout4[:], i.Vout)
		prevouts.Write(vout4[:])

		var seq4 [4]byte
		binary.LittleEndian.PutUint32(seq4[:], i.Sequence)
		sequences.Write(seq4[:])
	}
	hashPrevouts := DoubleSHA256(prevouts.Bytes())
	hashSequence := DoubleSHA256(sequences.Bytes())

	var outputs bytes.Buffer
	for _, out := range tx.Outputs {
		var val8 [8]byte
		binary.LittleEndian.PutUint64(val8[:], out.Value)
		outputs.Write(val8[:])
		writeScriptPush(&outputs, out.ScriptPubKey)
	}
	hashOutputs := DoubleSHA256(outputs.Bytes())

	var buf bytes.Buffer
	var v4 [4]byte
	binary.LittleEndian.PutUint32(v4[:], uint32(tx.Version))
	buf.Write(v4[:])

	buf.Write(hashPrevouts.Bytes())
	buf.Write(hashSequence.Bytes())

	if err := writePrevTxID(&buf, in.PrevTxID); err != nil {
		return ZeroHash, err
	}
	var vout4 [4]byte
	binary.LittleEndian.PutUint32(vout4[:], in.Vout)
	buf.Write(vout4[:])

	writeScriptPush(&buf, scriptCode)

	var val8 [8]byte
	binary.LittleEndian.PutUint64(val8[:], in.Prevout.Value)
	buf.Write(val8[:])

	var seq4 [4]byte
	binary.LittleEndian.PutUint32(seq4[:], in.Sequence)
	buf.Write(seq4[:])

	buf.Write(hashOutputs.Bytes())

	var lt4 [4]byte
	binary.LittleEndian.PutUint32(lt4[:], tx.LockTime)
	buf.Write(lt4[:])

	var st4 [4]byte
	binary.LittleEndian.PutUint32(st4[:], sighashType)
	buf.Write(st4[:])

	return DoubleSHA256(buf.Bytes()), nil
}
