package bitcoin

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// checkECDSA parses a DER signature and a secp256k1 public key and verifies
// the signature over digest, via btcec/v2 rather than a hand-rolled curve
// implementation (this repository's one direct cryptography dependency,
// also carried by the wider example pack's lnd codebase).
func checkECDSA(derSig, pubKeyBytes []byte, digest Hash256) bool {
	pub, err := btcec.ParsePubKey(pubKeyBytes)
	if err != nil {
		return false
	}
	sig, err := ecdsa.ParseDERSignature(derSig)
	if err != nil {
		return false
	}
	return sig.Verify(digest.Bytes(), pub)
}

func legacyVerifier(tx *Transaction, inputIndex int) SigVerifyFunc {
	return func(sigWithType, pubkey []byte) bool {
		sig, sighashType, err := SighashType(sigWithType)
		if err != nil {
			return false
		}
		digest, err := LegacySigHash(tx, inputIndex, sighashType)
		if err != nil {
			return false
		}
		return checkECDSA(sig, pubkey, digest)
	}
}

func segwitVerifier(tx *Transaction, inputIndex int, scriptCode []byte) SigVerifyFunc {
	return func(sigWithType, pubkey []byte) bool {
		sig, sighashType, err := SighashType(sigWithType)
		if err != nil {
			return false
		}
		digest, err := BIP143SigHash(tx, inputIndex, scriptCode, sighashType)
		if err != nil {
			return false
		}
		return checkECDSA(sig, pubkey, digest)
	}
}

func finalStackTrue(stack [][]byte, ok bool) bool {
	if !ok || len(stack) == 0 {
		return false
	}
	return isScriptTrue(stack[len(stack)-1])
}

// verifyP2PKH implements base spec §4.5 P2PKH verification: run the raw
// scriptsig to seed the stack, then execute the standard
// OP_DUP OP_HASH160 <hash> OP_EQUALVERIFY OP_CHECKSIG template.
func verifyP2PKH(tx *Transaction, idx int) (bool, error) {
	in := tx.Inputs[idx]
	stack, ok, err := Execute(in.ScriptSig, nil, nil)
	if err != nil || !ok {
		return false, nil
	}
	stack, ok, err = Execute(in.Prevout.ScriptPubKey, stack, legacyVerifier(tx, idx))
	if err != nil {
		return false, err
	}
	return finalStackTrue(stack, ok), nil
}

// verifyP2WPKH implements base spec §4.5 P2WPKH verification.
func verifyP2WPKH(tx *Transaction, idx int) (bool, error) {
	in := tx.Inputs[idx]
	if len(in.ScriptSig) != 0 {
		return false, nil
	}
	if len(in.Witness) != 2 {
		return false, nil
	}
	pubKeyHash, err := p2wpkhProgram(in.Prevout.ScriptPubKey)
	if err != nil {
		return false, nil
	}
	scriptCode := BuildP2PKHScriptCode(pubKeyHash)
	stack := [][]byte{in.Witness[0], in.Witness[1]}
	stack, ok, err := Execute([]byte{byte(OP_CHECKSIG)}, stack, segwitVerifier(tx, idx, scriptCode))
	if err != nil {
		return false, err
	}
	return finalStackTrue(stack, ok), nil
}

// p2wpkhProgram extracts the 20-byte witness program out of a
// `OP_0 <20-byte-hash>` scriptpubkey.
func p2wpkhProgram(scriptPubKey []byte) ([]byte, error) {
	if len(scriptPubKey) != 22 || scriptPubKey[0] != byte(OP_0) || scriptPubKey[1] != 20 {
		return nil, fmt.Errorf("not a v0 P2WPKH program")
	}
	return scriptPubKey[2:22], nil
}

// p2shProgram extracts the 20-byte hash out of a
// `OP_HASH160 <20-byte-hash> OP_EQUAL` scriptpubkey.
func p2shProgram(scriptPubKey []byte) ([]byte, error) {
	if len(scriptPubKey) != 23 || scriptPubKey[0] != byte(OP_HASH160) || scriptPubKey[1] != 20 || scriptPubKey[22] != byte(OP_EQUAL) {
		return nil, fmt.Errorf("not a P2SH program")
	}
	return scriptPubKey[2:22], nil
}

// verifyP2SH implements base spec §4.5: the P2SH sub-kind is decided by the
// witness length (0 => legacy, 2 => wrapped P2WPKH, any other length =>
// wrapped P2WSH).
func verifyP2SH(tx *Transaction, idx int) (bool, error) {
	in := tx.Inputs[idx]
	program, err := p2shProgram(in.Prevout.ScriptPubKey)
	if err != nil {
		return false, nil
	}

	switch {
	case len(in.Witness) == 0:
		return verifyP2SHLegacy(tx, idx, program)
	case len(in.Witness) == 2:
		return verifyP2SHWrappedP2WPKH(tx, idx, program)
	default:
		return verifyP2SHWrappedP2WSH(tx, idx, program)
	}
}

func verifyP2SHLegacy(tx *Transaction, idx int, program []byte) (bool, error) {
	in := tx.Inputs[idx]
	stack, ok, err := Execute(in.ScriptSig, nil, nil)
	if err != nil || !ok || len(stack) == 0 {
		return false, nil
	}
	redeemScript := stack[len(stack)-1]
	if !bytesEqual(Hash160Sum(redeemScript).Bytes(), program) {
		return false, nil
	}

	remaining := stack[:len(stack)-1]
	compiled, err := CompileASM(in.InnerRedeemScriptASM)
	if err != nil {
		return false, nil
	}
	finalStack, ok, err := Execute(compiled, remaining, legacyVerifier(tx, idx))
	if err != nil {
		return false, err
	}
	return finalStackTrue(finalStack, ok), nil
}

func verifyP2SHWrappedP2WPKH(tx *Transaction, idx int, program []byte) (bool, error) {
	in := tx.Inputs[idx]
	stack, ok, err := Execute(in.ScriptSig, nil, nil)
	if err != nil || !ok || len(stack) != 1 {
		return false, nil
	}
	redeemScript := stack[0]
	if !bytesEqual(Hash160Sum(redeemScript).Bytes(), program) {
		return false, nil
	}
	pubKeyHash, err := p2wpkhProgram(redeemScript)
	if err != nil {
		return false, nil
	}
	scriptCode := BuildP2PKHScriptCode(pubKeyHash)
	witnessStack := [][]byte{in.Witness[0], in.Witness[1]}
	finalStack, ok, err := Execute([]byte{byte(OP_CHECKSIG)}, witnessStack, segwitVerifier(tx, idx, scriptCode))
	if err != nil {
		return false, err
	}
	return finalStackTrue(finalStack, ok), nil
}

func verifyP2SHWrappedP2WSH(tx *Transaction, idx int, program []byte) (bool, error) {
	in := tx.Inputs[idx]
	stack, ok, err := Execute(in.ScriptSig, nil, nil)
	if err != nil || !ok || len(stack) != 1 {
		return false, nil
	}
	redeemScript := stack[0]
	if !bytesEqual(Hash160Sum(redeemScript).Bytes(), program) {
		return false, nil
	}
	if len(redeemScript) != 34 || redeemScript[0] != byte(OP_0) || redeemScript[1] != 32 {
		return false, nil
	}
	if len(in.Witness) < 1 {
		return false, nil
	}
	witnessScript := in.Witness[len(in.Witness)-1]
	witnessScriptHash := sha256.Sum256(witnessScript)
	if !bytesEqual(witnessScriptHash[:], redeemScript[2:34]) {
		return false, nil
	}
	initial := append([][]byte{}, in.Witness[:len(in.Witness)-1]...)
	finalStack, ok, err := Execute(witnessScript, initial, segwitVerifier(tx, idx, witnessScript))
	if err != nil {
		return false, err
	}
	return finalStackTrue(finalStack, ok), nil
}

// VerifyInput dispatches input idx of tx to the dialect named by its
// prevout's ScriptKind (base spec §4.5).
func VerifyInput(tx *Transaction, idx int) (bool, error) {
	switch tx.Inputs[idx].Prevout.Kind {
	case ScriptP2PKH:
		return verifyP2PKH(tx, idx)
	case ScriptV0P2WPKH:
		return verifyP2WPKH(tx, idx)
	case ScriptP2SH:
		return verifyP2SH(tx, idx)
	default:
		// v0_p2wsh (and anything else) is not one of the four supported
		// dialects on its own — only reachable nested inside P2SH.
		return false, nil
	}
}

// VerifyTransaction reports whether every input of tx verifies and the
// transaction's fee is non-negative (base spec §3 invariant). A
// transaction failing either check should be dropped from the candidate
// set, not aborted (tier-1/tier-2 error handling, base spec §7).
func VerifyTransaction(tx *Transaction) (bool, string) {
	if tx.Fee() < 0 {
		return false, "negative fee"
	}
	for i := range tx.Inputs {
		ok, err := VerifyInput(tx, i)
		if err != nil {
			return false, fmt.Sprintf("input %d: %v", i, err)
		}
		if !ok {
			return false, fmt.Sprintf("input %d: script verification failed", i)
		}
	}
	return true, ""
}
