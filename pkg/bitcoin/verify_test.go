package bitcoin

import (
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signLegacy(t *testing.T, priv *btcec.PrivateKey, tx *Transaction, inputIndex int) []byte {
	t.Helper()
	digest, err := LegacySigHash(tx, inputIndex, SighashAll)
	require.NoError(t, err)
	der := ecdsa.Sign(priv, digest.Bytes())
	return append(der.Serialize(), byte(SighashAll))
}

func signSegwit(t *testing.T, priv *btcec.PrivateKey, tx *Transaction, inputIndex int, scriptCode []byte) []byte {
	t.Helper()
	digest, err := BIP143SigHash(tx, inputIndex, scriptCode, SighashAll)
	require.NoError(t, err)
	der := ecdsa.Sign(priv, digest.Bytes())
	return append(der.Serialize(), byte(SighashAll))
}

func p2pkhCandidate(t *testing.T) (*Transaction, *btcec.PrivateKey) {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	pubKey := priv.PubKey().SerializeCompressed()
	pubKeyHash := Hash160Sum(pubKey)

	tx := &Transaction{
		Version:  1,
		LockTime: 0,
		Inputs: []Input{{
			PrevTxID: strings.Repeat("ab", 32),
			Vout:     0,
			Prevout: Prevout{
				Value:        1000,
				Kind:         ScriptP2PKH,
				ScriptPubKey: BuildP2PKHScriptCode(pubKeyHash.Bytes()),
			},
			Sequence: 0xffffffff,
		}},
		Outputs: []Output{{Value: 900, ScriptPubKey: []byte{0x6a}}},
	}

	sig := signLegacy(t, priv, tx, 0)
	tx.Inputs[0].ScriptSig = append(append([]byte{byte(len(sig))}, sig...), append([]byte{byte(len(pubKey))}, pubKey...)...)
	return tx, priv
}

func TestVerifyP2PKHValidSignature(t *testing.T) {
	tx, _ := p2pkhCandidate(t)
	ok, err := VerifyInput(tx, 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyP2PKHRejectsMutatedSignature(t *testing.T) {
	tx, _ := p2pkhCandidate(t)
	// Flip a byte inside the DER signature push.
	tx.Inputs[0].ScriptSig[3] ^= 0xff
	ok, err := VerifyInput(tx, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyP2WPKHValidSignature(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	pubKey := priv.PubKey().SerializeCompressed()
	pubKeyHash := Hash160Sum(pubKey)

	tx := &Transaction{
		Version:  1,
		LockTime: 0,
		Inputs: []Input{{
			PrevTxID: strings.Repeat("ab", 32),
			Vout:     0,
			Prevout: Prevout{
				Value:        1000,
				Kind:         ScriptV0P2WPKH,
				ScriptPubKey: append([]byte{byte(OP_0), 20}, pubKeyHash.Bytes()...),
			},
			Sequence: 0xffffffff,
		}},
		Outputs: []Output{{Value: 900, ScriptPubKey: []byte{0x6a}}},
	}

	scriptCode := BuildP2PKHScriptCode(pubKeyHash.Bytes())
	sig := signSegwit(t, priv, tx, 0, scriptCode)
	tx.Inputs[0].Witness = [][]byte{sig, pubKey}

	ok, err := VerifyInput(tx, 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyTransactionRejectsNegativeFee(t *testing.T) {
	tx, _ := p2pkhCandidate(t)
	tx.Outputs[0].Value = 10_000
	ok, reason := VerifyTransaction(tx)
	assert.False(t, ok)
	assert.Contains(t, reason, "fee")
}
