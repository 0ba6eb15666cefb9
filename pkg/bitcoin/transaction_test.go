package bitcoin

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleLegacyTx() *Transaction {
	return &Transaction{
		Version:  1,
		LockTime: 0,
		Inputs: []Input{{
			PrevTxID:  strings.Repeat("ab", 32),
			Vout:      0,
			Prevout:   Prevout{Value: 1000, ScriptPubKey: []byte{0x76, 0xa9}},
			ScriptSig: []byte{0x01, 0x02},
			Sequence:  0xffffffff,
		}},
		Outputs: []Output{{
			Value:        900,
			ScriptPubKey: []byte{0x76, 0xa9},
		}},
	}
}

func TestSerializeLegacyWeightIsFourTimesByteLength(t *testing.T) {
	tx := simpleLegacyTx()
	forms, reason, err := tx.Serialize()
	require.NoError(t, err)
	require.Empty(t, reason)
	assert.Equal(t, uint64(len(forms.LegacyPreimage))*4, forms.Weight)
	assert.Equal(t, forms.LegacyPreimage, forms.WitnessPreimage)
	assert.Equal(t, forms.TxID, forms.WTxID)
}

func TestSerializeFee(t *testing.T) {
	tx := simpleLegacyTx()
	assert.Equal(t, int64(100), tx.Fee())
}

func TestSerializeNegativeFeeStillSerializes(t *testing.T) {
	tx := simpleLegacyTx()
	tx.Outputs[0].Value = 2000
	forms, reason, err := tx.Serialize()
	require.NoError(t, err)
	require.Empty(t, reason)
	assert.Equal(t, int64(-1000), forms.Fee)
}

func TestSerializeWitnessWeightAccountsForMarkerAndWitnessSection(t *testing.T) {
	tx := simpleLegacyTx()
	tx.Inputs[0].Witness = [][]byte{{0x01}, {0x02, 0x03}}

	forms, reason, err := tx.Serialize()
	require.NoError(t, err)
	require.Empty(t, reason)

	legacyLen := len(forms.LegacyPreimage)
	witnessLen := len(forms.WitnessPreimage)
	// marker(1) + flag(1) + witness-count(1) + two pushes (1+1, 1+2)
	assert.Equal(t, legacyLen+2+1+2+3, witnessLen)
	// Those 8 witness bytes count once; everything else counts four times.
	assert.Equal(t, uint64(legacyLen)*4+8, forms.Weight)
	assert.NotEqual(t, forms.TxID, forms.WTxID)
}

func TestSerializeGuardTripsOnOversizedScriptSig(t *testing.T) {
	tx := simpleLegacyTx()
	tx.Inputs[0].ScriptSig = make([]byte, 255)
	_, reason, err := tx.Serialize()
	require.NoError(t, err)
	assert.NotEmpty(t, reason)
}

func TestSerializeGuardTripsOnTooManyLegacyInputs(t *testing.T) {
	tx := simpleLegacyTx()
	extra := tx.Inputs[0]
	for i := 0; i < maxLegacyInputs; i++ {
		tx.Inputs = append(tx.Inputs, extra)
	}
	_, reason, err := tx.Serialize()
	require.NoError(t, err)
	assert.NotEmpty(t, reason)
}

func TestHasWitnessDetection(t *testing.T) {
	tx := simpleLegacyTx()
	assert.False(t, tx.HasWitness())
	tx.Inputs[0].Witness = [][]byte{{0x01}}
	assert.True(t, tx.HasWitness())
}

func TestParseScriptKind(t *testing.T) {
	cases := map[string]ScriptKind{
		"p2pkh":     ScriptP2PKH,
		"p2sh":      ScriptP2SH,
		"v0_p2wpkh": ScriptV0P2WPKH,
		"v0_p2wsh":  ScriptV0P2WSH,
		"p2tr":      ScriptUnknown,
		"nulldata":  ScriptUnknown,
	}
	for s, want := range cases {
		assert.Equal(t, want, ParseScriptKind(s), "scriptpubkey_type %q", s)
	}
}
