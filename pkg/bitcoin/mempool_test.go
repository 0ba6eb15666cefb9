package bitcoin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTxJSON = `{
  "version": 1,
  "locktime": 0,
  "vin": [
    {
      "txid": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
      "vout": 0,
      "prevout": {
        "scriptpubkey": "76a9",
        "scriptpubkey_asm": "OP_DUP OP_HASH160",
        "scriptpubkey_type": "p2pkh",
        "scriptpubkey_address": "1Example",
        "value": 1000
      },
      "scriptsig": "0102",
      "scriptsig_asm": "",
      "witness": [],
      "is_coinbase": false,
      "sequence": 4294967295
    }
  ],
  "vout": [
    {
      "scriptpubkey": "6a",
      "scriptpubkey_asm": "OP_RETURN",
      "scriptpubkey_type": "nulldata",
      "scriptpubkey_address": "",
      "value": 900
    }
  ]
}`

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	return log
}

func TestLoadMempoolDirDecodesValidEntries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tx1.json"), []byte(sampleTxJSON), 0o644))

	txs, err := LoadMempoolDir(dir, newTestLogger())
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, int32(1), txs[0].Version)
	require.Len(t, txs[0].Inputs, 1)
	assert.Equal(t, ScriptP2PKH, txs[0].Inputs[0].Prevout.Kind)
	assert.Equal(t, uint64(1000), txs[0].Inputs[0].Prevout.Value)
}

func TestLoadMempoolDirSkipsMalformedEntries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.json"), []byte(sampleTxJSON), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("irrelevant"), 0o644))

	txs, err := LoadMempoolDir(dir, newTestLogger())
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestLoadMempoolDirMissingDirectoryErrors(t *testing.T) {
	_, err := LoadMempoolDir(filepath.Join(t.TempDir(), "does-not-exist"), newTestLogger())
	assert.Error(t, err)
}
