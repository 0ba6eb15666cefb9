package bitcoin

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// mempoolPrevoutJSON mirrors the "prevout" object embedded in every vin entry.
type mempoolPrevoutJSON struct {
	ScriptPubKey        string `json:"scriptpubkey"`
	ScriptPubKeyASM     string `json:"scriptpubkey_asm"`
	ScriptPubKeyType    string `json:"scriptpubkey_type"`
	ScriptPubKeyAddress string `json:"scriptpubkey_address"`
	Value               uint64 `json:"value"`
}

type mempoolVinJSON struct {
	TxID                 string              `json:"txid"`
	Vout                 uint32              `json:"vout"`
	Prevout              mempoolPrevoutJSON  `json:"prevout"`
	ScriptSig            string              `json:"scriptsig"`
	ScriptSigASM         string              `json:"scriptsig_asm"`
	Witness              []string            `json:"witness"`
	IsCoinbase           bool                `json:"is_coinbase"`
	Sequence             uint32              `json:"sequence"`
	InnerRedeemScriptASM string              `json:"inner_redeemscript_asm"`
}

type mempoolVoutJSON struct {
	ScriptPubKey        string `json:"scriptpubkey"`
	ScriptPubKeyASM     string `json:"scriptpubkey_asm"`
	ScriptPubKeyType    string `json:"scriptpubkey_type"`
	ScriptPubKeyAddress string `json:"scriptpubkey_address"`
	Value               uint64 `json:"value"`
}

type mempoolTxJSON struct {
	Version  int32              `json:"version"`
	LockTime uint32             `json:"locktime"`
	Vin      []mempoolVinJSON   `json:"vin"`
	Vout     []mempoolVoutJSON  `json:"vout"`
}

// decodeTransaction converts the wire JSON schema (base spec §6) into the
// in-memory Transaction model.
func decodeTransaction(raw mempoolTxJSON) (*Transaction, error) {
	tx := &Transaction{
		Version:  raw.Version,
		LockTime: raw.LockTime,
	}

	for idx, vin := range raw.Vin {
		scriptSig, err := hex.DecodeString(vin.ScriptSig)
		if err != nil {
			return nil, fmt.Errorf("vin %d: invalid scriptsig hex: %w", idx, err)
		}
		prevoutScript, err := hex.DecodeString(vin.Prevout.ScriptPubKey)
		if err != nil {
			return nil, fmt.Errorf("vin %d: invalid prevout scriptpubkey hex: %w", idx, err)
		}
		witness := make([][]byte, 0, len(vin.Witness))
		for wi, w := range vin.Witness {
			item, err := hex.DecodeString(w)
			if err != nil {
				return nil, fmt.Errorf("vin %d: invalid witness item %d hex: %w", idx, wi, err)
			}
			witness = append(witness, item)
		}

		tx.Inputs = append(tx.Inputs, Input{
			PrevTxID: vin.TxID,
			Vout:     vin.Vout,
			Prevout: Prevout{
				ScriptPubKey: prevoutScript,
				Kind:         ParseScriptKind(vin.Prevout.ScriptPubKeyType),
				ASM:          vin.Prevout.ScriptPubKeyASM,
				Address:      vin.Prevout.ScriptPubKeyAddress,
				Value:        vin.Prevout.Value,
			},
			ScriptSig:            scriptSig,
			ScriptSigASM:         vin.ScriptSigASM,
			Witness:              witness,
			InnerRedeemScriptASM: vin.InnerRedeemScriptASM,
			Sequence:             vin.Sequence,
			IsCoinbase:           vin.IsCoinbase,
		})
	}

	for idx, vout := range raw.Vout {
		script, err := hex.DecodeString(vout.ScriptPubKey)
		if err != nil {
			return nil, fmt.Errorf("vout %d: invalid scriptpubkey hex: %w", idx, err)
		}
		tx.Outputs = append(tx.Outputs, Output{
			ScriptPubKey: script,
			Kind:         ParseScriptKind(vout.ScriptPubKeyType),
			Address:      vout.ScriptPubKeyAddress,
			Value:        vout.Value,
		})
	}

	return tx, nil
}

// LoadMempoolDir reads every *.json file in dir and decodes it into a
// Transaction. Malformed files are skipped with a warning rather than
// aborting the run (tier-1 error handling, base spec §7) — this is the
// expected path for a directory seeded with both valid and invalid mempool
// snapshots.
func LoadMempoolDir(dir string, log *logrus.Logger) ([]*Transaction, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading mempool directory %q: %w", dir, err)
	}

	txs := make([]*Transaction, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.WithError(err).WithField("file", path).Warn("skipping unreadable mempool entry")
			continue
		}
		var raw mempoolTxJSON
		if err := json.Unmarshal(data, &raw); err != nil {
			log.WithError(err).WithField("file", path).Warn("skipping malformed mempool entry")
			continue
		}
		tx, err := decodeTransaction(raw)
		if err != nil {
			log.WithError(err).WithField("file", path).Warn("skipping mempool entry with invalid field encoding")
			continue
		}
		txs = append(txs, tx)
	}
	return txs, nil
}
