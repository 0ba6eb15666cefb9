package bitcoin

import "fmt"

// PrevoutIndex is a map-keyed lookup from outpoint to the Output it refers
// to, built across every transaction a mempool directory scan discovers.
// It is adapted from this codebase's original UTXO-set lookup table: where
// that type tracked spendable balances for a full node, this one exists
// purely to let the verifier enrich an Input's embedded Prevout from the
// secondary `./mempool` directory (base spec §6) when the primary
// `./valid-mempool` entry's embedded prevout is incomplete.
type PrevoutIndex struct {
	byOutpoint map[string]Prevout
}

// NewPrevoutIndex builds an empty index.
func NewPrevoutIndex() *PrevoutIndex {
	return &PrevoutIndex{byOutpoint: make(map[string]Prevout)}
}

func outpointKey(txid string, vout uint32) string {
	return fmt.Sprintf("%s:%d", txid, vout)
}

// Index records every output of tx under its own txid, keyed by vout, so
// later inputs referencing tx can be enriched.
func (idx *PrevoutIndex) Index(txid string, tx *Transaction) {
	for vout, out := range tx.Outputs {
		idx.byOutpoint[outpointKey(txid, uint32(vout))] = Prevout{
			ScriptPubKey: out.ScriptPubKey,
			Kind:         out.Kind,
			Address:      out.Address,
			Value:        out.Value,
		}
	}
}

// Lookup returns the Prevout for (txid, vout), if known.
func (idx *PrevoutIndex) Lookup(txid string, vout uint32) (Prevout, bool) {
	p, ok := idx.byOutpoint[outpointKey(txid, vout)]
	return p, ok
}

// EnrichMissingPrevouts fills in any Input whose embedded Prevout carries
// no scriptpubkey bytes (the primary mempool entry omitted it) from idx,
// leaving already-populated inputs untouched.
func EnrichMissingPrevouts(tx *Transaction, idx *PrevoutIndex) {
	for i := range tx.Inputs {
		in := &tx.Inputs[i]
		if len(in.Prevout.ScriptPubKey) != 0 {
			continue
		}
		if p, ok := idx.Lookup(in.PrevTxID, in.Vout); ok {
			in.Prevout = p
		}
	}
}

// Size reports how many outpoints the index currently tracks.
func (idx *PrevoutIndex) Size() int {
	return len(idx.byOutpoint)
}
