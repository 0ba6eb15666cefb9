package bitcoin

import (
	"bytes"
	"encoding/hex"
	"os"
)

// WriteOutput emits the base spec §6 output file: the serialized header as
// 160 hex chars, the witness-form coinbase hex, then one display-order
// txid per line starting with the coinbase.
func WriteOutput(path string, assembled *AssembledBlock) error {
	var buf bytes.Buffer
	buf.WriteString(hex.EncodeToString(assembled.Header.Serialize()))
	buf.WriteByte('\n')
	buf.WriteString(assembled.CoinbaseHex)
	buf.WriteByte('\n')
	for _, txid := range assembled.TxIDs {
		buf.WriteString(txid)
		buf.WriteByte('\n')
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
