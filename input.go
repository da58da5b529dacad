package libutxo

import (
	"github.com/renproject/libutxo-go/errors"
	"github.com/renproject/libutxo-go/script"
)

// ParseSignatureScript classifies input inIndex and extracts its signatures,
// public keys and the script they commit to.
func (tx *Tx) ParseSignatureScript(inIndex int) (*script.SignatureScript, error) {
	if inIndex < 0 || inIndex >= len(tx.TxIn) {
		return nil, errors.ErrInputIndexOutOfRange
	}
	txIn := tx.TxIn[inIndex]
	return script.ParseSignatureScript(txIn.SignatureScript, txIn.Witness)
}

// IsSegwitInput reports whether input inIndex is signed with the BIP143
// digest.
func (tx *Tx) IsSegwitInput(inIndex int) bool {
	return tx.Zcash == nil && len(tx.TxIn[inIndex].Witness) > 0
}
