// Package utxoset holds the unspent outputs a caller supplies for validating
// a funded transaction.
package utxoset

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// UTXO is an unspent output as reported by an explorer or wallet. TxID is
// the display (byte reversed) transaction id.
type UTXO struct {
	TxID        string `json:"txid"`
	OutputIndex uint32 `json:"outputIndex"`
	Script      string `json:"script"`
	Satoshis    int64  `json:"satoshis"`
}

// OutPoint returns the outpoint spending this output.
func (utxo UTXO) OutPoint() (wire.OutPoint, error) {
	hash, err := chainhash.NewHashFromStr(utxo.TxID)
	if err != nil {
		return wire.OutPoint{}, fmt.Errorf("invalid txid %s: %v", utxo.TxID, err)
	}
	return *wire.NewOutPoint(hash, utxo.OutputIndex), nil
}

// TxOut decodes the output the UTXO describes.
func (utxo UTXO) TxOut() (*wire.TxOut, error) {
	pkScript, err := hex.DecodeString(utxo.Script)
	if err != nil {
		return nil, fmt.Errorf("invalid script of %s:%d: %v", utxo.TxID, utxo.OutputIndex, err)
	}
	return wire.NewTxOut(utxo.Satoshis, pkScript), nil
}

// Lookup resolves the output a transaction input spends.
type Lookup interface {
	// GetUTXO returns the output at index vout of the transaction with the
	// display id txHash.
	GetUTXO(txHash string, vout uint32) (UTXO, error)
}

// Set indexes a list of UTXOs by outpoint.
type Set struct {
	utxos map[wire.OutPoint]UTXO
}

// New indexes utxos. Later entries for the same outpoint replace earlier
// ones.
func New(utxos []UTXO) (*Set, error) {
	set := &Set{utxos: make(map[wire.OutPoint]UTXO, len(utxos))}
	for _, utxo := range utxos {
		outpoint, err := utxo.OutPoint()
		if err != nil {
			return nil, err
		}
		set.utxos[outpoint] = utxo
	}
	return set, nil
}

// FromJSON parses a JSON array of UTXOs.
func FromJSON(data []byte) (*Set, error) {
	var utxos []UTXO
	if err := json.Unmarshal(data, &utxos); err != nil {
		return nil, err
	}
	return New(utxos)
}

func (set *Set) Len() int {
	return len(set.utxos)
}

// Get returns the UTXO spent by outpoint.
func (set *Set) Get(outpoint wire.OutPoint) (UTXO, bool) {
	utxo, ok := set.utxos[outpoint]
	return utxo, ok
}

func (set *Set) GetUTXO(txHash string, vout uint32) (UTXO, error) {
	hash, err := chainhash.NewHashFromStr(txHash)
	if err != nil {
		return UTXO{}, fmt.Errorf("invalid txid %s: %v", txHash, err)
	}
	utxo, ok := set.Get(*wire.NewOutPoint(hash, vout))
	if !ok {
		return UTXO{}, fmt.Errorf("utxo %s:%d not found", txHash, vout)
	}
	return utxo, nil
}
