// Package script decompiles scripts into chunks, recognizes the standard
// output and input shapes, and pulls signatures, public keys and committed
// sub-scripts out of signature scripts.
package script

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/renproject/libutxo-go/errors"
)

// OP_CHECKCRYPTOCONDITION is the Komodo/Verus crypto-condition opcode. btcd
// knows it only as OP_UNKNOWN204.
const OP_CHECKCRYPTOCONDITION = 0xcc

const scriptVersion = 0

// Chunk is one decompiled script element: either a data push (Data is
// non-nil, possibly empty for OP_0) or a bare opcode.
type Chunk struct {
	Opcode byte
	Data   []byte
}

// IsPush reports whether the chunk pushes data, OP_0 included.
func (c Chunk) IsPush() bool {
	return c.Opcode <= txscript.OP_PUSHDATA4
}

// IsEmpty reports whether the chunk is an empty push (OP_0).
func (c Chunk) IsEmpty() bool {
	return c.IsPush() && len(c.Data) == 0
}

// SmallInt returns the value of an OP_1..OP_16 chunk.
func (c Chunk) SmallInt() (int, bool) {
	if c.Opcode >= txscript.OP_1 && c.Opcode <= txscript.OP_16 {
		return int(c.Opcode - (txscript.OP_1 - 1)), true
	}
	return 0, false
}

// DataChunk wraps raw bytes as a push chunk.
func DataChunk(data []byte) Chunk {
	if data == nil {
		data = []byte{}
	}
	op := byte(txscript.OP_0)
	switch n := len(data); {
	case n == 0:
	case n <= txscript.OP_DATA_75:
		op = byte(n)
	case n <= 0xff:
		op = txscript.OP_PUSHDATA1
	case n <= 0xffff:
		op = txscript.OP_PUSHDATA2
	default:
		op = txscript.OP_PUSHDATA4
	}
	return Chunk{Opcode: op, Data: data}
}

// OpChunk wraps a bare opcode.
func OpChunk(op byte) Chunk {
	return Chunk{Opcode: op}
}

// Decompile splits a script into chunks.
func Decompile(script []byte) ([]Chunk, error) {
	chunks := make([]Chunk, 0, 8)
	tokenizer := txscript.MakeScriptTokenizer(scriptVersion, script)
	for tokenizer.Next() {
		chunk := Chunk{Opcode: tokenizer.Opcode()}
		if chunk.IsPush() {
			chunk.Data = append([]byte{}, tokenizer.Data()...)
		}
		chunks = append(chunks, chunk)
	}
	if err := tokenizer.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidScript, err)
	}
	return chunks, nil
}

// Compile is the inverse of Decompile. Data chunks keep the push opcode
// chosen by DataChunk, never a small-integer opcode, so the bytes survive a
// Decompile round trip unchanged.
func Compile(chunks []Chunk) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	for _, chunk := range chunks {
		if !chunk.IsPush() {
			builder.AddOp(chunk.Opcode)
			continue
		}
		builder.AddOps(pushPrefix(len(chunk.Data)))
		builder.AddOps(chunk.Data)
	}
	return builder.Script()
}

func pushPrefix(n int) []byte {
	switch {
	case n <= txscript.OP_DATA_75:
		return []byte{byte(n)}
	case n <= 0xff:
		return []byte{txscript.OP_PUSHDATA1, byte(n)}
	case n <= 0xffff:
		return []byte{txscript.OP_PUSHDATA2, byte(n), byte(n >> 8)}
	default:
		return []byte{txscript.OP_PUSHDATA4, byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)}
	}
}

// WitnessChunks presents a witness stack as push chunks.
func WitnessChunks(witness [][]byte) []Chunk {
	chunks := make([]Chunk, len(witness))
	for i, item := range witness {
		chunks[i] = DataChunk(item)
	}
	return chunks
}

// IsPushOnly reports whether every chunk is a data push or a small integer.
func IsPushOnly(chunks []Chunk) bool {
	for _, chunk := range chunks {
		if chunk.IsPush() || chunk.Opcode == txscript.OP_1NEGATE {
			continue
		}
		if _, ok := chunk.SmallInt(); ok {
			continue
		}
		return false
	}
	return true
}

// RemoveOpcode drops every occurrence of opcode from script, leaving every
// other token byte-for-byte intact.
func RemoveOpcode(script []byte, opcode byte) ([]byte, error) {
	result := make([]byte, 0, len(script))
	var prev int32
	tokenizer := txscript.MakeScriptTokenizer(scriptVersion, script)
	for tokenizer.Next() {
		if tokenizer.Opcode() != opcode {
			result = append(result, script[prev:tokenizer.ByteIndex()]...)
		}
		prev = tokenizer.ByteIndex()
	}
	if err := tokenizer.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidScript, err)
	}
	return result, nil
}

// PayToPubKeyHashScript builds OP_DUP OP_HASH160 <hash> OP_EQUALVERIFY
// OP_CHECKSIG.
func PayToPubKeyHashScript(pubKeyHash []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(pubKeyHash).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

// PayToPubKeyScript returns the P2PKH script paying to hash160(pubKey).
func PayToPubKeyScript(pubKey []byte) ([]byte, error) {
	return PayToPubKeyHashScript(btcutil.Hash160(pubKey))
}

// PayToScriptHashScript builds OP_HASH160 <hash160(redeemScript)> OP_EQUAL.
func PayToScriptHashScript(redeemScript []byte) ([]byte, error) {
	return PayToScriptHashScriptFromHash(btcutil.Hash160(redeemScript))
}

func PayToScriptHashScriptFromHash(scriptHash []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_HASH160).
		AddData(scriptHash).
		AddOp(txscript.OP_EQUAL).
		Script()
}

// PayToWitnessScriptHashScript builds OP_0 <sha256(witnessScript)>.
func PayToWitnessScriptHashScript(witnessScript []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(chainhash.HashB(witnessScript)).
		Script()
}

// MultiSigScript builds <m> <pubkeys...> <n> OP_CHECKMULTISIG.
func MultiSigScript(m int, pubKeys [][]byte) ([]byte, error) {
	if m < 1 || m > len(pubKeys) || len(pubKeys) > 16 {
		return nil, errors.ErrInvalidRedeemScript
	}
	builder := txscript.NewScriptBuilder().AddInt64(int64(m))
	for _, pubKey := range pubKeys {
		builder.AddData(pubKey)
	}
	return builder.AddInt64(int64(len(pubKeys))).
		AddOp(txscript.OP_CHECKMULTISIG).
		Script()
}

// PubKeyHash extracts the 20-byte hash of a P2PKH script.
func PubKeyHash(script []byte) ([]byte, bool) {
	if !isPubKeyHashScript(script) {
		return nil, false
	}
	return append([]byte{}, script[3:23]...), true
}
