package script

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/txscript"
)

// Class is an enumeration of the script shapes this library recognizes.
type Class byte

const (
	NonStandardTy         Class = iota // None of the recognized forms.
	PubKeyHashTy                       // Pay pubkey hash.
	ScriptHashTy                       // Pay to script hash.
	WitnessV0ScriptHashTy              // Pay to witness script hash.
	WitnessV0PubKeyHashTy              // Pay witness pubkey hash.
	PubKeyTy                           // Pay pubkey.
	MultiSigTy                         // Bare multi signature.
	NullDataTy                         // Empty data-only (provably prunable).
	CryptoConditionTy                  // Smart transaction.
)

var classToName = []string{
	NonStandardTy:         "nonstandard",
	PubKeyHashTy:          "pubkeyhash",
	ScriptHashTy:          "scripthash",
	WitnessV0ScriptHashTy: "witnessscripthash",
	WitnessV0PubKeyHashTy: "witnesspubkeyhash",
	PubKeyTy:              "pubkey",
	MultiSigTy:            "multisig",
	NullDataTy:            "nulldata",
	CryptoConditionTy:     "cryptocondition",
}

func (c Class) String() string {
	if int(c) >= len(classToName) {
		return "Invalid"
	}
	return classToName[c]
}

func isPubKeyHashScript(script []byte) bool {
	return len(script) == 25 &&
		script[0] == txscript.OP_DUP &&
		script[1] == txscript.OP_HASH160 &&
		script[2] == txscript.OP_DATA_20 &&
		script[23] == txscript.OP_EQUALVERIFY &&
		script[24] == txscript.OP_CHECKSIG
}

func isScriptHashScript(script []byte) bool {
	return len(script) == 23 &&
		script[0] == txscript.OP_HASH160 &&
		script[1] == txscript.OP_DATA_20 &&
		script[22] == txscript.OP_EQUAL
}

func isWitnessScriptHashScript(script []byte) bool {
	return len(script) == 34 &&
		script[0] == txscript.OP_0 &&
		script[1] == txscript.OP_DATA_32
}

func isWitnessPubKeyHashScript(script []byte) bool {
	return len(script) == 22 &&
		script[0] == txscript.OP_0 &&
		script[1] == txscript.OP_DATA_20
}

func isPubKeyScript(chunks []Chunk) bool {
	return len(chunks) == 2 &&
		chunks[0].IsPush() && IsCanonicalPubKey(chunks[0].Data) &&
		chunks[1].Opcode == txscript.OP_CHECKSIG
}

// isMultiSigScript matches <m> <pubkey>... <n> OP_CHECKMULTISIG.
func isMultiSigScript(chunks []Chunk) bool {
	if len(chunks) < 4 || chunks[len(chunks)-1].Opcode != txscript.OP_CHECKMULTISIG {
		return false
	}
	m, ok := chunks[0].SmallInt()
	if !ok {
		return false
	}
	n, ok := chunks[len(chunks)-2].SmallInt()
	if !ok || m > n || n != len(chunks)-3 {
		return false
	}
	for _, chunk := range chunks[1 : len(chunks)-2] {
		if !chunk.IsPush() || !IsCanonicalPubKey(chunk.Data) {
			return false
		}
	}
	return true
}

func isNullDataScript(chunks []Chunk) bool {
	return len(chunks) >= 1 &&
		chunks[0].Opcode == txscript.OP_RETURN &&
		IsPushOnly(chunks[1:])
}

// isCryptoConditionScript matches
// <master> OP_CHECKCRYPTOCONDITION <params>... OP_DROP.
func isCryptoConditionScript(chunks []Chunk) bool {
	if len(chunks) < 4 ||
		!chunks[0].IsPush() || len(chunks[0].Data) == 0 ||
		chunks[1].Opcode != OP_CHECKCRYPTOCONDITION ||
		chunks[len(chunks)-1].Opcode != txscript.OP_DROP {
		return false
	}
	for _, chunk := range chunks[2 : len(chunks)-1] {
		if !chunk.IsPush() || len(chunk.Data) == 0 {
			return false
		}
	}
	return true
}

// ClassifyOutput returns the class of an output script. Shapes are tested
// in a fixed priority order and the first match wins.
func ClassifyOutput(script []byte) Class {
	if isPubKeyHashScript(script) {
		return PubKeyHashTy
	}
	if isScriptHashScript(script) {
		return ScriptHashTy
	}
	if isWitnessScriptHashScript(script) {
		return WitnessV0ScriptHashTy
	}
	if isWitnessPubKeyHashScript(script) {
		return WitnessV0PubKeyHashTy
	}
	chunks, err := Decompile(script)
	if err != nil {
		return NonStandardTy
	}
	if isPubKeyScript(chunks) {
		return PubKeyTy
	}
	if isMultiSigScript(chunks) {
		return MultiSigTy
	}
	if isNullDataScript(chunks) {
		return NullDataTy
	}
	if isCryptoConditionScript(chunks) {
		return CryptoConditionTy
	}
	return NonStandardTy
}

// IsCanonicalPubKey reports whether data is a valid compressed or
// uncompressed secp256k1 public key.
func IsCanonicalPubKey(data []byte) bool {
	switch {
	case len(data) == 33 && (data[0] == 0x02 || data[0] == 0x03):
	case len(data) == 65 && data[0] == 0x04:
	default:
		return false
	}
	_, err := btcec.ParsePubKey(data)
	return err == nil
}

// IsCanonicalSignature reports whether data is a strict DER signature
// followed by a defined hash type byte. The fork id bit is tolerated.
func IsCanonicalSignature(data []byte) bool {
	if len(data) < 9 {
		return false
	}
	hashType := txscript.SigHashType(data[len(data)-1])
	baseType := hashType &^ (txscript.SigHashAnyOneCanPay | SigHashForkID)
	if baseType < txscript.SigHashAll || baseType > txscript.SigHashSingle {
		return false
	}
	_, err := ecdsa.ParseDERSignature(data[:len(data)-1])
	return err == nil
}

// SigHashForkID is the Bitcoin Cash replay-protection hash type bit.
const SigHashForkID txscript.SigHashType = 0x40

func isPartialSignature(chunk Chunk) bool {
	return chunk.IsEmpty() || (chunk.IsPush() && IsCanonicalSignature(chunk.Data))
}

func isPubKeyHashInput(chunks []Chunk) bool {
	return len(chunks) == 2 &&
		chunks[0].IsPush() && IsCanonicalSignature(chunks[0].Data) &&
		chunks[1].IsPush() && IsCanonicalPubKey(chunks[1].Data)
}

func isPubKeyInput(chunks []Chunk) bool {
	return len(chunks) == 1 &&
		chunks[0].IsPush() && IsCanonicalSignature(chunks[0].Data)
}

// isMultiSigInput matches OP_0 <sig>... where missing signatures may be OP_0
// placeholders when allowIncomplete is set.
func isMultiSigInput(chunks []Chunk, allowIncomplete bool) bool {
	if len(chunks) < 2 || !chunks[0].IsEmpty() {
		return false
	}
	for _, chunk := range chunks[1:] {
		if allowIncomplete {
			if !isPartialSignature(chunk) {
				return false
			}
			continue
		}
		if !chunk.IsPush() || !IsCanonicalSignature(chunk.Data) {
			return false
		}
	}
	return true
}

// matchesRedeemScript checks that the spending chunks fit the committed
// sub-script.
func matchesRedeemScript(spend, redeem []Chunk, redeemScript []byte, allowIncomplete bool) bool {
	if isPubKeyHashInput(spend) && isPubKeyHashScript(redeemScript) {
		return true
	}
	if isMultiSigInput(spend, allowIncomplete) && isMultiSigScript(redeem) {
		return true
	}
	return isPubKeyInput(spend) && isPubKeyScript(redeem)
}

func isScriptHashInput(chunks []Chunk, allowIncomplete bool) bool {
	if len(chunks) < 1 {
		return false
	}
	last := chunks[len(chunks)-1]
	if !last.IsPush() || len(last.Data) == 0 {
		return false
	}
	redeem, err := Decompile(last.Data)
	if err != nil || len(redeem) == 0 {
		return false
	}
	spend := chunks[:len(chunks)-1]
	if !IsPushOnly(spend) {
		return false
	}
	if len(chunks) == 1 {
		return isWitnessScriptHashScript(last.Data) || isWitnessPubKeyHashScript(last.Data)
	}
	return matchesRedeemScript(spend, redeem, last.Data, allowIncomplete)
}

// ClassifyInput returns the class of a signature script.
func ClassifyInput(sigScript []byte, allowIncomplete bool) Class {
	chunks, err := Decompile(sigScript)
	if err != nil {
		return NonStandardTy
	}
	return classifyInputChunks(chunks, allowIncomplete)
}

func classifyInputChunks(chunks []Chunk, allowIncomplete bool) Class {
	if isPubKeyHashInput(chunks) {
		return PubKeyHashTy
	}
	if isScriptHashInput(chunks, allowIncomplete) {
		return ScriptHashTy
	}
	if isMultiSigInput(chunks, allowIncomplete) {
		return MultiSigTy
	}
	if isPubKeyInput(chunks) {
		return PubKeyTy
	}
	return NonStandardTy
}

// ClassifyWitness returns the class of a witness stack.
func ClassifyWitness(witness [][]byte, allowIncomplete bool) Class {
	return classifyWitnessChunks(WitnessChunks(witness), allowIncomplete)
}

func classifyWitnessChunks(chunks []Chunk, allowIncomplete bool) Class {
	if len(chunks) == 2 &&
		IsCanonicalSignature(chunks[0].Data) &&
		len(chunks[1].Data) == 33 && IsCanonicalPubKey(chunks[1].Data) {

		return WitnessV0PubKeyHashTy
	}
	if len(chunks) < 1 {
		return NonStandardTy
	}
	witnessScript := chunks[len(chunks)-1].Data
	redeem, err := Decompile(witnessScript)
	if err != nil || len(redeem) == 0 {
		return NonStandardTy
	}
	if matchesRedeemScript(chunks[:len(chunks)-1], redeem, witnessScript, allowIncomplete) {
		return WitnessV0ScriptHashTy
	}
	return NonStandardTy
}
