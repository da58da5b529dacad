package libutxo

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/txscript"
	"github.com/renproject/libutxo-go/network"
	"github.com/renproject/libutxo-go/script"
)

// VerifyOptions narrows what Verify checks. Amount is the value of the spent
// output; it is required by every digest except the legacy one.
type VerifyOptions struct {
	Amount *int64
	// SignatureIndex checks only this signature (counting non-empty
	// signatures) against any of the keys.
	SignatureIndex *int
	// PublicKey checks every signature against this key only.
	PublicKey []byte
}

// Verify checks the signatures of input inIndex. Without options every
// non-empty signature must match a distinct public key. Verify never fails
// with an error: anything malformed is simply not verified.
func (tx *Tx) Verify(inIndex int, opts VerifyOptions) bool {
	parsed, err := tx.ParseSignatureScript(inIndex)
	if err != nil {
		return false
	}
	switch parsed.Class {
	case script.PubKeyHashTy, script.ScriptHashTy, script.WitnessV0ScriptHashTy:
	default:
		return false
	}
	if len(parsed.PublicKeys) == 0 {
		return false
	}

	signatures := make([][]byte, 0, len(parsed.Signatures))
	for _, sig := range parsed.Signatures {
		if len(sig) > 0 {
			signatures = append(signatures, sig)
		}
	}
	if opts.SignatureIndex != nil {
		if *opts.SignatureIndex < 0 || *opts.SignatureIndex >= len(signatures) {
			return false
		}
		signatures = [][]byte{signatures[*opts.SignatureIndex]}
	}
	if len(signatures) == 0 {
		return false
	}

	isSegwit := tx.IsSegwitInput(inIndex)
	pubKeys := parsed.PublicKeys
	if opts.PublicKey != nil {
		pubKeys = [][]byte{opts.PublicKey}
	}
	matched := make([]bool, len(pubKeys))

	for _, sig := range signatures {
		hashType := txscript.SigHashType(sig[len(sig)-1])
		if hashType == 0 {
			return false
		}
		if opts.Amount == nil && tx.requiresAmount(isSegwit, hashType) {
			return false
		}
		var amount int64
		if opts.Amount != nil {
			amount = *opts.Amount
		}
		signature, err := ecdsa.ParseDERSignature(sig[:len(sig)-1])
		if err != nil {
			return false
		}
		hash, err := tx.SignatureHash(inIndex, parsed.PubScript, amount, hashType, isSegwit)
		if err != nil {
			return false
		}

		found := false
		for i, pubKeyBytes := range pubKeys {
			if matched[i] && opts.PublicKey == nil && opts.SignatureIndex == nil {
				continue
			}
			pubKey, err := btcec.ParsePubKey(pubKeyBytes)
			if err != nil {
				continue
			}
			if signature.Verify(hash, pubKey) {
				matched[i] = true
				found = true
				break
			}
		}
		switch {
		case found && (opts.PublicKey != nil || opts.SignatureIndex != nil):
			return true
		case !found && opts.PublicKey == nil && opts.SignatureIndex == nil:
			return false
		}
	}
	// with a public key or a signature index, reaching here means no match
	return opts.PublicKey == nil && opts.SignatureIndex == nil
}

func (tx *Tx) requiresAmount(isSegwit bool, hashType txscript.SigHashType) bool {
	return isSegwit ||
		network.IsZcashCompatible(tx.Network) ||
		(network.UsesForkID(tx.Network) && hashType&script.SigHashForkID != 0)
}
