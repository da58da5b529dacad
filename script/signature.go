package script

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/renproject/libutxo-go/errors"
)

// SignatureScript is the structured content of an input's spending data.
type SignatureScript struct {
	Class      Class
	Signatures [][]byte
	PublicKeys [][]byte
	// PubScript is the script the signatures commit to: the P2PKH script of
	// the public key, or the redeem/witness script of a P2SH/P2WSH spend.
	PubScript []byte
}

// ParseSignatureScript extracts signatures, public keys and the committed
// script from an input. A non-empty witness takes precedence over the
// signature script. Shapes other than P2PKH, P2SH and P2WSH come back with
// only the class set.
func ParseSignatureScript(sigScript []byte, witness [][]byte) (*SignatureScript, error) {
	var chunks []Chunk
	var class Class
	if len(witness) > 0 {
		chunks = WitnessChunks(witness)
		class = classifyWitnessChunks(chunks, true)
	} else {
		var err error
		if chunks, err = Decompile(sigScript); err != nil {
			return nil, err
		}
		class = classifyInputChunks(chunks, true)
	}

	parsed := &SignatureScript{Class: class}
	switch class {
	case PubKeyHashTy:
		pubScript, err := PayToPubKeyScript(chunks[1].Data)
		if err != nil {
			return nil, err
		}
		parsed.Signatures = [][]byte{chunks[0].Data}
		parsed.PublicKeys = [][]byte{chunks[1].Data}
		parsed.PubScript = pubScript
	case ScriptHashTy, WitnessV0ScriptHashTy:
		if err := parseMultiSigSpend(parsed, chunks); err != nil {
			return nil, err
		}
	}
	return parsed, nil
}

// parseMultiSigSpend handles the m-of-3 multisig spend, where the signature
// part may carry one extra OP_0 placeholder per missing signature.
func parseMultiSigSpend(parsed *SignatureScript, chunks []Chunk) error {
	if len(chunks) != 4 && len(chunks) != 5 {
		return fmt.Errorf("%w: expected 4 or 5 elements, got %d",
			errors.ErrSignatureCountMismatch, len(chunks))
	}
	pubScript := chunks[len(chunks)-1].Data
	redeem, err := Decompile(pubScript)
	if err != nil {
		return err
	}
	if len(redeem) != 6 {
		return fmt.Errorf("%w: expected 6 elements, got %d",
			errors.ErrInvalidRedeemScript, len(redeem))
	}
	m, ok := redeem[0].SmallInt()
	if !ok {
		return errors.ErrInvalidRedeemScript
	}
	n, ok := redeem[4].SmallInt()
	if !ok {
		return errors.ErrInvalidRedeemScript
	}
	if redeem[5].Opcode != txscript.OP_CHECKMULTISIG {
		return errors.ErrNotCheckMultisig
	}

	pubKeys := make([][]byte, 0, 3)
	for _, chunk := range redeem[1:4] {
		if !chunk.IsPush() || len(chunk.Data) == 0 {
			return errors.ErrInvalidRedeemScript
		}
		pubKeys = append(pubKeys, chunk.Data)
	}
	if len(pubKeys) != n {
		return fmt.Errorf("%w: redeem script declares %d keys, has %d",
			errors.ErrPublicKeyCountMismatch, n, len(pubKeys))
	}

	signatures := make([][]byte, 0, len(chunks)-1)
	for _, chunk := range chunks[:len(chunks)-1] {
		signatures = append(signatures, chunk.Data)
	}
	if len(signatures) != n+1 && len(signatures) != m+1 {
		return fmt.Errorf("%w: got %d for %d-of-%d",
			errors.ErrSignatureCountMismatch, len(signatures), m, n)
	}

	parsed.Signatures = signatures
	parsed.PublicKeys = pubKeys
	parsed.PubScript = pubScript
	return nil
}
