package libutxo

import (
	"encoding/binary"
	"hash"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	blake2b "github.com/minio/blake2b-simd"
	"github.com/renproject/libutxo-go/bufferutils"
	"github.com/renproject/libutxo-go/errors"
	"github.com/renproject/libutxo-go/network"
	"github.com/renproject/libutxo-go/script"
)

// NoTransparentInput is passed as the input index of a Zcash signature hash
// that does not sign a transparent input.
const NoTransparentInput = -1

const (
	sigHashMask = 0x1f

	zcashPrevoutHashPersonalization  = "ZcashPrevoutHash"
	zcashSequenceHashPersonalization = "ZcashSequencHash"
	zcashOutputsHashPersonalization  = "ZcashOutputsHash"
	zcashSigHashPersonalization      = "ZcashSigHash"
)

// sigHashOne is returned by the legacy algorithm for an input index or a
// SIGHASH_SINGLE output that does not exist.
func sigHashOne() []byte {
	one := make([]byte, chainhash.HashSize)
	one[chainhash.HashSize-1] = 0x01
	return one
}

// blankOutputValue is the value of outputs blanked by SIGHASH_SINGLE.
const blankOutputValue = -1

// SignatureHash returns the digest signed by input inIndex. The algorithm is
// picked from the network family, isSegwit and the fork id bit of hashType:
// Zcash-family networks always use the Zcash digest, fork id chains use the
// BIP143 digest with the fork id folded into the hash type, segwit spends use
// BIP143 and everything else uses the legacy digest.
func (tx *Tx) SignatureHash(inIndex int, prevOutScript []byte, amount int64, hashType txscript.SigHashType, isSegwit bool) ([]byte, error) {
	switch {
	case network.IsZcashCompatible(tx.Network):
		return tx.hashForZcashSignature(inIndex, prevOutScript, amount, hashType)
	case network.UsesForkID(tx.Network) && hashType&script.SigHashForkID != 0:
		return tx.hashForWitnessV0(inIndex, prevOutScript, amount, forkIDHashType(tx.Network, hashType))
	case isSegwit:
		return tx.hashForWitnessV0(inIndex, prevOutScript, amount, hashType)
	default:
		return tx.hashForSignature(inIndex, prevOutScript, hashType)
	}
}

// forkIDHashType moves the network's 24-bit fork id into the upper bits of
// the hash type.
func forkIDHashType(net *network.Network, hashType txscript.SigHashType) txscript.SigHashType {
	return hashType&0xff | txscript.SigHashType(*net.ForkID<<8)
}

func baseType(hashType txscript.SigHashType) txscript.SigHashType {
	return hashType & sigHashMask
}

func anyoneCanPay(hashType txscript.SigHashType) bool {
	return hashType&txscript.SigHashAnyOneCanPay != 0
}

// hashForSignature is the original Bitcoin digest over a modified copy of
// the transaction.
func (tx *Tx) hashForSignature(inIndex int, prevOutScript []byte, hashType txscript.SigHashType) ([]byte, error) {
	if inIndex < 0 || inIndex >= len(tx.TxIn) {
		return sigHashOne(), nil
	}
	ourScript, err := script.RemoveOpcode(prevOutScript, txscript.OP_CODESEPARATOR)
	if err != nil {
		return nil, err
	}

	txTmp := tx.Clone()
	switch baseType(hashType) {
	case txscript.SigHashNone:
		txTmp.TxOut = txTmp.TxOut[:0]
		zeroOtherSequences(txTmp, inIndex)
	case txscript.SigHashSingle:
		if inIndex >= len(tx.TxOut) {
			return sigHashOne(), nil
		}
		txTmp.TxOut = txTmp.TxOut[:inIndex+1]
		for i := 0; i < inIndex; i++ {
			txTmp.TxOut[i] = &wire.TxOut{Value: blankOutputValue}
		}
		zeroOtherSequences(txTmp, inIndex)
	}

	if anyoneCanPay(hashType) {
		txTmp.TxIn = []*wire.TxIn{txTmp.TxIn[inIndex]}
		txTmp.TxIn[0].SignatureScript = ourScript
	} else {
		for _, txIn := range txTmp.TxIn {
			txIn.SignatureScript = nil
		}
		txTmp.TxIn[inIndex].SignatureScript = ourScript
	}

	serialized, err := txTmp.ToBytes(false)
	if err != nil {
		return nil, err
	}
	preimage := make([]byte, len(serialized)+4)
	copy(preimage, serialized)
	binary.LittleEndian.PutUint32(preimage[len(serialized):], uint32(hashType))
	return chainhash.DoubleHashB(preimage), nil
}

func zeroOtherSequences(tx *Tx, inIndex int) {
	for i, txIn := range tx.TxIn {
		if i != inIndex {
			txIn.Sequence = 0
		}
	}
}

// sigHashComponents are the three aggregate hashes shared by the BIP143 and
// Zcash digests. A component excluded by the hash type stays zero.
type sigHashComponents struct {
	prevouts  [chainhash.HashSize]byte
	sequences [chainhash.HashSize]byte
	outputs   [chainhash.HashSize]byte
}

func (tx *Tx) prevoutsPreimage() []byte {
	w := bufferutils.NewWriter(len(tx.TxIn) * (chainhash.HashSize + 4))
	for _, txIn := range tx.TxIn {
		w.WriteSlice(txIn.PreviousOutPoint.Hash[:])
		w.WriteUInt32(txIn.PreviousOutPoint.Index)
	}
	buf, _ := w.Bytes()
	return buf
}

func (tx *Tx) sequencesPreimage() []byte {
	w := bufferutils.NewWriter(len(tx.TxIn) * 4)
	for _, txIn := range tx.TxIn {
		w.WriteUInt32(txIn.Sequence)
	}
	buf, _ := w.Bytes()
	return buf
}

func outputsPreimage(txOuts []*wire.TxOut) []byte {
	size := 0
	for _, txOut := range txOuts {
		size += 8 + bufferutils.VarSliceSize(txOut.PkScript)
	}
	w := bufferutils.NewWriter(size)
	for _, txOut := range txOuts {
		w.WriteInt64(txOut.Value)
		w.WriteVarSlice(txOut.PkScript)
	}
	buf, _ := w.Bytes()
	return buf
}

func (tx *Tx) components(inIndex int, hashType txscript.SigHashType, digest func(personalization string, data []byte) []byte) sigHashComponents {
	var c sigHashComponents
	base := baseType(hashType)
	if !anyoneCanPay(hashType) {
		copy(c.prevouts[:], digest(zcashPrevoutHashPersonalization, tx.prevoutsPreimage()))
	}
	if !anyoneCanPay(hashType) && base != txscript.SigHashSingle && base != txscript.SigHashNone {
		copy(c.sequences[:], digest(zcashSequenceHashPersonalization, tx.sequencesPreimage()))
	}
	switch {
	case base != txscript.SigHashSingle && base != txscript.SigHashNone:
		copy(c.outputs[:], digest(zcashOutputsHashPersonalization, outputsPreimage(tx.TxOut)))
	case base == txscript.SigHashSingle && inIndex >= 0 && inIndex < len(tx.TxOut):
		copy(c.outputs[:], digest(zcashOutputsHashPersonalization, outputsPreimage(tx.TxOut[inIndex:inIndex+1])))
	}
	return c
}

func doubleSHA256(_ string, data []byte) []byte {
	return chainhash.DoubleHashB(data)
}

// hashForWitnessV0 is the BIP143 digest.
func (tx *Tx) hashForWitnessV0(inIndex int, prevOutScript []byte, amount int64, hashType txscript.SigHashType) ([]byte, error) {
	if inIndex < 0 || inIndex >= len(tx.TxIn) {
		return nil, errors.ErrInputIndexOutOfRange
	}
	c := tx.components(inIndex, hashType, doubleSHA256)
	txIn := tx.TxIn[inIndex]

	w := bufferutils.NewWriter(4 + 3*chainhash.HashSize + chainhash.HashSize + 4 +
		bufferutils.VarSliceSize(prevOutScript) + 8 + 4 + 4 + 4)
	w.WriteInt32(tx.Version)
	w.WriteSlice(c.prevouts[:])
	w.WriteSlice(c.sequences[:])
	w.WriteSlice(txIn.PreviousOutPoint.Hash[:])
	w.WriteUInt32(txIn.PreviousOutPoint.Index)
	w.WriteVarSlice(prevOutScript)
	w.WriteInt64(amount)
	w.WriteUInt32(txIn.Sequence)
	w.WriteSlice(c.outputs[:])
	w.WriteUInt32(tx.LockTime)
	w.WriteUInt32(uint32(hashType))
	preimage, err := w.Bytes()
	if err != nil {
		return nil, err
	}
	return chainhash.DoubleHashB(preimage), nil
}

// blake2bNew256 returns a BLAKE2b-256 hash with the given personalization.
func blake2bNew256(personalization []byte) (hash.Hash, error) {
	return blake2b.New(&blake2b.Config{
		Size:   32,
		Person: personalization,
	})
}

func blake2b256(personalization string, data []byte) []byte {
	h, err := blake2bNew256([]byte(personalization))
	if err != nil {
		// personalizations are compile time constants of valid length
		panic(err)
	}
	h.Write(data)
	return h.Sum(nil)
}

// hashForZcashSignature is the ZIP-143/ZIP-243 digest. Joinsplits and
// shielded data are never present, so their hashes are always zero.
func (tx *Tx) hashForZcashSignature(inIndex int, prevOutScript []byte, amount int64, hashType txscript.SigHashType) ([]byte, error) {
	if tx.Zcash == nil {
		return nil, errors.ErrNotZcashCompatible
	}
	if !tx.IsOverwinterCompatible() {
		return nil, errors.ErrPreOverwinterSigning
	}
	if inIndex != NoTransparentInput && (inIndex < 0 || inIndex >= len(tx.TxIn)) {
		return nil, errors.ErrInputIndexOutOfRange
	}
	c := tx.components(inIndex, hashType, blake2b256)

	size := 4 + 4 + 4*chainhash.HashSize + 4 + 4 + 4
	if tx.IsSaplingCompatible() {
		size += 2*chainhash.HashSize + 8
	}
	if inIndex != NoTransparentInput {
		size += chainhash.HashSize + 4 + bufferutils.VarSliceSize(prevOutScript) + 8 + 4
	}

	var zero [chainhash.HashSize]byte
	w := bufferutils.NewWriter(size)
	w.WriteUInt32(tx.header())
	w.WriteUInt32(tx.Zcash.VersionGroupID)
	w.WriteSlice(c.prevouts[:])
	w.WriteSlice(c.sequences[:])
	w.WriteSlice(c.outputs[:])
	w.WriteSlice(zero[:]) // joinsplits
	if tx.IsSaplingCompatible() {
		w.WriteSlice(zero[:]) // shielded spends
		w.WriteSlice(zero[:]) // shielded outputs
	}
	w.WriteUInt32(tx.LockTime)
	w.WriteUInt32(tx.Zcash.ExpiryHeight)
	if tx.IsSaplingCompatible() {
		w.WriteInt64(0) // value balance
	}
	w.WriteUInt32(uint32(hashType))
	if inIndex != NoTransparentInput {
		txIn := tx.TxIn[inIndex]
		w.WriteSlice(txIn.PreviousOutPoint.Hash[:])
		w.WriteUInt32(txIn.PreviousOutPoint.Index)
		w.WriteVarSlice(prevOutScript)
		w.WriteInt64(amount)
		w.WriteUInt32(txIn.Sequence)
	}
	preimage, err := w.Bytes()
	if err != nil {
		return nil, err
	}

	personalization := make([]byte, 16)
	copy(personalization, zcashSigHashPersonalization)
	binary.LittleEndian.PutUint32(personalization[12:], tx.Zcash.ConsensusBranchID)
	h, err := blake2bNew256(personalization)
	if err != nil {
		return nil, err
	}
	h.Write(preimage)
	return h.Sum(nil), nil
}
