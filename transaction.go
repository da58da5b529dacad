// Package libutxo parses, serializes, signs and verifies transactions of the
// Bitcoin family of chains, including the Zcash and Dash variants of the
// transaction format.
package libutxo

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/renproject/libutxo-go/bufferutils"
	"github.com/renproject/libutxo-go/errors"
	"github.com/renproject/libutxo-go/network"
)

const (
	OverwinterVersionGroupID uint32 = 0x03c48270
	SaplingVersionGroupID    uint32 = 0x892f2085

	ZcashOverwinterVersion = 3
	ZcashSaplingVersion    = 4
	zcashJoinSplitsVersion = 2

	overwinteredFlag uint32 = 1 << 31

	DashSpecialTxVersion = 3

	witnessMarker = 0x00
	witnessFlag   = 0x01

	// minimum encoded sizes, used to bound counts before allocating
	minTxInSize  = 32 + 4 + 1 + 4
	minTxOutSize = 8 + 1
)

// ZcashFields holds the header and trailer fields of Zcash-family
// transactions.
type ZcashFields struct {
	Overwintered      bool
	VersionGroupID    uint32
	ExpiryHeight      uint32
	ConsensusBranchID uint32
}

// SpecialTxType is the Dash special transaction type.
type SpecialTxType uint16

const (
	SpecialTxNormal SpecialTxType = iota
	SpecialTxProviderRegister
	SpecialTxProviderUpdateService
	SpecialTxProviderUpdateRegistrar
	SpecialTxProviderUpdateRevoke
	SpecialTxCoinbase
	SpecialTxQuorumCommitment
)

var specialTxTypeToName = []string{
	SpecialTxNormal:                  "normal",
	SpecialTxProviderRegister:        "provider_register",
	SpecialTxProviderUpdateService:   "provider_update_service",
	SpecialTxProviderUpdateRegistrar: "provider_update_registrar",
	SpecialTxProviderUpdateRevoke:    "provider_update_revoke",
	SpecialTxCoinbase:                "coinbase",
	SpecialTxQuorumCommitment:        "quorum_commitment",
}

func (t SpecialTxType) String() string {
	if int(t) >= len(specialTxTypeToName) {
		return fmt.Sprintf("SpecialTxType(%d)", uint16(t))
	}
	return specialTxTypeToName[t]
}

// DashFields holds the special transaction fields of Dash transactions.
type DashFields struct {
	Type         SpecialTxType
	ExtraPayload []byte
}

// Tx is a transaction of a specific network. At most one of Zcash and Dash is
// set, chosen by the network family.
type Tx struct {
	*wire.MsgTx
	Network *network.Network
	Zcash   *ZcashFields
	Dash    *DashFields
}

// NewTx returns an empty transaction of the given version. Zcash-family
// versions from overwinter onwards are marked overwintered and must have a
// consensus branch id on the network.
func NewTx(net *network.Network, version int32) (*Tx, error) {
	tx := &Tx{MsgTx: wire.NewMsgTx(version), Network: net}
	switch {
	case network.IsZcashCompatible(net):
		tx.Zcash = &ZcashFields{Overwintered: version >= ZcashOverwinterVersion}
		branchID, ok := net.BranchID(version)
		if !ok && tx.Zcash.Overwintered {
			return nil, errors.NewErrUnsupportedVersion(version)
		}
		tx.Zcash.ConsensusBranchID = branchID
		switch {
		case version >= ZcashSaplingVersion:
			tx.Zcash.VersionGroupID = SaplingVersionGroupID
		case version == ZcashOverwinterVersion:
			tx.Zcash.VersionGroupID = OverwinterVersionGroupID
		}
	case network.IsDash(net):
		tx.Dash = &DashFields{}
	}
	return tx, nil
}

// IsOverwinterCompatible reports whether the transaction carries the
// overwinter header fields.
func (tx *Tx) IsOverwinterCompatible() bool {
	return tx.Zcash != nil && tx.Zcash.Overwintered && tx.Version >= ZcashOverwinterVersion
}

// IsSaplingCompatible reports whether the transaction carries the (empty)
// sapling shielded fields.
func (tx *Tx) IsSaplingCompatible() bool {
	return tx.IsOverwinterCompatible() && tx.Version >= ZcashSaplingVersion
}

// SupportsJoinSplits reports whether the transaction carries a joinsplit
// count.
func (tx *Tx) SupportsJoinSplits() bool {
	return tx.Zcash != nil && tx.Version >= zcashJoinSplitsVersion
}

// HasWitnesses reports whether any input carries witness data.
func (tx *Tx) HasWitnesses() bool {
	for _, txIn := range tx.TxIn {
		if len(txIn.Witness) > 0 {
			return true
		}
	}
	return false
}

func (tx *Tx) hasDashPayload() bool {
	return tx.Dash != nil && tx.Version >= DashSpecialTxVersion && tx.Dash.Type != SpecialTxNormal
}

func (tx *Tx) header() uint32 {
	header := uint32(tx.Version)
	switch {
	case tx.Zcash != nil && tx.Zcash.Overwintered:
		header |= overwinteredFlag
	case tx.Dash != nil:
		header = header&0xffff | uint32(tx.Dash.Type)<<16
	}
	return header
}

// FromHex parses a hex encoded transaction strictly.
func FromHex(txHex string, net *network.Network) (*Tx, error) {
	buf, err := hex.DecodeString(txHex)
	if err != nil {
		return nil, err
	}
	return FromBytes(buf, net, true)
}

// FromBytes parses a transaction of the given network. Unless strict is false
// the transaction must span the whole buffer.
func FromBytes(buf []byte, net *network.Network, strict bool) (*Tx, error) {
	r := bufferutils.NewReader(buf)
	tx := &Tx{MsgTx: &wire.MsgTx{}, Network: net}

	header, err := r.ReadUInt32()
	if err != nil {
		return nil, err
	}
	tx.Version = int32(header)
	switch {
	case network.IsZcashCompatible(net):
		tx.Zcash = &ZcashFields{Overwintered: header&overwinteredFlag != 0}
		tx.Version = int32(header &^ overwinteredFlag)
		branchID, ok := net.BranchID(tx.Version)
		if !ok && tx.Zcash.Overwintered {
			return nil, errors.NewErrUnsupportedVersion(tx.Version)
		}
		tx.Zcash.ConsensusBranchID = branchID
	case network.IsDash(net):
		tx.Dash = &DashFields{Type: SpecialTxType(header >> 16)}
		tx.Version = int32(header & 0xffff)
		if tx.Version >= DashSpecialTxVersion && tx.Dash.Type > SpecialTxQuorumCommitment {
			return nil, fmt.Errorf("%w: %d", errors.ErrInvalidSpecialTxType, tx.Dash.Type)
		}
	}

	hasWitnesses := false
	marker, err := r.ReadUInt8()
	if err != nil {
		return nil, err
	}
	flag, err := r.ReadUInt8()
	if err != nil {
		return nil, err
	}
	if marker == witnessMarker && flag == witnessFlag && !network.IsZcashCompatible(net) {
		hasWitnesses = true
	} else {
		r.Rewind(2)
	}

	if tx.IsOverwinterCompatible() {
		if tx.Zcash.VersionGroupID, err = r.ReadUInt32(); err != nil {
			return nil, err
		}
	}

	if err := tx.readInputs(r); err != nil {
		return nil, err
	}
	if err := tx.readOutputs(r); err != nil {
		return nil, err
	}

	if hasWitnesses {
		for _, txIn := range tx.TxIn {
			if txIn.Witness, err = r.ReadVector(); err != nil {
				return nil, err
			}
		}
		if !tx.HasWitnesses() {
			return nil, errors.ErrSuperfluousWitnessData
		}
	}

	if tx.LockTime, err = r.ReadUInt32(); err != nil {
		return nil, err
	}

	if tx.Zcash != nil {
		if err := tx.readZcashTrailer(r); err != nil {
			return nil, err
		}
	}
	if tx.hasDashPayload() {
		if tx.Dash.ExtraPayload, err = r.ReadVarSlice(); err != nil {
			return nil, err
		}
	}

	if strict && r.Remaining() != 0 {
		return nil, errors.ErrTrailingData
	}
	return tx, nil
}

func (tx *Tx) readInputs(r *bufferutils.Reader) error {
	count, err := r.ReadVarInt()
	if err != nil {
		return err
	}
	if count > uint64(r.Remaining()/minTxInSize) {
		return errors.ErrTruncatedInput
	}
	tx.TxIn = make([]*wire.TxIn, 0, count)
	for i := uint64(0); i < count; i++ {
		txIn := &wire.TxIn{}
		hash, err := r.ReadSlice(chainhash.HashSize)
		if err != nil {
			return err
		}
		copy(txIn.PreviousOutPoint.Hash[:], hash)
		if txIn.PreviousOutPoint.Index, err = r.ReadUInt32(); err != nil {
			return err
		}
		if txIn.SignatureScript, err = r.ReadVarSlice(); err != nil {
			return err
		}
		if txIn.Sequence, err = r.ReadUInt32(); err != nil {
			return err
		}
		tx.TxIn = append(tx.TxIn, txIn)
	}
	return nil
}

func (tx *Tx) readOutputs(r *bufferutils.Reader) error {
	count, err := r.ReadVarInt()
	if err != nil {
		return err
	}
	if count > uint64(r.Remaining()/minTxOutSize) {
		return errors.ErrTruncatedInput
	}
	tx.TxOut = make([]*wire.TxOut, 0, count)
	for i := uint64(0); i < count; i++ {
		txOut := &wire.TxOut{}
		if txOut.Value, err = r.ReadInt64(); err != nil {
			return err
		}
		if txOut.PkScript, err = r.ReadVarSlice(); err != nil {
			return err
		}
		tx.TxOut = append(tx.TxOut, txOut)
	}
	return nil
}

func (tx *Tx) readZcashTrailer(r *bufferutils.Reader) error {
	var err error
	if tx.IsOverwinterCompatible() {
		if tx.Zcash.ExpiryHeight, err = r.ReadUInt32(); err != nil {
			return err
		}
	}
	if tx.IsSaplingCompatible() {
		valueBalance, err := r.ReadInt64()
		if err != nil {
			return err
		}
		if valueBalance != 0 {
			return errors.ErrUnsupportedShieldedData
		}
		for i := 0; i < 2; i++ {
			count, err := r.ReadVarInt()
			if err != nil {
				return err
			}
			if count != 0 {
				return errors.ErrUnsupportedShieldedData
			}
		}
	}
	if tx.SupportsJoinSplits() {
		count, err := r.ReadVarInt()
		if err != nil {
			return err
		}
		if count != 0 {
			return errors.ErrUnsupportedJoinSplits
		}
	}
	return nil
}

func (tx *Tx) usesWitnessSerialization(allowWitness bool) bool {
	return allowWitness && tx.Zcash == nil && tx.HasWitnesses()
}

// ByteLength returns the serialized size without serializing.
func (tx *Tx) ByteLength(allowWitness bool) int {
	withWitness := tx.usesWitnessSerialization(allowWitness)

	length := 4
	if withWitness {
		length += 2
	}
	if tx.IsOverwinterCompatible() {
		length += 4
	}
	length += bufferutils.VarIntSize(uint64(len(tx.TxIn)))
	for _, txIn := range tx.TxIn {
		length += chainhash.HashSize + 4 + bufferutils.VarSliceSize(txIn.SignatureScript) + 4
	}
	length += bufferutils.VarIntSize(uint64(len(tx.TxOut)))
	for _, txOut := range tx.TxOut {
		length += 8 + bufferutils.VarSliceSize(txOut.PkScript)
	}
	if withWitness {
		for _, txIn := range tx.TxIn {
			length += bufferutils.VectorSize(txIn.Witness)
		}
	}
	length += 4

	if tx.IsOverwinterCompatible() {
		length += 4
	}
	if tx.IsSaplingCompatible() {
		length += 8 + 1 + 1
	}
	if tx.SupportsJoinSplits() {
		length++
	}
	if tx.hasDashPayload() {
		length += bufferutils.VarSliceSize(tx.Dash.ExtraPayload)
	}
	return length
}

// ToBytes serializes the transaction. Witness data is only written when
// allowWitness is set, the network supports it and some input carries it.
func (tx *Tx) ToBytes(allowWitness bool) ([]byte, error) {
	withWitness := tx.usesWitnessSerialization(allowWitness)
	w := bufferutils.NewWriter(tx.ByteLength(allowWitness))

	w.WriteUInt32(tx.header())
	if withWitness {
		w.WriteUInt8(witnessMarker)
		w.WriteUInt8(witnessFlag)
	}
	if tx.IsOverwinterCompatible() {
		w.WriteUInt32(tx.Zcash.VersionGroupID)
	}

	w.WriteVarInt(uint64(len(tx.TxIn)))
	for _, txIn := range tx.TxIn {
		w.WriteSlice(txIn.PreviousOutPoint.Hash[:])
		w.WriteUInt32(txIn.PreviousOutPoint.Index)
		w.WriteVarSlice(txIn.SignatureScript)
		w.WriteUInt32(txIn.Sequence)
	}
	w.WriteVarInt(uint64(len(tx.TxOut)))
	for _, txOut := range tx.TxOut {
		w.WriteInt64(txOut.Value)
		w.WriteVarSlice(txOut.PkScript)
	}
	if withWitness {
		for _, txIn := range tx.TxIn {
			w.WriteVector(txIn.Witness)
		}
	}
	w.WriteUInt32(tx.LockTime)

	if tx.IsOverwinterCompatible() {
		w.WriteUInt32(tx.Zcash.ExpiryHeight)
	}
	if tx.IsSaplingCompatible() {
		w.WriteInt64(0)
		w.WriteVarInt(0)
		w.WriteVarInt(0)
	}
	if tx.SupportsJoinSplits() {
		w.WriteVarInt(0)
	}
	if tx.hasDashPayload() {
		w.WriteVarSlice(tx.Dash.ExtraPayload)
	}
	return w.Bytes()
}

// ToHex returns the hex encoded wire form.
func (tx *Tx) ToHex() (string, error) {
	buf, err := tx.ToBytes(true)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// TxHash returns the double-SHA256 of the witness-less serialization.
func (tx *Tx) TxHash() (chainhash.Hash, error) {
	buf, err := tx.ToBytes(false)
	if err != nil {
		return chainhash.Hash{}, err
	}
	return chainhash.DoubleHashH(buf), nil
}

// ID returns the transaction id in its byte reversed display form.
func (tx *Tx) ID() (string, error) {
	hash, err := tx.TxHash()
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}

// WitnessHash returns the display form of the double-SHA256 of the full
// serialization.
func (tx *Tx) WitnessHash() (string, error) {
	buf, err := tx.ToBytes(true)
	if err != nil {
		return "", err
	}
	return chainhash.DoubleHashH(buf).String(), nil
}

// Weight is the BIP141 weight of the transaction.
func (tx *Tx) Weight() int {
	return tx.ByteLength(false)*3 + tx.ByteLength(true)
}

// VirtualSize is the weight divided by four, rounded up.
func (tx *Tx) VirtualSize() int {
	return (tx.Weight() + 3) / 4
}

// Clone returns a deep copy of the transaction.
func (tx *Tx) Clone() *Tx {
	clone := &Tx{MsgTx: tx.MsgTx.Copy(), Network: tx.Network}
	if tx.Zcash != nil {
		zcash := *tx.Zcash
		clone.Zcash = &zcash
	}
	if tx.Dash != nil {
		clone.Dash = &DashFields{
			Type:         tx.Dash.Type,
			ExtraPayload: append([]byte(nil), tx.Dash.ExtraPayload...),
		}
	}
	return clone
}
