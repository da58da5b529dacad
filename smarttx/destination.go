package smarttx

import (
	"fmt"

	"github.com/renproject/libutxo-go/bufferutils"
)

// DestinationType tags the kind of key or identifier a TxDestination holds.
type DestinationType uint8

const (
	DestInvalid DestinationType = iota
	DestPK
	DestPKH
	DestSH
	DestID
	DestIndex
	DestQuantum
)

var destinationTypeToName = []string{
	DestInvalid: "invalid",
	DestPK:      "pk",
	DestPKH:     "pkh",
	DestSH:      "sh",
	DestID:      "id",
	DestIndex:   "index",
	DestQuantum: "quantum",
}

func (t DestinationType) String() string {
	if int(t) >= len(destinationTypeToName) {
		return fmt.Sprintf("DestinationType(%d)", uint8(t))
	}
	return destinationTypeToName[t]
}

const (
	pkhLength = 20
	pkLength  = 33
)

// TxDestination is a typed destination inside smart transaction params.
type TxDestination struct {
	Type DestinationType
	Data []byte
}

func NewPKHDestination(hash []byte) TxDestination {
	return TxDestination{Type: DestPKH, Data: hash}
}

func NewIDDestination(id []byte) TxDestination {
	return TxDestination{Type: DestID, Data: id}
}

func NewPKDestination(pubKey []byte) TxDestination {
	return TxDestination{Type: DestPK, Data: pubKey}
}

// IsValid reports whether the destination has a known type and a payload.
func (dest TxDestination) IsValid() bool {
	return dest.Type > DestInvalid && dest.Type <= DestQuantum && len(dest.Data) > 0
}

// DecodeTxDestination reads the compact destination form: a bare 20-byte
// payload is a PKH, a bare 33-byte payload is a PK, anything else carries an
// explicit type byte.
func DecodeTxDestination(data []byte) (TxDestination, error) {
	switch len(data) {
	case 0:
		return TxDestination{}, fmt.Errorf("empty destination")
	case pkhLength:
		return TxDestination{Type: DestPKH, Data: append([]byte{}, data...)}, nil
	case pkLength:
		return TxDestination{Type: DestPK, Data: append([]byte{}, data...)}, nil
	}
	reader := bufferutils.NewReader(data)
	destType, err := reader.ReadUInt8()
	if err != nil {
		return TxDestination{}, err
	}
	payload, err := reader.ReadSlice(reader.Remaining())
	if err != nil {
		return TxDestination{}, err
	}
	return TxDestination{Type: DestinationType(destType), Data: payload}, nil
}

// Encode is the exact inverse of DecodeTxDestination.
func (dest TxDestination) Encode() ([]byte, error) {
	switch dest.Type {
	case DestPKH:
		if len(dest.Data) != pkhLength {
			return nil, fmt.Errorf("pkh destination must be %d bytes, got %d", pkhLength, len(dest.Data))
		}
		return append([]byte{}, dest.Data...), nil
	case DestPK:
		if len(dest.Data) != pkLength {
			return nil, fmt.Errorf("pk destination must be %d bytes, got %d", pkLength, len(dest.Data))
		}
		return append([]byte{}, dest.Data...), nil
	}
	if !dest.IsValid() {
		return nil, fmt.Errorf("invalid destination of type %v", dest.Type)
	}
	writer := bufferutils.NewWriter(1 + len(dest.Data))
	writer.WriteUInt8(uint8(dest.Type))
	writer.WriteSlice(dest.Data)
	return writer.Bytes()
}
