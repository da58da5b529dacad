package primitives

import (
	"fmt"

	"github.com/renproject/libutxo-go/bufferutils"
)

// Transfer destination types. The low six bits of the encoded type byte hold
// the type, the top two bits are flags.
const (
	DestInvalid          uint8 = 0
	DestPK               uint8 = 1
	DestPKH              uint8 = 2
	DestSH               uint8 = 3
	DestID               uint8 = 4
	DestFullID           uint8 = 5
	DestRegisterCurrency uint8 = 6
	DestQuantum          uint8 = 7
	DestNestedTransfer   uint8 = 8
	DestETH              uint8 = 9
	DestETHNFT           uint8 = 10
	DestRaw              uint8 = 11

	FlagDestAux     uint8 = 0x40
	FlagDestGateway uint8 = 0x80

	destTypeMask uint8 = 0x3f
)

// TransferDestination is where a reserve transfer delivers value, optionally
// through a gateway and with auxiliary destinations.
type TransferDestination struct {
	Type        uint8
	Flags       uint8
	Destination []byte
	GatewayID   []byte
	GatewayCode []byte
	Fees        int64
	AuxDests    []TransferDestination
}

func (dest *TransferDestination) HasGateway() bool {
	return dest.Flags&FlagDestGateway != 0
}

func (dest *TransferDestination) HasAuxDests() bool {
	return dest.Flags&FlagDestAux != 0
}

func (dest *TransferDestination) ByteLength() int {
	length := 1 + bufferutils.VarSliceSize(dest.Destination)
	if dest.HasGateway() {
		length += 2*IDLength + 8
	}
	if dest.HasAuxDests() {
		length += bufferutils.VarIntSize(uint64(len(dest.AuxDests)))
		for i := range dest.AuxDests {
			auxLength := dest.AuxDests[i].ByteLength()
			length += bufferutils.VarIntSize(uint64(auxLength)) + auxLength
		}
	}
	return length
}

func (dest *TransferDestination) write(w *bufferutils.Writer) error {
	if dest.Type&^destTypeMask != 0 {
		return fmt.Errorf("invalid transfer destination type %d", dest.Type)
	}
	w.WriteUInt8(dest.Type | dest.Flags&(FlagDestAux|FlagDestGateway))
	w.WriteVarSlice(dest.Destination)
	if dest.HasGateway() {
		if err := writeID(w, dest.GatewayID); err != nil {
			return err
		}
		if err := writeID(w, dest.GatewayCode); err != nil {
			return err
		}
		w.WriteInt64(dest.Fees)
	}
	if dest.HasAuxDests() {
		w.WriteVarInt(uint64(len(dest.AuxDests)))
		for i := range dest.AuxDests {
			aux, err := dest.AuxDests[i].Encode()
			if err != nil {
				return err
			}
			w.WriteVarSlice(aux)
		}
	}
	return nil
}

// Encode serializes the destination on its own.
func (dest *TransferDestination) Encode() ([]byte, error) {
	w := bufferutils.NewWriter(dest.ByteLength())
	if err := dest.write(w); err != nil {
		return nil, err
	}
	return w.Bytes()
}

// DecodeTransferDestination parses a standalone destination.
func DecodeTransferDestination(data []byte) (*TransferDestination, error) {
	r := bufferutils.NewReader(data)
	dest, err := readTransferDestination(r)
	if err != nil {
		return nil, err
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("transfer destination has %d trailing bytes", r.Remaining())
	}
	return dest, nil
}

func readTransferDestination(r *bufferutils.Reader) (*TransferDestination, error) {
	typeByte, err := r.ReadUInt8()
	if err != nil {
		return nil, err
	}
	dest := &TransferDestination{
		Type:  typeByte & destTypeMask,
		Flags: typeByte &^ destTypeMask,
	}
	if dest.Destination, err = r.ReadVarSlice(); err != nil {
		return nil, err
	}
	if dest.HasGateway() {
		if dest.GatewayID, err = readID(r); err != nil {
			return nil, err
		}
		if dest.GatewayCode, err = readID(r); err != nil {
			return nil, err
		}
		if dest.Fees, err = r.ReadInt64(); err != nil {
			return nil, err
		}
	}
	if dest.HasAuxDests() {
		encodedAux, err := r.ReadVector()
		if err != nil {
			return nil, err
		}
		dest.AuxDests = make([]TransferDestination, 0, len(encodedAux))
		for _, encoded := range encodedAux {
			aux, err := DecodeTransferDestination(encoded)
			if err != nil {
				return nil, fmt.Errorf("aux destination: %v", err)
			}
			dest.AuxDests = append(dest.AuxDests, *aux)
		}
	}
	return dest, nil
}
