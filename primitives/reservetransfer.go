package primitives

import (
	"fmt"
	"math/big"

	"github.com/renproject/libutxo-go/bufferutils"
)

// TokenOutputVersion is the only token output version in use.
const TokenOutputVersion = 1

// Reserve transfer flags.
const (
	ReserveTransferValid            uint32 = 0x1
	ReserveTransferConvert          uint32 = 0x2
	ReserveTransferPreConvert       uint32 = 0x4
	ReserveTransferFeeOutput        uint32 = 0x8
	ReserveTransferDoubleSend       uint32 = 0x10
	ReserveTransferMintCurrency     uint32 = 0x20
	ReserveTransferCrossSystem      uint32 = 0x40
	ReserveTransferBurnChangePrice  uint32 = 0x80
	ReserveTransferBurnChangeWeight uint32 = 0x100
	ReserveTransferImportToSource   uint32 = 0x200
	ReserveTransferReserveToReserve uint32 = 0x400
	ReserveTransferRefund           uint32 = 0x800
	ReserveTransferIdentityExport   uint32 = 0x1000
	ReserveTransferCurrencyExport   uint32 = 0x2000
	ReserveTransferArbitrageOnly    uint32 = 0x4000
)

// TokenOutput carries non-native currency value in an output.
type TokenOutput struct {
	Version  uint64
	Reserves CurrencyValueMap
}

func NewTokenOutput(reserves CurrencyValueMap) *TokenOutput {
	return &TokenOutput{Version: TokenOutputVersion, Reserves: reserves}
}

func (output *TokenOutput) byteLength() int {
	return varIntLength(output.Version) + output.Reserves.byteLength()
}

func (output *TokenOutput) write(w *bufferutils.Writer) error {
	writeVarInt(w, output.Version)
	return output.Reserves.write(w)
}

func (output *TokenOutput) Encode() ([]byte, error) {
	w := bufferutils.NewWriter(output.byteLength())
	if err := output.write(w); err != nil {
		return nil, err
	}
	return w.Bytes()
}

func readTokenOutput(r *bufferutils.Reader) (*TokenOutput, error) {
	version, err := readVarInt(r)
	if err != nil {
		return nil, err
	}
	reserves, err := readCurrencyValueMap(r)
	if err != nil {
		return nil, err
	}
	return &TokenOutput{Version: version, Reserves: reserves}, nil
}

// DecodeTokenOutput parses a token output payload.
func DecodeTokenOutput(data []byte) (*TokenOutput, error) {
	r := bufferutils.NewReader(data)
	output, err := readTokenOutput(r)
	if err != nil {
		return nil, fmt.Errorf("token output: %v", err)
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("token output has %d trailing bytes", r.Remaining())
	}
	return output, nil
}

// ReserveTransfer moves value to a destination, optionally converting it or
// exporting it to another system on the way. Currency ids are i-addresses.
type ReserveTransfer struct {
	TokenOutput
	Flags           uint32
	FeeCurrencyID   string
	FeeAmount       *big.Int
	Destination     TransferDestination
	DestCurrencyID  string
	SecondReserveID string
	DestSystemID    string
}

func (transfer *ReserveTransfer) IsReserveToReserve() bool {
	return transfer.Flags&ReserveTransferReserveToReserve != 0
}

func (transfer *ReserveTransfer) IsCrossSystem() bool {
	return transfer.Flags&ReserveTransferCrossSystem != 0
}

func (transfer *ReserveTransfer) byteLength() int {
	length := transfer.TokenOutput.byteLength() +
		varIntLength(uint64(transfer.Flags)) +
		IDLength +
		varIntLength(transfer.FeeAmount.Uint64()) +
		transfer.Destination.ByteLength() +
		IDLength
	if transfer.IsReserveToReserve() {
		length += IDLength
	}
	if transfer.IsCrossSystem() {
		length += IDLength
	}
	return length
}

// Encode serializes the transfer into the payload of an
// EVAL_RESERVE_TRANSFER output.
func (transfer *ReserveTransfer) Encode() ([]byte, error) {
	if transfer.FeeAmount == nil {
		transfer.FeeAmount = new(big.Int)
	}
	if transfer.FeeAmount.Sign() < 0 || !transfer.FeeAmount.IsUint64() {
		return nil, fmt.Errorf("fee amount %v is out of range", transfer.FeeAmount)
	}
	w := bufferutils.NewWriter(transfer.byteLength())
	if err := transfer.TokenOutput.write(w); err != nil {
		return nil, err
	}
	writeVarInt(w, uint64(transfer.Flags))
	if err := writeAddressID(w, transfer.FeeCurrencyID); err != nil {
		return nil, fmt.Errorf("fee currency: %v", err)
	}
	writeVarInt(w, transfer.FeeAmount.Uint64())
	if err := transfer.Destination.write(w); err != nil {
		return nil, err
	}
	if err := writeAddressID(w, transfer.DestCurrencyID); err != nil {
		return nil, fmt.Errorf("destination currency: %v", err)
	}
	if transfer.IsReserveToReserve() {
		if err := writeAddressID(w, transfer.SecondReserveID); err != nil {
			return nil, fmt.Errorf("second reserve: %v", err)
		}
	}
	if transfer.IsCrossSystem() {
		if err := writeAddressID(w, transfer.DestSystemID); err != nil {
			return nil, fmt.Errorf("destination system: %v", err)
		}
	}
	return w.Bytes()
}

// DecodeReserveTransfer parses the payload of an EVAL_RESERVE_TRANSFER
// output.
func DecodeReserveTransfer(data []byte) (*ReserveTransfer, error) {
	transfer, err := decodeReserveTransfer(bufferutils.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reserve transfer: %v", err)
	}
	return transfer, nil
}

func decodeReserveTransfer(r *bufferutils.Reader) (*ReserveTransfer, error) {
	output, err := readTokenOutput(r)
	if err != nil {
		return nil, err
	}
	transfer := &ReserveTransfer{TokenOutput: *output}

	flags, err := readVarInt(r)
	if err != nil {
		return nil, err
	}
	if flags > uint64(^uint32(0)) {
		return nil, fmt.Errorf("flags 0x%x out of range", flags)
	}
	transfer.Flags = uint32(flags)

	feeCurrency, err := readID(r)
	if err != nil {
		return nil, err
	}
	transfer.FeeCurrencyID = IDToAddress(feeCurrency)
	feeAmount, err := readVarInt(r)
	if err != nil {
		return nil, err
	}
	transfer.FeeAmount = new(big.Int).SetUint64(feeAmount)

	destination, err := readTransferDestination(r)
	if err != nil {
		return nil, err
	}
	transfer.Destination = *destination

	destCurrency, err := readID(r)
	if err != nil {
		return nil, err
	}
	transfer.DestCurrencyID = IDToAddress(destCurrency)
	if transfer.IsReserveToReserve() {
		secondReserve, err := readID(r)
		if err != nil {
			return nil, err
		}
		transfer.SecondReserveID = IDToAddress(secondReserve)
	}
	if transfer.IsCrossSystem() {
		destSystem, err := readID(r)
		if err != nil {
			return nil, err
		}
		transfer.DestSystemID = IDToAddress(destSystem)
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%d trailing bytes", r.Remaining())
	}
	return transfer, nil
}
