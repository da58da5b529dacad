// Package currency accounts the multi-currency value carried by PBaaS
// transaction outputs, validates funded currency transfers against their
// unfunded templates, and builds unfunded transfers.
package currency

import (
	"fmt"

	"github.com/btcsuite/btcd/wire"
	"github.com/renproject/libutxo-go/address"
	"github.com/renproject/libutxo-go/errors"
	"github.com/renproject/libutxo-go/network"
	"github.com/renproject/libutxo-go/primitives"
	"github.com/renproject/libutxo-go/script"
	"github.com/renproject/libutxo-go/smarttx"
)

// Unpacked is the accounting view of one output.
type Unpacked struct {
	// Destinations are the R- and i-addresses that control or receive the
	// output.
	Destinations []string
	Values       primitives.CurrencyValueMap
	Fees         primitives.CurrencyValueMap
	Type         script.Class
	// Master and Params are only set for smart transaction outputs.
	Master *smarttx.OptCCParams
	Params []*smarttx.OptCCParams
}

func (unpacked *Unpacked) addDestination(addr string) {
	for _, existing := range unpacked.Destinations {
		if existing == addr {
			return
		}
	}
	unpacked.Destinations = append(unpacked.Destinations, addr)
}

// UnpackOutput returns the destinations, values and declared fees of an
// output. The native amount of the output is accounted in systemID. isInput
// relaxes the rules that only apply to outputs being created, so that any
// spendable output can be accounted.
func UnpackOutput(txOut *wire.TxOut, systemID string, isInput bool) (*Unpacked, error) {
	unpacked := &Unpacked{
		Values: primitives.CurrencyValueMap{},
		Fees:   primitives.CurrencyValueMap{},
		Type:   script.ClassifyOutput(txOut.PkScript),
	}

	switch unpacked.Type {
	case script.CryptoConditionTy:
		if err := unpackSmartOutput(unpacked, txOut, systemID, isInput); err != nil {
			return nil, err
		}
		return unpacked, nil
	case script.PubKeyHashTy:
		hash, _ := script.PubKeyHash(txOut.PkScript)
		unpacked.addDestination(address.FromPubKeyHash(hash, network.Verus))
	case script.PubKeyTy:
		chunks, err := script.Decompile(txOut.PkScript)
		if err != nil {
			return nil, err
		}
		unpacked.addDestination(address.FromPubKey(chunks[0].Data, network.Verus))
	case script.ScriptHashTy:
		chunks, err := script.Decompile(txOut.PkScript)
		if err != nil {
			return nil, err
		}
		unpacked.addDestination(address.FromHash160(chunks[1].Data, network.Verus.ScriptHash))
	}
	unpacked.Values.AddInt64(systemID, txOut.Value)
	return unpacked, nil
}

func unpackSmartOutput(unpacked *Unpacked, txOut *wire.TxOut, systemID string, isInput bool) error {
	smart, err := smarttx.ParseSmartScript(txOut.PkScript)
	if err != nil {
		return err
	}
	unpacked.Master = smart.Master
	unpacked.Params = smart.Params
	params := smart.Inner()

	for _, dest := range append(append([]smarttx.TxDestination{}, smart.Master.Destinations...), params.Destinations...) {
		addr, err := destinationAddress(dest, isInput)
		if err != nil {
			return err
		}
		if addr != "" {
			unpacked.addDestination(addr)
		}
	}

	unpacked.Values.AddInt64(systemID, txOut.Value)
	switch params.EvalCode {
	case smarttx.EvalNone:
		if len(params.VData) != 0 {
			return fmt.Errorf("%v output carries %d data elements", params.EvalCode, len(params.VData))
		}
	case smarttx.EvalStakeGuard:
		if !isInput {
			return errors.NewErrUnsupportedEvalCode(uint8(params.EvalCode))
		}
	case smarttx.EvalReserveTransfer:
		if len(params.VData) != 1 {
			return fmt.Errorf("reserve transfer output carries %d data elements", len(params.VData))
		}
		transfer, err := primitives.DecodeReserveTransfer(params.VData[0])
		if err != nil {
			return err
		}
		addNonNative(unpacked.Values, transfer.Reserves, systemID)
		if err := unpackTransferFees(unpacked, transfer, isInput); err != nil {
			return err
		}
	case smarttx.EvalReserveOutput:
		if len(params.VData) != 1 {
			return fmt.Errorf("token output carries %d data elements", len(params.VData))
		}
		token, err := primitives.DecodeTokenOutput(params.VData[0])
		if err != nil {
			return err
		}
		addNonNative(unpacked.Values, token.Reserves, systemID)
	default:
		return errors.NewErrUnsupportedEvalCode(uint8(params.EvalCode))
	}
	return nil
}

// addNonNative adds every entry of reserves except the native currency,
// which is carried by the output amount itself.
func addNonNative(values, reserves primitives.CurrencyValueMap, systemID string) {
	for id, amount := range reserves {
		if id != systemID {
			values.Add(id, amount)
		}
	}
}

// unpackTransferFees collects the declared transfer fee, gateway fees and
// the destinations of auxiliary destinations.
func unpackTransferFees(unpacked *Unpacked, transfer *primitives.ReserveTransfer, isInput bool) error {
	feeCurrency := transfer.FeeCurrencyID
	unpacked.Fees.Add(feeCurrency, transfer.FeeAmount)
	if transfer.Destination.HasGateway() {
		unpacked.Fees.AddInt64(feeCurrency, transfer.Destination.Fees)
	}
	if !transfer.Destination.HasAuxDests() {
		return nil
	}
	for _, aux := range transfer.Destination.AuxDests {
		if aux.HasAuxDests() {
			return errors.ErrNestedAuxDestinations
		}
		if aux.HasGateway() {
			unpacked.Fees.AddInt64(feeCurrency, aux.Fees)
		}
		addr, err := transferDestinationAddress(aux, isInput)
		if err != nil {
			return err
		}
		if addr != "" {
			unpacked.addDestination(addr)
		}
	}
	return nil
}

// destinationAddress renders a params destination. Types without an address
// form are rejected on outputs and skipped on inputs.
func destinationAddress(dest smarttx.TxDestination, isInput bool) (string, error) {
	switch dest.Type {
	case smarttx.DestPKH:
		return address.FromPubKeyHash(dest.Data, network.Verus), nil
	case smarttx.DestID:
		return address.FromIdentity(dest.Data, network.Verus), nil
	}
	if isInput {
		return "", nil
	}
	return "", fmt.Errorf("unsupported destination type %v", dest.Type)
}

func transferDestinationAddress(dest primitives.TransferDestination, isInput bool) (string, error) {
	switch dest.Type {
	case primitives.DestPKH:
		return address.FromPubKeyHash(dest.Destination, network.Verus), nil
	case primitives.DestID:
		return address.FromIdentity(dest.Destination, network.Verus), nil
	}
	if isInput {
		return "", nil
	}
	return "", fmt.Errorf("unsupported aux destination type %d", dest.Type)
}
