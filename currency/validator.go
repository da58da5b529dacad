package currency

import (
	"bytes"
	"fmt"
	"math/big"
	"os"

	"github.com/btcsuite/btcd/wire"
	"github.com/davecgh/go-spew/spew"
	libutxo "github.com/renproject/libutxo-go"
	"github.com/renproject/libutxo-go/errors"
	"github.com/renproject/libutxo-go/network"
	"github.com/renproject/libutxo-go/primitives"
	"github.com/renproject/libutxo-go/script"
	"github.com/renproject/libutxo-go/smarttx"
	"github.com/renproject/libutxo-go/utxoset"
	"github.com/sirupsen/logrus"
)

// Result is the outcome of validating a funded transaction. Amounts are
// keyed by currency i-address and rendered in base 10.
type Result struct {
	Valid   bool                        `json:"valid"`
	Message string                      `json:"message,omitempty"`
	In      primitives.CurrencyValueMap `json:"in,omitempty"`
	Out     primitives.CurrencyValueMap `json:"out,omitempty"`
	Change  primitives.CurrencyValueMap `json:"change,omitempty"`
	Fees    primitives.CurrencyValueMap `json:"fees,omitempty"`
	Sent    primitives.CurrencyValueMap `json:"sent,omitempty"`
}

func invalid(err error) Result {
	return Result{Valid: false, Message: err.Error()}
}

// Validator checks that a wallet funded a currency transfer without altering
// it, and reports where the funded value goes.
type Validator struct {
	logger logrus.FieldLogger
}

// NewValidator returns a validator logging to logger. A nil logger discards
// everything.
func NewValidator(logger logrus.FieldLogger) *Validator {
	if logger == nil {
		nullLogger := logrus.New()
		logFile, err := os.OpenFile(os.DevNull, os.O_APPEND|os.O_WRONLY, 0666)
		if err != nil {
			panic(err)
		}
		nullLogger.SetOutput(logFile)
		logger = nullLogger
	}
	return &Validator{logger: logger}
}

// accounts accumulates the value flowing through a funded transaction.
type accounts struct {
	in, out, change, fees primitives.CurrencyValueMap
}

// ValidateFundedCurrencyTransfer checks fundedHex against the unfunded
// transaction it was funded from. The funded transaction may only add inputs
// and change outputs paying changeAddr; everything it spends must be in
// utxos. It never returns an error: failures are reported in the result.
func (v *Validator) ValidateFundedCurrencyTransfer(systemID, fundedHex, unfundedHex, changeAddr string, net *network.Network, utxos []utxoset.UTXO) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = invalid(fmt.Errorf("%v", r))
		}
		if !result.Valid {
			v.logger.Infof("rejected funded transfer: %s", result.Message)
		}
	}()

	funded, err := libutxo.FromHex(fundedHex, net)
	if err != nil {
		return invalid(err)
	}
	unfunded, err := libutxo.FromHex(unfundedHex, net)
	if err != nil {
		return invalid(err)
	}
	if len(funded.TxIn) == 0 {
		return invalid(errors.ErrNoInputs)
	}
	if len(funded.TxOut) == 0 {
		return invalid(errors.ErrNoOutputs)
	}

	changeOutputs, err := diffOutputs(funded, unfunded)
	if err != nil {
		return invalid(err)
	}

	set, err := utxoset.New(utxos)
	if err != nil {
		return invalid(err)
	}
	acc := accounts{
		in:     primitives.CurrencyValueMap{},
		out:    primitives.CurrencyValueMap{},
		change: primitives.CurrencyValueMap{},
		fees:   primitives.CurrencyValueMap{},
	}
	if err := v.accountInputs(&acc, funded, set, systemID); err != nil {
		return invalid(err)
	}
	for i, txOut := range unfunded.TxOut {
		unpacked, err := UnpackOutput(txOut, systemID, false)
		if err != nil {
			v.logger.Debugf("output %d: %v", i, err)
			return invalid(err)
		}
		v.logger.Debugf("output %d: %s", i, spew.Sdump(unpacked))
		acc.out.AddMap(unpacked.Values)
		acc.fees.AddMap(unpacked.Fees)
	}
	for _, txOut := range changeOutputs {
		if err := v.accountChange(&acc, txOut, systemID, changeAddr); err != nil {
			return invalid(err)
		}
	}

	sent := primitives.CurrencyValueMap{}
	for _, id := range acc.in.Keys() {
		in := acc.in.Get(id)
		remainder := new(big.Int).Sub(in, acc.out.Get(id))
		// Outputs may not spend more of a currency than the inputs provide;
		// a negative implicit fee is an error, not a result.
		if remainder.Sign() < 0 {
			return invalid(errors.NewErrInsufficientFunds(id))
		}
		acc.fees.Add(id, remainder)
		amount := new(big.Int).Sub(in, acc.change.Get(id))
		sent[id] = amount.Sub(amount, acc.fees.Get(id))
	}

	return Result{
		Valid:  true,
		In:     acc.in,
		Out:    acc.out,
		Change: acc.change,
		Fees:   acc.fees,
		Sent:   sent,
	}
}

// diffOutputs walks the funded outputs against the unfunded ones and returns
// the funded outputs the unfunded transaction does not have. Without them the
// funded transaction must serialize to the unfunded one.
func diffOutputs(funded, unfunded *libutxo.Tx) ([]*wire.TxOut, error) {
	comparison := funded.Clone()
	comparison.TxOut = nil

	var changeOutputs []*wire.TxOut
	next := 0
	for _, txOut := range funded.TxOut {
		if next < len(unfunded.TxOut) && sameOutput(txOut, unfunded.TxOut[next]) {
			comparison.TxOut = append(comparison.TxOut, txOut)
			next++
			continue
		}
		changeOutputs = append(changeOutputs, txOut)
	}

	unfundedInputs := make(map[wire.OutPoint]struct{}, len(unfunded.TxIn))
	for _, txIn := range unfunded.TxIn {
		unfundedInputs[txIn.PreviousOutPoint] = struct{}{}
	}
	comparison.TxIn = nil
	for _, txIn := range funded.TxIn {
		if _, ok := unfundedInputs[txIn.PreviousOutPoint]; ok {
			comparison.TxIn = append(comparison.TxIn, txIn)
		}
	}

	comparisonBytes, err := comparison.ToBytes(true)
	if err != nil {
		return nil, err
	}
	unfundedBytes, err := unfunded.ToBytes(true)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(comparisonBytes, unfundedBytes) {
		return nil, errors.ErrUnfundedMismatch
	}
	return changeOutputs, nil
}

func sameOutput(a, b *wire.TxOut) bool {
	return a.Value == b.Value && bytes.Equal(a.PkScript, b.PkScript)
}

func (v *Validator) accountInputs(acc *accounts, funded *libutxo.Tx, set utxoset.Lookup, systemID string) error {
	for i, txIn := range funded.TxIn {
		outpoint := txIn.PreviousOutPoint
		utxo, err := set.GetUTXO(outpoint.Hash.String(), outpoint.Index)
		if err != nil {
			return err
		}
		txOut, err := utxo.TxOut()
		if err != nil {
			return err
		}
		unpacked, err := UnpackOutput(txOut, systemID, true)
		if err != nil {
			v.logger.Debugf("input %d: %v", i, err)
			return err
		}
		v.logger.Debugf("input %d: %s", i, spew.Sdump(unpacked))
		acc.in.AddMap(unpacked.Values)
	}
	return nil
}

// accountChange checks that a change output pays only changeAddr through a
// plain P2PKH or single signature smart output.
func (v *Validator) accountChange(acc *accounts, txOut *wire.TxOut, systemID, changeAddr string) error {
	unpacked, err := UnpackOutput(txOut, systemID, false)
	if err != nil {
		return err
	}
	v.logger.Debugf("change: %s", spew.Sdump(unpacked))

	switch unpacked.Type {
	case script.PubKeyHashTy:
	case script.CryptoConditionTy:
		if err := checkSmartChange(unpacked); err != nil {
			return err
		}
	default:
		return fmt.Errorf("change output has unsupported type %v", unpacked.Type)
	}
	for _, dest := range unpacked.Destinations {
		if dest != changeAddr {
			return fmt.Errorf("change output pays %s, expected %s", dest, changeAddr)
		}
	}
	acc.out.AddMap(unpacked.Values)
	acc.change.AddMap(unpacked.Values)
	return nil
}

func checkSmartChange(unpacked *Unpacked) error {
	if len(unpacked.Params) != 1 {
		return fmt.Errorf("change output has %d params", len(unpacked.Params))
	}
	master, params := unpacked.Master, unpacked.Params[0]
	if master.EvalCode != smarttx.EvalNone {
		return errors.NewErrUnsupportedEvalCode(uint8(master.EvalCode))
	}
	if !(master.M == 0 && master.N == 0) && !(master.M == 1 && master.N == 1) {
		return fmt.Errorf("multisig change outputs are not supported")
	}
	if params.M != 1 || params.N != 1 {
		return fmt.Errorf("multisig change outputs are not supported")
	}
	switch params.EvalCode {
	case smarttx.EvalNone, smarttx.EvalReserveOutput:
		return nil
	default:
		return errors.NewErrUnsupportedEvalCode(uint8(params.EvalCode))
	}
}
