package currency

import (
	"fmt"
	"math/big"

	libutxo "github.com/renproject/libutxo-go"
	"github.com/renproject/libutxo-go/address"
	"github.com/renproject/libutxo-go/network"
	"github.com/renproject/libutxo-go/primitives"
	"github.com/renproject/libutxo-go/smarttx"
)

// TransferOutput is one requested payment of a currency transfer. Currency
// ids and Address are i-addresses or R-addresses of the PBaaS chain.
type TransferOutput struct {
	Currency string `json:"currency"`
	Satoshis int64  `json:"satoshis"`
	Address  string `json:"address"`

	ConvertTo      string `json:"convertto,omitempty"`
	ExportTo       string `json:"exportto,omitempty"`
	Via            string `json:"via,omitempty"`
	FeeCurrency    string `json:"feecurrency,omitempty"`
	FeeSatoshis    int64  `json:"feesatoshis,omitempty"`
	Preconvert     bool   `json:"preconvert,omitempty"`
	Burn           bool   `json:"burn,omitempty"`
	MintNew        bool   `json:"mintnew,omitempty"`
	ImportToSource bool   `json:"importtosource,omitempty"`
}

func (output *TransferOutput) isTransfer() bool {
	return output.FeeSatoshis != 0 ||
		output.ConvertTo != "" ||
		output.ExportTo != "" ||
		output.Via != "" ||
		output.Preconvert ||
		output.Burn ||
		output.MintNew ||
		output.ImportToSource
}

func (output *TransferOutput) flags() uint32 {
	flags := primitives.ReserveTransferValid
	if output.ConvertTo != "" && !output.Preconvert {
		flags ^= primitives.ReserveTransferConvert
	}
	if output.Preconvert {
		flags ^= primitives.ReserveTransferPreConvert
	}
	if output.ExportTo != "" {
		flags ^= primitives.ReserveTransferCrossSystem
	}
	if output.Burn {
		flags ^= primitives.ReserveTransferBurnChangePrice
	}
	if output.MintNew {
		flags ^= primitives.ReserveTransferMintCurrency
	}
	if output.ImportToSource {
		flags ^= primitives.ReserveTransferImportToSource
	}
	if output.Via != "" {
		flags ^= primitives.ReserveTransferReserveToReserve
	}
	return flags
}

// CreateUnfundedCurrencyTransfer returns the hex of a transaction without
// inputs paying outputs. It is meant to be funded by a wallet and checked
// with ValidateFundedCurrencyTransfer afterwards.
//
// Native payments to R-addresses become P2PKH outputs, other plain payments
// become token outputs and payments with a fee, conversion or export become
// reserve transfers.
func CreateUnfundedCurrencyTransfer(systemID string, outputs []TransferOutput, net *network.Network, expiryHeight uint32) (string, error) {
	builder, err := libutxo.NewTxBuilder(net, libutxo.WithExpiryHeight(expiryHeight))
	if err != nil {
		return "", err
	}
	for i, output := range outputs {
		pkScript, value, err := transferOutputScript(systemID, output, net)
		if err != nil {
			return "", fmt.Errorf("output %d: %v", i, err)
		}
		if _, err := builder.AddOutput(pkScript, value); err != nil {
			return "", fmt.Errorf("output %d: %v", i, err)
		}
	}
	tx, err := builder.BuildIncomplete()
	if err != nil {
		return "", err
	}
	return tx.ToHex()
}

// transferOutputScript returns the output script of one payment and the
// native amount it carries.
func transferOutputScript(systemID string, output TransferOutput, net *network.Network) ([]byte, int64, error) {
	if output.Satoshis < 0 || output.FeeSatoshis < 0 {
		return nil, 0, fmt.Errorf("negative amount")
	}
	dest, err := address.Decode(output.Address, net)
	if err != nil {
		return nil, 0, err
	}
	if dest.Type == address.ScriptHash {
		return nil, 0, fmt.Errorf("cannot transfer to script hash address %s", output.Address)
	}
	native := output.Currency == systemID

	if native && dest.Type == address.PubKeyHash && !output.isTransfer() {
		pkScript, err := address.PayToAddrScript(dest)
		return pkScript, output.Satoshis, err
	}

	var txDest smarttx.TxDestination
	transferDest := primitives.TransferDestination{Destination: dest.Hash}
	if dest.Type == address.Identity {
		txDest = smarttx.NewIDDestination(dest.Hash)
		transferDest.Type = primitives.DestID
	} else {
		txDest = smarttx.NewPKHDestination(dest.Hash)
		transferDest.Type = primitives.DestPKH
	}

	reserves := primitives.CurrencyValueMap{}
	var value int64
	if native {
		value = output.Satoshis
	} else {
		reserves.AddInt64(output.Currency, output.Satoshis)
	}

	master := &smarttx.OptCCParams{
		Version:      smarttx.VersionV3,
		EvalCode:     smarttx.EvalNone,
		M:            1,
		N:            1,
		Destinations: []smarttx.TxDestination{txDest},
	}
	params := &smarttx.OptCCParams{
		Version:      smarttx.VersionV3,
		M:            1,
		N:            1,
		Destinations: []smarttx.TxDestination{txDest},
	}

	if !output.isTransfer() {
		token, err := primitives.NewTokenOutput(reserves).Encode()
		if err != nil {
			return nil, 0, err
		}
		params.EvalCode = smarttx.EvalReserveOutput
		params.VData = [][]byte{token}
		pkScript, err := smarttx.NewSmartScript(master, params)
		return pkScript, value, err
	}

	feeCurrency := output.FeeCurrency
	if feeCurrency == "" {
		feeCurrency = systemID
	}
	if feeCurrency == systemID {
		value += output.FeeSatoshis
	} else {
		reserves.AddInt64(feeCurrency, output.FeeSatoshis)
	}

	transfer := &primitives.ReserveTransfer{
		TokenOutput:    *primitives.NewTokenOutput(reserves),
		Flags:          output.flags(),
		FeeCurrencyID:  feeCurrency,
		FeeAmount:      big.NewInt(output.FeeSatoshis),
		Destination:    transferDest,
		DestCurrencyID: output.Currency,
		DestSystemID:   output.ExportTo,
	}
	switch {
	case output.Via != "":
		transfer.DestCurrencyID = output.Via
		transfer.SecondReserveID = output.ConvertTo
	case output.ConvertTo != "":
		transfer.DestCurrencyID = output.ConvertTo
	}
	encoded, err := transfer.Encode()
	if err != nil {
		return nil, 0, err
	}
	params.EvalCode = smarttx.EvalReserveTransfer
	params.VData = [][]byte{encoded}
	pkScript, err := smarttx.NewSmartScript(master, params)
	return pkScript, value, err
}
