package currency_test

import (
	"bytes"

	. "github.com/renproject/libutxo-go/currency"
	"github.com/renproject/libutxo-go/address"
	"github.com/renproject/libutxo-go/network"
	"github.com/renproject/libutxo-go/primitives"
	"github.com/renproject/libutxo-go/script"
	"github.com/renproject/libutxo-go/smarttx"

	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("Unfunded transfers", func() {
	systemID := currencyID(1)
	tokenID := currencyID(2)
	bridgeID := currencyID(3)
	otherSystemID := currencyID(4)
	recipient := testKey(2)

	create := func(outputs ...TransferOutput) string {
		txHex, err := CreateUnfundedCurrencyTransfer(systemID, outputs, network.Verus, 1500000)
		Expect(err).ShouldNot(HaveOccurred())
		return txHex
	}

	decodeTransfer := func(pkScript []byte) *primitives.ReserveTransfer {
		smart, err := smarttx.ParseSmartScript(pkScript)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(smart.Inner().EvalCode).Should(Equal(smarttx.EvalReserveTransfer))
		transfer, err := primitives.DecodeReserveTransfer(smart.Inner().VData[0])
		Expect(err).ShouldNot(HaveOccurred())
		return transfer
	}

	It("should pay native currency to R-addresses with P2PKH outputs", func() {
		tx := parseTx(create(TransferOutput{Currency: systemID, Satoshis: 12345, Address: recipient.Address()}))
		Expect(tx.TxIn).Should(BeEmpty())
		Expect(tx.Version).Should(Equal(int32(4)))
		Expect(tx.IsSaplingCompatible()).Should(BeTrue())
		Expect(tx.Zcash.ExpiryHeight).Should(Equal(uint32(1500000)))
		Expect(tx.TxOut).Should(HaveLen(1))
		Expect(tx.TxOut[0].Value).Should(Equal(int64(12345)))
		Expect(tx.TxOut[0].PkScript).Should(Equal(p2pkh(recipient)))
	})

	It("should pay tokens with token outputs", func() {
		identity := bytes.Repeat([]byte{0x44}, primitives.IDLength)
		tx := parseTx(create(TransferOutput{Currency: tokenID, Satoshis: 500, Address: primitives.IDToAddress(identity)}))
		Expect(tx.TxOut[0].Value).Should(BeZero())
		Expect(script.ClassifyOutput(tx.TxOut[0].PkScript)).Should(Equal(script.CryptoConditionTy))

		unpacked, err := UnpackOutput(tx.TxOut[0], systemID, false)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(unpacked.Values.Strings()).Should(Equal(map[string]string{systemID: "0", tokenID: "500"}))
		Expect(unpacked.Destinations).Should(Equal([]string{address.FromIdentity(identity, network.Verus)}))
		Expect(unpacked.Params[0].EvalCode).Should(Equal(smarttx.EvalReserveOutput))
	})

	It("should pay native currency to identities with token outputs", func() {
		tx := parseTx(create(TransferOutput{Currency: systemID, Satoshis: 700, Address: currencyID(0x44)}))
		Expect(tx.TxOut[0].Value).Should(Equal(int64(700)))
		unpacked, err := UnpackOutput(tx.TxOut[0], systemID, false)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(unpacked.Values.Strings()).Should(Equal(map[string]string{systemID: "700"}))
	})

	table.DescribeTable("should set reserve transfer flags",
		func(output TransferOutput, flags uint32) {
			output.Currency = systemID
			output.Satoshis = 1000
			output.Address = recipient.Address()
			tx := parseTx(create(output))
			Expect(decodeTransfer(tx.TxOut[0].PkScript).Flags).Should(Equal(primitives.ReserveTransferValid | flags))
		},
		table.Entry("fee only", TransferOutput{FeeSatoshis: 1}, uint32(0)),
		table.Entry("convert", TransferOutput{ConvertTo: tokenID}, primitives.ReserveTransferConvert),
		table.Entry("preconvert", TransferOutput{ConvertTo: tokenID, Preconvert: true}, primitives.ReserveTransferPreConvert),
		table.Entry("export", TransferOutput{ExportTo: otherSystemID}, primitives.ReserveTransferCrossSystem),
		table.Entry("burn", TransferOutput{Burn: true}, primitives.ReserveTransferBurnChangePrice),
		table.Entry("mint", TransferOutput{MintNew: true}, primitives.ReserveTransferMintCurrency),
		table.Entry("import to source", TransferOutput{ConvertTo: tokenID, ImportToSource: true}, primitives.ReserveTransferConvert|primitives.ReserveTransferImportToSource),
		table.Entry("reserve to reserve", TransferOutput{ConvertTo: tokenID, Via: bridgeID}, primitives.ReserveTransferConvert|primitives.ReserveTransferReserveToReserve),
	)

	It("should route conversions through the bridge currency", func() {
		tx := parseTx(create(TransferOutput{
			Currency:  systemID,
			Satoshis:  1000,
			Address:   recipient.Address(),
			ConvertTo: tokenID,
			Via:       bridgeID,
			ExportTo:  otherSystemID,
		}))
		transfer := decodeTransfer(tx.TxOut[0].PkScript)
		Expect(transfer.DestCurrencyID).Should(Equal(bridgeID))
		Expect(transfer.SecondReserveID).Should(Equal(tokenID))
		Expect(transfer.DestSystemID).Should(Equal(otherSystemID))
		Expect(transfer.FeeCurrencyID).Should(Equal(systemID))
		Expect(transfer.Destination.Type).Should(Equal(primitives.DestPKH))
	})

	It("should carry native fees in the output amount", func() {
		tx := parseTx(create(TransferOutput{Currency: systemID, Satoshis: 1000, Address: recipient.Address(), FeeSatoshis: 20000}))
		Expect(tx.TxOut[0].Value).Should(Equal(int64(21000)))
		transfer := decodeTransfer(tx.TxOut[0].PkScript)
		Expect(transfer.FeeAmount.Int64()).Should(Equal(int64(20000)))
		Expect(transfer.Reserves).Should(BeEmpty())
	})

	It("should carry token fees in the reserves", func() {
		tx := parseTx(create(TransferOutput{
			Currency:    tokenID,
			Satoshis:    1000,
			Address:     recipient.Address(),
			FeeCurrency: bridgeID,
			FeeSatoshis: 30,
		}))
		Expect(tx.TxOut[0].Value).Should(BeZero())
		transfer := decodeTransfer(tx.TxOut[0].PkScript)
		Expect(transfer.Reserves.Strings()).Should(Equal(map[string]string{tokenID: "1000", bridgeID: "30"}))
		Expect(transfer.FeeCurrencyID).Should(Equal(bridgeID))

		unpacked, err := UnpackOutput(tx.TxOut[0], systemID, false)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(unpacked.Fees.Strings()).Should(Equal(map[string]string{bridgeID: "30"}))
	})

	It("should reject invalid outputs", func() {
		_, err := CreateUnfundedCurrencyTransfer(systemID, []TransferOutput{{Currency: systemID, Satoshis: -1, Address: recipient.Address()}}, network.Verus, 0)
		Expect(err).Should(HaveOccurred())

		_, err = CreateUnfundedCurrencyTransfer(systemID, []TransferOutput{{Currency: systemID, Satoshis: 1, Address: "not an address"}}, network.Verus, 0)
		Expect(err).Should(HaveOccurred())

		scriptHashAddr := address.FromHash160(bytes.Repeat([]byte{0x12}, 20), network.Verus.ScriptHash)
		_, err = CreateUnfundedCurrencyTransfer(systemID, []TransferOutput{{Currency: systemID, Satoshis: 1, Address: scriptHashAddr}}, network.Verus, 0)
		Expect(err).Should(MatchError(ContainSubstring("script hash")))

		_, err = CreateUnfundedCurrencyTransfer(systemID, []TransferOutput{{Currency: systemID, Satoshis: 1, Address: recipient.Address(), ConvertTo: "iNotAnID"}}, network.Verus, 0)
		Expect(err).Should(HaveOccurred())
	})
})
