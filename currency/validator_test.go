package currency_test

import (
	"encoding/json"
	"math/big"

	"github.com/btcsuite/btcd/wire"
	. "github.com/renproject/libutxo-go/currency"
	"github.com/renproject/libutxo-go/network"
	"github.com/renproject/libutxo-go/primitives"
	"github.com/renproject/libutxo-go/smarttx"
	"github.com/renproject/libutxo-go/utxoset"
	"github.com/sirupsen/logrus"

	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("Funded transfer validation", func() {
	funder := testKey(1)
	recipient := testKey(2)

	Context("when a token output funds a P2PKH payment", func() {
		var (
			validator   *Validator
			unfundedHex string
			input       utxoset.UTXO
		)

		BeforeEach(func() {
			validator = NewValidator(nil)

			var err error
			unfundedHex, err = CreateUnfundedCurrencyTransfer(vrscTestID, []TransferOutput{{
				Currency: vrscTestID,
				Satoshis: 100000000,
				Address:  recipient.Address(),
			}}, network.Verus, 0)
			Expect(err).ShouldNot(HaveOccurred())

			input = testUTXO(0xaa, 1, tokenScript(pkhDest(funder), primitives.CurrencyValueMap{}), 299396832)
		})

		It("should report the funded value", func() {
			change := wire.NewTxOut(199386832, p2pkh(funder))
			fundedHex := fund(unfundedHex, []utxoset.UTXO{input}, change)

			result := validator.ValidateFundedCurrencyTransfer(vrscTestID, fundedHex, unfundedHex, funder.Address(), network.Verus, []utxoset.UTXO{input})
			Expect(result.Message).Should(BeEmpty())
			Expect(result.Valid).Should(BeTrue())
			Expect(result.In.Strings()).Should(Equal(map[string]string{vrscTestID: "299396832"}))
			Expect(result.Out.Strings()).Should(Equal(map[string]string{vrscTestID: "299386832"}))
			Expect(result.Change.Strings()).Should(Equal(map[string]string{vrscTestID: "199386832"}))
			Expect(result.Fees.Strings()).Should(Equal(map[string]string{vrscTestID: "10000"}))
			Expect(result.Sent.Strings()).Should(Equal(map[string]string{vrscTestID: "100000000"}))

			data, err := json.Marshal(result)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(data).Should(MatchJSON(`{
				"valid": true,
				"in": {"` + vrscTestID + `": "299396832"},
				"out": {"` + vrscTestID + `": "299386832"},
				"change": {"` + vrscTestID + `": "199386832"},
				"fees": {"` + vrscTestID + `": "10000"},
				"sent": {"` + vrscTestID + `": "100000000"}
			}`))
		})

		It("should accept change outputs before the payment", func() {
			tx := parseTx(fund(unfundedHex, []utxoset.UTXO{input}))
			tx.TxOut = append([]*wire.TxOut{wire.NewTxOut(199386832, p2pkh(funder))}, tx.TxOut...)
			fundedHex, err := tx.ToHex()
			Expect(err).ShouldNot(HaveOccurred())

			result := validator.ValidateFundedCurrencyTransfer(vrscTestID, fundedHex, unfundedHex, funder.Address(), network.Verus, []utxoset.UTXO{input})
			Expect(result.Valid).Should(BeTrue())
			Expect(result.Sent.Strings()).Should(Equal(map[string]string{vrscTestID: "100000000"}))
		})

		It("should accept smart change outputs without an eval code", func() {
			change := wire.NewTxOut(199386832, tokenScript(pkhDest(funder), primitives.CurrencyValueMap{}))
			fundedHex := fund(unfundedHex, []utxoset.UTXO{input}, change)

			result := validator.ValidateFundedCurrencyTransfer(vrscTestID, fundedHex, unfundedHex, funder.Address(), network.Verus, []utxoset.UTXO{input})
			Expect(result.Valid).Should(BeTrue())
			Expect(result.Fees.Strings()).Should(Equal(map[string]string{vrscTestID: "10000"}))
		})

		It("should reject transactions without inputs", func() {
			result := validator.ValidateFundedCurrencyTransfer(vrscTestID, unfundedHex, unfundedHex, funder.Address(), network.Verus, nil)
			Expect(result).Should(Equal(Result{Valid: false, Message: "Transaction has 0 inputs."}))

			data, err := json.Marshal(result)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(data).Should(MatchJSON(`{"valid": false, "message": "Transaction has 0 inputs."}`))
		})

		It("should reject change outputs with a master eval code", func() {
			master := simpleParams(smarttx.EvalEarnedNotarization, pkhDest(funder), []byte{0x01})
			change := wire.NewTxOut(199386832, smartScript(master, simpleParams(smarttx.EvalNone, pkhDest(funder))))
			fundedHex := fund(unfundedHex, []utxoset.UTXO{input}, change)

			result := validator.ValidateFundedCurrencyTransfer(vrscTestID, fundedHex, unfundedHex, funder.Address(), network.Verus, []utxoset.UTXO{input})
			Expect(result).Should(Equal(Result{Valid: false, Message: "Unsupported eval code 4"}))
		})

		table.DescribeTable("should report unsupported eval codes verbatim",
			func(unfundedEval, inputEval smarttx.EvalCode) {
				tx := parseTx(unfundedHex)
				tx.TxOut[0].PkScript = smartScript(simpleParams(smarttx.EvalNone, pkhDest(funder)), simpleParams(unfundedEval, pkhDest(funder), []byte{0x01}))
				customHex, err := tx.ToHex()
				Expect(err).ShouldNot(HaveOccurred())

				spent := testUTXO(0xaa, 1, smartScript(simpleParams(smarttx.EvalNone, pkhDest(funder)), simpleParams(inputEval, pkhDest(funder), []byte{0x01})), 299396832)
				fundedHex := fund(customHex, []utxoset.UTXO{spent}, wire.NewTxOut(199386832, p2pkh(funder)))

				result := validator.ValidateFundedCurrencyTransfer(vrscTestID, fundedHex, customHex, funder.Address(), network.Verus, []utxoset.UTXO{spent})
				Expect(result).Should(Equal(Result{Valid: false, Message: "Unsupported eval code 4"}))
			},
			table.Entry("in an unfunded output", smarttx.EvalEarnedNotarization, smarttx.EvalStakeGuard),
			table.Entry("in a spent input", smarttx.EvalStakeGuard, smarttx.EvalEarnedNotarization),
		)

		It("should reject multisig change outputs", func() {
			master := &smarttx.OptCCParams{
				Version:      smarttx.VersionV3,
				M:            1,
				N:            2,
				Destinations: []smarttx.TxDestination{pkhDest(funder), pkhDest(recipient)},
			}
			change := wire.NewTxOut(199386832, smartScript(master, simpleParams(smarttx.EvalNone, pkhDest(funder))))
			fundedHex := fund(unfundedHex, []utxoset.UTXO{input}, change)

			result := validator.ValidateFundedCurrencyTransfer(vrscTestID, fundedHex, unfundedHex, funder.Address(), network.Verus, []utxoset.UTXO{input})
			Expect(result.Valid).Should(BeFalse())
			Expect(result.Message).Should(ContainSubstring("multisig"))
		})

		It("should reject change paying another address", func() {
			change := wire.NewTxOut(199386832, p2pkh(recipient))
			fundedHex := fund(unfundedHex, []utxoset.UTXO{input}, change)

			result := validator.ValidateFundedCurrencyTransfer(vrscTestID, fundedHex, unfundedHex, funder.Address(), network.Verus, []utxoset.UTXO{input})
			Expect(result.Valid).Should(BeFalse())
			Expect(result.Message).Should(ContainSubstring(recipient.Address()))
		})

		It("should reject a funded transaction that changes the payment", func() {
			tx := parseTx(fund(unfundedHex, []utxoset.UTXO{input}))
			tx.TxOut[0].Value++
			fundedHex, err := tx.ToHex()
			Expect(err).ShouldNot(HaveOccurred())

			result := validator.ValidateFundedCurrencyTransfer(vrscTestID, fundedHex, unfundedHex, funder.Address(), network.Verus, []utxoset.UTXO{input})
			Expect(result).Should(Equal(Result{Valid: false, Message: "Transaction hex does not match unfunded component."}))
		})

		It("should reject a funded transaction with another expiry height", func() {
			tx := parseTx(fund(unfundedHex, []utxoset.UTXO{input}, wire.NewTxOut(199386832, p2pkh(funder))))
			tx.Zcash.ExpiryHeight = 100
			fundedHex, err := tx.ToHex()
			Expect(err).ShouldNot(HaveOccurred())

			result := validator.ValidateFundedCurrencyTransfer(vrscTestID, fundedHex, unfundedHex, funder.Address(), network.Verus, []utxoset.UTXO{input})
			Expect(result.Message).Should(Equal("Transaction hex does not match unfunded component."))
		})

		It("should reject inputs missing from the UTXO list", func() {
			fundedHex := fund(unfundedHex, []utxoset.UTXO{input}, wire.NewTxOut(199386832, p2pkh(funder)))
			result := validator.ValidateFundedCurrencyTransfer(vrscTestID, fundedHex, unfundedHex, funder.Address(), network.Verus, nil)
			Expect(result.Valid).Should(BeFalse())
			Expect(result.Message).Should(ContainSubstring("not found"))
		})

		It("should reject outputs exceeding the inputs", func() {
			poor := testUTXO(0xaa, 1, p2pkh(funder), 1000)
			fundedHex := fund(unfundedHex, []utxoset.UTXO{poor}, wire.NewTxOut(199386832, p2pkh(funder)))
			result := validator.ValidateFundedCurrencyTransfer(vrscTestID, fundedHex, unfundedHex, funder.Address(), network.Verus, []utxoset.UTXO{poor})
			Expect(result).Should(Equal(Result{Valid: false, Message: "Insufficient funds for currency " + vrscTestID}))
		})

		It("should reject malformed transactions", func() {
			result := validator.ValidateFundedCurrencyTransfer(vrscTestID, "00", unfundedHex, funder.Address(), network.Verus, nil)
			Expect(result.Valid).Should(BeFalse())
			Expect(result.Message).ShouldNot(BeEmpty())
		})

		It("should log through the given logger", func() {
			logger := logrus.New()
			logger.SetLevel(logrus.PanicLevel)
			result := NewValidator(logger).ValidateFundedCurrencyTransfer(vrscTestID, unfundedHex, unfundedHex, funder.Address(), network.Verus, nil)
			Expect(result.Valid).Should(BeFalse())
		})
	})

	Context("when validating a created multi-currency transfer", func() {
		systemID := currencyID(1)
		tokenID := currencyID(2)
		identity := currencyID(0x44)

		It("should account payments, conversions and token change", func() {
			unfundedHex, err := CreateUnfundedCurrencyTransfer(systemID, []TransferOutput{
				{Currency: systemID, Satoshis: 50000000, Address: recipient.Address()},
				{Currency: tokenID, Satoshis: 300, Address: identity},
				{Currency: systemID, Satoshis: 1000000, Address: recipient.Address(), ConvertTo: tokenID, FeeSatoshis: 20000},
			}, network.Verus, 2000000)
			Expect(err).ShouldNot(HaveOccurred())

			utxos := []utxoset.UTXO{
				testUTXO(0x01, 0, p2pkh(funder), 200000000),
				testUTXO(0x02, 3, tokenScript(pkhDest(funder), primitives.CurrencyValueMap{tokenID: big.NewInt(1000)}), 0),
			}
			fundedHex := fund(unfundedHex, utxos,
				wire.NewTxOut(148970000, p2pkh(funder)),
				wire.NewTxOut(0, tokenScript(pkhDest(funder), primitives.CurrencyValueMap{tokenID: big.NewInt(700)})),
			)

			result := NewValidator(nil).ValidateFundedCurrencyTransfer(systemID, fundedHex, unfundedHex, funder.Address(), network.Verus, utxos)
			Expect(result.Message).Should(BeEmpty())
			Expect(result.Valid).Should(BeTrue())
			Expect(result.In.Strings()).Should(Equal(map[string]string{systemID: "200000000", tokenID: "1000"}))
			Expect(result.Change.Strings()).Should(Equal(map[string]string{systemID: "148970000", tokenID: "700"}))
			Expect(result.Fees.Strings()).Should(Equal(map[string]string{systemID: "30000", tokenID: "0"}))
			Expect(result.Sent.Strings()).Should(Equal(map[string]string{systemID: "51000000", tokenID: "300"}))
		})
	})
})
