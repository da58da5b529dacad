package script_test

import (
	"bytes"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/renproject/libutxo-go/errors"
	. "github.com/renproject/libutxo-go/script"

	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

func privKey(seed byte) *btcec.PrivateKey {
	priv, _ := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{seed}, 32))
	return priv
}

func sign(priv *btcec.PrivateKey, msg string) []byte {
	sig := ecdsa.Sign(priv, chainhash.DoubleHashB([]byte(msg)))
	return append(sig.Serialize(), byte(txscript.SigHashAll))
}

func mustCompile(chunks ...Chunk) []byte {
	script, err := Compile(chunks)
	Expect(err).ShouldNot(HaveOccurred())
	return script
}

var _ = Describe("Script", func() {
	keys := []*btcec.PrivateKey{privKey(1), privKey(2), privKey(3)}
	pubKeys := [][]byte{
		keys[0].PubKey().SerializeCompressed(),
		keys[1].PubKey().SerializeCompressed(),
		keys[2].PubKey().SerializeCompressed(),
	}

	Context("when decompiling and compiling", func() {
		It("should round trip pushes and opcodes", func() {
			original := mustCompile(
				DataChunk(nil),
				DataChunk([]byte{0x05}),
				DataChunk(bytes.Repeat([]byte{0xab}, 80)),
				OpChunk(txscript.OP_2),
				OpChunk(OP_CHECKCRYPTOCONDITION),
			)
			chunks, err := Decompile(original)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(chunks).Should(HaveLen(5))
			Expect(chunks[0].IsEmpty()).Should(BeTrue())
			Expect(chunks[1].Data).Should(Equal([]byte{0x05}))
			Expect(chunks[2].Opcode).Should(Equal(byte(txscript.OP_PUSHDATA1)))
			n, ok := chunks[3].SmallInt()
			Expect(ok).Should(BeTrue())
			Expect(n).Should(Equal(2))
			Expect(mustCompile(chunks...)).Should(Equal(original))
		})

		It("should reject a push that runs past the end of the script", func() {
			_, err := Decompile([]byte{txscript.OP_DATA_20, 0x01})
			Expect(err).Should(MatchError(ContainSubstring(errors.ErrInvalidScript.Error())))
		})

		It("should remove every code separator", func() {
			script := mustCompile(
				OpChunk(txscript.OP_CODESEPARATOR),
				DataChunk([]byte{txscript.OP_CODESEPARATOR, 0x01}),
				OpChunk(txscript.OP_CODESEPARATOR),
				OpChunk(txscript.OP_CHECKSIG),
			)
			cleaned, err := RemoveOpcode(script, txscript.OP_CODESEPARATOR)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(cleaned).Should(Equal(mustCompile(
				DataChunk([]byte{txscript.OP_CODESEPARATOR, 0x01}),
				OpChunk(txscript.OP_CHECKSIG),
			)))
		})
	})

	Context("when classifying outputs", func() {
		p2pkh, _ := PayToPubKeyScript(pubKeys[0])
		multisig, _ := MultiSigScript(2, pubKeys)
		p2sh, _ := PayToScriptHashScript(multisig)
		p2wsh, _ := PayToWitnessScriptHashScript(multisig)
		p2wpkh, _ := txscript.NewScriptBuilder().
			AddOp(txscript.OP_0).AddData(btcutil.Hash160(pubKeys[0])).Script()
		p2pk, _ := txscript.NewScriptBuilder().
			AddData(pubKeys[0]).AddOp(txscript.OP_CHECKSIG).Script()
		nullData, _ := txscript.NullDataScript([]byte("hello"))
		smart, _ := Compile([]Chunk{
			DataChunk([]byte{1, 2, 3, 4}),
			OpChunk(OP_CHECKCRYPTOCONDITION),
			DataChunk([]byte{5, 6, 7, 8}),
			OpChunk(txscript.OP_DROP),
		})

		table.DescribeTable("should classify each template",
			func(script []byte, expected Class) {
				Expect(ClassifyOutput(script)).Should(Equal(expected))
			},
			table.Entry("p2pkh", p2pkh, PubKeyHashTy),
			table.Entry("p2sh", p2sh, ScriptHashTy),
			table.Entry("p2wsh", p2wsh, WitnessV0ScriptHashTy),
			table.Entry("p2wpkh", p2wpkh, WitnessV0PubKeyHashTy),
			table.Entry("p2pk", p2pk, PubKeyTy),
			table.Entry("bare multisig", multisig, MultiSigTy),
			table.Entry("null data", nullData, NullDataTy),
			table.Entry("smart transaction", smart, CryptoConditionTy),
			table.Entry("empty", []byte{}, NonStandardTy),
			table.Entry("garbage", []byte{txscript.OP_DATA_20}, NonStandardTy),
		)

		It("should extract the hash of a p2pkh script", func() {
			hash, ok := PubKeyHash(p2pkh)
			Expect(ok).Should(BeTrue())
			Expect(hash).Should(Equal(btcutil.Hash160(pubKeys[0])))
			_, ok = PubKeyHash(p2sh)
			Expect(ok).Should(BeFalse())
		})
	})

	Context("when parsing a p2pkh signature script", func() {
		It("should return the signature, the key and the committed script", func() {
			sig := sign(keys[0], "p2pkh")
			sigScript := mustCompile(DataChunk(sig), DataChunk(pubKeys[0]))
			Expect(ClassifyInput(sigScript, false)).Should(Equal(PubKeyHashTy))

			parsed, err := ParseSignatureScript(sigScript, nil)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(parsed.Class).Should(Equal(PubKeyHashTy))
			Expect(parsed.Signatures).Should(Equal([][]byte{sig}))
			Expect(parsed.PublicKeys).Should(Equal([][]byte{pubKeys[0]}))
			expected, _ := PayToPubKeyScript(pubKeys[0])
			Expect(parsed.PubScript).Should(Equal(expected))
		})

		It("should return only the class of an unknown shape", func() {
			parsed, err := ParseSignatureScript(mustCompile(OpChunk(txscript.OP_TRUE)), nil)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(parsed.Class).Should(Equal(NonStandardTy))
			Expect(parsed.Signatures).Should(BeEmpty())
			Expect(parsed.PublicKeys).Should(BeEmpty())
		})
	})

	Context("when parsing a 2-of-3 multisig spend", func() {
		redeem, _ := MultiSigScript(2, pubKeys)
		sig0 := sign(keys[0], "multisig")
		sig1 := sign(keys[1], "multisig")

		table.DescribeTable("should accept partial and complete signature sets",
			func(sigs [][]byte) {
				chunks := []Chunk{DataChunk(nil)}
				for _, sig := range sigs {
					chunks = append(chunks, DataChunk(sig))
				}
				chunks = append(chunks, DataChunk(redeem))
				sigScript := mustCompile(chunks...)
				Expect(ClassifyInput(sigScript, true)).Should(Equal(ScriptHashTy))

				parsed, err := ParseSignatureScript(sigScript, nil)
				Expect(err).ShouldNot(HaveOccurred())
				Expect(parsed.Class).Should(Equal(ScriptHashTy))
				Expect(parsed.PublicKeys).Should(Equal(pubKeys))
				Expect(parsed.PubScript).Should(Equal(redeem))
				Expect(parsed.Signatures).Should(HaveLen(len(sigs) + 1))
				for i, sig := range sigs {
					Expect(parsed.Signatures[i+1]).Should(Equal(sig))
				}
			},
			table.Entry("no signatures", [][]byte{{}, {}, {}}),
			table.Entry("one signature", [][]byte{sig0, {}, {}}),
			table.Entry("one signature and a placeholder", [][]byte{sig0, {}}),
			table.Entry("two signatures", [][]byte{sig0, sig1}),
		)

		It("should parse the same spend from a witness", func() {
			witness := [][]byte{{}, sig0, sig1, redeem}
			Expect(ClassifyWitness(witness, false)).Should(Equal(WitnessV0ScriptHashTy))
			parsed, err := ParseSignatureScript(nil, witness)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(parsed.Class).Should(Equal(WitnessV0ScriptHashTy))
			Expect(parsed.Signatures).Should(Equal([][]byte{{}, sig0, sig1}))
			Expect(parsed.PubScript).Should(Equal(redeem))
		})

		It("should reject a spend with too few elements", func() {
			sigScript := mustCompile(DataChunk(nil), DataChunk(sig0), DataChunk(redeem))
			_, err := ParseSignatureScript(sigScript, nil)
			Expect(err).Should(MatchError(ContainSubstring(errors.ErrSignatureCountMismatch.Error())))
		})

		It("should reject a spend with too many elements", func() {
			sigScript := mustCompile(
				DataChunk(nil), DataChunk(nil), DataChunk(nil),
				DataChunk(nil), DataChunk(nil), DataChunk(redeem),
			)
			_, err := ParseSignatureScript(sigScript, nil)
			Expect(err).Should(MatchError(ContainSubstring(errors.ErrSignatureCountMismatch.Error())))
		})

		It("should reject a redeem script that is not 3 keys", func() {
			twoOfTwo, _ := MultiSigScript(2, pubKeys[:2])
			sigScript := mustCompile(DataChunk(nil), DataChunk(sig0), DataChunk(sig1), DataChunk(twoOfTwo))
			_, err := ParseSignatureScript(sigScript, nil)
			Expect(err).Should(MatchError(ContainSubstring(errors.ErrInvalidRedeemScript.Error())))
		})
	})

	Context("when checking signature encodings", func() {
		It("should accept a DER signature with a known hash type", func() {
			sig := sign(keys[0], "canonical")
			Expect(IsCanonicalSignature(sig)).Should(BeTrue())
			sig[len(sig)-1] = byte(txscript.SigHashAll | SigHashForkID)
			Expect(IsCanonicalSignature(sig)).Should(BeTrue())
		})

		It("should reject an unknown hash type", func() {
			sig := sign(keys[0], "canonical")
			sig[len(sig)-1] = 0x00
			Expect(IsCanonicalSignature(sig)).Should(BeFalse())
			sig[len(sig)-1] = 0x04
			Expect(IsCanonicalSignature(sig)).Should(BeFalse())
		})

		It("should reject a malformed public key", func() {
			Expect(IsCanonicalPubKey(pubKeys[0])).Should(BeTrue())
			Expect(IsCanonicalPubKey(pubKeys[0][1:])).Should(BeFalse())
			Expect(IsCanonicalPubKey(keys[0].PubKey().SerializeUncompressed())).Should(BeTrue())
		})
	})
})
