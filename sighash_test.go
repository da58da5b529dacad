package libutxo_test

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	blake2b "github.com/minio/blake2b-simd"
	. "github.com/renproject/libutxo-go"
	"github.com/renproject/libutxo-go/errors"
	"github.com/renproject/libutxo-go/network"
	"github.com/renproject/libutxo-go/script"

	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("Signature hashes", func() {
	const amount = int64(987654321)

	prevOutScript := func() []byte {
		return mustP2PKH(testKey(1, network.Bitcoin))
	}
	witnessScript := func() []byte {
		redeem, err := script.MultiSigScript(2, [][]byte{
			testKey(1, network.Bitcoin).PublicKey(),
			testKey(2, network.Bitcoin).PublicKey(),
			testKey(3, network.Bitcoin).PublicKey(),
		})
		Expect(err).ShouldNot(HaveOccurred())
		return redeem
	}

	Context("when using the legacy algorithm", func() {
		table.DescribeTable("should match btcd",
			func(hashType txscript.SigHashType, inIndex int) {
				tx := testTx(network.Bitcoin, 2)
				hash, err := tx.SignatureHash(inIndex, prevOutScript(), 0, hashType, false)
				Expect(err).ShouldNot(HaveOccurred())

				expected, err := txscript.CalcSignatureHash(prevOutScript(), hashType, tx.MsgTx, inIndex)
				Expect(err).ShouldNot(HaveOccurred())
				Expect(hash).Should(Equal(expected))
			},
			table.Entry("all", txscript.SigHashAll, 0),
			table.Entry("none", txscript.SigHashNone, 1),
			table.Entry("single", txscript.SigHashSingle, 1),
			table.Entry("all anyone can pay", txscript.SigHashAll|txscript.SigHashAnyOneCanPay, 1),
			table.Entry("single anyone can pay", txscript.SigHashSingle|txscript.SigHashAnyOneCanPay, 0),
		)

		It("should not modify the transaction", func() {
			tx := testTx(network.Bitcoin, 2)
			before, err := tx.ToBytes(true)
			Expect(err).ShouldNot(HaveOccurred())
			_, err = tx.SignatureHash(1, prevOutScript(), 0, txscript.SigHashSingle|txscript.SigHashAnyOneCanPay, false)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(tx.ToBytes(true)).Should(Equal(before))
		})

		It("should return the one sentinel for missing inputs and outputs", func() {
			one := make([]byte, chainhash.HashSize)
			one[chainhash.HashSize-1] = 0x01

			tx := testTx(network.Bitcoin, 2)
			Expect(tx.SignatureHash(2, prevOutScript(), 0, txscript.SigHashAll, false)).Should(Equal(one))

			tx.TxOut = tx.TxOut[:1]
			Expect(tx.SignatureHash(1, prevOutScript(), 0, txscript.SigHashSingle, false)).Should(Equal(one))
		})

		It("should be used by fork id chains without the fork id bit", func() {
			tx := testTx(network.BitcoinCash, 2)
			hash, err := tx.SignatureHash(0, prevOutScript(), amount, txscript.SigHashAll, false)
			Expect(err).ShouldNot(HaveOccurred())
			expected, err := txscript.CalcSignatureHash(prevOutScript(), txscript.SigHashAll, tx.MsgTx, 0)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(hash).Should(Equal(expected))
		})
	})

	Context("when using the BIP143 algorithm", func() {
		table.DescribeTable("should match btcd",
			func(hashType txscript.SigHashType, inIndex int) {
				tx := testTx(network.Bitcoin, 2)
				hash, err := tx.SignatureHash(inIndex, witnessScript(), amount, hashType, true)
				Expect(err).ShouldNot(HaveOccurred())

				pkScript, err := script.PayToWitnessScriptHashScript(witnessScript())
				Expect(err).ShouldNot(HaveOccurred())
				sigHashes := txscript.NewTxSigHashes(tx.MsgTx, txscript.NewCannedPrevOutputFetcher(pkScript, amount))
				expected, err := txscript.CalcWitnessSigHash(witnessScript(), sigHashes, hashType, tx.MsgTx, inIndex, amount)
				Expect(err).ShouldNot(HaveOccurred())
				Expect(hash).Should(Equal(expected))
			},
			table.Entry("all", txscript.SigHashAll, 0),
			table.Entry("none", txscript.SigHashNone, 1),
			table.Entry("single", txscript.SigHashSingle, 1),
			table.Entry("all anyone can pay", txscript.SigHashAll|txscript.SigHashAnyOneCanPay, 0),
			table.Entry("none anyone can pay", txscript.SigHashNone|txscript.SigHashAnyOneCanPay, 1),
		)

		It("should commit to the amount", func() {
			tx := testTx(network.Litecoin, 2)
			hash1, err := tx.SignatureHash(0, witnessScript(), amount, txscript.SigHashAll, true)
			Expect(err).ShouldNot(HaveOccurred())
			hash2, err := tx.SignatureHash(0, witnessScript(), amount+1, txscript.SigHashAll, true)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(hash1).ShouldNot(Equal(hash2))
		})

		It("should reject out of range inputs", func() {
			tx := testTx(network.Bitcoin, 2)
			_, err := tx.SignatureHash(2, witnessScript(), amount, txscript.SigHashAll, true)
			Expect(err).Should(MatchError(errors.ErrInputIndexOutOfRange))
		})
	})

	Context("when using the fork id algorithm", func() {
		table.DescribeTable("should fold the fork id into the BIP143 hash type",
			func(net *network.Network, folded txscript.SigHashType) {
				tx := testTx(net, 2)
				hashType := txscript.SigHashAll | script.SigHashForkID
				hash, err := tx.SignatureHash(0, prevOutScript(), amount, hashType, false)
				Expect(err).ShouldNot(HaveOccurred())

				sigHashes := txscript.NewTxSigHashes(tx.MsgTx, txscript.NewCannedPrevOutputFetcher(prevOutScript(), amount))
				expected, err := txscript.CalcWitnessSigHash(prevOutScript(), sigHashes, folded, tx.MsgTx, 0, amount)
				Expect(err).ShouldNot(HaveOccurred())
				Expect(hash).Should(Equal(expected))
			},
			table.Entry("bitcoin cash", network.BitcoinCash, txscript.SigHashType(0x41)),
			table.Entry("bitcoin sv testnet", network.BitcoinSVTestnet, txscript.SigHashType(0x41)),
			table.Entry("bitcoin gold", network.BitcoinGold, txscript.SigHashType(0x4f41)),
		)
	})

	Context("when using the zcash algorithm", func() {
		zcashTx := func(net *network.Network) *Tx {
			tx := testTx(net, 4)
			tx.Zcash.ExpiryHeight = 1000000
			return tx
		}

		It("should be deterministic and commit to the zcash fields", func() {
			tx := zcashTx(network.Zcash)
			hash, err := tx.SignatureHash(0, prevOutScript(), amount, txscript.SigHashAll, false)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(hash).Should(HaveLen(chainhash.HashSize))
			Expect(tx.SignatureHash(0, prevOutScript(), amount, txscript.SigHashAll, false)).Should(Equal(hash))

			expiry := zcashTx(network.Zcash)
			expiry.Zcash.ExpiryHeight++
			Expect(expiry.SignatureHash(0, prevOutScript(), amount, txscript.SigHashAll, false)).ShouldNot(Equal(hash))

			branch := zcashTx(network.Zcash)
			branch.Zcash.ConsensusBranchID = 0x2bb40e60
			Expect(branch.SignatureHash(0, prevOutScript(), amount, txscript.SigHashAll, false)).ShouldNot(Equal(hash))

			Expect(tx.SignatureHash(0, prevOutScript(), amount+1, txscript.SigHashAll, false)).ShouldNot(Equal(hash))
			Expect(tx.SignatureHash(1, prevOutScript(), amount, txscript.SigHashAll, false)).ShouldNot(Equal(hash))
		})

		// personal hashes data with BLAKE2b-256 under a 16 byte personalization.
		personal := func(person []byte, data ...[]byte) []byte {
			h, err := blake2b.New(&blake2b.Config{Size: 32, Person: person})
			Expect(err).ShouldNot(HaveOccurred())
			for _, d := range data {
				h.Write(d)
			}
			return h.Sum(nil)
		}

		table.DescribeTable("should hash the preimage laid out from the serialized transaction",
			func(version int32, header, versionGroup string, branchID uint32) {
				tx := testTx(network.Zcash, version)
				tx.Zcash.ExpiryHeight = 215039
				raw := serialize(tx, true)
				Expect(hex.EncodeToString(raw[:8])).Should(Equal(header + versionGroup))

				// Two inputs with one byte scripts, then two P2PKH outputs.
				const inputSize, outputsStart, outputsEnd = 42, 93, 162
				Expect(raw[8]).Should(Equal(byte(2)))
				Expect(raw[outputsStart]).Should(Equal(byte(2)))
				outpoint := func(i int) []byte { return raw[9+inputSize*i : 9+inputSize*i+36] }
				sequence := func(i int) []byte { return raw[9+inputSize*i+38 : 9+inputSize*(i+1)] }
				outputs := raw[outputsStart+1 : outputsEnd]
				lockTime, expiry := raw[outputsEnd:outputsEnd+4], raw[outputsEnd+4:outputsEnd+8]

				zero := make([]byte, 32)
				preimage := new(bytes.Buffer)
				preimage.Write(raw[:8])
				preimage.Write(personal([]byte("ZcashPrevoutHash"), outpoint(0), outpoint(1)))
				preimage.Write(personal([]byte("ZcashSequencHash"), sequence(0), sequence(1)))
				preimage.Write(personal([]byte("ZcashOutputsHash"), outputs))
				preimage.Write(zero)
				if version >= 4 {
					preimage.Write(zero)
					preimage.Write(zero)
				}
				preimage.Write(lockTime)
				preimage.Write(expiry)
				if version >= 4 {
					preimage.Write(make([]byte, 8))
				}
				preimage.Write([]byte{0x01, 0x00, 0x00, 0x00})
				preimage.Write(outpoint(0))
				preimage.WriteByte(byte(len(prevOutScript())))
				preimage.Write(prevOutScript())
				Expect(binary.Write(preimage, binary.LittleEndian, amount)).Should(Succeed())
				preimage.Write(sequence(0))

				person := append([]byte("ZcashSigHash"), 0, 0, 0, 0)
				binary.LittleEndian.PutUint32(person[12:], branchID)

				hash, err := tx.SignatureHash(0, prevOutScript(), amount, txscript.SigHashAll, false)
				Expect(err).ShouldNot(HaveOccurred())
				Expect(hash).Should(Equal(personal(person, preimage.Bytes())))
			},
			table.Entry("overwinter", int32(3), "03000080", "7082c403", uint32(0x5ba81b19)),
			table.Entry("sapling", int32(4), "04000080", "85202f89", uint32(0x76b809bb)),
		)

		It("should ignore the segwit flag", func() {
			tx := zcashTx(network.Verus)
			hash, err := tx.SignatureHash(0, prevOutScript(), amount, txscript.SigHashAll, false)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(tx.SignatureHash(0, prevOutScript(), amount, txscript.SigHashAll, true)).Should(Equal(hash))
		})

		It("should differ from the BIP143 digest", func() {
			hash, err := zcashTx(network.Zcash).SignatureHash(0, prevOutScript(), amount, txscript.SigHashAll, false)
			Expect(err).ShouldNot(HaveOccurred())
			bip143, err := testTx(network.Bitcoin, 4).SignatureHash(0, prevOutScript(), amount, txscript.SigHashAll, true)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(hash).ShouldNot(Equal(bip143))
		})

		It("should sign without a transparent input", func() {
			tx := zcashTx(network.Zcash)
			hash, err := tx.SignatureHash(NoTransparentInput, nil, 0, txscript.SigHashAll, false)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(hash).Should(HaveLen(chainhash.HashSize))
		})

		It("should reject pre-overwinter transactions", func() {
			tx := testTx(network.Zcash, 2)
			_, err := tx.SignatureHash(0, prevOutScript(), amount, txscript.SigHashAll, false)
			Expect(err).Should(MatchError(errors.ErrPreOverwinterSigning))
		})

		It("should reject out of range inputs", func() {
			_, err := zcashTx(network.Zcash).SignatureHash(2, prevOutScript(), amount, txscript.SigHashAll, false)
			Expect(err).Should(MatchError(errors.ErrInputIndexOutOfRange))
		})
	})
})
