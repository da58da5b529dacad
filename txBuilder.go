package libutxo

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/renproject/libutxo-go/address"
	"github.com/renproject/libutxo-go/errors"
	"github.com/renproject/libutxo-go/network"
	"github.com/renproject/libutxo-go/script"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultZcashVersion is the sapling transaction version.
	DefaultZcashVersion = ZcashSaplingVersion
	// DefaultVersion is used by every other network.
	DefaultVersion = 2

	// multisigKeys is the only multisig width the signature script parser
	// understands.
	multisigKeys = 3
)

// An Option configures a TxBuilder.
type Option func(*TxBuilder)

// WithLogger sets the builder logger. By default nothing is logged.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(builder *TxBuilder) {
		builder.logger = logger
	}
}

// WithVersion overrides the transaction version.
func WithVersion(version int32) Option {
	return func(builder *TxBuilder) {
		builder.version = version
	}
}

func WithLockTime(lockTime uint32) Option {
	return func(builder *TxBuilder) {
		builder.lockTime = lockTime
	}
}

// WithExpiryHeight sets the expiry height of Zcash-family transactions. It is
// ignored on other networks.
func WithExpiryHeight(height uint32) Option {
	return func(builder *TxBuilder) {
		builder.expiryHeight = height
	}
}

// builderInput is the signing state of one input.
type builderInput struct {
	prevOutScript []byte
	class         script.Class
	amount        int64
	// signScript is the script the signatures commit to.
	signScript []byte
	pubKeys    [][]byte
	m          int
	// signatures is indexed like pubKeys. A nil entry is a missing
	// signature.
	signatures [][]byte
}

func (input *builderInput) signed() int {
	count := 0
	for _, sig := range input.signatures {
		if sig != nil {
			count++
		}
	}
	return count
}

func (input *builderInput) complete() bool {
	if input.class == script.PubKeyHashTy {
		return input.signed() == 1
	}
	return input.class != script.NonStandardTy && input.signed() >= input.m
}

// TxBuilder assembles and signs transactions of one network. Inputs can be
// signed by several independent signers before the transaction is built.
type TxBuilder struct {
	network      *network.Network
	version      int32
	lockTime     uint32
	expiryHeight uint32
	logger       logrus.FieldLogger

	tx     *Tx
	inputs []*builderInput
}

// NewTxBuilder returns an empty builder for net.
func NewTxBuilder(net *network.Network, opts ...Option) (*TxBuilder, error) {
	builder := &TxBuilder{network: net, version: DefaultVersion}
	if network.IsZcashCompatible(net) {
		builder.version = DefaultZcashVersion
	}
	for _, opt := range opts {
		opt(builder)
	}
	if builder.logger == nil {
		builder.logger = nullLogger()
	}

	tx, err := NewTx(net, builder.version)
	if err != nil {
		return nil, err
	}
	tx.LockTime = builder.lockTime
	if tx.Zcash != nil {
		tx.Zcash.ExpiryHeight = builder.expiryHeight
	}
	builder.tx = tx
	return builder, nil
}

// AddInput spends output vout of txHash (in display byte order) and returns
// the index of the new input. prevOutScript is the script of the spent
// output; it may be nil for P2PKH and P2SH inputs, in which case it is
// derived when the input is signed.
func (builder *TxBuilder) AddInput(txHash string, vout, sequence uint32, prevOutScript []byte) (int, error) {
	hash, err := chainhash.NewHashFromStr(txHash)
	if err != nil {
		return 0, err
	}
	outPoint := wire.NewOutPoint(hash, vout)
	for _, txIn := range builder.tx.TxIn {
		if txIn.PreviousOutPoint == *outPoint {
			return 0, fmt.Errorf("duplicate input %v", outPoint)
		}
	}

	txIn := wire.NewTxIn(outPoint, nil, nil)
	txIn.Sequence = sequence
	builder.tx.AddTxIn(txIn)
	builder.inputs = append(builder.inputs, &builderInput{prevOutScript: prevOutScript})
	return len(builder.tx.TxIn) - 1, nil
}

// AddOutput pays value to pkScript and returns the index of the new output.
func (builder *TxBuilder) AddOutput(pkScript []byte, value int64) (int, error) {
	if value < 0 {
		return 0, fmt.Errorf("output value %d is negative", value)
	}
	builder.tx.AddTxOut(wire.NewTxOut(value, pkScript))
	return len(builder.tx.TxOut) - 1, nil
}

// AddOutputAddress pays value to a P2PKH or P2SH address of the builder's
// network.
func (builder *TxBuilder) AddOutputAddress(addr string, value int64) (int, error) {
	decoded, err := address.Decode(addr, builder.network)
	if err != nil {
		return 0, err
	}
	pkScript, err := address.PayToAddrScript(decoded)
	if err != nil {
		return 0, err
	}
	return builder.AddOutput(pkScript, value)
}

// Sign adds the signature of signer to input vin. redeemScript is the
// multisig script of P2SH and P2WSH inputs and nil for P2PKH inputs; amount
// is the value of the spent output. On fork id networks the fork id bit is
// added to hashType.
func (builder *TxBuilder) Sign(vin int, signer Signer, redeemScript []byte, hashType txscript.SigHashType, amount int64) error {
	if vin < 0 || vin >= len(builder.inputs) {
		return errors.ErrInputIndexOutOfRange
	}
	input := builder.inputs[vin]
	pubKey := signer.PublicKey()

	if err := builder.prepareInput(input, pubKey, redeemScript, amount); err != nil {
		return fmt.Errorf("cannot sign input %d: %w", vin, err)
	}
	slot := -1
	for i, key := range input.pubKeys {
		if bytes.Equal(key, pubKey) {
			slot = i
			break
		}
	}
	if slot < 0 {
		return fmt.Errorf("cannot sign input %d: signer key is not part of the spent script", vin)
	}

	if network.UsesForkID(builder.network) {
		hashType |= script.SigHashForkID
	}
	hash, err := builder.tx.SignatureHash(vin, input.signScript, amount, hashType, input.class == script.WitnessV0ScriptHashTy)
	if err != nil {
		return err
	}
	sig, err := signer.Sign(hash)
	if err != nil {
		return err
	}
	input.signatures[slot] = append(sig, byte(hashType))
	builder.logger.Infof("signed input %d (%v) with key %d of %d", vin, input.class, slot+1, len(input.pubKeys))
	return nil
}

// prepareInput resolves the input's script class and key set on its first
// signature and checks later signatures against them.
func (builder *TxBuilder) prepareInput(input *builderInput, pubKey, redeemScript []byte, amount int64) error {
	if input.class != script.NonStandardTy {
		if input.amount != amount {
			return fmt.Errorf("amount %d differs from previously signed amount %d", amount, input.amount)
		}
		if input.class != script.PubKeyHashTy && !bytes.Equal(redeemScript, input.signScript) {
			return fmt.Errorf("%w: redeem script differs from previously signed one", errors.ErrInvalidRedeemScript)
		}
		return nil
	}

	prevOutScript := input.prevOutScript
	var err error
	if len(prevOutScript) == 0 {
		if redeemScript == nil {
			prevOutScript, err = script.PayToPubKeyScript(pubKey)
		} else {
			prevOutScript, err = script.PayToScriptHashScript(redeemScript)
		}
		if err != nil {
			return err
		}
	}

	class := script.ClassifyOutput(prevOutScript)
	switch class {
	case script.PubKeyHashTy:
		hash, _ := script.PubKeyHash(prevOutScript)
		if !bytes.Equal(hash, btcutil.Hash160(pubKey)) {
			return fmt.Errorf("signer does not own the spent output")
		}
		input.signScript = prevOutScript
		input.pubKeys = [][]byte{pubKey}
		input.m = 1
	case script.ScriptHashTy, script.WitnessV0ScriptHashTy:
		var expected []byte
		if class == script.ScriptHashTy {
			expected, err = script.PayToScriptHashScript(redeemScript)
		} else {
			if network.IsZcashCompatible(builder.network) {
				return fmt.Errorf("%v does not support witness inputs", builder.network)
			}
			expected, err = script.PayToWitnessScriptHashScript(redeemScript)
		}
		if err != nil {
			return err
		}
		if !bytes.Equal(expected, prevOutScript) {
			return fmt.Errorf("%w: script does not hash to the spent output", errors.ErrInvalidRedeemScript)
		}
		m, pubKeys, err := parseMultiSigRedeemScript(redeemScript)
		if err != nil {
			return err
		}
		input.signScript = redeemScript
		input.pubKeys = pubKeys
		input.m = m
	default:
		return fmt.Errorf("%w: cannot sign %v outputs", errors.ErrInvalidScript, class)
	}

	input.prevOutScript = prevOutScript
	input.class = class
	input.amount = amount
	input.signatures = make([][]byte, len(input.pubKeys))
	return nil
}

func parseMultiSigRedeemScript(redeemScript []byte) (int, [][]byte, error) {
	if script.ClassifyOutput(redeemScript) != script.MultiSigTy {
		return 0, nil, errors.ErrInvalidRedeemScript
	}
	chunks, err := script.Decompile(redeemScript)
	if err != nil {
		return 0, nil, err
	}
	m, _ := chunks[0].SmallInt()
	pubKeys := make([][]byte, 0, len(chunks)-3)
	for _, chunk := range chunks[1 : len(chunks)-2] {
		pubKeys = append(pubKeys, chunk.Data)
	}
	if len(pubKeys) != multisigKeys || m < 2 {
		return 0, nil, fmt.Errorf("%w: only 2-of-3 and 3-of-3 are supported, got %d-of-%d",
			errors.ErrInvalidRedeemScript, m, len(pubKeys))
	}
	return m, pubKeys, nil
}

// Build returns the transaction once every input is fully signed.
func (builder *TxBuilder) Build() (*Tx, error) {
	for i, input := range builder.inputs {
		if !input.complete() {
			return nil, fmt.Errorf("%w: input %d has %d signatures", errors.ErrIncompleteTransaction, i, input.signed())
		}
	}
	return builder.build(false)
}

// BuildIncomplete returns the transaction as signed so far. Missing multisig
// signatures are written as OP_0 placeholders in key order, so the result can
// be passed to other signers and parsed back.
func (builder *TxBuilder) BuildIncomplete() (*Tx, error) {
	return builder.build(true)
}

func (builder *TxBuilder) build(allowIncomplete bool) (*Tx, error) {
	tx := builder.tx.Clone()
	for i, input := range builder.inputs {
		if input.signed() == 0 {
			continue
		}
		txIn := tx.TxIn[i]
		switch input.class {
		case script.PubKeyHashTy:
			sigScript, err := script.Compile([]script.Chunk{
				script.DataChunk(input.signatures[0]),
				script.DataChunk(input.pubKeys[0]),
			})
			if err != nil {
				return nil, err
			}
			txIn.SignatureScript = sigScript
		case script.ScriptHashTy:
			stack := multisigStack(input, allowIncomplete && !input.complete())
			sigScript, err := script.Compile(script.WitnessChunks(stack))
			if err != nil {
				return nil, err
			}
			txIn.SignatureScript = sigScript
		case script.WitnessV0ScriptHashTy:
			txIn.Witness = multisigStack(input, allowIncomplete && !input.complete())
		}
	}
	builder.logger.Debugf("built %d input transaction with %d outputs", len(tx.TxIn), len(tx.TxOut))
	return tx, nil
}

// multisigStack lays out OP_0 <sig>... <redeem script>. A complete input
// carries exactly m signatures; an incomplete one carries one entry per key.
func multisigStack(input *builderInput, placeholders bool) [][]byte {
	stack := [][]byte{{}}
	added := 0
	for _, sig := range input.signatures {
		switch {
		case sig != nil && (placeholders || added < input.m):
			stack = append(stack, sig)
			added++
		case sig == nil && placeholders:
			stack = append(stack, []byte{})
		}
	}
	return append(stack, input.signScript)
}
