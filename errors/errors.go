package errors

import (
	"errors"
	"fmt"
)

// ErrTruncatedInput indicates that a read would run past the end of the
// buffer.
var ErrTruncatedInput = errors.New("truncated input")

// ErrBufferOverflow indicates that a write would run past the end of a
// pre-sized buffer.
var ErrBufferOverflow = errors.New("buffer overflow")

// ErrBufferNotFilled indicates that a pre-sized buffer was read back before
// every byte of it was written.
var ErrBufferNotFilled = errors.New("buffer not filled")

// ErrTrailingData indicates that a strict parse finished before the end of
// the buffer.
var ErrTrailingData = errors.New("transaction has unexpected data")

var ErrSuperfluousWitnessData = errors.New("transaction has superfluous witness data")

var ErrUnsupportedShieldedData = errors.New("shielded spends and outputs are not supported")

var ErrUnsupportedJoinSplits = errors.New("joinsplits are not supported")

var ErrInvalidSpecialTxType = errors.New("invalid dash special transaction type")

// ErrPreOverwinterSigning is returned when a Zcash-family signature hash is
// requested for a transaction that is not overwinter-compatible.
var ErrPreOverwinterSigning = errors.New("signing pre-overwinter zcash transactions is not supported")

var ErrNotZcashCompatible = errors.New("network is not zcash compatible")

var ErrInputIndexOutOfRange = errors.New("input index out of range")

var ErrInvalidScript = errors.New("invalid script")

var ErrSignatureCountMismatch = errors.New("signature count does not match multisig redeem script")

var ErrPublicKeyCountMismatch = errors.New("public key count does not match multisig redeem script")

var ErrNotCheckMultisig = errors.New("redeem script does not end with OP_CHECKMULTISIG")

var ErrInvalidRedeemScript = errors.New("invalid multisig redeem script")

var ErrIncompleteTransaction = errors.New("transaction is not completely signed")

func NewErrUnsupportedNetwork(network string) error {
	return fmt.Errorf("unsupported network %s", network)
}

func NewErrUnsupportedVersion(version int32) error {
	return fmt.Errorf("unsupported transaction version %d", version)
}

// NewErrUnsupportedEvalCode keeps the exact message format relied on by
// consumers of the funded transaction validator.
func NewErrUnsupportedEvalCode(evalCode uint8) error {
	return fmt.Errorf("Unsupported eval code %d", evalCode)
}

// The funded transaction validator reports the messages below verbatim.
var (
	ErrNoInputs              = errors.New("Transaction has 0 inputs.")
	ErrNoOutputs             = errors.New("Transaction has 0 outputs.")
	ErrUnfundedMismatch      = errors.New("Transaction hex does not match unfunded component.")
	ErrNestedAuxDestinations = errors.New("Nested aux destinations not supported")
)

func NewErrInsufficientFunds(currencyID string) error {
	return fmt.Errorf("Insufficient funds for currency %s", currencyID)
}
