package smarttx

import "fmt"

// EvalCode selects the contract that interprets a smart transaction output.
type EvalCode uint8

const (
	EvalNone                 EvalCode = 0x00
	EvalStakeGuard           EvalCode = 0x01
	EvalCurrencyDefinition   EvalCode = 0x02
	EvalNotaryEvidence       EvalCode = 0x03
	EvalEarnedNotarization   EvalCode = 0x04
	EvalAcceptedNotarization EvalCode = 0x05
	EvalFinalizeNotarization EvalCode = 0x06
	EvalCurrencyState        EvalCode = 0x07
	EvalReserveTransfer      EvalCode = 0x08
	EvalReserveOutput        EvalCode = 0x09
	EvalReserveUnused        EvalCode = 0x0a
	EvalReserveDeposit       EvalCode = 0x0b
	EvalCrossChainExport     EvalCode = 0x0c
	EvalCrossChainImport     EvalCode = 0x0d
	EvalIdentityPrimary      EvalCode = 0x0e
	EvalIdentityRevoke       EvalCode = 0x0f
	EvalIdentityRecover      EvalCode = 0x10
	EvalIdentityCommitment   EvalCode = 0x11
	EvalIdentityReservation  EvalCode = 0x12
	EvalFinalizeExport       EvalCode = 0x13
	EvalFeePool              EvalCode = 0x14
	EvalNotarySignature      EvalCode = 0x15

	// EvalLast is the highest eval code a params block may carry.
	EvalLast EvalCode = 0x1a
)

var evalCodeToName = map[EvalCode]string{
	EvalNone:                 "EVAL_NONE",
	EvalStakeGuard:           "EVAL_STAKEGUARD",
	EvalCurrencyDefinition:   "EVAL_CURRENCY_DEFINITION",
	EvalNotaryEvidence:       "EVAL_NOTARY_EVIDENCE",
	EvalEarnedNotarization:   "EVAL_EARNEDNOTARIZATION",
	EvalAcceptedNotarization: "EVAL_ACCEPTEDNOTARIZATION",
	EvalFinalizeNotarization: "EVAL_FINALIZE_NOTARIZATION",
	EvalCurrencyState:        "EVAL_CURRENCYSTATE",
	EvalReserveTransfer:      "EVAL_RESERVE_TRANSFER",
	EvalReserveOutput:        "EVAL_RESERVE_OUTPUT",
	EvalReserveUnused:        "EVAL_RESERVE_UNUSED",
	EvalReserveDeposit:       "EVAL_RESERVE_DEPOSIT",
	EvalCrossChainExport:     "EVAL_CROSSCHAIN_EXPORT",
	EvalCrossChainImport:     "EVAL_CROSSCHAIN_IMPORT",
	EvalIdentityPrimary:      "EVAL_IDENTITY_PRIMARY",
	EvalIdentityRevoke:       "EVAL_IDENTITY_REVOKE",
	EvalIdentityRecover:      "EVAL_IDENTITY_RECOVER",
	EvalIdentityCommitment:   "EVAL_IDENTITY_COMMITMENT",
	EvalIdentityReservation:  "EVAL_IDENTITY_RESERVATION",
	EvalFinalizeExport:       "EVAL_FINALIZE_EXPORT",
	EvalFeePool:              "EVAL_FEE_POOL",
	EvalNotarySignature:      "EVAL_NOTARY_SIGNATURE",
}

func (code EvalCode) String() string {
	if name, ok := evalCodeToName[code]; ok {
		return name
	}
	return fmt.Sprintf("EVAL_0x%02x", uint8(code))
}
