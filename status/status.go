package status

import (
	"errors"
	"strings"

	"ibtbridge/types"
	"ibtbridge/units"
)

type Severity string

const (
	Info    Severity = "info"
	Success Severity = "success"
	Error   Severity = "error"
)

type Status struct {
	Severity Severity `json:"type"`
	Text     string   `json:"message"`
}

var codeText = map[types.ErrorCode]string{
	types.ProviderUnavailable: "No compatible wallet found.",
	types.UserRejected:        "Wallet connection was rejected.",
	types.WrongNetwork:        "Wallet is connected to the wrong network.",
	types.NetworkUnreachable:  "Network is unreachable.",
	types.OwnerInvalid:        "Invalid owner address.",
	types.TokenIdUnknown:      "Unknown token.",
	types.MalformedAddress:    "Invalid address.",
	types.NonPositiveAmount:   "Amount must be greater than zero.",
	types.AmountOutOfRange:    "Amount is too large.",
	types.UserRejectedSigning: "Transaction was rejected in the wallet.",
	types.NetworkRejected:     "Transaction was rejected by the network.",
	types.Reverted:            "Transaction reverted.",
	types.OperationInFlight:   "Previous transaction is still pending.",
}

// Project maps a lifecycle phase and its error onto display text.
func Project(phase types.Phase, err error) Status {
	switch phase {
	case types.PhaseValidating:
		return Status{Info, "Submitting transaction..."}
	case types.PhaseSubmitted:
		return Status{Info, "Transaction submitted. Waiting for confirmation..."}
	case types.PhaseConfirmed:
		return Status{Success, "Transaction confirmed."}
	case types.PhaseFailed:
		return Status{Error, ErrorText(err)}
	}
	if err != nil {
		return Status{Error, ErrorText(err)}
	}
	return Status{Info, ""}
}

// ErrorText is the user facing text of err. Validation errors carry
// their own message; other codes use a fixed text.
func ErrorText(err error) string {
	if err == nil {
		return "Transaction failed."
	}
	var verr *types.ValidationError
	if errors.As(err, &verr) && verr.Message != "" {
		return capitalize(verr.Message) + "."
	}
	if text, ok := codeText[types.CodeOf(err)]; ok {
		return text
	}
	return err.Error()
}

// Reason is the user facing text of err as a clause, as it appears
// after "<Kind> failed: ". Errors without a code have no reason.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var verr *types.ValidationError
	if errors.As(err, &verr) && verr.Message != "" {
		return verr.Message
	}
	if text, ok := codeText[types.CodeOf(err)]; ok {
		return strings.ToLower(text[:1]) + strings.TrimSuffix(text[1:], ".")
	}
	return ""
}

// ForOperation projects op using its kind, e.g. "Mint successful!".
func ForOperation(op types.PendingOperation) Status {
	kind := capitalize(string(op.Kind))
	switch op.Phase {
	case types.PhaseValidating:
		return Status{Info, "Submitting " + string(op.Kind) + " transaction..."}
	case types.PhaseConfirmed:
		return Status{Success, kind + " successful!"}
	case types.PhaseFailed:
		if op.Message == "" {
			return Status{Error, kind + " failed."}
		}
		return Status{Error, kind + " failed: " + op.Message}
	}
	return Project(op.Phase, nil)
}

// BalanceView is what a panel knows about its balance at render time.
type BalanceView struct {
	Connected bool
	Loading   bool
	Failed    bool
	Balance   *types.TokenBalance
	Symbol    string
}

func Balance(v BalanceView) string {
	switch {
	case !v.Connected:
		return "not connected"
	case v.Loading:
		return "fetching..."
	case v.Failed:
		return "fetching failed"
	case v.Balance == nil:
		return "-"
	}
	text := units.ToDisplay(v.Balance.RawUnits, v.Balance.Decimals)
	if v.Symbol != "" {
		text += " " + v.Symbol
	}
	return text
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
