package types

import (
	"math/big"
)

// ChainFamily selects the set of capabilities a panel runs with.
// It is chosen once per panel and never re-derived.
type ChainFamily int

const (
	EVM ChainFamily = iota
	MoveChain
)

func (f ChainFamily) String() string {
	switch f {
	case EVM:
		return "evm"
	case MoveChain:
		return "move"
	}
	return "unknown"
}

// WalletConnection is owned by the panel that created it.
// Empty Address and NetworkID mean "not known".
type WalletConnection struct {
	ChainFamily ChainFamily `json:"chainFamily"`
	Address     string      `json:"address"`
	NetworkID   string      `json:"networkId"`
	Connected   bool        `json:"connected"`
}

// TokenBalance is recomputed on every read, never stored.
// Display value is RawUnits / 10^Decimals, computed at render time.
type TokenBalance struct {
	Owner    string   `json:"owner"`
	TokenID  string   `json:"tokenId"`
	RawUnits *big.Int `json:"rawUnits"`
	Decimals int      `json:"decimals"`
}

type OperationKind string

const (
	Mint OperationKind = "mint"
	Burn OperationKind = "burn"
)

// Phase moves one way: idle -> validating -> submitted -> confirmed|failed
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseSubmitted  Phase = "submitted"
	PhaseConfirmed  Phase = "confirmed"
	PhaseFailed     Phase = "failed"
)

// InFlight reports whether a form in this phase must reject new submissions.
func (p Phase) InFlight() bool {
	return p == PhaseValidating || p == PhaseSubmitted
}

func (p Phase) Terminal() bool {
	return p == PhaseConfirmed || p == PhaseFailed
}

// PendingOperation is a single user submission of a form.
// Terminal operations are replaced by the next submission, never reused.
type PendingOperation struct {
	ID        string            `json:"id"`
	Form      string            `json:"form"`
	Kind      OperationKind     `json:"kind"`
	Family    ChainFamily       `json:"family"`
	Params    map[string]string `json:"params"`
	Phase     Phase             `json:"phase"`
	Message   string            `json:"message,omitempty"` // error or progress details
	TxHash    string            `json:"txHash,omitempty"`  // filled once the wallet accepted the call
	TsCreated int64             `json:"tsCreated"`
	TsUpdated int64             `json:"tsUpdated"`
}

// Argument is one encoded call argument, in call order.
type Argument struct {
	Name  string      `json:"name"`
	Type  string      `json:"type"`
	Value interface{} `json:"value"`
}

// CallDescriptor is chain specific but uniform in shape.
// EVM: Target is the token contract and Data the packed calldata.
// Move: Target is package::module::function.
type CallDescriptor struct {
	Family    ChainFamily `json:"family"`
	Target    string      `json:"target"`
	Function  string      `json:"function"`
	Arguments []Argument  `json:"arguments"`
	Data      []byte      `json:"data,omitempty"`
}

type Receipt struct {
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}
