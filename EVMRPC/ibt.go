package EVMRPC

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// minimal ABI of the deployed IBT token
const IBTABI = `[
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"owner","outputs":[{"name":"","type":"address"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"mint","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"amount","type":"uint256"},{"name":"destinationChain","type":"string"}],"name":"burn","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"from","type":"address"},{"name":"amount","type":"uint256"},{"name":"destinationChain","type":"string"}],"name":"burnFrom","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

var IBTParsedABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(IBTABI))
	if err != nil {
		panic(fmt.Errorf("IBT abi.JSON: %+v", err))
	}
	IBTParsedABI = parsed
}

// IBT is a read binding of the token contract. Writes go through the
// wallet provider with calldata packed by the transaction builder.
type IBT struct {
	address  common.Address
	contract *bind.BoundContract
}

func NewIBT(address common.Address, caller bind.ContractCaller) *IBT {
	return &IBT{
		address:  address,
		contract: bind.NewBoundContract(address, IBTParsedABI, caller, nil, nil),
	}
}

func (t *IBT) call(opts *bind.CallOpts, method string, args ...interface{}) ([]interface{}, error) {
	var out []interface{}
	if err := t.contract.Call(opts, &out, method, args...); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty %s result", method)
	}
	return out, nil
}

func (t *IBT) BalanceOf(opts *bind.CallOpts, owner common.Address) (*big.Int, error) {
	out, err := t.call(opts, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("invalid balanceOf type %T", out[0])
	}
	return balance, nil
}

func (t *IBT) Decimals(opts *bind.CallOpts) (uint8, error) {
	out, err := t.call(opts, "decimals")
	if err != nil {
		return 0, err
	}
	decimals, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("invalid decimals type %T", out[0])
	}
	return decimals, nil
}

func (t *IBT) Owner(opts *bind.CallOpts) (common.Address, error) {
	out, err := t.call(opts, "owner")
	if err != nil {
		return common.Address{}, err
	}
	owner, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("invalid owner type %T", out[0])
	}
	return owner, nil
}

func (t *IBT) Symbol(opts *bind.CallOpts) (string, error) {
	out, err := t.call(opts, "symbol")
	if err != nil {
		return "", err
	}
	symbol, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("invalid symbol type %T", out[0])
	}
	return symbol, nil
}

func (t *IBT) Name(opts *bind.CallOpts) (string, error) {
	out, err := t.call(opts, "name")
	if err != nil {
		return "", err
	}
	name, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("invalid name type %T", out[0])
	}
	return name, nil
}
