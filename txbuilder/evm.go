package txbuilder

import (
	"context"
	"strings"

	"ibtbridge/EVMRPC"
	"ibtbridge/types"

	ethav "github.com/KOREAN139/ethereum-address-validator"
	"github.com/ethereum/go-ethereum/common"
)

// IsEVMAddress accepts any 20 byte hex address, checksummed or not.
func IsEVMAddress(s string) bool {
	if !common.IsHexAddress(s) {
		return false
	}
	return ethav.Validate(common.HexToAddress(s).Hex()) == nil
}

// EVMBuilder builds IBT contract calls: mint(to, amount),
// burn(amount, destinationChain) and burnFrom(from, amount, destinationChain).
type EVMBuilder struct {
	token    string
	decimals Decimals
}

func NewEVMBuilder(token string, decimals Decimals) *EVMBuilder {
	return &EVMBuilder{token: token, decimals: decimals}
}

func (b *EVMBuilder) Build(ctx context.Context, kind types.OperationKind, params map[string]string) (types.CallDescriptor, error) {
	var required, addresses []string
	switch kind {
	case types.Mint:
		required = []string{ParamTo, ParamAmount}
		addresses = []string{ParamTo}
	case types.Burn:
		required = []string{ParamAmount, ParamDestinationChain}
		addresses = []string{ParamFrom}
	default:
		return types.CallDescriptor{}, unsupported(kind)
	}

	if err := requireFields(params, required...); err != nil {
		return types.CallDescriptor{}, err
	}
	if err := requireAddresses(params, IsEVMAddress, addresses...); err != nil {
		return types.CallDescriptor{}, err
	}
	if err := requirePositive(params[ParamAmount]); err != nil {
		return types.CallDescriptor{}, err
	}

	decimals, err := b.decimals.Decimals(ctx, b.token)
	if err != nil {
		return types.CallDescriptor{}, err
	}
	amount, err := scale(params[ParamAmount], decimals, 256)
	if err != nil {
		return types.CallDescriptor{}, err
	}

	var function string
	var args []types.Argument
	switch {
	case kind == types.Mint:
		function = "mint"
		args = []types.Argument{
			{Name: "to", Type: "address", Value: common.HexToAddress(strings.TrimSpace(params[ParamTo]))},
			{Name: "amount", Type: "uint256", Value: amount},
		}
	case strings.TrimSpace(params[ParamFrom]) != "":
		function = "burnFrom"
		args = []types.Argument{
			{Name: "from", Type: "address", Value: common.HexToAddress(strings.TrimSpace(params[ParamFrom]))},
			{Name: "amount", Type: "uint256", Value: amount},
			{Name: "destinationChain", Type: "string", Value: params[ParamDestinationChain]},
		}
	default:
		function = "burn"
		args = []types.Argument{
			{Name: "amount", Type: "uint256", Value: amount},
			{Name: "destinationChain", Type: "string", Value: params[ParamDestinationChain]},
		}
	}

	values := make([]interface{}, 0, len(args))
	for _, a := range args {
		values = append(values, a.Value)
	}
	data, err := EVMRPC.IBTParsedABI.Pack(function, values...)
	if err != nil {
		return types.CallDescriptor{}, types.NewValidationError(types.AmountOutOfRange, ParamAmount, err.Error())
	}

	return types.CallDescriptor{
		Family:    types.EVM,
		Target:    b.token,
		Function:  function,
		Arguments: args,
		Data:      data,
	}, nil
}
