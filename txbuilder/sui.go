package txbuilder

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"ibtbridge/SUIRPC"
	"ibtbridge/config"
	"ibtbridge/types"

	log "github.com/sirupsen/logrus"
)

// Coins is the coin side of the Sui client.
type Coins interface {
	GetCoins(ctx context.Context, owner, coinType string) ([]SUIRPC.Coin, error)
	Decimals(ctx context.Context, coinType string) (uint8, error)
}

// SuiBuilder builds Move calls against the IBT package of the selected
// network. The network is read on every build since it can change.
type SuiBuilder struct {
	coins   Coins
	network func() config.SuiNetwork
}

func NewSuiBuilder(coins Coins, network func() config.SuiNetwork) *SuiBuilder {
	return &SuiBuilder{coins: coins, network: network}
}

func (b *SuiBuilder) Build(ctx context.Context, kind types.OperationKind, params map[string]string) (types.CallDescriptor, error) {
	var required, addresses []string
	switch kind {
	case types.Mint:
		required = []string{ParamTo, ParamAmount}
		addresses = []string{ParamTo}
	case types.Burn:
		required = []string{ParamOwner, ParamAmount}
		addresses = []string{ParamOwner}
	default:
		return types.CallDescriptor{}, unsupported(kind)
	}

	if err := requireFields(params, required...); err != nil {
		return types.CallDescriptor{}, err
	}
	if err := requireAddresses(params, SUIRPC.IsAddress, addresses...); err != nil {
		return types.CallDescriptor{}, err
	}
	if err := requirePositive(params[ParamAmount]); err != nil {
		return types.CallDescriptor{}, err
	}

	network := b.network()
	decimals, err := b.coins.Decimals(ctx, network.CoinType)
	if err != nil {
		return types.CallDescriptor{}, err
	}
	// Move amounts are u64
	amount, err := scale(params[ParamAmount], decimals, 64)
	if err != nil {
		return types.CallDescriptor{}, err
	}

	caps := []types.Argument{
		{Name: "owner_cap", Type: "object", Value: network.OwnerCap},
		{Name: "treasury_cap", Type: "object", Value: network.TreasuryCap},
	}

	if kind == types.Mint {
		return types.CallDescriptor{
			Family:   types.MoveChain,
			Target:   moveTarget(network, network.MintFunction),
			Function: network.MintFunction,
			Arguments: append(caps,
				types.Argument{Name: "recipient", Type: "address", Value: strings.TrimSpace(params[ParamTo])},
				types.Argument{Name: "amount", Type: "u64", Value: amount.String()},
			),
		}, nil
	}

	owner := strings.TrimSpace(params[ParamOwner])
	coin, err := b.selectCoin(ctx, owner, network.CoinType, amount)
	if err != nil {
		return types.CallDescriptor{}, err
	}
	return types.CallDescriptor{
		Family:   types.MoveChain,
		Target:   moveTarget(network, network.BurnFunction),
		Function: network.BurnFunction,
		Arguments: append(caps,
			types.Argument{Name: "owner", Type: "string", Value: owner},
			types.Argument{Name: "amount", Type: "u64", Value: amount.String()},
			types.Argument{Name: "coin", Type: "object", Value: coin.ObjectID},
		),
	}, nil
}

// selectCoin returns the first coin holding at least amount. Smaller
// coins are never merged to cover the request.
func (b *SuiBuilder) selectCoin(ctx context.Context, owner, coinType string, amount *big.Int) (SUIRPC.Coin, error) {
	coins, err := b.coins.GetCoins(ctx, owner, coinType)
	if err != nil {
		return SUIRPC.Coin{}, err
	}
	for _, c := range coins {
		if c.Balance != nil && c.Balance.Cmp(amount) >= 0 {
			return c, nil
		}
	}
	log.Printf("No single %s coin of %s covers %s (%d coins)", coinType, owner, amount.String(), len(coins))
	if len(coins) == 0 {
		return SUIRPC.Coin{}, types.NewValidationError(types.InsufficientFunds, ParamAmount, "no IBT coins found in the wallet")
	}
	return SUIRPC.Coin{}, types.NewValidationError(types.InsufficientFunds, ParamAmount, "no IBT coin with sufficient balance found for the burn amount")
}

func moveTarget(network config.SuiNetwork, function string) string {
	pkg := network.PackageID
	if pkg == "" {
		pkg = strings.Split(network.CoinType, "::")[0]
	}
	return fmt.Sprintf("%s::%s::%s", pkg, network.Module, function)
}
