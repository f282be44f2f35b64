package balance

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"ibtbridge/SUIRPC"
	"ibtbridge/config"
	"ibtbridge/types"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

// Reader reads the units of tokenID owned by owner.
type Reader interface {
	ReadBalance(ctx context.Context, owner, tokenID string) (types.TokenBalance, error)
}

// TokenContract is the read side of the IBT contract.
type TokenContract interface {
	BalanceOf(ctx context.Context, token, owner string) (*big.Int, error)
	Decimals(ctx context.Context, token string) (uint8, error)
	Owner(ctx context.Context, token string) (string, error)
}

type EVMReader struct {
	contract TokenContract
}

func NewEVMReader(contract TokenContract) *EVMReader {
	return &EVMReader{contract: contract}
}

func (r *EVMReader) ReadBalance(ctx context.Context, owner, tokenID string) (types.TokenBalance, error) {
	if !common.IsHexAddress(owner) {
		return types.TokenBalance{}, &types.ReadError{Code: types.OwnerInvalid, Err: errors.New("owner is not an EVM address")}
	}
	if !common.IsHexAddress(tokenID) {
		return types.TokenBalance{}, &types.ReadError{Code: types.TokenIdUnknown, Err: errors.New("token is not an EVM address")}
	}

	raw, err := r.contract.BalanceOf(ctx, tokenID, owner)
	if err != nil {
		return types.TokenBalance{}, readError(err)
	}
	decimals, err := r.contract.Decimals(ctx, tokenID)
	if err != nil {
		return types.TokenBalance{}, readError(err)
	}
	return types.TokenBalance{
		Owner:    owner,
		TokenID:  tokenID,
		RawUnits: raw,
		Decimals: int(decimals),
	}, nil
}

// IsOwner reports whether account owns the token contract. Only the
// owner may mint.
func (r *EVMReader) IsOwner(ctx context.Context, account, tokenID string) (bool, error) {
	if !common.IsHexAddress(account) {
		return false, &types.ReadError{Code: types.OwnerInvalid, Err: errors.New("account is not an EVM address")}
	}
	owner, err := r.contract.Owner(ctx, tokenID)
	if err != nil {
		return false, readError(err)
	}
	return strings.EqualFold(owner, account), nil
}

// CoinSource is the coin side of the Sui client.
type CoinSource interface {
	Balance(ctx context.Context, owner, coinType string) (*big.Int, error)
	Decimals(ctx context.Context, coinType string) (uint8, error)
}

// SuiReader sums every coin object of a coin type owned by an address.
type SuiReader struct {
	coins CoinSource
}

func NewSuiReader(coins CoinSource) *SuiReader {
	return &SuiReader{coins: coins}
}

func (r *SuiReader) ReadBalance(ctx context.Context, owner, tokenID string) (types.TokenBalance, error) {
	if !SUIRPC.IsAddress(owner) {
		return types.TokenBalance{}, &types.ReadError{Code: types.OwnerInvalid, Err: errors.New("owner is not a Sui address")}
	}
	if !SUIRPC.IsCoinType(tokenID) {
		return types.TokenBalance{}, &types.ReadError{Code: types.TokenIdUnknown, Err: errors.New("token is not a coin type")}
	}

	raw, err := r.coins.Balance(ctx, owner, tokenID)
	if err != nil {
		return types.TokenBalance{}, readError(err)
	}
	if raw == nil {
		raw = big.NewInt(0)
	}
	decimals, err := r.coins.Decimals(ctx, tokenID)
	if err != nil {
		return types.TokenBalance{}, readError(err)
	}
	return types.TokenBalance{
		Owner:    owner,
		TokenID:  tokenID,
		RawUnits: raw,
		Decimals: int(decimals),
	}, nil
}

// NativeBalance reads the gas coin balance shown next to IBT.
func (r *SuiReader) NativeBalance(ctx context.Context, owner string) (types.TokenBalance, error) {
	return r.ReadBalance(ctx, owner, config.SUI_COIN_TYPE)
}

func readError(err error) error {
	if types.CodeOf(err) != "" {
		return err
	}
	log.Printf("Error reading balance: %s", err.Error())
	return &types.ReadError{Code: types.NetworkUnreachable, Err: err}
}
