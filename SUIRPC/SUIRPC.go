package SUIRPC

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"sync"

	"ibtbridge/config"
	"ibtbridge/types"
	"ibtbridge/units"

	"github.com/block-vision/sui-go-sdk/models"
	"github.com/block-vision/sui-go-sdk/sui"
	log "github.com/sirupsen/logrus"
)

// API is the part of sui.ISuiAPI the panels use.
type API interface {
	SuiXGetCoins(ctx context.Context, req models.SuiXGetCoinsRequest) (models.PaginatedCoinsResponse, error)
	SuiXGetCoinMetadata(ctx context.Context, req models.SuiXGetCoinMetadataRequest) (models.CoinMetadataResponse, error)
	MoveCall(ctx context.Context, req models.MoveCallRequest) (models.TxnMetaData, error)
	SignAndExecuteTransactionBlock(ctx context.Context, req models.SignAndExecuteTransactionBlockRequest) (models.SuiTransactionBlockResponse, error)
	SuiGetTransactionBlock(ctx context.Context, req models.SuiGetTransactionBlockRequest) (models.SuiTransactionBlockResponse, error)
}

// Dialer opens an API for a fullnode URL. Swapped out in tests.
type Dialer func(url string) API

func DialSui(url string) API {
	return sui.NewSuiClient(url)
}

var addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{1,64}$`)

func IsAddress(s string) bool {
	return addressRe.MatchString(s)
}

// coin types look like 0x2::sui::SUI
var coinTypeRe = regexp.MustCompile(`^0x[0-9a-fA-F]{1,64}::[A-Za-z_][A-Za-z0-9_]*::[A-Za-z_][A-Za-z0-9_]*$`)

func IsCoinType(s string) bool {
	return coinTypeRe.MatchString(s)
}

type Coin struct {
	ObjectID string
	Balance  *big.Int
}

const coinsPageSize = 50

// Client follows the selected network. Network selection replaces the
// API handle; callers read the handle once per call.
type Client struct {
	dial Dialer

	mu      sync.RWMutex
	name    string
	network config.SuiNetwork
	api     API
}

func NewClient(dial Dialer, name string, network config.SuiNetwork) *Client {
	if dial == nil {
		dial = DialSui
	}
	return &Client{
		dial:    dial,
		name:    name,
		network: network,
		api:     dial(network.URL),
	}
}

func (c *Client) Use(name string, network config.SuiNetwork) {
	api := c.dial(network.URL)
	c.mu.Lock()
	c.name = name
	c.network = network
	c.api = api
	c.mu.Unlock()
	log.Printf("Sui client switched to %s (%s)", name, network.URL)
}

func (c *Client) Network() (string, config.SuiNetwork) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name, c.network
}

func (c *Client) API() API {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.api
}

// GetCoins pages through every coin object of coinType owned by owner.
func (c *Client) GetCoins(ctx context.Context, owner, coinType string) ([]Coin, error) {
	api := c.API()
	var coins []Coin
	var cursor interface{}
	for {
		page, err := api.SuiXGetCoins(ctx, models.SuiXGetCoinsRequest{
			Owner:    owner,
			CoinType: coinType,
			Cursor:   cursor,
			Limit:    coinsPageSize,
		})
		if err != nil {
			return nil, &types.ReadError{Code: types.NetworkUnreachable, Err: fmt.Errorf("suix_getCoins: %w", err)}
		}
		for _, data := range page.Data {
			balance, ok := big.NewInt(0).SetString(data.Balance, 10)
			if !ok {
				return nil, &types.ReadError{Code: types.NetworkUnreachable, Err: fmt.Errorf("cannot parse balance %q of coin %s", data.Balance, data.CoinObjectId)}
			}
			coins = append(coins, Coin{ObjectID: data.CoinObjectId, Balance: balance})
		}
		if !page.HasNextPage || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	return coins, nil
}

// Balance sums every coin of coinType owned by owner.
func (c *Client) Balance(ctx context.Context, owner, coinType string) (*big.Int, error) {
	coins, err := c.GetCoins(ctx, owner, coinType)
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(coins))
	for _, coin := range coins {
		values = append(values, coin.Balance.String())
	}
	return units.Sum(values...)
}

var ErrUnknownCoin = errors.New("coin metadata not found")

func (c *Client) Decimals(ctx context.Context, coinType string) (uint8, error) {
	meta, err := c.API().SuiXGetCoinMetadata(ctx, models.SuiXGetCoinMetadataRequest{CoinType: coinType})
	if err != nil {
		return 0, &types.ReadError{Code: types.NetworkUnreachable, Err: fmt.Errorf("suix_getCoinMetadata: %w", err)}
	}
	if meta.Symbol == "" && meta.Decimals == 0 {
		return 0, &types.ReadError{Code: types.TokenIdUnknown, Err: fmt.Errorf("%w: %s", ErrUnknownCoin, coinType)}
	}
	return uint8(meta.Decimals), nil
}
