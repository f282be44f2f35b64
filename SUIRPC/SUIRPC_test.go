package SUIRPC

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"ibtbridge/config"
	"ibtbridge/types"

	"github.com/block-vision/sui-go-sdk/models"
	"github.com/stretchr/testify/require"
)

const ibtCoin = "0x5::IBT::IBT"

// fakeAPI serves coins in pages of two.
type fakeAPI struct {
	url      string
	coins    []models.CoinData
	meta     map[string]models.CoinMetadataResponse
	coinsErr error
	pages    int
}

func (f *fakeAPI) SuiXGetCoins(ctx context.Context, req models.SuiXGetCoinsRequest) (models.PaginatedCoinsResponse, error) {
	if f.coinsErr != nil {
		return models.PaginatedCoinsResponse{}, f.coinsErr
	}
	f.pages++
	start := 0
	if cursor, ok := req.Cursor.(string); ok {
		for i, c := range f.coins {
			if c.CoinObjectId == cursor {
				start = i + 1
			}
		}
	}
	end := start + 2
	if end > len(f.coins) {
		end = len(f.coins)
	}
	page := models.PaginatedCoinsResponse{Data: f.coins[start:end]}
	if end < len(f.coins) {
		page.HasNextPage = true
		page.NextCursor = f.coins[end-1].CoinObjectId
	}
	return page, nil
}

func (f *fakeAPI) SuiXGetCoinMetadata(ctx context.Context, req models.SuiXGetCoinMetadataRequest) (models.CoinMetadataResponse, error) {
	return f.meta[req.CoinType], nil
}

func (f *fakeAPI) MoveCall(ctx context.Context, req models.MoveCallRequest) (models.TxnMetaData, error) {
	return models.TxnMetaData{}, errors.New("not supported")
}

func (f *fakeAPI) SignAndExecuteTransactionBlock(ctx context.Context, req models.SignAndExecuteTransactionBlockRequest) (models.SuiTransactionBlockResponse, error) {
	return models.SuiTransactionBlockResponse{}, errors.New("not supported")
}

func (f *fakeAPI) SuiGetTransactionBlock(ctx context.Context, req models.SuiGetTransactionBlockRequest) (models.SuiTransactionBlockResponse, error) {
	return models.SuiTransactionBlockResponse{}, errors.New("not found")
}

func coin(id, balance string) models.CoinData {
	return models.CoinData{CoinType: ibtCoin, CoinObjectId: id, Balance: balance}
}

func newTestClient(api *fakeAPI) *Client {
	return NewClient(func(url string) API {
		api.url = url
		return api
	}, "localnet", config.SuiNetwork{URL: "http://127.0.0.1:9000", ChainID: "sui:localnet"})
}

func TestGetCoinsPages(t *testing.T) {
	api := &fakeAPI{coins: []models.CoinData{coin("0x1", "4"), coin("0x2", "7"), coin("0x3", "9")}}
	c := newTestClient(api)

	coins, err := c.GetCoins(context.Background(), "0xa", ibtCoin)
	require.NoError(t, err)
	require.Len(t, coins, 3)
	require.Equal(t, 2, api.pages)
	require.Equal(t, "0x3", coins[2].ObjectID)
	require.Equal(t, "9", coins[2].Balance.String())
}

func TestBalanceSumsCoins(t *testing.T) {
	api := &fakeAPI{coins: []models.CoinData{coin("0x1", "4"), coin("0x2", "7"), coin("0x3", "9")}}
	balance, err := newTestClient(api).Balance(context.Background(), "0xa", ibtCoin)
	require.NoError(t, err)
	require.Equal(t, "20", balance.String())
}

func TestBalanceNoCoins(t *testing.T) {
	balance, err := newTestClient(&fakeAPI{}).Balance(context.Background(), "0xa", ibtCoin)
	require.NoError(t, err)
	require.Equal(t, "0", balance.String())
}

func TestGetCoinsUnreachable(t *testing.T) {
	api := &fakeAPI{coinsErr: errors.New("connection refused")}
	_, err := newTestClient(api).GetCoins(context.Background(), "0xa", ibtCoin)
	require.True(t, types.IsCode(err, types.NetworkUnreachable))
}

func TestGetCoinsBadBalance(t *testing.T) {
	api := &fakeAPI{coins: []models.CoinData{coin("0x1", "lots")}}
	_, err := newTestClient(api).GetCoins(context.Background(), "0xa", ibtCoin)
	require.True(t, types.IsCode(err, types.NetworkUnreachable))
}

func TestDecimals(t *testing.T) {
	api := &fakeAPI{meta: map[string]models.CoinMetadataResponse{
		ibtCoin: {Decimals: 9, Symbol: "IBT"},
	}}
	c := newTestClient(api)

	decimals, err := c.Decimals(context.Background(), ibtCoin)
	require.NoError(t, err)
	require.Equal(t, uint8(9), decimals)

	_, err = c.Decimals(context.Background(), "0x6::NOPE::NOPE")
	require.True(t, types.IsCode(err, types.TokenIdUnknown))
	require.ErrorIs(t, err, ErrUnknownCoin)
}

func TestUseSwitchesNetwork(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(api)
	require.Equal(t, "http://127.0.0.1:9000", api.url)

	c.Use("testnet", config.SuiNetwork{URL: "https://fullnode.testnet.sui.io:443", ChainID: "sui:testnet"})
	name, network := c.Network()
	require.Equal(t, "testnet", name)
	require.Equal(t, "sui:testnet", network.ChainID)
	require.Equal(t, "https://fullnode.testnet.sui.io:443", api.url)
}

func TestIsAddress(t *testing.T) {
	require.True(t, IsAddress("0x2"))
	require.True(t, IsAddress("0x"+strings.Repeat("ab", 32)))
	require.False(t, IsAddress("0x"+strings.Repeat("ab", 33)))
	require.False(t, IsAddress("abc"))
	require.False(t, IsAddress("0xZZ"))
}

func TestIsCoinType(t *testing.T) {
	require.True(t, IsCoinType("0x2::sui::SUI"))
	require.True(t, IsCoinType(ibtCoin))
	require.False(t, IsCoinType("0x2::sui"))
	require.False(t, IsCoinType("sui::SUI::SUI"))
	require.False(t, IsCoinType("0x2::sui::SUI::extra"))
}

func TestAddressFromPublicKey(t *testing.T) {
	key := ed25519.NewKeyFromSeed(make([]byte, ed25519.SeedSize))
	address := AddressFromPublicKey(key.Public().(ed25519.PublicKey))
	require.Len(t, address, 66)
	require.True(t, IsAddress(address))
	require.Equal(t, address, AddressFromPublicKey(key.Public().(ed25519.PublicKey)))
}

func TestParsePrivateKey(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	seed[0] = 1

	fromSeed, err := ParsePrivateKey("0x" + hex.EncodeToString(seed))
	require.NoError(t, err)
	require.Len(t, fromSeed, ed25519.PrivateKeySize)

	full, err := ParsePrivateKey(hex.EncodeToString(fromSeed))
	require.NoError(t, err)
	require.Equal(t, fromSeed, full)

	_, err = ParsePrivateKey("0x1234")
	require.Error(t, err)
	_, err = ParsePrivateKey("not hex")
	require.Error(t, err)
}

func testNetworks(name string) (config.SuiNetwork, bool) {
	networks := map[string]config.SuiNetwork{
		"localnet": {URL: "http://127.0.0.1:9000", ChainID: "sui:localnet"},
		"testnet":  {URL: "https://fullnode.testnet.sui.io:443", ChainID: "sui:testnet"},
	}
	network, ok := networks[name]
	return network, ok
}

func TestAdapterConnect(t *testing.T) {
	key := ed25519.NewKeyFromSeed(make([]byte, ed25519.SeedSize))
	a := NewAdapter(newTestClient(&fakeAPI{}), testNetworks, key, 10000000)

	address, chainID, err := a.Connect(context.Background())
	require.NoError(t, err)
	require.Equal(t, AddressFromPublicKey(key.Public().(ed25519.PublicKey)), address)
	require.Equal(t, "sui:localnet", chainID)
}

func TestAdapterConnectWithoutKey(t *testing.T) {
	a := NewAdapter(newTestClient(&fakeAPI{}), testNetworks, nil, 10000000)
	_, _, err := a.Connect(context.Background())
	require.True(t, types.IsCode(err, types.ProviderUnavailable))
}

func TestAdapterSendRequiresConnection(t *testing.T) {
	key := ed25519.NewKeyFromSeed(make([]byte, ed25519.SeedSize))
	a := NewAdapter(newTestClient(&fakeAPI{}), testNetworks, key, 10000000)

	desc := types.CallDescriptor{Family: types.MoveChain, Target: "0x5::IBT::mint"}
	_, err := a.Send(context.Background(), desc)
	require.True(t, types.IsCode(err, types.UserRejectedSigning))

	_, _, err = a.Connect(context.Background())
	require.NoError(t, err)
	_, err = a.Send(context.Background(), types.CallDescriptor{Family: types.MoveChain, Target: "mint"})
	require.True(t, types.IsCode(err, types.NetworkRejected))
	_, err = a.Send(context.Background(), desc)
	require.True(t, types.IsCode(err, types.NetworkRejected))
}

func TestAdapterSelectNetwork(t *testing.T) {
	api := &fakeAPI{}
	a := NewAdapter(newTestClient(api), testNetworks, nil, 10000000)

	ch := make(chan string, 2)
	sub := a.SubscribeNetwork(ch)
	defer sub.Unsubscribe()

	require.Error(t, a.SelectNetwork("mainnet"))
	require.NoError(t, a.SelectNetwork("localnet"))
	require.NoError(t, a.SelectNetwork("testnet"))

	require.Equal(t, "sui:testnet", <-ch)
	require.Len(t, ch, 0)
	require.Equal(t, "https://fullnode.testnet.sui.io:443", api.url)
}

func TestAdapterWaitTimesOut(t *testing.T) {
	a := NewAdapter(newTestClient(&fakeAPI{}), testNetworks, nil, 10000000)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	receipt, err := a.Wait(ctx, "digest")
	require.True(t, types.IsCode(err, types.NetworkRejected))
	require.Equal(t, "digest", receipt.TxHash)
	require.False(t, receipt.Success)
}
