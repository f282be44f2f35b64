package EVMRPC

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"ibtbridge/types"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	log "github.com/sirupsen/logrus"
)

var ErrNoRPC = errors.New("no EVM RPC configured")

func WithClient[T any](rpcList []string, f func(client *ethclient.Client) (T, error)) (res T, err error) {
	err = ErrNoRPC
	var client *ethclient.Client
	for _, url := range rpcList {
		client, err = ethclient.Dial(url)
		if err != nil {
			log.Printf("Error connecting to %s: %s", url, err.Error())
			continue
		}

		res, err = f(client)
		client.Close()
		if err == nil {
			return
		}
	}
	return
}

// Client is the read side of the EVM chain: token calls and receipts.
type Client struct {
	RPCList      []string
	PollInterval time.Duration
}

func NewClient(rpcList []string) *Client {
	return &Client{
		RPCList:      rpcList,
		PollInterval: time.Second,
	}
}

// classifyReadError tells a node that answered (the token is wrong)
// from a node that could not be reached.
func classifyReadError(err error) error {
	var rpcErr rpc.Error
	switch {
	case errors.Is(err, bind.ErrNoCode):
		return &types.ReadError{Code: types.TokenIdUnknown, Err: err}
	case errors.As(err, &rpcErr):
		return &types.ReadError{Code: types.TokenIdUnknown, Err: err}
	default:
		return &types.ReadError{Code: types.NetworkUnreachable, Err: err}
	}
}

func (c *Client) BalanceOf(ctx context.Context, token, owner string) (*big.Int, error) {
	balance, err := WithClient(c.RPCList, func(client *ethclient.Client) (*big.Int, error) {
		return NewIBT(common.HexToAddress(token), client).BalanceOf(&bind.CallOpts{Context: ctx}, common.HexToAddress(owner))
	})
	if err != nil {
		log.Printf("Error getting IBT balance of %s: %s", owner, err.Error())
		return nil, classifyReadError(err)
	}
	return balance, nil
}

func (c *Client) Decimals(ctx context.Context, token string) (uint8, error) {
	decimals, err := WithClient(c.RPCList, func(client *ethclient.Client) (uint8, error) {
		return NewIBT(common.HexToAddress(token), client).Decimals(&bind.CallOpts{Context: ctx})
	})
	if err != nil {
		log.Printf("Error getting IBT decimals: %s", err.Error())
		return 0, classifyReadError(err)
	}
	return decimals, nil
}

func (c *Client) Owner(ctx context.Context, token string) (string, error) {
	owner, err := WithClient(c.RPCList, func(client *ethclient.Client) (common.Address, error) {
		return NewIBT(common.HexToAddress(token), client).Owner(&bind.CallOpts{Context: ctx})
	})
	if err != nil {
		return "", classifyReadError(err)
	}
	return owner.Hex(), nil
}

// WaitReceipt polls until the transaction is mined or ctx is done.
// A mined transaction with status 0 is reported as Reverted.
func (c *Client) WaitReceipt(ctx context.Context, txHash string) (types.Receipt, error) {
	hash := common.HexToHash(txHash)
	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := WithClient(c.RPCList, func(client *ethclient.Client) (*ethtypes.Receipt, error) {
			return client.TransactionReceipt(ctx, hash)
		})
		if err == nil && receipt != nil {
			out := types.Receipt{
				TxHash:      txHash,
				BlockNumber: receipt.BlockNumber.Uint64(),
				Success:     receipt.Status == ethtypes.ReceiptStatusSuccessful,
			}
			if !out.Success {
				out.Error = "transaction reverted"
				return out, &types.SubmissionError{Code: types.Reverted, Err: fmt.Errorf("transaction %s reverted in block %d", txHash, out.BlockNumber)}
			}
			return out, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			log.Printf("Error getting receipt for %s: %s", txHash, err.Error())
		}

		select {
		case <-ctx.Done():
			return types.Receipt{TxHash: txHash}, &types.SubmissionError{Code: types.NetworkRejected, Err: fmt.Errorf("waiting for %s: %w", txHash, ctx.Err())}
		case <-ticker.C:
		}
	}
}
