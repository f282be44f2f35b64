package SUIRPC

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"ibtbridge/config"
	"ibtbridge/types"

	"github.com/block-vision/sui-go-sdk/models"
	"github.com/ethereum/go-ethereum/event"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
)

// signature scheme flag prepended to the public key before hashing
const ed25519Flag = 0x00

// AddressFromPublicKey derives the Sui address of an ed25519 key.
func AddressFromPublicKey(pub ed25519.PublicKey) string {
	buf := make([]byte, 0, 1+len(pub))
	buf = append(buf, ed25519Flag)
	buf = append(buf, pub...)
	sum := blake2b.Sum256(buf)
	return "0x" + hex.EncodeToString(sum[:])
}

func ParsePrivateKey(s string) (ed25519.PrivateKey, error) {
	seed, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("sui private key is not hex: %w", err)
	}
	switch len(seed) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(seed), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(seed), nil
	}
	return nil, fmt.Errorf("sui private key must be %d or %d bytes, got %d", ed25519.SeedSize, ed25519.PrivateKeySize, len(seed))
}

// Adapter is the Sui wallet: connect/disconnect, network selection and
// signAndExecuteTransaction over the selected network's client.
type Adapter struct {
	client    *Client
	networks  func(name string) (config.SuiNetwork, bool)
	key       ed25519.PrivateKey
	gasBudget uint64

	mu        sync.Mutex
	connected bool

	accountsFeed event.Feed
	networkFeed  event.Feed
}

func NewAdapter(client *Client, networks func(string) (config.SuiNetwork, bool), key ed25519.PrivateKey, gasBudget uint64) *Adapter {
	return &Adapter{
		client:    client,
		networks:  networks,
		key:       key,
		gasBudget: gasBudget,
	}
}

func (a *Adapter) Family() types.ChainFamily { return types.MoveChain }

func (a *Adapter) address() string {
	return AddressFromPublicKey(a.key.Public().(ed25519.PublicKey))
}

func (a *Adapter) Connect(ctx context.Context) (string, string, error) {
	if a.key == nil {
		return "", "", &types.ConnectionError{Code: types.ProviderUnavailable, Err: errors.New("no Sui wallet configured")}
	}
	if err := ctx.Err(); err != nil {
		return "", "", &types.ConnectionError{Code: types.UserRejected, Err: err}
	}

	a.mu.Lock()
	a.connected = true
	a.mu.Unlock()

	_, network := a.client.Network()
	address := a.address()
	log.Printf("Sui wallet connected: %s on %s", address, network.ChainID)
	return address, network.ChainID, nil
}

func (a *Adapter) Disconnect(ctx context.Context) error {
	a.mu.Lock()
	a.connected = false
	a.mu.Unlock()
	return nil
}

func (a *Adapter) SubscribeAccounts(ch chan<- []string) event.Subscription {
	return a.accountsFeed.Subscribe(ch)
}

func (a *Adapter) SubscribeNetwork(ch chan<- string) event.Subscription {
	return a.networkFeed.Subscribe(ch)
}

// SelectNetwork switches the client to another configured network and
// emits the new CAIP-2 chain id.
func (a *Adapter) SelectNetwork(name string) error {
	network, ok := a.networks(name)
	if !ok {
		return fmt.Errorf("sui network %q is not configured", name)
	}
	current, _ := a.client.Network()
	if current == name {
		return nil
	}
	a.client.Use(name, network)
	a.networkFeed.Send(network.ChainID)
	return nil
}

// Send builds the Move call on the node, signs it and executes it.
// Execution waits for local effects, so the digest is final when returned.
func (a *Adapter) Send(ctx context.Context, desc types.CallDescriptor) (string, error) {
	if desc.Family != types.MoveChain {
		return "", &types.SubmissionError{Code: types.NetworkRejected, Err: fmt.Errorf("cannot send %s call through Sui wallet", desc.Family)}
	}
	a.mu.Lock()
	connected := a.connected
	a.mu.Unlock()
	if !connected || a.key == nil {
		return "", &types.SubmissionError{Code: types.UserRejectedSigning, Err: errors.New("wallet is not connected")}
	}

	parts := strings.Split(desc.Target, "::")
	if len(parts) != 3 {
		return "", &types.SubmissionError{Code: types.NetworkRejected, Err: fmt.Errorf("malformed move target %q", desc.Target)}
	}
	args := make([]interface{}, 0, len(desc.Arguments))
	for _, arg := range desc.Arguments {
		args = append(args, arg.Value)
	}

	api := a.client.API()
	meta, err := api.MoveCall(ctx, models.MoveCallRequest{
		Signer:          a.address(),
		PackageObjectId: parts[0],
		Module:          parts[1],
		Function:        parts[2],
		TypeArguments:   []interface{}{},
		Arguments:       args,
		GasBudget:       strconv.FormatUint(a.gasBudget, 10),
	})
	if err != nil {
		log.Printf("Error building move call %s: %s", desc.Target, err.Error())
		return "", &types.SubmissionError{Code: types.NetworkRejected, Err: err}
	}

	resp, err := api.SignAndExecuteTransactionBlock(ctx, models.SignAndExecuteTransactionBlockRequest{
		TxnMetaData: meta,
		PriKey:      a.key,
		Options: models.SuiTransactionBlockOptions{
			ShowEffects: true,
		},
		RequestType: "WaitForLocalExecution",
	})
	if err != nil {
		log.Printf("Error executing move call %s: %s", desc.Target, err.Error())
		return "", &types.SubmissionError{Code: types.NetworkRejected, Err: err}
	}
	return resp.Digest, nil
}

// Wait looks the digest up until its effects are visible.
func (a *Adapter) Wait(ctx context.Context, digest string) (types.Receipt, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		resp, err := a.client.API().SuiGetTransactionBlock(ctx, models.SuiGetTransactionBlockRequest{
			Digest: digest,
			Options: models.SuiTransactionBlockOptions{
				ShowEffects: true,
			},
		})
		if err == nil && resp.Effects.Status.Status != "" {
			receipt := types.Receipt{TxHash: digest}
			if checkpoint, perr := strconv.ParseUint(resp.Checkpoint, 10, 64); perr == nil {
				receipt.BlockNumber = checkpoint
			}
			if resp.Effects.Status.Status != "success" {
				receipt.Error = resp.Effects.Status.Error
				return receipt, &types.SubmissionError{Code: types.Reverted, Err: fmt.Errorf("transaction %s failed: %s", digest, resp.Effects.Status.Error)}
			}
			receipt.Success = true
			return receipt, nil
		}
		if err != nil {
			log.Printf("Error getting transaction block %s: %s", digest, err.Error())
		}

		select {
		case <-ctx.Done():
			return types.Receipt{TxHash: digest}, &types.SubmissionError{Code: types.NetworkRejected, Err: fmt.Errorf("waiting for %s: %w", digest, ctx.Err())}
		case <-ticker.C:
		}
	}
}
