package EVMRPC

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"ibtbridge/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/event"
	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"
)

// EIP-1193 provider error codes
const (
	CodeUserRejected   = 4001
	CodeUnauthorized   = 4100
	CodeMethodNotFound = -32601
)

var (
	ErrUnreachable = errors.New("wallet provider unreachable")
	ErrWrongChain  = errors.New("wallet is on another chain")
)

// Provider is the EVM wallet. It answers eth_* requests against a node
// and pushes accountsChanged/chainChanged to subscribers. With a private
// key it signs locally, otherwise it relies on accounts unlocked on the node.
type Provider struct {
	endpoint string
	rpc      jsonrpc.RPCClient
	chain    *Client
	key      *ecdsa.PrivateKey
	gasLimit uint64

	mu         sync.Mutex
	accounts   []string
	chainID    string
	expected   string
	watchEvery time.Duration
	scheduler  *gocron.Scheduler

	accountsFeed event.Feed
	chainFeed    event.Feed
}

func NewProvider(endpoint string, chain *Client, privateKeyHex string, gasLimit uint64) (*Provider, error) {
	p := &Provider{
		endpoint: endpoint,
		chain:    chain,
		gasLimit: gasLimit,
	}
	if endpoint != "" {
		p.rpc = jsonrpc.NewClient(endpoint)
	}
	if privateKeyHex != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("error instantiating private key: %s", err)
		}
		p.key = key
	}
	return p, nil
}

func (p *Provider) Family() types.ChainFamily { return types.EVM }

// ExpectChain makes Connect refuse nodes on any chain but chainID.
// Zero accepts every chain.
func (p *Provider) ExpectChain(chainID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if chainID == 0 {
		p.expected = ""
		return
	}
	p.expected = hexutil.EncodeBig(big.NewInt(chainID))
}

func (p *Provider) checkChain(chainID string) error {
	p.mu.Lock()
	expected := p.expected
	p.mu.Unlock()
	if expected == "" || expected == chainID {
		return nil
	}
	return fmt.Errorf("%w: got %s, want %s", ErrWrongChain, chainID, expected)
}

// Request performs one provider call. Node side errors come back as
// *jsonrpc.RPCError, transport failures wrap ErrUnreachable.
func (p *Provider) Request(ctx context.Context, method string, params ...interface{}) (*jsonrpc.RPCResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.rpc == nil {
		return nil, ErrUnreachable
	}
	resp, err := p.rpc.Call(method, params...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreachable, method, err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp, nil
}

func rpcCode(err error) int {
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code
	}
	return 0
}

func (p *Provider) requestChainID(ctx context.Context) (string, error) {
	resp, err := p.Request(ctx, "eth_chainId")
	if err != nil {
		return "", err
	}
	chainID, err := resp.GetString()
	if err != nil {
		return "", err
	}
	return strings.ToLower(chainID), nil
}

func (p *Provider) requestAccounts(ctx context.Context, method string) ([]string, error) {
	if p.key != nil {
		return []string{crypto.PubkeyToAddress(p.key.PublicKey).Hex()}, nil
	}
	resp, err := p.Request(ctx, method)
	if err != nil && method == "eth_requestAccounts" && rpcCode(err) == CodeMethodNotFound {
		// plain nodes only know eth_accounts
		resp, err = p.Request(ctx, "eth_accounts")
	}
	if err != nil {
		return nil, err
	}
	var accounts []string
	if err := resp.GetObject(&accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func connectionError(err error) error {
	switch rpcCode(err) {
	case CodeUserRejected, CodeUnauthorized:
		return &types.ConnectionError{Code: types.UserRejected, Err: err}
	}
	return &types.ConnectionError{Code: types.ProviderUnavailable, Err: err}
}

func (p *Provider) Connect(ctx context.Context) (string, string, error) {
	if p.rpc == nil {
		return "", "", &types.ConnectionError{Code: types.ProviderUnavailable, Err: errors.New("no EVM wallet provider configured")}
	}

	chainID, err := p.requestChainID(ctx)
	if err != nil {
		return "", "", connectionError(err)
	}
	if err := p.checkChain(chainID); err != nil {
		log.Printf("Refusing EVM wallet: %s", err.Error())
		return "", "", &types.ConnectionError{Code: types.WrongNetwork, Err: err}
	}

	accounts, err := p.requestAccounts(ctx, "eth_requestAccounts")
	if err != nil {
		return "", "", connectionError(err)
	}
	if len(accounts) == 0 {
		return "", "", &types.ConnectionError{Code: types.UserRejected, Err: errors.New("no account authorized")}
	}

	p.mu.Lock()
	p.accounts = accounts
	p.chainID = chainID
	every := p.watchEvery
	p.mu.Unlock()

	if every > 0 {
		if err := p.Watch(every); err != nil {
			log.Printf("Error starting EVM wallet watcher: %s", err.Error())
		}
	}

	log.Printf("EVM wallet connected: %s on chain %s", accounts[0], chainID)
	return accounts[0], chainID, nil
}

func (p *Provider) Disconnect(ctx context.Context) error {
	p.StopWatch()
	p.mu.Lock()
	p.accounts = nil
	p.mu.Unlock()
	return nil
}

func (p *Provider) SubscribeAccounts(ch chan<- []string) event.Subscription {
	return p.accountsFeed.Subscribe(ch)
}

func (p *Provider) SubscribeNetwork(ch chan<- string) event.Subscription {
	return p.chainFeed.Subscribe(ch)
}

func sameAccounts(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

// SetAccounts replaces the exposed accounts and emits accountsChanged.
// An empty list is the "wallet locked / all accounts disconnected" case.
func (p *Provider) SetAccounts(accounts []string) {
	p.mu.Lock()
	if sameAccounts(p.accounts, accounts) {
		p.mu.Unlock()
		return
	}
	p.accounts = append([]string(nil), accounts...)
	p.mu.Unlock()

	log.Printf("EVM accountsChanged: %v", accounts)
	p.accountsFeed.Send(append([]string(nil), accounts...))
}

func (p *Provider) setChainID(chainID string) {
	p.mu.Lock()
	if p.chainID == chainID {
		p.mu.Unlock()
		return
	}
	p.chainID = chainID
	p.mu.Unlock()

	log.Printf("EVM chainChanged: %s", chainID)
	p.chainFeed.Send(chainID)
}

// poll stands in for the browser wallet's push events: it asks the node
// for the chain id (and accounts, when the node holds them) and emits
// changes.
func (p *Provider) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	chainID, err := p.requestChainID(ctx)
	if err != nil {
		log.Printf("Error polling eth_chainId: %s", err.Error())
		return
	}
	p.setChainID(chainID)
	if err := p.checkChain(chainID); err != nil {
		// nothing on this chain belongs to the panel
		log.Warnf("EVM wallet switched chains, dropping accounts: %s", err.Error())
		p.SetAccounts(nil)
		return
	}

	// with a local key this is the key's address
	accounts, err := p.requestAccounts(ctx, "eth_accounts")
	if err != nil {
		log.Printf("Error polling eth_accounts: %s", err.Error())
		return
	}
	p.SetAccounts(accounts)
}

// SetWatchInterval makes Connect start the watcher.
func (p *Provider) SetWatchInterval(every time.Duration) {
	p.mu.Lock()
	p.watchEvery = every
	p.mu.Unlock()
}

// Watch polls the node every interval until StopWatch or Disconnect.
// A later Connect restarts it with the same interval.
func (p *Provider) Watch(every time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.watchEvery = every
	if p.scheduler != nil {
		return nil
	}

	s := gocron.NewScheduler(time.UTC)
	if _, err := s.Every(every).WaitForSchedule().Do(p.poll); err != nil {
		return err
	}
	s.StartAsync()
	p.scheduler = s
	return nil
}

func (p *Provider) StopWatch() {
	p.mu.Lock()
	s := p.scheduler
	p.scheduler = nil
	p.mu.Unlock()
	if s != nil {
		s.Stop()
	}
}

func (p *Provider) currentAccount() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.accounts) == 0 {
		return ""
	}
	return p.accounts[0]
}

func submissionError(err error) error {
	if rpcCode(err) == CodeUserRejected {
		return &types.SubmissionError{Code: types.UserRejectedSigning, Err: err}
	}
	return &types.SubmissionError{Code: types.NetworkRejected, Err: err}
}

// Send asks the wallet to sign and broadcast the call and returns its hash.
func (p *Provider) Send(ctx context.Context, desc types.CallDescriptor) (string, error) {
	if desc.Family != types.EVM {
		return "", &types.SubmissionError{Code: types.NetworkRejected, Err: fmt.Errorf("cannot send %s call through EVM wallet", desc.Family)}
	}
	from := p.currentAccount()
	if from == "" {
		return "", &types.SubmissionError{Code: types.UserRejectedSigning, Err: errors.New("wallet has no connected account")}
	}

	if p.key != nil {
		return p.sendSigned(ctx, desc)
	}

	resp, err := p.Request(ctx, "eth_sendTransaction", []interface{}{
		map[string]string{
			"from": from,
			"to":   desc.Target,
			"data": hexutil.Encode(desc.Data),
		},
	})
	if err != nil {
		log.Printf("Error calling eth_sendTransaction %s: %s", desc.Function, err.Error())
		return "", submissionError(err)
	}
	txHash, err := resp.GetString()
	if err != nil {
		return "", submissionError(err)
	}
	return txHash, nil
}

func (p *Provider) sendSigned(ctx context.Context, desc types.CallDescriptor) (string, error) {
	from := crypto.PubkeyToAddress(p.key.PublicKey)
	to := common.HexToAddress(desc.Target)

	var reterr error
	for i := 0; i < len(p.chain.RPCList); i++ {
		tx, err := WithClient(p.chain.RPCList[i:i+1], func(client *ethclient.Client) (*ethtypes.Transaction, error) {
			chainID, err := client.ChainID(ctx)
			if err != nil {
				return nil, fmt.Errorf("error getting chain id: %s", err)
			}
			nonce, err := client.PendingNonceAt(ctx, from)
			if err != nil {
				return nil, fmt.Errorf("error getting nonce for wallet: %s", err)
			}
			gasPrice, err := client.SuggestGasPrice(ctx)
			if err != nil {
				return nil, fmt.Errorf("error getting suggested gas price: %s", err)
			}

			tx := ethtypes.NewTx(&ethtypes.LegacyTx{
				Nonce:    nonce,
				To:       &to,
				Value:    big.NewInt(0),
				Gas:      p.gasLimit,
				GasPrice: gasPrice,
				Data:     desc.Data,
			})
			signed, err := ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(chainID), p.key)
			if err != nil {
				return nil, fmt.Errorf("error signing transaction: %s", err)
			}
			if err := client.SendTransaction(ctx, signed); err != nil {
				return nil, fmt.Errorf("error calling %s method: %s", desc.Function, err)
			}
			return signed, nil
		})
		if err != nil {
			reterr = err
			log.Print(err.Error())
			continue
		}
		return tx.Hash().Hex(), nil
	}
	if reterr == nil {
		reterr = ErrNoRPC
	}
	return "", &types.SubmissionError{Code: types.NetworkRejected, Err: reterr}
}

func (p *Provider) Wait(ctx context.Context, txHash string) (types.Receipt, error) {
	return p.chain.WaitReceipt(ctx, txHash)
}
