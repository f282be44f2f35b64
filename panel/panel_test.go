package panel

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"ibtbridge/types"

	"github.com/ethereum/go-ethereum/event"
	"github.com/stretchr/testify/require"
)

const (
	account = "0xABC0000000000000000000000000000000000001"
	other   = "0xABC0000000000000000000000000000000000002"
	token   = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
)

type fakeConnector struct {
	family   types.ChainFamily
	accounts event.Feed
	networks event.Feed
}

func (f *fakeConnector) Family() types.ChainFamily { return f.family }

func (f *fakeConnector) Connect(ctx context.Context) (string, string, error) {
	return account, "0x7a69", nil
}

func (f *fakeConnector) Disconnect(ctx context.Context) error { return nil }

func (f *fakeConnector) SubscribeAccounts(ch chan<- []string) event.Subscription {
	return f.accounts.Subscribe(ch)
}

func (f *fakeConnector) SubscribeNetwork(ch chan<- string) event.Subscription {
	return f.networks.Subscribe(ch)
}

type fakeReader struct {
	mu       sync.Mutex
	raw      map[string]*big.Int
	err      error
	block    chan struct{}
	returned chan string
	reads    int
}

func (f *fakeReader) ReadBalance(ctx context.Context, owner, tokenID string) (types.TokenBalance, error) {
	f.mu.Lock()
	f.reads++
	block, raw, err := f.block, f.raw[owner], f.err
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.returned != nil {
		defer func() { f.returned <- owner }()
	}
	if err != nil {
		return types.TokenBalance{}, err
	}
	if raw == nil {
		raw = big.NewInt(0)
	}
	return types.TokenBalance{Owner: owner, TokenID: tokenID, RawUnits: raw, Decimals: 18}, nil
}

func (f *fakeReader) set(owner string, raw *big.Int) {
	f.mu.Lock()
	f.raw[owner] = raw
	f.mu.Unlock()
}

func (f *fakeReader) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

type fakeBuilder struct {
	err    error
	params map[string]string
}

func (f *fakeBuilder) Build(ctx context.Context, kind types.OperationKind, params map[string]string) (types.CallDescriptor, error) {
	f.params = params
	if f.err != nil {
		return types.CallDescriptor{}, f.err
	}
	return types.CallDescriptor{Family: types.EVM, Target: token, Function: string(kind)}, nil
}

type fakeSender struct {
	mu      sync.Mutex
	sends   int
	release chan struct{}
	onWait  func()
}

func (f *fakeSender) Send(ctx context.Context, desc types.CallDescriptor) (string, error) {
	f.mu.Lock()
	f.sends++
	f.mu.Unlock()
	return "0xfeed", nil
}

func (f *fakeSender) Wait(ctx context.Context, txHash string) (types.Receipt, error) {
	if f.release != nil {
		<-f.release
	}
	if f.onWait != nil {
		f.onWait()
	}
	return types.Receipt{TxHash: txHash, BlockNumber: 1, Success: true}, nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sends
}

func wei(s string) *big.Int {
	v, _ := big.NewInt(0).SetString(s, 10)
	return v
}

func newPanel(family types.ChainFamily, reader *fakeReader, builder *fakeBuilder, sender *fakeSender) (*Panel, *fakeConnector) {
	c := &fakeConnector{family: family}
	p := New("eth", Capabilities{
		Connector: c,
		Reader:    reader,
		Builder:   builder,
		Sender:    sender,
		Token:     func() string { return token },
		Symbol:    "IBT",
	})
	return p, c
}

func TestConnectReadsBalance(t *testing.T) {
	reader := &fakeReader{raw: map[string]*big.Int{account: wei("5000000000000000000")}}
	p, _ := newPanel(types.EVM, reader, &fakeBuilder{}, &fakeSender{})
	defer p.Close()

	conn, err := p.Connect(context.Background())
	require.NoError(t, err)
	require.Equal(t, account, conn.Address)

	require.Eventually(t, func() bool { return p.View().Balance == "5 IBT" }, time.Second, 5*time.Millisecond)
	v := p.View()
	require.True(t, v.Connection.Connected)
	require.Equal(t, token, v.TokenBalance.TokenID)
	require.Nil(t, v.Error)
}

func TestNotConnectedView(t *testing.T) {
	p, _ := newPanel(types.EVM, &fakeReader{raw: map[string]*big.Int{}}, &fakeBuilder{}, &fakeSender{})
	defer p.Close()

	require.Equal(t, "not connected", p.View().Balance)
	require.Equal(t, "eth", p.View().Title)
	err := p.Refresh(context.Background())
	require.True(t, types.IsCode(err, types.ProviderUnavailable))
}

func TestEmptyAccountsDiscardsInFlightRead(t *testing.T) {
	reader := &fakeReader{
		raw:      map[string]*big.Int{account: wei("5000000000000000000")},
		block:    make(chan struct{}),
		returned: make(chan string, 1),
	}
	p, c := newPanel(types.EVM, reader, &fakeBuilder{}, &fakeSender{})
	defer p.Close()

	_, err := p.Connect(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return reader.count() == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, "fetching...", p.View().Balance)

	c.accounts.Send([]string{})
	require.Eventually(t, func() bool { return !p.View().Connection.Connected }, time.Second, 5*time.Millisecond)

	close(reader.block)
	require.Equal(t, account, <-reader.returned)

	require.Never(t, func() bool { return p.View().TokenBalance != nil }, 100*time.Millisecond, 5*time.Millisecond)
	require.Equal(t, "not connected", p.View().Balance)
}

func TestAccountSwitchKeepsNewestBalance(t *testing.T) {
	reader := &fakeReader{raw: map[string]*big.Int{
		account: wei("1000000000000000000"),
		other:   wei("2000000000000000000"),
	}}
	p, c := newPanel(types.EVM, reader, &fakeBuilder{}, &fakeSender{})
	defer p.Close()

	_, err := p.Connect(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return p.View().Balance == "1 IBT" }, time.Second, 5*time.Millisecond)

	c.accounts.Send([]string{other})
	require.Eventually(t, func() bool { return p.View().Balance == "2 IBT" }, time.Second, 5*time.Millisecond)
	require.Equal(t, other, p.View().Connection.Address)
}

func TestReadFailureShowsFetchingFailed(t *testing.T) {
	reader := &fakeReader{raw: map[string]*big.Int{}, err: &types.ReadError{Code: types.NetworkUnreachable, Err: errors.New("down")}}
	p, _ := newPanel(types.EVM, reader, &fakeBuilder{}, &fakeSender{})
	defer p.Close()

	_, err := p.Connect(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return p.View().Balance == "fetching failed" }, time.Second, 5*time.Millisecond)
	require.Equal(t, "Network is unreachable.", p.View().Error.Text)

	// manual retry
	reader.mu.Lock()
	reader.err = nil
	reader.mu.Unlock()
	require.NoError(t, p.Refresh(context.Background()))
	require.Equal(t, "0 IBT", p.View().Balance)
}

func TestNetworkChangeReloads(t *testing.T) {
	reader := &fakeReader{raw: map[string]*big.Int{account: wei("1000000000000000000")}}
	p, c := newPanel(types.EVM, reader, &fakeBuilder{}, &fakeSender{})
	defer p.Close()

	_, err := p.Connect(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return p.View().Balance == "1 IBT" }, time.Second, 5*time.Millisecond)

	_, sub, err := p.Submit(context.Background(), "mint", types.Mint, map[string]string{"to": account, "amount": "1"})
	require.NoError(t, err)
	_, err = sub.Wait(context.Background())
	require.NoError(t, err)
	_, ok := p.Form("mint")
	require.True(t, ok)

	reader.set(account, big.NewInt(0))
	c.networks.Send("0x1")
	require.Eventually(t, func() bool { return p.View().Balance == "0 IBT" }, time.Second, 5*time.Millisecond)

	v := p.View()
	require.Equal(t, "0x1", v.Connection.NetworkID)
	require.Empty(t, v.Forms)
}

func TestSubmitValidationFailure(t *testing.T) {
	sender := &fakeSender{}
	builder := &fakeBuilder{err: types.NewValidationError(types.NonPositiveAmount, "amount", "amount must be greater than zero")}
	p, _ := newPanel(types.EVM, &fakeReader{raw: map[string]*big.Int{}}, builder, sender)
	defer p.Close()

	_, err := p.Connect(context.Background())
	require.NoError(t, err)

	op, sub, err := p.Submit(context.Background(), "mint", types.Mint, map[string]string{"to": account, "amount": "-1"})
	require.True(t, types.IsCode(err, types.NonPositiveAmount))
	require.Nil(t, sub)
	require.Equal(t, types.PhaseFailed, op.Phase)
	require.Equal(t, 0, sender.count())

	form, ok := p.Form("mint")
	require.True(t, ok)
	require.Equal(t, "Mint failed: amount must be greater than zero", form.Status.Text)
}

func TestSubmitWhileSubmittedIsRejected(t *testing.T) {
	sender := &fakeSender{release: make(chan struct{})}
	p, _ := newPanel(types.EVM, &fakeReader{raw: map[string]*big.Int{}}, &fakeBuilder{}, sender)
	defer p.Close()

	_, err := p.Connect(context.Background())
	require.NoError(t, err)

	_, sub, err := p.Submit(context.Background(), "burn", types.Burn, map[string]string{"amount": "1"})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		f, _ := p.Form("burn")
		return f.Operation.Phase == types.PhaseSubmitted
	}, time.Second, 5*time.Millisecond)

	_, _, err = p.Submit(context.Background(), "burn", types.Burn, map[string]string{"amount": "1"})
	require.True(t, types.IsCode(err, types.OperationInFlight))
	require.Equal(t, 1, sender.count())

	close(sender.release)
	_, err = sub.Wait(context.Background())
	require.NoError(t, err)
}

func TestConfirmedSubmissionRefreshesBalance(t *testing.T) {
	reader := &fakeReader{raw: map[string]*big.Int{account: wei("5000000000000000000")}}
	sender := &fakeSender{}
	// the chain state changes when the transaction lands
	sender.onWait = func() { reader.set(account, wei("4000000000000000000")) }

	p, _ := newPanel(types.EVM, reader, &fakeBuilder{}, sender)
	defer p.Close()

	_, err := p.Connect(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return p.View().Balance == "5 IBT" }, time.Second, 5*time.Millisecond)

	_, sub, err := p.Submit(context.Background(), "burn", types.Burn, map[string]string{"amount": "1", "destinationChain": "sui"})
	require.NoError(t, err)
	_, err = sub.Wait(context.Background())
	require.NoError(t, err)

	// the re-read ran before the submission completed
	require.Equal(t, "4 IBT", p.View().Balance)
	form, _ := p.Form("burn")
	require.Equal(t, "Burn successful!", form.Status.Text)
}

func TestMoveChainSubmitUsesConnectedOwner(t *testing.T) {
	builder := &fakeBuilder{}
	p, _ := newPanel(types.MoveChain, &fakeReader{raw: map[string]*big.Int{}}, builder, &fakeSender{})
	defer p.Close()

	_, err := p.Connect(context.Background())
	require.NoError(t, err)

	_, _, err = p.Submit(context.Background(), "burn", types.Burn, map[string]string{"amount": "1"})
	require.NoError(t, err)
	require.Equal(t, account, builder.params["owner"])
}

func TestMoveChainSubmitReplacesGivenOwner(t *testing.T) {
	builder := &fakeBuilder{}
	sender := &fakeSender{}
	p, _ := newPanel(types.MoveChain, &fakeReader{raw: map[string]*big.Int{}}, builder, sender)
	defer p.Close()

	_, err := p.Connect(context.Background())
	require.NoError(t, err)

	params := map[string]string{"amount": "1", "owner": "0x0000000000000000000000000000000000000000000000000000000000000bad"}
	_, sub, err := p.Submit(context.Background(), "burn", types.Burn, params)
	require.NoError(t, err)
	_, err = sub.Wait(context.Background())
	require.NoError(t, err)

	// only the signer's own coins can be burned
	require.Equal(t, account, builder.params["owner"])
	require.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000bad", params["owner"])
}

func TestSubmitRequiresConnection(t *testing.T) {
	sender := &fakeSender{}
	p, _ := newPanel(types.EVM, &fakeReader{raw: map[string]*big.Int{}}, &fakeBuilder{}, sender)
	defer p.Close()

	_, _, err := p.Submit(context.Background(), "mint", types.Mint, map[string]string{"amount": "1"})
	require.True(t, types.IsCode(err, types.ProviderUnavailable))
	require.Equal(t, 0, sender.count())
}

func TestDisconnectClearsBalance(t *testing.T) {
	reader := &fakeReader{raw: map[string]*big.Int{account: wei("5000000000000000000")}}
	p, _ := newPanel(types.EVM, reader, &fakeBuilder{}, &fakeSender{})
	defer p.Close()

	_, err := p.Connect(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return p.View().Balance == "5 IBT" }, time.Second, 5*time.Millisecond)

	require.NoError(t, p.Disconnect(context.Background()))
	v := p.View()
	require.Equal(t, "not connected", v.Balance)
	require.Nil(t, v.TokenBalance)
}
