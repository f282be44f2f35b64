package panel

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"ibtbridge/balance"
	"ibtbridge/status"
	"ibtbridge/submitter"
	"ibtbridge/txbuilder"
	"ibtbridge/types"
	"ibtbridge/units"
	"ibtbridge/wallet"

	"github.com/go-kit/kit/metrics"
	log "github.com/sirupsen/logrus"
)

// Ownership tells whether an account owns the token contract.
type Ownership interface {
	IsOwner(ctx context.Context, account, tokenID string) (bool, error)
}

// NativeReader reads the chain's gas coin next to the token.
type NativeReader interface {
	NativeBalance(ctx context.Context, owner string) (types.TokenBalance, error)
}

// Capabilities is one chain family's implementation of every step of the
// panel workflow. It is selected once when the panel is built.
type Capabilities struct {
	// Title is the display name, defaulting to the panel name.
	Title string

	Connector wallet.Connector
	Reader    balance.Reader
	Builder   txbuilder.Builder
	Sender    submitter.Sender

	// Token returns the token id on the current network.
	Token  func() string
	Symbol string

	Ownership    Ownership
	Native       NativeReader
	NativeSymbol string

	ConfirmTimeout time.Duration
}

var (
	ErrNotConnected = errors.New("wallet is not connected")
	ErrStaleRead    = errors.New("balance read superseded")
)

// Panel owns one wallet connection and everything derived from it.
// Panels never share state.
type Panel struct {
	name      string
	caps      Capabilities
	manager   *wallet.Manager
	submitter *submitter.Submitter
	subs      []wallet.Subscription

	gauge metrics.Gauge

	mu         sync.Mutex
	generation uint64
	balance    *types.TokenBalance
	native     *types.TokenBalance
	owner      *bool
	loading    bool
	readErr    error
	connErr    error
}

func New(name string, caps Capabilities) *Panel {
	if caps.Title == "" {
		caps.Title = name
	}
	p := &Panel{
		name:      name,
		caps:      caps,
		manager:   wallet.NewManager(caps.Connector),
		submitter: submitter.New(familyOf(caps.Connector), caps.Sender, caps.ConfirmTimeout),
	}
	p.subs = append(p.subs,
		p.manager.OnAccountsChanged(p.accountsChanged),
		p.manager.OnNetworkChanged(p.networkChanged),
	)
	p.submitter.OnConfirmed(p.confirmed)
	return p
}

func familyOf(c wallet.Connector) types.ChainFamily {
	if c == nil {
		return types.EVM
	}
	return c.Family()
}

func (p *Panel) Name() string { return p.name }

func (p *Panel) Family() types.ChainFamily { return familyOf(p.caps.Connector) }

// Submitter exposes the panel's submitter for journal and metrics wiring.
func (p *Panel) Submitter() *submitter.Submitter { return p.submitter }

func (p *Panel) SetGauge(g metrics.Gauge) { p.gauge = g }

func (p *Panel) Connection() types.WalletConnection { return p.manager.Current() }

// Connect asks the wallet for an account and starts reading its balance.
func (p *Panel) Connect(ctx context.Context) (types.WalletConnection, error) {
	conn, err := p.manager.Connect(ctx)
	p.mu.Lock()
	p.connErr = err
	p.mu.Unlock()
	if err != nil {
		return conn, err
	}
	p.startRead()
	return conn, nil
}

func (p *Panel) Disconnect(ctx context.Context) error {
	err := p.manager.Disconnect(ctx)
	p.mu.Lock()
	p.generation++
	p.clear()
	p.connErr = nil
	p.mu.Unlock()
	log.Printf("%s panel disconnected", p.name)
	return err
}

// Refresh reads the balance now and applies it unless a newer read or an
// account change superseded it.
func (p *Panel) Refresh(ctx context.Context) error {
	gen, owner, ok := p.beginRead()
	if !ok {
		return &types.ConnectionError{Code: types.ProviderUnavailable, Err: ErrNotConnected}
	}
	return p.read(ctx, gen, owner)
}

func (p *Panel) startRead() {
	gen, owner, ok := p.beginRead()
	if !ok {
		return
	}
	go func() {
		if err := p.read(context.Background(), gen, owner); err != nil && !errors.Is(err, ErrStaleRead) {
			log.Printf("Error reading %s balance of %s: %s", p.name, owner, err.Error())
		}
	}()
}

// clear drops everything derived from the old account. Caller holds mu.
func (p *Panel) clear() {
	p.balance = nil
	p.native = nil
	p.owner = nil
	p.loading = false
	p.readErr = nil
}

func (p *Panel) beginRead() (uint64, string, bool) {
	conn := p.manager.Current()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
	if !conn.Connected || conn.Address == "" {
		p.clear()
		return p.generation, "", false
	}
	p.loading = true
	p.readErr = nil
	return p.generation, conn.Address, true
}

func (p *Panel) read(ctx context.Context, gen uint64, owner string) error {
	token := ""
	if p.caps.Token != nil {
		token = p.caps.Token()
	}
	b, err := p.caps.Reader.ReadBalance(ctx, owner, token)

	var native *types.TokenBalance
	var isOwner *bool
	if err == nil && p.caps.Native != nil {
		if nb, nerr := p.caps.Native.NativeBalance(ctx, owner); nerr == nil {
			native = &nb
		} else {
			log.Printf("Error reading %s native balance: %s", p.name, nerr.Error())
		}
	}
	if err == nil && p.caps.Ownership != nil {
		if ok, oerr := p.caps.Ownership.IsOwner(ctx, owner, token); oerr == nil {
			isOwner = &ok
		} else {
			log.Printf("Error reading %s token owner: %s", p.name, oerr.Error())
		}
	}

	conn := p.manager.Current()
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation || !conn.Connected || !strings.EqualFold(conn.Address, owner) {
		log.Printf("Discarding %s balance read for %s", p.name, owner)
		return ErrStaleRead
	}

	p.loading = false
	if err != nil {
		p.readErr = err
		p.balance = nil
		return err
	}
	p.readErr = nil
	p.balance = &b
	p.native = native
	p.owner = isOwner
	p.observe(b)
	return nil
}

func (p *Panel) observe(b types.TokenBalance) {
	if p.gauge == nil {
		return
	}
	value, err := strconv.ParseFloat(units.ToDisplay(b.RawUnits, b.Decimals), 64)
	if err != nil {
		return
	}
	p.gauge.With("chain_name", p.name, "option", p.caps.Symbol).Set(value)
}

// accountsChanged runs on the wallet's notification goroutine.
func (p *Panel) accountsChanged(conn types.WalletConnection) {
	if !conn.Connected {
		p.mu.Lock()
		p.generation++
		p.clear()
		p.mu.Unlock()
		log.Printf("%s panel lost its account", p.name)
		return
	}
	p.startRead()
}

// networkChanged throws away everything tied to the old network: the
// token id may differ, so nothing is reconciled in place.
func (p *Panel) networkChanged(conn types.WalletConnection) {
	p.mu.Lock()
	p.generation++
	p.clear()
	p.mu.Unlock()
	p.submitter.Reset()
	log.Printf("%s panel reloading for network %s", p.name, conn.NetworkID)
	p.startRead()
}

// confirmed runs after the submitter observed the confirmation, so the
// re-read is ordered after it.
func (p *Panel) confirmed(op types.PendingOperation, receipt types.Receipt) {
	gen, owner, ok := p.beginRead()
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := p.read(ctx, gen, owner); err != nil && !errors.Is(err, ErrStaleRead) {
		log.Printf("Error refreshing %s balance after %s: %s", p.name, receipt.TxHash, err.Error())
	}
}

// Submit validates and sends one form. Validation failures close the
// operation without touching the network. The returned Submission is nil
// unless the call was handed to the wallet.
func (p *Panel) Submit(ctx context.Context, form string, kind types.OperationKind, params map[string]string) (types.PendingOperation, *submitter.Submission, error) {
	conn := p.manager.Current()
	if !conn.Connected {
		return types.PendingOperation{}, nil, &types.ConnectionError{Code: types.ProviderUnavailable, Err: ErrNotConnected}
	}

	op, err := p.submitter.Begin(form, kind, params)
	if err != nil {
		return op, nil, err
	}

	call := make(map[string]string, len(params)+1)
	for k, v := range params {
		call[k] = v
	}
	if p.Family() == types.MoveChain {
		// burns spend the signer's coins, so a given owner is replaced
		call[txbuilder.ParamOwner] = conn.Address
	}

	desc, err := p.caps.Builder.Build(ctx, kind, call)
	if err != nil {
		failed, ferr := p.submitter.Fail(op.ID, err)
		if ferr != nil {
			log.Printf("Error failing operation %s: %s", op.ID, ferr.Error())
		}
		return failed, nil, err
	}

	sub := p.submitter.Submit(ctx, op.ID, desc)
	current, _ := p.submitter.Operation(form)
	return current, sub, nil
}

type FormView struct {
	Operation types.PendingOperation `json:"operation"`
	Status    status.Status          `json:"status"`
}

type View struct {
	Name          string                 `json:"name"`
	Title         string                 `json:"title"`
	Connection    types.WalletConnection `json:"connection"`
	Symbol        string                 `json:"symbol"`
	Balance       string                 `json:"balance"`
	TokenBalance  *types.TokenBalance    `json:"tokenBalance,omitempty"`
	NativeBalance string                 `json:"nativeBalance,omitempty"`
	IsOwner       *bool                  `json:"isOwner,omitempty"`
	Error         *status.Status         `json:"error,omitempty"`
	Forms         map[string]FormView    `json:"forms"`
}

func (p *Panel) View() View {
	conn := p.manager.Current()

	p.mu.Lock()
	v := View{
		Name:       p.name,
		Title:      p.caps.Title,
		Connection: conn,
		Symbol:     p.caps.Symbol,
		Balance: status.Balance(status.BalanceView{
			Connected: conn.Connected,
			Loading:   p.loading,
			Failed:    p.readErr != nil,
			Balance:   p.balance,
			Symbol:    p.caps.Symbol,
		}),
		TokenBalance: p.balance,
		IsOwner:      p.owner,
		Forms:        make(map[string]FormView),
	}
	if p.native != nil {
		v.NativeBalance = status.Balance(status.BalanceView{Connected: true, Balance: p.native, Symbol: p.caps.NativeSymbol})
	}
	errs := []error{p.connErr, p.readErr}
	p.mu.Unlock()

	for _, err := range errs {
		if err != nil {
			s := status.Project(types.PhaseIdle, err)
			v.Error = &s
			break
		}
	}
	for _, op := range p.submitter.Operations() {
		v.Forms[op.Form] = FormView{Operation: op, Status: status.ForOperation(op)}
	}
	return v
}

// Form returns the latest operation of form and its projected status.
func (p *Panel) Form(form string) (FormView, bool) {
	op, ok := p.submitter.Operation(form)
	if !ok {
		return FormView{}, false
	}
	return FormView{Operation: op, Status: status.ForOperation(op)}, true
}

func (p *Panel) Close() {
	for _, s := range p.subs {
		s.Unsubscribe()
	}
	p.manager.Close()
}
