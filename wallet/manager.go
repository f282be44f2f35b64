package wallet

import (
	"context"
	"errors"
	"sync"

	"ibtbridge/types"

	"github.com/ethereum/go-ethereum/event"
	log "github.com/sirupsen/logrus"
)

// Connector is one chain family's wallet: EVM provider or Sui adapter.
// Account and network changes are pushed through the subscriptions.
type Connector interface {
	Family() types.ChainFamily
	Connect(ctx context.Context) (address string, networkID string, err error)
	Disconnect(ctx context.Context) error
	SubscribeAccounts(ch chan<- []string) event.Subscription
	SubscribeNetwork(ch chan<- string) event.Subscription
}

type Handler func(conn types.WalletConnection)

// Subscription removes an observer. Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe()
}

type subscription struct {
	once sync.Once
	fn   func()
}

func (s *subscription) Unsubscribe() { s.once.Do(s.fn) }

// Manager tracks the WalletConnection of one panel and relays provider
// notifications to observers, outside the caller's control flow.
type Manager struct {
	connector Connector

	mu       sync.RWMutex
	conn     types.WalletConnection
	nextID   int
	accounts map[int]Handler
	networks map[int]Handler

	// provider subscriptions, live between Connect and Disconnect/Close
	scope event.SubscriptionScope
	stop  chan struct{}
	done  chan struct{}
}

func NewManager(connector Connector) *Manager {
	m := &Manager{
		connector: connector,
		accounts:  make(map[int]Handler),
		networks:  make(map[int]Handler),
	}
	if connector != nil {
		m.conn.ChainFamily = connector.Family()
	}
	return m
}

func (m *Manager) Current() types.WalletConnection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conn
}

func (m *Manager) Connect(ctx context.Context) (types.WalletConnection, error) {
	if m.connector == nil {
		return types.WalletConnection{}, &types.ConnectionError{Code: types.ProviderUnavailable, Err: errors.New("no compatible wallet found")}
	}

	address, networkID, err := m.connector.Connect(ctx)
	if err != nil {
		log.Printf("Error connecting %s wallet: %s", m.connector.Family(), err.Error())
		if types.CodeOf(err) == "" {
			err = &types.ConnectionError{Code: types.ProviderUnavailable, Err: err}
		}
		return m.Current(), err
	}

	m.mu.Lock()
	m.conn = types.WalletConnection{
		ChainFamily: m.connector.Family(),
		Address:     address,
		NetworkID:   networkID,
		Connected:   true,
	}
	conn := m.conn
	m.mu.Unlock()

	m.listen()
	return conn, nil
}

func (m *Manager) listen() {
	m.mu.Lock()
	if m.stop != nil {
		m.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	m.stop, m.done = stop, done
	m.mu.Unlock()

	accountsCh := make(chan []string, 8)
	networkCh := make(chan string, 8)
	accountsSub := m.scope.Track(m.connector.SubscribeAccounts(accountsCh))
	networkSub := m.scope.Track(m.connector.SubscribeNetwork(networkCh))

	go func() {
		defer close(done)
		defer accountsSub.Unsubscribe()
		defer networkSub.Unsubscribe()
		for {
			select {
			case accounts := <-accountsCh:
				m.accountsChanged(accounts)
			case networkID := <-networkCh:
				m.networkChanged(networkID)
			case <-stop:
				return
			}
		}
	}()
}

func (m *Manager) accountsChanged(accounts []string) {
	m.mu.Lock()
	if len(accounts) == 0 {
		m.conn.Address = ""
		m.conn.Connected = false
	} else {
		m.conn.Address = accounts[0]
		m.conn.Connected = true
	}
	conn := m.conn
	handlers := collect(m.accounts)
	m.mu.Unlock()

	log.Printf("%s accounts changed, connected: %v, address: %s", conn.ChainFamily, conn.Connected, conn.Address)
	for _, h := range handlers {
		h(conn)
	}
}

// networkChanged invalidates the old connection's network; observers
// are expected to reload everything that depends on it.
func (m *Manager) networkChanged(networkID string) {
	m.mu.Lock()
	m.conn.NetworkID = networkID
	conn := m.conn
	handlers := collect(m.networks)
	m.mu.Unlock()

	log.Printf("%s network changed to %s", conn.ChainFamily, networkID)
	for _, h := range handlers {
		h(conn)
	}
}

func collect(handlers map[int]Handler) []Handler {
	out := make([]Handler, 0, len(handlers))
	for _, h := range handlers {
		out = append(out, h)
	}
	return out
}

func (m *Manager) add(set map[int]Handler, h Handler) Subscription {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	set[id] = h
	m.mu.Unlock()

	return &subscription{fn: func() {
		m.mu.Lock()
		delete(set, id)
		m.mu.Unlock()
	}}
}

func (m *Manager) OnAccountsChanged(h Handler) Subscription {
	return m.add(m.accounts, h)
}

func (m *Manager) OnNetworkChanged(h Handler) Subscription {
	return m.add(m.networks, h)
}

func (m *Manager) stopListening() {
	m.mu.Lock()
	stop, done := m.stop, m.done
	m.stop, m.done = nil, nil
	m.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

func (m *Manager) Disconnect(ctx context.Context) error {
	m.stopListening()

	var err error
	if m.connector != nil {
		err = m.connector.Disconnect(ctx)
	}

	m.mu.Lock()
	m.conn = types.WalletConnection{ChainFamily: m.conn.ChainFamily}
	m.mu.Unlock()
	return err
}

// Close stops relaying provider events and drops every observer.
func (m *Manager) Close() {
	m.stopListening()
	m.scope.Close()

	m.mu.Lock()
	m.accounts = make(map[int]Handler)
	m.networks = make(map[int]Handler)
	m.mu.Unlock()
}
