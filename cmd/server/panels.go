package main

import (
	"crypto/ed25519"
	"errors"
	"time"

	"ibtbridge/EVMRPC"
	"ibtbridge/SUIRPC"
	"ibtbridge/balance"
	"ibtbridge/config"
	"ibtbridge/metrics"
	"ibtbridge/panel"
	"ibtbridge/redis"
	"ibtbridge/txbuilder"
	"ibtbridge/workers/handlers"
)

type dashboard struct {
	*handlers.Dashboard
	provider *EVMRPC.Provider
}

func (d *dashboard) Close() {
	d.provider.StopWatch()
	for _, p := range d.Panels {
		p.Close()
	}
}

// buildDashboard wires one panel per chain family. Each panel owns its
// own wallet and chain client.
func buildDashboard(cfg *config.Configuration, m *metrics.MetricManager) (*dashboard, error) {
	if len(cfg.EVM.RPCList) == 0 {
		return nil, errors.New("no EVM RPC configured")
	}

	// EVM panel
	chain := EVMRPC.NewClient(cfg.EVM.RPCList)
	provider, err := EVMRPC.NewProvider(cfg.EVM.RPCList[0], chain, cfg.EVM.PrivateKey, cfg.EVM.GasLimit)
	if err != nil {
		return nil, err
	}
	provider.ExpectChain(cfg.EVM.ChainID)
	if cfg.EVM.WatchEvery > 0 {
		provider.SetWatchInterval(time.Duration(cfg.EVM.WatchEvery) * time.Second)
	}
	evmReader := balance.NewEVMReader(chain)
	token := cfg.EVM.TokenAddress
	eth := panel.New("eth", panel.Capabilities{
		Title:          cfg.EVM.Name,
		Connector:      provider,
		Reader:         evmReader,
		Builder:        txbuilder.NewEVMBuilder(token, chain),
		Sender:         provider,
		Token:          func() string { return token },
		Symbol:         cfg.EVM.Symbol,
		Ownership:      evmReader,
		ConfirmTimeout: cfg.EVM.ConfirmAfter,
	})

	// Sui panel
	network, _ := cfg.SuiNetworkConfig(cfg.Sui.Network)
	client := SUIRPC.NewClient(SUIRPC.DialSui, cfg.Sui.Network, network)
	var key ed25519.PrivateKey
	if cfg.Sui.PrivateKey != "" {
		if key, err = SUIRPC.ParsePrivateKey(cfg.Sui.PrivateKey); err != nil {
			return nil, err
		}
	}
	adapter := SUIRPC.NewAdapter(client, cfg.SuiNetworkConfig, key, cfg.Sui.GasBudget)
	selected := func() config.SuiNetwork {
		_, n := client.Network()
		return n
	}
	suiReader := balance.NewSuiReader(client)
	sui := panel.New("sui", panel.Capabilities{
		Title:          "Sui",
		Connector:      adapter,
		Reader:         suiReader,
		Builder:        txbuilder.NewSuiBuilder(client, selected),
		Sender:         adapter,
		Token:          func() string { return selected().CoinType },
		Symbol:         cfg.Sui.Symbol,
		Native:         suiReader,
		NativeSymbol:   "SUI",
		ConfirmTimeout: cfg.Sui.ConfirmAfter,
	})

	panels := map[string]*panel.Panel{"eth": eth, "sui": sui}
	for _, p := range panels {
		if cfg.Server.RedisEnabled {
			p.Submitter().SetJournal(redis.Journal{})
		}
		if m != nil {
			p.Submitter().SetCounter(m.Counter)
			p.SetGauge(m.Gauge)
		}
	}

	return &dashboard{
		Dashboard: &handlers.Dashboard{
			Panels:         panels,
			Networks:       adapter,
			Accounts:       provider,
			JournalEnabled: cfg.Server.RedisEnabled,
		},
		provider: provider,
	}, nil
}
