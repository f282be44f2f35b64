package config

import "time"

type Configuration struct {
	// Server config
	Server struct {
		UseSSL       bool   `yaml:"ssl" envconfig:"ssl"`
		Port         int    `yaml:"port" envconfig:"port"`
		RedisEnabled bool   `yaml:"redis_enabled" envconfig:"redis_enabled"`
		RedisPort    int    `yaml:"redis_port" envconfig:"redis_port"`
		RedisHost    string `yaml:"redis_host" envconfig:"redis_host"`
		StaticDir    string `yaml:"static_dir" envconfig:"static_dir"`
	} `yaml:"server"`
	// environment tag selecting an entry of Endpoints
	Environment string            `yaml:"environment" envconfig:"environment"`
	Endpoints   map[string]string `yaml:"endpoints" ignored:"true"`
	// resolved once at startup from Environment, never re-read
	APIEndpoint string `yaml:"-" ignored:"true"`
	// EVM-related config
	EVM struct {
		// shown as the panel title
		Name string `yaml:"name" envconfig:"name"`
		// the wallet must be on this chain, 0 accepts any
		ChainID      int64    `yaml:"chain_id" envconfig:"chain_id"`
		RPCList      []string `yaml:"rpc" envconfig:"rpc"`
		TokenAddress string   `yaml:"token_address" envconfig:"token_address"`
		Symbol       string   `yaml:"symbol" envconfig:"symbol"`
		// important private stuff
		PrivateKey   string        `yaml:"private_key" envconfig:"private_key"`
		GasLimit     uint64        `yaml:"gas_limit" envconfig:"gas_limit"`
		WatchEvery   int           `yaml:"watch_every_sec" envconfig:"watch_every_sec"`
		ConfirmAfter time.Duration `yaml:"confirm_timeout" envconfig:"confirm_timeout"`
	} `yaml:"EVM"`
	// Sui-related config
	Sui struct {
		Network    string                `yaml:"network" envconfig:"network"`
		Networks   map[string]SuiNetwork `yaml:"networks" ignored:"true"`
		Symbol     string                `yaml:"symbol" envconfig:"symbol"`
		PrivateKey string                `yaml:"private_key" envconfig:"private_key"`
		GasBudget  uint64                `yaml:"gas_budget" envconfig:"gas_budget"`
		// how long to wait for a digest to become visible
		ConfirmAfter time.Duration `yaml:"confirm_timeout" envconfig:"confirm_timeout"`
	} `yaml:"Sui"`
}

// SuiNetwork holds the per-network ids of the deployed IBT package.
// Object ids differ per deployment, so they are never shared across networks.
type SuiNetwork struct {
	ChainID      string `yaml:"chain_id"`
	URL          string `yaml:"url"`
	PackageID    string `yaml:"package_id"`
	Module       string `yaml:"module"`
	CoinType     string `yaml:"coin_type"`
	OwnerCap     string `yaml:"owner_cap"`
	TreasuryCap  string `yaml:"treasury_cap"`
	MintFunction string `yaml:"mint_function"`
	BurnFunction string `yaml:"burn_function"`
}

var Config Configuration

// native SUI coin, read next to IBT on the Sui panel
const SUI_COIN_TYPE = "0x2::sui::SUI"

// journal keys, one set per phase
var RedisPhaseSets = map[string]string{
	"validating": "ibtops:validating", // form accepted, call being built or signed
	"submitted":  "ibtops:submitted",  // wallet accepted the call, waiting for confirmation
	"confirmed":  "ibtops:confirmed",  // transaction confirmed on chain
	"failed":     "ibtops:failed",     // validation, signing or execution failed
}

// Defaults mirror a local hardhat node and a Sui localnet with IBT deployed.
func Defaults() Configuration {
	var cfg Configuration
	cfg.Server.Port = 8080
	cfg.Server.RedisHost = "127.0.0.1"
	cfg.Server.RedisPort = 6379
	cfg.Server.StaticDir = "app"

	cfg.Environment = "local"
	cfg.Endpoints = map[string]string{
		"local":     "http://0.0.0.0:9000",
		"customRPC": "",
	}

	cfg.EVM.Name = "Local"
	cfg.EVM.ChainID = 31337
	cfg.EVM.RPCList = []string{"http://127.0.0.1:8545"}
	cfg.EVM.TokenAddress = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	cfg.EVM.Symbol = "IBT"
	cfg.EVM.GasLimit = 200000
	cfg.EVM.WatchEvery = 5
	cfg.EVM.ConfirmAfter = 2 * time.Minute

	cfg.Sui.Network = "localnet"
	cfg.Sui.Symbol = "IBT"
	cfg.Sui.GasBudget = 10000000
	cfg.Sui.ConfirmAfter = time.Minute
	cfg.Sui.Networks = map[string]SuiNetwork{
		"localnet": {
			ChainID:      "sui:localnet",
			URL:          "http://localhost:9000",
			PackageID:    "0x0c1a6c5aaf1a7fcb3e5ed3bdec8a6804a9688c42c53886e84c23daeabeb6e39a",
			Module:       "IBT",
			CoinType:     "0x0c1a6c5aaf1a7fcb3e5ed3bdec8a6804a9688c42c53886e84c23daeabeb6e39a::IBT::IBT",
			OwnerCap:     "0x63c5c354504701c941607ffbfd886948f0c0f80991c011a23a1b17643f4f1f4e",
			TreasuryCap:  "0x757f3e574bc7b2589b20057764a740e6d619bcb5f5306b670d196c7a85f4399f",
			MintFunction: "bridge_mint",
			BurnFunction: "bridge_burn",
		},
		"testnet": {
			ChainID:      "sui:testnet",
			URL:          "https://fullnode.testnet.sui.io",
			Module:       "IBT",
			MintFunction: "bridge_mint",
			BurnFunction: "bridge_burn",
		},
		"mainnet": {
			ChainID:      "sui:mainnet",
			URL:          "https://fullnode.mainnet.sui.io",
			Module:       "IBT",
			MintFunction: "bridge_mint",
			BurnFunction: "bridge_burn",
		},
	}
	return cfg
}
