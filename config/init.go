package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"
)

const ENV_PREFIX = "IBT"

// reading config error is fatal, and exists main thread
func processError(err error) {
	fmt.Println(err)
	os.Exit(2)
}

func readFile(path string, cfg *Configuration) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	return decoder.Decode(cfg)
}

func readEnv(cfg *Configuration) error {
	return envconfig.Process(ENV_PREFIX, cfg)
}

// Load reads defaults, then the yaml file (if present), then the environment.
func Load(path string) (Configuration, error) {
	cfg := Defaults()

	if path != "" {
		if err := readFile(path, &cfg); err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading %s: %w", path, err)
		}
	}
	if err := readEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.resolveEndpoint(); err != nil {
		return cfg, err
	}
	if _, ok := cfg.Sui.Networks[cfg.Sui.Network]; !ok {
		return cfg, fmt.Errorf("sui network %q is not configured", cfg.Sui.Network)
	}
	return cfg, nil
}

func (cfg *Configuration) resolveEndpoint() error {
	endpoint, ok := cfg.Endpoints[cfg.Environment]
	if !ok {
		return fmt.Errorf("unknown environment %q", cfg.Environment)
	}
	cfg.APIEndpoint = endpoint
	if endpoint != "" {
		log.Printf("Using API endpoint for %s: %s", cfg.Environment, endpoint)
	} else {
		log.Printf("No API endpoint configured for %s", cfg.Environment)
	}
	return nil
}

// SuiNetworkConfig returns the named network with the startup endpoint
// override applied to the selected one.
func (cfg *Configuration) SuiNetworkConfig(name string) (SuiNetwork, bool) {
	n, ok := cfg.Sui.Networks[name]
	if !ok {
		return n, false
	}
	if name == cfg.Sui.Network && cfg.APIEndpoint != "" {
		n.URL = cfg.APIEndpoint
	}
	return n, true
}

func Init(path string) {
	cfg, err := Load(path)
	if err != nil {
		processError(err)
	}
	Config = cfg
}
