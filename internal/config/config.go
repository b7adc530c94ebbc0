// Package config loads and validates the daemon's TOML configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Ledger    LedgerConfig    `toml:"ledger"`
	Identity  IdentityConfig  `toml:"identity"`
	Server    ServerConfig    `toml:"server"`
	Lifecycle LifecycleConfig `toml:"lifecycle"`
}

type LedgerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	Name string `toml:"name"`
}

type IdentityConfig struct {
	RootKey string        `toml:"root_key"`
	RootDID string        `toml:"root_did"`
	Actors  []ActorConfig `toml:"actors"`
}

// ActorConfig binds one acting user to a signing key. In a real deployment
// keys would come from a KMS or upstream IDP, not the config file; this
// mirrors the demo setup the system ships with.
type ActorConfig struct {
	Actor string `toml:"actor"`
	Key   string `toml:"key"`
	DID   string `toml:"did"`
}

type ServerConfig struct {
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
}

type LifecycleConfig struct {
	// EnforceGuard switches transitions from the status-only check to the
	// stricter role/location eligibility policy.
	EnforceGuard bool `toml:"enforce_guard"`
}

func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	cfg = withDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func withDefaults(cfg Config) Config {
	if cfg.Ledger.Host == "" {
		cfg.Ledger.Host = "http://localhost"
	}
	if cfg.Ledger.Port == 0 {
		cfg.Ledger.Port = 8090
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	return cfg
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Ledger.Name) == "" {
		return fmt.Errorf("config missing ledger name")
	}
	if strings.TrimSpace(cfg.Identity.RootKey) == "" {
		return fmt.Errorf("config missing identity root key")
	}
	for i, actor := range cfg.Identity.Actors {
		if strings.TrimSpace(actor.Actor) == "" {
			return fmt.Errorf("identity actor[%d] missing actor id", i)
		}
		if strings.TrimSpace(actor.Key) == "" {
			return fmt.Errorf("identity actor[%d] (%s) missing key", i, actor.Actor)
		}
	}
	return nil
}
