package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shipledger.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[ledger]
name = "shipping-sample"

[identity]
root_key = "8d542edcd3a11b4ca5faabe7c9fa09045d6f489b9461518dbd86c6c9e3b21fec"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Ledger.Host != "http://localhost" || cfg.Ledger.Port != 8090 {
		t.Fatalf("expected ledger endpoint defaults, got %+v", cfg.Ledger)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("expected server addr default, got %q", cfg.Server.Addr)
	}
	if cfg.Lifecycle.EnforceGuard {
		t.Fatalf("guard enforcement must default off")
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
[ledger]
host = "http://ledger.internal"
port = 8091
name = "shipping-sample"

[identity]
root_key = "rootkey"
root_did = "did:fluree:root"

[[identity.actors]]
actor = "user/1"
key = "key-1"
did = "did:fluree:one"

[[identity.actors]]
actor = "user/2"
key = "key-2"

[server]
addr = ":9090"
cors_origins = ["http://localhost:5173"]

[lifecycle]
enforce_guard = true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Identity.Actors) != 2 || cfg.Identity.Actors[0].DID != "did:fluree:one" {
		t.Fatalf("unexpected actors %+v", cfg.Identity.Actors)
	}
	if !cfg.Lifecycle.EnforceGuard {
		t.Fatalf("expected guard enforcement on")
	}
	if len(cfg.Server.CorsOrigins) != 1 {
		t.Fatalf("unexpected cors origins %v", cfg.Server.CorsOrigins)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing ledger name",
			body: "[identity]\nroot_key = \"k\"\n",
		},
		{
			name: "missing root key",
			body: "[ledger]\nname = \"shipping-sample\"\n",
		},
		{
			name: "actor without key",
			body: `
[ledger]
name = "shipping-sample"
[identity]
root_key = "k"
[[identity.actors]]
actor = "user/1"
`,
		},
		{
			name: "actor without id",
			body: `
[ledger]
name = "shipping-sample"
[identity]
root_key = "k"
[[identity.actors]]
key = "key-1"
`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.body)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
