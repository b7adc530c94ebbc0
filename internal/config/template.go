package config

import (
	"fmt"
	"os"
)

// WriteTemplate writes a starter config to path. Existing files are kept
// unless overwrite is set.
func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(daemonTemplate), 0o600)
}

const daemonTemplate = `[ledger]
host = "http://localhost"
port = 8090
name = "shipping-sample"

[identity]
root_key = "8d542edcd3a11b4ca5faabe7c9fa09045d6f489b9461518dbd86c6c9e3b21fec"
root_did = ""

# Bind acting users to their signing keys. Unbound actors sign with the
# root key.
#
# [[identity.actors]]
# actor = "user/alice"
# key = "..."
# did = ""

[server]
addr = ":8080"
cors_origins = ["http://localhost:5173"]

[lifecycle]
enforce_guard = false
`
