package config

import (
	"os"
	"path/filepath"
	"time"
)

// Client captures everything the housepass binaries need to talk to the
// ticketing backend.
type Client struct {
	BaseURL        string
	RequestTimeout time.Duration
	StateDir       string
	ScannerURL     string
	LogLevel       string
}

const (
	// DevProxyURL is the local development proxy in front of the backend.
	DevProxyURL = "http://localhost:3001"
	// ProductionURL is the fixed production API host.
	ProductionURL = "https://api.housepass.events"

	defaultRequestTimeout = 30 * time.Second
)

// FromEnv builds a Client config from environment variables so main stays
// lean. HOUSEPASS_ENV=production switches the base URL to the fixed
// production host; HOUSEPASS_API_URL overrides it outright.
func FromEnv() Client {
	base := DevProxyURL
	if os.Getenv("HOUSEPASS_ENV") == "production" {
		base = ProductionURL
	}
	if v := os.Getenv("HOUSEPASS_API_URL"); v != "" {
		base = v
	}

	timeout := defaultRequestTimeout
	if v := os.Getenv("HOUSEPASS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			timeout = d
		}
	}

	stateDir := os.Getenv("HOUSEPASS_STATE_DIR")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			stateDir = filepath.Join(home, ".housepass")
		} else {
			stateDir = ".housepass"
		}
	}

	level := os.Getenv("HOUSEPASS_LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	return Client{
		BaseURL:        base,
		RequestTimeout: timeout,
		StateDir:       stateDir,
		ScannerURL:     os.Getenv("HOUSEPASS_SCANNER_URL"),
		LogLevel:       level,
	}
}

// CredentialFile is the sealed credential store location inside StateDir.
func (c Client) CredentialFile() string {
	return filepath.Join(c.StateDir, "credentials.hp")
}

// MachineKeyFile holds the local secret the credential store derives its
// sealing key from.
func (c Client) MachineKeyFile() string {
	return filepath.Join(c.StateDir, "machine.key")
}
