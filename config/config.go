// Package config handles daemon configuration.
//
// Configuration is layered: built-in defaults, then the .conf file,
// then command-line flags, highest last.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Config holds daemon runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// RPC server
	RPC RPCConfig

	// Registry bootstrap (used only when the ledger is first created)
	Registry RegistryConfig

	// Gateway signing service
	Gateway GatewayConfig

	// Logging
	Log LogConfig
}

// RPCConfig holds RPC server settings.
type RPCConfig struct {
	Enabled     bool     `conf:"rpc.enabled"`
	Addr        string   `conf:"rpc.addr"`
	Port        int      `conf:"rpc.port"`
	AllowedIPs  []string `conf:"rpc.allowed"`
	CORSOrigins []string `conf:"rpc.cors"` // Allowed CORS origins ("*" = all).
}

// RegistryConfig holds the bootstrap state of the credential ledger.
// These values seed a fresh database and are ignored once the ledger
// exists; later changes go through admin RPC calls, not the config file.
type RegistryConfig struct {
	Authority        string   `conf:"registry.authority"` // Gateway authority address.
	Admins           []string `conf:"registry.admins"`
	Minters          []string `conf:"registry.minters"`
	TransfersEnabled bool     `conf:"registry.transfers"`
}

// GatewayConfig holds gateway signer settings. When enabled, the daemon
// loads the authority key at startup and serves voucher issuance over
// RPC.
type GatewayConfig struct {
	Enabled bool `conf:"gateway.enabled"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.guildcred
//	macOS:   ~/Library/Application Support/Guildcred
//	Windows: %APPDATA%\Guildcred
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".guildcred"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Guildcred")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Guildcred")
		}
		return filepath.Join(home, "AppData", "Roaming", "Guildcred")
	default:
		return filepath.Join(home, ".guildcred")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// RegistryDir returns the credential ledger database directory.
func (c *Config) RegistryDir() string {
	return filepath.Join(c.NetworkDataDir(), "registry")
}

// KeystoreDir returns the gateway keystore directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.NetworkDataDir(), "keystore")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "guildcred.conf")
}
