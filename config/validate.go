package config

import (
	"fmt"

	"github.com/guildcred/guildcred/pkg/types"
)

// Validate checks runtime config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if cfg.RPC.Port < 0 || cfg.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port must be in range [0, 65535]")
	}

	if cfg.Registry.Authority != "" {
		if _, err := types.ParseAddress(cfg.Registry.Authority); err != nil {
			return fmt.Errorf("registry.authority: %w", err)
		}
	}
	if err := validateAddresses(cfg.Registry.Admins, "registry.admins"); err != nil {
		return err
	}
	if err := validateAddresses(cfg.Registry.Minters, "registry.minters"); err != nil {
		return err
	}

	return nil
}

func validateAddresses(addrs []string, field string) error {
	seen := make(map[string]struct{}, len(addrs))
	for i, a := range addrs {
		if a == "" {
			return fmt.Errorf("%s[%d] is empty", field, i)
		}
		if _, err := types.ParseAddress(a); err != nil {
			return fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		if _, ok := seen[a]; ok {
			return fmt.Errorf("%s has duplicate address %q", field, a)
		}
		seen[a] = struct{}{}
	}
	return nil
}
