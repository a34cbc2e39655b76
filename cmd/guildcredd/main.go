// Guildcred registry daemon.
//
// Usage:
//
//	guildcredd [--network testnet --gateway ...] Run daemon
//	guildcredd --help                            Show help
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/guildcred/guildcred/config"
	"github.com/guildcred/guildcred/internal/gateway"
	"github.com/guildcred/guildcred/internal/node"
)

func main() {
	cfg, _, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	n, err := node.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.Gateway.Enabled {
		if err := attachGateway(cfg, n); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			n.Stop()
			os.Exit(1)
		}
	}

	if err := n.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		n.Stop()
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	n.Stop()
}

// attachGateway unlocks the authority keystore and wires the signer into
// the node so it serves voucher issuance.
func attachGateway(cfg *config.Config, n *node.Node) error {
	ks, err := gateway.NewKeystore(cfg.KeystoreDir())
	if err != nil {
		return fmt.Errorf("open keystore: %w", err)
	}
	if !ks.Exists() {
		return fmt.Errorf("no authority keystore at %s (run: guildcred-cli gateway init)", cfg.KeystoreDir())
	}

	fmt.Fprint(os.Stderr, "Authority keystore passphrase: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("read passphrase: %w", err)
	}

	seed, err := ks.Load(password)
	if err != nil {
		return fmt.Errorf("unlock keystore: %w", err)
	}
	signer, err := gateway.NewSigner(seed)
	for i := range seed {
		seed[i] = 0
	}
	if err != nil {
		return fmt.Errorf("derive authority key: %w", err)
	}

	n.EnableGateway(signer)
	return nil
}
