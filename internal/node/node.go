// Package node provides a reusable credential ledger daemon that can be
// embedded in any binary.
package node

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/guildcred/guildcred/config"
	"github.com/guildcred/guildcred/internal/events"
	"github.com/guildcred/guildcred/internal/gateway"
	klog "github.com/guildcred/guildcred/internal/log"
	"github.com/guildcred/guildcred/internal/registry"
	"github.com/guildcred/guildcred/internal/rpc"
	"github.com/guildcred/guildcred/internal/storage"
	"github.com/guildcred/guildcred/pkg/types"
)

// Node is a fully-initialized credential ledger daemon.
type Node struct {
	cfg    *config.Config
	logger zerolog.Logger

	db       storage.DB
	bus      *events.Bus
	registry *registry.Registry

	rpcServer *rpc.Server
	signer    *gateway.Signer
}

// New creates and initializes a new Node. It performs all setup steps
// (logger, storage, registry, RPC) but does NOT start serving.
// Call Start() for that.
func New(cfg *config.Config) (*Node, error) {
	if cfg.Network == config.Testnet {
		types.SetAddressPrefix(types.TestnetPrefix)
	} else {
		types.SetAddressPrefix(types.MainnetPrefix)
	}

	logFile := cfg.Log.File
	if logFile == "" {
		logsDir := cfg.LogsDir()
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return nil, fmt.Errorf("creating logs dir: %w", err)
		}
		logFile = logsDir + "/guildcred.log"
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := klog.WithComponent("node")

	logger.Info().
		Str("network", string(cfg.Network)).
		Str("datadir", cfg.DataDir).
		Msg("Starting Guildcred daemon")

	db, err := storage.NewBadger(cfg.RegistryDir())
	if err != nil {
		return nil, fmt.Errorf("open database at %s: %w", cfg.RegistryDir(), err)
	}
	logger.Info().Str("path", cfg.RegistryDir()).Msg("Database opened")

	params, err := bootstrapParams(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	bus := events.NewBus(klog.WithComponent("events"))
	params.Bus = bus
	params.Logger = klog.WithComponent("registry")

	reg, err := registry.Open(db, params)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open registry: %w", err)
	}

	n := &Node{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		bus:      bus,
		registry: reg,
	}

	if cfg.RPC.Enabled {
		addr := fmt.Sprintf("%s:%d", cfg.RPC.Addr, cfg.RPC.Port)
		n.rpcServer = rpc.New(addr, reg, string(cfg.Network), cfg.RPC)
	}

	return n, nil
}

// bootstrapParams converts the config bootstrap section to registry
// open parameters. On a fresh database the authority is mandatory; the
// registry itself enforces that.
func bootstrapParams(cfg *config.Config) (registry.Params, error) {
	var params registry.Params

	if cfg.Registry.Authority != "" {
		authority, err := types.ParseAddress(cfg.Registry.Authority)
		if err != nil {
			return params, fmt.Errorf("registry.authority: %w", err)
		}
		params.Authority = authority
	}

	admins, err := parseAddresses(cfg.Registry.Admins, "registry.admins")
	if err != nil {
		return params, err
	}
	minters, err := parseAddresses(cfg.Registry.Minters, "registry.minters")
	if err != nil {
		return params, err
	}

	params.Admins = admins
	params.Minters = minters
	params.TransfersEnabled = cfg.Registry.TransfersEnabled
	return params, nil
}

func parseAddresses(values []string, field string) ([]types.Address, error) {
	addrs := make([]types.Address, 0, len(values))
	for i, v := range values {
		addr, err := types.ParseAddress(v)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// EnableGateway attaches a loaded authority signer so the daemon serves
// voucher issuance. Must be called before Start.
func (n *Node) EnableGateway(signer *gateway.Signer) {
	n.signer = signer
	if n.rpcServer != nil {
		n.rpcServer.SetGatewaySigner(signer)
	}
	n.logger.Info().
		Str("authority", signer.Address().String()).
		Msg("Gateway signing enabled")
}

// Start begins serving. It returns once the listeners are bound.
func (n *Node) Start() error {
	if n.rpcServer != nil {
		if err := n.rpcServer.Start(); err != nil {
			return fmt.Errorf("start rpc: %w", err)
		}
		n.logger.Info().Str("addr", n.rpcServer.Addr()).Msg("RPC server listening")
	}
	return nil
}

// Stop shuts the node down in reverse start order.
func (n *Node) Stop() {
	if n.rpcServer != nil {
		if err := n.rpcServer.Stop(); err != nil {
			n.logger.Error().Err(err).Msg("RPC shutdown error")
		}
	}
	if n.signer != nil {
		n.signer.Zero()
	}
	n.bus.Close()
	if err := n.db.Close(); err != nil {
		n.logger.Error().Err(err).Msg("Database close error")
	}
	n.logger.Info().Msg("Daemon stopped")
}

// Registry returns the underlying credential registry.
func (n *Node) Registry() *registry.Registry {
	return n.registry
}

// Bus returns the in-process event bus.
func (n *Node) Bus() *events.Bus {
	return n.bus
}

// RPCAddr returns the bound RPC address, or "" when RPC is disabled.
func (n *Node) RPCAddr() string {
	if n.rpcServer == nil {
		return ""
	}
	return n.rpcServer.Addr()
}
