package main

import (
	"flag"
	"os"
	"path/filepath"

	"stakevault/config"
	"stakevault/core"
	"stakevault/core/events"
	"stakevault/crypto"
	"stakevault/observability/logging"
	"stakevault/rpc"
	"stakevault/storage"
)

var genesisMarkerKey = []byte("stakevault/genesis-applied")

func main() {
	configPath := flag.String("config", "./config.toml", "path to the TOML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Setup("stakevaultd", "").Error("failed to load config", "path", *configPath, "err", err)
		os.Exit(1)
	}

	logger := logging.Setup("stakevaultd", cfg.Env)
	logger.Info("loaded configuration", "network", cfg.NetworkName, "rpc", cfg.RPCAddress)

	owner, err := cfg.OwnerAddress()
	if err != nil {
		logger.Error("invalid owner address", "err", err)
		os.Exit(1)
	}
	vault, err := cfg.VaultAddress()
	if err != nil {
		logger.Error("invalid vault address", "err", err)
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "vault"))
	if err != nil {
		logger.Error("failed to open database", "dir", cfg.DataDir, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	node, err := core.NewNode(db, vault, owner, events.NewLogEmitter(logger))
	if err != nil {
		logger.Error("failed to initialise node", "err", err)
		os.Exit(1)
	}

	if err := applyGenesis(cfg, node, db); err != nil {
		logger.Error("failed to apply genesis allocations", "err", err)
		os.Exit(1)
	}

	logger.Info("vault ready",
		"owner", crypto.NewAddress(owner[:]).String(),
		"vault", crypto.NewAddress(vault[:]).String(),
	)

	server := rpc.NewServer(node, logger)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server stopped", "err", err)
		os.Exit(1)
	}
}

// applyGenesis mints the configured allocations exactly once per database.
func applyGenesis(cfg *config.Config, node *core.Node, db storage.Database) error {
	applied, err := db.Has(genesisMarkerKey)
	if err != nil {
		return err
	}
	if applied {
		return nil
	}
	for _, alloc := range cfg.Genesis.Alloc {
		addr, err := crypto.DecodeAddress(alloc.Address)
		if err != nil {
			return err
		}
		amount, err := alloc.AllocationAmount()
		if err != nil {
			return err
		}
		if err := node.TokenMint(addr.Raw(), amount); err != nil {
			return err
		}
	}
	return db.Put(genesisMarkerKey, []byte{1})
}
