package main

import (
	"context"
	"os"

	"github.com/nocturnelabs/vaultdesk/internal/chains"
	"github.com/nocturnelabs/vaultdesk/internal/config"
	"github.com/nocturnelabs/vaultdesk/internal/handlers/cli"
	"github.com/nocturnelabs/vaultdesk/internal/identity"
	"github.com/nocturnelabs/vaultdesk/internal/infra/blockchain/ethereum"
	"github.com/nocturnelabs/vaultdesk/internal/infra/identity/webapi"
	"github.com/nocturnelabs/vaultdesk/internal/infra/storage/redis"
	"github.com/nocturnelabs/vaultdesk/internal/infra/wallet/noderpc"
	"github.com/nocturnelabs/vaultdesk/internal/pkg/logger"
	"github.com/nocturnelabs/vaultdesk/internal/pkg/telemetry"
	transporthttp "github.com/nocturnelabs/vaultdesk/internal/pkg/transport/http"
	"github.com/nocturnelabs/vaultdesk/internal/transfer"
	"github.com/nocturnelabs/vaultdesk/internal/vaultbook"
	"github.com/nocturnelabs/vaultdesk/internal/vaultsync"
	"github.com/nocturnelabs/vaultdesk/internal/wallet"
)

// transitionChannelBufferSize keeps transfer execution from waiting on a slow
// progress renderer.
const transitionChannelBufferSize = 8

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("loading configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	if cfg.TelemetryEnabled {
		shutdown, err := telemetry.Init(ctx, "vaultdesk")
		if err != nil {
			os.Stderr.WriteString("initializing telemetry: " + err.Error() + "\n")
			os.Exit(1)
		}
		defer shutdown(ctx)
	}

	if err := logger.Init(logger.WithLevel(cfg.LogLevel)); err != nil {
		os.Stderr.WriteString("initializing logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	registry, err := chains.Default(cfg.BaseRPCURL, cfg.BaseSepoliaRPCURL)
	if err != nil {
		logger.Fatal(ctx, "building chain registry", "error", err)
	}

	storage, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal(ctx, "connecting to redis", "error", err)
	}
	defer storage.Close()

	httpClient := transporthttp.NewClient().StandardClient()

	var (
		session  = noderpc.NewSession(cfg.SignerAddress)
		provider = noderpc.NewProvider(httpClient, cfg.WalletProviderURL)
		gateway  = wallet.NewGateway(session, provider)

		vaultClients = ethereum.NewVaultClientFactory()
		assetClient  = ethereum.NewAssetClient()
		operations   = ethereum.NewOperationClientFactory(httpClient)

		resolver = webapi.NewClient(httpClient, cfg.IdentityResolverURL)

		transitionCh = make(chan transfer.Transition, transitionChannelBufferSize)
	)

	svcs := cli.Services{
		Chains:       registry,
		Vaults:       vaultbook.New(storage),
		Gateway:      gateway,
		Synchronizer: vaultsync.New(registry, vaultClients, assetClient),
		Identities:   identity.New(resolver),
		Transfers: transfer.New(registry, assetClient, vaultClients, operations,
			transfer.WithReceiptPollInterval(cfg.ReceiptPollInterval),
			transfer.WithTransitionChannel(transitionCh),
		),
		Transitions: transitionCh,
	}

	if err := cli.Run(ctx, svcs); err != nil {
		logger.Fatal(ctx, "vaultdesk exited with error", "error", err)
	}
}
