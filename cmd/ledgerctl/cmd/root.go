// Package cmd provides the ledgerctl commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/SscSPs/municipal_tax_ledger/internal/adapters/cache"
	"github.com/SscSPs/municipal_tax_ledger/internal/adapters/database/memory"
	"github.com/SscSPs/municipal_tax_ledger/internal/adapters/database/pgsql"
	"github.com/SscSPs/municipal_tax_ledger/internal/adapters/events"
	"github.com/SscSPs/municipal_tax_ledger/internal/adapters/gateway"
	portsrepo "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/services"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/services"
	"github.com/SscSPs/municipal_tax_ledger/internal/platform/config"
	"github.com/SscSPs/municipal_tax_ledger/internal/platform/logging"
	"github.com/SscSPs/municipal_tax_ledger/pkg/database"
)

var (
	storeFlag  string
	tenantFlag string
	actorFlag  string
	debug      bool

	cfg    *config.Config
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Operate the municipal tax ledger",
	Long: `ledgerctl drives the double-entry tax ledger: it seeds charts of accounts,
posts assessments, payments and refunds to the filer and municipality books,
and reports trial balances and reconciliations.

Configuration comes from the environment or a .env file (PGSQL_URL, STORE,
DB_MAX_CONNS, REDIS_ADDR, IDEMPOTENCY_TTL, LOG_LEVEL, ...).

Example:
  ledgerctl migrate
  ledgerctl seed-chart --tenant springfield
  ledgerctl assess --filer filer-42 --return ret-1 --tax 1000 --penalty 100
  ledgerctl trial-balance --period Q1 --year 2024`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if cmd.Flags().Changed("store") {
			cfg.Store = storeFlag
		}
		if actorFlag == "" {
			actorFlag = cfg.DefaultActor
		}

		level := cfg.LogLevel
		if debug {
			level = "debug"
		}
		logger = logging.New(os.Stderr, level)
		slog.SetDefault(logger)
		cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", config.StorePostgres, "storage backend: postgres or memory")
	rootCmd.PersistentFlags().StringVar(&tenantFlag, "tenant", "", "tenant (municipality) identifier")
	rootCmd.PersistentFlags().StringVar(&actorFlag, "actor", "", "user recorded as the actor (default DEFAULT_ACTOR)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// app is the wired ledger for one command invocation.
type app struct {
	svc      *portssvc.ServiceContainer
	recorder *events.Recorder
	closers  []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// openApp wires the configured store, Redis (when REDIS_ADDR is set) and the
// mock gateway into a service container.
func openApp(ctx context.Context) (*app, error) {
	a := &app{}

	var repos portsrepo.RepositoryProvider
	switch cfg.Store {
	case config.StoreMemory:
		repos = memory.NewRepositoryProvider(memory.NewStore())
	case config.StorePostgres:
		pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, database.PoolOptions{
			MaxConns:        cfg.DBMaxConns,
			MinConns:        cfg.DBMinConns,
			ConnectTimeout:  cfg.DBConnectTimeout,
			ApplicationName: "ledgerctl",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database pool: %w", err)
		}
		a.closers = append(a.closers, func() { database.ClosePgxPool(pool) })
		repos = pgsql.NewRepositoryProvider(pool)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	collab := services.Collaborators{Gateway: gateway.NewMockGateway()}
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		collab.Idempotency = cache.NewRedisIdempotencyStore(rdb, "")
		collab.Publisher = events.NewRedisPublisher(rdb, cfg.EventsChannel)
	} else {
		a.recorder = events.NewRecorder()
		collab.Idempotency = cache.NewInMemoryIdempotencyStore()
		collab.Publisher = a.recorder
	}

	a.svc = services.NewServiceContainer(cfg, repos, collab)
	logger.Debug("Ledger wired",
		slog.String("store", cfg.Store),
		slog.Bool("redis", cfg.RedisAddr != ""))
	return a, nil
}

// withApp opens the ledger for the duration of run.
func withApp(cmd *cobra.Command, run func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return run(ctx, a)
}

func requireTenant() (string, error) {
	if tenantFlag == "" {
		return "", errors.New("--tenant is required")
	}
	return tenantFlag, nil
}
