// Command mfctl manages moneyflow data from the terminal, against the same
// backend the server uses.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"moneyflow/internal/amqp"
	"moneyflow/internal/backend"
	"moneyflow/internal/cli"
	"moneyflow/internal/config"
	applog "moneyflow/internal/log"
	"moneyflow/internal/services"
	"moneyflow/internal/store"
)

func main() {
	cli.LoadEnvFile()
	if err := execute(context.Background(), os.Args[1:], os.Stdout, openConfigured); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// rootOptions are the persistent flags.
type rootOptions struct {
	dbPath   string
	currency string
	verbose  bool
}

// app is the opened backend with the services on top of it.
type app struct {
	txs    *services.TransactionService
	goals  *services.GoalService
	notes  *services.NoteService
	backup *services.BackupService
	close  func() error
}

type opener func(ctx context.Context, opts rootOptions) (*app, error)

func newApp(st store.Store, publisher services.BackupPublisher, backupCfg services.BackupConfig) *app {
	changes := services.NewChanges()
	return &app{
		txs:    services.NewTransactionService(st, changes),
		goals:  services.NewGoalService(st),
		notes:  services.NewNoteService(st),
		backup: services.NewBackupService(st, publisher, backupCfg, changes),
		close:  func() error { return nil },
	}
}

// openConfigured opens the backend named by the environment; --db forces
// SQLite at the given path.
func openConfigured(ctx context.Context, opts rootOptions) (*app, error) {
	cfg := config.Load()
	if opts.dbPath != "" {
		cfg.DataBackend = backend.SQLiteBackend.String()
		cfg.SQLiteDBPath = opts.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := applog.New(applog.Config{Level: level, Component: applog.ComponentApp, Output: os.Stderr})
	applog.SetDefault(logger)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", bcfg.Type, err)
	}
	if bcfg.Type == backend.MemoryBackend {
		logger.Warn("Using the memory backend; changes are lost when mfctl exits")
	}

	var client *amqp.Client
	if cfg.AMQPURL != "" {
		client = cli.ConnectAMQP(logger, cfg)
	}

	a := newApp(res.Store, cli.Publisher(client), cli.BackupConfig(cfg))
	a.close = func() error {
		if client != nil {
			_ = client.Close()
		}
		return res.Close()
	}
	return a, nil
}

// env carries the flags and the lazily opened app through the commands;
// calculators and tips never touch the store.
type env struct {
	opts rootOptions
	open opener
	out  io.Writer
	app  *app
}

func (e *env) services(ctx context.Context) (*app, error) {
	if e.app != nil {
		return e.app, nil
	}
	a, err := e.open(ctx, e.opts)
	if err != nil {
		return nil, err
	}
	e.app = a
	return a, nil
}

func (e *env) currency() string {
	if e.opts.currency != "" {
		return strings.ToUpper(e.opts.currency)
	}
	return config.Load().Currency
}

func (e *env) close() error {
	if e.app == nil {
		return nil
	}
	return e.app.close()
}

// execute runs one mfctl invocation and releases the backend afterwards.
func execute(ctx context.Context, args []string, out io.Writer, open opener) error {
	e := &env{open: open, out: out}
	root := newRootCmd(e)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)

	err := root.ExecuteContext(ctx)
	if cerr := e.close(); cerr != nil && err == nil {
		err = fmt.Errorf("close backend: %w", cerr)
	}
	return err
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "mfctl",
		Short: "Manage moneyflow transactions, goals, notes and backups",
		Long: `mfctl works on the same store as the moneyflow server.

The backend comes from DATA_BACKEND and friends (see .env); --db points
straight at a SQLite file instead.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&e.opts.dbPath, "db", "", "SQLite database file (overrides DATA_BACKEND)")
	root.PersistentFlags().StringVar(&e.opts.currency, "currency", "", "ISO currency for display (default $CURRENCY)")
	root.PersistentFlags().BoolVarP(&e.opts.verbose, "verbose", "v", false, "debug logging on stderr")

	root.AddCommand(
		newTxCmd(e),
		newStatsCmd(e),
		newGoalsCmd(e),
		newCalcCmd(e),
		newTipsCmd(e),
		newNotesCmd(e),
		newQuickCmd(e),
		newBackupCmd(e),
	)
	return root
}
