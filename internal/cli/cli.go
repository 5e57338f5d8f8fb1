// Package cli provides the todo command line: serving the API and
// migrating its database.
package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/adanyl0v/go-todo-api/internal/app"
)

const (
	ExitSuccess = 0
	ExitFailure = 1
)

type CLI struct {
	rootCmd *cobra.Command
	logger  zerolog.Logger
}

func New() *CLI {
	c := &CLI{logger: app.NewDefaultLogger()}
	c.rootCmd = c.newRootCmd()
	return c
}

// Execute runs the command selected by os.Args and returns the exit code.
func (c *CLI) Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := c.rootCmd.ExecuteContext(ctx)
	if err != nil {
		c.logger.Error().
			Err(err).
			Msg("command failed")
		return ExitFailure
	}
	return ExitSuccess
}

func (c *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "todo",
		Short: "To-do list CRUD API",
		Long: `A To-do list API over HTTP.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(c.newServeCmd())
	cmd.AddCommand(c.newMigrateCmd())
	return cmd
}

func (c *CLI) newServeCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Migrate the database and serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if !skipMigrations {
				err = a.Migrate(cmd.Context())
				if err != nil {
					return err
				}
			}

			return a.ListenAndServeHTTP(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "don't apply pending migrations on startup")
	return cmd
}

func (c *CLI) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Migrate(cmd.Context())
		},
	}
}

// setup reads the config, switches to the application logger and
// connects the storage.
func (c *CLI) setup(ctx context.Context) (*app.App, error) {
	cfg, err := app.ReadConfig(c.logger)
	if err != nil {
		return nil, err
	}

	c.logger, err = app.NewApplicationLogger(c.logger, cfg.Env)
	if err != nil {
		return nil, err
	}

	a := app.New(cfg, c.logger)
	err = a.ConnectStorage(ctx)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// SetArgs overrides os.Args[1:], for tests.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}
