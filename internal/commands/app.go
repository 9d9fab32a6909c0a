// Package commands holds the picmon command line.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"picmon/internal/config"
	"picmon/internal/logging"
)

const AppName = "picmon"

// Version is overridden with -ldflags "-X picmon/internal/commands.Version=...".
var Version = "dev"

// App represents the application.
type App struct {
	cmd   *cobra.Command
	viper *viper.Viper

	configPath string
	cfg        config.Config
	logger     *slog.Logger
}

// New creates the root command with every subcommand installed.
func New() (*App, error) {
	a := App{viper: config.NewViper()}

	a.cmd = &cobra.Command{
		Use:           AppName,
		Short:         "PIC monitoring dashboard",
		Long:          "picmon subscribes to the PIC weighing feed and serves a live dashboard with recent history.",
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Command parsing has been successful. Returns to not print usage anymore.
			a.cmd.SilenceUsage = true
			return a.loadConfig()
		},
	}
	a.cmd.CompletionOptions.HiddenDefaultCmd = true

	flags := a.cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "path to a config file (yaml, json or toml)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("app-env", "", "environment: dev or prod")
	flags.String("transport", "", "live feed transport: stomp, mqtt or amqp")
	if err := a.bindFlags(flags, map[string]string{
		"log_level": "log-level",
		"app_env":   "app-env",
		"transport": "transport",
	}); err != nil {
		return nil, err
	}

	if err := a.installServe(); err != nil {
		return nil, err
	}
	a.installMigrate()
	if err := a.installSimulate(); err != nil {
		return nil, err
	}
	a.installVersion()

	return &a, nil
}

func (a *App) loadConfig() error {
	if err := config.ReadConfigFile(AppName, a.configPath, a.viper); err != nil {
		return err
	}
	cfg, err := config.Load(a.viper)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	a.cfg = cfg
	a.logger = logging.New(cfg, Version, AppName)
	slog.SetDefault(a.logger)
	return nil
}

// bindFlags maps config keys to flag names so an explicitly set flag wins
// over the environment and the config file.
func (a *App) bindFlags(fs *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		if err := a.viper.BindPFlag(key, fs.Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Run executes the command tree.
func (a *App) Run(ctx context.Context) error {
	return a.cmd.ExecuteContext(ctx)
}

// UsageError returns if the error is a command parsing or runtime one.
func (a App) UsageError() bool {
	return !a.cmd.SilenceUsage
}
