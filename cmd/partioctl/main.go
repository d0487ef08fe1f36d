package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/simaogato/partio-backend/internal/logging"
)

var version = "dev"

// app carries the state shared by every command
type app struct {
	cfgFile string
	v       *viper.Viper
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "partioctl",
		Short: "Shared expense splitting from the command line",
		Long: `partioctl splits expenses, evaluates YAML ledgers offline and
queries a running partio ledger server.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.initConfig,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: $HOME/.config/partio/partioctl.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("currency", "USD", "currency code")

	// Bind flags to viper
	_ = a.v.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = a.v.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = a.v.BindPFlag("currency", rootCmd.PersistentFlags().Lookup("currency"))

	// Add commands
	rootCmd.AddCommand(a.splitCmd())
	rootCmd.AddCommand(a.balancesCmd())
	rootCmd.AddCommand(a.settleCmd())
	rootCmd.AddCommand(a.formatCmd())
	rootCmd.AddCommand(a.parseCmd())
	rootCmd.AddCommand(a.remoteCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) initConfig(_ *cobra.Command, _ []string) error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			a.v.AddConfigPath(fmt.Sprintf("%s/.config/partio", home))
		}
		a.v.AddConfigPath(".")
		a.v.SetConfigName("partioctl")
		a.v.SetConfigType("yaml")
	}

	// Environment variables
	a.v.SetEnvPrefix("PARTIO")
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	return a.setupLogging()
}

func (a *app) setupLogging() error {
	logger, err := logging.New(a.v.GetString("logging.level"), a.v.GetString("logging.format"))
	if err != nil {
		return err
	}

	a.logger = logger
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "partioctl %s\n", version)
		},
	}
}
