package cmd

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/adminkit/internal/app"
	cmdconfig "github.com/Iron-Ham/adminkit/internal/cmd/config"
	"github.com/Iron-Ham/adminkit/internal/config"
	"github.com/Iron-Ham/adminkit/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "adminkit",
	Short: "Admin dashboard runtime",
	Long: `Adminkit runs the admin dashboard runtime from the command line:
an event bus, a component tree rendered into an HTML document, and an API
client with request de-duplication, caching and retries.

Use 'fetch' to call the configured API and 'render' to draw a page layout
in the terminal.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/adminkit/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	cmdconfig.Register(rootCmd)
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix(config.EnvPrefix)
	// e.g., ADMINKIT_API_BASE_URL for api.base_url
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// newLogger builds the logger described by cfg.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.NewLogger(cfg.Logging.ResolveDir(), cfg.Logging.Level)
}

// newApp loads the configuration and builds the application context. The
// returned cleanup shuts the app down and closes the logger.
func newApp(opts ...app.Option) (*app.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.New(cfg, logger, opts...)
	if err != nil {
		_ = logger.Close()
		return nil, nil, err
	}
	cleanup := func() {
		_ = a.Shutdown()
		_ = logger.Close()
	}
	return a, cleanup, nil
}
