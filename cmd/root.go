// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dorkbuilder/internal/config"
	"github.com/xkilldash9x/dorkbuilder/internal/observability"
	"github.com/xkilldash9x/dorkbuilder/internal/service"
)

// contextKey keeps our context values from colliding with other packages.
type contextKey string

const configKey contextKey = "config"

// NewRootCommand builds the production command tree.
func NewRootCommand() *cobra.Command {
	return newRootCmd(service.NewComponentFactory())
}

// newRootCmd builds the command tree around factory. Tests pass a factory
// backed by an in-memory store.
func newRootCmd(factory service.ComponentFactory) *cobra.Command {
	var (
		cfgFile      string
		storeBackend string
		ephemeral    bool
	)

	rootCmd := &cobra.Command{
		Use:   "dorkbuilder",
		Short: "Compose search engine dork queries from reusable blocks.",
		Long: `dorkbuilder assembles advanced search queries ("dorks") from operator blocks
such as site:, filetype: and intitle:, turns them into search engine URLs and
imports ready-made dorks from the Google Hacking Database.

Run without arguments to start an interactive shell.`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			// 1. Initialize configuration loading
			if err := initializeConfig(v, cfgFile); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			// 2. Create the configuration object from viper.
			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "dorkbuilder"})
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			// 3. Apply flag overrides.
			if err := applyStoreOverrides(cfg, storeBackend, ephemeral); err != nil {
				return err
			}

			// 4. Initialize the logger with the loaded config.
			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Starting dorkbuilder", zap.String("version", Version))

			// 5. Store the validated config in the command's context for subcommands.
			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withComponents(cmd, factory, func(c *service.Components) error {
				return newShell(c, cmd.InOrStdin(), cmd.OutOrStdout()).Run(cmd.Context())
			})
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "", "override store.backend (file, sqlite, postgres, memory)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep everything in memory for this run")
	rootCmd.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)

	rootCmd.AddCommand(
		newBuildCmd(factory),
		newBlocksCmd(factory),
		newCustomCmd(factory),
		newGHDBCmd(factory),
		newHistoryCmd(factory),
		newEnginesCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command with ctx and reports a failure on stderr.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		observability.GetLogger().Debug("Command execution failed", zap.Error(err))
	}
	observability.Sync()
	return err
}

// initializeConfig reads in config file and ENV variables if set.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("DORKBUILDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars
	}
	return nil
}

func applyStoreOverrides(cfg *config.Config, backend string, ephemeral bool) error {
	switch {
	case ephemeral:
		cfg.SetStoreBackend(config.BackendMemory)
	case backend != "":
		cfg.SetStoreBackend(backend)
	default:
		return nil
	}
	st := cfg.Store()
	if err := st.Validate(); err != nil {
		return fmt.Errorf("invalid --store override: %w", err)
	}
	return nil
}

// getConfigFromContext returns the config stored by PersistentPreRunE.
func getConfigFromContext(ctx context.Context) (config.Interface, error) {
	cfg, ok := ctx.Value(configKey).(config.Interface)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not found in context")
	}
	return cfg, nil
}

// withComponents creates the components for one command, runs fn and shuts
// the components down.
func withComponents(cmd *cobra.Command, factory service.ComponentFactory, fn func(*service.Components) error) error {
	ctx := cmd.Context()
	cfg, err := getConfigFromContext(ctx)
	if err != nil {
		return err
	}
	components, err := factory.Create(ctx, cfg, observability.GetLogger())
	if err != nil {
		return err
	}
	defer components.Shutdown()
	return fn(components)
}
