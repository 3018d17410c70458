package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anime-shed/waste-inspector-go/internal/catalog"
	"github.com/anime-shed/waste-inspector-go/internal/logger"
)

const envPrefix = "WASTECTL"

// NewRootCmd creates the wastectl command tree. Every flag can also be set
// through a WASTECTL_* environment variable or the --config YAML file.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "wastectl",
		Short: "Waste detection statistics from the command line",
		Long: `wastectl runs the waste detection statistics offline.

  wastectl summarize outputs.json        pixel summaries from raw inference outputs
  wastectl detect --task segmentation *.jpg
  wastectl catalog                       list the category catalog

Flags may also come from the environment, for example:
  WASTECTL_INFERENCE_URL
  WASTECTL_CATALOG
  WASTECTL_FORMAT`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "YAML config file")
	flags.String("catalog", "", "category catalog YAML file (default: built-in 37 categories)")
	flags.String("format", "json", "output format: json or table")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")

	cmd.AddCommand(newSummarizeCmd(v))
	cmd.AddCommand(newDetectCmd(v))
	cmd.AddCommand(newCatalogCmd(v))

	return cmd
}

func initConfig(v *viper.Viper, cmd *cobra.Command) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	switch format := v.GetString("format"); format {
	case formatJSON, formatTable:
	default:
		return fmt.Errorf("unsupported output format: %q", format)
	}

	logger.Logger.SetOutput(cmd.ErrOrStderr())
	logger.SetLevel(v.GetString("log-level"))
	return nil
}

func loadCatalog(v *viper.Viper) (*catalog.Catalog, error) {
	path := v.GetString("catalog")
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadFile(path)
}
