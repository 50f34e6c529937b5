package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"inspire-orcid/internal/config"
	"inspire-orcid/pkg/logger"
)

// RootOptions holds flags and collaborators shared by all commands.
type RootOptions struct {
	ConfigFile string
	Format     string

	Log logger.Logger
	// LoadConfig defaults to config.Load.
	LoadConfig func(log logger.Logger) (config.Config, error)
}

var validFormats = []string{"text", "json"}

func NewRootCommand(log logger.Logger) *cobra.Command {
	return newRootCommand(&RootOptions{Log: log, LoadConfig: config.Load})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspire-orcid",
		Short: "Push literature records to ORCID",
		Long: `Push literature records to researchers' ORCID works.

Each push creates or updates one work per (orcid, recid), remembering the
putcode and the pushed content so unchanged records are not sent again.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			if opts.ConfigFile != "" {
				return os.Setenv("CONFIG_FILE", opts.ConfigFile)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "YAML config file (overrides CONFIG_FILE)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewPushCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewLoadRecordCommand(opts))

	return cmd
}

func (o *RootOptions) config() (config.Config, error) {
	cfg, err := o.LoadConfig(o.Log)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func isValidFormat(format string) bool {
	for _, f := range validFormats {
		if f == format {
			return true
		}
	}
	return false
}
