package cmd

import (
	"github.com/ecoalerta/ecoalerta-api/config"
	"github.com/ecoalerta/ecoalerta-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string

	cfg *config.Config
}

// NewRootCommand creates the ecoalerta CLI. Running it without a
// subcommand starts the API server.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:          "ecoalerta",
		Short:        "EcoAlerta - denuncias de vertederos ilegales",
		Long:         "HTTP API to report, triage and map illegal dump sites.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigFile)
			if err != nil {
				return err
			}
			utils.InitLogger(cfg.LogFormat, cfg.LogLevel)
			if cfg.GinMode != "" {
				gin.SetMode(cfg.GinMode)
			}
			opts.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "config.yaml", "optional YAML config file")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewCreateUserCommand(opts))

	return cmd
}

// openDB connects with the loaded configuration.
func (o *RootOptions) openDB() (*gorm.DB, error) {
	return config.InitDB(o.cfg)
}
