package cli

import (
	"os"

	"github.com/gear6io/sqllab/pkg/errors"
	"github.com/gear6io/sqllab/server/config"
	"github.com/gear6io/sqllab/server/paths"
	"github.com/gear6io/sqllab/server/sandbox"
	"github.com/spf13/cobra"
)

// ErrConfigExists is returned by init when a configuration is already there
var ErrConfigExists = errors.MustNewCode("cli.config_exists")

func createInitCommand(app *App) *cobra.Command {
	var (
		dir   string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the lab directory, configuration and seeded database",
		Long: `Initialize a lab directory (default: ~/.sqllab).

This command sets up:
- sqllab.yml configuration file
- database/sqllab.db, migrated and seeded with the sample company data`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			home := paths.Default()
			if dir != "" {
				home = paths.NewManager(dir)
			}

			cfgPath := home.GetConfigPath(config.DefaultConfigFile)
			if _, err := os.Stat(cfgPath); err == nil && !force {
				return errors.New(ErrConfigExists, "configuration already exists, use --force to overwrite", nil).
					AddContext("path", cfgPath)
			}

			if err := home.EnsureDirectoryStructure(); err != nil {
				return err
			}

			cfg := config.LoadDefaultConfig()
			cfg.Database.Path = home.GetDatabasePath()
			cfg.Log.FilePath = home.GetLogPath()
			if err := config.SaveConfig(cfg, cfgPath); err != nil {
				return err
			}

			sb, err := sandbox.Open(cmd.Context(), cfg.Database, app.logger)
			if err != nil {
				return err
			}
			defer sb.Close()

			tables, err := sb.Tables(cmd.Context())
			if err != nil {
				return err
			}

			app.printf("✅ Initialized sqllab in %s\n", home.GetBasePath())
			app.printf("   Config:   %s\n", cfgPath)
			app.printf("   Database: %s (%d tables)\n", cfg.Database.Path, len(tables))
			app.println("\nNext: sqllab tutorial list")
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "lab directory, defaults to ~/.sqllab")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing configuration")
	return cmd
}
