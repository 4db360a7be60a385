package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sirosfoundation/go-ehms-backend/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect server configuration",
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration",
	Long: `Load the configuration file and EHMS_* environment exactly as the
server does, validate it and print the effective settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("configuration invalid: %w", err)
		}

		printTable(cmd.OutOrStdout(), []string{"SETTING", "VALUE"}, configSummary(cfg))
		return nil
	},
}

// configSummary lists the settings an operator usually needs to confirm.
// Secrets are never printed.
func configSummary(cfg *config.Config) [][]string {
	realtime := "disabled"
	if cfg.Realtime.Enabled {
		realtime = cfg.Realtime.Path
	}
	return [][]string{
		{"listen", cfg.Server.Address()},
		{"base_path", cfg.Server.BasePath},
		{"temp_dir", cfg.Server.TempDir},
		{"storage", cfg.Storage.Type},
		{"schema_sync", strconv.FormatBool(cfg.Storage.SchemaSync)},
		{"schema_sync_failure", cfg.Storage.SchemaSyncFailure},
		{"jwt_issuer", cfg.JWT.Issuer},
		{"jwt_expiry_hours", strconv.Itoa(cfg.JWT.ExpiryHours)},
		{"realtime", realtime},
		{"log_level", cfg.Logging.Level},
	}
}

func init() {
	configCmd.AddCommand(configCheckCmd)
}
