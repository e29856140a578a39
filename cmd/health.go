package cmd

import (
	"github.com/spf13/cobra"

	"github.com/user20357/screensage-cloud/internal/api"
	"github.com/user20357/screensage-cloud/internal/output"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend availability",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	client := api.New(cfg.BaseURL, cfg.RequestTimeout)
	health, err := client.HealthCheck(cmd.Context())
	if err != nil {
		return err
	}
	return output.Print(health)
}
