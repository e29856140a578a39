package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user20357/screensage-cloud/internal/config"
	"github.com/user20357/screensage-cloud/internal/output"
	"github.com/user20357/screensage-cloud/internal/version"
)

// cfg is loaded by the persistent pre-run and shared by all commands.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "screensage",
	Short: "Analyze screen captures and run automation tasks",
	Long:  "A CLI client for the ScreenSage backend: submit screen images for AI analysis and turn suggested actions into trackable automation tasks.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().String("base-url", "", "Backend base URL (overrides config)")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format, _ := rootCmd.PersistentFlags().GetString("format")
		switch format {
		case "yaml":
			output.OutputFormat = output.FormatYAML
		case "json":
			output.OutputFormat = output.FormatJSON
		default:
			return fmt.Errorf("unsupported format: %s (use yaml or json)", format)
		}
		if prettyFlag := cmd.Flags().Lookup("pretty"); prettyFlag != nil {
			if pretty, err := cmd.Flags().GetBool("pretty"); err == nil && pretty {
				output.PrettyOutput = true
			}
		}

		configPath, _ := rootCmd.PersistentFlags().GetString("config")
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if baseURL, _ := rootCmd.PersistentFlags().GetString("base-url"); baseURL != "" {
			loaded.BaseURL = baseURL
		}
		cfg = loaded
		return nil
	}
}
