package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AcidicSoil/fast-rlm/pkg/rlm/config"
	"github.com/AcidicSoil/fast-rlm/pkg/rlm/provider"
)

// newSmokeCmd creates the `rlm smoke` command: a proxy health check that
// validates the endpoint config, lists the catalog, and resolves the model
// pair without issuing a chat completion.
func newSmokeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Check proxy reachability and model resolution",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()

			if configPath == "" {
				configPath = config.FindConfigFile()
			}
			var cfg *config.Config
			if configPath != "" {
				loaded, err := config.LoadFromFile(configPath, logger)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			getenv := config.EnvWithKeyring(os.Getenv)
			result, err := provider.Smoke(cmd.Context(), cfg, getenv, logger)
			if err != nil {
				return redactErr(err, getenv("RLM_MODEL_API_KEY"))
			}

			fmt.Printf("proxy:    %s\n", result.BaseURL)
			fmt.Printf("models:   %d available\n", result.CatalogSize)
			fmt.Printf("primary:  %s\n", result.PrimaryAgent)
			fmt.Printf("sub:      %s\n", result.SubAgent)
			fmt.Printf("latency:  %s\n", result.Elapsed.Round(time.Millisecond))
			for _, warning := range result.Warnings {
				fmt.Println("warning:  " + warning)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path")
	return cmd
}
