package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AcidicSoil/fast-rlm/pkg/rlm/config"
	"github.com/AcidicSoil/fast-rlm/pkg/rlm/rlmerr"
)

// newConfigCmd creates the `rlm config` command.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage driver configuration",
		Long: `Manage rlm configuration.

Examples:
  rlm config init
  rlm config show
  rlm config validate
  rlm config set-key`,
	}

	cmd.AddCommand(
		newConfigInitCmd(),
		newConfigShowCmd(),
		newConfigValidateCmd(),
		newConfigSetKeyCmd(),
		newConfigDeleteKeyCmd(),
		newConfigKeyStatusCmd(),
	)

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a default rlm.yaml",
		RunE: func(_ *cobra.Command, _ []string) error {
			target := "rlm.yaml"
			if _, err := os.Stat(target); err == nil {
				return rlmerr.New(rlmerr.KindUsage, "rlm.yaml already exists; remove it first or edit it directly")
			}

			if err := config.SaveToFile(config.DefaultConfig(), target); err != nil {
				return err
			}

			fmt.Printf("Created %s with default configuration.\n", target)
			fmt.Println("\nNext steps:")
			fmt.Println("  1. export RLM_MODEL_BASE_URL=https://your-proxy/v1")
			fmt.Println("  2. rlm config set-key   (or export RLM_MODEL_API_KEY)")
			fmt.Println("  3. rlm smoke")
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(_ *cobra.Command, _ []string) error {
			path := config.FindConfigFile()
			cfg := config.DefaultConfig()
			if path != "" {
				loaded, err := config.LoadFromFile(path, newLogger())
				if err != nil {
					return err
				}
				cfg = loaded
				fmt.Printf("# %s\n", path)
			} else {
				fmt.Println("# built-in defaults (no config file found)")
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(_ *cobra.Command, _ []string) error {
			path := config.FindConfigFile()
			if path == "" {
				fmt.Println("No config file found; defaults apply.")
				return nil
			}
			if _, err := config.LoadFromFile(path, newLogger()); err != nil {
				return err
			}
			fmt.Printf("%s is valid.\n", path)
			return nil
		},
	}
}

func newConfigSetKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-key",
		Short: "Store the proxy API key in the OS keyring",
		RunE: func(_ *cobra.Command, _ []string) error {
			if !config.KeyringAvailable() {
				return rlmerr.New(rlmerr.KindConfig, "OS keyring is not available; set RLM_MODEL_API_KEY instead")
			}

			fmt.Print("API key (input is not hidden): ")
			reader := bufio.NewReader(os.Stdin)
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("reading key: %w", err)
			}
			key := strings.TrimSpace(line)
			if key == "" {
				return rlmerr.New(rlmerr.KindUsage, "empty key")
			}

			if err := config.StoreKeyring(config.KeyringAPIKey, key); err != nil {
				return rlmerr.Wrap(rlmerr.KindConfig, err)
			}
			fmt.Println("API key stored in the OS keyring.")
			return nil
		},
	}
}

func newConfigDeleteKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-key",
		Short: "Remove the proxy API key from the OS keyring",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := config.DeleteKeyring(config.KeyringAPIKey); err != nil {
				return rlmerr.New(rlmerr.KindConfig, "no key stored: %v", err)
			}
			fmt.Println("API key removed from the OS keyring.")
			return nil
		},
	}
}

func newConfigKeyStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "key-status",
		Short: "Show where the API key resolves from",
		RunE: func(_ *cobra.Command, _ []string) error {
			switch {
			case config.GetKeyring(config.KeyringAPIKey) != "":
				fmt.Println("API key: OS keyring")
			case os.Getenv("RLM_MODEL_API_KEY") != "":
				fmt.Println("API key: RLM_MODEL_API_KEY environment variable")
			default:
				fmt.Println("API key: not configured")
			}
			return nil
		},
	}
}
