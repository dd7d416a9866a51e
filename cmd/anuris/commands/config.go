package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	hostconfig "github.com/anuris/anuris/cmd/anuris/config"
	"github.com/anuris/anuris/internal/secrets"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the anuris configuration file",
		Long: `Manage the configuration stored at ~/.anuris_config.toml.

Examples:
  anuris config init
  anuris config show
  anuris config set-key
  anuris config key-status`,
	}
	cmd.AddCommand(
		newConfigInitCmd(),
		newConfigShowCmd(),
		newConfigSetKeyCmd(),
		newConfigDeleteKeyCmd(),
		newConfigKeyStatusCmd(),
	)
	return cmd
}

func resolveConfigPath(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	if path != "" {
		return path, nil
	}
	return hostconfig.Path()
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a default config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := resolveConfigPath(cmd)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists; edit it directly or remove it first", path)
			}
			if err := hostconfig.Save(path, hostconfig.Default()); err != nil {
				return err
			}
			fmt.Printf("Created %s\n", path)
			fmt.Println("Next: anuris config set-key")
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := resolveConfigPath(cmd)
			if err != nil {
				return err
			}
			cfg, err := hostconfig.Load(path)
			if err != nil {
				return err
			}
			fmt.Printf("# %s\n\n", path)
			fmt.Printf("model        = %q\n", cfg.Model)
			fmt.Printf("base_url     = %q\n", cfg.BaseURL)
			fmt.Printf("temperature  = %v\n", cfg.Temperature)
			fmt.Printf("reasoning    = %v\n", cfg.Reasoning)
			fmt.Printf("debug        = %v\n", cfg.Debug)
			if cfg.APIKey != "" {
				fmt.Println(`api_key      = "(set, use key-status to inspect)"`)
			} else {
				fmt.Println(`api_key      = "(not set in file)"`)
			}
			return nil
		},
	}
}

func newConfigSetKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-key",
		Short: "Store the API key in the OS keyring",
		Long: `Stores the API key in the operating system's native keyring so it
never needs to live in the config file or an environment variable.

The keyring is checked first, before any environment variable or the
config file, every time the key is resolved.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if !secrets.Available() {
				return fmt.Errorf("OS keyring is not available on this system")
			}

			if existing := secrets.Get(); existing != "" {
				fmt.Printf("An API key is already in the keyring (%s).\n", mask(existing))
				fmt.Print("Overwrite? (y/n) [n]: ")
				if !confirmYes() {
					fmt.Println("Cancelled.")
					return nil
				}
			}

			key, err := readSecretLine("Enter API key: ")
			if err != nil {
				return err
			}
			if key == "" {
				return fmt.Errorf("no key provided")
			}

			if err := secrets.Migrate(key); err != nil {
				return err
			}
			fmt.Println("API key stored in the OS keyring.")
			return nil
		},
	}
}

func newConfigDeleteKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-key",
		Short: "Remove the API key from the OS keyring",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := secrets.Delete(); err != nil {
				return fmt.Errorf("delete from keyring: %w", err)
			}
			fmt.Println("API key removed from the OS keyring.")
			return nil
		},
	}
}

func newConfigKeyStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "key-status",
		Short: "Show where the API key would be resolved from",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := resolveConfigPath(cmd)
			if err != nil {
				return err
			}
			cfg, err := hostconfig.Load(path)
			if err != nil {
				return err
			}

			fmt.Println("API key resolution order:")
			if secrets.Available() {
				if val := secrets.Get(); val != "" {
					fmt.Printf("  1. [OK] OS keyring: %s\n", mask(val))
				} else {
					fmt.Println("  1. [--] OS keyring: (not set)")
				}
			} else {
				fmt.Println("  1. [!!] OS keyring: (not available)")
			}
			fmt.Println("  2. [--] provider environment variable (ANURIS_API_KEY or e.g. OPENAI_API_KEY)")
			if cfg.APIKey != "" {
				fmt.Printf("  3. [OK] config file:  %s\n", mask(cfg.APIKey))
			} else {
				fmt.Println("  3. [--] config file:  (not set)")
			}
			return nil
		},
	}
}

func mask(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

func readSecretLine(prompt string) (string, error) {
	fmt.Print(prompt)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		data, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func confirmYes() bool {
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.ToLower(strings.TrimSpace(line)) == "y"
}
