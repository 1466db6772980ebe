package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Use-Tusk/redirect-check/internal/cliconfig"
	"github.com/Use-Tusk/redirect-check/internal/tui/components"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Get and set CLI configuration options",
	Long: `Get and set CLI configuration options.

Configuration is stored in ~/.config/redirect-check/cli.json

Available configuration keys:
  darkMode     Dark mode for terminal output (true/false/auto)

Examples:
  redirect-check config get darkMode         # Show current dark mode setting
  redirect-check config set darkMode true    # Enable dark mode
  redirect-check config set darkMode auto    # Detect from the terminal
  redirect-check config set darkMode         # Pick interactively`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cliconfig.Load()
		if err != nil {
			return err
		}
		value, err := cfg.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Set a configuration value",
	Long: `Set the value of a configuration key. Without a value, an interactive
selector is shown.

Available keys and values:
  darkMode     true/false/auto    Dark mode for terminal output`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		cfg, err := cliconfig.Load()
		if err != nil {
			return err
		}

		var value string
		if len(args) == 2 {
			value = args[1]
		} else {
			current, err := cfg.Get(key)
			if err != nil {
				return err
			}
			selected, err := components.RunSelector("Select "+key, []components.SelectorOption{
				{ID: "auto", Label: "Detect from terminal"},
				{ID: "true", Label: "Dark"},
				{ID: "false", Label: "Light"},
			}, current)
			if err != nil {
				return err
			}
			if selected == nil {
				return nil
			}
			value = selected.ID
		}

		if err := cfg.Set(key, value); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		shown, _ := cfg.Get(key)
		fmt.Printf("%s = %s\n", key, shown)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
