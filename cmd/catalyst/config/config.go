// Package configcmder provides the config command for managing persistent
// catalyst configuration stored in the .catalyst/ directory.
package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/catalyst/pkg/cliui"
	"github.com/papercomputeco/catalyst/pkg/config"
)

const configLongDesc string = `Manage persistent catalyst configuration.

Configuration is stored as config.toml in the .catalyst/ directory and
provides default values for command flags. CLI flags and CATALYST_*
environment variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  storage.sqlite_path, storage.postgres_dsn,
  llm.provider, llm.upstream, llm.model, llm.api_key_env,
  api.listen, api.max_tokens,
  client.api_target, client.timeout, client.participant,
  events.kafka_brokers, events.kafka_topic

Use subcommands to get, set, or list configuration values:
  catalyst config set <key> <value>    Set a configuration value
  catalyst config get <key>            Get a configuration value
  catalyst config list                 List all configuration values

Examples:
  catalyst config set llm.provider ollama
  catalyst config set client.timeout 2m
  catalyst config get llm.model
  catalyst config list`

const configShortDesc string = "Manage persistent catalyst configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func validateKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func printTarget(cmd *cobra.Command, target string) {
	out := cmd.OutOrStdout()
	if target != "" {
		fmt.Fprintf(out, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
