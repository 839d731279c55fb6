// Package catalystcmder
package catalystcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/catalyst/cmd/catalyst/config"
	historycmder "github.com/papercomputeco/catalyst/cmd/catalyst/history"
	initcmder "github.com/papercomputeco/catalyst/cmd/catalyst/init"
	runcmder "github.com/papercomputeco/catalyst/cmd/catalyst/run"
	servecmder "github.com/papercomputeco/catalyst/cmd/catalyst/serve"
	versioncmder "github.com/papercomputeco/catalyst/cmd/version"
)

const catalystLongDesc string = `Catalyst runs AI assisted facilitation workshops.

A workshop takes a team from a problem statement through 5F brainstorming,
reflection and an action plan, ending in a streamed summary report.

Run the backend and a workshop using:
  catalyst serve      Run the backend API
  catalyst run        Run an interactive workshop
  catalyst history    Browse saved workshops`

const catalystShortDesc string = "Catalyst - AI facilitation workshops"

func NewCatalystCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "catalyst",
		Short:        catalystShortDesc,
		Long:         catalystLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .catalyst directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(runcmder.NewRunCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
