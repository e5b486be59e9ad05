package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/picolog/cmd/picolog/internal/gateway"
	"github.com/tinyland-inc/picolog/cmd/picolog/internal/version"
)

func NewPicologCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "picolog",
		Short:   "picolog - Discord message audit-log bot",
		Example: "picolog gateway",
	}

	cmd.AddCommand(
		gateway.NewGatewayCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewPicologCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
