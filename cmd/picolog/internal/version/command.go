package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/picolog/cmd/picolog/internal"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the picolog version",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("picolog %s\n", internal.FormatVersion())
		},
	}
}
