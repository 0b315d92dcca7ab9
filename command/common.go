package command

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/frantjc/fwsym"
	xslice "github.com/frantjc/x/slice"
	"github.com/spf13/cobra"
)

// SetCommon sets the flags, logger and version that every command shares.
func SetCommon(cmd *cobra.Command, version string) *cobra.Command {
	var verbosity int
	cmd.PersistentFlags().CountVarP(&verbosity, "verbose", "V", fmt.Sprintf("Verbosity for %s.", cmd.Name()))
	cmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if verbose := os.Getenv("FWSYM_VERBOSE"); verbose != "" && verbosity == 0 && xslice.Some([]string{"1", "y", "yes", "true", "t"}, func(s string, _ int) bool {
			return strings.EqualFold(s, verbose)
		}) {
			verbosity = 2
		}

		cmd.SetContext(fwsym.WithLogger(cmd.Context(), fwsym.NewLogger(cmd.ErrOrStderr(), verbosity)))
	}

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	cmd.Version = version
	cmd.SetVersionTemplate("{{ .Name }}{{ .Version }} " + runtime.Version() + "\n")

	return cmd
}
