package cli

import (
	"context"

	"github.com/platkit-labs/platkit/internal/project"
	"github.com/spf13/cobra"
)

func init() {
	for _, cmd := range []*cobra.Command{buildCmd, runCmd, emulateCmd} {
		addProjectFlags(cmd)
		rootCmd.AddCommand(cmd)
	}
}

// nativeScript returns a RunE that opens the project and runs one of its
// platform scripts. Script output streams straight to the terminal.
func nativeScript(run func(*project.Project, context.Context) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		p, err := openProject(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		return run(p, cmd.Context())
	}
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the platform project with its cordova/build script",
	Args:  cobra.NoArgs,
	RunE:  nativeScript((*project.Project).Build),
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the app on a device with the cordova/run script",
	Args:  cobra.NoArgs,
	RunE:  nativeScript((*project.Project).Run),
}

var emulateCmd = &cobra.Command{
	Use:   "emulate",
	Short: "Run the app in an emulator",
	Args:  cobra.NoArgs,
	RunE:  nativeScript((*project.Project).Emulate),
}
