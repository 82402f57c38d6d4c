package cli

import (
	"fmt"

	"github.com/platkit-labs/platkit/internal/config"
	"github.com/platkit-labs/platkit/internal/project"
	"github.com/spf13/cobra"
)

var (
	createLink     bool
	createAddTests bool
)

func init() {
	createCmd.Flags().BoolVar(&createLink, "link", false, "Reference the platform template instead of copying it")
	createCmd.Flags().BoolVar(&createAddTests, "add-tests", false, "Also install each plugin's tests/ plugin")
	rootCmd.AddCommand(createCmd)
}

var createCmd = &cobra.Command{
	Use:   "create <project-file>",
	Short: "Create a platform project from a project file",
	Long: `Create a platform project: scaffold it from the template, add every plugin
found on the plugin search path, merge the application config and copy the web assets.

The project file is YAML:

  platform: ios
  paths:
    root: build/ios
    template: node_modules/platkit-ios
    www: app/www
    plugins: [plugins]
  config: app/config.xml

When paths.plugins is empty, plugin_search_path from the user config is used.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := project.LoadInfo(args[0])
		if err != nil {
			return err
		}
		if len(info.Paths.Plugins) == 0 {
			info.Paths.Plugins = config.SearchPaths()
		}
		info.Link = info.Link || createLink
		info.AddTests = info.AddTests || createAddTests

		p, err := newProject(cmd, info.Platform)
		if err != nil {
			return err
		}
		createErr := p.Create(cmd.Context(), info)
		if p.Stage() > project.Unopened {
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s project at %s with %d plugin(s)\n",
				info.Platform, p.Root(), len(p.Installed()))
		}
		return createErr
	},
}
