package cli

import (
	"fmt"

	"github.com/platkit-labs/platkit/internal/configxml"
	"github.com/spf13/cobra"
)

var (
	prepareConfig string
	prepareWWW    string
)

func init() {
	addProjectFlags(prepareCmd)
	prepareCmd.Flags().StringVar(&prepareConfig, "config", "", "Application config.xml to merge (required)")
	prepareCmd.Flags().StringVar(&prepareWWW, "www", "", "Web assets directory to copy into the project")
	_ = prepareCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(prepareCmd)
}

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Merge application config and copy web assets into a project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configxml.Load(prepareConfig)
		if err != nil {
			return fmt.Errorf("loading application config: %w", err)
		}
		p, err := openProject(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		p.SetConfig(cfg)

		if err := p.UpdateConfig(cmd.Context()); err != nil {
			return err
		}
		if prepareWWW != "" {
			if err := p.CopyWww(cmd.Context(), prepareWWW); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Prepared %s project at %s\n", p.Platform().Name(), p.Root())
		return nil
	},
}
