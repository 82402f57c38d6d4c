package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var stateJSON bool

func init() {
	addProjectFlags(stateCmd)
	stateCmd.Flags().BoolVar(&stateJSON, "json", false, "Print the raw state document")
	rootCmd.AddCommand(stateCmd)
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the config munge and installed plugins of a project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		st := p.State()

		if stateJSON {
			data, err := json.MarshalIndent(st, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "PLUGIN\tVERSION")
		for _, ip := range st.InstalledPlugins {
			fmt.Fprintf(w, "%s\t%s\n", ip.ID, ip.Version)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "FILE\tPARENT\tCOUNT\tXML")
		for _, file := range st.Munge.FileNames() {
			for _, sel := range st.Munge.Selectors(file) {
				for _, e := range st.Munge.Entries(file, sel) {
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", file, sel, e.Count, e.XML)
				}
			}
		}
		return w.Flush()
	},
}
