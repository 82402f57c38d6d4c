package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/platkit-labs/platkit/internal/config"
	"github.com/platkit-labs/platkit/internal/plugin"
	"github.com/platkit-labs/platkit/internal/project"
	"github.com/platkit-labs/platkit/internal/registry"
	"github.com/platkit-labs/platkit/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	pluginSearchPaths []string
	pluginVars        []string
	pluginAddTests    bool
	pluginListJSON    bool
	pluginNoCache     bool
	pluginInstalled   bool
	pluginNewOut      string
	pluginNewTargets  []string
)

func init() {
	addProjectFlags(pluginAddCmd)
	pluginAddCmd.Flags().StringArrayVar(&pluginVars, "var", nil, "Substitution variable NAME=VALUE or PLUGIN_ID:NAME=VALUE (repeatable)")
	pluginAddCmd.Flags().BoolVar(&pluginAddTests, "add-tests", false, "Also install each plugin's tests/ plugin")
	pluginAddCmd.Flags().StringSliceVar(&pluginSearchPaths, "search-path", nil, "Directories to look up plugin ids in (default: plugin_search_path)")

	addProjectFlags(pluginListCmd)
	pluginListCmd.Flags().BoolVar(&pluginListJSON, "json", false, "Output in JSON format")
	pluginListCmd.Flags().BoolVar(&pluginNoCache, "no-cache", false, "Rescan search paths instead of using the plugin index")
	pluginListCmd.Flags().BoolVar(&pluginInstalled, "installed", false, "List the plugins installed in --project")
	pluginListCmd.Flags().StringSliceVar(&pluginSearchPaths, "search-path", nil, "Directories to scan (default: plugin_search_path)")

	pluginNewCmd.Flags().StringVar(&pluginNewOut, "output-dir", "", "Output directory (default: ./<id>)")
	pluginNewCmd.Flags().StringSliceVar(&pluginNewTargets, "platforms", []string{"android", "ios"}, "Native platforms to stub")

	pluginCmd.AddCommand(pluginAddCmd, pluginListCmd, pluginNewCmd, pluginValidateCmd)
	rootCmd.AddCommand(pluginCmd)
}

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Add, list, scaffold and validate plugins",
}

// ─── plugin add ────────────────────────────────────────────────────

var pluginAddCmd = &cobra.Command{
	Use:   "add <dir-or-id>...",
	Short: "Add plugins to a platform project",
	Long: `Install plugins into a platform project. Each argument is a plugin directory
or a plugin id looked up on the search path. Plugins are installed in argument order.

Examples:
  platkit plugin add -C build/ios ./plugins/camera
  platkit plugin add -C build/android com.example.camera --var API_KEY=secret`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plugins, err := resolvePlugins(args, searchPaths(), logger)
		if err != nil {
			return err
		}
		ids := make([]string, len(plugins))
		for i, d := range plugins {
			ids[i] = d.ID
		}
		vars, err := parseVars(pluginVars, ids)
		if err != nil {
			return err
		}

		p, err := openProject(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		if pluginAddTests {
			plugins = withTests(plugins)
		}
		addErr := p.AddPlugins(cmd.Context(), plugins, project.AddOptions{Vars: vars})
		for _, d := range plugins {
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s@%s\n", d.ID, d.Version)
		}
		return addErr
	},
}

func searchPaths() []string {
	if len(pluginSearchPaths) > 0 {
		return pluginSearchPaths
	}
	return config.SearchPaths()
}

// resolvePlugins loads each argument as a directory, or finds it by id on
// the search path.
func resolvePlugins(args, search []string, l *slog.Logger) ([]*plugin.Descriptor, error) {
	var byID map[string]*plugin.Descriptor
	out := make([]*plugin.Descriptor, 0, len(args))
	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil && info.IsDir() {
			d, err := plugin.Load(arg)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
			continue
		}

		if byID == nil {
			found, err := registry.LoadPlugins(search, registry.LoadOptions{})
			if err != nil {
				l.Warn("some plugins on the search path failed to load", "error", err)
			}
			byID = make(map[string]*plugin.Descriptor, len(found))
			for _, d := range found {
				if _, dup := byID[d.ID]; !dup {
					byID[d.ID] = d
				}
			}
		}
		d, ok := byID[arg]
		if !ok {
			return nil, fmt.Errorf("plugin %q is neither a directory nor on the search path %v", arg, search)
		}
		out = append(out, d)
	}
	return out, nil
}

// withTests appends the tests/ plugin of every plugin that has one.
func withTests(plugins []*plugin.Descriptor) []*plugin.Descriptor {
	out := plugins
	for _, d := range plugins {
		dir := filepath.Join(d.Dir, "tests")
		if !plugin.IsPluginDir(dir) {
			continue
		}
		if tp, err := plugin.Load(dir); err == nil {
			out = append(out, tp)
		} else {
			logger.Warn("skipping test plugin", "plugin", d.ID, "error", err)
		}
	}
	return out
}

// parseVars turns --var flags into per-plugin tables. A bare NAME=VALUE
// applies to every plugin in ids.
func parseVars(flags, ids []string) (map[string]map[string]string, error) {
	vars := make(map[string]map[string]string)
	set := func(id, name, value string) {
		if vars[id] == nil {
			vars[id] = make(map[string]string)
		}
		vars[id][name] = value
	}
	for _, f := range flags {
		kv, value, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --var %q: expected NAME=VALUE", f)
		}
		id, name, scoped := strings.Cut(kv, ":")
		if !scoped {
			name = kv
		}
		if name == "" {
			return nil, fmt.Errorf("invalid --var %q: empty variable name", f)
		}
		if scoped {
			set(id, name, value)
			continue
		}
		for _, id := range ids {
			set(id, name, value)
		}
	}
	return vars, nil
}

// ─── plugin ls ─────────────────────────────────────────────────────

var pluginListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List plugins on the search path, or installed in a project",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var summaries []registry.Summary
		if pluginInstalled {
			p, err := openProject(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			for _, ip := range p.Installed() {
				summaries = append(summaries, registry.Summary{ID: ip.ID, Version: ip.Version, Dir: ip.Dir})
			}
		} else {
			var err error
			summaries, err = listSearchPath(searchPaths())
			if err != nil {
				logger.Warn("some plugins failed to load", "error", err)
			}
		}

		if pluginListJSON {
			data, err := json.MarshalIndent(summaries, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		}
		if len(summaries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No plugins found.")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tVERSION\tPLATFORMS\tDIR")
		for _, s := range summaries {
			platforms := strings.Join(s.Platforms, ",")
			if platforms == "" {
				platforms = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Version, platforms, s.Dir)
		}
		return w.Flush()
	},
}

func listSearchPath(paths []string) ([]registry.Summary, error) {
	opts := registry.LoadOptions{Logger: logger}
	if pluginNoCache {
		plugins, err := registry.LoadPlugins(paths, opts)
		return registry.Summarize(plugins), err
	}
	cachePath, err := registry.DefaultCachePath()
	if err != nil {
		plugins, err := registry.LoadPlugins(paths, opts)
		return registry.Summarize(plugins), err
	}
	return registry.ListCached(paths, cachePath, opts)
}

// ─── plugin new ────────────────────────────────────────────────────

var pluginNewCmd = &cobra.Command{
	Use:   "new <id>",
	Short: "Scaffold a new plugin",
	Long: `Scaffold a plugin skeleton with a manifest, a JS module and native stubs.

Examples:
  platkit plugin new com.example.barcode
  platkit plugin new com.example.toast --platforms android --output-dir plugins/toast`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := scaffold.NewScaffoldData(args[0], pluginNewTargets)
		if err != nil {
			return err
		}
		outDir := pluginNewOut
		if outDir == "" {
			outDir = filepath.Join(".", args[0])
		}

		result, err := scaffold.Generate(data, outDir)
		if err != nil {
			return err
		}
		printResult(cmd, result)
		return nil
	},
}

func printResult(cmd *cobra.Command, result *scaffold.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", result.OutputDir)
	for _, f := range result.Files {
		fmt.Fprintf(out, "  %s\n", f)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "Warning: %s\n", w)
	}
}

// ─── plugin validate ───────────────────────────────────────────────

var pluginValidateCmd = &cobra.Command{
	Use:   "validate <dir-or-manifest>",
	Short: "Check a plugin manifest against the schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if path = plugin.ManifestPath(path); path == "" {
				return fmt.Errorf("no plugin manifest in %s", args[0])
			}
		}

		res, err := plugin.ValidateFile(path)
		if err != nil {
			return err
		}
		if !res.Valid {
			for _, issue := range res.Issues {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", issue)
			}
			return fmt.Errorf("%s: %d schema issue(s)", path, len(res.Issues))
		}
		if _, err := plugin.ParseFile(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", path)
		return nil
	},
}
