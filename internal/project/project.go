package project

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/platkit-labs/platkit/internal/configxml"
	"github.com/platkit-labs/platkit/internal/errkind"
	"github.com/platkit-labs/platkit/internal/installer"
	"github.com/platkit-labs/platkit/internal/jsmodule"
	"github.com/platkit-labs/platkit/internal/munge"
	"github.com/platkit-labs/platkit/internal/platform"
	"github.com/platkit-labs/platkit/internal/plugin"
	"github.com/platkit-labs/platkit/internal/registry"
	"github.com/platkit-labs/platkit/internal/spawn"
)

const (
	scriptsDir     = "cordova"
	platformWWWDir = "platform_www"
	runtimeJS      = "cordova.js"
	defaultsXML    = "defaults.xml"
)

var unsafePackageChars = regexp.MustCompile(`[^\w.]`)

// Installed is one member of the installed-plugin set. Descriptor is nil
// for plugins restored from persisted state.
type Installed struct {
	ID         string
	Version    string
	Dir        string
	Descriptor *plugin.Descriptor
}

// Project is a platform project on disk plus what is known about it. It is
// not safe for concurrent use.
type Project struct {
	handler  platform.Handler
	root     string
	cfg      *configxml.Config
	stage    Stage
	state    munge.State
	plugins  []Installed
	index    map[string]int
	provider *registry.Provider
	runner   spawn.Runner
	logger   *slog.Logger

	stdin          io.Reader
	stdout, stderr io.Writer
}

// Option configures a Project.
type Option func(*Project)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(p *Project) { p.logger = l }
}

// WithRunner replaces the script runner.
func WithRunner(r spawn.Runner) Option {
	return func(p *Project) { p.runner = r }
}

// WithStdio sets the streams handed to platform scripts when the default
// runner is used.
func WithStdio(in io.Reader, out, errOut io.Writer) Option {
	return func(p *Project) {
		p.stdin, p.stdout, p.stderr = in, out, errOut
	}
}

// New returns an unopened project for the platform h.
func New(h platform.Handler, opts ...Option) *Project {
	p := &Project{handler: h, index: make(map[string]int)}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	p.logger = p.logger.With("platform", h.Name())
	if p.runner == nil {
		p.runner = &spawn.ExecRunner{Stdin: p.stdin, Stdout: p.stdout, Stderr: p.stderr, Logger: p.logger}
	}
	p.provider = registry.NewProvider(p.logger)
	return p
}

// Root returns the project root, empty until opened.
func (p *Project) Root() string { return p.root }

// Stage returns the current lifecycle stage.
func (p *Project) Stage() Stage { return p.stage }

// Platform returns the platform handler.
func (p *Project) Platform() platform.Handler { return p.handler }

// WWWDir returns the project's web root.
func (p *Project) WWWDir() string { return p.handler.WWWDir(p.root) }

// State returns the persisted state as last loaded or written.
func (p *Project) State() munge.State { return p.state }

// Installed returns the installed plugins in install order.
func (p *Project) Installed() []Installed {
	return append([]Installed(nil), p.plugins...)
}

// JSModules returns the packaged JS modules in manifest order.
func (p *Project) JSModules() []jsmodule.Module {
	return append([]jsmodule.Module(nil), p.state.JSModules...)
}

// SetConfig sets the application config that UpdateConfig merges and whose
// package name fills $PACKAGE_NAME.
func (p *Project) SetConfig(cfg *configxml.Config) { p.cfg = cfg }

// Open attaches to the platform tree at root and restores its persisted
// state.
func (p *Project) Open(ctx context.Context, root string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: project root %s", errkind.ErrNotFound, abs)
	}

	st, err := munge.LoadState(abs)
	if err != nil {
		return err
	}
	if st.Platform != "" && st.Platform != p.handler.Name() {
		return fmt.Errorf("%w: %s holds a %s project, not %s", errkind.ErrInvalidState, abs, st.Platform, p.handler.Name())
	}

	p.root = abs
	p.state = st
	p.plugins = nil
	p.index = make(map[string]int)
	for _, ip := range st.InstalledPlugins {
		p.put(Installed{ID: ip.ID, Version: ip.Version, Dir: ip.Dir})
	}
	p.stage = Opened
	p.logger.Debug("opened project", "root", abs, "plugins", len(p.plugins))
	return nil
}

// InitOptions are the inputs of Init.
type InitOptions struct {
	Root     string
	Template string
	Config   *configxml.Config
	// Link asks the create script to reference the template instead of
	// copying it.
	Link bool
}

// Init scaffolds a new platform tree by running <template>/bin/create, then
// opens it. A failing create script is fatal.
func (p *Project) Init(ctx context.Context, opts InitOptions) error {
	if err := p.require("init", Unopened); err != nil {
		return err
	}
	if opts.Config == nil {
		return fmt.Errorf("init: a project config is required")
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}

	pkg := unsafePackageChars.ReplaceAllString(opts.Config.PackageName(), "_")
	name := p.handler.NormalizeName(opts.Config.Name())
	args := []string{root, pkg, name}
	if opts.Link {
		args = append(args, "--link")
	}

	bin := filepath.Join(opts.Template, "bin", "create")
	p.executable(bin)
	if _, err := p.runner.Run(ctx, spawn.Command{Path: bin, Args: args}); err != nil {
		return fmt.Errorf("creating %s project: %w", p.handler.Name(), err)
	}

	p.cfg = opts.Config
	if err := p.Open(ctx, root); err != nil {
		return err
	}
	return p.seed()
}

// seed installs the template's default runtime config and stages the
// platform's own web files in platform_www.
func (p *Project) seed() error {
	cfgPath, err := p.handler.ConfigXMLPath(p.root)
	if err != nil {
		return err
	}
	defaults := filepath.Join(p.root, scriptsDir, defaultsXML)
	if _, err := os.Stat(defaults); err == nil {
		if _, err := platform.CopyPath(defaults, cfgPath); err != nil {
			return fmt.Errorf("installing default config: %w", err)
		}
	}

	stage := filepath.Join(p.root, platformWWWDir)
	if err := os.MkdirAll(stage, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", platformWWWDir, err)
	}
	js := filepath.Join(p.WWWDir(), runtimeJS)
	if _, err := os.Stat(js); err == nil {
		if _, err := platform.CopyPath(js, filepath.Join(stage, runtimeJS)); err != nil {
			return fmt.Errorf("staging %s: %w", runtimeJS, err)
		}
	}
	return nil
}

// AddOptions are the inputs of AddPlugins and AddPluginsFrom.
type AddOptions struct {
	// Vars holds substitution variables per plugin id.
	Vars map[string]map[string]string
	// AddTests also loads each plugin's tests/ plugin (AddPluginsFrom only).
	AddTests bool
}

// AddPlugins installs plugins in order: native items and assets, JS modules
// (flushed as one manifest), then config edits through the munge engine.
// Per-item failures do not stop the pass; they are returned together as a
// *errkind.Report once everything that could be applied has been.
func (p *Project) AddPlugins(ctx context.Context, plugins []*plugin.Descriptor, opts AddOptions) error {
	if err := p.require("add plugins", Opened, PluginsAdded); err != nil {
		return err
	}
	var report errkind.Report

	for _, d := range plugins {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.logger.Info("installing plugin", "plugin", d.ID, "version", d.Version)
		report.Add(installer.InstallPlugin(p.handler, d, p.root, p.logger))
		p.put(Installed{ID: d.ID, Version: d.Version, Dir: d.Dir, Descriptor: d})
	}

	modules, err := p.packageModules(plugins, &report)
	if err != nil {
		report.Add(err)
	}

	fragment, origins, expandReport := munge.ExpandAll(ctx, p.handler.Name(), plugins, munge.ExpandOptions{
		Vars:        opts.Vars,
		PackageName: p.packageName(),
		Logger:      p.logger,
	})
	report.Add(expandReport)

	engine := munge.NewEngine(munge.ResolverFunc(func(target string) (string, error) {
		return p.handler.ResolveConfigTarget(p.root, target)
	}), p.logger).Attribute(origins)
	next, err := engine.Apply(ctx, p.state.Munge, fragment)
	report.Add(err)

	st := munge.State{
		Platform:         p.handler.Name(),
		Munge:            next,
		InstalledPlugins: p.installedState(),
		JSModules:        modules,
	}
	if !st.Equal(p.state) {
		if err := munge.SaveState(p.root, st); err != nil {
			report.Add(err)
		} else {
			p.logger.Debug("saved project state", "path", munge.StatePath(p.root))
		}
	}
	p.state = st
	p.stage = PluginsAdded

	if report.Len() > 0 {
		p.logger.Warn("plugins added with failures", "failures", report.Len())
	}
	return report.Err()
}

// AddPluginsFrom loads every plugin found in searchPaths and adds them.
// Plugins that fail to load are reported with the other failures.
func (p *Project) AddPluginsFrom(ctx context.Context, searchPaths []string, opts AddOptions) error {
	if err := p.require("add plugins", Opened, PluginsAdded); err != nil {
		return err
	}
	var report errkind.Report
	plugins, err := p.provider.LoadPlugins(searchPaths, registry.LoadOptions{AddTests: opts.AddTests, Logger: p.logger})
	report.Add(err)

	if err := p.AddPlugins(ctx, plugins, opts); err != nil {
		var r *errkind.Report
		if !errors.As(err, &r) {
			return err
		}
		report.Add(r)
	}
	return report.Err()
}

// packageModules wraps the JS modules of plugins, keeps the entries of
// earlier batches, and writes the manifest once.
func (p *Project) packageModules(plugins []*plugin.Descriptor, report *errkind.Report) ([]jsmodule.Module, error) {
	pkg := jsmodule.New(p.WWWDir(), p.logger)
	pkg.Seed(p.state.JSModules)
	for _, d := range plugins {
		for _, mod := range d.JSModulesFor(p.handler.Name()) {
			if _, err := pkg.Add(d, mod); err != nil {
				report.Add(errkind.Item(d.ID, "js-module "+mod.Src, err))
			}
		}
	}

	meta := make(map[string]string, len(p.plugins))
	for _, ip := range p.plugins {
		meta[ip.ID] = ip.Version
	}
	if err := pkg.Flush(meta); err != nil {
		return pkg.Modules(), err
	}
	return pkg.Modules(), nil
}

// UpdateConfig merges the application config into the platform config and
// lets the platform push identity into its native files.
func (p *Project) UpdateConfig(ctx context.Context) error {
	if err := p.require("update config", opened...); err != nil {
		return err
	}
	if p.cfg == nil {
		return fmt.Errorf("%w: no project config set", errkind.ErrInvalidState)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := p.handler.ConfigXMLPath(p.root)
	if err != nil {
		return err
	}
	platformCfg, err := configxml.Load(path)
	if err != nil {
		return fmt.Errorf("loading platform config: %w", err)
	}
	configxml.Merge(p.cfg.Root(), platformCfg.Root(), p.handler.Name(), true)
	if err := platformCfg.Write(); err != nil {
		return fmt.Errorf("writing platform config: %w", err)
	}

	if err := p.handler.UpdateFromConfig(p.root, p.cfg); err != nil {
		return fmt.Errorf("updating %s project files: %w", p.handler.Name(), err)
	}
	p.stage = ConfigUpdated
	p.logger.Info("updated platform config", "path", path)
	return nil
}

// CopyWww copies the contents of src, then of platform_www, over the web
// root.
func (p *Project) CopyWww(ctx context.Context, src string) error {
	if err := p.require("copy www", opened...); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	www := p.WWWDir()
	if _, err := platform.CopyContents(src, www); err != nil {
		return fmt.Errorf("copying web assets: %w", err)
	}
	stage := filepath.Join(p.root, platformWWWDir)
	if _, err := os.Stat(stage); err == nil {
		if _, err := platform.CopyContents(stage, www); err != nil {
			return fmt.Errorf("copying %s: %w", platformWWWDir, err)
		}
	}
	p.stage = WwwCopied
	p.logger.Info("copied web assets", "src", src, "dst", www)
	return nil
}

// Build runs <root>/cordova/build.
func (p *Project) Build(ctx context.Context) error { return p.script(ctx, "build") }

// Run runs <root>/cordova/run.
func (p *Project) Run(ctx context.Context) error { return p.script(ctx, "run") }

// Emulate runs <root>/cordova/run --emulator.
func (p *Project) Emulate(ctx context.Context) error { return p.script(ctx, "run", "--emulator") }

func (p *Project) script(ctx context.Context, name string, args ...string) error {
	if err := p.require(name, opened...); err != nil {
		return err
	}
	bin := filepath.Join(p.root, scriptsDir, name)
	p.executable(bin)
	if _, err := p.runner.Run(ctx, spawn.Command{Path: bin, Args: args, Dir: p.root}); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Create runs init, adds the plugins found in the search paths, merges the
// config and stages the web root. Plugin failures are reported at the end
// and do not stop the later stages.
func (p *Project) Create(ctx context.Context, info *Info) error {
	if err := info.Validate(); err != nil {
		return err
	}
	cfg, err := configxml.Load(info.Config)
	if err != nil {
		return fmt.Errorf("loading project config: %w", err)
	}

	if err := p.Init(ctx, InitOptions{Root: info.Paths.Root, Template: info.Paths.Template, Config: cfg, Link: info.Link}); err != nil {
		return err
	}

	var report errkind.Report
	if err := p.AddPluginsFrom(ctx, info.Paths.Plugins, AddOptions{Vars: info.Variables, AddTests: info.AddTests}); err != nil {
		var r *errkind.Report
		if !errors.As(err, &r) {
			return err
		}
		report.Add(r)
	}
	if err := p.UpdateConfig(ctx); err != nil {
		report.Add(err)
		return report.Err()
	}
	if info.Paths.WWW != "" {
		if err := p.CopyWww(ctx, info.Paths.WWW); err != nil {
			report.Add(err)
		}
	}
	return report.Err()
}

// executable restores the execute bits of a platform script that was
// unpacked without them. A missing script is left for the runner to report.
func (p *Project) executable(script string) {
	info, err := os.Stat(script)
	if err != nil || info.Mode().Perm()&0111 != 0 {
		return
	}
	if err := platform.MakeExecutable(script); err != nil {
		p.logger.Warn("cannot make script executable", "script", script, "error", err)
	}
}

// packageName is the value of $PACKAGE_NAME: the application config's id,
// or the platform config's when no application config is set.
func (p *Project) packageName() string {
	if p.cfg != nil {
		return p.cfg.PackageName()
	}
	path, err := p.handler.ConfigXMLPath(p.root)
	if err != nil {
		return ""
	}
	cfg, err := configxml.Load(path)
	if err != nil {
		return ""
	}
	return cfg.PackageName()
}

// put adds or replaces a member of the installed set, keeping first-install
// order.
func (p *Project) put(ip Installed) {
	if i, ok := p.index[ip.ID]; ok {
		p.plugins[i] = ip
		return
	}
	p.index[ip.ID] = len(p.plugins)
	p.plugins = append(p.plugins, ip)
}

func (p *Project) installedState() []munge.InstalledPlugin {
	out := make([]munge.InstalledPlugin, len(p.plugins))
	for i, ip := range p.plugins {
		out[i] = munge.InstalledPlugin{ID: ip.ID, Version: ip.Version, Dir: ip.Dir}
	}
	return out
}
