package munge

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/platkit-labs/platkit/internal/configxml"
	"github.com/platkit-labs/platkit/internal/errkind"
	"github.com/platkit-labs/platkit/internal/plugin"
)

// PackageNameVar is the built-in substitution variable holding the
// application package name.
const PackageNameVar = "PACKAGE_NAME"

var placeholderRe = regexp.MustCompile(`\$[A-Za-z_][A-Za-z0-9_]*`)

// ExpandOptions carries the substitution inputs of one pass.
type ExpandOptions struct {
	// Vars holds caller-supplied variables per plugin id.
	Vars map[string]map[string]string
	// PackageName fills $PACKAGE_NAME.
	PackageName string
	Logger      *slog.Logger
}

func (o ExpandOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// Variables returns the substitution table for d. Caller variables win over
// the package name, which wins over declared preference defaults.
func (o ExpandOptions) Variables(d *plugin.Descriptor) map[string]string {
	vars := d.Defaults()
	if o.PackageName != "" {
		vars[PackageNameVar] = o.PackageName
	}
	for k, v := range o.Vars[d.ID] {
		vars[k] = v
	}
	return vars
}

// Substitute replaces every $NAME in s with vars[NAME]. Longer names are
// replaced first so $FOO_BAR is not eaten by $FOO.
func Substitute(s string, vars map[string]string) string {
	names := make([]string, 0, len(vars))
	for n := range vars {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	for _, n := range names {
		s = strings.ReplaceAll(s, "$"+n, vars[n])
	}
	return s
}

// Expand builds the munge fragment d contributes to platform. Each edit that
// cannot be parsed is reported as errkind.ErrMalformedEditDeclaration and
// left out; the rest of the fragment is still returned.
func Expand(platform string, d *plugin.Descriptor, opts ExpandOptions) (Munge, *errkind.Report) {
	var report errkind.Report
	logger := opts.logger()
	vars := opts.Variables(d)
	fragment := Munge{}

	for _, edit := range d.ConfigEditsFor(platform) {
		label := fmt.Sprintf("config edit %s %s", edit.Target, edit.Parent)
		if strings.TrimSpace(edit.Target) == "" {
			report.Add(errkind.Item(d.ID, label, fmt.Errorf("%w: empty target", errkind.ErrMalformedEditDeclaration)))
			continue
		}

		xml := Substitute(edit.XML, vars)
		for _, left := range placeholderRe.FindAllString(xml, -1) {
			logger.Warn("unresolved variable in config edit", "plugin", d.ID, "variable", left, "target", edit.Target)
		}

		if _, err := configxml.ParseSelector(edit.Parent); err != nil {
			report.Add(errkind.Item(d.ID, label, fmt.Errorf("%w: %v", errkind.ErrMalformedEditDeclaration, err)))
			continue
		}
		canonical, err := configxml.CanonicalString(xml)
		if err != nil {
			report.Add(errkind.Item(d.ID, label, fmt.Errorf("%w: %v", errkind.ErrMalformedEditDeclaration, err)))
			continue
		}

		fragment.add(edit.Target, edit.Parent, Entry{XML: canonical, After: edit.After, Count: 1})
	}
	return fragment, &report
}

// ExpandAll expands every plugin concurrently and folds the fragments in
// caller order. Per-edit failures of all plugins are collected in one Report.
// The returned Origins names the plugins behind each folded entry.
func ExpandAll(ctx context.Context, platform string, plugins []*plugin.Descriptor, opts ExpandOptions) (Munge, Origins, *errkind.Report) {
	fragments := make([]Munge, len(plugins))
	reports := make([]*errkind.Report, len(plugins))

	g, ctx := errgroup.WithContext(ctx)
	for i, d := range plugins {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fragments[i], reports[i] = Expand(platform, d, opts)
			return nil
		})
	}

	var report errkind.Report
	if err := g.Wait(); err != nil {
		report.Add(err)
		return Munge{}, Origins{}, &report
	}

	total := Munge{}
	origins := Origins{}
	for i, d := range plugins {
		total = Increment(total, fragments[i])
		fragments[i].each(func(file, parent string, e Entry) {
			origins.record(file, parent, e.XML, d.ID)
		})
		report.Add(reports[i])
	}
	return total, origins, &report
}
