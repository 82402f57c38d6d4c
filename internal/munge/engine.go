package munge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/beevik/etree"

	"github.com/platkit-labs/platkit/internal/configxml"
	"github.com/platkit-labs/platkit/internal/errkind"
)

// Resolver maps a logical target file named in a plugin manifest to the
// path of the file on disk.
type Resolver interface {
	ResolveConfigTarget(target string) (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(target string) (string, error)

func (f ResolverFunc) ResolveConfigTarget(target string) (string, error) { return f(target) }

// Engine applies munge deltas to the files of one platform tree.
type Engine struct {
	resolver Resolver
	logger   *slog.Logger
	origins  Origins
}

// NewEngine returns an engine resolving targets through r.
func NewEngine(r Resolver, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{resolver: r, logger: logger}
}

// Attribute makes failure reports name the plugins recorded in o.
func (e *Engine) Attribute(o Origins) *Engine {
	e.origins = o
	return e
}

// Apply grafts the nodes that fragment adds on top of prev and returns the
// munge to persist: prev + fragment, minus the entries that could not be
// applied. The returned error, if any, is a *errkind.Report listing those
// entries; next is valid either way.
func (e *Engine) Apply(ctx context.Context, prev, fragment Munge) (Munge, error) {
	next := Increment(prev, fragment)
	added, _ := Diff(prev, next)

	var report errkind.Report
	failed := Munge{}
	for _, file := range added.FileNames() {
		if err := ctx.Err(); err != nil {
			report.Add(fmt.Errorf("applying %s: %w", file, err))
			failed = Increment(failed, only(added, file))
			continue
		}
		failed = Increment(failed, e.applyFile(file, added, &report))
	}

	return Decrement(next, failed), report.Err()
}

// Unapply removes fragment from prev and prunes the nodes whose count drops
// to zero. The result is prev - fragment; pruning failures are reported
// but do not keep entries alive.
func (e *Engine) Unapply(ctx context.Context, prev, fragment Munge) (Munge, error) {
	next := Decrement(prev, fragment)
	_, removed := Diff(prev, next)

	var report errkind.Report
	for _, file := range removed.FileNames() {
		if err := ctx.Err(); err != nil {
			report.Add(fmt.Errorf("unapplying %s: %w", file, err))
			continue
		}
		e.unapplyFile(file, removed, &report)
	}
	return next, report.Err()
}

// applyFile grafts the added entries of one file and returns those that
// failed.
func (e *Engine) applyFile(file string, added Munge, report *errkind.Report) Munge {
	failAll := func(err error) Munge {
		report.Add(errkind.Item(e.origins.owners(added, file, ""), file, err))
		return only(added, file)
	}

	path, err := e.resolver.ResolveConfigTarget(file)
	if err != nil {
		return failAll(fmt.Errorf("%w: %v", errkind.ErrConfigTargetMissing, err))
	}
	doc, exists, err := loadDocument(path)
	if err != nil {
		return failAll(fmt.Errorf("%w: %v", errkind.ErrConfigTargetMissing, err))
	}

	failed := Munge{}
	changed := false
	for _, raw := range added.Selectors(file) {
		entries := added.Entries(file, raw)
		owners := e.origins.owners(added, file, raw)
		sel, err := configxml.ParseSelector(raw)
		if err != nil {
			report.Add(errkind.Item(owners, file+" "+raw, fmt.Errorf("%w: %v", errkind.ErrMalformedEditDeclaration, err)))
			failed = addAll(failed, file, raw, entries)
			continue
		}
		if doc == nil {
			if tag := sel.DefaultRootTag(); tag != "" {
				doc = configxml.NewDocument(tag)
			}
		}

		var parent *etree.Element
		if doc != nil {
			parent = sel.Resolve(doc)
		}
		if parent == nil {
			report.Add(errkind.Item(owners, file+" "+raw, fmt.Errorf("%w: selector %q matches nothing in %s", errkind.ErrConfigTargetMissing, raw, path)))
			failed = addAll(failed, file, raw, entries)
			continue
		}

		for _, entry := range entries {
			node, err := configxml.ParseFragment(entry.XML)
			if err != nil {
				report.Add(errkind.Item(e.origins.entry(file, raw, entry.XML), file+" "+raw, fmt.Errorf("%w: %v", errkind.ErrMalformedEditDeclaration, err)))
				failed = failed.Add(file, raw, entry.After, entry.XML, entry.Count)
				continue
			}
			if configxml.Graft(parent, node, entry.After) {
				changed = true
				e.logger.Debug("grafted config node", "file", file, "parent", raw, "xml", entry.XML)
			}
		}
	}

	if !changed {
		return failed
	}
	if err := configxml.WriteDocument(doc, path); err != nil {
		report.Add(errkind.Item(e.origins.owners(added, file, ""), file, err))
		return only(added, file)
	}
	if !exists {
		e.logger.Info("created config file", "file", file, "path", path)
	} else {
		e.logger.Info("updated config file", "file", file, "path", path)
	}
	return failed
}

func (e *Engine) unapplyFile(file string, removed Munge, report *errkind.Report) {
	path, err := e.resolver.ResolveConfigTarget(file)
	if err != nil {
		report.Add(errkind.Item(e.origins.owners(removed, file, ""), file, fmt.Errorf("%w: %v", errkind.ErrConfigTargetMissing, err)))
		return
	}
	doc, _, err := loadDocument(path)
	if err != nil || doc == nil {
		if err == nil {
			err = fmt.Errorf("%s does not exist", path)
		}
		report.Add(errkind.Item(e.origins.owners(removed, file, ""), file, fmt.Errorf("%w: %v", errkind.ErrConfigTargetMissing, err)))
		return
	}

	changed := false
	for _, raw := range removed.Selectors(file) {
		sel, err := configxml.ParseSelector(raw)
		if err != nil {
			report.Add(errkind.Item(e.origins.owners(removed, file, raw), file+" "+raw, fmt.Errorf("%w: %v", errkind.ErrMalformedEditDeclaration, err)))
			continue
		}
		parent := sel.Resolve(doc)
		if parent == nil {
			report.Add(errkind.Item(e.origins.owners(removed, file, raw), file+" "+raw, fmt.Errorf("%w: selector %q matches nothing in %s", errkind.ErrConfigTargetMissing, raw, path)))
			continue
		}
		for _, entry := range removed.Entries(file, raw) {
			node, err := configxml.ParseFragment(entry.XML)
			if err != nil {
				continue
			}
			if configxml.Prune(parent, node) {
				changed = true
				e.logger.Debug("pruned config node", "file", file, "parent", raw, "xml", entry.XML)
			}
		}
	}

	if changed {
		if err := configxml.WriteDocument(doc, path); err != nil {
			report.Add(errkind.Item(e.origins.owners(removed, file, ""), file, err))
		}
	}
}

// loadDocument reads path. A missing file yields a nil document and no
// error; a file that does not parse is an error.
func loadDocument(path string) (*etree.Document, bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	doc, err := configxml.ReadDocument(path)
	if err != nil {
		return nil, true, err
	}
	if doc.Root() == nil {
		return nil, true, fmt.Errorf("%s has no root element", path)
	}
	return doc, true, nil
}

// only returns the part of m that targets file.
func only(m Munge, file string) Munge {
	out := Munge{}
	for _, sel := range m.Selectors(file) {
		out = addAll(out, file, sel, m.Entries(file, sel))
	}
	return out
}

func addAll(m Munge, file, parent string, entries []Entry) Munge {
	for _, e := range entries {
		m.add(file, parent, e)
	}
	return m
}
