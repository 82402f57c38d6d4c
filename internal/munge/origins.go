package munge

import (
	"sort"
	"strings"
)

type originKey struct{ file, parent, xml string }

// Origins records which plugins contributed each entry of a fragment.
type Origins map[originKey][]string

func (o Origins) record(file, parent, xml, pluginID string) {
	k := originKey{file, parent, xml}
	for _, id := range o[k] {
		if id == pluginID {
			return
		}
	}
	o[k] = append(o[k], pluginID)
}

// Plugins returns the ids that contributed (file, parent, xml), in lexical
// order.
func (o Origins) Plugins(file, parent, xml string) []string {
	ids := append([]string(nil), o[originKey{file, parent, xml}]...)
	sort.Strings(ids)
	return ids
}

// owners joins the contributors of every entry under (file, parent) in m.
// An empty parent covers every selector of file.
func (o Origins) owners(m Munge, file, parent string) string {
	if len(o) == 0 {
		return ""
	}
	seen := map[string]bool{}
	var ids []string
	sels := []string{parent}
	if parent == "" {
		sels = m.Selectors(file)
	}
	for _, sel := range sels {
		for _, e := range m.Files[file].Parents[sel] {
			for _, id := range o[originKey{file, sel, e.XML}] {
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

func (o Origins) entry(file, parent, xml string) string {
	return strings.Join(o.Plugins(file, parent, xml), ",")
}
