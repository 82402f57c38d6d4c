package munge

import (
	"sort"
)

// Entry is one XML node contributed to a parent. XML is the canonical
// serialization and doubles as the node's identity.
type Entry struct {
	XML   string `json:"xml"`
	After string `json:"after,omitempty"`
	Count int    `json:"count"`
}

// FileMunge groups entries by parent selector.
type FileMunge struct {
	Parents map[string][]Entry `json:"parents"`
}

// Munge maps logical target files to their entries. The zero value is an
// empty munge. Functions in this package never modify their arguments.
type Munge struct {
	Files map[string]FileMunge `json:"files"`
}

// Add returns a copy of m with count added to the entry (file, parent, xml).
func (m Munge) Add(file, parent, after, xml string, count int) Munge {
	out := m.Clone()
	out.add(file, parent, Entry{XML: xml, After: after, Count: count})
	return out
}

// Count returns the reference count of (file, parent, xml), 0 if absent.
func (m Munge) Count(file, parent, xml string) int {
	for _, e := range m.Files[file].Parents[parent] {
		if e.XML == xml {
			return e.Count
		}
	}
	return 0
}

// Empty reports whether m holds no entries.
func (m Munge) Empty() bool {
	for _, f := range m.Files {
		for _, entries := range f.Parents {
			if len(entries) > 0 {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy of m.
func (m Munge) Clone() Munge {
	out := Munge{Files: make(map[string]FileMunge, len(m.Files))}
	for file, fm := range m.Files {
		parents := make(map[string][]Entry, len(fm.Parents))
		for sel, entries := range fm.Parents {
			if len(entries) == 0 {
				continue
			}
			parents[sel] = append([]Entry(nil), entries...)
		}
		if len(parents) > 0 {
			out.Files[file] = FileMunge{Parents: parents}
		}
	}
	return out
}

// FileNames returns the target files in lexical order.
func (m Munge) FileNames() []string {
	names := make([]string, 0, len(m.Files))
	for f := range m.Files {
		names = append(names, f)
	}
	sort.Strings(names)
	return names
}

// Selectors returns the parent selectors of file in lexical order.
func (m Munge) Selectors(file string) []string {
	parents := m.Files[file].Parents
	sels := make([]string, 0, len(parents))
	for s := range parents {
		sels = append(sels, s)
	}
	sort.Strings(sels)
	return sels
}

// Entries returns the entries under (file, parent), sorted by XML.
func (m Munge) Entries(file, parent string) []Entry {
	return append([]Entry(nil), m.Files[file].Parents[parent]...)
}

// Increment returns a + b.
func Increment(a, b Munge) Munge {
	out := a.Clone()
	b.each(func(file, parent string, e Entry) {
		out.add(file, parent, e)
	})
	return out
}

// Decrement returns a - b. Entries whose count drops to zero or below are
// removed.
func Decrement(a, b Munge) Munge {
	out := a.Clone()
	b.each(func(file, parent string, e Entry) {
		e.Count = -e.Count
		out.add(file, parent, e)
	})
	return out
}

// Diff returns the entries present in next but not in prev (added) and those
// present in prev but not in next (removed), each with its count.
func Diff(prev, next Munge) (added, removed Munge) {
	added, removed = Munge{}, Munge{}
	next.each(func(file, parent string, e Entry) {
		if prev.Count(file, parent, e.XML) == 0 {
			added.add(file, parent, e)
		}
	})
	prev.each(func(file, parent string, e Entry) {
		if next.Count(file, parent, e.XML) == 0 {
			removed.add(file, parent, e)
		}
	})
	return added, removed
}

// Equal reports whether a and b hold the same entries with the same counts.
func Equal(a, b Munge) bool {
	equal := true
	a.each(func(file, parent string, e Entry) {
		if b.Count(file, parent, e.XML) != e.Count {
			equal = false
		}
	})
	if !equal {
		return false
	}
	b.each(func(file, parent string, e Entry) {
		if a.Count(file, parent, e.XML) != e.Count {
			equal = false
		}
	})
	return equal
}

// each visits every entry in file, selector, XML order.
func (m Munge) each(fn func(file, parent string, e Entry)) {
	for _, file := range m.FileNames() {
		for _, sel := range m.Selectors(file) {
			for _, e := range m.Files[file].Parents[sel] {
				fn(file, sel, e)
			}
		}
	}
}

// add merges e into m in place, keeping the parent's entries sorted by XML.
// When contributions of one node disagree on After, the lexically smallest
// non-empty value wins.
func (m *Munge) add(file, parent string, e Entry) {
	if e.Count == 0 {
		return
	}
	if m.Files == nil {
		m.Files = make(map[string]FileMunge)
	}
	fm, ok := m.Files[file]
	if !ok || fm.Parents == nil {
		fm = FileMunge{Parents: make(map[string][]Entry)}
	}
	entries := fm.Parents[parent]

	i := sort.Search(len(entries), func(i int) bool { return entries[i].XML >= e.XML })
	switch {
	case i < len(entries) && entries[i].XML == e.XML:
		entries[i].Count += e.Count
		if e.Count > 0 {
			entries[i].After = pickAfter(entries[i].After, e.After)
		}
		if entries[i].Count <= 0 {
			entries = append(entries[:i], entries[i+1:]...)
		}
	case e.Count > 0:
		entries = append(entries, Entry{})
		copy(entries[i+1:], entries[i:])
		entries[i] = e
	}

	if len(entries) == 0 {
		delete(fm.Parents, parent)
	} else {
		fm.Parents[parent] = entries
	}
	if len(fm.Parents) == 0 {
		delete(m.Files, file)
	} else {
		m.Files[file] = fm
	}
}

func pickAfter(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "" || a < b:
		return a
	default:
		return b
	}
}
