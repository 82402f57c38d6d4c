package configxml

import (
	"strings"

	"github.com/beevik/etree"
)

// Tags never copied from a project config into a platform config.
var mergeBlacklist = map[string]bool{
	"platform": true,
	"feature":  true,
	"plugin":   true,
	"engine":   true,
}

// Tags that may appear only once; the source replaces the destination.
var mergeSingletons = map[string]bool{
	"content": true,
	"author":  true,
}

// Merge folds src into dest. Attributes and text from src win when clobber is
// set or dest lacks them. Children of <platform name="platform"> in src are
// merged as if declared at the same level. A src child that exactly matches
// (tag, attributes, text) an existing dest child is merged into it without
// clobbering; any other child is appended.
func Merge(src, dest *etree.Element, platform string, clobber bool) {
	if mergeBlacklist[src.Tag] {
		return
	}

	for _, a := range src.Attr {
		if clobber || dest.SelectAttrValue(a.FullKey(), "") == "" {
			dest.CreateAttr(a.FullKey(), a.Value)
		}
	}

	if text := src.Text(); strings.TrimSpace(text) != "" && (clobber || strings.TrimSpace(dest.Text()) == "") {
		dest.SetText(text)
	}

	if platform != "" {
		for _, pe := range src.SelectElements("platform") {
			if pe.SelectAttrValue("name", "") != platform {
				continue
			}
			for _, child := range pe.ChildElements() {
				mergeChild(child, dest, platform, clobber)
			}
		}
	}

	for _, child := range src.ChildElements() {
		mergeChild(child, dest, platform, clobber)
	}
}

func mergeChild(srcChild, dest *etree.Element, platform string, clobber bool) {
	if mergeBlacklist[srcChild.Tag] {
		return
	}

	destChild := etree.NewElement(srcChild.Tag)
	shouldMerge := true

	if mergeSingletons[srcChild.Tag] {
		if found := dest.SelectElement(srcChild.Tag); found != nil {
			destChild = found
			dest.RemoveChild(found)
		}
	} else if found := findExactMatch(dest, srcChild); found != nil {
		destChild = found
		dest.RemoveChild(found)
		shouldMerge = false
	}

	Merge(srcChild, destChild, platform, clobber && shouldMerge)
	dest.AddChild(destChild)
}

// findExactMatch returns the first direct child of dest with the same tag,
// carrying every attribute of src with equal values, and matching text.
func findExactMatch(dest, src *etree.Element) *etree.Element {
	for _, candidate := range dest.SelectElements(src.Tag) {
		if attrsMatch(src, candidate) && textMatch(src, candidate) {
			return candidate
		}
	}
	return nil
}

func attrsMatch(src, candidate *etree.Element) bool {
	for _, a := range src.Attr {
		v := candidate.SelectAttr(a.FullKey())
		if v == nil || v.Value != a.Value {
			return false
		}
	}
	return true
}

func textMatch(src, candidate *etree.Element) bool {
	t1 := stripSpace(src.Text())
	return t1 == "" || t1 == stripSpace(candidate.Text())
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
