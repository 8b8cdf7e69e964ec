package ue4ss

import (
	"sort"
	"strings"

	"github.com/blang/semver"
)

// SortTags orders release tags for display. Tags that do not parse as a
// version (experimental builds) keep their relative order and come first,
// followed by versions from newest to oldest.
func SortTags(tags []string) []string {
	type versioned struct {
		tag string
		v   semver.Version
	}
	var named []string
	var versions []versioned
	for _, tag := range tags {
		v, err := semver.ParseTolerant(tag)
		if err != nil {
			named = append(named, tag)
			continue
		}
		versions = append(versions, versioned{tag: tag, v: v})
	}
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].v.GT(versions[j].v)
	})

	out := make([]string, 0, len(tags))
	out = append(out, named...)
	for _, v := range versions {
		out = append(out, v.tag)
	}
	return out
}

// FilterTags applies a case-insensitive substring filter and picks the tag to
// preselect. The current tag wins when it survives the filter, otherwise the
// first filtered tag. An empty result falls back to the first tag overall.
func FilterTags(tags []string, filter, current string) (items []string, selected string) {
	needle := strings.ToLower(filter)
	items = []string{}
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			items = append(items, tag)
		}
	}

	switch {
	case len(items) > 0 && contains(items, current):
		selected = current
	case len(items) > 0:
		selected = items[0]
	case len(tags) > 0:
		selected = tags[0]
	}
	return items, selected
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
