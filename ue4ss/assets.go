package ue4ss

import (
	"sort"
	"strings"
)

// Assets published alongside UE4SS that are not installable builds.
var excludedAssets = map[string]bool{
	"zcustomgameconfigs.zip": true,
	"zmapgenbp.zip":          true,
}

// AssetFilter carries the per-game settings that narrow the asset list.
type AssetFilter struct {
	Developer     bool
	Portable      bool
	Filter        string
	LastInstalled string
}

// AssetSelection is what a game is offered for one tag.
type AssetSelection struct {
	Items   []string
	Default string
}

// IsDeveloperAsset reports whether an asset is a developer build.
func IsDeveloperAsset(fileName string) bool {
	return strings.Contains(strings.ToLower(fileName), "dev")
}

// FilterAssets picks the assets of a tag that match a game's settings,
// newest first.
//
// Developer builds are shown only in developer mode and regular builds only
// outside it. Outside developer mode the portable setting keeps either the
// "Standard" builds or everything else. If filtering leaves nothing but more
// than one candidate existed, the unfiltered candidates are offered instead.
func FilterAssets(assets []Asset, f AssetFilter) AssetSelection {
	var candidates []Asset
	for _, a := range assets {
		if IsDeveloperAsset(a.FileName) != f.Developer {
			continue
		}
		if excludedAssets[strings.ToLower(a.FileName)] {
			continue
		}
		candidates = append(candidates, a)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})

	sorted := make([]string, 0, len(candidates))
	for _, a := range candidates {
		sorted = append(sorted, a.FileName)
	}

	needle := strings.ToLower(f.Filter)
	filtered := []string{}
	for _, name := range sorted {
		if !strings.Contains(strings.ToLower(name), needle) {
			continue
		}
		if !f.Developer && strings.Contains(name, "Standard") != f.Portable {
			continue
		}
		filtered = append(filtered, name)
	}

	switch {
	case len(filtered) > 0:
		return AssetSelection{Items: filtered, Default: preferred(filtered, f.LastInstalled)}
	case len(sorted) > 1:
		return AssetSelection{Items: sorted, Default: preferred(sorted, f.LastInstalled)}
	default:
		return AssetSelection{Items: sorted}
	}
}

func preferred(items []string, last string) string {
	if contains(items, last) {
		return last
	}
	return items[0]
}
