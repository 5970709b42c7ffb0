package rustdoc

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Reexport records a pub use that exposes an item under a different path.
type Reexport struct {
	LocalPrefix  string // path as seen from the re-exporting crate
	SourceCrate  string // crate that defines the item
	SourcePrefix string // path in the source crate
}

// CollectReexports walks the module tree for pub-use mappings. Same-crate
// single-item re-exports are also registered as lookup aliases so link
// targets written against the public path resolve.
func (idx *Index) CollectReexports() []Reexport {
	var out []Reexport
	idx.walkReexports(idx.crate.Root, &out)
	return out
}

func (idx *Index) walkReexports(moduleID int, out *[]Reexport) {
	moduleItem, ok := idx.crate.Index[strconv.Itoa(moduleID)]
	if !ok {
		return
	}

	modulePath := idx.crateName
	if summary, ok := idx.crate.Paths[strconv.Itoa(moduleID)]; ok {
		modulePath = strings.Join(summary.Path, "::")
	}

	modData := unwrapInner(moduleItem.Inner, "module")
	if modData == nil {
		return
	}
	var mod struct {
		Items []int `json:"items"`
	}
	if err := json.Unmarshal(modData, &mod); err != nil {
		return
	}

	for _, childID := range mod.Items {
		childItem, ok := idx.crate.Index[strconv.Itoa(childID)]
		if !ok {
			continue
		}
		switch innerKind(childItem.Inner) {
		case "module":
			idx.walkReexports(childID, out)
			continue
		case "use":
		default:
			continue
		}

		useData := unwrapInner(childItem.Inner, "use")
		var use struct {
			Name   string `json:"name"`
			ID     *int   `json:"id"`
			IsGlob bool   `json:"is_glob"`
		}
		if err := json.Unmarshal(useData, &use); err != nil || use.ID == nil {
			continue
		}

		targetSummary, ok := idx.crate.Paths[strconv.Itoa(*use.ID)]
		if !ok {
			continue
		}
		sourcePath := strings.Join(targetSummary.Path, "::")

		var sourceCrate string
		if targetSummary.CrateID == 0 {
			sourceCrate = idx.crateName
		} else {
			sourceCrate = idx.crate.ExternalCrateName(targetSummary.CrateID)
			if sourceCrate == "" {
				continue
			}
		}

		if use.IsGlob {
			if modulePath == sourcePath && sourceCrate == idx.crateName {
				continue // glob from self, nothing to remap
			}
			*out = append(*out, Reexport{
				LocalPrefix:  modulePath,
				SourceCrate:  sourceCrate,
				SourcePrefix: sourcePath,
			})
			continue
		}

		localPath := modulePath + "::" + use.Name
		if localPath == sourcePath && sourceCrate == idx.crateName {
			continue // not a real re-export
		}
		*out = append(*out, Reexport{
			LocalPrefix:  localPath,
			SourceCrate:  sourceCrate,
			SourcePrefix: sourcePath,
		})

		if sourceCrate == idx.crateName {
			if d, ok := idx.byPath[sourcePath]; ok {
				if _, taken := idx.byPath[localPath]; !taken {
					idx.byPath[localPath] = d
				}
			}
		}
	}
}
