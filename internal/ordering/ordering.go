// Package ordering merges saved manual arrangements into freshly scanned
// navigation lists.
package ordering

import "git.home.luguber.info/inful/prev/internal/docs"

// RootBranch keys the order of the top navigation level.
const RootBranch = "root"

// Record maps a branch key (RootBranch or a folder path) to item identifiers.
type Record map[string][]string

// Identified is anything with a stable ordering identifier.
type Identified interface {
	ID() string
}

// ItemID returns the ordering identifier of a navigation node.
func ItemID(n docs.NavNode) string {
	return n.ID()
}

// ComputeOrder returns the identifiers of items in their current order.
func ComputeOrder[T Identified](items []T) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID())
	}
	return ids
}

// ApplyOrder emits items named in saved first, in saved order, then every
// remaining item in its original order. Unknown and repeated identifiers in
// saved are skipped. The input slice is not modified.
func ApplyOrder[T Identified](items []T, saved []string) []T {
	if len(saved) == 0 {
		return append([]T(nil), items...)
	}

	byID := make(map[string]int, len(items))
	for i, it := range items {
		if _, dup := byID[it.ID()]; !dup {
			byID[it.ID()] = i
		}
	}

	out := make([]T, 0, len(items))
	used := make([]bool, len(items))
	for _, id := range saved {
		i, ok := byID[id]
		if !ok || used[i] {
			continue
		}
		used[i] = true
		out = append(out, items[i])
	}
	for i, it := range items {
		if !used[i] {
			out = append(out, it)
		}
	}
	return out
}

// ApplyTree orders a navigation tree: the top level by record[RootBranch]
// and each folder's children by record[folder.Path]. Branches are ordered
// independently.
func ApplyTree(nodes []docs.NavNode, record Record) []docs.NavNode {
	return applyBranch(nodes, record, RootBranch)
}

func applyBranch(nodes []docs.NavNode, record Record, key string) []docs.NavNode {
	ordered := ApplyOrder(nodes, record[key])
	for i := range ordered {
		if ordered[i].Kind == docs.NavFolder {
			ordered[i].Children = applyBranch(ordered[i].Children, record, ordered[i].Path)
		}
	}
	return ordered
}
