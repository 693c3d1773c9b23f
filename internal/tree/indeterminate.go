package tree

import "preflight-cli/internal/model"

// Indeterminate reports whether an item needs partial-state visual
// treatment. An item with no children is never indeterminate; otherwise it
// is indeterminate iff some but not all direct children are checked, or any
// direct child is itself indeterminate. The predicate works on the persisted
// Checked values as-is, so it gives sensible answers for states that were
// not produced by Toggle (e.g. freshly imported data).
//
// Cyclic parent references terminate the walk instead of recursing forever;
// a revisited node contributes false.
func Indeterminate(items map[string]model.ChecklistItem, itemID string) bool {
	return indeterminate(items, itemID, map[string]bool{})
}

func indeterminate(items map[string]model.ChecklistItem, itemID string, visited map[string]bool) bool {
	if visited[itemID] {
		return false
	}
	visited[itemID] = true

	total := 0
	checked := 0
	childIndeterminate := false
	for id, it := range items {
		if it.ParentID == nil || *it.ParentID != itemID {
			continue
		}
		total++
		if it.Checked {
			checked++
		}
		if indeterminate(items, id, visited) {
			childIndeterminate = true
		}
	}
	if total == 0 {
		return false
	}
	return (checked > 0 && checked < total) || childIndeterminate
}
