package tree

import (
	"time"

	"preflight-cli/internal/model"
)

// Toggle sets the checked state of one item and propagates it through the
// forest: every transitive descendant is forced to the same state, and each
// ancestor is recomputed as "checked iff all direct children are checked",
// up to the root.
//
// The input mapping is not mutated; a fresh mapping is returned. Items set
// to checked always get CompletedAt stamped with now, including items that
// were already checked (re-toggling refreshes the timestamp but never
// changes any Checked value).
func Toggle(items map[string]model.ChecklistItem, itemID string, checked bool, now time.Time) (map[string]model.ChecklistItem, error) {
	if _, ok := items[itemID]; !ok {
		return nil, NotFoundError{Kind: "item", ID: itemID}
	}
	ms := now.UnixMilli()

	next := make(map[string]model.ChecklistItem, len(items))
	for id, it := range items {
		next[id] = it
	}

	set := func(id string) {
		it := next[id]
		it.Checked = checked
		if checked {
			t := ms
			it.CompletedAt = &t
		} else {
			it.CompletedAt = nil
		}
		next[id] = it
	}
	set(itemID)

	// Downward: descendants cannot disagree with an explicitly toggled
	// ancestor. The visited set guards against cyclic parent references.
	visited := map[string]bool{itemID: true}
	var down func(parentID string)
	down = func(parentID string) {
		for id, it := range next {
			if it.ParentID != nil && *it.ParentID == parentID && !visited[id] {
				visited[id] = true
				set(id)
				down(id)
			}
		}
	}
	down(itemID)

	// Upward: recompute each ancestor from its direct children, stopping at
	// the root. The seen set guards against cyclic parent references.
	seen := map[string]bool{itemID: true}
	parent := next[itemID].ParentID
	for parent != nil {
		pid := *parent
		if seen[pid] {
			break
		}
		seen[pid] = true

		p, ok := next[pid]
		if !ok {
			// Orphaned parent reference; nothing above to recompute.
			break
		}
		all := true
		for _, it := range next {
			if it.ParentID != nil && *it.ParentID == pid && !it.Checked {
				all = false
				break
			}
		}
		p.Checked = all
		if all {
			t := ms
			p.CompletedAt = &t
		} else {
			p.CompletedAt = nil
		}
		next[pid] = p
		parent = p.ParentID
	}

	return next, nil
}
