// Package tree holds the pure checklist-tree logic: reshaping the flat
// id->item mapping into an ordered forest and back, propagating check-state
// changes through the hierarchy, and evaluating the partial-check state.
//
// All functions treat their inputs as immutable and return fresh structures;
// callers persist the results.
package tree

import (
	"sort"

	"preflight-cli/internal/model"
)

// Node wraps one item plus its ordered children.
type Node struct {
	model.ChecklistItem
	Children []*Node
}

// BuildForest converts a flat id->item mapping into a rooted forest ordered
// by sibling rank. An item whose ParentID is nil, or references an id not in
// the mapping, becomes a root (orphaned parents degrade gracefully).
// Ties on Order break by id so equal inputs always yield identical output.
func BuildForest(items map[string]model.ChecklistItem) []*Node {
	nodes := make(map[string]*Node, len(items))
	flat := make([]model.ChecklistItem, 0, len(items))
	for _, it := range items {
		nodes[it.ID] = &Node{ChecklistItem: it}
		flat = append(flat, it)
	}
	sort.SliceStable(flat, func(i, j int) bool {
		if flat[i].Order != flat[j].Order {
			return flat[i].Order < flat[j].Order
		}
		return flat[i].ID < flat[j].ID
	})

	roots := make([]*Node, 0, len(flat))
	for _, it := range flat {
		n := nodes[it.ID]
		if it.ParentID != nil {
			if p, ok := nodes[*it.ParentID]; ok && p != n {
				p.Children = append(p.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	return roots
}

// Flatten reconstructs the flat id->item mapping from a forest. It is the
// inverse of BuildForest for any acyclic input.
func Flatten(nodes []*Node) map[string]model.ChecklistItem {
	out := make(map[string]model.ChecklistItem)
	var walk func(ns []*Node)
	walk = func(ns []*Node) {
		for _, n := range ns {
			out[n.ID] = n.ChecklistItem
			walk(n.Children)
		}
	}
	walk(nodes)
	return out
}

// RootIDs returns the ids of the root items in display order.
func RootIDs(items map[string]model.ChecklistItem) []string {
	roots := BuildForest(items)
	out := make([]string, 0, len(roots))
	for _, n := range roots {
		out = append(out, n.ID)
	}
	return out
}
