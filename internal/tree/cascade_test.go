package tree

import (
	"testing"
	"time"

	"preflight-cli/internal/model"
)

func strPtr(s string) *string { return &s }

func item(id string, parentID *string, checked bool, order int) model.ChecklistItem {
	return model.ChecklistItem{
		ID:         id,
		TemplateID: "tpl-1",
		ParentID:   parentID,
		Text:       id,
		Checked:    checked,
		Order:      order,
	}
}

// Parent with two children: checking one child leaves the parent unchecked,
// checking the second flips the parent.
func TestToggle_UpwardFromSiblings(t *testing.T) {
	items := map[string]model.ChecklistItem{
		"A": item("A", nil, false, 0),
		"B": item("B", strPtr("A"), false, 0),
		"C": item("C", strPtr("A"), false, 1),
	}
	now := time.Now()

	next, err := Toggle(items, "B", true, now)
	if err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	if !next["B"].Checked {
		t.Fatalf("expected B checked")
	}
	if next["A"].Checked {
		t.Fatalf("expected A unchecked while C is unchecked")
	}
	if next["C"].Checked {
		t.Fatalf("expected C untouched")
	}

	next, err = Toggle(next, "C", true, now)
	if err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	if !next["A"].Checked {
		t.Fatalf("expected A checked once all children are checked")
	}
	if next["A"].CompletedAt == nil {
		t.Fatalf("expected A completedAt set")
	}
}

func TestToggle_DownwardCompleteness(t *testing.T) {
	items := map[string]model.ChecklistItem{
		"root": item("root", nil, false, 0),
		"a":    item("a", strPtr("root"), false, 0),
		"b":    item("b", strPtr("root"), true, 1),
		"a1":   item("a1", strPtr("a"), false, 0),
		"a2":   item("a2", strPtr("a"), true, 1),
		"a1x":  item("a1x", strPtr("a1"), false, 0),
	}

	next, err := Toggle(items, "root", true, time.Now())
	if err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	for id, it := range next {
		if !it.Checked {
			t.Fatalf("expected %s checked after checking root", id)
		}
		if it.CompletedAt == nil {
			t.Fatalf("expected %s completedAt set", id)
		}
	}

	next, err = Toggle(next, "root", false, time.Now())
	if err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	for id, it := range next {
		if it.Checked {
			t.Fatalf("expected %s unchecked after unchecking root", id)
		}
		if it.CompletedAt != nil {
			t.Fatalf("expected %s completedAt cleared", id)
		}
	}
}

// Toggling an item to the state it already has must not change any Checked
// value anywhere in the forest.
func TestToggle_Idempotent(t *testing.T) {
	items := map[string]model.ChecklistItem{
		"root": item("root", nil, false, 0),
		"a":    item("a", strPtr("root"), true, 0),
		"b":    item("b", strPtr("root"), false, 1),
		"b1":   item("b1", strPtr("b"), false, 0),
	}

	next, err := Toggle(items, "a", true, time.Now())
	if err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	for id := range items {
		if next[id].Checked != items[id].Checked {
			t.Fatalf("checked state of %s changed by idempotent toggle", id)
		}
	}
}

// After any toggle, every non-leaf along the affected path satisfies
// "checked iff all direct children checked".
func TestToggle_UpwardInvariant(t *testing.T) {
	items := map[string]model.ChecklistItem{
		"r":  item("r", nil, false, 0),
		"m":  item("m", strPtr("r"), false, 0),
		"n":  item("n", strPtr("r"), true, 1),
		"m1": item("m1", strPtr("m"), false, 0),
		"m2": item("m2", strPtr("m"), true, 1),
	}

	next, err := Toggle(items, "m1", true, time.Now())
	if err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	for id, it := range next {
		all := true
		leaf := true
		for _, c := range next {
			if c.ParentID != nil && *c.ParentID == id {
				leaf = false
				if !c.Checked {
					all = false
				}
			}
		}
		if leaf {
			continue
		}
		if it.Checked != all {
			t.Fatalf("invariant broken at %s: checked=%v allChildren=%v", id, it.Checked, all)
		}
	}
	if !next["m"].Checked {
		t.Fatalf("expected m checked once m1 and m2 are checked")
	}
	if !next["r"].Checked {
		t.Fatalf("expected r checked once m and n are checked")
	}
}

func TestToggle_LeafOnlyTouchesPath(t *testing.T) {
	items := map[string]model.ChecklistItem{
		"r":  item("r", nil, false, 0),
		"a":  item("a", strPtr("r"), false, 0),
		"b":  item("b", strPtr("r"), false, 1),
		"b1": item("b1", strPtr("b"), false, 0),
	}

	next, err := Toggle(items, "a", true, time.Now())
	if err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	if next["b"].Checked || next["b1"].Checked {
		t.Fatalf("unrelated subtree must not change")
	}
}

func TestToggle_DoesNotMutateInput(t *testing.T) {
	items := map[string]model.ChecklistItem{
		"r": item("r", nil, false, 0),
		"a": item("a", strPtr("r"), false, 0),
	}

	if _, err := Toggle(items, "r", true, time.Now()); err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	if items["r"].Checked || items["a"].Checked {
		t.Fatalf("input mapping was mutated")
	}
	if items["r"].CompletedAt != nil {
		t.Fatalf("input completedAt was mutated")
	}
}

func TestToggle_UnknownItem(t *testing.T) {
	items := map[string]model.ChecklistItem{
		"r": item("r", nil, false, 0),
	}
	if _, err := Toggle(items, "missing", true, time.Now()); err == nil {
		t.Fatalf("expected error")
	} else if _, ok := err.(NotFoundError); !ok {
		t.Fatalf("expected NotFoundError; got %v", err)
	}
}

func TestToggle_CyclicParentsTerminate(t *testing.T) {
	items := map[string]model.ChecklistItem{
		"a": item("a", strPtr("b"), false, 0),
		"b": item("b", strPtr("a"), false, 0),
	}
	next, err := Toggle(items, "a", true, time.Now())
	if err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	if !next["a"].Checked {
		t.Fatalf("expected a checked")
	}
}

func TestToggle_OrphanedParentReference(t *testing.T) {
	items := map[string]model.ChecklistItem{
		"a": item("a", strPtr("gone"), false, 0),
	}
	next, err := Toggle(items, "a", true, time.Now())
	if err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	if !next["a"].Checked {
		t.Fatalf("expected a checked")
	}
}
