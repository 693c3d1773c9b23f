// Package exchange encodes and decodes the versioned workspace export
// document. The document carries one workspace with its templates, items and
// records; Decode validates the whole document before the caller writes
// anything, so a malformed file leaves the store untouched.
package exchange

import (
	"encoding/json"
	"fmt"
	"time"

	"preflight-cli/internal/model"
	"preflight-cli/internal/tree"
)

// Version is the only document version this build reads or writes.
const Version = "1.0"

// Meta is the document's version block.
type Meta struct {
	Version    string `json:"version"`
	ExportedAt string `json:"exportedAt"`
}

// Document is the export file shape. Meta and Workspace are pointers so
// Decode can tell a missing block from a zero-valued one.
type Document struct {
	Preflight *Meta                   `json:"preflight"`
	Workspace *model.Workspace        `json:"workspace"`
	Templates []model.Template        `json:"templates"`
	Items     []model.ChecklistItem   `json:"items"`
	Records   []model.PreflightRecord `json:"records"`
}

// ValidationError rejects a document before any of it is applied.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return "invalid export document: " + e.Reason
}

// Encode builds the export document for one workspace. Each template's
// itemIds field is derived from its items' parent/order fields; the persisted
// value is advisory only.
func Encode(ws model.Workspace, templates []model.Template, items []model.ChecklistItem, records []model.PreflightRecord, now time.Time) Document {
	byTemplate := map[string]map[string]model.ChecklistItem{}
	for _, it := range items {
		m, ok := byTemplate[it.TemplateID]
		if !ok {
			m = map[string]model.ChecklistItem{}
			byTemplate[it.TemplateID] = m
		}
		m[it.ID] = it
	}
	out := make([]model.Template, len(templates))
	for i, t := range templates {
		t.ItemIDs = tree.RootIDs(byTemplate[t.ID])
		if t.ItemIDs == nil {
			t.ItemIDs = []string{}
		}
		out[i] = t
	}
	if records == nil {
		records = []model.PreflightRecord{}
	}
	if items == nil {
		items = []model.ChecklistItem{}
	}
	return Document{
		Preflight: &Meta{Version: Version, ExportedAt: now.UTC().Format(time.RFC3339)},
		Workspace: &ws,
		Templates: out,
		Items:     items,
		Records:   records,
	}
}

// EncodeJSON renders the document with stable indentation for files.
func EncodeJSON(doc Document) ([]byte, error) {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// Decode parses and validates an export document. Records may be absent and
// default to empty; everything else is required.
func Decode(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, ValidationError{Reason: fmt.Sprintf("not valid JSON: %v", err)}
	}
	if doc.Preflight == nil {
		return Document{}, ValidationError{Reason: "missing preflight version block"}
	}
	if doc.Preflight.Version != Version {
		return Document{}, ValidationError{Reason: fmt.Sprintf("unsupported version %q (want %q)", doc.Preflight.Version, Version)}
	}
	if doc.Workspace == nil {
		return Document{}, ValidationError{Reason: "missing workspace"}
	}
	if doc.Workspace.ID == "" {
		return Document{}, ValidationError{Reason: "workspace has no id"}
	}
	if doc.Templates == nil {
		return Document{}, ValidationError{Reason: "missing templates"}
	}
	if doc.Items == nil {
		return Document{}, ValidationError{Reason: "missing items"}
	}
	for _, t := range doc.Templates {
		if t.ID == "" {
			return Document{}, ValidationError{Reason: "template has no id"}
		}
	}
	seen := map[string]bool{}
	for _, it := range doc.Items {
		if it.ID == "" {
			return Document{}, ValidationError{Reason: "item has no id"}
		}
		if seen[it.ID] {
			return Document{}, ValidationError{Reason: fmt.Sprintf("duplicate item id %q", it.ID)}
		}
		seen[it.ID] = true
	}
	if doc.Records == nil {
		doc.Records = []model.PreflightRecord{}
	}
	for _, r := range doc.Records {
		if r.ID == "" {
			return Document{}, ValidationError{Reason: "record has no id"}
		}
	}
	return doc, nil
}
