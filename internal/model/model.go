package model

// Timestamps are epoch milliseconds throughout; the export format and the
// persisted JSON blobs use the same representation.

type Workspace struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Order     int    `json:"order"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

type Template struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspaceId"`
	Name        string `json:"name"`
	Order       int    `json:"order"`
	Pilot       string `json:"pilot"`
	Description string `json:"description"`
	CreatedAt   int64  `json:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt"`

	// ItemIDs is advisory (root item ids in display order). The authoritative
	// order and hierarchy live on each item's ParentID/Order; this is only
	// populated when building an export document.
	ItemIDs []string `json:"itemIds"`
}

// ChecklistItem is one checklist node. Items form a forest per scope
// (ParentID nil = root); Order is a sibling rank, not globally unique.
type ChecklistItem struct {
	ID          string  `json:"id"`
	TemplateID  string  `json:"templateId"`
	ParentID    *string `json:"parentId"`
	Text        string  `json:"text"`
	Checked     bool    `json:"checked"`
	Order       int     `json:"order"`
	CompletedAt *int64  `json:"completedAt,omitempty"`
}

// PreflightRecord is one timed execution of a template. Items is a snapshot
// copy taken at start time; later template edits never reach it.
type PreflightRecord struct {
	ID          string                   `json:"id"`
	TemplateID  string                   `json:"templateId"`
	Name        string                   `json:"name"`
	Pilot       string                   `json:"pilot"`
	CreatedAt   int64                    `json:"createdAt"`
	CompletedAt *int64                   `json:"completedAt,omitempty"`
	ElapsedMs   int64                    `json:"elapsedMs"`
	IsPaused    bool                     `json:"isPaused"`
	ResumedAt   *int64                   `json:"resumedAt,omitempty"`
	UpdatedAt   *int64                   `json:"updatedAt,omitempty"`
	Items       map[string]ChecklistItem `json:"items"`
}

// Elapsed returns the total elapsed time in milliseconds as of nowMs,
// including the currently running span when the timer is not paused.
func (r PreflightRecord) Elapsed(nowMs int64) int64 {
	if r.IsPaused || r.ResumedAt == nil {
		return r.ElapsedMs
	}
	running := nowMs - *r.ResumedAt
	if running < 0 {
		running = 0
	}
	return r.ElapsedMs + running
}
