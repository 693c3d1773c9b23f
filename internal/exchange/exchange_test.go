package exchange

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"preflight-cli/internal/model"
)

func sampleDoc() Document {
	ws := model.Workspace{ID: "ws1", Name: "Hangar", CreatedAt: 1, UpdatedAt: 1}
	tpl := model.Template{ID: "t1", WorkspaceID: "ws1", Name: "Walkaround", Pilot: "Ada", CreatedAt: 1, UpdatedAt: 1}
	parent := "i1"
	items := []model.ChecklistItem{
		{ID: "i2", TemplateID: "t1", ParentID: &parent, Text: "child", Order: 0},
		{ID: "i1", TemplateID: "t1", Text: "root b", Order: 1},
		{ID: "i0", TemplateID: "t1", Text: "root a", Order: 0},
	}
	return Encode(ws, []model.Template{tpl}, items, nil, time.Unix(1700000000, 0))
}

func TestEncodeDerivesRootItemIDs(t *testing.T) {
	doc := sampleDoc()

	require.NotNil(t, doc.Preflight)
	assert.Equal(t, "1.0", doc.Preflight.Version)
	assert.Equal(t, "2023-11-14T22:13:20Z", doc.Preflight.ExportedAt)

	require.Len(t, doc.Templates, 1)
	// Only roots appear, in order rank, not the nested child.
	assert.Equal(t, []string{"i0", "i1"}, doc.Templates[0].ItemIDs)
	assert.NotNil(t, doc.Records)
}

func TestEncodeEmptyTemplateGetsEmptyItemIDs(t *testing.T) {
	ws := model.Workspace{ID: "ws1", Name: "x"}
	tpl := model.Template{ID: "t1", WorkspaceID: "ws1", Name: "empty"}
	doc := Encode(ws, []model.Template{tpl}, nil, nil, time.Now())
	require.Len(t, doc.Templates, 1)
	assert.Equal(t, []string{}, doc.Templates[0].ItemIDs)
	assert.NotNil(t, doc.Items)
}

func TestRoundTrip(t *testing.T) {
	doc := sampleDoc()
	raw, err := EncodeJSON(doc)
	require.NoError(t, err)

	got, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, doc.Workspace.ID, got.Workspace.ID)
	assert.Len(t, got.Items, 3)
	assert.Equal(t, doc.Templates[0].ItemIDs, got.Templates[0].ItemIDs)
}

func TestDecodeRejectsWrongVersion(t *testing.T) {
	doc := sampleDoc()
	doc.Preflight.Version = "2.0"
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	_, err = Decode(raw)
	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Error(), "2.0")
}

func TestDecodeRejectsMissingBlocks(t *testing.T) {
	cases := map[string]string{
		"no meta":      `{"workspace":{"id":"w"},"templates":[],"items":[]}`,
		"no workspace": `{"preflight":{"version":"1.0","exportedAt":"x"},"templates":[],"items":[]}`,
		"no templates": `{"preflight":{"version":"1.0","exportedAt":"x"},"workspace":{"id":"w"},"items":[]}`,
		"no items":     `{"preflight":{"version":"1.0","exportedAt":"x"},"workspace":{"id":"w"},"templates":[]}`,
		"empty ws id":  `{"preflight":{"version":"1.0","exportedAt":"x"},"workspace":{"id":""},"templates":[],"items":[]}`,
		"not json":     `{`,
	}
	for name, raw := range cases {
		_, err := Decode([]byte(raw))
		var ve ValidationError
		assert.ErrorAs(t, err, &ve, name)
	}
}

func TestDecodeRejectsDuplicateItemIDs(t *testing.T) {
	raw := `{"preflight":{"version":"1.0","exportedAt":"x"},"workspace":{"id":"w"},"templates":[],` +
		`"items":[{"id":"a","templateId":"t","text":"","order":0},{"id":"a","templateId":"t","text":"","order":1}]}`
	_, err := Decode([]byte(raw))
	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Error(), "duplicate")
}

func TestDecodeDefaultsRecords(t *testing.T) {
	raw := `{"preflight":{"version":"1.0","exportedAt":"x"},"workspace":{"id":"w","name":"n"},"templates":[],"items":[]}`
	doc, err := Decode([]byte(raw))
	require.NoError(t, err)
	assert.NotNil(t, doc.Records)
	assert.Empty(t, doc.Records)
}
