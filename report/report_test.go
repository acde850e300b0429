package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemsAppendOrder(t *testing.T) {
	items := NewItems()
	items.Append(Markdown("a", "", ""), Markdown("b", "", ""))
	items.Append(Code("c", "", "print(1)"))

	all := items.All()
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].Header, all[1].Header, all[2].Header})
	assert.Equal(t, KindCode, all[2].Kind)

	all[0].Header = "changed"
	assert.Equal(t, "a", items.All()[0].Header)
	assert.Equal(t, 3, items.Len())

	items.Reset()
	assert.Equal(t, 0, items.Len())
	assert.Empty(t, items.All())
	items.Append(Markdown("d", "", ""))
	assert.Equal(t, "d", items.All()[0].Header)
}

func TestTableAndImage(t *testing.T) {
	tbl := Table("T", "d", []string{"k", "v"}, [][]string{{"x", "<1>"}})
	assert.Contains(t, tbl.Content, "<th>k</th><th>v</th>")
	assert.Contains(t, tbl.Content, "<td>&lt;1&gt;</td>")

	img := Image("Figure", "d", "a.png", "b.png")
	assert.Contains(t, img.Content, `src="a.png"`)
	assert.Contains(t, img.Content, `src="b.png"`)
}

func TestNotebookRender(t *testing.T) {
	dir := t.TempDir()
	nb := NewNotebook(dir)
	nb.Now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	items := []Item{Markdown("Header", "desc", "body"), Code("Code", "hidden", "x = 1")}
	path, err := nb.Render(items, Params{Title: "demo", Tagline: "tag"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "demo-20240102-030405", "demo-20240102-030405.ipynb"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		Cells []struct {
			CellType string         `json:"cell_type"`
			Source   []string       `json:"source"`
			Metadata map[string]any `json:"metadata"`
		} `json:"cells"`
		NBFormat int `json:"nbformat"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, 4, doc.NBFormat)
	// style, title, then two cells per item
	require.Len(t, doc.Cells, 6)
	assert.Equal(t, "code", doc.Cells[0].CellType)
	assert.Contains(t, doc.Cells[1].Source[0], "<h1>demo</h1>")
	assert.Contains(t, doc.Cells[1].Source[5], "January 02, 2024")
	assert.Equal(t, []string{"body"}, doc.Cells[3].Source)
	assert.Equal(t, "code", doc.Cells[5].CellType)
	assert.NotNil(t, doc.Cells[5].Metadata["tags"])

	md, err := os.ReadFile(filepath.Join(dir, "demo-20240102-030405", "demo-20240102-030405.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# demo")
	assert.Contains(t, string(md), "## Header")
	assert.Contains(t, string(md), "```\nx = 1\n```")
}

func TestNotebookRenderUnwritableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := NewNotebook(blocker).Render(nil, Params{ReportFn: "r"})
	assert.Error(t, err)
}
