package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const styleSource = `from IPython.display import HTML, display
display(HTML("""
<style>
img {
    display: block;
    margin-left: auto;
    margin-right: auto;
}
</style>
"""))`

// Params are the presentation options for a rendered report.
type Params struct {
	Title       string `yaml:"title"`
	Tagline     string `yaml:"tagline"`
	Description string `yaml:"description"`
	ReportFn    string `yaml:"report_fn"`
	// Required makes a render failure fail the run.
	Required bool `yaml:"required"`
}

// Renderer turns report items into a document and returns its path.
type Renderer interface {
	Render(items []Item, p Params) (string, error)
}

// Notebook writes a notebook-format document plus a Markdown copy under Dir.
type Notebook struct {
	Dir string
	Now func() time.Time
}

func NewNotebook(dir string) *Notebook {
	return &Notebook{Dir: dir, Now: time.Now}
}

type cell struct {
	CellType       string         `json:"cell_type"`
	Metadata       map[string]any `json:"metadata"`
	Source         []string       `json:"source"`
	Outputs        []any          `json:"outputs,omitempty"`
	ExecutionCount *int           `json:"execution_count,omitempty"`
}

type notebook struct {
	Cells         []cell         `json:"cells"`
	Metadata      map[string]any `json:"metadata"`
	NBFormat      int            `json:"nbformat"`
	NBFormatMinor int            `json:"nbformat_minor"`
}

func newCell(kind Kind, meta map[string]any, source ...string) cell {
	if meta == nil {
		meta = map[string]any{}
	}
	c := cell{CellType: string(kind), Metadata: meta, Source: source}
	if kind == KindCode {
		zero := 0
		c.Outputs = []any{}
		c.ExecutionCount = &zero
	}
	return c
}

func (n *Notebook) Render(items []Item, p Params) (string, error) {
	now := n.Now()
	if p.Title == "" {
		p.Title = "experiment"
	}
	if p.Description == "" {
		p.Description = "insert experiment description."
	}
	if p.ReportFn == "" {
		p.ReportFn = fmt.Sprintf("%s-%s", p.Title, now.Format("20060102-150405"))
	}
	written := "Written " + now.Format("January 02, 2006")

	nb := notebook{
		Metadata:      map[string]any{},
		NBFormat:      4,
		NBFormatMinor: 5,
	}
	nb.Cells = append(nb.Cells,
		newCell(KindCode, map[string]any{"tags": []string{"hide_input"}}, styleSource),
		newCell(KindMarkdown, nil,
			fmt.Sprintf("<h1>%s</h1>\n", p.Title),
			fmt.Sprintf("<i>%s</i>\n", p.Tagline),
			"\n",
			fmt.Sprintf("%s\n", p.Description),
			"\n",
			written+"\n",
		),
	)

	var md strings.Builder
	fmt.Fprintf(&md, "# %s\n\n", p.Title)
	if p.Tagline != "" {
		fmt.Fprintf(&md, "_%s_\n\n", p.Tagline)
	}
	fmt.Fprintf(&md, "%s\n\n%s\n", p.Description, written)

	for _, it := range items {
		kind := it.Kind
		if kind == "" {
			kind = KindMarkdown
		}
		nb.Cells = append(nb.Cells,
			newCell(KindMarkdown, nil,
				fmt.Sprintf("<h2>%s</h2>", it.Header), "\n\n", "---", "\n",
				fmt.Sprintf("\n<i>Item Description:</i> %s\n", it.Description),
			),
			newCell(kind, it.Meta, it.Content),
		)

		fmt.Fprintf(&md, "\n## %s\n\n---\n\n*Item Description:* %s\n\n", it.Header, it.Description)
		if kind == KindCode {
			fmt.Fprintf(&md, "```\n%s\n```\n", it.Content)
		} else {
			fmt.Fprintf(&md, "%s\n", it.Content)
		}
	}

	dir := filepath.Join(n.Dir, p.ReportFn)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report dir: %w", err)
	}
	raw, err := json.MarshalIndent(nb, "", "    ")
	if err != nil {
		return "", fmt.Errorf("encoding notebook: %w", err)
	}
	nbPath := filepath.Join(dir, p.ReportFn+".ipynb")
	if err := os.WriteFile(nbPath, raw, 0o644); err != nil {
		return "", fmt.Errorf("writing notebook: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, p.ReportFn+".md"), []byte(md.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing markdown: %w", err)
	}
	return nbPath, nil
}
