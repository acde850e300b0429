// Package report collects report items published by stages and renders
// them into a document once a run has finished.
package report

import (
	"fmt"
	"html"
	"strings"
)

type Kind string

const (
	KindMarkdown Kind = "markdown"
	KindCode     Kind = "code"
)

// Item is one section of a report.
type Item struct {
	Header      string
	Description string
	Content     string
	Kind        Kind
	Meta        map[string]any
}

// Items is the ordered item sequence shared by every stage of a run.
type Items struct {
	items []Item
}

func NewItems() *Items {
	return &Items{}
}

func (s *Items) Append(items ...Item) {
	s.items = append(s.items, items...)
}

// All returns a copy of the items in append order.
func (s *Items) All() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Reset drops every item so the sequence can be reused by another run.
func (s *Items) Reset() {
	s.items = nil
}

func (s *Items) Len() int {
	return len(s.items)
}

func Markdown(hdr, desc, content string) Item {
	return Item{Header: hdr, Description: desc, Content: content, Kind: KindMarkdown}
}

// Image embeds one or more saved images.
func Image(hdr, desc string, paths ...string) Item {
	divs := make([]string, 0, len(paths))
	for _, p := range paths {
		divs = append(divs, fmt.Sprintf(`<div><img align="left" src="%s"></div>`, html.EscapeString(p)))
	}
	return Markdown(hdr, desc, strings.Join(divs, "\n"))
}

// Table renders columns and rows as an HTML table.
func Table(hdr, desc string, columns []string, rows [][]string) Item {
	var b strings.Builder
	b.WriteString("<table>\n<thead><tr>")
	for _, c := range columns {
		fmt.Fprintf(&b, "<th>%s</th>", html.EscapeString(c))
	}
	b.WriteString("</tr></thead>\n<tbody>\n")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			fmt.Fprintf(&b, "<td>%s</td>", html.EscapeString(cell))
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</tbody>\n</table>")
	return Markdown(hdr, desc, b.String())
}

// Code is a code cell whose input is hidden in the rendered document.
func Code(hdr, desc, src string) Item {
	return Item{
		Header:      hdr,
		Description: desc,
		Content:     src,
		Kind:        KindCode,
		Meta:        map[string]any{"tags": []string{"hide_input"}},
	}
}
