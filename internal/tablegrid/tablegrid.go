// Package tablegrid flattens HTML tables into tab-separated text, resolving
// rowspan and colspan attributes into a full occupancy grid.
package tablegrid

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Cell is one table cell, possibly occupying several grid positions.
type Cell struct {
	node   *html.Node
	header bool

	// Colspan and Rowspan are the cell's grid extent, at least 1.
	Colspan int
	Rowspan int

	text     string
	haveText bool
}

// IsHeader reports whether the cell came from a <th> element.
func (c *Cell) IsHeader() bool {
	return c.header
}

// String returns the cell's concatenated text content, whitespace-stripped
// per text node. The result is cached.
func (c *Cell) String() string {
	if !c.haveText {
		var b strings.Builder
		collectText(c.node, &b)
		c.text = b.String()
		c.haveText = true
	}
	return c.text
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(strings.TrimSpace(n.Data))
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, b)
	}
}

// position is one (row, column) slot of the grid.
type position struct {
	Y int
	X int
}

// Table is the resolved grid of one <table> element. A cell with rowspan or
// colspan occupies every position it covers.
type Table struct {
	grid map[position]*Cell
}

// At returns the cell covering row y, column x.
func (t *Table) At(y, x int) (*Cell, bool) {
	c, ok := t.grid[position{y, x}]
	return c, ok
}

// String renders the table as TSV. Each grid position contributes its cell's
// text, so spanned cells repeat across the positions they cover; fully empty
// row indexes become blank lines.
func (t *Table) String() string {
	keys := make([]position, 0, len(t.grid))
	for p := range t.grid {
		keys = append(keys, p)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Y != keys[j].Y {
			return keys[i].Y < keys[j].Y
		}
		return keys[i].X < keys[j].X
	})

	var lines []string
	var words []string
	prevY := 0
	for _, p := range keys {
		if p.Y != prevY && words != nil {
			lines = append(lines, strings.Join(words, "\t"))
			for gap := prevY + 1; gap < p.Y; gap++ {
				lines = append(lines, "")
			}
			words = nil
		}
		words = append(words, t.grid[p].String())
		prevY = p.Y
	}
	if words != nil {
		lines = append(lines, strings.Join(words, "\t"))
	}

	return strings.Join(lines, "\n")
}

// ParseTables parses an HTML document and resolves every <table> in it.
func ParseTables(r io.Reader) ([]*Table, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var tables []*Table
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" {
			tables = append(tables, resolveTable(n))
		}
		// A table nested inside a cell is reported as its own table too.
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return tables, nil
}

// resolveTable lays the rows of a table (its tbody when present) into the
// occupancy grid. New cells slide right past positions already claimed by a
// rowspan from an earlier row.
func resolveTable(table *html.Node) *Table {
	body := table
	for child := table.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.Data == "tbody" {
			body = child
			break
		}
	}

	t := &Table{grid: make(map[position]*Cell)}
	y := 0
	for row := body.FirstChild; row != nil; row = row.NextSibling {
		if row.Type != html.ElementNode || row.Data != "tr" {
			continue
		}

		x := 0
		for node := row.FirstChild; node != nil; node = node.NextSibling {
			if node.Type != html.ElementNode || (node.Data != "td" && node.Data != "th") {
				continue
			}
			for {
				if _, taken := t.grid[position{y, x}]; !taken {
					break
				}
				x++
			}

			cell := &Cell{
				node:    node,
				header:  node.Data == "th",
				Colspan: intAttr(node, "colspan", 1),
				Rowspan: intAttr(node, "rowspan", 1),
			}
			for dy := 0; dy < cell.Rowspan; dy++ {
				for dx := 0; dx < cell.Colspan; dx++ {
					t.grid[position{y + dy, x + dx}] = cell
				}
			}
			x += cell.Colspan
		}
		y++
	}
	return t
}

func intAttr(n *html.Node, name string, def int) int {
	for _, attr := range n.Attr {
		if attr.Key == name {
			if v, err := strconv.Atoi(strings.TrimSpace(attr.Val)); err == nil && v > 0 {
				return v
			}
			return def
		}
	}
	return def
}
