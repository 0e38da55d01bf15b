package tablegrid

import (
	"strings"
	"testing"
)

func parseOne(t *testing.T, doc string) *Table {
	t.Helper()
	tables, err := ParseTables(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseTables failed: %v", err)
	}
	if len(tables) != 1 {
		t.Fatalf("Expected 1 table, got %d", len(tables))
	}
	return tables[0]
}

// ==================== Grid Resolution Tests ====================

func TestSimpleTable(t *testing.T) {
	table := parseOne(t, `<table>
		<tr><th>Name</th><th>Year</th></tr>
		<tr><td>Akira</td><td>1988</td></tr>
	</table>`)

	if got := table.String(); got != "Name\tYear\nAkira\t1988" {
		t.Errorf("String() = %q", got)
	}

	cell, ok := table.At(0, 0)
	if !ok || !cell.IsHeader() {
		t.Errorf("At(0,0) = %v, %v", cell, ok)
	}
	cell, ok = table.At(1, 1)
	if !ok || cell.IsHeader() || cell.String() != "1988" {
		t.Errorf("At(1,1) = %v, %v", cell, ok)
	}
}

func TestRowspanFillsFollowingRows(t *testing.T) {
	table := parseOne(t, `<table>
		<tr><td rowspan="2">a</td><td>b</td></tr>
		<tr><td>c</td></tr>
	</table>`)

	// The second row's first column is claimed by the rowspan, so "c"
	// lands in column 1.
	if got := table.String(); got != "a\tb\na\tc" {
		t.Errorf("String() = %q", got)
	}

	top, _ := table.At(0, 0)
	bottom, ok := table.At(1, 0)
	if !ok || bottom != top {
		t.Error("Rowspan cell should cover both rows")
	}
}

func TestColspanRepeatsAcrossColumns(t *testing.T) {
	table := parseOne(t, `<table>
		<tr><th colspan="2">wide</th><th>x</th></tr>
		<tr><td>1</td><td>2</td><td>3</td></tr>
	</table>`)

	if got := table.String(); got != "wide\twide\tx\n1\t2\t3" {
		t.Errorf("String() = %q", got)
	}
}

func TestNestedMarkupAndTbody(t *testing.T) {
	table := parseOne(t, `<table><tbody>
		<tr><td><a href="/wiki/X"> Linked </a><b>text</b></td></tr>
	</tbody></table>`)

	cell, ok := table.At(0, 0)
	if !ok {
		t.Fatal("At(0,0) missing")
	}
	if cell.String() != "Linkedtext" {
		t.Errorf("Cell text = %q", cell.String())
	}
}

func TestInvalidSpanAttributeFallsBack(t *testing.T) {
	table := parseOne(t, `<table>
		<tr><td colspan="bogus">a</td><td>b</td></tr>
	</table>`)

	if got := table.String(); got != "a\tb" {
		t.Errorf("String() = %q", got)
	}
}

func TestNestedTableIsReportedSeparately(t *testing.T) {
	tables, err := ParseTables(strings.NewReader(
		`<table><tr><td>outer<table><tr><td>inner</td></tr></table></td></tr></table>`))
	if err != nil {
		t.Fatalf("ParseTables failed: %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("Expected outer and inner tables, got %d", len(tables))
	}
	// The outer cell's text includes the nested table's content; the nested
	// table is still resolved on its own.
	if got := tables[0].String(); got != "outerinner" {
		t.Errorf("Outer table = %q", got)
	}
	if got := tables[1].String(); got != "inner" {
		t.Errorf("Inner table = %q", got)
	}
}

func TestMultipleTables(t *testing.T) {
	tables, err := ParseTables(strings.NewReader(
		`<div><table><tr><td>first</td></tr></table>
		<table><tr><td>second</td></tr></table></div>`))
	if err != nil {
		t.Fatalf("ParseTables failed: %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("Expected 2 tables, got %d", len(tables))
	}
	if tables[1].String() != "second" {
		t.Errorf("Second table = %q", tables[1].String())
	}
}
