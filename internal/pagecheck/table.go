package pagecheck

import (
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Table wraps one report table. Caption, headers and rows are read on first
// use and not re-read afterwards.
type Table struct {
	node *goquery.Selection

	captionOnce sync.Once
	caption     string
	headersOnce sync.Once
	headers     []string
	rowsOnce    sync.Once
	rows        [][]string
}

// NewTable wraps a table node.
func NewTable(node *goquery.Selection) *Table {
	return &Table{node: node}
}

// Node exposes the underlying selection.
func (t *Table) Node() *goquery.Selection {
	return t.node
}

func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// Caption is the table's caption text.
func (t *Table) Caption() string {
	t.captionOnce.Do(func() {
		t.caption = cellText(t.node.ChildrenFiltered("caption").First())
	})
	return t.caption
}

// Headers flattens every th in the table head.
func (t *Table) Headers() []string {
	t.headersOnce.Do(func() {
		t.node.ChildrenFiltered("thead").Find("th").Each(func(_ int, th *goquery.Selection) {
			t.headers = append(t.headers, cellText(th))
		})
	})
	return t.headers
}

// Rows returns the td text of every row in the table body.
func (t *Table) Rows() [][]string {
	t.rowsOnce.Do(func() {
		t.node.ChildrenFiltered("tbody").ChildrenFiltered("tr").Each(func(_ int, tr *goquery.Selection) {
			var row []string
			tr.ChildrenFiltered("td").Each(func(_ int, td *goquery.Selection) {
				row = append(row, cellText(td))
			})
			t.rows = append(t.rows, row)
		})
	})
	return t.rows
}

// CheckHeaders asserts that the headers read, by position, as expected.
func (t *Table) CheckHeaders(tt TestingT, expected ...string) {
	tt.Helper()
	headers := t.Headers()
	if len(headers) < len(expected) {
		tt.Errorf("expected %d headers, found %d: %q", len(expected), len(headers), headers)
		tt.FailNow()
		return
	}
	for i, want := range expected {
		if headers[i] != want {
			tt.Errorf("header %d is %q, expected %q", i+1, headers[i], want)
			tt.FailNow()
			return
		}
	}
}
