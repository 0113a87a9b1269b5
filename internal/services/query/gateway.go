package query

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/cdr-admin-test/internal/common"
)

// Script is the admin page that runs ad hoc SQL.
const Script = "CdrQueries.py"

// noRows is what the query page prints for an empty result set.
const noRows = "Retrieved 0 rows"

// Poster sends form values and returns the body, or nil on failure.
type Poster interface {
	PostForm(ctx context.Context, rawURL string, values url.Values) []byte
}

// Gateway runs SQL through the query page so tests can check database
// state without a database connection. Callers quote their own literals.
type Gateway struct {
	http   Poster
	config *common.TestConfig
	logger arbor.ILogger
}

// NewGateway creates a new Gateway
func NewGateway(poster Poster, config *common.TestConfig, logger arbor.ILogger) *Gateway {
	return &Gateway{http: poster, config: config, logger: logger}
}

// Run executes sql and returns the result rows as strings.
func (g *Gateway) Run(ctx context.Context, sql string) ([][]string, error) {
	values := url.Values{
		"Session": {g.config.Session},
		"sql":     {sql},
		"Request": {"Run"},
	}
	body := g.http.PostForm(ctx, g.config.CGIURL(Script, nil), values)
	if body == nil {
		return nil, errors.New("no response from query page")
	}
	if bytes.Contains(body, []byte(noRows)) {
		g.logger.Debug().Str("sql", sql).Msg("Query returned no rows")
		return [][]string{}, nil
	}
	rows, err := ParseResultTable(body)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", sql, err)
	}
	g.logger.Debug().Str("sql", sql).Int("rows", len(rows)).Msg("Query complete")
	return rows, nil
}

// ParseResultTable returns the data cells of the first table in page.
// Header cells are skipped.
func ParseResultTable(page []byte) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse query page: %w", err)
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, errors.New("query page has no result table")
	}

	rows := [][]string{}
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}
		row := make([]string, 0, cells.Length())
		cells.Each(func(_ int, td *goquery.Selection) {
			row = append(row, strings.TrimSpace(td.Text()))
		})
		rows = append(rows, row)
	})
	return rows, nil
}
