package workbook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/xuri/excelize/v2"

	"github.com/ternarybob/cdr-admin-test/internal/common"
)

// ErrNotWorkbook is returned when a report answers with something other
// than a spreadsheet.
var ErrNotWorkbook = errors.New("response is not a workbook")

// FailureFile receives the raw response when a workbook cannot be parsed.
const FailureFile = "excel-failure.html"

// Getter fetches a URL and returns the body, or nil on failure.
type Getter interface {
	Fetch(ctx context.Context, rawURL string) []byte
}

// Fetcher downloads Excel reports.
type Fetcher struct {
	http   Getter
	config *common.TestConfig
	dir    string
	logger arbor.ILogger
}

// NewFetcher creates a Fetcher writing any saved or failed responses into dir.
func NewFetcher(getter Getter, config *common.TestConfig, dir string, logger arbor.ILogger) *Fetcher {
	if dir == "" {
		dir = "."
	}
	return &Fetcher{http: getter, config: config, dir: dir, logger: logger}
}

// Fetch retrieves a workbook. With params, scriptOrURL names a CGI script
// and the session token is added to the query when the params lack one;
// without params, scriptOrURL is used as the full URL. When save is set the
// response is kept on disk under the script's name.
func (f *Fetcher) Fetch(ctx context.Context, scriptOrURL string, params url.Values, save bool) (*Workbook, error) {
	target := scriptOrURL
	if params != nil {
		target = f.config.CGIURL(scriptOrURL, params)
	}

	body := f.http.Fetch(ctx, target)
	if body == nil {
		return nil, fmt.Errorf("no response from %s", scriptOrURL)
	}

	if save {
		name := workbookName(target)
		if err := f.write(name, body); err != nil {
			f.logger.Warn().Err(err).Str("file", name).Msg("Failed to save workbook")
		}
	}

	file, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		if !save {
			if werr := f.write(FailureFile, body); werr != nil {
				f.logger.Warn().Err(werr).Msg("Failed to save workbook failure response")
			}
		}
		f.logger.Error().Err(err).Str("url", target).Msg("Workbook parse failed")
		return nil, fmt.Errorf("%w: %v", ErrNotWorkbook, err)
	}
	return &Workbook{file: file}, nil
}

func (f *Fetcher) write(name string, body []byte) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(f.dir, name), body, 0644)
}

// workbookName derives a file name from the script in target.
func workbookName(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return "workbook.xlsx"
	}
	base := strings.TrimSuffix(path.Base(u.Path), path.Ext(u.Path))
	if base == "" || base == "." || base == "/" {
		base = "workbook"
	}
	return base + ".xlsx"
}
