package testdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/cdr-admin-test/internal/common"
)

// ErrNotJSON is returned when a helper script answers with something other
// than JSON.
var ErrNotJSON = errors.New("response is not JSON")

// Getter fetches a URL and returns the body, or nil on failure.
type Getter interface {
	Fetch(ctx context.Context, rawURL string) []byte
}

type entry struct {
	raw    []byte
	parsed interface{}
}

// Cache holds the test data fetched from the helper scripts. Each type is
// fetched at most once per process; later calls return the same value.
type Cache struct {
	http   Getter
	config *common.TestConfig
	dir    string
	logger arbor.ILogger

	mu      sync.Mutex
	entries map[string]*entry
}

// NewCache creates a Cache writing unparseable responses into dir.
func NewCache(getter Getter, config *common.TestConfig, dir string, logger arbor.ILogger) *Cache {
	if dir == "" {
		dir = "."
	}
	return &Cache{
		http:    getter,
		config:  config,
		dir:     dir,
		logger:  logger,
		entries: make(map[string]*entry),
	}
}

// URL returns the helper script address for dataType.
func (c *Cache) URL(dataType string) string {
	if dataType == TypeModules {
		return c.config.CGIURL("get-summaries.py", url.Values{
			"modules-only": {"true"},
			"limit":        {"2"},
		})
	}
	return c.config.CGIURL("get-"+dataType+".py", url.Values{"limit": {"3"}})
}

func (c *Cache) load(ctx context.Context, dataType string) (*entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[dataType]; ok {
		return e, nil
	}

	target := c.URL(dataType)
	body := c.http.Fetch(ctx, target)
	if body == nil {
		return nil, fmt.Errorf("no %s test data from %s", dataType, target)
	}

	var parsed interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		name := filepath.Join(c.dir, dataType+".json")
		if werr := c.save(name, body); werr != nil {
			c.logger.Warn().Err(werr).Str("file", name).Msg("Failed to save test data response")
		}
		c.logger.Error().Err(err).Str("type", dataType).Str("file", name).Msg("Test data is not JSON")
		return nil, fmt.Errorf("%w: %s: %v", ErrNotJSON, dataType, err)
	}

	c.logger.Debug().Str("type", dataType).Int("bytes", len(body)).Msg("Test data loaded")
	e := &entry{raw: body, parsed: parsed}
	c.entries[dataType] = e
	return e, nil
}

func (c *Cache) save(name string, body []byte) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(name, body, 0644)
}

// Get returns the parsed JSON for dataType, fetching it on first use.
func (c *Cache) Get(ctx context.Context, dataType string) (interface{}, error) {
	e, err := c.load(ctx, dataType)
	if err != nil {
		return nil, err
	}
	return e.parsed, nil
}

// Load decodes the cached JSON for dataType into dst.
func (c *Cache) Load(ctx context.Context, dataType string, dst interface{}) error {
	e, err := c.load(ctx, dataType)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(e.raw, dst); err != nil {
		return fmt.Errorf("decode %s test data: %w", dataType, err)
	}
	return nil
}

// Summaries returns the published summaries.
func (c *Cache) Summaries(ctx context.Context) (Summaries, error) {
	var summaries Summaries
	err := c.Load(ctx, TypeSummaries, &summaries)
	return summaries, err
}

// Modules returns the module-only summaries.
func (c *Cache) Modules(ctx context.Context) (Summaries, error) {
	var modules Summaries
	err := c.Load(ctx, TypeModules, &modules)
	return modules, err
}

// BoardMembers returns the current board members.
func (c *Cache) BoardMembers(ctx context.Context) ([]BoardMember, error) {
	var members []BoardMember
	err := c.Load(ctx, TypeBoardMembers, &members)
	return members, err
}

// GlossaryTerms returns the most linked glossary term names.
func (c *Cache) GlossaryTerms(ctx context.Context) ([]GlossaryTerm, error) {
	var terms []GlossaryTerm
	err := c.Load(ctx, TypeGlossaryTerms, &terms)
	return terms, err
}
