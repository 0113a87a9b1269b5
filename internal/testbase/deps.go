package testbase

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/cdr-admin-test/internal/cdrapi"
	"github.com/ternarybob/cdr-admin-test/internal/common"
	"github.com/ternarybob/cdr-admin-test/internal/httpclient"
	"github.com/ternarybob/cdr-admin-test/internal/services/query"
	"github.com/ternarybob/cdr-admin-test/internal/services/testdata"
	"github.com/ternarybob/cdr-admin-test/internal/services/workbook"
)

// Deps holds the collaborators shared by every test in the run. They are
// built once at startup and only read afterwards.
type Deps struct {
	Config    *common.TestConfig
	Logger    arbor.ILogger
	HTTP      *httpclient.Client
	API       *cdrapi.Client
	Query     *query.Gateway
	Workbooks *workbook.Fetcher
	TestData  *testdata.Cache
}

// NewDeps wires the collaborators for config. Forensic files (unparseable
// workbooks and test data) are written into dir.
func NewDeps(config *common.TestConfig, logger arbor.ILogger, dir string) *Deps {
	client := httpclient.NewClient(httpclient.NewInsecureHTTPClient(0), logger)
	return &Deps{
		Config:    config,
		Logger:    logger,
		HTTP:      client,
		API:       cdrapi.NewClient(client, config.APIURL(), config.Session, logger),
		Query:     query.NewGateway(client, config, logger),
		Workbooks: workbook.NewFetcher(client, config, dir, logger),
		TestData:  testdata.NewCache(client, config, dir, logger),
	}
}
