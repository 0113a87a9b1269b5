package cdrapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/cdr-admin-test/internal/common"
)

// Doer sends a pre-built request and returns the body, or nil on failure.
type Doer interface {
	Do(req *http.Request) []byte
}

// Client talks to the CDR XML API.
type Client struct {
	doer    Doer
	url     string
	session string
	logger  arbor.ILogger
}

// NewClient returns a client posting command sets to apiURL on behalf of
// session.
func NewClient(doer Doer, apiURL, session string, logger arbor.ILogger) *Client {
	return &Client{doer: doer, url: apiURL, session: session, logger: logger}
}

// send posts an envelope and returns the first command response.
func (c *Client) send(ctx context.Context, envelope []byte) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(envelope))
	if err != nil {
		return Response{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-type", "application/xml")

	body := c.doer.Do(req)
	if body == nil {
		return Response{}, errors.New("no response from CDR API")
	}
	responses, err := ParseResponse(body)
	if err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Unreadable API response")
		return Response{}, err
	}
	resp := responses[0]
	if !resp.OK() {
		c.logger.Error().Str("status", resp.Status).Str("response", string(body)).Msg("CDR command failed")
		return resp, resp.Err()
	}
	return resp, nil
}

// SaveDoc stores a document and returns its integer id. When opts.ID is set
// the document is replaced and the id passed in is returned; otherwise the
// id comes from the create response.
func (c *Client) SaveDoc(ctx context.Context, docXML, doctype string, opts SaveOptions) (int, error) {
	envelope, err := BuildSaveCommand(c.session, docXML, doctype, opts)
	if err != nil {
		return 0, err
	}
	resp, err := c.send(ctx, envelope)
	if err != nil {
		return 0, fmt.Errorf("save %s document: %w", doctype, err)
	}

	if opts.ID != nil {
		return common.ExtractID(opts.ID)
	}
	docID, err := stringAt(resp.Payload, "CdrAddDocResp.DocId")
	if err != nil {
		return 0, fmt.Errorf("save %s document: missing DocId: %w", doctype, err)
	}
	id, err := common.ExtractID(docID)
	if err != nil {
		return 0, fmt.Errorf("save %s document: %w", doctype, err)
	}
	c.logger.Debug().Str("doctype", doctype).Str("cdr_id", common.CanonicalID(id)).Msg("Document created")
	return id, nil
}

// CreateExternalMapping adds a mapping for value and returns the mapping id.
func (c *Client) CreateExternalMapping(ctx context.Context, value string, opts MappingOptions) (int, error) {
	envelope, err := BuildMappingCommand(c.session, value, opts)
	if err != nil {
		return 0, err
	}
	resp, err := c.send(ctx, envelope)
	if err != nil {
		return 0, fmt.Errorf("add external mapping: %w", err)
	}
	raw, err := stringAt(resp.Payload, "CdrAddExternalMappingResp.-MappingId")
	if err != nil {
		return 0, fmt.Errorf("add external mapping: missing MappingId: %w", err)
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("add external mapping: bad MappingId %q: %w", raw, err)
	}
	return id, nil
}
