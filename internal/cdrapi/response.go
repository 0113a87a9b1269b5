package cdrapi

import (
	"errors"
	"fmt"

	"github.com/clbanning/mxj"
)

// ErrCommandFailed is returned when the API reports a status other than
// "success".
var ErrCommandFailed = errors.New("cdr command failed")

// Response is one CdrResponse from a CdrResponseSet.
type Response struct {
	Status  string
	Errors  []string
	Payload mxj.Map // children of CdrResponse, keyed by element name
}

// OK reports whether the command succeeded.
func (r Response) OK() bool {
	return r.Status == "success"
}

// Err returns nil for a successful response, otherwise an error wrapping
// ErrCommandFailed with the server's messages.
func (r Response) Err() error {
	if r.OK() {
		return nil
	}
	if len(r.Errors) == 0 {
		return fmt.Errorf("%w: status %q", ErrCommandFailed, r.Status)
	}
	return fmt.Errorf("%w: status %q: %v", ErrCommandFailed, r.Status, r.Errors)
}

// ParseResponse parses a CdrResponseSet body into its per-command responses.
// The body must be well-formed XML rooted at CdrResponseSet with at least
// one CdrResponse carrying a Status attribute.
func ParseResponse(body []byte) ([]Response, error) {
	if len(body) == 0 {
		return nil, errors.New("empty response")
	}
	m, err := mxj.NewMapXml(body)
	if err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	if _, ok := m["CdrResponseSet"]; !ok {
		return nil, fmt.Errorf("malformed response: missing CdrResponseSet")
	}
	values, err := m.ValuesForPath("CdrResponseSet.CdrResponse")
	if err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("malformed response: no CdrResponse")
	}

	responses := make([]Response, 0, len(values))
	for _, v := range values {
		node, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("malformed response: CdrResponse has no attributes")
		}
		status, ok := node["-Status"].(string)
		if !ok {
			return nil, fmt.Errorf("malformed response: CdrResponse without Status")
		}
		resp := Response{Status: status, Payload: mxj.Map{}}
		for key, child := range node {
			if key == "-Status" {
				continue
			}
			resp.Payload[key] = child
		}
		resp.Errors = collectErrors(resp.Payload)
		responses = append(responses, resp)
	}
	return responses, nil
}

// collectErrors gathers the text of every Err element under Errors.
func collectErrors(payload mxj.Map) []string {
	values, err := payload.ValuesForPath("Errors.Err")
	if err != nil {
		return nil
	}
	var messages []string
	for _, v := range values {
		switch e := v.(type) {
		case string:
			messages = append(messages, e)
		case map[string]interface{}:
			if text, ok := e["#text"].(string); ok {
				messages = append(messages, text)
			}
		}
	}
	return messages
}

// stringAt returns the string value at path within the payload.
func stringAt(payload mxj.Map, path string) (string, error) {
	v, err := payload.ValueForPath(path)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case map[string]interface{}:
		if text, ok := s["#text"].(string); ok {
			return text, nil
		}
	}
	return "", fmt.Errorf("no text at %s", path)
}
