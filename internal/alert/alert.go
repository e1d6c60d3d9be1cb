// Package alert holds the read-only view of a firing alert and of the result
// produced when its condition was evaluated.
package alert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/shaharia-lab/alertmail/internal/doc"
)

// Alert identifies the alert that fired.
type Alert interface {
	Name() string
}

// Named is an Alert that carries nothing but its name.
type Named string

// Name implements Alert.
func (n Named) Name() string { return string(n) }

// Request is the query an alert executed.
type Request interface {
	// Indices returns the index names the query targeted.
	Indices() []string
	// String returns the textual form of the query.
	String() string
}

// TriggerResult is the outcome of evaluating an alert's condition.
type TriggerResult interface {
	// TriggerDescription explains why the alert fired.
	TriggerDescription() string
	// ActionRequest returns the query whose response feeds the action.
	ActionRequest() Request
	// ActionResponse returns the decoded response of the action request.
	ActionResponse() map[string]any
	// TriggerResponse returns the decoded response the trigger was evaluated on.
	TriggerResponse() map[string]any
}

// SearchRequest is a JSON-decodable Request.
type SearchRequest struct {
	IndexNames []string       `json:"indices"`
	Body       map[string]any `json:"body,omitempty"`
}

// Indices implements Request.
func (r *SearchRequest) Indices() []string { return slices.Clone(r.IndexNames) }

func (r *SearchRequest) String() string {
	if r.Body == nil {
		return fmt.Sprintf("search %v", r.IndexNames)
	}
	return fmt.Sprintf("search %v %s", r.IndexNames, doc.Text(r.Body))
}

// SearchResult is a JSON-decodable TriggerResult, used by the CLI and the
// HTTP API to describe an evaluation that happened elsewhere.
type SearchResult struct {
	Trigger     string         `json:"trigger"`
	Request     *SearchRequest `json:"request"`
	Response    map[string]any `json:"response,omitempty"`
	TriggerResp map[string]any `json:"trigger_response,omitempty"`
}

// TriggerDescription implements TriggerResult.
func (r *SearchResult) TriggerDescription() string { return r.Trigger }

// ActionRequest implements TriggerResult.
func (r *SearchResult) ActionRequest() Request {
	if r.Request == nil {
		return &SearchRequest{}
	}
	return r.Request
}

// ActionResponse implements TriggerResult.
func (r *SearchResult) ActionResponse() map[string]any { return r.Response }

// TriggerResponse implements TriggerResult. When no separate trigger response
// was recorded the action response is used, since both come from the same
// query in the common case.
func (r *SearchResult) TriggerResponse() map[string]any {
	if r.TriggerResp == nil {
		return r.Response
	}
	return r.TriggerResp
}

// DecodeSearchResult reads a SearchResult from JSON. Numbers are kept in
// their original textual form.
func DecodeSearchResult(rd io.Reader) (*SearchResult, error) {
	dec := json.NewDecoder(rd)
	dec.UseNumber()
	var res SearchResult
	if err := dec.Decode(&res); err != nil {
		return nil, fmt.Errorf("decoding trigger result: %w", err)
	}
	if res.Request == nil {
		res.Request = &SearchRequest{}
	}
	return &res, nil
}

// ParseSearchResult is DecodeSearchResult over a byte slice.
func ParseSearchResult(b []byte) (*SearchResult, error) {
	return DecodeSearchResult(bytes.NewReader(b))
}
