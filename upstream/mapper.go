package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Response is the raw upstream answer handed from the transport to the mapper.
type Response struct {
	StatusCode int
	Body       []byte
}

// Success reports whether the HTTP status is 2xx.
func (r *Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeIssue maps the object at op.ResultPath into an Issue.
func DecodeIssue(op Operation, resp *Response) (*Issue, error) {
	var issue Issue
	if err := decodeObject(op, resp, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// DecodeIssues maps the node list at op.ResultPath.
func DecodeIssues(op Operation, resp *Response) ([]Issue, error) {
	issues := []Issue{}
	if err := decodeList(op, resp, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// DecodeLabels maps the node list at op.ResultPath.
func DecodeLabels(op Operation, resp *Response) ([]Label, error) {
	labels := []Label{}
	if err := decodeList(op, resp, &labels); err != nil {
		return nil, err
	}
	return labels, nil
}

// CheckAck validates the response of a mutation whose payload the gateway
// does not return, only requiring that the payload object is present.
func CheckAck(op Operation, resp *Response) error {
	res, err := extract(op, resp)
	if err != nil {
		return err
	}
	if !res.IsObject() {
		return &MappingError{Op: op.Description, Path: op.ResultPath, Err: fmt.Errorf("expected object, got %s", res.Type)}
	}
	return nil
}

func decodeList(op Operation, resp *Response, out interface{}) error {
	res, err := extract(op, resp)
	if err != nil {
		return err
	}
	if !res.IsArray() {
		return &MappingError{Op: op.Description, Path: op.ResultPath, Err: fmt.Errorf("expected list, got %s", res.Type)}
	}
	if err := json.Unmarshal([]byte(res.Raw), out); err != nil {
		return &MappingError{Op: op.Description, Path: op.ResultPath, Err: err}
	}
	return nil
}

func decodeObject(op Operation, resp *Response, out interface{}) error {
	res, err := extract(op, resp)
	if err != nil {
		return err
	}
	if !res.IsObject() {
		return &MappingError{Op: op.Description, Path: op.ResultPath, Err: fmt.Errorf("expected object, got %s", res.Type)}
	}
	if err := json.Unmarshal([]byte(res.Raw), out); err != nil {
		return &MappingError{Op: op.Description, Path: op.ResultPath, Err: err}
	}
	return nil
}

// extract runs the checks shared by every mapping: status, JSON validity,
// GraphQL errors, and presence of the result path.
func extract(op Operation, resp *Response) (gjson.Result, error) {
	if resp == nil {
		return gjson.Result{}, &MappingError{Op: op.Description, Path: op.ResultPath, Err: errors.New("no response")}
	}
	if !resp.Success() {
		return gjson.Result{}, &UpstreamError{Op: op.Description, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	if !gjson.ValidBytes(resp.Body) {
		return gjson.Result{}, &MappingError{Op: op.Description, Path: op.ResultPath, Err: errors.New("response is not valid JSON")}
	}
	if msgs := graphQLErrors(resp.Body); len(msgs) > 0 {
		return gjson.Result{}, &UpstreamError{Op: op.Description, StatusCode: resp.StatusCode, Body: strings.Join(msgs, "; ")}
	}
	res := gjson.GetBytes(resp.Body, op.ResultPath)
	if !res.Exists() || res.Type == gjson.Null {
		return gjson.Result{}, &MappingError{Op: op.Description, Path: op.ResultPath, Err: errors.New("missing from response")}
	}
	return res, nil
}

func graphQLErrors(body []byte) []string {
	errs := gjson.GetBytes(body, "errors")
	if !errs.IsArray() {
		return nil
	}
	var msgs []string
	errs.ForEach(func(_, e gjson.Result) bool {
		if m := e.Get("message"); m.Exists() {
			msgs = append(msgs, m.String())
		} else {
			msgs = append(msgs, e.Raw)
		}
		return true
	})
	return msgs
}
