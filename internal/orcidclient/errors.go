package orcidclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ResponseError describes a response the registry answered with an error.
type ResponseError struct {
	Name       string
	HTTPStatus int
	Body       string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("orcid: %s (http %d): %s", e.Name, e.HTTPStatus, e.Body)
}

// TransientError is a failure worth retrying: the request never got an
// answer, or the registry answered 5xx/429.
type TransientError struct {
	Op         string
	HTTPStatus int
	Err        error
}

func (e *TransientError) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("orcid %s: transient http %d: %v", e.Op, e.HTTPStatus, e.Err)
	}
	return fmt.Sprintf("orcid %s: transient: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// knownError matches a response by status code and top-level body fields.
type knownError struct {
	name       string
	httpStatus int
	content    map[string]string
	status     Status
}

var knownErrors = []knownError{
	{
		name:       "work_already_exists",
		httpStatus: http.StatusConflict,
		content:    map[string]string{"error-code": "9021"},
		status:     StatusConflict,
	},
	{
		name:       "token_invalid",
		httpStatus: http.StatusUnauthorized,
		content:    map[string]string{"error": "invalid_token"},
		status:     StatusInvalid,
	},
}

func (k knownError) match(httpStatus int, body map[string]interface{}) bool {
	if httpStatus != k.httpStatus {
		return false
	}
	for key, want := range k.content {
		got, ok := body[key]
		if !ok || fmt.Sprint(got) != want {
			return false
		}
	}
	return true
}

// classify turns a non-transport outcome into a Response. A nil error with a
// Response means the registry answered; a *TransientError means retry.
func classify(op string, httpStatus int, body []byte, success Status) (Response, error) {
	resp := Response{HTTPStatus: httpStatus, Body: body}
	if httpStatus >= 200 && httpStatus < 300 {
		resp.Status = success
		return resp, nil
	}

	var fields map[string]interface{}
	_ = json.Unmarshal(body, &fields)

	for _, known := range knownErrors {
		if known.match(httpStatus, fields) {
			resp.Status = known.status
			resp.Err = &ResponseError{Name: known.name, HTTPStatus: httpStatus, Body: string(body)}
			return resp, nil
		}
	}

	if httpStatus >= 500 || httpStatus == http.StatusTooManyRequests {
		return resp, &TransientError{Op: op, HTTPStatus: httpStatus, Err: errors.New(http.StatusText(httpStatus))}
	}

	resp.Status = StatusInvalid
	resp.Err = &ResponseError{Name: "http_error", HTTPStatus: httpStatus, Body: string(body)}
	return resp, nil
}
