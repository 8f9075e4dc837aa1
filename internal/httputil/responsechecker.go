// Package httputil holds response handling helpers shared by the client
// packages.
package httputil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/candlekeep/astore-go"
)

// Body reads of error responses are capped; the server's error documents are
// single JSON objects and anything larger is garbage.
const errBodyLimit = 1 << 20

// CheckResponse inspects a completed response and returns nil for any status
// below 400. For an error status it returns an *astore.Error whose Kind is
// derived from the status code and whose Message is resolved from, in order:
// the "error" field of a JSON body, the raw body text, and "HTTP <code>".
//
// The response body is consumed when an error is returned.
func CheckResponse(op string, resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))

	var doc struct {
		Error string `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(body, &doc); err == nil {
		msg = doc.Error
	}
	if msg == "" {
		msg = string(body)
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	return &astore.Error{
		Kind:    kindFor(resp.StatusCode),
		Message: msg,
		Op:      op,
		Status:  resp.StatusCode,
	}
}

func kindFor(status int) astore.ErrorKind {
	switch status {
	case http.StatusBadRequest:
		return astore.ErrBadRequest
	case http.StatusUnauthorized:
		return astore.ErrUnauthorized
	case http.StatusForbidden:
		return astore.ErrForbidden
	case http.StatusNotFound:
		return astore.ErrNotFound
	case http.StatusConflict:
		return astore.ErrConflict
	case http.StatusInternalServerError:
		return astore.ErrInternal
	case http.StatusServiceUnavailable:
		return astore.ErrUnavailable
	}
	return astore.ErrResponse
}
