package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// envelope is the wrapped response form: {"isSuccess": true, "data": ...}.
type envelope struct {
	IsSuccess *bool           `json:"isSuccess"`
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message"`
}

// shapeError is turned into an *Error with the operation name by the caller.
type shapeError struct {
	kind    Kind
	message string
	cause   error
}

func (e *shapeError) Error() string { return e.message }

func unexpected(format string, args ...any) *shapeError {
	return &shapeError{kind: KindUnexpectedShape, message: fmt.Sprintf(format, args...)}
}

// unwrapPayload returns the payload of body, accepting either the bare
// value (whose first byte must be one of bare) or an envelope.
func unwrapPayload(body []byte, bare ...byte) (json.RawMessage, *shapeError) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, unexpected("empty body")
	}
	if bytes.IndexByte(bare, body[0]) >= 0 {
		return body, nil
	}
	if body[0] != '{' {
		return nil, unexpected("body starts with %q", body[0])
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &shapeError{kind: KindUnexpectedShape, message: "malformed envelope", cause: err}
	}
	if env.IsSuccess == nil {
		return nil, unexpected("object without isSuccess")
	}
	if !*env.IsSuccess {
		return nil, &shapeError{kind: KindRejected, message: env.Message}
	}
	return bytes.TrimSpace(env.Data), nil
}

// decodeList accepts a bare JSON array or an envelope whose data is an
// array. A null or absent data field is an empty list.
func decodeList[T any](body []byte) ([]T, *shapeError) {
	payload, serr := unwrapPayload(body, '[')
	if serr != nil {
		return nil, serr
	}
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return []T{}, nil
	}
	if payload[0] != '[' {
		return nil, unexpected("data is not a list")
	}
	var items []T
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, &shapeError{kind: KindUnexpectedShape, message: "malformed list", cause: err}
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// decodeCount accepts a bare integer or an envelope whose data is one.
func decodeCount(body []byte) (int, *shapeError) {
	payload, serr := unwrapPayload(body, '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '-')
	if serr != nil {
		return 0, serr
	}
	var n int
	if err := json.Unmarshal(payload, &n); err != nil {
		return 0, &shapeError{kind: KindUnexpectedShape, message: "count is not an integer", cause: err}
	}
	if n < 0 {
		return 0, unexpected("negative count %d", n)
	}
	return n, nil
}

// checkAck interprets a mutation response. An empty body or any body
// that is not an envelope counts as success; only an explicit
// isSuccess=false is a rejection.
func checkAck(body []byte) *shapeError {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil
	}
	if env.IsSuccess != nil && !*env.IsSuccess {
		return &shapeError{kind: KindRejected, message: env.Message}
	}
	return nil
}
