package core

import (
	"fmt"
	"net/http"
)

type Unit struct{}

// CommandError is what handlers return for failures the caller can act
// on. Code is the stable machine readable name sent to clients.
type CommandError struct {
	Payload    interface{}
	StatusCode int
	Code       string
	Reason     *string
}

type CommandErrorOption func(*CommandError)

func WithReason(reason string) CommandErrorOption {
	return func(e *CommandError) {
		e.Reason = &reason
	}
}

func WithCode(code string) CommandErrorOption {
	return func(e *CommandError) {
		e.Code = code
	}
}

func NewCommandError(statusCode int, payload interface{}, opts ...CommandErrorOption) CommandError {
	e := CommandError{
		StatusCode: statusCode,
		Payload:    payload,
		Code:       codeFor(statusCode),
	}

	for _, opt := range opts {
		opt(&e)
	}

	return e
}

func (r CommandError) Error() string {
	var values struct {
		Payload    interface{}
		StatusCode int
		Code       string
		Reason     string
	}

	values.Payload = r.Payload
	values.StatusCode = r.StatusCode
	values.Code = r.Code

	if r.Reason != nil {
		values.Reason = *r.Reason
	}

	return fmt.Sprintf("%+v", values)
}

// Unwrap exposes the payload when it is itself an error, so sentinel
// checks keep working through the mediator pipeline.
func (r CommandError) Unwrap() error {
	if err, ok := r.Payload.(error); ok {
		return err
	}
	return nil
}

// Message is the human readable part of the error.
func (r CommandError) Message() string {
	if r.Reason != nil {
		return *r.Reason
	}
	switch p := r.Payload.(type) {
	case error:
		return p.Error()
	case string:
		return p
	case nil:
		return http.StatusText(r.StatusCode)
	default:
		return fmt.Sprintf("%v", p)
	}
}

func codeFor(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	default:
		return "internal_error"
	}
}
