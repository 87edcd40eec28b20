package core

import (
	"context"
	"net/http"
	"strings"

	"github.com/eskrenkovic/mediator-go"
)

type Validator interface {
	Validate() error
}

type ValidationError struct {
	ValidationErrors []error
}

func (e ValidationError) Error() string {
	var b strings.Builder
	for i, err := range e.ValidationErrors {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("'")
		b.WriteString(err.Error())
		b.WriteString("'")
	}
	return b.String()
}

// Unwrap lets errors.Is see every collected error.
func (e ValidationError) Unwrap() []error {
	return e.ValidationErrors
}

// Validate collects the non-nil errors into a ValidationError.
func Validate(errs ...error) error {
	var collected []error
	for _, err := range errs {
		if err != nil {
			collected = append(collected, err)
		}
	}
	if len(collected) == 0 {
		return nil
	}
	return ValidationError{ValidationErrors: collected}
}

var _ mediator.PipelineBehavior = (*RequestValidationBehavior)(nil)

// RequestValidationBehavior rejects requests whose Validate fails. Code
// is derived from the failure by Classify when set.
type RequestValidationBehavior struct {
	Classify func(error) string
}

func (b *RequestValidationBehavior) Handle(
	ctx context.Context,
	request interface{},
	next mediator.RequestHandlerFunc,
) (interface{}, error) {
	if request, ok := request.(Validator); ok {
		if err := request.Validate(); err != nil {
			opts := []CommandErrorOption{WithReason(err.Error())}
			if b.Classify != nil {
				if code := b.Classify(err); code != "" {
					opts = append(opts, WithCode(code))
				}
			}
			return nil, NewCommandError(http.StatusBadRequest, err, opts...)
		}
	}

	return next(ctx, request)
}
