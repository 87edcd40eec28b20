package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func RequestBody[TRequest any](r *http.Request) (TRequest, error) {
	var request TRequest
	err := json.NewDecoder(r.Body).Decode(&request)
	return request, err
}

type ResponseOption func(http.ResponseWriter, *http.Request)

func WithHeader(header, value string) ResponseOption {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add(header, value)
	}
}

func WriteOK(w http.ResponseWriter, r *http.Request, body interface{}) {
	WriteResponse(w, r, http.StatusOK, body)
}

func WriteCreated(w http.ResponseWriter, r *http.Request, body interface{}, opts ...ResponseOption) {
	WriteResponse(w, r, http.StatusCreated, body, opts...)
}

func WriteBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	WriteResponse(w, r, http.StatusBadRequest, ErrorBody{Code: "bad_request", Message: err.Error()})
}

func WriteUnauthorized(w http.ResponseWriter, r *http.Request, err error) {
	WriteResponse(w, r, http.StatusUnauthorized, ErrorBody{Code: "unauthorized", Message: err.Error()})
}

func WriteNotFound(w http.ResponseWriter, r *http.Request, err error) {
	WriteResponse(w, r, http.StatusNotFound, ErrorBody{Code: "not_found", Message: err.Error()})
}

func WriteCommandError(w http.ResponseWriter, r *http.Request, err error, opts ...ResponseOption) {
	var commandErr CommandError
	if !errors.As(err, &commandErr) {
		LogError(r.Context(), "unhandled request error", zap.Error(err))
		WriteResponse(w, r, http.StatusInternalServerError, ErrorBody{
			Code:    "internal_error",
			Message: http.StatusText(http.StatusInternalServerError),
		}, opts...)
		return
	}

	WriteResponse(w, r, commandErr.StatusCode, ErrorBody{
		Code:    commandErr.Code,
		Message: commandErr.Message(),
	}, opts...)
}

func WriteResponse(
	w http.ResponseWriter,
	r *http.Request,
	statusCode int,
	body interface{},
	opts ...ResponseOption,
) {
	for _, opt := range opts {
		opt(w, r)
	}
	if body != nil {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(statusCode)
	writeBodyIfPresent(r.Context(), w, body)
}

func writeBodyIfPresent(ctx context.Context, w http.ResponseWriter, body interface{}) {
	if body == nil {
		return
	}

	responseBytes, err := json.Marshal(body)
	if err != nil {
		LogError(ctx, "failed to serialize response", zap.Error(err))
		return
	}

	if _, err := w.Write(responseBytes); err != nil {
		LogError(ctx, "failed to write response", zap.Error(err))
	}
}
