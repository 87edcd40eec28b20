package core

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errBoom = errors.New("boom")

type validatedRequest struct {
	err error
}

func (r validatedRequest) Validate() error { return r.err }

func Test_CommandError_Unwraps_Payload_Error(t *testing.T) {
	// Arrange
	err := NewCommandError(http.StatusConflict, errBoom, WithCode("boom"))

	// Act
	var commandErr CommandError
	matched := errors.As(error(err), &commandErr)

	// Assert
	require.True(t, matched)
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, "boom", commandErr.Code)
	require.Equal(t, "boom", commandErr.Message())
}

func Test_CommandError_Defaults_Code_From_Status(t *testing.T) {
	// Arrange & Act
	err := NewCommandError(http.StatusNotFound, nil)

	// Assert
	require.Equal(t, "not_found", err.Code)
	require.Equal(t, "Not Found", err.Message())
}

func Test_RequestValidationBehavior_Rejects_Invalid_Request(t *testing.T) {
	// Arrange
	behavior := RequestValidationBehavior{Classify: func(error) string { return "invalid_thing" }}
	called := false
	next := func(ctx context.Context, request interface{}) (interface{}, error) {
		called = true
		return nil, nil
	}

	// Act
	_, err := behavior.Handle(context.Background(), validatedRequest{err: errBoom}, next)

	// Assert
	require.False(t, called)

	var commandErr CommandError
	require.True(t, errors.As(err, &commandErr))
	require.Equal(t, http.StatusBadRequest, commandErr.StatusCode)
	require.Equal(t, "invalid_thing", commandErr.Code)
	require.ErrorIs(t, err, errBoom)
}

func Test_RequestValidationBehavior_Passes_Valid_Request(t *testing.T) {
	// Arrange
	behavior := RequestValidationBehavior{}
	next := func(ctx context.Context, request interface{}) (interface{}, error) {
		return "ok", nil
	}

	// Act
	response, err := behavior.Handle(context.Background(), validatedRequest{}, next)

	// Assert
	require.NoError(t, err)
	require.Equal(t, "ok", response)
}

func Test_Validate_Collects_Errors(t *testing.T) {
	// Arrange
	other := errors.New("other")

	// Act
	err := Validate(nil, errBoom, nil, other)

	// Assert
	require.ErrorIs(t, err, errBoom)
	require.ErrorIs(t, err, other)
	require.Equal(t, "'boom', 'other'", err.Error())
	require.NoError(t, Validate(nil, nil))
}

func Test_CorrelationIDHTTPMiddleware_Propagates_Header(t *testing.T) {
	// Arrange
	var seen string
	handler := CorrelationIDHTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationIDHeader, "abc")
	rec := httptest.NewRecorder()

	// Act
	handler.ServeHTTP(rec, req)

	// Assert
	require.Equal(t, "abc", seen)
	require.Equal(t, "abc", rec.Header().Get(CorrelationIDHeader))
}

func Test_WriteCommandError_Writes_Code_And_Status(t *testing.T) {
	// Arrange
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithLogger(req.Context(), zap.NewNop()))
	rec := httptest.NewRecorder()

	// Act
	WriteCommandError(rec, req, NewCommandError(http.StatusConflict, errBoom, WithCode("boom")))

	// Assert
	require.Equal(t, http.StatusConflict, rec.Code)
	require.JSONEq(t, `{"code":"boom","message":"boom"}`, rec.Body.String())
}

func Test_WriteCommandError_Hides_Unknown_Errors(t *testing.T) {
	// Arrange
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithLogger(req.Context(), zap.NewNop()))
	rec := httptest.NewRecorder()

	// Act
	WriteCommandError(rec, req, errBoom)

	// Assert
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "boom")
}

func Test_TransactionOptions_Set_Read_Only_And_Isolation(t *testing.T) {
	// Arrange
	options := sql.TxOptions{}

	// Act
	for _, opt := range []TransactionOption{ReadOnly(), WithIsolationLevel(sql.LevelRepeatableRead)} {
		opt(&options)
	}

	// Assert
	require.True(t, options.ReadOnly)
	require.Equal(t, sql.LevelRepeatableRead, options.Isolation)
}
