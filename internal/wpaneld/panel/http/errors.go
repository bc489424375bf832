package http

import (
	"errors"
	"net/http"

	"github.com/wrale/wrale-panels/api/types/v1alpha1"
	werrors "github.com/wrale/wrale-panels/internal/wpaneld/errors"
)

// httpError is a transport-level error that knows its response status
type httpError struct {
	code   string
	msg    string
	status int
}

func (e *httpError) Error() string {
	return e.msg
}

func (e *httpError) StatusCode() int {
	return e.status
}

// ErrInvalidRequest reports a malformed request body or parameter
func ErrInvalidRequest(msg string) error {
	return &httpError{code: "INVALID_INPUT", msg: msg, status: http.StatusBadRequest}
}

// toAPIError maps an error to a status code and response body. Domain
// errors keep their code and message; anything else is an opaque 500.
func toAPIError(err error) (int, v1alpha1.Error) {
	var he *httpError
	if errors.As(err, &he) {
		return he.status, v1alpha1.Error{Code: he.code, Message: he.msg}
	}

	status := http.StatusInternalServerError
	switch {
	case werrors.IsNotFound(err):
		status = http.StatusNotFound
	case werrors.IsInvalidInput(err):
		status = http.StatusBadRequest
	case werrors.IsConflict(err):
		status = http.StatusConflict
	case werrors.IsUnavailable(err):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		return status, v1alpha1.Error{Code: "INTERNAL", Message: "internal server error"}
	}

	msg := err.Error()
	var de *werrors.Error
	if errors.As(err, &de) {
		msg = de.Message
	}
	return status, v1alpha1.Error{Code: werrors.Code(err), Message: msg}
}
