package server

import (
	"encoding/json"
	"errors"
	"net/http"

	ferrors "github.com/matzehuels/flowtower/pkg/errors"
	"github.com/matzehuels/flowtower/pkg/observability"
)

// errorBody is the JSON error response.
type errorBody struct {
	Code      ferrors.Code `json:"code"`
	Message   string       `json:"message"`
	RequestID string       `json:"request_id,omitempty"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code ferrors.Code) int {
	switch code {
	case ferrors.ErrCodeParse,
		ferrors.ErrCodeInvalidInput, ferrors.ErrCodeInvalidFormat, ferrors.ErrCodeInvalidStyle,
		ferrors.ErrCodeInvalidPath, ferrors.ErrCodeInvalidName, ferrors.ErrCodeInvalidOptions:
		return http.StatusBadRequest
	case ferrors.ErrCodeValidation:
		return http.StatusUnprocessableEntity
	case ferrors.ErrCodeNotFound, ferrors.ErrCodeFileNotFound, ferrors.ErrCodeFlowNotFound:
		return http.StatusNotFound
	case ferrors.ErrCodeUnsupported:
		return http.StatusMethodNotAllowed
	case ferrors.ErrCodeNetwork, ferrors.ErrCodeTimeout:
		return http.StatusServiceUnavailable
	case ferrors.ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as a JSON error body and reports it to the hooks.
// Errors without a code are reported as INTERNAL_ERROR with a generic
// message so internals do not leak.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := ferrors.GetCode(err)
	msg := ferrors.UserMessage(err)

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		code, msg = ferrors.ErrCodeInvalidInput, "request body too large"
	case code == "":
		code, msg = ferrors.ErrCodeInternal, "internal error"
	}

	status := statusFor(code)
	if tooLarge != nil {
		status = http.StatusRequestEntityTooLarge
	}
	if status >= http.StatusInternalServerError {
		observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, errorBody{Code: code, Message: msg, RequestID: RequestID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func notFoundError(path string) error {
	return ferrors.New(ferrors.ErrCodeNotFound, "no route for %s", path)
}

func methodError(method, path string) error {
	return ferrors.New(ferrors.ErrCodeUnsupported, "method %s not allowed on %s", method, path)
}
