// Package httputil holds the JSON envelope shared by every handler. It is the
// one place where domain error codes become HTTP status codes.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "agora/pkg/domain-errors"
)

// maxBodyBytes bounds request bodies; the largest legitimate payload is a post.
const maxBodyBytes = 1 << 20

var statusByCode = map[dErrors.Code]int{
	dErrors.CodeNotFound:                      http.StatusNotFound,
	dErrors.CodeUnauthorized:                  http.StatusForbidden,
	dErrors.CodeMemberNotActive:               http.StatusForbidden,
	dErrors.CodeMemberBanned:                  http.StatusForbidden,
	dErrors.CodeStatusTransitionForbidden:     http.StatusConflict,
	dErrors.CodeArchivedModificationForbidden: http.StatusConflict,
	dErrors.CodeDeletedModificationForbidden:  http.StatusConflict,
	dErrors.CodeVoteValueInvalid:              http.StatusBadRequest,
	dErrors.CodeVoteUnavailable:               http.StatusConflict,
	dErrors.CodeMediaAssetsRequired:           http.StatusUnprocessableEntity,
	dErrors.CodeValidation:                    http.StatusBadRequest,
	dErrors.CodeBadRequest:                    http.StatusBadRequest,
	dErrors.CodeConflict:                      http.StatusConflict,
	dErrors.CodeTimeout:                       http.StatusGatewayTimeout,
	dErrors.CodeUnavailable:                   http.StatusServiceUnavailable,
	dErrors.CodeRateLimited:                   http.StatusTooManyRequests,
	dErrors.CodeInvariantViolation:            http.StatusInternalServerError,
	dErrors.CodeInternal:                      http.StatusInternalServerError,
}

// StatusFor maps a domain code to an HTTP status. Unknown codes are 500.
func StatusFor(code dErrors.Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Retryable   bool   `json:"retryable,omitempty"`
}

// WriteError writes the JSON error envelope for err. Server-side failures
// never leak their message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := StatusFor(code)
	body := errorResponse{Error: string(code), Retryable: dErrors.IsRetryable(err)}
	if status < http.StatusInternalServerError {
		body.Description = dErrors.MessageOf(err)
	}
	WriteJSON(w, status, body)
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// Preparer is implemented by request DTOs that normalize and validate
// themselves after decoding.
type Preparer interface {
	Prepare() error
}

// DecodeAndPrepare decodes the JSON body into T and runs Prepare when T
// implements Preparer. On failure it writes the error response and returns
// false.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.WarnContext(ctx, "invalid request body",
			"request_id", requestID,
			"error", err.Error(),
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	if p, ok := any(&req).(Preparer); ok {
		if err := p.Prepare(); err != nil {
			WriteError(w, err)
			return nil, false
		}
	}
	return &req, true
}
