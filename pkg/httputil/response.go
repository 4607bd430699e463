package httputil

import (
	"encoding/json"
	"net/http"

	errs "github.com/matzehuels/erlayout/pkg/errors"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one failed request.
type ErrorDetail struct {
	Code      errs.Code `json:"code"`
	Message   string    `json:"message"`
	Problems  []string  `json:"problems,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StatusFor returns the HTTP status for an error code.
func StatusFor(code errs.Code) int {
	switch code {
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidDocument, errs.ErrCodeInvalidTier,
		errs.ErrCodeInvalidFormat, errs.ErrCodeInvalidProvider, errs.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case errs.ErrCodeNotFound, errs.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errs.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errs.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errs.ErrCodeNetwork:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// WriteError writes err as an [ErrorBody]. Errors without a code are
// reported as INTERNAL_ERROR with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	code := errs.GetCode(err)
	detail := ErrorDetail{Code: code, RequestID: GetRequestID(r.Context())}
	if code == "" {
		detail.Code = errs.ErrCodeInternal
		detail.Message = "internal error"
	} else {
		detail.Message = errs.UserMessage(err)
		for _, p := range errs.Problems(err) {
			detail.Problems = append(detail.Problems, p.Error())
		}
	}
	WriteJSON(w, StatusFor(detail.Code), ErrorBody{Error: detail})
}
