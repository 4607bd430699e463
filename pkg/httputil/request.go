package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	errs "github.com/matzehuels/erlayout/pkg/errors"
)

// MaxBodyBytes caps request bodies read by [DecodeJSON].
const MaxBodyBytes = 4 << 20

// HeaderRequestID carries the request ID on requests and responses.
const HeaderRequestID = "X-Request-ID"

type requestIDKey struct{}

// DecodeJSON decodes the request body into v. Bodies larger than
// [MaxBodyBytes], unknown fields and trailing data are rejected with
// INVALID_INPUT.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return errs.New(errs.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return errs.New(errs.ErrCodeInvalidInput, "request body is empty")
		}
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "decode request body")
	}
	if dec.More() {
		return errs.New(errs.ErrCodeInvalidInput, "request body has trailing data")
	}
	return nil
}

// RequestID tags each request with an ID. An incoming X-Request-ID header
// is kept; otherwise a random UUID is generated. The ID is echoed in the
// response header and stored in the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request ID stored by [RequestID], or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
