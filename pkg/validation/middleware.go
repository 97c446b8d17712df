package validation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// MaxBodyBytes bounds request bodies read by ValidateJSON.
const MaxBodyBytes = 1 << 20

type bodyKey struct{}

// ValidateJSON decodes the request body into a T, validates it with
// Struct, and hands it to next through the request context. Failures are
// answered with 400 and a JSON error list.
func ValidateJSON[T any](next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body T
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil {
			WriteErrors(w, http.StatusBadRequest, ValidationErrors{{
				Field:   "request_body",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			}})
			return
		}

		if err := Struct(&body); err != nil {
			var verrs ValidationErrors
			if errors.As(err, &verrs) {
				WriteErrors(w, http.StatusBadRequest, verrs)
				return
			}
			WriteErrors(w, http.StatusBadRequest, ValidationErrors{{Field: "request_body", Message: err.Error()}})
			return
		}

		ctx := context.WithValue(r.Context(), bodyKey{}, &body)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Body returns the value stored by ValidateJSON[T].
func Body[T any](ctx context.Context) (*T, bool) {
	v, ok := ctx.Value(bodyKey{}).(*T)
	return v, ok
}

// ValidateQuery checks query parameters against validator tag
// expressions, e.g. {"limit": "omitempty,number"}.
func ValidateQuery(rules map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query := r.URL.Query()
			var verrs ValidationErrors
			for param, tag := range rules {
				if err := Var(param, query.Get(param), tag); err != nil {
					var fe ValidationErrors
					if errors.As(err, &fe) {
						verrs = append(verrs, fe...)
					} else {
						verrs = append(verrs, ValidationError{Field: param, Message: err.Error()})
					}
				}
			}
			if len(verrs) > 0 {
				WriteErrors(w, http.StatusBadRequest, verrs)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type errorResponse struct {
	Error   string           `json:"error"`
	Details ValidationErrors `json:"details"`
}

// WriteErrors writes errs as a JSON body with the given status.
func WriteErrors(w http.ResponseWriter, status int, errs ValidationErrors) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: "validation failed", Details: errs})
}
