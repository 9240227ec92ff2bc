package middleware

import (
	"encoding/json"
	"net/http"

	"places-api/logger"
	"places-api/utils/errors"
)

// ErrorMiddleware turns panics into a standardized 500 response
func ErrorMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.FromContext(r.Context()).Error("Panic recovered", "panic", rec)
					WriteError(w, r, errors.ErrInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// WriteError writes err as a JSON APIError. Errors that are not APIErrors
// become 500s. Details are only sent for validation failures; everything
// else is logged and stripped.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := errors.Wrap(err, "UNKNOWN_ERROR", "An unknown error occurred!", errors.ErrInternal.Status)

	body := *apiErr
	log := logger.FromContext(r.Context())
	switch {
	case body.Status >= http.StatusInternalServerError:
		log.Error("Server error", "code", apiErr.Code, "error", err.Error())
		body.Details = ""
	case body.Details != "" && !errors.Is(apiErr, errors.ErrValidation):
		log.Warn("Request failed", "code", apiErr.Code, "error", err.Error())
		body.Details = ""
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.Status)
	json.NewEncoder(w).Encode(body)
}
