package shared

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// RespondJSON writes a JSON body with the given status.
func RespondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Warn("encode response", slog.Any("error", err))
	}
}

// RespondError converts an operation failure into a JSON notice with a
// status matching the error taxonomy. Failures are caught at the
// operation boundary; nothing here mutates record state.
func RespondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var vErr *ValidationError
	var sErr *ServerError
	var nErr *NetworkError
	switch {
	case errors.As(err, &vErr):
		status = http.StatusBadRequest
	case errors.Is(err, ErrSessionExpired):
		status = http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrNothingToExport):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ErrStaleResponse):
		status = http.StatusConflict
	case errors.As(err, &sErr):
		status = sErr.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
	case errors.As(err, &nErr):
		status = http.StatusBadGateway
	}

	RespondJSON(w, status, map[string]string{"message": UserSafeMessage(err)})
}
