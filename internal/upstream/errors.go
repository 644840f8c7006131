package upstream

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/collectdesk/collectdesk/internal/shared"
)

const maxErrorBody = 64 * 1024

// decodeError maps an upstream failure response onto the console error
// taxonomy. A 401 (or the backend's "Invalid token" message) always
// escalates as a session-invalidating error.
func decodeError(resp *http.Response) error {
	var envelope errorEnvelope
	if body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)); err == nil {
		_ = json.Unmarshal(body, &envelope)
	}

	if resp.StatusCode == http.StatusUnauthorized || envelope.Message == "Invalid token" {
		return shared.ErrSessionExpired
	}
	if resp.StatusCode == http.StatusNotFound {
		return shared.ErrNotFound
	}

	serverErr := &shared.ServerError{
		Status:  resp.StatusCode,
		Message: envelope.Message,
	}
	if envelope.LMSResponse != nil && len(envelope.LMSResponse.RowErrors) > 0 {
		serverErr.RowReason = envelope.LMSResponse.RowErrors[0].Reason
	}
	return serverErr
}

func netErr(op string, err error) error {
	return &shared.NetworkError{Op: op, Err: err}
}
