package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// maxSmallBodySize bounds request bodies for all JSON endpoints.
const maxSmallBodySize = 1 << 20

// PublishRequest is the body of POST /publish.
type PublishRequest struct {
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Tags       []string `json:"tags,omitempty"`
	MediaPath  string   `json:"media_path"`
	Private    bool     `json:"private,omitempty"`
	ScheduleAt string   `json:"schedule_at,omitempty"` // RFC 3339, empty means now
}

// PublishResponse echoes the recorded outcome of the attempt.
type PublishResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Title        string `json:"title"`
	Note         string `json:"note,omitempty"`
	ScheduleTime string `json:"schedule_time,omitempty"`
}

// ComposeRequest is the body of POST /compose.
type ComposeRequest struct {
	Keywords string `json:"keywords"`
}

// ComposeResponse carries the generated draft.
type ComposeResponse struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// PutAccountRequest is the body of PUT /accounts/{name}.
type PutAccountRequest struct {
	Cookies string `json:"cookies"`
}

// AccountResponse describes one stored account. The cookie header itself is
// never returned; it is a live credential.
type AccountResponse struct {
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionStatusResponse is the body of GET /session.
type SessionStatusResponse struct {
	Valid bool `json:"valid"`
}

// ListAccountsResponse is the body of GET /accounts.
type ListAccountsResponse struct {
	Accounts []string `json:"accounts"`
}

// ErrorResponse is returned for all error cases.
type ErrorResponse struct {
	Error string `json:"error"`
}

// decodeJSON reads and decodes a JSON body of at most maxSize bytes. On
// failure it writes the error response itself and returns ok=false.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request, maxSize int64) (T, bool) {
	var req T
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		}
		return req, false
	}
	return req, true
}
