package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jmcleod/redpost/publish"
	"github.com/jmcleod/redpost/session"
)

// Publish handles POST /publish.
// Runs the full workflow synchronously and returns the recorded outcome.
func (a *API) Publish(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[PublishRequest](w, r, maxSmallBodySize)
	if !ok {
		return
	}

	var scheduleAt time.Time
	if req.ScheduleAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.ScheduleAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("schedule_at must be RFC 3339: %v", err))
			return
		}
		scheduleAt = parsed
	}

	outcome, err := a.publisher.Run(r.Context(), publish.Request{
		Title:      req.Title,
		Body:       req.Body,
		Tags:       req.Tags,
		MediaPath:  req.MediaPath,
		Private:    req.Private,
		ScheduleAt: scheduleAt,
	})
	if err != nil {
		a.logger.Warn("publish failed", "title", req.Title, "error", err)
		mapError(w, err)
		return
	}

	a.logger.Info("publish finished", "title", req.Title, "status", outcome.Status)
	writeJSON(w, http.StatusOK, PublishResponse{
		ID:           outcome.ID,
		Status:       string(outcome.Status),
		Title:        outcome.Title,
		Note:         outcome.Note,
		ScheduleTime: outcome.ScheduleTime,
	})
}

// ListHistory handles GET /history.
func (a *API) ListHistory(w http.ResponseWriter, r *http.Request) {
	outcomes, err := a.history.List()
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcomes)
}

// ListTasks handles GET /tasks.
func (a *API) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := a.tasks.List()
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// SessionStatus handles GET /session. It asks the platform whether the
// stored session still authenticates.
func (a *API) SessionStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SessionStatusResponse{Valid: a.prober.Probe(r.Context())})
}

// Compose handles POST /compose.
func (a *API) Compose(w http.ResponseWriter, r *http.Request) {
	if a.composer == nil {
		writeError(w, http.StatusNotImplemented, "draft generation is not configured")
		return
	}

	req, ok := decodeJSON[ComposeRequest](w, r, maxSmallBodySize)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Keywords) == "" {
		writeError(w, http.StatusBadRequest, "keywords is required")
		return
	}

	draft, err := a.composer.Generate(r.Context(), req.Keywords)
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ComposeResponse{Title: draft.Title, Content: draft.Content})
}

// PutAccount handles PUT /accounts/{name}.
func (a *API) PutAccount(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	req, ok := decodeJSON[PutAccountRequest](w, r, maxSmallBodySize)
	if !ok {
		return
	}
	if req.Cookies == "" {
		writeError(w, http.StatusBadRequest, "cookies is required")
		return
	}

	if err := a.registry.Put(name, req.Cookies); err != nil {
		mapError(w, err)
		return
	}
	a.logger.Info("account stored", "account", name)
	w.WriteHeader(http.StatusNoContent)
}

// GetAccount handles GET /accounts/{name}. The cookie header stays sealed;
// only metadata is returned.
func (a *API) GetAccount(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	account, err := a.registry.Get(name)
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AccountResponse{Name: account.Name, UpdatedAt: account.UpdatedAt})
}

// ListAccounts handles GET /accounts.
func (a *API) ListAccounts(w http.ResponseWriter, r *http.Request) {
	names, err := a.registry.List()
	if err != nil {
		mapError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, ListAccountsResponse{Accounts: names})
}

// VerifyAccount handles POST /accounts/{name}/verify. It probes the
// platform with the account's cookies without touching the active session.
func (a *API) VerifyAccount(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	account, err := a.registry.Get(name)
	if err != nil {
		mapError(w, err)
		return
	}

	sess := &session.Session{
		Cookies: session.NormalizeCookies(session.ParseCookieHeader(account.Cookies), session.DefaultCookieDomain),
	}
	writeJSON(w, http.StatusOK, SessionStatusResponse{Valid: a.prober.ProbeWith(r.Context(), sess)})
}

// DeleteAccount handles DELETE /accounts/{name}.
func (a *API) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := a.registry.Delete(name); err != nil {
		mapError(w, err)
		return
	}
	a.logger.Info("account deleted", "account", name)
	w.WriteHeader(http.StatusNoContent)
}
