package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/groceryhub/internal/auth"
	"github.com/dukerupert/groceryhub/internal/store"
)

type SessionHandler struct {
	sessions *store.SessionStore
	logger   *slog.Logger
}

func NewSessionHandler(ss *store.SessionStore, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{sessions: ss, logger: logger}
}

// Get reports the access state of the caller.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, auth.Access{State: auth.NoList})
		return
	}
	writeJSON(w, http.StatusOK, ac.Access())
}

// SwitchList ends the session from any state.
func (h *SessionHandler) SwitchList(w http.ResponseWriter, r *http.Request) {
	access := auth.Access{State: auth.NoList}
	if ac, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessions.Delete(ac.SessionID); err != nil {
			writeStoreError(w, h.logger, "delete session", err)
			return
		}
		access = ac.Access()
		access.SwitchList()
	}
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, access)
}

// SwitchUser drops the server session but keeps the list chosen; the client
// has to enter the list PIN again before picking a user.
func (h *SessionHandler) SwitchUser(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "LIST_PIN_REQUIRED", "Enter the list PIN first")
		return
	}
	access := ac.Access()
	if err := access.SwitchUser(); err != nil {
		writeError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
		return
	}
	if err := h.sessions.Delete(ac.SessionID); err != nil {
		writeStoreError(w, h.logger, "delete session", err)
		return
	}
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, access)
}
