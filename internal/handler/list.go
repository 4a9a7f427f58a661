package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/groceryhub/internal/auth"
	"github.com/dukerupert/groceryhub/internal/model"
	"github.com/dukerupert/groceryhub/internal/store"
	"github.com/dukerupert/groceryhub/internal/websocket"
)

type ListHandler struct {
	lists    *store.ListStore
	sessions *store.SessionStore
	hub      *websocket.Hub
	validate *validator.Validate
	logger   *slog.Logger
}

func NewListHandler(ls *store.ListStore, ss *store.SessionStore, hub *websocket.Hub, v *validator.Validate, logger *slog.Logger) *ListHandler {
	return &ListHandler{lists: ls, sessions: ss, hub: hub, validate: v, logger: logger}
}

type createListRequest struct {
	Name string `json:"name" validate:"required,max=80"`
	PIN  string `json:"pin" validate:"required,pin"`
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type verifyPINRequest struct {
	PIN string `json:"pin" validate:"required,pin"`
}

type listSessionResponse struct {
	List    *model.GroceryList `json:"list"`
	Session auth.Access        `json:"session"`
}

func (h *ListHandler) List(w http.ResponseWriter, r *http.Request) {
	lists, err := h.lists.List()
	if err != nil {
		writeStoreError(w, h.logger, "list lists", err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

func (h *ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.lists.Get(r.PathValue("list_id"))
	if err != nil {
		writeStoreError(w, h.logger, "get list", err)
		return
	}
	if l == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "list not found")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// Create makes a list and opens a session on it, so the creator does not
// have to type the PIN twice.
func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createListRequest
	if !decode(w, r, h.validate, &req) {
		return
	}

	l, err := h.lists.Create(req.Name, req.PIN, req.Date)
	if err != nil {
		writeStoreError(w, h.logger, "create list", err)
		return
	}
	h.logger.Info("list created", "list_id", l.ID)

	access, ok := h.openSession(w, r, l.ID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, listSessionResponse{List: l, Session: access})
}

// VerifyPIN checks the list PIN and opens a session. Any session the client
// already had is replaced.
func (h *ListHandler) VerifyPIN(w http.ResponseWriter, r *http.Request) {
	listID := r.PathValue("list_id")
	var req verifyPINRequest
	if !decode(w, r, h.validate, &req) {
		return
	}

	ok, err := h.lists.VerifyPIN(listID, req.PIN)
	if err != nil {
		writeStoreError(w, h.logger, "verify list pin", err)
		return
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, "WRONG_PIN", "Incorrect PIN")
		return
	}

	l, err := h.lists.Get(listID)
	if err != nil {
		writeStoreError(w, h.logger, "get list", err)
		return
	}
	if l == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "list not found")
		return
	}

	access, ok := h.openSession(w, r, listID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, listSessionResponse{List: l, Session: access})
}

func (h *ListHandler) openSession(w http.ResponseWriter, r *http.Request, listID string) (auth.Access, bool) {
	var access auth.Access
	if err := access.ChooseList(listID); err != nil {
		writeError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
		return auth.Access{}, false
	}
	if err := access.VerifyPIN(); err != nil {
		writeError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
		return auth.Access{}, false
	}

	if prev, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessions.Delete(prev.SessionID); err != nil {
			h.logger.Warn("drop previous session", "error", err)
		}
	}

	sess, err := h.sessions.Create(listID)
	if err != nil {
		writeStoreError(w, h.logger, "create session", err)
		return auth.Access{}, false
	}
	setSessionCookie(w, r, sess.Token, sess.ExpiresAt)
	return access, true
}

// Delete removes the list with all its items, users and sessions. Clients
// watching it are told before their feed goes empty.
func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	listID := r.PathValue("list_id")
	if err := h.lists.Delete(listID); err != nil {
		writeStoreError(w, h.logger, "delete list", err)
		return
	}
	h.logger.Info("list deleted", "list_id", listID, "by", auth.Username(r.Context()))
	h.hub.Broadcast(listID, websocket.NewEvent(websocket.TypeListDeleted, listID))
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
