package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/groceryhub/internal/auth"
	"github.com/dukerupert/groceryhub/internal/model"
	"github.com/dukerupert/groceryhub/internal/store"
	"github.com/dukerupert/groceryhub/internal/websocket"
)

type UserHandler struct {
	users    *store.UserStore
	sessions *store.SessionStore
	hub      *websocket.Hub
	validate *validator.Validate
	logger   *slog.Logger
}

func NewUserHandler(us *store.UserStore, ss *store.SessionStore, hub *websocket.Hub, v *validator.Validate, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: us, sessions: ss, hub: hub, validate: v, logger: logger}
}

type createUserRequest struct {
	Name string `json:"name" validate:"required,max=40"`
	PIN  string `json:"pin" validate:"required,pin"`
}

type userLoginRequest struct {
	PIN string `json:"pin" validate:"required,pin"`
}

type userSessionResponse struct {
	User    *model.UserProfile `json:"user"`
	Session auth.Access        `json:"session"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.PathValue("list_id"))
	if err != nil {
		writeStoreError(w, h.logger, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Create adds a user to the list and selects it on the caller's session.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.canSelect(w, r) {
		return
	}
	listID := r.PathValue("list_id")
	var req createUserRequest
	if !decode(w, r, h.validate, &req) {
		return
	}

	u, err := h.users.CreateUser(listID, req.Name, req.PIN)
	if err != nil {
		writeStoreError(w, h.logger, "create user", err)
		return
	}
	h.logger.Info("user created", "list_id", listID, "username", u.Name, "is_admin", u.IsAdmin)
	h.hub.Broadcast(listID, websocket.NewEvent(websocket.TypeUsersChanged, listID))

	access, ok := h.selectUser(w, r, u)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, userSessionResponse{User: u, Session: access})
}

// Login selects an existing user after checking the user's PIN.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.canSelect(w, r) {
		return
	}
	var req userLoginRequest
	if !decode(w, r, h.validate, &req) {
		return
	}

	u, err := h.users.VerifyUser(r.PathValue("list_id"), r.PathValue("name"), req.PIN)
	if err != nil {
		writeStoreError(w, h.logger, "verify user", err)
		return
	}

	access, ok := h.selectUser(w, r, u)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, userSessionResponse{User: u, Session: access})
}

// canSelect allows picking a user only straight after the list PIN.
func (h *UserHandler) canSelect(w http.ResponseWriter, r *http.Request) bool {
	if auth.Username(r.Context()) != "" {
		writeError(w, http.StatusConflict, "USER_SELECTED", "Switch user first")
		return false
	}
	return true
}

func (h *UserHandler) selectUser(w http.ResponseWriter, r *http.Request, u *model.UserProfile) (auth.Access, bool) {
	ac, _ := auth.FromContext(r.Context())
	access := ac.Access()
	if err := access.SelectUser(u.Name, u.IsAdmin); err != nil {
		writeError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
		return auth.Access{}, false
	}
	if err := h.sessions.SelectUser(ac.SessionID, u.Name, u.IsAdmin); err != nil {
		writeStoreError(w, h.logger, "select user", err)
		return auth.Access{}, false
	}
	return access, true
}

// Delete removes a user. Sessions that had selected it end; when admins
// delete themselves the caller's cookie is cleared too.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	listID := r.PathValue("list_id")
	name := r.PathValue("name")
	if err := h.users.DeleteUser(listID, name); err != nil {
		writeStoreError(w, h.logger, "delete user", err)
		return
	}
	h.logger.Info("user deleted", "list_id", listID, "username", name, "by", auth.Username(r.Context()))
	h.hub.Broadcast(listID, websocket.NewEvent(websocket.TypeUsersChanged, listID))

	if strings.EqualFold(strings.TrimSpace(name), auth.Username(r.Context())) {
		clearSessionCookie(w)
	}
	w.WriteHeader(http.StatusNoContent)
}
