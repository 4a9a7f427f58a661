package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/groceryhub/internal/auth"
	"github.com/dukerupert/groceryhub/internal/store"
)

const SessionCookieName = "groceryhub_session"

// LoadSession populates AuthContext from the session cookie when it names a
// live session. Requests without one pass through unchanged.
func LoadSession(sessionStore *store.SessionStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := sessionStore.GetByToken(cookie.Value)
			if err != nil {
				logger.Error("load session", "error", err)
			}
			if err != nil || sess == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.WithAuth(r.Context(), auth.AuthContext{
				SessionID: sess.ID,
				ListID:    sess.ListID,
				Username:  sess.Username,
				IsAdmin:   sess.IsAdmin,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireList rejects requests whose session has not verified the PIN of the
// list named by the {list_id} path value.
func RequireList(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			deny(w, http.StatusUnauthorized, "LIST_PIN_REQUIRED", "Enter the list PIN first")
			return
		}
		if ac.ListID != r.PathValue("list_id") {
			deny(w, http.StatusForbidden, "WRONG_LIST", "Your session is open on a different list")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser additionally requires a selected user.
func RequireUser(next http.Handler) http.Handler {
	return RequireList(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, _ := auth.FromContext(r.Context())
		if !ac.Access().CanEditItems() {
			deny(w, http.StatusForbidden, "USER_REQUIRED", "Select a user first")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// RequireAdmin additionally requires the selected user to be the list admin.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			deny(w, http.StatusForbidden, "ADMIN_REQUIRED", "Only the list admin can do that")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func deny(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg, "code": code})
}
