package auth

import "context"

type contextKey struct{}

// AuthContext describes the session behind a request. Username is empty
// until a user has been selected on the list.
type AuthContext struct {
	SessionID int64
	ListID    string
	Username  string
	IsAdmin   bool
}

// Access returns the access state the session is in.
func (ac AuthContext) Access() Access {
	a := Access{State: PinVerified, ListID: ac.ListID}
	if ac.Username != "" {
		a.State = UserSelected
		a.Username = ac.Username
		a.IsAdmin = ac.IsAdmin
	}
	return a
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func ListID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.ListID
}

func Username(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.Username
}

func IsAdmin(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.Username != "" && ac.IsAdmin
}
