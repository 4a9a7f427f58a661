package auth

import (
	"errors"
	"fmt"
)

// State is a step of list access. Item operations need UserSelected.
type State int

const (
	NoList State = iota
	ListChosen
	PinVerified
	UserSelected
)

func (s State) String() string {
	switch s {
	case NoList:
		return "no_list"
	case ListChosen:
		return "list_chosen"
	case PinVerified:
		return "pin_verified"
	case UserSelected:
		return "user_selected"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var ErrInvalidTransition = errors.New("invalid access transition")

// Access is the access state of one client.
type Access struct {
	State    State  `json:"state"`
	ListID   string `json:"list_id,omitempty"`
	Username string `json:"username,omitempty"`
	IsAdmin  bool   `json:"is_admin"`
}

func (a *Access) transition(from, to State) error {
	if a.State != from {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, a.State, to)
	}
	a.State = to
	return nil
}

// ChooseList picks or creates a list.
func (a *Access) ChooseList(listID string) error {
	if listID == "" {
		return fmt.Errorf("%w: empty list id", ErrInvalidTransition)
	}
	if err := a.transition(NoList, ListChosen); err != nil {
		return err
	}
	a.ListID = listID
	return nil
}

// VerifyPIN records a correct list PIN.
func (a *Access) VerifyPIN() error {
	return a.transition(ListChosen, PinVerified)
}

// SelectUser records the user chosen or created on the list.
func (a *Access) SelectUser(username string, isAdmin bool) error {
	if username == "" {
		return fmt.Errorf("%w: empty username", ErrInvalidTransition)
	}
	if err := a.transition(PinVerified, UserSelected); err != nil {
		return err
	}
	a.Username = username
	a.IsAdmin = isAdmin
	return nil
}

// SwitchList forgets the list from any state.
func (a *Access) SwitchList() {
	*a = Access{State: NoList}
}

// SwitchUser keeps the list but requires its PIN again.
func (a *Access) SwitchUser() error {
	if a.State != UserSelected && a.State != PinVerified {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, a.State, ListChosen)
	}
	a.State = ListChosen
	a.Username = ""
	a.IsAdmin = false
	return nil
}

// CanEditItems reports whether item operations are permitted.
func (a Access) CanEditItems() bool {
	return a.State == UserSelected
}
