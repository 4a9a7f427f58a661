package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/groceryhub/internal/model"
	"github.com/dukerupert/groceryhub/internal/pin"
)

// UserStore keeps the per-list user profiles. Usernames are unique per list
// ignoring case.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.UserProfile, error) {
	var u model.UserProfile
	var isAdmin int
	var createdAt int64
	err := scanner.Scan(&u.ListID, &u.Name, &u.PINHash, &isAdmin, &createdAt)
	if err != nil {
		return nil, err
	}
	u.IsAdmin = isAdmin != 0
	u.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &u, nil
}

const userCols = `list_id, name, pin_hash, is_admin, created_at`

// ListUsers returns the profiles of listID that have a name and a PIN, in
// creation order.
func (s *UserStore) ListUsers(listID string) ([]model.UserProfile, error) {
	rows, err := s.db.Query(
		`SELECT `+userCols+` FROM list_users
		WHERE list_id = ? AND name != '' AND pin_hash != ''
		ORDER BY created_at ASC, rowid ASC`,
		listID,
	)
	if err != nil {
		return nil, classify("list users", err)
	}
	defer rows.Close()

	users := []model.UserProfile{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, classify("scan user", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list users", err)
	}
	return users, nil
}

func (s *UserStore) GetUser(listID, username string) (*model.UserProfile, error) {
	row := s.db.QueryRow(
		`SELECT `+userCols+` FROM list_users WHERE list_id = ? AND name = ?`,
		listID, strings.TrimSpace(username),
	)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classify("get user", err)
	}
	return u, nil
}

// CreateUser adds a profile to listID. The first profile of a list becomes
// its admin; the flag is computed by the insert itself so two concurrent
// creators cannot both win.
func (s *UserStore) CreateUser(listID, username, userPIN string) (*model.UserProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrInvalidUser
	}
	digest, err := pin.Hash(userPIN)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(
		`INSERT INTO list_users (`+userCols+`)
		SELECT ?, ?, ?, NOT EXISTS (SELECT 1 FROM list_users WHERE list_id = ?), ?`,
		listID, username, digest, listID, time.Now().UnixMilli(),
	)
	if err != nil {
		if isPrimaryKeyViolation(err) {
			return nil, ErrDuplicateUser
		}
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("create user on %q: %w", listID, ErrNotFound)
		}
		return nil, classify("insert user", err)
	}
	return s.GetUser(listID, username)
}

// VerifyUser returns the profile when userPIN matches, ErrNotFound when the
// profile does not exist and ErrWrongPIN otherwise.
func (s *UserStore) VerifyUser(listID, username, userPIN string) (*model.UserProfile, error) {
	u, err := s.GetUser(listID, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	if !pin.Verify(userPIN, u.PINHash) {
		return nil, ErrWrongPIN
	}
	return u, nil
}

// DeleteUser removes a profile and the sessions that selected it. Deleting
// an absent profile is not an error.
func (s *UserStore) DeleteUser(listID, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return classify("delete user: begin tx", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM list_users WHERE list_id = ? AND name = ?`, listID, username); err != nil {
		return classify("delete user", err)
	}
	if _, err := tx.Exec(`DELETE FROM sessions WHERE list_id = ? AND username = ?`, listID, username); err != nil {
		return classify("delete user sessions", err)
	}
	if err := tx.Commit(); err != nil {
		return classify("delete user: commit", err)
	}
	return nil
}
