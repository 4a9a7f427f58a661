package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dukerupert/groceryhub/internal/model"
)

type SessionStore struct {
	db  *sql.DB
	ttl time.Duration
}

// NewSessionStore returns a store whose sessions live for ttl.
func NewSessionStore(db *sql.DB, ttl time.Duration) *SessionStore {
	return &SessionStore{db: db, ttl: ttl}
}

func scanSession(scanner interface{ Scan(...any) error }) (*model.Session, error) {
	var s model.Session
	var isAdmin int
	var expiresAt, createdAt int64
	err := scanner.Scan(&s.ID, &s.Token, &s.ListID, &s.Username, &isAdmin, &expiresAt, &createdAt)
	if err != nil {
		return nil, err
	}
	s.IsAdmin = isAdmin != 0
	s.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	s.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &s, nil
}

const sessionCols = `id, token, list_id, username, is_admin, expires_at, created_at`

// Create opens a session on listID with a crypto-random token. No user is
// selected yet.
func (s *SessionStore) Create(listID string) (*model.Session, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(tokenBytes)
	now := time.Now()

	result, err := s.db.Exec(
		`INSERT INTO sessions (token, list_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		token, listID, now.Add(s.ttl).UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("create session on %q: %w", listID, ErrNotFound)
		}
		return nil, classify("insert session", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err != nil {
		return nil, classify("get session", err)
	}
	return sess, nil
}

// GetByToken returns the session for the given token, or nil if expired or not found.
func (s *SessionStore) GetByToken(token string) (*model.Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM sessions WHERE token = ? AND expires_at > ?`,
		token, time.Now().UnixMilli(),
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classify("get session by token", err)
	}
	return sess, nil
}

// SelectUser records the chosen user on the session.
func (s *SessionStore) SelectUser(id int64, username string, isAdmin bool) error {
	res, err := s.db.Exec(
		`UPDATE sessions SET username = ?, is_admin = ? WHERE id = ?`,
		username, boolToInt(isAdmin), id,
	)
	if err != nil {
		return classify("select user", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SessionStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return classify("delete session", err)
	}
	return nil
}

func (s *SessionStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, time.Now().UnixMilli())
	if err != nil {
		return 0, classify("delete expired sessions", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
