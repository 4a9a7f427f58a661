package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/dukerupert/groceryhub/internal/model"
	"github.com/dukerupert/groceryhub/internal/pin"
)

type ListStore struct {
	db       *sql.DB
	notifier *Notifier
}

func NewListStore(db *sql.DB, notifier *Notifier) *ListStore {
	return &ListStore{db: db, notifier: notifier}
}

// Slugify derives a list id from a display name: trimmed, lowercased,
// whitespace runs collapsed to a single hyphen, everything outside
// [a-z0-9-] dropped.
func Slugify(name string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			b.WriteByte('-')
			space = false
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func scanList(scanner interface{ Scan(...any) error }) (*model.GroceryList, error) {
	var l model.GroceryList
	var createdAt int64
	err := scanner.Scan(&l.ID, &l.Name, &l.Date, &l.PINHash, &createdAt)
	if err != nil {
		return nil, err
	}
	l.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &l, nil
}

const listCols = `id, name, date, pin_hash, created_at`

// Create stores a new list keyed by Slugify(name). The primary key makes the
// existence check and the insert a single atomic step.
func (s *ListStore) Create(name, listPIN, date string) (*model.GroceryList, error) {
	id := Slugify(name)
	if id == "" {
		return nil, ErrInvalidName
	}
	digest, err := pin.Hash(listPIN)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	_, err = s.db.Exec(
		`INSERT INTO lists (`+listCols+`) VALUES (?, ?, ?, ?, ?)`,
		id, strings.TrimSpace(name), date, digest, now.UnixMilli(),
	)
	if err != nil {
		if isPrimaryKeyViolation(err) {
			return nil, ErrDuplicateList
		}
		return nil, classify("insert list", err)
	}
	return s.Get(id)
}

// List returns lists with a name and a date, newest date first.
func (s *ListStore) List() ([]model.GroceryList, error) {
	rows, err := s.db.Query(
		`SELECT ` + listCols + ` FROM lists WHERE name != '' AND date != '' ORDER BY date DESC, created_at DESC`,
	)
	if err != nil {
		return nil, classify("list lists", err)
	}
	defer rows.Close()

	lists := []model.GroceryList{}
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, classify("scan list", err)
		}
		lists = append(lists, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list lists", err)
	}
	return lists, nil
}

func (s *ListStore) Get(id string) (*model.GroceryList, error) {
	row := s.db.QueryRow(`SELECT `+listCols+` FROM lists WHERE id = ?`, id)
	l, err := scanList(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classify("get list", err)
	}
	return l, nil
}

// VerifyPIN reports whether listPIN opens list id.
func (s *ListStore) VerifyPIN(id, listPIN string) (bool, error) {
	l, err := s.Get(id)
	if err != nil {
		return false, err
	}
	if l == nil {
		return false, ErrNotFound
	}
	return pin.Verify(listPIN, l.PINHash), nil
}

// Delete removes a list with its items, users and sessions in one
// transaction. Deleting an absent list is not an error.
func (s *ListStore) Delete(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return classify("delete list: begin tx", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM list_items WHERE list_id = ?`,
		`DELETE FROM list_users WHERE list_id = ?`,
		`DELETE FROM sessions WHERE list_id = ?`,
		`DELETE FROM lists WHERE id = ?`,
	} {
		if _, err := tx.Exec(q, id); err != nil {
			return classify("delete list", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return classify("delete list: commit", err)
	}

	s.notifier.Publish(id)
	return nil
}

// Count is used by the metrics collector.
func (s *ListStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM lists`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count lists: %w", err)
	}
	return n, nil
}
