package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/groceryhub/internal/model"
	"github.com/google/uuid"
)

type ItemStore struct {
	db       *sql.DB
	notifier *Notifier
}

func NewItemStore(db *sql.DB, notifier *Notifier) *ItemStore {
	return &ItemStore{db: db, notifier: notifier}
}

func scanItem(scanner interface{ Scan(...any) error }) (*model.GroceryItem, error) {
	var item model.GroceryItem
	var purchased int
	var dateAdded int64

	err := scanner.Scan(
		&item.ID, &item.ListID, &item.Name, &item.Quantity, &item.Unit,
		&item.Category, &purchased, &dateAdded, &item.AddedBy,
	)
	if err != nil {
		return nil, err
	}
	item.Purchased = purchased != 0
	item.DateAdded = time.UnixMilli(dateAdded).UTC()
	return &item, nil
}

const itemCols = `id, list_id, name, quantity, unit, category, purchased, date_added, added_by`

// Subscribe delivers the current items of listID to onUpdate, then a fresh
// snapshot after every committed change to that list. If a snapshot cannot be
// loaded, onError is called once and the subscription ends. Callbacks for one
// subscription never overlap and never run after the returned func returns.
// The returned func is safe to call more than once.
func (s *ItemStore) Subscribe(listID string, onUpdate func([]model.GroceryItem), onError func(error)) func() {
	return s.notifier.subscribe(listID, func() ([]model.GroceryItem, error) {
		return s.Snapshot(listID)
	}, onUpdate, onError)
}

// Snapshot returns every valid item of listID in insertion order.
func (s *ItemStore) Snapshot(listID string) ([]model.GroceryItem, error) {
	rows, err := s.db.Query(
		`SELECT `+itemCols+` FROM list_items WHERE list_id = ? ORDER BY date_added ASC, rowid ASC`,
		listID,
	)
	if err != nil {
		return nil, classify("list items", err)
	}
	defer rows.Close()

	items := []model.GroceryItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, classify("scan item", err)
		}
		if !item.Valid() {
			continue
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list items", err)
	}
	return items, nil
}

func (s *ItemStore) Get(listID, id string) (*model.GroceryItem, error) {
	row := s.db.QueryRow(`SELECT `+itemCols+` FROM list_items WHERE list_id = ? AND id = ?`, listID, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classify("get item", err)
	}
	return item, nil
}

// Add writes item under its id, replacing any existing item with that id.
// An empty id gets a fresh UUID and a zero DateAdded becomes now.
func (s *ItemStore) Add(listID string, item model.GroceryItem) (*model.GroceryItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return nil, ErrInvalidItem
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.DateAdded.IsZero() {
		item.DateAdded = time.Now()
	}
	item.ListID = listID

	res, err := s.db.Exec(
		`INSERT INTO list_items (`+itemCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			quantity = excluded.quantity,
			unit = excluded.unit,
			category = excluded.category,
			purchased = excluded.purchased,
			date_added = excluded.date_added,
			added_by = excluded.added_by
		WHERE list_items.list_id = excluded.list_id`,
		item.ID, listID, item.Name, item.Quantity, item.Unit, item.Category,
		boolToInt(item.Purchased), item.DateAdded.UnixMilli(), item.AddedBy,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("add item to %q: %w", listID, ErrNotFound)
		}
		return nil, classify("add item", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, classify("add item", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("add item: id %q belongs to another list: %w", item.ID, ErrInvalidItem)
	}

	s.notifier.Publish(listID)
	item.DateAdded = time.UnixMilli(item.DateAdded.UnixMilli()).UTC()
	return &item, nil
}

// ReplaceAll swaps every item of listID for items in one transaction. Items
// get ids and dates the way Add assigns them. An id owned by another list,
// or repeated within items, rejects the whole batch.
func (s *ItemStore) ReplaceAll(listID string, items []model.GroceryItem) ([]model.GroceryItem, error) {
	out := make([]model.GroceryItem, 0, len(items))
	now := time.Now()
	for _, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" {
			return nil, ErrInvalidItem
		}
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if item.DateAdded.IsZero() {
			item.DateAdded = now
		}
		item.ListID = listID
		item.DateAdded = time.UnixMilli(item.DateAdded.UnixMilli()).UTC()
		out = append(out, item)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, classify("replace items: begin tx", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM list_items WHERE list_id = ?`, listID); err != nil {
		return nil, classify("replace items: clear", err)
	}
	for _, item := range out {
		_, err := tx.Exec(
			`INSERT INTO list_items (`+itemCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, listID, item.Name, item.Quantity, item.Unit, item.Category,
			boolToInt(item.Purchased), item.DateAdded.UnixMilli(), item.AddedBy,
		)
		if err != nil {
			if isPrimaryKeyViolation(err) {
				return nil, fmt.Errorf("replace items: id %q already taken: %w", item.ID, ErrInvalidItem)
			}
			if isForeignKeyViolation(err) {
				return nil, fmt.Errorf("replace items on %q: %w", listID, ErrNotFound)
			}
			return nil, classify("replace items: insert", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, classify("replace items: commit", err)
	}

	s.notifier.Publish(listID)
	return out, nil
}

// SetPurchasedByName marks every item of listID named name as purchased or
// not, in one transaction. It returns the number of matching items.
func (s *ItemStore) SetPurchasedByName(listID, name string, purchased bool) (int64, error) {
	return s.batch("set purchased", listID,
		`UPDATE list_items SET purchased = ? WHERE list_id = ? AND name = ?`,
		boolToInt(purchased), listID, name,
	)
}

// DeleteByName removes every item of listID named name.
func (s *ItemStore) DeleteByName(listID, name string) (int64, error) {
	return s.batch("delete by name", listID,
		`DELETE FROM list_items WHERE list_id = ? AND name = ?`,
		listID, name,
	)
}

// DeletePurchased removes every purchased item of listID.
func (s *ItemStore) DeletePurchased(listID string) (int64, error) {
	return s.batch("delete purchased", listID,
		`DELETE FROM list_items WHERE list_id = ? AND purchased = 1`,
		listID,
	)
}

func (s *ItemStore) Delete(listID, id string) error {
	n, err := s.batch("delete item", listID,
		`DELETE FROM list_items WHERE list_id = ? AND id = ?`,
		listID, id,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ItemStore) DeleteAll(listID string) (int64, error) {
	return s.batch("delete all items", listID,
		`DELETE FROM list_items WHERE list_id = ?`,
		listID,
	)
}

// batch runs one statement inside a transaction and publishes after commit
// when it touched at least one row.
func (s *ItemStore) batch(op, listID, query string, args ...any) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, classify(op+": begin tx", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(query, args...)
	if err != nil {
		return 0, classify(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify(op, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, classify(op+": commit", err)
	}

	if n > 0 {
		s.notifier.Publish(listID)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
