package store

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/groceryhub/internal/database"
	"github.com/dukerupert/groceryhub/internal/model"
)

func setupItemTestDB(t *testing.T) (*ItemStore, *ListStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	n := NewNotifier()
	ls := NewListStore(db, n)
	if _, err := ls.Create("Home", "1234", "2024-05-01"); err != nil {
		t.Fatalf("create list: %v", err)
	}
	return NewItemStore(db, n), ls
}

func addItem(t *testing.T, s *ItemStore, name string, qty float64, purchased bool) *model.GroceryItem {
	t.Helper()
	item, err := s.Add("home", model.GroceryItem{Name: name, Quantity: qty, Unit: "kg", Category: "Vegetables", Purchased: purchased})
	if err != nil {
		t.Fatalf("add %s: %v", name, err)
	}
	return item
}

func waitSnapshot(t *testing.T, ch <-chan []model.GroceryItem, want int) []model.GroceryItem {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case items := <-ch:
			if len(items) == want {
				return items
			}
		case <-deadline:
			t.Fatalf("timed out waiting for snapshot with %d items", want)
		}
	}
}

func TestAddAssignsIDAndDate(t *testing.T) {
	s, _ := setupItemTestDB(t)

	item := addItem(t, s, "Onion", 2, false)
	if item.ID == "" {
		t.Error("expected generated id")
	}
	if item.DateAdded.IsZero() {
		t.Error("expected date_added to be set")
	}
	if item.ListID != "home" {
		t.Errorf("list_id = %q, want home", item.ListID)
	}

	got, err := s.Get("home", item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Name != "Onion" || got.Quantity != 2 || got.Unit != "kg" {
		t.Errorf("unexpected item: %+v", got)
	}
}

func TestAddRequiresName(t *testing.T) {
	s, _ := setupItemTestDB(t)

	_, err := s.Add("home", model.GroceryItem{Name: "  "})
	if !errors.Is(err, ErrInvalidItem) {
		t.Errorf("err = %v, want ErrInvalidItem", err)
	}
}

func TestAddUnknownList(t *testing.T) {
	s, _ := setupItemTestDB(t)

	_, err := s.Add("nowhere", model.GroceryItem{Name: "Milk"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAddUpsertsByID(t *testing.T) {
	s, _ := setupItemTestDB(t)

	first := addItem(t, s, "Milk", 1, false)
	updated := *first
	updated.Quantity = 3
	updated.Purchased = true
	if _, err := s.Add("home", updated); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	items, err := s.Snapshot("home")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len = %d, want 1", len(items))
	}
	if items[0].Quantity != 3 || !items[0].Purchased {
		t.Errorf("upsert not applied: %+v", items[0])
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	s, _ := setupItemTestDB(t)

	got, err := s.Get("home", "nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestSnapshotInsertionOrder(t *testing.T) {
	s, _ := setupItemTestDB(t)

	base := time.Now()
	for i, name := range []string{"C", "A", "B"} {
		_, err := s.Add("home", model.GroceryItem{Name: name, Quantity: 1, DateAdded: base.Add(time.Duration(i) * time.Second)})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	items, err := s.Snapshot("home")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	got := []string{items[0].Name, items[1].Name, items[2].Name}
	if got[0] != "C" || got[1] != "A" || got[2] != "B" {
		t.Errorf("order = %v, want [C A B]", got)
	}
}

func TestSnapshotSkipsInvalidRows(t *testing.T) {
	s, _ := setupItemTestDB(t)
	addItem(t, s, "Rice", 1, false)

	if _, err := s.db.Exec(
		`INSERT INTO list_items (id, list_id, name, date_added) VALUES ('broken', 'home', '', 0)`,
	); err != nil {
		t.Fatalf("insert raw: %v", err)
	}

	items, err := s.Snapshot("home")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Rice" {
		t.Errorf("items = %+v, want only Rice", items)
	}
}

func TestSetPurchasedByName(t *testing.T) {
	s, _ := setupItemTestDB(t)
	addItem(t, s, "Tomato", 1, false)
	addItem(t, s, "Tomato", 2, false)
	addItem(t, s, "Garlic", 1, false)

	n, err := s.SetPurchasedByName("home", "Tomato", true)
	if err != nil {
		t.Fatalf("set purchased: %v", err)
	}
	if n != 2 {
		t.Errorf("affected = %d, want 2", n)
	}

	items, _ := s.Snapshot("home")
	for _, item := range items {
		want := item.Name == "Tomato"
		if item.Purchased != want {
			t.Errorf("%s purchased = %v, want %v", item.Name, item.Purchased, want)
		}
	}
}

func TestSetPurchasedByNameNoMatch(t *testing.T) {
	s, _ := setupItemTestDB(t)
	addItem(t, s, "Tomato", 1, false)

	n, err := s.SetPurchasedByName("home", "Potato", true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n != 0 {
		t.Errorf("affected = %d, want 0", n)
	}
}

func TestDeleteByName(t *testing.T) {
	s, _ := setupItemTestDB(t)
	addItem(t, s, "Tomato", 1, false)
	addItem(t, s, "Tomato", 2, true)
	addItem(t, s, "Garlic", 1, false)

	n, err := s.DeleteByName("home", "Tomato")
	if err != nil {
		t.Fatalf("delete by name: %v", err)
	}
	if n != 2 {
		t.Errorf("affected = %d, want 2", n)
	}
	items, _ := s.Snapshot("home")
	if len(items) != 1 || items[0].Name != "Garlic" {
		t.Errorf("items = %+v, want only Garlic", items)
	}
}

func TestDeletePurchased(t *testing.T) {
	s, _ := setupItemTestDB(t)
	addItem(t, s, "Milk", 1, true)
	addItem(t, s, "Bread", 1, false)
	addItem(t, s, "Eggs", 12, true)

	n, err := s.DeletePurchased("home")
	if err != nil {
		t.Fatalf("delete purchased: %v", err)
	}
	if n != 2 {
		t.Errorf("affected = %d, want 2", n)
	}
	items, _ := s.Snapshot("home")
	for _, item := range items {
		if item.Purchased {
			t.Errorf("purchased item %s survived", item.Name)
		}
	}
	if len(items) != 1 {
		t.Errorf("len = %d, want 1", len(items))
	}
}

func TestDeleteSingleAndAll(t *testing.T) {
	s, _ := setupItemTestDB(t)
	a := addItem(t, s, "Milk", 1, false)
	addItem(t, s, "Bread", 1, false)

	if err := s.Delete("home", a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete("home", a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}

	n, err := s.DeleteAll("home")
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if n != 1 {
		t.Errorf("affected = %d, want 1", n)
	}
}

func TestSubscribeInitialSnapshot(t *testing.T) {
	s, _ := setupItemTestDB(t)
	addItem(t, s, "Milk", 1, false)

	ch := make(chan []model.GroceryItem, 8)
	unsubscribe := s.Subscribe("home", func(items []model.GroceryItem) { ch <- items }, nil)
	defer unsubscribe()

	items := waitSnapshot(t, ch, 1)
	if items[0].Name != "Milk" {
		t.Errorf("name = %q, want Milk", items[0].Name)
	}
}

func TestSubscribeSeesMutations(t *testing.T) {
	s, _ := setupItemTestDB(t)

	ch := make(chan []model.GroceryItem, 8)
	unsubscribe := s.Subscribe("home", func(items []model.GroceryItem) { ch <- items }, nil)
	defer unsubscribe()
	waitSnapshot(t, ch, 0)

	addItem(t, s, "Milk", 1, false)
	waitSnapshot(t, ch, 1)

	addItem(t, s, "Bread", 1, true)
	waitSnapshot(t, ch, 2)

	if _, err := s.DeletePurchased("home"); err != nil {
		t.Fatalf("delete purchased: %v", err)
	}
	waitSnapshot(t, ch, 1)
}

func TestSubscribeIsolatedByList(t *testing.T) {
	s, ls := setupItemTestDB(t)
	if _, err := ls.Create("Work", "1111", "2024-05-02"); err != nil {
		t.Fatalf("create list: %v", err)
	}

	var mu sync.Mutex
	calls := 0
	unsubscribe := s.Subscribe("work", func([]model.GroceryItem) {
		mu.Lock()
		calls++
		mu.Unlock()
	}, nil)
	defer unsubscribe()

	addItem(t, s, "Milk", 1, false)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("calls = %d, want only the initial snapshot", calls)
	}
}

func TestUnsubscribeStopsCallbacks(t *testing.T) {
	s, _ := setupItemTestDB(t)

	var mu sync.Mutex
	calls := 0
	ch := make(chan []model.GroceryItem, 8)
	unsubscribe := s.Subscribe("home", func(items []model.GroceryItem) {
		mu.Lock()
		calls++
		mu.Unlock()
		ch <- items
	}, nil)
	waitSnapshot(t, ch, 0)

	unsubscribe()
	unsubscribe() // idempotent

	mu.Lock()
	before := calls
	mu.Unlock()

	addItem(t, s, "Milk", 1, false)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != before {
		t.Errorf("callback ran after unsubscribe: %d calls, want %d", calls, before)
	}
	if got := s.notifier.Active(); got != 0 {
		t.Errorf("active = %d, want 0", got)
	}
}

func TestSubscribeErrorFiresOnce(t *testing.T) {
	s, _ := setupItemTestDB(t)

	errs := make(chan error, 4)
	updates := make(chan []model.GroceryItem, 4)
	s.db.Close()

	unsubscribe := s.Subscribe("home", func(items []model.GroceryItem) { updates <- items }, func(err error) { errs <- err })
	defer unsubscribe()

	select {
	case err := <-errs:
		if err == nil {
			t.Error("expected non-nil error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for onError")
	}

	s.notifier.Publish("home")
	time.Sleep(50 * time.Millisecond)
	if len(errs) != 0 || len(updates) != 0 {
		t.Errorf("unexpected callbacks after error: %d errors, %d updates", len(errs), len(updates))
	}
	if got := s.notifier.Active(); got != 0 {
		t.Errorf("active = %d, want 0", got)
	}
}

const (
	abortDeleteOf = `CREATE TRIGGER abort_batch BEFORE DELETE ON list_items
		WHEN old.id = ? BEGIN SELECT RAISE(ABORT, 'boom'); END`
	abortUpdateOf = `CREATE TRIGGER abort_batch BEFORE UPDATE ON list_items
		WHEN old.id = ? BEGIN SELECT RAISE(ABORT, 'boom'); END`
)

func TestBatchFailureKeepsEveryItem(t *testing.T) {
	tests := []struct {
		name    string
		trigger string
		run     func(*ItemStore) (int64, error)
	}{
		{"delete by name", abortDeleteOf, func(s *ItemStore) (int64, error) { return s.DeleteByName("home", "Milk") }},
		{"delete purchased", abortDeleteOf, func(s *ItemStore) (int64, error) { return s.DeletePurchased("home") }},
		{"delete all", abortDeleteOf, func(s *ItemStore) (int64, error) { return s.DeleteAll("home") }},
		{"set purchased", abortUpdateOf, func(s *ItemStore) (int64, error) { return s.SetPurchasedByName("home", "Milk", false) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := setupItemTestDB(t)
			addItem(t, s, "Milk", 1, true)
			middle := addItem(t, s, "Milk", 2, true)
			addItem(t, s, "Milk", 3, true)
			// SQLite does not bind parameters inside trigger bodies.
			trigger := strings.Replace(tt.trigger, "?", "'"+middle.ID+"'", 1)
			if _, err := s.db.Exec(trigger); err != nil {
				t.Fatalf("create trigger: %v", err)
			}

			n, err := tt.run(s)
			if err == nil {
				t.Fatal("expected error from aborted batch")
			}
			if n != 0 {
				t.Errorf("affected = %d, want 0", n)
			}
			items, err := s.Snapshot("home")
			if err != nil {
				t.Fatalf("snapshot: %v", err)
			}
			if len(items) != 3 {
				t.Fatalf("len = %d, want 3", len(items))
			}
			for _, item := range items {
				if !item.Purchased {
					t.Errorf("item with qty %v changed by failed batch", item.Quantity)
				}
			}
		})
	}
}

func TestReplaceAll(t *testing.T) {
	s, _ := setupItemTestDB(t)
	addItem(t, s, "Milk", 1, false)
	addItem(t, s, "Bread", 1, false)

	ch := make(chan []model.GroceryItem, 8)
	unsubscribe := s.Subscribe("home", func(items []model.GroceryItem) { ch <- items }, nil)
	defer unsubscribe()
	waitSnapshot(t, ch, 2)

	saved, err := s.ReplaceAll("home", []model.GroceryItem{
		{Name: " Eggs ", Quantity: 12, Unit: "pcs"},
		{ID: "fixed", Name: "Rice", Quantity: 1, Unit: "kg"},
		{Name: "Salt", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(saved) != 3 || saved[0].Name != "Eggs" || saved[0].ID == "" || saved[1].ID != "fixed" {
		t.Errorf("saved = %+v", saved)
	}

	items := waitSnapshot(t, ch, 3)
	got := []string{items[0].Name, items[1].Name, items[2].Name}
	if got[0] != "Eggs" || got[1] != "Rice" || got[2] != "Salt" {
		t.Errorf("items = %v, want [Eggs Rice Salt]", got)
	}
}

func TestReplaceAllEmptyClearsList(t *testing.T) {
	s, _ := setupItemTestDB(t)
	addItem(t, s, "Milk", 1, false)

	saved, err := s.ReplaceAll("home", nil)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(saved) != 0 {
		t.Errorf("saved = %d, want 0", len(saved))
	}
	if items, _ := s.Snapshot("home"); len(items) != 0 {
		t.Errorf("items = %d, want 0", len(items))
	}
}

func TestReplaceAllFailureKeepsOldItems(t *testing.T) {
	tests := []struct {
		name  string
		items []model.GroceryItem
		want  error
	}{
		{"blank name", []model.GroceryItem{{Name: "Eggs"}, {Name: " "}}, ErrInvalidItem},
		{"repeated id", []model.GroceryItem{{ID: "x", Name: "Eggs"}, {ID: "x", Name: "Rice"}}, ErrInvalidItem},
		{"id of another list", []model.GroceryItem{{Name: "Eggs"}, {ID: "taken", Name: "Rice"}}, ErrInvalidItem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ls := setupItemTestDB(t)
			if _, err := ls.Create("Work", "1111", "2024-05-02"); err != nil {
				t.Fatalf("create list: %v", err)
			}
			if _, err := s.Add("work", model.GroceryItem{ID: "taken", Name: "Coffee"}); err != nil {
				t.Fatalf("add: %v", err)
			}
			addItem(t, s, "Milk", 1, false)
			addItem(t, s, "Bread", 1, false)

			if _, err := s.ReplaceAll("home", tt.items); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			items, _ := s.Snapshot("home")
			if len(items) != 2 || items[0].Name != "Milk" || items[1].Name != "Bread" {
				t.Errorf("items = %+v, want Milk and Bread untouched", items)
			}
		})
	}
}

func TestReplaceAllUnknownList(t *testing.T) {
	s, _ := setupItemTestDB(t)

	_, err := s.ReplaceAll("nowhere", []model.GroceryItem{{Name: "Milk"}})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
