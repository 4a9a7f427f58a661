package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/groceryhub/internal/database"
	"github.com/dukerupert/groceryhub/internal/model"
)

func setupListTestDB(t *testing.T) (*ListStore, *ItemStore, *UserStore, *SessionStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	n := NewNotifier()
	return NewListStore(db, n), NewItemStore(db, n), NewUserStore(db), NewSessionStore(db, time.Hour)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Weekly Shop", "weekly-shop"},
		{"  Weekly   Shop  ", "weekly-shop"},
		{"Mom's List!", "moms-list"},
		{"a & b", "a--b"},
		{"already-slug", "already-slug"},
		{"Tab\tSeparated", "tab-separated"},
		{"Café", "caf"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	for _, in := range []string{"Weekly Shop", "Mom's List!", "x  y  z", "Café 2024"} {
		once := Slugify(in)
		if twice := Slugify(once); twice != once {
			t.Errorf("Slugify(Slugify(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestListCreate(t *testing.T) {
	ls, _, _, _ := setupListTestDB(t)

	l, err := ls.Create("Weekly Shop", "1234", "2024-06-01")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if l.ID != "weekly-shop" {
		t.Errorf("id = %q, want weekly-shop", l.ID)
	}
	if l.Name != "Weekly Shop" || l.Date != "2024-06-01" {
		t.Errorf("unexpected list: %+v", l)
	}
	if l.PINHash == "1234" || len(l.PINHash) != 64 {
		t.Errorf("pin hash = %q, want a sha-256 hex digest", l.PINHash)
	}
}

func TestListCreateInvalidName(t *testing.T) {
	ls, _, _, _ := setupListTestDB(t)

	if _, err := ls.Create("???", "1234", "2024-06-01"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("err = %v, want ErrInvalidName", err)
	}
}

func TestListCreateDuplicate(t *testing.T) {
	ls, _, _, _ := setupListTestDB(t)

	if _, err := ls.Create("Weekly Shop", "1234", "2024-06-01"); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := ls.Create("weekly   shop", "9999", "2024-06-02")
	if !errors.Is(err, ErrDuplicateList) {
		t.Errorf("err = %v, want ErrDuplicateList", err)
	}
}

func TestListCreateConcurrent(t *testing.T) {
	ls, _, _, _ := setupListTestDB(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, dups := 0, 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ls.Create("Race", "1234", "2024-06-01")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrDuplicateList):
				dups++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 || dups != 7 {
		t.Errorf("wins = %d, dups = %d, want 1 and 7", wins, dups)
	}
}

func TestListListNewestFirst(t *testing.T) {
	ls, _, _, _ := setupListTestDB(t)

	for _, tc := range []struct{ name, date string }{
		{"Old", "2024-01-01"},
		{"New", "2024-03-01"},
		{"Mid", "2024-02-01"},
	} {
		if _, err := ls.Create(tc.name, "1234", tc.date); err != nil {
			t.Fatalf("create %s: %v", tc.name, err)
		}
	}
	if _, err := ls.db.Exec(`INSERT INTO lists (id, name, date, pin_hash, created_at) VALUES ('undated', 'Undated', '', '', 0)`); err != nil {
		t.Fatalf("insert raw: %v", err)
	}

	lists, err := ls.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lists) != 3 {
		t.Fatalf("len = %d, want 3", len(lists))
	}
	if lists[0].ID != "new" || lists[1].ID != "mid" || lists[2].ID != "old" {
		t.Errorf("order = %s, %s, %s; want new, mid, old", lists[0].ID, lists[1].ID, lists[2].ID)
	}
}

func TestListVerifyPIN(t *testing.T) {
	ls, _, _, _ := setupListTestDB(t)
	if _, err := ls.Create("Home", "4321", "2024-06-01"); err != nil {
		t.Fatalf("create: %v", err)
	}

	ok, err := ls.VerifyPIN("home", "4321")
	if err != nil || !ok {
		t.Errorf("correct pin: ok = %v, err = %v", ok, err)
	}
	ok, err = ls.VerifyPIN("home", "0000")
	if err != nil || ok {
		t.Errorf("wrong pin: ok = %v, err = %v", ok, err)
	}
	if _, err := ls.VerifyPIN("missing", "4321"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing list err = %v, want ErrNotFound", err)
	}
}

func TestListDeleteCascades(t *testing.T) {
	ls, is, us, ss := setupListTestDB(t)
	if _, err := ls.Create("Home", "1234", "2024-06-01"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := is.Add("home", model.GroceryItem{Name: "Milk", Quantity: 1}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := us.CreateUser("home", "alice", "1111"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	sess, err := ss.Create("home")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := ls.Delete("home"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if l, _ := ls.Get("home"); l != nil {
		t.Error("list survived delete")
	}
	if items, _ := is.Snapshot("home"); len(items) != 0 {
		t.Errorf("items = %d, want 0", len(items))
	}
	if users, _ := us.ListUsers("home"); len(users) != 0 {
		t.Errorf("users = %d, want 0", len(users))
	}
	if got, _ := ss.GetByToken(sess.Token); got != nil {
		t.Error("session survived list delete")
	}
}

func TestListDeleteAbsent(t *testing.T) {
	ls, _, _, _ := setupListTestDB(t)

	if err := ls.Delete("never-existed"); err != nil {
		t.Errorf("delete absent: %v", err)
	}
}

func TestListDeleteNotifiesSubscribers(t *testing.T) {
	ls, is, _, _ := setupListTestDB(t)
	if _, err := ls.Create("Home", "1234", "2024-06-01"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := is.Add("home", model.GroceryItem{Name: "Milk", Quantity: 1}); err != nil {
		t.Fatalf("add item: %v", err)
	}

	ch := make(chan []model.GroceryItem, 8)
	unsubscribe := is.Subscribe("home", func(items []model.GroceryItem) { ch <- items }, nil)
	defer unsubscribe()
	waitSnapshot(t, ch, 1)

	if err := ls.Delete("home"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	waitSnapshot(t, ch, 0)
}

func TestListCount(t *testing.T) {
	ls, _, _, _ := setupListTestDB(t)
	ls.Create("A", "1234", "2024-01-01")
	ls.Create("B", "1234", "2024-01-02")

	n, err := ls.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestListDeleteFailureKeepsEverything(t *testing.T) {
	ls, is, us, ss := setupListTestDB(t)
	if _, err := ls.Create("Home", "1234", "2024-06-01"); err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, name := range []string{"Milk", "Bread", "Eggs"} {
		if _, err := is.Add("home", model.GroceryItem{Name: name, Quantity: 1}); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}
	if _, err := us.CreateUser("home", "alice", "1111"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	sess, err := ss.Create("home")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	// The list row goes last, after items, users and sessions.
	if _, err := ls.db.Exec(`CREATE TRIGGER keep_list BEFORE DELETE ON lists
		BEGIN SELECT RAISE(ABORT, 'boom'); END`); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	if err := ls.Delete("home"); err == nil {
		t.Fatal("expected error from aborted list delete")
	}

	if l, _ := ls.Get("home"); l == nil {
		t.Error("list removed by failed delete")
	}
	if items, _ := is.Snapshot("home"); len(items) != 3 {
		t.Errorf("items = %d, want 3", len(items))
	}
	if users, _ := us.ListUsers("home"); len(users) != 1 {
		t.Errorf("users = %d, want 1", len(users))
	}
	if got, _ := ss.GetByToken(sess.Token); got == nil {
		t.Error("session removed by failed delete")
	}
}
