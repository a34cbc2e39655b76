package storage

import (
	"testing"
)

// implementations returns each DB implementation under a descriptive name.
func implementations(t *testing.T) map[string]DB {
	t.Helper()
	badgerDB, err := NewBadger(t.TempDir())
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { badgerDB.Close() })

	return map[string]DB{
		"memory": NewMemory(),
		"badger": badgerDB,
	}
}

func TestDB_PutGetHasDelete(t *testing.T) {
	for name, db := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			key := []byte("k1")
			value := []byte("v1")

			has, err := db.Has(key)
			if err != nil {
				t.Fatalf("Has: %v", err)
			}
			if has {
				t.Fatal("expected Has=false before Put")
			}

			if err := db.Put(key, value); err != nil {
				t.Fatalf("Put: %v", err)
			}

			got, err := db.Get(key)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(got) != string(value) {
				t.Errorf("Get = %q, want %q", got, value)
			}

			if err := db.Delete(key); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := db.Get(key); err == nil {
				t.Error("expected error getting deleted key")
			}
		})
	}
}

func TestDB_ForEachPrefix(t *testing.T) {
	for name, db := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			entries := map[string]string{
				"a/1": "one",
				"a/2": "two",
				"b/1": "other",
			}
			for k, v := range entries {
				if err := db.Put([]byte(k), []byte(v)); err != nil {
					t.Fatalf("Put: %v", err)
				}
			}

			seen := make(map[string]string)
			err := db.ForEach([]byte("a/"), func(key, value []byte) error {
				seen[string(key)] = string(value)
				return nil
			})
			if err != nil {
				t.Fatalf("ForEach: %v", err)
			}

			if len(seen) != 2 {
				t.Fatalf("saw %d keys, want 2: %v", len(seen), seen)
			}
			if seen["a/1"] != "one" || seen["a/2"] != "two" {
				t.Errorf("unexpected iteration result: %v", seen)
			}
		})
	}
}

func TestBatch_CommitAppliesAll(t *testing.T) {
	for name, db := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			if err := db.Put([]byte("stale"), []byte("x")); err != nil {
				t.Fatalf("Put: %v", err)
			}

			batch := db.NewBatch()
			if err := batch.Put([]byte("k1"), []byte("v1")); err != nil {
				t.Fatalf("batch Put: %v", err)
			}
			if err := batch.Put([]byte("k2"), []byte("v2")); err != nil {
				t.Fatalf("batch Put: %v", err)
			}
			if err := batch.Delete([]byte("stale")); err != nil {
				t.Fatalf("batch Delete: %v", err)
			}

			// Nothing visible before commit.
			for _, k := range []string{"k1", "k2"} {
				if has, _ := db.Has([]byte(k)); has {
					t.Fatalf("key %q visible before commit", k)
				}
			}

			if err := batch.Commit(); err != nil {
				t.Fatalf("Commit: %v", err)
			}

			for k, want := range map[string]string{"k1": "v1", "k2": "v2"} {
				got, err := db.Get([]byte(k))
				if err != nil {
					t.Fatalf("Get(%q): %v", k, err)
				}
				if string(got) != want {
					t.Errorf("Get(%q) = %q, want %q", k, got, want)
				}
			}
			if has, _ := db.Has([]byte("stale")); has {
				t.Error("deleted key still present after commit")
			}
		})
	}
}

func TestBatch_AbandonedLeavesNoTrace(t *testing.T) {
	for name, db := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			batch := db.NewBatch()
			if err := batch.Put([]byte("ghost"), []byte("v")); err != nil {
				t.Fatalf("batch Put: %v", err)
			}
			// Batch dropped without Commit.

			if has, _ := db.Has([]byte("ghost")); has {
				t.Error("abandoned batch mutated the database")
			}
		})
	}
}

func TestBadger_Reopen(t *testing.T) {
	dir := t.TempDir()

	db, err := NewBadger(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Put([]byte("persist"), []byte("me")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err = NewBadger(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	got, err := db.Get([]byte("persist"))
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if string(got) != "me" {
		t.Errorf("Get = %q, want %q", got, "me")
	}
}
