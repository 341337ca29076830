package credstore

import (
	"path/filepath"
	"testing"
)

func TestSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	got, err := store.Session()
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if got != "" {
		t.Errorf("fresh store Session() = %q, want empty", got)
	}

	if err := store.SetSession("sess-1"); err != nil {
		t.Fatalf("SetSession() error = %v", err)
	}
	got, err = store.Session()
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if got != "sess-1" {
		t.Errorf("Session() = %q, want sess-1", got)
	}

	// Overwrite, as every session event does.
	if err := store.SetSession("sess-2"); err != nil {
		t.Fatalf("SetSession() overwrite error = %v", err)
	}
	got, _ = store.Session()
	if got != "sess-2" {
		t.Errorf("Session() after overwrite = %q, want sess-2", got)
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := store.SetSession("durable"); err != nil {
		t.Fatalf("SetSession() error = %v", err)
	}
	store.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Session()
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if got != "durable" {
		t.Errorf("Session() after reopen = %q, want durable", got)
	}
}

func TestSentinelTreatedAsMissing(t *testing.T) {
	stores := map[string]Store{
		"memory": NewMemory(),
	}
	sqlite, err := Open(filepath.Join(t.TempDir(), "creds.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer sqlite.Close()
	stores["sqlite"] = sqlite

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			if err := store.SetSession("undefined"); err != nil {
				t.Fatalf("SetSession() error = %v", err)
			}
			got, err := store.Session()
			if err != nil {
				t.Fatalf("Session() error = %v", err)
			}
			if got != "" {
				t.Errorf("sentinel Session() = %q, want empty", got)
			}
		})
	}
}
