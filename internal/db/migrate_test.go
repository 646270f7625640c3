package db

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const migrationsDir = "../../migrations"

func TestMigrationsPairUpAndDown(t *testing.T) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	if len(ups) == 0 {
		t.Fatal("no up migrations found")
	}
	for base := range ups {
		if !downs[base] {
			t.Errorf("migration %s has no down counterpart", base)
		}
	}
	for base := range downs {
		if !ups[base] {
			t.Errorf("migration %s has no up counterpart", base)
		}
	}
}

// Bills may omit a due date; open-ended bills match any timeline and must
// insert with a NULL column.
func TestBillsDueDateIsNullable(t *testing.T) {
	data, err := os.ReadFile(filepath.Join(migrationsDir, "0001_init.up.sql"))
	if err != nil {
		t.Fatalf("read init migration: %v", err)
	}

	found := false
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "due_date") {
			continue
		}
		found = true
		if strings.Contains(trimmed, "NOT NULL") {
			t.Fatalf("bills.due_date must stay nullable, got %q", trimmed)
		}
	}
	if !found {
		t.Fatal("bills.due_date column not found in init migration")
	}
}
