package database

import (
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"

	"gorm.io/gorm/schema"

	"khata/internal/models"
)

// The service and integration tests build their schema through gorm's
// AutoMigrate, so a column missing from the deployed DDL would otherwise go
// unnoticed until the real migrations run against postgres.
func TestMigrationSchemaMatchesModels(t *testing.T) {
	raw, err := os.ReadFile("../../migrations/000001_init_schema.up.sql")
	if err != nil {
		t.Fatalf("failed to read migration file: %v", err)
	}
	ddl := strings.ToLower(string(raw))

	for _, model := range []interface{}{
		&models.User{},
		&models.Ledger{},
		&models.Entry{},
		&models.Expense{},
		&models.Category{},
		&models.BackupSettings{},
		&models.OutboxEntry{},
	} {
		s, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
		if err != nil {
			t.Fatalf("failed to parse model schema: %v", err)
		}

		table := createTableBlock(t, ddl, s.Table)
		for _, col := range s.DBNames {
			pattern := regexp.MustCompile(`(?m)^\s+` + regexp.QuoteMeta(col) + `\s`)
			if !pattern.MatchString(table) {
				t.Errorf("table %s: column %s is missing from the migration DDL", s.Table, col)
			}
		}
	}
}

func createTableBlock(t *testing.T, ddl, name string) string {
	t.Helper()
	marker := "create table " + name + " ("
	start := strings.Index(ddl, marker)
	if start < 0 {
		t.Fatalf("no CREATE TABLE statement for %s", name)
	}
	rest := ddl[start:]
	end := strings.Index(rest, ");")
	if end < 0 {
		t.Fatalf("unterminated CREATE TABLE statement for %s", name)
	}
	return rest[:end]
}
