package postgres

import (
	"strings"
	"testing"
)

func TestMigrationNamesAreOrderedAndEmbedded(t *testing.T) {
	names, err := MigrationNames()
	if err != nil {
		t.Fatalf("MigrationNames: %v", err)
	}
	if len(names) == 0 || names[0] != "001_campaigns.sql" {
		t.Fatalf("unexpected migrations %v", names)
	}

	raw, err := migrationFS.ReadFile("migrations/" + names[0])
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	sql := string(raw)
	for _, column := range []string{"company_name", "min_sq_ft", "mailer_format", "selected_design JSONB"} {
		if !strings.Contains(sql, column) {
			t.Errorf("expected campaigns migration to declare %s", column)
		}
	}
}
