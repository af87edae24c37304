package database

import (
	"strings"
	"testing"
)

func TestRewritePlaceholdersToNumbered(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{
			name:     "no placeholders",
			query:    "SELECT * FROM users",
			expected: "SELECT * FROM users",
		},
		{
			name:     "single placeholder",
			query:    "SELECT * FROM users WHERE id = ?",
			expected: "SELECT * FROM users WHERE id = $1",
		},
		{
			name:     "multiple placeholders",
			query:    "INSERT INTO user_settings (user_id, key, value) VALUES (?, ?, ?)",
			expected: "INSERT INTO user_settings (user_id, key, value) VALUES ($1, $2, $3)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rewritePlaceholdersToNumbered(tt.query); got != tt.expected {
				t.Errorf("rewritePlaceholdersToNumbered() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDialectDriverNames(t *testing.T) {
	if got := NewSQLiteDialect().DriverName(); got != "sqlite3" {
		t.Errorf("sqlite driver = %q", got)
	}
	if got := NewPostgresDialect().DriverName(); got != "postgres" {
		t.Errorf("postgres driver = %q", got)
	}
	if got := NewMySQLDialect().DriverName(); got != "mysql" {
		t.Errorf("mysql driver = %q", got)
	}
}

func TestUpsertUserSettingTargetsSettingsTable(t *testing.T) {
	dialects := []Dialect{NewSQLiteDialect(), NewPostgresDialect(), NewMySQLDialect()}
	for _, d := range dialects {
		q := d.UpsertUserSetting()
		if !strings.Contains(q, "user_settings") {
			t.Errorf("%s upsert does not target user_settings: %q", d.DriverName(), q)
		}
		if strings.Count(q, "?") != 3 {
			t.Errorf("%s upsert wants 3 placeholders: %q", d.DriverName(), q)
		}
	}
}
