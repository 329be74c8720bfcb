package database

import "testing"

func TestMigrationVersion(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		expected int
	}{
		{"numbered", "001_initial_schema.sql", 1},
		{"double digit", "012_attempt_session_unique.sql", 12},
		{"too short", "1.s", 0},
		{"no number", "abc_schema.sql", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := migrationVersion(tc.file); got != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, got)
			}
		})
	}
}
