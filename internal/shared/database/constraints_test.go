package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstraintStatementsAreRerunnable(t *testing.T) {
	for _, stmt := range constraintStatements {
		// ADD CONSTRAINT has no IF NOT EXISTS form in Postgres
		assert.NotContains(t, stmt, "ADD CONSTRAINT IF NOT EXISTS")
		assert.Contains(t, stmt, "DO $$")
		assert.Contains(t, stmt, "EXCEPTION WHEN duplicate_object THEN NULL")
	}
}

func TestIndexStatementsAreRerunnable(t *testing.T) {
	for _, stmt := range indexStatements {
		assert.True(t, strings.HasPrefix(strings.TrimSpace(stmt), "CREATE INDEX IF NOT EXISTS"))
	}
}
