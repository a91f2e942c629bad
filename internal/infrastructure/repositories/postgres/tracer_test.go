package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatementVerb(t *testing.T) {
	assert.Equal(t, "insert", statementVerb("\n\t\tINSERT INTO queues (name, user_id) VALUES ($1, $2)"))
	assert.Equal(t, "select", statementVerb("SELECT pg_advisory_lock($1)"))
	assert.Equal(t, "query", statementVerb("   "))
}
