package database

import (
	"context"

	"github.com/surrealdb/surrealdb.go"
)

// schemaStatements are idempotent and run on every start.
var schemaStatements = []string{
	"DEFINE TABLE IF NOT EXISTS " + tableGroup + " SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS " + tableMessage + " SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS " + tableUser + " SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS " + tableSequence + " SCHEMALESS",
	"DEFINE INDEX IF NOT EXISTS chat_user_name ON " + tableUser + " FIELDS name UNIQUE",
	"DEFINE INDEX IF NOT EXISTS chat_message_group ON " + tableMessage + " FIELDS group_id, seq",
}

// EnsureSchema defines the tables and indexes the stores rely on.
func EnsureSchema(ctx context.Context, conn *Connection) error {
	ctx, cancel := getTimeoutFromContext(ctx, conn.ExecuteTimeout(), ContextKeyExecuteTimeout)
	defer cancel()

	return conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		for _, stmt := range schemaStatements {
			if err := Execute(ctx, db, stmt, nil); err != nil {
				return WrapError(err, "failed to apply schema")
			}
		}
		return nil
	})
}

// nextSequence atomically increments and returns the named counter.
func nextSequence(ctx context.Context, db *surrealdb.DB, name string) (int64, error) {
	query := "UPSERT type::thing('" + tableSequence + "', $name) SET value += 1 RETURN AFTER"
	row, err := QueryOne[sequenceRecord](ctx, db, query, map[string]any{"name": name})
	if err != nil {
		return 0, WrapError(err, "failed to advance sequence "+name)
	}
	if row == nil || row.Value <= 0 {
		return 0, NewDBError(ErrQueryFailed, "sequence "+name+" returned no value").WithQuery(query)
	}
	return row.Value, nil
}
