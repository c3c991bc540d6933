package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// sequenced lists the tables that carry a <table>_sequence counter.
var sequenced = map[string]bool{"import_runs": true}

// NextSequence increments and returns the counter for table in one statement.
//
// Sequence numbers give runs a human-readable ordering (run #42) shown in import history.
func NextSequence(ctx context.Context, db *sql.DB, table string) (int, error) {
	if !sequenced[table] {
		return 0, fmt.Errorf("no sequence for table %q", table)
	}

	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)

	var sequence int
	err := db.QueryRowContext(ctx, query).Scan(&sequence)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("sequence row missing for %s", table)
	} else if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}
	return sequence, nil
}
