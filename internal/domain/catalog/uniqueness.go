package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ScopedRow pairs a row ID with its unique key, for in-memory checks
type ScopedRow struct {
	ID    uuid.UUID
	Tuple UniqueTuple
}

// UniquenessEnforcer rejects writes that would give two live rows the same unique
// key inside one tenant partition. Rows without a tenant share a single partition.
// Storage unique indexes are only a performance aid; this check is authoritative.
type UniquenessEnforcer struct {
	reader ScopeReader
}

// NewUniquenessEnforcer creates a new UniquenessEnforcer
func NewUniquenessEnforcer(reader ScopeReader) *UniquenessEnforcer {
	return &UniquenessEnforcer{reader: reader}
}

// Check fails with a DUPLICATE_KEY error if any row other than self already holds
// tuple. self may be the ID of the row being created or updated.
func (e *UniquenessEnforcer) Check(ctx context.Context, tuple UniqueTuple, self uuid.UUID) error {
	refs, err := e.reader.FindByScopeKey(ctx, tuple)
	if err != nil {
		return fmt.Errorf("failed to look up %s: %w", tuple.Key(), err)
	}
	for _, ref := range refs {
		if ref.Entity == tuple.Entity && ref.ID != self {
			return NewDuplicateKeyError(tuple)
		}
	}
	return nil
}

// CheckAll runs Check for each tuple and returns the first violation
func (e *UniquenessEnforcer) CheckAll(ctx context.Context, self uuid.UUID, tuples ...UniqueTuple) error {
	for _, tuple := range tuples {
		if err := e.Check(ctx, tuple, self); err != nil {
			return err
		}
	}
	return nil
}

// CheckRows is the in-memory form of Check over an explicit row set
func CheckRows(tuple UniqueTuple, rows []ScopedRow, self uuid.UUID) error {
	for _, row := range rows {
		if row.ID == self {
			continue
		}
		if tuple.Matches(row.Tuple) {
			return NewDuplicateKeyError(tuple)
		}
	}
	return nil
}
