package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
)

// Add inserts the entity into the table of its kind. When definitive is false
// the entity is first assigned the next available id for that table. A row
// with the same id or distinct key results in ErrConflict.
func (s *Store) Add(ctx context.Context, e database.Entity, definitive bool) error {
	if err := add(ctx, s.db, e, definitive); err != nil {
		prometheusStoreErrors.WithLabelValues("Add").Inc()
		return err
	}

	s.evHandler("storage: Add: %s[%d]", e.Kind(), e.RowID())

	return nil
}

// Remove deletes the row holding the distinct key of the entity. Removing an
// entity that isn't stored is not an error.
func (s *Store) Remove(ctx context.Context, e database.Entity) error {
	if _, err := remove(ctx, s.db, e); err != nil {
		prometheusStoreErrors.WithLabelValues("Remove").Inc()
		return err
	}

	s.evHandler("storage: Remove: %s[%d]", e.Kind(), e.RowID())

	return nil
}

// =============================================================================

func add(ctx context.Context, q querier, e database.Entity, definitive bool) error {
	d := e.Kind().Descriptor()

	if !definitive {
		last, err := lastID(ctx, q, d)
		if err != nil {
			return err
		}
		e.SetRowID(last + 1)
	}

	row, err := e.Snapshot()
	if err != nil {
		return fmt.Errorf("add %s: %w", d.Table, err)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", d.Table, strings.Join(d.ColumnNames(), ", "), placeholders(len(row)))

	if _, err := q.ExecContext(ctx, query, row...); err != nil {
		if isConflict(err) {
			return fmt.Errorf("add %s[%d]: %w: %w", d.Table, e.RowID(), ErrConflict, err)
		}
		return fmt.Errorf("add %s[%d]: %w", d.Table, e.RowID(), err)
	}

	prometheusStoreAdd.WithLabelValues(d.Table).Inc()

	return nil
}

// remove deletes by distinct key and reports the number of rows deleted.
func remove(ctx context.Context, q querier, e database.Entity) (int64, error) {
	d := e.Kind().Descriptor()

	key, err := database.KeyValue(e)
	if err != nil {
		return 0, fmt.Errorf("remove %s: %w", d.Table, err)
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", d.Table, d.Key)

	res, err := q.ExecContext(ctx, query, key)
	if err != nil {
		return 0, fmt.Errorf("remove %s: %w", d.Table, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("remove %s: rows affected: %w", d.Table, err)
	}

	prometheusStoreRemove.WithLabelValues(d.Table).Inc()

	return n, nil
}
