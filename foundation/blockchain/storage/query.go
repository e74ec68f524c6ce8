package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
)

// Pending represents the value tied up in the unconfirmed pool for an
// address: what its inputs are spending and what the outputs will pay it.
type Pending struct {
	Spent    float64
	Received float64
}

// Net returns the change in balance once the pending transactions confirm.
func (p Pending) Net() float64 {
	return p.Received - p.Spent
}

// =============================================================================

// GetByID reads the entity of the specified kind with the specified id.
func (s *Store) GetByID(ctx context.Context, kind database.Kind, id uint64) (database.Entity, error) {
	d := kind.Descriptor()
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", strings.Join(d.ColumnNames(), ", "), d.Table)

	return s.getOne(ctx, kind, query, int64(id))
}

// GetFirst reads the entity with the lowest id.
func (s *Store) GetFirst(ctx context.Context, kind database.Kind) (database.Entity, error) {
	d := kind.Descriptor()
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id ASC LIMIT 1", strings.Join(d.ColumnNames(), ", "), d.Table)

	return s.getOne(ctx, kind, query)
}

// GetLast reads the entity with the highest id.
func (s *Store) GetLast(ctx context.Context, kind database.Kind) (database.Entity, error) {
	d := kind.Descriptor()
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id DESC LIMIT 1", strings.Join(d.ColumnNames(), ", "), d.Table)

	return s.getOne(ctx, kind, query)
}

// GetList reads every entity of the specified kind ordered by id.
func (s *Store) GetList(ctx context.Context, kind database.Kind) ([]database.Entity, error) {
	d := kind.Descriptor()
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id ASC", strings.Join(d.ColumnNames(), ", "), d.Table)

	return s.getMany(ctx, kind, query)
}

// GetIDList returns every id of the specified kind in ascending order.
func (s *Store) GetIDList(ctx context.Context, kind database.Kind) ([]uint64, error) {
	d := kind.Descriptor()
	query := fmt.Sprintf("SELECT id FROM %s ORDER BY id ASC", d.Table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("id list %s: %w", d.Table, err)
	}
	defer rows.Close()

	ids := []uint64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("id list %s: %w", d.Table, err)
		}
		ids = append(ids, uint64(id))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("id list %s: %w", d.Table, err)
	}

	return ids, nil
}

// LastID returns the highest id of the specified kind or 0 when empty.
func (s *Store) LastID(ctx context.Context, kind database.Kind) (uint64, error) {
	return lastID(ctx, s.db, kind.Descriptor())
}

// FirstID returns the lowest id of the specified kind or 0 when empty.
func (s *Store) FirstID(ctx context.Context, kind database.Kind) (uint64, error) {
	d := kind.Descriptor()
	return scanID(ctx, s.db, fmt.Sprintf("SELECT COALESCE(MIN(id), 0) FROM %s", d.Table))
}

// IsEmpty reports whether the table of the specified kind holds no rows.
func (s *Store) IsEmpty(ctx context.Context, kind database.Kind) (bool, error) {
	d := kind.Descriptor()

	n, err := scanID(ctx, s.db, fmt.Sprintf("SELECT COUNT(*) FROM %s", d.Table))
	if err != nil {
		return false, err
	}

	return n == 0, nil
}

// =============================================================================

// QueryBlock reads the block with the specified id.
func (s *Store) QueryBlock(ctx context.Context, id uint64) (database.Block, error) {
	e, err := s.GetByID(ctx, database.KindBlock, id)
	if err != nil {
		return database.Block{}, err
	}
	return *e.(*database.Block), nil
}

// QueryLatestBlock reads the block at the tip of the chain. It returns
// ErrNotFound when no block has been mined yet.
func (s *Store) QueryLatestBlock(ctx context.Context) (database.Block, error) {
	e, err := s.GetLast(ctx, database.KindBlock)
	if err != nil {
		return database.Block{}, err
	}
	return *e.(*database.Block), nil
}

// QueryBlocks reads the full chain in block order.
func (s *Store) QueryBlocks(ctx context.Context) ([]database.Block, error) {
	list, err := s.GetList(ctx, database.KindBlock)
	if err != nil {
		return nil, err
	}

	blocks := make([]database.Block, len(list))
	for i, e := range list {
		blocks[i] = *e.(*database.Block)
	}

	return blocks, nil
}

// QueryTransaction reads the confirmed transaction with the specified id.
func (s *Store) QueryTransaction(ctx context.Context, id uint64) (database.Transaction, error) {
	e, err := s.GetByID(ctx, database.KindTransaction, id)
	if err != nil {
		return database.Transaction{}, err
	}
	return *e.(*database.Transaction), nil
}

// QueryUnconfirmed reads every transaction waiting in the unconfirmed pool
// in arrival order.
func (s *Store) QueryUnconfirmed(ctx context.Context) ([]database.Transaction, error) {
	list, err := s.GetList(ctx, database.KindUnconfirmed)
	if err != nil {
		return nil, err
	}

	trans := make([]database.Transaction, len(list))
	for i, e := range list {
		trans[i] = *e.(*database.Transaction)
	}

	return trans, nil
}

// QueryUTXO reads the unspent output with the specified id.
func (s *Store) QueryUTXO(ctx context.Context, id uint64) (database.Output, error) {
	e, err := s.GetByID(ctx, database.KindUTXO, id)
	if err != nil {
		return database.Output{}, err
	}
	return *e.(*database.Output), nil
}

// GetUtxoList returns the unspent outputs owned by the address in id order.
func (s *Store) GetUtxoList(ctx context.Context, address string) ([]database.Output, error) {
	d := database.KindUTXO.Descriptor()
	query := fmt.Sprintf("SELECT %s FROM %s WHERE address = $1 ORDER BY id ASC", strings.Join(d.ColumnNames(), ", "), d.Table)

	list, err := s.getMany(ctx, database.KindUTXO, query, address)
	if err != nil {
		return nil, err
	}

	outs := make([]database.Output, len(list))
	for i, e := range list {
		outs[i] = *e.(*database.Output)
	}

	return outs, nil
}

// GetUtxoByScript returns the unspent output locked by the script.
func (s *Store) GetUtxoByScript(ctx context.Context, script []byte) (database.Output, error) {
	d := database.KindUTXO.Descriptor()
	query := fmt.Sprintf("SELECT %s FROM %s WHERE locking_script = $1", strings.Join(d.ColumnNames(), ", "), d.Table)

	e, err := s.getOne(ctx, database.KindUTXO, query, script)
	if err != nil {
		return database.Output{}, err
	}

	return *e.(*database.Output), nil
}

// GetTxByTxID returns the transaction with the specified transaction id. The
// confirmed transactions are searched before the unconfirmed pool.
func (s *Store) GetTxByTxID(ctx context.Context, txID string) (database.Transaction, error) {
	for _, kind := range []database.Kind{database.KindTransaction, database.KindUnconfirmed} {
		d := kind.Descriptor()
		query := fmt.Sprintf("SELECT %s FROM %s WHERE transaction_id = $1", strings.Join(d.ColumnNames(), ", "), d.Table)

		e, err := s.getOne(ctx, kind, query, txID)
		switch {
		case err == nil:
			return *e.(*database.Transaction), nil
		case !errors.Is(err, database.ErrNotFound):
			return database.Transaction{}, err
		}
	}

	return database.Transaction{}, fmt.Errorf("transaction %s: %w", txID, database.ErrNotFound)
}

// PendingAmount aggregates the unconfirmed pool for the address. Spent is
// the value of the inputs the address is spending and Received the value of
// the outputs paying the address, change included.
func (s *Store) PendingAmount(ctx context.Context, address string) (Pending, error) {
	trans, err := s.QueryUnconfirmed(ctx)
	if err != nil {
		return Pending{}, err
	}

	var p Pending
	for _, tx := range trans {
		for _, in := range tx.Inputs {
			if in.Address == address {
				p.Spent += in.Value
			}
		}
		for _, out := range tx.Outputs {
			if out.Address == address {
				p.Received += out.Value
			}
		}
	}

	return p, nil
}

// Search finds a block when the param is a number and a transaction by its
// transaction id otherwise. The result is a *database.Block or a
// *database.Transaction.
func (s *Store) Search(ctx context.Context, param string) (database.Entity, error) {
	if id, err := strconv.ParseUint(param, 10, 64); err == nil {
		return s.GetByID(ctx, database.KindBlock, id)
	}

	tx, err := s.GetTxByTxID(ctx, param)
	if err != nil {
		return nil, err
	}

	return &tx, nil
}

// =============================================================================

func (s *Store) getOne(ctx context.Context, kind database.Kind, query string, args ...any) (database.Entity, error) {
	d := kind.Descriptor()
	prometheusStoreGet.WithLabelValues(d.Table).Inc()

	dest := scanDest(d)
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", d.Table, database.ErrNotFound)
		}
		prometheusStoreErrors.WithLabelValues("getOne").Inc()
		return nil, fmt.Errorf("%s: %w", d.Table, err)
	}

	return restore(kind, dest)
}

func (s *Store) getMany(ctx context.Context, kind database.Kind, query string, args ...any) ([]database.Entity, error) {
	d := kind.Descriptor()
	prometheusStoreGet.WithLabelValues(d.Table).Inc()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		prometheusStoreErrors.WithLabelValues("getMany").Inc()
		return nil, fmt.Errorf("%s: %w", d.Table, err)
	}
	defer rows.Close()

	list := []database.Entity{}
	for rows.Next() {
		dest := scanDest(d)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%s: %w", d.Table, err)
		}

		e, err := restore(kind, dest)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", d.Table, err)
	}

	return list, nil
}

// lastID returns the highest id in the table or 0 when it is empty.
func lastID(ctx context.Context, q querier, d database.Descriptor) (uint64, error) {
	return scanID(ctx, q, fmt.Sprintf("SELECT COALESCE(MAX(id), 0) FROM %s", d.Table))
}

func scanID(ctx context.Context, q querier, query string) (uint64, error) {
	var id int64
	if err := q.QueryRowContext(ctx, query).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", query, err)
	}
	return uint64(id), nil
}

// scanDest allocates typed scan destinations in descriptor column order so
// every engine hands back the same Go types.
func scanDest(d database.Descriptor) []any {
	dest := make([]any, len(d.Columns))
	for i, col := range d.Columns {
		switch col.Type {
		case database.Integer:
			dest[i] = new(int64)
		case database.Real:
			dest[i] = new(float64)
		case database.Text:
			dest[i] = new(string)
		default:
			dest[i] = new([]byte)
		}
	}
	return dest
}

// restore converts scanned destinations into a row and restores a fresh
// entity of the kind from it.
func restore(kind database.Kind, dest []any) (database.Entity, error) {
	row := make(database.Row, len(dest))
	for i, v := range dest {
		switch v := v.(type) {
		case *int64:
			row[i] = *v
		case *float64:
			row[i] = *v
		case *string:
			row[i] = *v
		case *[]byte:
			row[i] = *v
		}
	}

	e, err := database.NewEntity(kind)
	if err != nil {
		return nil, err
	}

	if err := e.Restore(row); err != nil {
		return nil, err
	}

	return e, nil
}
