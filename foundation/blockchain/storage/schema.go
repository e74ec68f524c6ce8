package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
)

// columnTypes maps the descriptor storage classes to engine column types.
var columnTypes = map[Engine]map[database.ColumnType]string{
	Postgres: {
		database.Integer: "BIGINT",
		database.Real:    "DOUBLE PRECISION",
		database.Text:    "TEXT",
		database.Blob:    "BYTEA",
	},
	Sqlite: {
		database.Integer: "INTEGER",
		database.Real:    "REAL",
		database.Text:    "TEXT",
		database.Blob:    "BLOB",
	},
}

// CreateSchema creates the ledger tables when they don't exist. It is an
// administrative step kept apart from the store, which only ever reads,
// inserts and deletes rows.
func CreateSchema(ctx context.Context, db *sql.DB, engine Engine) error {
	if engine == SqliteMemory {
		engine = Sqlite
	}

	types, exists := columnTypes[engine]
	if !exists {
		return fmt.Errorf("create schema: unknown database engine: %s", engine)
	}

	for _, kind := range database.Kinds {
		if _, err := db.ExecContext(ctx, tableDDL(kind.Descriptor(), types)); err != nil {
			return fmt.Errorf("create schema: %s: %w", kind.Descriptor().Table, err)
		}
	}

	return nil
}

// tableDDL builds the CREATE TABLE statement for the descriptor. The id is
// the primary key and the distinct key column is unique.
func tableDDL(d database.Descriptor, types map[database.ColumnType]string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", d.Table)
	for i, col := range d.Columns {
		fmt.Fprintf(&b, "\t%s %s", col.Name, types[col.Type])

		switch {
		case col.Name == "id":
			b.WriteString(" PRIMARY KEY")
		case col.Name == d.Key:
			b.WriteString(" UNIQUE")
		}

		if i < len(d.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")

	return b.String()
}
