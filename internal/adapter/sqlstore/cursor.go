package sqlstore

import (
	"fmt"

	"github.com/couchcryptid/coldstorage-report/internal/domain"
	"github.com/jmoiron/sqlx"
)

// cursor adapts sqlx.Rows to domain.Cursor. Each row is scanned generically
// and paired with the driver's database type names, so the decoder sees the
// values the driver produced without a fixed scan target.
type cursor struct {
	rows    *sqlx.Rows
	columns []string
	types   []string
}

func newCursor(rows *sqlx.Rows) (*cursor, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: read columns: %w", err)
	}
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: read column types: %w", err)
	}
	types := make([]string, len(colTypes))
	for i, ct := range colTypes {
		types[i] = ct.DatabaseTypeName()
	}
	return &cursor{rows: rows, columns: columns, types: types}, nil
}

func (c *cursor) Next() bool { return c.rows.Next() }

func (c *cursor) Row() (domain.Row, error) {
	values, err := c.rows.SliceScan()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: scan: %w", err)
	}
	cells := make([]domain.Cell, len(values))
	for i, v := range values {
		cells[i] = domain.Cell{Value: v}
		if i < len(c.types) {
			cells[i].DatabaseType = c.types[i]
		}
	}
	return domain.NewRow(c.columns, cells), nil
}

func (c *cursor) Err() error { return c.rows.Err() }

func (c *cursor) Close() error { return c.rows.Close() }
