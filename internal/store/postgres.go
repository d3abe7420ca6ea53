package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
)

// PostgresStore keeps the ledger as sparse cells, preserving the sheet
// addressing the rest of the system works in.
//
// Expected schema:
//
//	CREATE TABLE ledger_cells (
//	    row_idx INT NOT NULL,
//	    col_idx INT NOT NULL,
//	    value   TEXT NOT NULL,
//	    PRIMARY KEY (row_idx, col_idx)
//	);
//	CREATE TABLE ledger_counters (
//	    name  TEXT PRIMARY KEY,
//	    value TEXT NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ReadRange(ctx context.Context, startRow, startCol, rowCount, colCount int) ([][]string, error) {
	grid := make([][]string, rowCount)
	for i := range grid {
		grid[i] = make([]string, colCount)
	}
	if rowCount <= 0 || colCount <= 0 {
		return grid, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT row_idx, col_idx, value FROM ledger_cells
		WHERE row_idx >= $1 AND row_idx < $2 AND col_idx >= $3 AND col_idx < $4`,
		startRow, startRow+rowCount, startCol, startCol+colCount)
	if err != nil {
		return nil, fmt.Errorf("reading cell range: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r, c int
		var v string
		if err := rows.Scan(&r, &c, &v); err != nil {
			return nil, fmt.Errorf("scanning cell: %w", err)
		}
		grid[r-startRow][c-startCol] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading cell range: %w", err)
	}
	return grid, nil
}

func (s *PostgresStore) WriteCell(ctx context.Context, row, col int, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger_cells (row_idx, col_idx, value) VALUES ($1, $2, $3)
		ON CONFLICT (row_idx, col_idx) DO UPDATE SET value = EXCLUDED.value`,
		row, col, value)
	if err != nil {
		return fmt.Errorf("writing cell (%d,%d): %w", row, col, err)
	}
	return nil
}

func (s *PostgresStore) LastRow(ctx context.Context) (int, error) {
	var last int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(row_idx), 0) FROM ledger_cells WHERE value <> ''`).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("reading last row: %w", err)
	}
	return last, nil
}

func (s *PostgresStore) NextFreeRowHint(ctx context.Context) (int, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM ledger_counters WHERE name = $1`, NextFreeRowKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading row hint: %w", err)
	}
	hint, err := strconv.Atoi(raw)
	if err != nil {
		// Corrupt counter; callers fall back to scanning.
		return 0, nil
	}
	return hint, nil
}

func (s *PostgresStore) SetNextFreeRowHint(ctx context.Context, row int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger_counters (name, value) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value`,
		NextFreeRowKey, strconv.Itoa(row))
	if err != nil {
		return fmt.Errorf("updating row hint: %w", err)
	}
	return nil
}
