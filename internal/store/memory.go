package store

import (
	"context"
	"strconv"
	"sync"
)

type cellKey struct {
	row, col int
}

// MemoryStore is an in-process LedgerStore and PropertyStore, used for tests
// and local runs without Postgres/Redis. Safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	cells map[cellKey]string
	props map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cells: make(map[cellKey]string),
		props: make(map[string]string),
	}
}

func (s *MemoryStore) ReadRange(_ context.Context, startRow, startCol, rowCount, colCount int) ([][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grid := make([][]string, rowCount)
	for i := range grid {
		grid[i] = make([]string, colCount)
		for j := range grid[i] {
			grid[i][j] = s.cells[cellKey{startRow + i, startCol + j}]
		}
	}
	return grid, nil
}

func (s *MemoryStore) WriteCell(_ context.Context, row, col int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == "" {
		delete(s.cells, cellKey{row, col})
		return nil
	}
	s.cells[cellKey{row, col}] = value
	return nil
}

func (s *MemoryStore) LastRow(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	last := 0
	for k, v := range s.cells {
		if v != "" && k.row > last {
			last = k.row
		}
	}
	return last, nil
}

func (s *MemoryStore) NextFreeRowHint(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.props[NextFreeRowKey]
	if !ok {
		return 0, nil
	}
	hint, err := strconv.Atoi(raw)
	if err != nil {
		return 0, nil
	}
	return hint, nil
}

func (s *MemoryStore) SetNextFreeRowHint(ctx context.Context, row int) error {
	return s.SetProperty(ctx, NextFreeRowKey, strconv.Itoa(row))
}

func (s *MemoryStore) GetProperty(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.props[key]
	if !ok {
		return "", ErrPropertyNotFound
	}
	return val, nil
}

func (s *MemoryStore) SetProperty(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.props[key] = value
	return nil
}

func (s *MemoryStore) DeleteProperty(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.props, key)
	return nil
}
