package file

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MikhailRaia/menu-scraper/internal/model"
	"github.com/MikhailRaia/menu-scraper/internal/storage"
	"github.com/MikhailRaia/menu-scraper/internal/storage/memory"
)

const maxRecordSize = 1 << 20

// Storage implements MenuStorage backed by an append-only JSONL file.
// The whole file is replayed into memory on start.
type Storage struct {
	filePath string
	mem      *memory.Storage
}

// NewStorage creates a file-backed storage at the provided path.
func NewStorage(filePath string) (*Storage, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	s := &Storage{
		filePath: filePath,
		mem:      memory.NewStorage(),
	}

	if err := s.loadFromFile(); err != nil {
		return nil, err
	}

	return s, nil
}

// SaveItems appends the batch to the file with a single write and only then
// makes it visible to readers.
func (s *Storage) SaveItems(ctx context.Context, candidates []model.MenuItemCandidate) ([]model.MenuItem, error) {
	return s.mem.SaveItemsFunc(ctx, candidates, s.appendRecords)
}

func (s *Storage) ListItems(ctx context.Context, filter model.ItemFilter) ([]model.MenuItem, error) {
	return s.mem.ListItems(ctx, filter)
}

func (s *Storage) Stats(ctx context.Context) (model.StorageStats, error) {
	return s.mem.Stats(ctx)
}

// Ping checks that the storage file is still reachable.
func (s *Storage) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(s.filePath); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *Storage) loadFromFile() error {
	file, err := os.OpenFile(s.filePath, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)

	var items []model.MenuItem
	for line := 1; scanner.Scan(); line++ {
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		var item model.MenuItem
		if err := json.Unmarshal(data, &item); err != nil {
			return fmt.Errorf("failed to unmarshal record on line %d: %w", line, err)
		}
		items = append(items, item)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	s.mem.Put(items...)
	return nil
}

// appendRecords runs under the memory store lock, so writes never interleave.
func (s *Storage) appendRecords(items []model.MenuItem) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
	}

	file, err := os.OpenFile(s.filePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("%w: failed to open file for writing: %v", storage.ErrStorageUnavailable, err)
	}
	defer file.Close()

	if _, err := file.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("%w: failed to write to file: %v", storage.ErrStorageUnavailable, err)
	}

	return file.Sync()
}
