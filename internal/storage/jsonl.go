package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type jsonlRecord struct {
	Kind      string          `json:"kind"`
	Pattern   string          `json:"pattern"`
	FetchedAt time.Time       `json:"fetched_at"`
	Record    json.RawMessage `json:"record"`
}

// JsonlStorage appends records to a JSONL file, one record per line.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutBatch appends the batch as JSON lines.
func (s *JsonlStorage) PutBatch(_ context.Context, batch Batch) error {
	if len(batch.Records) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	fetchedAt := batch.FetchedAt.UTC()
	for _, record := range batch.Records {
		line, err := json.Marshal(jsonlRecord{
			Kind:      batch.Kind,
			Pattern:   batch.Pattern,
			FetchedAt: fetchedAt,
			Record:    record,
		})
		if err != nil {
			return fmt.Errorf("marshal %s record: %w", batch.Kind, err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
