package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Batch is a set of records fetched together for one pattern.
type Batch struct {
	Kind      string
	Pattern   string
	Records   []json.RawMessage
	FetchedAt time.Time
}

const streamSuffix = "-stream"

// StreamKind tags a record kind as coming from a live stream, where every
// frame is stored as a batch of its own.
func StreamKind(kind string) string {
	return kind + streamSuffix
}

func IsStreamKind(kind string) bool {
	return strings.HasSuffix(kind, streamSuffix)
}

// Storage defines a sink for fetched records.
type Storage interface {
	PutBatch(ctx context.Context, batch Batch) error
}

// Multi writes every batch to each sink in order. All sinks are attempted;
// their errors are joined.
type Multi []Storage

func (m Multi) PutBatch(ctx context.Context, batch Batch) error {
	var errs []error
	for _, s := range m {
		if err := s.PutBatch(ctx, batch); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
