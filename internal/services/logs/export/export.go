// Package export writes log rows as JSON lines, optionally zstd-compressed.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/louisbranch/logsprovider/internal/services/logs/storage"
)

// CompressedSuffix selects zstd output in WriteFile.
const CompressedSuffix = ".zst"

// Lister lists every log row, newest first.
type Lister interface {
	ListLogs(ctx context.Context) ([]storage.Log, error)
}

// Record is one exported line.
type Record struct {
	ID        int64     `json:"id"`
	Msg       string    `json:"msg"`
	Timestamp time.Time `json:"timestamp"`
}

// Write encodes every row from src to w and returns the row count.
func Write(ctx context.Context, w io.Writer, src Lister) (int, error) {
	if src == nil {
		return 0, fmt.Errorf("log source is required")
	}
	logs, err := src.ListLogs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list logs: %w", err)
	}
	enc := json.NewEncoder(w)
	for i, row := range logs {
		if err := enc.Encode(Record{ID: row.ID, Msg: row.Msg, Timestamp: row.Timestamp.UTC()}); err != nil {
			return i, fmt.Errorf("encode log %d: %w", row.ID, err)
		}
	}
	return len(logs), nil
}

// WriteFile exports to path, compressing when it ends in CompressedSuffix.
func WriteFile(ctx context.Context, path string, src Lister) (n int, err error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return 0, fmt.Errorf("export path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create export dir: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create export file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close export file: %w", closeErr)
		}
	}()

	if !strings.HasSuffix(path, CompressedSuffix) {
		return Write(ctx, file, src)
	}
	zw, err := zstd.NewWriter(file)
	if err != nil {
		return 0, fmt.Errorf("create zstd writer: %w", err)
	}
	n, err = Write(ctx, zw, src)
	if closeErr := zw.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("flush zstd: %w", closeErr)
	}
	return n, err
}

// ReadFile decodes an export written by WriteFile.
func ReadFile(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export file: %w", err)
	}
	defer file.Close()

	var r io.Reader = file
	if strings.HasSuffix(path, CompressedSuffix) {
		zr, err := zstd.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("create zstd reader: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	var records []Record
	dec := json.NewDecoder(r)
	for {
		var record Record
		if err := dec.Decode(&record); err != nil {
			if err == io.EOF {
				return records, nil
			}
			return nil, fmt.Errorf("decode export: %w", err)
		}
		records = append(records, record)
	}
}
