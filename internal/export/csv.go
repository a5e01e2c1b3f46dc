package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ports "alkansya/internal/sheets"
)

// CSVWriter writes each table to "<dir>/<prefix>-<name>.csv"
type CSVWriter struct {
	dir string
}

var _ ports.TableWriter = (*CSVWriter)(nil)

func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: dir}
}

func (w *CSVWriter) WriteTables(ctx context.Context, prefix string, tables []ports.Table) ([]string, error) {
	if w.dir == "" {
		return nil, fmt.Errorf("export directory not configured")
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}

	refs := make([]string, 0, len(tables))
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return refs, err
		}
		path := filepath.Join(w.dir, fileName(prefix, t.Name))
		if err := writeCSV(path, t); err != nil {
			return refs, err
		}
		refs = append(refs, path)
	}
	return refs, nil
}

func writeCSV(path string, t ports.Table) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	cw := csv.NewWriter(tmp)
	if len(t.Header) > 0 {
		if err := cw.Write(t.Header); err != nil {
			tmp.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// fileName turns "2025-03" and "Savings Goals" into "2025-03-savings-goals.csv"
func fileName(prefix, name string) string {
	slug := strings.ToLower(strings.Join(strings.Fields(name), "-"))
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		slug = prefix + "-" + slug
	}
	return slug + ".csv"
}
