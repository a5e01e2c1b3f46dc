package sheets

import (
	"context"
)

// Table is one tab of exported values. Rows are written below Header.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Ports for outbound adapters.
type (
	// TableWriter replaces the contents of each table. Every tab name is
	// prefixed with prefix (usually the exported period). It returns one
	// reference per written table.
	TableWriter interface {
		WriteTables(ctx context.Context, prefix string, tables []Table) (refs []string, err error)
	}
)
