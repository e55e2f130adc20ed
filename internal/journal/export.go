// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cmr-converter/pkg/types"
)

// ExportYAML writes the entries matching q to w as a YAML list.
func (s *Store) ExportYAML(ctx context.Context, q Query, w io.Writer) error {
	entries, err := s.exportEntries(ctx, q)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes the entries matching q to w as an indented JSON array.
func (s *Store) ExportJSON(ctx context.Context, q Query, w io.Writer) error {
	entries, err := s.exportEntries(ctx, q)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

func (s *Store) exportEntries(ctx context.Context, q Query) ([]types.JournalEntry, error) {
	entries, err := s.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	if entries == nil {
		entries = []types.JournalEntry{}
	}
	return entries, nil
}
