// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cmr-converter/pkg/types"
)

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Default(t *testing.T) {
	p, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, types.DefaultProfile(), p)
}

func TestLoad_Overlay(t *testing.T) {
	path := writeProfile(t, `
name: acme-de
sender:
  - ACME Logistics GmbH
  - Hafenstrasse 1
  - 20457 HAMBURG, DE
date_anchor: Hamburg
project_prefix: ACME-
layout:
  destination_cell: C32
  boxes:
    first_row: 52
    name_column: B
    dimensions_column: E
    weight_column: H
`)

	p, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "acme-de", p.Name)
	assert.Equal(t, "Hamburg", p.DateAnchor)
	assert.Equal(t, "ACME-", p.ProjectPrefix)
	assert.Equal(t, "ACME Logistics GmbH", p.Sender[0])
	assert.Equal(t, "C32", p.Layout.DestinationCell)
	assert.Equal(t, 52, p.Layout.Boxes.FirstRow)

	// Untouched keys keep their defaults.
	def := types.DefaultProfile()
	assert.Equal(t, def.Incoterms, p.Incoterms)
	assert.Equal(t, def.CountryCodes, p.CountryCodes)
	assert.Equal(t, def.Layout.Consignee, p.Layout.Consignee)
	assert.Equal(t, def.Layout.Merges, p.Layout.Merges)
	assert.Equal(t, "H33", p.Layout.DeliveryTermsCell)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"malformed yaml", "sender: [unterminated", "parsing profile"},
		{"empty anchor", "date_anchor: ''", "date_anchor is empty"},
		{"too many sender lines", "sender: [a, b, c, d]", "4 sender lines but 3 sender cells"},
		{"consignee rows", "layout:\n  consignee:\n    column: B\n    first_row: 16\n    max_rows: 9", "max_rows must be 1..5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeProfile(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
