// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package profile loads exporter profiles. A profile file only needs the
// keys it changes; everything else keeps the built-in CTS Netherlands value.
package profile

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cmr-converter/pkg/types"
)

// Load returns the default profile overlaid with the YAML file at path. An
// empty path returns the default profile.
func Load(path string) (types.Profile, error) {
	p := types.DefaultProfile()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("reading profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	if err := Validate(p); err != nil {
		return p, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// Validate checks that a profile can place every field it extracts.
func Validate(p types.Profile) error {
	var problems []string
	if strings.TrimSpace(p.DateAnchor) == "" {
		problems = append(problems, "date_anchor is empty")
	}
	if len(p.Sender) > len(p.Layout.SenderCells) {
		problems = append(problems, fmt.Sprintf("%d sender lines but %d sender cells",
			len(p.Sender), len(p.Layout.SenderCells)))
	}

	c := p.Layout.Consignee
	if c.Column == "" || c.FirstRow < 1 {
		problems = append(problems, "consignee block needs a column and a first row")
	}
	if c.MaxRows < 1 || c.MaxRows > types.ConsigneeLines {
		problems = append(problems, fmt.Sprintf("consignee max_rows must be 1..%d", types.ConsigneeLines))
	}

	b := p.Layout.Boxes
	if b.FirstRow < 1 || b.NameColumn == "" {
		problems = append(problems, "box table needs a first row and a name column")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid profile: %s", strings.Join(problems, "; "))
	}
	return nil
}
