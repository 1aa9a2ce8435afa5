// Package catalog holds the default category tree offered to new tenants
// and loads alternative trees from TOML files.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed default.toml
var defaultTOML string

// Sub is a subcategory entry.
type Sub struct {
	Name          string `toml:"name"`
	TaxDeductible bool   `toml:"tax_deductible"`
	Note          string `toml:"note"`
}

// Parent is a top-level category with its subcategories.
type Parent struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
	Subs []Sub  `toml:"sub"`
}

// Catalog is an ordered list of parent categories.
type Catalog []Parent

type file struct {
	Categories []Parent `toml:"category"`
}

// Default returns the built-in catalog.
func Default() Catalog {
	c, err := Parse(defaultTOML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded default: %v", err))
	}
	return c
}

// Load reads a catalog from a TOML file. An empty path yields Default.
func Load(path string) (Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	var f file
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("catalog %s: unknown keys %v", path, undec)
	}
	return validate(f.Categories)
}

// Parse decodes a catalog from TOML text.
func Parse(text string) (Catalog, error) {
	var f file
	if _, err := toml.Decode(text, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return validate(f.Categories)
}

func validate(parents []Parent) (Catalog, error) {
	for i := range parents {
		p := &parents[i]
		p.Name = strings.TrimSpace(p.Name)
		p.Type = strings.ToLower(strings.TrimSpace(p.Type))
		if p.Name == "" {
			return nil, fmt.Errorf("catalog entry %d: name is required", i+1)
		}
		if p.Type != "income" && p.Type != "expense" {
			return nil, fmt.Errorf("catalog entry %q: type must be income or expense, got %q", p.Name, p.Type)
		}
		for j := range p.Subs {
			p.Subs[j].Name = strings.TrimSpace(p.Subs[j].Name)
			if p.Subs[j].Name == "" {
				return nil, fmt.Errorf("catalog entry %q: subcategory %d has no name", p.Name, j+1)
			}
		}
	}
	return Catalog(parents), nil
}

// Size returns the number of parents and subcategories in c.
func (c Catalog) Size() (parents, subs int) {
	for _, p := range c {
		subs += len(p.Subs)
	}
	return len(c), subs
}
