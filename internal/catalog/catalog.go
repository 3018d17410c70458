// Package catalog holds the ordered set of category names the detection
// model can predict. A Catalog is immutable once built and is passed
// explicitly to every statistics function.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/arbovm/levenshtein"
	"gopkg.in/yaml.v3"

	apperrors "github.com/anime-shed/waste-inspector-go/internal/errors"
)

var defaultNames = []string{
	"Aluminium_foil", "Background", "Cardboard", "Cig_bud", "Cig_pack", "Disposable",
	"E-Waste", "Foam Paper", "Foam cups and plates", "Garbage", "Glass_bottle",
	"Light bulbs", "Mask", "Metal", "Nylog_sting", "Nylon_sting", "Papar_Cup", "Paper",
	"Plastic", "Plastic_Bag", "Plastic_Container", "Plastic_Glass", "Plastic_Straw",
	"Plastic_bottle", "Plastic_tray", "Plastic_wraper", "Rubber", "Steel_Bottle",
	"Tetrapack", "Thermocol", "Toothpaste", "can", "contaminated_waste",
	"diaper_sanitarypad", "tin_box", "top_view_waste", "wood",
}

// Catalog is an ordered, duplicate-free list of category names
type Catalog struct {
	names []string
	index map[string]int
}

// Default returns the 37-category waste catalog the bundled weights were trained on
func Default() *Catalog {
	c, err := New(defaultNames)
	if err != nil {
		panic(err)
	}
	return c
}

// New builds a catalog from names in model index order
func New(names []string) (*Catalog, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("catalog must contain at least one category")
	}

	c := &Catalog{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
	}
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("category %d has an empty name", i)
		}
		if prev, dup := c.index[name]; dup {
			return nil, fmt.Errorf("category %q listed twice (indexes %d and %d)", name, prev, i)
		}
		c.names[i] = name
		c.index[name] = i
	}
	return c, nil
}

type fileFormat struct {
	Categories []string `yaml:"categories"`
}

// LoadFile reads a YAML catalog of the form
//
//	categories:
//	  - Aluminium_foil
//	  - Background
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", path, err)
	}
	return New(f.Categories)
}

// Len returns the number of categories
func (c *Catalog) Len() int {
	return len(c.names)
}

// Names returns a copy of the category names in index order
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Name resolves a predicted class index. An index outside [0, Len()) means
// the model's label space does not match this catalog.
func (c *Catalog) Name(index int) (string, error) {
	if index < 0 || index >= len(c.names) {
		return "", apperrors.NewCategoryIndexError(index, len(c.names))
	}
	return c.names[index], nil
}

// Index resolves a category name to its class index. Unknown names get the
// closest catalog entry as a hint.
func (c *Catalog) Index(name string) (int, error) {
	if i, ok := c.index[name]; ok {
		return i, nil
	}
	err := apperrors.NewCategoryIndexError(-1, len(c.names))
	err.Message = fmt.Sprintf("unknown category %q", name)
	if hint := c.Closest(name); hint != "" {
		err.Details = fmt.Sprintf("did you mean %q?", hint)
	}
	return -1, err
}

// Closest returns the catalog name with the smallest case-insensitive edit
// distance to name. Ties go to the lower index.
func (c *Catalog) Closest(name string) string {
	best, bestDist := "", -1
	needle := strings.ToLower(name)
	for _, candidate := range c.names {
		d := levenshtein.Distance(needle, strings.ToLower(candidate))
		if bestDist < 0 || d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}
