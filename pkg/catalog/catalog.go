// Package catalog loads the read-only plant catalog.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Plant is one catalog record. Records are immutable once loaded.
type Plant struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Details     string `json:"details,omitempty"` // optional rich text (HTML)
}

// Catalog maps plant identifiers to records.
type Catalog struct {
	plants map[string]Plant
	ids    []string
}

// New builds a catalog from the given records. Duplicate or empty
// identifiers are rejected.
func New(plants []Plant) (*Catalog, error) {
	c := &Catalog{plants: make(map[string]Plant, len(plants))}
	for _, p := range plants {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return nil, fmt.Errorf("plant %q has an empty id", p.Name)
		}
		if _, dup := c.plants[id]; dup {
			return nil, fmt.Errorf("duplicate plant id %q", id)
		}
		p.ID = id
		c.plants[id] = p
		c.ids = append(c.ids, id)
	}
	sort.Strings(c.ids)
	return c, nil
}

// Load reads a JSON array of plants from path.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a JSON array of plants.
func Read(r io.Reader) (*Catalog, error) {
	var plants []Plant
	if err := json.NewDecoder(r).Decode(&plants); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return New(plants)
}

// Find returns the plant with the given id. The boolean is false for
// unknown ids.
func (c *Catalog) Find(id string) (Plant, bool) {
	p, ok := c.plants[strings.TrimSpace(id)]
	return p, ok
}

// IDs returns all identifiers in sorted order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.ids...)
}

// Len returns the number of plants.
func (c *Catalog) Len() int {
	return len(c.plants)
}
