package vehicles

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dragsim/internal/sim"
)

var (
	ErrVehicleNotFound  = errors.New("vehicles: vehicle not found")
	ErrUnknownCategory  = errors.New("vehicles: unknown category")
	ErrDuplicateVehicle = errors.New("vehicles: duplicate vehicle id")
)

//go:embed catalog.yaml
var builtin []byte

type catalogFile struct {
	Cars []Vehicle `yaml:"cars"`
	Jets []Vehicle `yaml:"jets"`
}

// Catalog is an ordered set of vehicles keyed by id. Lookups are safe for
// concurrent use once loading is done.
type Catalog struct {
	byID  map[string]Vehicle
	order []string
}

func New() *Catalog {
	return &Catalog{byID: make(map[string]Vehicle)}
}

// Default returns a fresh copy of the built-in catalog.
func Default() *Catalog {
	c, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("vehicles: built-in catalog: %v", err))
	}
	return c
}

// Parse reads a catalog document with "cars" and "jets" lists. The lists
// only group entries; each vehicle's own category selects its specs.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("vehicles: parse catalog: %w", err)
	}

	c := New()
	seen := make(map[string]bool)
	add := func(list []Vehicle) error {
		for _, v := range list {
			if seen[v.ID] {
				return fmt.Errorf("%w: %s", ErrDuplicateVehicle, v.ID)
			}
			seen[v.ID] = true
			if err := c.Put(v); err != nil {
				return err
			}
		}
		return nil
	}
	if err := add(f.Cars); err != nil {
		return nil, err
	}
	if err := add(f.Jets); err != nil {
		return nil, err
	}
	return c, nil
}

// Load merges the catalog file at path into c. Vehicles with an id already
// present replace the existing entry in place.
func (c *Catalog) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("vehicles: read %s: %w", path, err)
	}
	other, err := Parse(data)
	if err != nil {
		return err
	}
	c.Merge(other)
	return nil
}

func (c *Catalog) Merge(other *Catalog) {
	for _, id := range other.order {
		c.put(other.byID[id])
	}
}

// Put validates v and adds or replaces it.
func (c *Catalog) Put(v Vehicle) error {
	if err := v.Validate(); err != nil {
		return err
	}
	c.put(v)
	return nil
}

func (c *Catalog) put(v Vehicle) {
	if _, ok := c.byID[v.ID]; !ok {
		c.order = append(c.order, v.ID)
	}
	c.byID[v.ID] = v
}

func (c *Catalog) Lookup(id string) (Vehicle, error) {
	v, ok := c.byID[id]
	if !ok {
		return Vehicle{}, fmt.Errorf("%w: %q", ErrVehicleNotFound, id)
	}
	return v, nil
}

func (c *Catalog) List() []Vehicle {
	out := make([]Vehicle, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *Catalog) Cars() []Vehicle { return c.filter(sim.Car) }
func (c *Catalog) Jets() []Vehicle { return c.filter(sim.FighterJet) }

func (c *Catalog) filter(cat sim.Category) []Vehicle {
	out := make([]Vehicle, 0)
	for _, id := range c.order {
		if v := c.byID[id]; v.Category == cat {
			out = append(out, v)
		}
	}
	return out
}

// IDs returns all vehicle ids sorted.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.order))
	copy(ids, c.order)
	sort.Strings(ids)
	return ids
}

func (c *Catalog) Len() int { return len(c.order) }
