package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dungeoncrawler/server/internal/world"
)

// KindTemplate describes a static entity kind, loaded from entities.yaml.
type KindTemplate struct {
	Name      string  `yaml:"name"`
	Texture   string  `yaml:"texture"`
	Width     float64 `yaml:"width"`
	Height    float64 `yaml:"height"`
	Placeable bool    `yaml:"placeable"`
	Passable  bool    `yaml:"passable"`
}

// CreatureTemplate describes a dynamic entity type.
type CreatureTemplate struct {
	Name          string  `yaml:"name"`
	Texture       string  `yaml:"texture"`
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	MovementSpeed float64 `yaml:"movement_speed"`
	Damping       float64 `yaml:"damping"`
	Health        int32   `yaml:"health"`
}

// Spec converts the template into a spawnable description.
func (c *CreatureTemplate) Spec() world.EntitySpec {
	return world.EntitySpec{
		Name:          c.Name,
		Texture:       c.Texture,
		Width:         c.Width,
		Height:        c.Height,
		MovementSpeed: c.MovementSpeed,
		Damping:       c.Damping,
		Health:        c.Health,
	}
}

// SpawnEntry places Count creatures in a row starting at (X, Y).
type SpawnEntry struct {
	Creature string  `yaml:"creature"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Count    int     `yaml:"count"`
}

type entityListFile struct {
	Kinds     []KindTemplate     `yaml:"kinds"`
	Creatures []CreatureTemplate `yaml:"creatures"`
	Spawns    []SpawnEntry       `yaml:"spawns"`
}

// EntityTable holds the shared kind descriptors and creature templates.
// Kinds are interned: Kind(name) always returns the same pointer.
type EntityTable struct {
	kinds     map[string]*world.GameEntity
	kindOrder []string
	creatures map[string]*CreatureTemplate
	spawns    []SpawnEntry
}

// LoadEntityTable loads kinds, creatures and spawns from a YAML file.
func LoadEntityTable(path string) (*EntityTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entity list %s: %w", path, err)
	}
	return ParseEntityTable(raw)
}

// ParseEntityTable builds a table from YAML bytes.
func ParseEntityTable(raw []byte) (*EntityTable, error) {
	var f entityListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse entity list: %w", err)
	}

	t := &EntityTable{
		kinds:     make(map[string]*world.GameEntity, len(f.Kinds)),
		creatures: make(map[string]*CreatureTemplate, len(f.Creatures)),
	}
	for _, k := range f.Kinds {
		if k.Name == "" {
			return nil, fmt.Errorf("entity list: kind without name")
		}
		if _, dup := t.kinds[k.Name]; dup {
			return nil, fmt.Errorf("entity list: duplicate kind %q", k.Name)
		}
		if k.Width == 0 {
			k.Width = 1
		}
		if k.Height == 0 {
			k.Height = 1
		}
		if k.Texture == "" {
			k.Texture = k.Name
		}
		t.kinds[k.Name] = &world.GameEntity{
			Name:      k.Name,
			Texture:   k.Texture,
			Width:     k.Width,
			Height:    k.Height,
			Placeable: k.Placeable,
			Passable:  k.Passable,
		}
		t.kindOrder = append(t.kindOrder, k.Name)
	}
	for i := range f.Creatures {
		c := &f.Creatures[i]
		if c.Name == "" {
			return nil, fmt.Errorf("entity list: creature without name")
		}
		if _, dup := t.creatures[c.Name]; dup {
			return nil, fmt.Errorf("entity list: duplicate creature %q", c.Name)
		}
		if c.Width == 0 {
			c.Width = 1
		}
		if c.Height == 0 {
			c.Height = 1
		}
		if c.Texture == "" {
			c.Texture = c.Name
		}
		t.creatures[c.Name] = c
	}
	for _, s := range f.Spawns {
		if _, ok := t.creatures[s.Creature]; !ok {
			return nil, fmt.Errorf("entity list: spawn references unknown creature %q", s.Creature)
		}
		if s.Count <= 0 {
			s.Count = 1
		}
		t.spawns = append(t.spawns, s)
	}
	return t, nil
}

// Kind returns the interned descriptor for name, or nil.
func (t *EntityTable) Kind(name string) *world.GameEntity {
	return t.kinds[name]
}

// Kinds returns descriptors in file order.
func (t *EntityTable) Kinds() []*world.GameEntity {
	out := make([]*world.GameEntity, 0, len(t.kindOrder))
	for _, name := range t.kindOrder {
		out = append(out, t.kinds[name])
	}
	return out
}

// Creature returns the template for name, or nil.
func (t *EntityTable) Creature(name string) *CreatureTemplate {
	return t.creatures[name]
}

func (t *EntityTable) Spawns() []SpawnEntry {
	return t.spawns
}

// Count returns the number of kinds.
func (t *EntityTable) Count() int {
	return len(t.kinds)
}
