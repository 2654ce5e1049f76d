// Package scenario loads the cast and setting of a book from YAML and
// builds the world entities for one chapter.
package scenario

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/hack-pad/hackpadfs"
	"github.com/kittclouds/storyloom/pkg/grammar"
	"github.com/kittclouds/storyloom/pkg/world"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultScenario []byte

// Scenario is the parsed scenario file.
type Scenario struct {
	Title      string      `yaml:"title"`
	Places     []Place     `yaml:"places"`
	Characters []Character `yaml:"characters"`
	Items      []Item      `yaml:"items"`
}

type Place struct {
	Name   string   `yaml:"name"`
	Noun   string   `yaml:"noun,omitempty"`
	Proper bool     `yaml:"proper,omitempty"`
	Exits  []string `yaml:"exits"`
}

type Character struct {
	Name   string `yaml:"name"`
	Gender string `yaml:"gender"`
	// Start is the place the character opens each chapter in. Empty means
	// a random place.
	Start string `yaml:"start,omitempty"`
}

type Item struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind,omitempty"`
	Gender string `yaml:"gender,omitempty"`
	Proper bool   `yaml:"proper,omitempty"`
	// In names the place or character holding the item.
	In string `yaml:"in"`
}

// Default returns the embedded scenario.
func Default() (*Scenario, error) {
	return Parse(defaultScenario)
}

// Load reads and validates a scenario file from fs.
func Load(fs hackpadfs.FS, path string) (*Scenario, error) {
	data, err := hackpadfs.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and validates scenario YAML.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks names are present and unique and every reference
// resolves.
func (sc *Scenario) Validate() error {
	if len(sc.Places) == 0 {
		return fmt.Errorf("scenario needs at least one place")
	}
	if len(sc.Characters) == 0 {
		return fmt.Errorf("scenario needs at least one character")
	}

	names := make(map[string]string)
	claim := func(kind, name string) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("%s without a name", kind)
		}
		if other, ok := names[name]; ok {
			return fmt.Errorf("%s %q: name already used by a %s", kind, name, other)
		}
		names[name] = kind
		return nil
	}
	for _, p := range sc.Places {
		if err := claim("place", p.Name); err != nil {
			return err
		}
	}
	for _, c := range sc.Characters {
		if err := claim("character", c.Name); err != nil {
			return err
		}
	}
	for _, it := range sc.Items {
		if err := claim("item", it.Name); err != nil {
			return err
		}
	}

	for _, p := range sc.Places {
		for _, exit := range p.Exits {
			if names[exit] != "place" {
				return fmt.Errorf("place %q: exit %q is not a place", p.Name, exit)
			}
			if exit == p.Name {
				return fmt.Errorf("place %q: exit leads to itself", p.Name)
			}
		}
	}
	for _, c := range sc.Characters {
		if c.Start != "" && names[c.Start] != "place" {
			return fmt.Errorf("character %q: start %q is not a place", c.Name, c.Start)
		}
	}
	for _, it := range sc.Items {
		switch names[it.In] {
		case "place", "character":
		default:
			return fmt.Errorf("item %q: %q is neither a place nor a character", it.Name, it.In)
		}
		switch world.ParseKind(it.Kind) {
		case world.KindCharacter, world.KindPlace, world.KindWeather:
			return fmt.Errorf("item %q: kind %q is not an item kind", it.Name, it.Kind)
		}
	}
	return nil
}

// Setting is a freshly built world for one chapter.
type Setting struct {
	Places     []*world.Thing
	Characters []*world.Thing
	Items      []*world.Thing

	starts map[*world.Thing]*world.Thing
}

// Start returns the place c opens the chapter in, or nil for anywhere.
func (s *Setting) Start(c *world.Thing) *world.Thing {
	return s.starts[c]
}

// Build creates the world entities. Characters are left unplaced; items
// are put where the scenario says.
func (sc *Scenario) Build() *Setting {
	s := &Setting{starts: make(map[*world.Thing]*world.Thing)}
	byName := make(map[string]*world.Thing)

	for _, p := range sc.Places {
		place := world.NewPlace(p.Name, p.Noun, p.Proper)
		byName[p.Name] = place
		s.Places = append(s.Places, place)
	}
	for _, p := range sc.Places {
		exits := make([]*world.Thing, 0, len(p.Exits))
		for _, name := range p.Exits {
			exits = append(exits, byName[name])
		}
		byName[p.Name].SetExits(exits...)
	}

	for _, c := range sc.Characters {
		ch := world.NewCharacter(c.Name, grammar.ParseGender(c.Gender))
		byName[c.Name] = ch
		s.Characters = append(s.Characters, ch)
		if c.Start != "" {
			s.starts[ch] = byName[c.Start]
		}
	}

	for _, it := range sc.Items {
		item := world.NewThing(it.Name, world.ParseKind(it.Kind), grammar.Resolve(grammar.ParseGender(it.Gender), it.Proper))
		item.MoveTo(byName[it.In])
		s.Items = append(s.Items, item)
	}
	return s
}
