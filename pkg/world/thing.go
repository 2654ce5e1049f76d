// Package world holds the entities events talk about: places, characters,
// items, and the weather. It is the simulation side of the event stream;
// characters act and emit events into a collector.
package world

import (
	"strings"

	"github.com/google/uuid"
	"github.com/kittclouds/storyloom/pkg/events"
	"github.com/kittclouds/storyloom/pkg/grammar"
)

// Kind represents the type of a thing
type Kind uint8

const (
	KindItem Kind = iota
	KindCharacter
	KindPlace
	KindTreasure
	KindWeapon
	KindContainer
	KindHorror
	KindWeather
)

func (k Kind) String() string {
	names := []string{"ITEM", "CHARACTER", "PLACE", "TREASURE", "WEAPON", "CONTAINER", "HORROR", "WEATHER"}
	if int(k) < len(names) {
		return names[k]
	}
	return "ITEM"
}

// ParseKind parses string to Kind
func ParseKind(s string) Kind {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CHARACTER", "NPC":
		return KindCharacter
	case "PLACE", "LOCATION", "ROOM":
		return KindPlace
	case "TREASURE":
		return KindTreasure
	case "WEAPON":
		return KindWeapon
	case "CONTAINER":
		return KindContainer
	case "HORROR":
		return KindHorror
	case "WEATHER":
		return KindWeather
	default:
		return KindItem
	}
}

// Thing is a single entity in the world. It satisfies events.Entity.
type Thing struct {
	id       string
	name     string
	kind     Kind
	forms    grammar.Forms
	noun     string
	location *Thing
	contents []*Thing
	exits    []*Thing

	// characters only
	collector Collector
	memory    map[*Thing]*Thing
}

// NewThing creates an unplaced thing.
func NewThing(name string, kind Kind, forms grammar.Forms) *Thing {
	t := &Thing{
		id:    uuid.NewString(),
		name:  name,
		kind:  kind,
		forms: forms,
	}
	if kind == KindCharacter {
		t.memory = make(map[*Thing]*Thing)
	}
	return t
}

// NewPlace creates a location. noun is how characters refer to it when
// someone leaves ("room", "garden"); empty means "room".
func NewPlace(name, noun string, proper bool) *Thing {
	if noun == "" {
		noun = "room"
	}
	t := NewThing(name, KindPlace, grammar.Resolve(grammar.Neuter, proper))
	t.noun = noun
	return t
}

// NewCharacter creates an animate, proper-named thing.
func NewCharacter(name string, g grammar.Gender) *Thing {
	return NewThing(name, KindCharacter, grammar.Resolve(g, true))
}

func (t *Thing) ID() string   { return t.id }
func (t *Thing) Name() string { return t.name }
func (t *Thing) Kind() Kind   { return t.kind }
func (t *Thing) Noun() string { return t.noun }

// Location returns where the thing is, or nil when unplaced.
func (t *Thing) Location() events.Entity {
	if t.location == nil {
		return nil
	}
	return t.location
}

// Place returns the containing thing, or nil.
func (t *Thing) Place() *Thing { return t.location }

// Render returns the definite phrase for the thing. A name carrying the
// initiator's possessive ("Bob's revolver") folds into the initiator's
// pronoun ("his revolver") when that initiator acts.
func (t *Thing) Render(initiator events.Entity) string {
	if initiator != nil && initiator != events.Entity(t) {
		possessive := initiator.Name() + "'s"
		if strings.Contains(t.name, possessive) {
			return strings.ReplaceAll(t.name, possessive, initiator.Possessive())
		}
	}
	return t.forms.Definite(t.name)
}

func (t *Thing) Indefinite() string { return t.forms.Indefinite(t.name) }
func (t *Thing) Possessive() string { return t.forms.Possessive }
func (t *Thing) Accusative() string { return t.forms.Accusative }
func (t *Thing) Pronoun() string    { return t.forms.Pronoun }
func (t *Thing) Was() string        { return t.forms.Was }
func (t *Thing) Is() string         { return t.forms.Is }

// Contents returns what the thing holds, in arrival order.
func (t *Thing) Contents() []*Thing {
	return append([]*Thing(nil), t.contents...)
}

// Exits returns the places reachable from this place.
func (t *Thing) Exits() []*Thing {
	return append([]*Thing(nil), t.exits...)
}

// SetExits replaces the exits of a place.
func (t *Thing) SetExits(exits ...*Thing) {
	t.exits = append([]*Thing(nil), exits...)
}

func (t *Thing) Animate() bool  { return t.kind == KindCharacter }
func (t *Thing) Treasure() bool { return t.kind == KindTreasure }

// Takeable reports whether a character can carry the thing.
func (t *Thing) Takeable() bool {
	switch t.kind {
	case KindItem, KindTreasure, KindWeapon:
		return true
	}
	return false
}

// Notable reports whether a character remarks on seeing the thing.
func (t *Thing) Notable() bool {
	switch t.kind {
	case KindTreasure, KindWeapon, KindHorror, KindCharacter:
		return true
	}
	return false
}

// MoveTo relocates the thing without narration.
func (t *Thing) MoveTo(dest *Thing) {
	if t.location != nil {
		t.location.remove(t)
	}
	t.location = dest
	if dest != nil {
		dest.contents = append(dest.contents, t)
	}
}

func (t *Thing) remove(x *Thing) {
	for i, c := range t.contents {
		if c == x {
			t.contents = append(t.contents[:i], t.contents[i+1:]...)
			return
		}
	}
}

func (t *Thing) holds(x *Thing) bool {
	for _, c := range t.contents {
		if c == x {
			return true
		}
	}
	return false
}
