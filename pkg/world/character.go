package world

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/kittclouds/storyloom/pkg/events"
)

// Collector receives the events characters emit.
type Collector interface {
	Collect(e *events.Event) error
}

// ErrNotAnimate is returned when a non-character is asked to act.
var ErrNotAnimate = errors.New("world: thing is not animate")

// Attach routes a character's events into c. A nil collector silences it.
func (t *Thing) Attach(c Collector) {
	t.collector = c
}

func (t *Thing) emit(phrase string, participants []events.Entity, opts ...events.Option) error {
	if t.collector == nil {
		return nil
	}
	e, err := events.New(phrase, participants, opts...)
	if err != nil {
		return err
	}
	return t.collector.Collect(e)
}

// Remember records that item was last seen in where.
func (t *Thing) Remember(item, where *Thing) {
	if t.memory != nil {
		t.memory[item] = where
	}
}

// Recall returns where item was last seen, or nil.
func (t *Thing) Recall(item *Thing) *Thing {
	return t.memory[item]
}

// Belief is where a character last saw an item.
type Belief struct {
	Item  *Thing
	Where *Thing
}

// Beliefs returns what the character remembers, ordered by item name.
func (t *Thing) Beliefs() []Belief {
	out := make([]Belief, 0, len(t.memory))
	for item, where := range t.memory {
		out = append(out, Belief{Item: item, Where: where})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Item.name < out[j].Item.name })
	return out
}

// PlaceIn sets a character into a scene. It announces where the character
// is, which the Editor needs to know who started where, and what notable
// things are around.
func (t *Thing) PlaceIn(loc *Thing) error {
	if !t.Animate() {
		return fmt.Errorf("%w: %s", ErrNotAnimate, t.name)
	}
	t.MoveTo(loc)
	if err := t.emit(events.PhraseWasIn, []events.Entity{t, loc}); err != nil {
		return err
	}
	return t.look()
}

// Go walks a character to dest. Other characters present see it leave.
func (t *Thing) Go(dest *Thing) error {
	if !t.Animate() {
		return fmt.Errorf("%w: %s", ErrNotAnimate, t.name)
	}
	from := t.location
	if from == nil || dest == nil || dest == from {
		return fmt.Errorf("world: %s has nowhere new to go", t.name)
	}
	for _, x := range from.Contents() {
		if x == t || !x.Animate() {
			continue
		}
		phrase := "<1> saw <2> leave the " + from.noun
		if err := x.emit(phrase, []events.Entity{x, t}); err != nil {
			return err
		}
	}
	t.MoveTo(dest)
	if err := t.emit(events.PhraseWentTo, []events.Entity{t, dest}, events.From(from)); err != nil {
		return err
	}
	return t.look()
}

// look reports notable things at the character's location. A treasure the
// character never saw before is an exciting find.
func (t *Thing) look() error {
	here := t.location
	for _, x := range here.Contents() {
		if x == t || !x.Notable() {
			continue
		}
		if x.Treasure() && t.Recall(x) == nil {
			if err := t.emit(events.PhraseFound, []events.Entity{t, x, here}, events.Exciting()); err != nil {
				return err
			}
		} else if err := t.emit(events.PhraseSaw, []events.Entity{t, x}); err != nil {
			return err
		}
		if !x.Animate() {
			t.Remember(x, here)
		}
	}
	return nil
}

// PickUp takes item from the character's location.
func (t *Thing) PickUp(item *Thing) error {
	if item.location != t.location {
		return fmt.Errorf("world: %s is not where %s is", item.name, t.name)
	}
	if err := t.emit("<1> picked up <2>", []events.Entity{t, item}); err != nil {
		return err
	}
	item.MoveTo(t)
	t.witness(item, t)
	return nil
}

// PutDown leaves a carried item at the character's location.
func (t *Thing) PutDown(item *Thing) error {
	if !t.holds(item) {
		return fmt.Errorf("world: %s does not hold %s", t.name, item.name)
	}
	if err := t.emit("<1> put down <2>", []events.Entity{t, item}); err != nil {
		return err
	}
	item.MoveTo(t.location)
	t.witness(item, t.location)
	return nil
}

// GiveTo hands a carried item to another character in the same place.
func (t *Thing) GiveTo(other, item *Thing) error {
	if !t.holds(item) || other.location != t.location {
		return fmt.Errorf("world: %s cannot give %s to %s", t.name, item.name, other.name)
	}
	if err := t.emit("<1> gave <3> to <2>", []events.Entity{t, other, item}); err != nil {
		return err
	}
	item.MoveTo(other)
	t.witness(item, other)
	return nil
}

// Greet speaks to another character in the same place.
func (t *Thing) Greet(other *Thing) error {
	return t.emit("'Hello, <2>,' said <1>", []events.Entity{t, other}, events.Spoken(t, other))
}

// witness updates what everyone present believes about item.
func (t *Thing) witness(item, where *Thing) {
	for _, x := range t.location.Contents() {
		if x.Animate() {
			x.Remember(item, where)
		}
	}
}

// Live takes one turn of randomized behaviour and reports whether the
// character did anything.
func (t *Thing) Live(rng *rand.Rand) (bool, error) {
	if !t.Animate() || t.location == nil {
		return false, nil
	}
	here := t.location

	held := t.holding()
	if held != nil && rng.Intn(4) == 0 {
		return true, t.PutDown(held)
	}
	if held != nil {
		if other := t.companion(); other != nil && rng.Intn(6) == 0 {
			return true, t.GiveTo(other, held)
		}
	}
	if held == nil {
		for _, x := range here.Contents() {
			if x.Takeable() && rng.Intn(3) == 0 {
				return true, t.PickUp(x)
			}
		}
	}
	if other := t.companion(); other != nil && rng.Intn(5) == 0 {
		return true, t.Greet(other)
	}
	if len(here.exits) > 0 {
		return true, t.Go(here.exits[rng.Intn(len(here.exits))])
	}
	return false, nil
}

func (t *Thing) holding() *Thing {
	for _, x := range t.contents {
		if x.Takeable() {
			return x
		}
	}
	return nil
}

func (t *Thing) companion() *Thing {
	for _, x := range t.location.Contents() {
		if x != t && x.Animate() {
			return x
		}
	}
	return nil
}
