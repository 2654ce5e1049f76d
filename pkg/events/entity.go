// Package events provides the narrative event model: immutable Event records,
// composite sentences built from several events, and the append-only
// Collector the world simulation writes into.
package events

import "errors"

// Entity is anything that can take part in an event. Entities are owned by
// the world; events only hold references to them.
type Entity interface {
	Name() string
	// Location returns where the entity currently is, or nil.
	Location() Entity
	// Render returns the full phrase for the entity as seen from an event
	// initiated by initiator.
	Render(initiator Entity) string
	Indefinite() string
	Possessive() string
	Accusative() string
	Pronoun() string
	Was() string
	Is() string
}

// Canonical phrase templates the Editor and transformers pattern-match on.
const (
	PhraseWasIn    = "<1> <was-1> in <2>"
	PhraseWentTo   = "<1> went to <2>"
	PhraseMadeWay  = "<1> made <his-1> way to <2>"
	PhraseSaw      = "<1> saw <2>"
	PhraseFound    = "<1> found <2> in <3>"
	PhraseHadFound = "<1> had found <2> in <3>"
	PhraseWandered = "<1> wandered around for a bit, then came back to <2>"
)

var (
	// ErrStreamInvariant marks an event stream the collector must refuse.
	// It signals a simulation bug.
	ErrStreamInvariant = errors.New("stream invariant violation")

	// ErrContract marks a programming defect: malformed templates, merges
	// whose preconditions do not hold, missing bootstrap state.
	ErrContract = errors.New("contract violation")
)

// SameEntity reports whether a and b refer to the same entity.
// Two nil entities are the same.
func SameEntity(a, b Entity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a == b
}
