// Package diction recognizes the fixed phrasing of narrative events.
// A single Aho-Corasick automaton per marker set serves both template
// classification and rendered-sentence checks.
package diction

import (
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// Class categorizes an event template
type Class uint8

const (
	ClassOther       Class = 0
	ClassArrival     Class = 1 // "<1> <was-1> in <2>"
	ClassTravel      Class = 2 // went to, made way, wandered
	ClassObservation Class = 3 // saw
	ClassDiscovery   Class = 4 // found, had found
	ClassPossession  Class = 5 // picked up, put down, gave
	ClassDialogue    Class = 6 // quoted speech
	ClassAtmosphere  Class = 7 // weather and other scene dressing
)

// String returns a readable name
func (c Class) String() string {
	switch c {
	case ClassArrival:
		return "ARRIVAL"
	case ClassTravel:
		return "TRAVEL"
	case ClassObservation:
		return "OBSERVATION"
	case ClassDiscovery:
		return "DISCOVERY"
	case ClassPossession:
		return "POSSESSION"
	case ClassDialogue:
		return "DIALOGUE"
	case ClassAtmosphere:
		return "ATMOSPHERE"
	default:
		return "OTHER"
	}
}

// ParseClass parses string to Class
func ParseClass(s string) Class {
	for c := ClassOther; c <= ClassAtmosphere; c++ {
		if strings.EqualFold(c.String(), s) {
			return c
		}
	}
	return ClassOther
}

// marker is a template fragment and the class it signals
type marker struct {
	text  string
	class Class
}

// Ordered by priority: the first marker found in a template wins when
// several overlap.
var templateMarkers = []marker{
	{"<was-1> in", ClassArrival},
	{"went to", ClassTravel},
	{"made <his-1> way to", ClassTravel},
	{"wandered around", ClassTravel},
	{"found", ClassDiscovery},
	{"saw", ClassObservation},
	{"picked up", ClassPossession},
	{"put down", ClassPossession},
	{"gave", ClassPossession},
	{"said", ClassDialogue},
	{"asked", ClassDialogue},
	{"raining", ClassAtmosphere},
	{"snowing", ClassAtmosphere},
	{"sun was shining", ClassAtmosphere},
	{"overcast", ClassAtmosphere},
}

// Scanner finds marker occurrences in text in a single pass.
type Scanner struct {
	ac       ahocorasick.AhoCorasick
	patterns []string
}

// NewScanner compiles patterns into an automaton. Matching is ASCII
// case-insensitive.
func NewScanner(patterns ...string) *Scanner {
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  false,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
	})
	return &Scanner{
		ac:       builder.Build(patterns),
		patterns: append([]string(nil), patterns...),
	}
}

// Match is one marker occurrence
type Match struct {
	Start   int
	End     int
	Pattern string
}

// Find returns every non-overlapping marker occurrence, leftmost first.
func (s *Scanner) Find(text string) []Match {
	found := s.ac.FindAll(text)
	result := make([]Match, 0, len(found))
	for _, m := range found {
		result = append(result, Match{
			Start:   m.Start(),
			End:     m.End(),
			Pattern: s.patterns[m.Pattern()],
		})
	}
	return result
}

// Contains reports whether any marker occurs in text.
func (s *Scanner) Contains(text string) bool {
	return len(s.ac.FindAll(text)) > 0
}

var (
	classifier *Scanner
	classOf    = map[string]Class{}

	// travelScanner matches the location-change fragments of a template.
	travelScanner = NewScanner("went to", "made <his-1> way to")
)

func init() {
	patterns := make([]string, len(templateMarkers))
	for i, m := range templateMarkers {
		patterns[i] = m.text
		classOf[m.text] = m.class
	}
	classifier = NewScanner(patterns...)
}

// Classify returns the class of an event template.
func Classify(phrase string) Class {
	if strings.HasPrefix(phrase, "'") || strings.HasPrefix(phrase, "\"") {
		return ClassDialogue
	}
	matches := classifier.Find(phrase)
	if len(matches) == 0 {
		return ClassOther
	}
	best := ClassOther
	bestRank := len(templateMarkers)
	for _, m := range matches {
		for rank, tm := range templateMarkers {
			if tm.text == m.Pattern && rank < bestRank {
				best, bestRank = classOf[m.Pattern], rank
			}
		}
	}
	return best
}

// IsLocationChange reports whether a template moves or places its
// initiator: any "went to" or "made <his-1> way to" template, or exactly
// the "was in" template.
func IsLocationChange(phrase string) bool {
	if phrase == "<1> <was-1> in <2>" {
		return true
	}
	return travelScanner.Contains(phrase)
}
