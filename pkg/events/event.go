package events

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sentence is one renderable unit of a paragraph: a single Event or a
// Composite built from several events sharing an initiator.
type Sentence interface {
	Phrase() string
	Participants() []Entity
	Initiator() Entity
	Location() Entity
	PreviousLocation() Entity
	Exciting() bool
	Exclaimed() bool
	// Render substitutes all placeholders, without capitalization or
	// terminal punctuation.
	Render() string
	// String returns the finished sentence.
	String() string
	// Rephrase returns a copy carrying a new template.
	Rephrase(phrase string) (Sentence, error)
}

// Event records one occurrence in the world. Events are values: every
// derivation returns a new Event and leaves the receiver untouched.
type Event struct {
	phrase           string
	participants     []Entity
	location         Entity
	previousLocation Entity
	excl             bool
	speaker          Entity
	addressedTo      Entity
	exciting         bool
}

// Option configures an Event at construction.
type Option func(*Event)

// Exclaim renders the event with "!" instead of ".".
func Exclaim() Option {
	return func(e *Event) { e.excl = true }
}

// From records the location the initiator left, for location changes.
func From(previous Entity) Option {
	return func(e *Event) { e.previousLocation = previous }
}

// Spoken attributes dialogue. A nil speaker is the narrator, a nil
// addressee is the reader.
func Spoken(speaker, addressedTo Entity) Option {
	return func(e *Event) {
		e.speaker = speaker
		e.addressedTo = addressedTo
	}
}

// Exciting marks an event worth disclosing later to a POV that missed it.
// Participants must be (initiator, object, location).
func Exciting() Option {
	return func(e *Event) { e.exciting = true }
}

// At overrides the location snapshot. Only narration synthesized after the
// fact uses it, so the event carries the place it talks about.
func At(location Entity) Option {
	return func(e *Event) { e.location = location }
}

// New creates an Event. The initiator's current location is captured as the
// event location.
func New(phrase string, participants []Entity, opts ...Option) (*Event, error) {
	if len(participants) == 0 || participants[0] == nil {
		return nil, fmt.Errorf("%w: event %q has no initiator", ErrContract, phrase)
	}
	for i, p := range participants {
		if p == nil {
			return nil, fmt.Errorf("%w: event %q has no participant %d", ErrContract, phrase, i+1)
		}
	}
	if err := checkPlaceholders(phrase, len(participants)); err != nil {
		return nil, err
	}

	e := &Event{
		phrase:       phrase,
		participants: append([]Entity(nil), participants...),
		location:     participants[0].Location(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.exciting && len(e.participants) < 3 {
		return nil, fmt.Errorf("%w: exciting event %q needs object and location participants", ErrContract, phrase)
	}
	return e, nil
}

// Must is like New but panics on error. For fixed templates in tests and
// setup code.
func Must(e *Event, err error) *Event {
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Event) Phrase() string { return e.phrase }

func (e *Event) Participants() []Entity {
	return append([]Entity(nil), e.participants...)
}

// Participant returns participant i (zero-based), or nil.
func (e *Event) Participant(i int) Entity {
	if i < 0 || i >= len(e.participants) {
		return nil
	}
	return e.participants[i]
}

func (e *Event) Initiator() Entity        { return e.participants[0] }
func (e *Event) Location() Entity         { return e.location }
func (e *Event) PreviousLocation() Entity { return e.previousLocation }
func (e *Event) Exciting() bool           { return e.exciting }
func (e *Event) Exclaimed() bool          { return e.excl }
func (e *Event) Speaker() Entity          { return e.speaker }
func (e *Event) AddressedTo() Entity      { return e.addressedTo }

// Render substitutes every placeholder for every participant.
func (e *Event) Render() string {
	phrase := e.phrase
	initiator := e.Initiator()
	for i, p := range e.participants {
		n := strconv.Itoa(i + 1)
		phrase = strings.ReplaceAll(phrase, "<"+n+">", p.Render(initiator))
		phrase = strings.ReplaceAll(phrase, "<indef-"+n+">", p.Indefinite())
		phrase = strings.ReplaceAll(phrase, "<his-"+n+">", p.Possessive())
		phrase = strings.ReplaceAll(phrase, "<him-"+n+">", p.Accusative())
		phrase = strings.ReplaceAll(phrase, "<he-"+n+">", p.Pronoun())
		phrase = strings.ReplaceAll(phrase, "<was-"+n+">", p.Was())
		phrase = strings.ReplaceAll(phrase, "<is-"+n+">", p.Is())
	}
	return phrase
}

func (e *Event) String() string {
	return finish(e.Render(), e.excl)
}

// WithPhrase returns a copy of the event carrying a new template.
func (e *Event) WithPhrase(phrase string) (*Event, error) {
	if err := checkPlaceholders(phrase, len(e.participants)); err != nil {
		return nil, err
	}
	c := *e
	c.phrase = phrase
	c.participants = e.Participants()
	return &c, nil
}

func (e *Event) Rephrase(phrase string) (Sentence, error) {
	return e.WithPhrase(phrase)
}

// ContinueJourney folds next, a later "went to" by the same initiator, into
// this travel event: the result made its way to next's destination, starting
// from this event's previous location.
func (e *Event) ContinueJourney(next *Event) (*Event, error) {
	if !SameEntity(e.Initiator(), next.Initiator()) {
		return nil, fmt.Errorf("%w: cannot join journeys of different initiators: %q, %q", ErrContract, e, next)
	}
	if len(e.participants) < 2 || len(next.participants) < 2 {
		return nil, fmt.Errorf("%w: travel event without destination: %q", ErrContract, e.phrase)
	}
	if !SameEntity(next.location, next.participants[1]) {
		return nil, fmt.Errorf("%w: %q happened outside its destination", ErrContract, next)
	}
	if e.previousLocation == nil {
		return nil, fmt.Errorf("%w: %q has no previous location", ErrContract, e)
	}
	if !SameEntity(e.location, e.participants[1]) {
		return nil, fmt.Errorf("%w: %q happened outside its destination", ErrContract, e)
	}

	c := *e
	c.phrase = PhraseMadeWay
	c.participants = e.Participants()
	c.participants[1] = next.participants[1]
	c.location = next.participants[1]
	c.excl = e.excl || next.excl
	return &c, nil
}

var placeholderPattern = regexp.MustCompile(`<[^<>\s]*>`)

var knownPlaceholder = regexp.MustCompile(`^<(?:(?:indef|his|him|he|was|is)-)?([1-9][0-9]*)>$`)

// checkPlaceholders rejects templates whose placeholders would survive
// rendering.
func checkPlaceholders(phrase string, participants int) error {
	for _, token := range placeholderPattern.FindAllString(phrase, -1) {
		m := knownPlaceholder.FindStringSubmatch(token)
		if m == nil {
			return fmt.Errorf("%w: unknown placeholder %s in %q", ErrContract, token, phrase)
		}
		n, _ := strconv.Atoi(m[1])
		if n > participants {
			return fmt.Errorf("%w: placeholder %s in %q has only %d participants", ErrContract, token, phrase, participants)
		}
	}
	return nil
}

// finish capitalizes the first letter and adds terminal punctuation.
func finish(text string, excl bool) string {
	if excl {
		text += "!"
	} else {
		text += "."
	}
	r, size := utf8.DecodeRuneInString(text)
	return string(unicode.ToUpper(r)) + text[size:]
}

// LeadingPronoun rewrites a phrase that opens with the initiator's
// placeholder to open with the initiator's pronoun instead.
func LeadingPronoun(phrase string) string {
	if strings.HasPrefix(phrase, "<1>") {
		return "<he-1>" + strings.TrimPrefix(phrase, "<1>")
	}
	return phrase
}
