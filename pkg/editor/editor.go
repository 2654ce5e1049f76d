// Package editor turns a collected event stream into paragraphs.
//
// The Editor works much like the optimization phase of a compiler. It picks
// which character to follow for each paragraph, keeps only what that
// character could witness, and then runs the paragraph through a fixed
// chain of rewrite passes that replace sequences of sentences with more
// readable but equivalent ones.
//
// The event stream must open with "<Character> was in <place>" for every
// main character, otherwise the Editor cannot know who started where.
package editor

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/kittclouds/storyloom/pkg/diction"
	"github.com/kittclouds/storyloom/pkg/events"
)

// Paragraph quota bounds, inclusive.
const (
	MinQuota = 10
	MaxQuota = 25
)

// Development is something exciting that happened to a character while
// the reader was following someone else.
type Development struct {
	Object   events.Entity
	Location events.Entity
}

// Editor schedules points of view and assembles paragraphs. It is built
// fresh for every chapter and is not safe for concurrent use.
type Editor struct {
	backlog        []*events.Event
	next           int
	mainCharacters []events.Entity
	povIndex       int
	paragraphNum   int
	transformers   []Transformer

	// where every character really is
	characterLocation map[events.Entity]events.Entity
	// where the reader last saw each character
	lastSeenAt map[events.Entity]events.Entity
	// exciting things that happened off-page, per character
	developments map[events.Entity][]Development

	// event sequence numbers narrated to / kept from each POV
	witnessed map[events.Entity]*roaring.Bitmap
	missed    map[events.Entity]*roaring.Bitmap

	rng    *rand.Rand
	logger *slog.Logger
}

// Option configures an Editor.
type Option func(*Editor)

// WithRand sets the random source for paragraph quotas.
func WithRand(rng *rand.Rand) Option {
	return func(e *Editor) { e.rng = rng }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// WithTransformers appends transformers to the chain, in order.
func WithTransformers(ts ...Transformer) Option {
	return func(e *Editor) { e.transformers = append(e.transformers, ts...) }
}

// New creates an Editor over the collector's events. The collector is not
// modified; the Editor keeps its own backlog.
func New(collector *events.Collector, mainCharacters []events.Entity, opts ...Option) (*Editor, error) {
	if len(mainCharacters) == 0 {
		return nil, fmt.Errorf("%w: editor needs at least one main character", events.ErrContract)
	}
	e := &Editor{
		backlog:           collector.Events(),
		mainCharacters:    append([]events.Entity(nil), mainCharacters...),
		paragraphNum:      1,
		characterLocation: make(map[events.Entity]events.Entity),
		lastSeenAt:        make(map[events.Entity]events.Entity),
		developments:      make(map[events.Entity][]Development),
		witnessed:         make(map[events.Entity]*roaring.Bitmap),
		missed:            make(map[events.Entity]*roaring.Bitmap),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e, nil
}

// AddTransformer appends a pass to the end of the chain.
func (e *Editor) AddTransformer(t Transformer) {
	e.transformers = append(e.transformers, t)
}

// Pending returns the number of events not yet processed.
func (e *Editor) Pending() int {
	return len(e.backlog) - e.next
}

// Publish writes paragraphs to w until the backlog is exhausted.
func (e *Editor) Publish(w io.Writer) error {
	for e.Pending() > 0 {
		pov := e.mainCharacters[e.povIndex]
		paragraph, err := e.NextParagraph()
		if err != nil {
			return err
		}
		if err := writeParagraph(w, paragraph); err != nil {
			return fmt.Errorf("editor: write paragraph %d: %w", e.paragraphNum-1, err)
		}
		e.logger.Debug("paragraph published",
			"paragraph", e.paragraphNum-1,
			"pov", pov.Name(),
			"sentences", len(paragraph),
			"pending", e.Pending(),
		)
	}
	return nil
}

// NextParagraph assembles and rewrites the next paragraph, then advances
// the point of view. The result may be empty when nothing the POV could
// witness happened before the quota or the backlog ran out.
func (e *Editor) NextParagraph() ([]events.Sentence, error) {
	pov := e.mainCharacters[e.povIndex]
	paragraph, err := e.paragraphEvents(pov)
	if err != nil {
		return nil, err
	}
	for _, t := range e.transformers {
		if len(paragraph) == 0 {
			break
		}
		paragraph, err = t.Transform(paragraph, e.paragraphNum)
		if err != nil {
			return nil, fmt.Errorf("editor: %T on paragraph %d: %w", t, e.paragraphNum, err)
		}
	}

	e.povIndex++
	if e.povIndex >= len(e.mainCharacters) {
		e.povIndex = 0
	}
	e.paragraphNum++
	return paragraph, nil
}

// paragraphEvents pops up to a random quota of events, keeping the ones
// that happened where pov is.
func (e *Editor) paragraphEvents(pov events.Entity) ([]events.Sentence, error) {
	quota := MinQuota + e.rng.Intn(MaxQuota-MinQuota+1)
	var paragraph []events.Sentence
	for len(paragraph) < quota && e.Pending() > 0 {
		seq := uint32(e.next)
		event := e.backlog[e.next]
		e.next++
		if event.Location() == nil {
			return nil, fmt.Errorf("%w: event has no location: %s", events.ErrContract, event)
		}

		// track where everyone is, even for events we will not narrate
		e.characterLocation[event.Initiator()] = event.Location()

		here, ok := e.characterLocation[pov]
		if !ok {
			return nil, fmt.Errorf("%w: no starting location for %s; the stream must open with where each main character was", events.ErrContract, pov.Name())
		}

		if events.SameEntity(event.Location(), here) {
			if len(paragraph) == 0 {
				opening, err := e.catchUp(pov, event)
				if err != nil {
					return nil, err
				}
				paragraph = append(paragraph, opening...)
			}
			paragraph = append(paragraph, event)
			e.lastSeenAt[event.Initiator()] = event.Location()
			ledger(e.witnessed, pov).Add(seq)
			continue
		}

		ledger(e.missed, pov).Add(seq)
		if event.Exciting() {
			e.developments[event.Initiator()] = append(e.developments[event.Initiator()], Development{
				Object:   event.Participant(1),
				Location: event.Participant(2),
			})
		}
	}
	return paragraph, nil
}

// catchUp builds the sentences that open a paragraph, ahead of its first
// witnessed event: where the POV is, if the reader does not know, and what
// it found while off-page.
func (e *Editor) catchUp(pov events.Entity, first *events.Event) ([]events.Sentence, error) {
	var opening []events.Sentence
	if !events.SameEntity(e.lastSeenAt[pov], first.Location()) && !diction.IsLocationChange(first.Phrase()) {
		was, err := events.New(events.PhraseWasIn, []events.Entity{pov, first.Location()}, events.At(first.Location()))
		if err != nil {
			return nil, err
		}
		opening = append(opening, was)
	}
	for _, d := range e.developments[pov] {
		found, err := events.New(events.PhraseHadFound, []events.Entity{pov, d.Object, d.Location}, events.At(d.Location))
		if err != nil {
			return nil, err
		}
		opening = append(opening, found)
	}
	delete(e.developments, pov)
	return opening, nil
}

// Developments returns the undisclosed exciting developments for c.
func (e *Editor) Developments(c events.Entity) []Development {
	return append([]Development(nil), e.developments[c]...)
}

// Witnessed returns the sequence numbers of events narrated while c was
// the point of view.
func (e *Editor) Witnessed(c events.Entity) []uint32 {
	if bm, ok := e.witnessed[c]; ok {
		return bm.ToArray()
	}
	return nil
}

// Missed returns the sequence numbers of events processed while c was the
// point of view but left out because they happened elsewhere.
func (e *Editor) Missed(c events.Entity) []uint32 {
	if bm, ok := e.missed[c]; ok {
		return bm.ToArray()
	}
	return nil
}

func ledger(m map[events.Entity]*roaring.Bitmap, c events.Entity) *roaring.Bitmap {
	bm, ok := m[c]
	if !ok {
		bm = roaring.New()
		m[c] = bm
	}
	return bm
}

// writeParagraph renders sentences separated by two spaces, followed by
// two blank lines. Empty paragraphs write nothing.
func writeParagraph(w io.Writer, paragraph []events.Sentence) error {
	if len(paragraph) == 0 {
		return nil
	}
	sentences := make([]string, len(paragraph))
	for i, s := range paragraph {
		sentences[i] = s.String()
	}
	_, err := io.WriteString(w, strings.Join(sentences, "  ")+"\n\n\n")
	return err
}
