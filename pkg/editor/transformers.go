package editor

import (
	"math/rand"
	"strings"

	"github.com/kittclouds/storyloom/pkg/diction"
	"github.com/kittclouds/storyloom/pkg/events"
)

// Transformer is one rewrite pass over a paragraph. A pass returns a new
// slice and never mutates the sentences it was given. paragraph is the
// 1-based paragraph number within the chapter.
type Transformer interface {
	Transform(in []events.Sentence, paragraph int) ([]events.Sentence, error)
}

// TransformerFunc adapts a function to a Transformer.
type TransformerFunc func(in []events.Sentence, paragraph int) ([]events.Sentence, error)

func (f TransformerFunc) Transform(in []events.Sentence, paragraph int) ([]events.Sentence, error) {
	return f(in, paragraph)
}

// DefaultChain returns the rewrite passes in the order they must run.
// UsePronouns is last so the earlier passes can match canonical templates.
func DefaultChain() []Transformer {
	return []Transformer{
		MadeTheirWay{},
		Deduplicate{},
		Aggregate{},
		DetectWandering{},
		UsePronouns{},
	}
}

// Friffery returns the decorative passes, to run after DefaultChain.
func Friffery(sky Sky, rng *rand.Rand) []Transformer {
	return []Transformer{
		NewWeatherFriffery(sky, rng),
		NewParagraphStartFriffery(rng),
	}
}

func lastEvent(out []events.Sentence) (*events.Event, bool) {
	if len(out) == 0 {
		return nil, false
	}
	e, ok := out[len(out)-1].(*events.Event)
	return e, ok
}

// =============================================================================
// MadeTheirWay
// =============================================================================

// MadeTheirWay collapses consecutive trips by one character:
// "Bob went to the kitchen. Bob went to the garden." becomes
// "Bob made his way to the garden."
type MadeTheirWay struct{}

func (MadeTheirWay) Transform(in []events.Sentence, _ int) ([]events.Sentence, error) {
	out := make([]events.Sentence, 0, len(in))
	for _, s := range in {
		prev, okPrev := lastEvent(out)
		cur, okCur := s.(*events.Event)
		if okPrev && okCur &&
			events.SameEntity(prev.Initiator(), cur.Initiator()) &&
			(prev.Phrase() == events.PhraseWentTo || prev.Phrase() == events.PhraseMadeWay) &&
			cur.Phrase() == events.PhraseWentTo {
			merged, err := prev.ContinueJourney(cur)
			if err != nil {
				return nil, err
			}
			out[len(out)-1] = merged
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// =============================================================================
// Deduplicate
// =============================================================================

// Deduplicate folds verbatim repeats into "..., twice" and then
// "..., several times". Two different entities sharing a name would be
// folded too.
type Deduplicate struct{}

func (Deduplicate) Transform(in []events.Sentence, _ int) ([]events.Sentence, error) {
	out := make([]events.Sentence, 0, len(in))
	for _, s := range in {
		if len(out) == 0 {
			out = append(out, s)
			continue
		}
		last := out[len(out)-1]
		previous := last.String()

		if s.String() == previous {
			twice, err := last.Rephrase(s.Phrase() + ", twice")
			if err != nil {
				return nil, err
			}
			out[len(out)-1] = twice
			continue
		}

		twice, err := s.Rephrase(s.Phrase() + ", twice")
		if err != nil {
			return nil, err
		}
		if twice.String() == previous {
			several, err := last.Rephrase(s.Phrase() + ", several times")
			if err != nil {
				return nil, err
			}
			out[len(out)-1] = several
			continue
		}

		several, err := s.Rephrase(s.Phrase() + ", several times")
		if err != nil {
			return nil, err
		}
		if several.String() == previous {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// =============================================================================
// Aggregate
// =============================================================================

// Aggregate joins a trip and what was seen on arrival:
// "Bob went to the kitchen. Bob saw the toaster." becomes
// "Bob went to the kitchen, where he saw the toaster."
type Aggregate struct{}

func (Aggregate) Transform(in []events.Sentence, _ int) ([]events.Sentence, error) {
	out := make([]events.Sentence, 0, len(in))
	for _, s := range in {
		prev, okPrev := lastEvent(out)
		cur, okCur := s.(*events.Event)
		if okPrev && okCur &&
			events.SameEntity(prev.Initiator(), cur.Initiator()) &&
			prev.Phrase() == events.PhraseWentTo &&
			cur.Phrase() == events.PhraseSaw {
			saw, err := cur.WithPhrase(events.LeadingPronoun(cur.Phrase()))
			if err != nil {
				return nil, err
			}
			joined, err := events.NewComposite("%s, where %s", []*events.Event{prev, saw}, cur.Exclaimed())
			if err != nil {
				return nil, err
			}
			out[len(out)-1] = joined
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// =============================================================================
// DetectWandering
// =============================================================================

// DetectWandering rewords a journey that ended where it began.
type DetectWandering struct{}

func (DetectWandering) Transform(in []events.Sentence, _ int) ([]events.Sentence, error) {
	out := make([]events.Sentence, 0, len(in))
	for _, s := range in {
		if s.Phrase() == events.PhraseMadeWay && s.PreviousLocation() != nil &&
			events.SameEntity(s.Location(), s.PreviousLocation()) {
			wandered, err := s.Rephrase(events.PhraseWandered)
			if err != nil {
				return nil, err
			}
			s = wandered
		}
		out = append(out, s)
	}
	return out, nil
}

// =============================================================================
// UsePronouns
// =============================================================================

// UsePronouns replaces the leading name of a sentence with a pronoun when
// the previous sentence had the same initiator.
type UsePronouns struct{}

func (UsePronouns) Transform(in []events.Sentence, _ int) ([]events.Sentence, error) {
	out := make([]events.Sentence, 0, len(in))
	for _, s := range in {
		if n := len(out); n > 0 && events.SameEntity(s.Initiator(), out[n-1].Initiator()) {
			if phrase := events.LeadingPronoun(s.Phrase()); phrase != s.Phrase() {
				r, err := s.Rephrase(phrase)
				if err != nil {
					return nil, err
				}
				s = r
			}
		}
		out = append(out, s)
	}
	return out, nil
}

// =============================================================================
// Friffery
// =============================================================================

// Sky supplies the weather line that opens a chapter.
type Sky interface {
	Entity() events.Entity
	Outlook(rng *rand.Rand) string
}

// WeatherFriffery opens the first paragraph with a line about the weather.
type WeatherFriffery struct {
	sky Sky
	rng *rand.Rand
}

func NewWeatherFriffery(sky Sky, rng *rand.Rand) *WeatherFriffery {
	return &WeatherFriffery{sky: sky, rng: rng}
}

func (t *WeatherFriffery) Transform(in []events.Sentence, paragraph int) ([]events.Sentence, error) {
	if paragraph != 1 {
		return in, nil
	}
	weather, err := events.New(t.sky.Outlook(t.rng), []events.Entity{t.sky.Entity()})
	if err != nil {
		return nil, err
	}
	return append([]events.Sentence{weather}, in...), nil
}

var openers = []string{
	"Later on, ",
	"Suddenly, ",
	"After a moment's consideration, ",
	"Feeling anxious, ",
}

// ParagraphStartFriffery sometimes opens a paragraph with an adverbial
// clause. Dialogue and catch-up sentences are left alone.
type ParagraphStartFriffery struct {
	rng     *rand.Rand
	catchUp *diction.Scanner
}

func NewParagraphStartFriffery(rng *rand.Rand) *ParagraphStartFriffery {
	return &ParagraphStartFriffery{
		rng:     rng,
		catchUp: diction.NewScanner(" had found ", " was in ", " were in "),
	}
}

func (t *ParagraphStartFriffery) Transform(in []events.Sentence, paragraph int) ([]events.Sentence, error) {
	if paragraph == 1 || len(in) == 0 {
		return in, nil
	}
	first := in[0]
	text := first.String()
	if strings.HasPrefix(text, "'") || strings.HasPrefix(text, "\"") || t.catchUp.Contains(text) {
		return in, nil
	}
	choice := t.rng.Intn(9)
	if choice >= len(openers) {
		return in, nil
	}
	opened, err := first.Rephrase(openers[choice] + first.Phrase())
	if err != nil {
		return nil, err
	}
	out := make([]events.Sentence, 0, len(in))
	out = append(out, opened)
	return append(out, in[1:]...), nil
}
