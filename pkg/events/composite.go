package events

import (
	"fmt"
	"strings"
)

// Composite renders two or more events sharing an initiator as a single
// sentence, through a template with one %s per child.
type Composite struct {
	template string
	children []*Event
	excl     bool
}

// NewComposite joins children through template.
func NewComposite(template string, children []*Event, excl bool) (*Composite, error) {
	if len(children) < 2 {
		return nil, fmt.Errorf("%w: composite needs at least two events, got %d", ErrContract, len(children))
	}
	if n := strings.Count(template, "%s"); n != len(children) {
		return nil, fmt.Errorf("%w: template %q has %d slots for %d events", ErrContract, template, n, len(children))
	}
	initiator := children[0].Initiator()
	for _, child := range children[1:] {
		if !SameEntity(child.Initiator(), initiator) {
			return nil, fmt.Errorf("%w: composite %q mixes initiators", ErrContract, template)
		}
	}
	return &Composite{
		template: template,
		children: append([]*Event(nil), children...),
		excl:     excl,
	}, nil
}

// Children returns the constituent events in order.
func (c *Composite) Children() []*Event {
	return append([]*Event(nil), c.children...)
}

// Phrase returns the first child's template; the composite opens with it.
func (c *Composite) Phrase() string           { return c.children[0].Phrase() }
func (c *Composite) Participants() []Entity   { return c.children[0].Participants() }
func (c *Composite) Initiator() Entity        { return c.children[0].Initiator() }
func (c *Composite) Location() Entity         { return c.children[0].Location() }
func (c *Composite) PreviousLocation() Entity { return c.children[0].PreviousLocation() }
func (c *Composite) Exclaimed() bool          { return c.excl }

func (c *Composite) Exciting() bool {
	for _, child := range c.children {
		if child.Exciting() {
			return true
		}
	}
	return false
}

func (c *Composite) Render() string {
	parts := make([]any, len(c.children))
	for i, child := range c.children {
		parts[i] = child.Render()
	}
	return fmt.Sprintf(c.template, parts...)
}

func (c *Composite) String() string {
	return finish(c.Render(), c.excl)
}

// Rephrase rewrites the opening child.
func (c *Composite) Rephrase(phrase string) (Sentence, error) {
	first, err := c.children[0].WithPhrase(phrase)
	if err != nil {
		return nil, err
	}
	out := &Composite{
		template: c.template,
		children: c.Children(),
		excl:     c.excl,
	}
	out.children[0] = first
	return out, nil
}
