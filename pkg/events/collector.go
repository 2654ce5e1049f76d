package events

import "fmt"

// Collector is the ordered, append-only store the world simulation emits
// into. It refuses streams that make no narrative progress.
type Collector struct {
	events []*Event
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Collect appends e, or fails with ErrStreamInvariant when e repeats the
// previous event verbatim or is a location change without a distinct
// previous location.
func (c *Collector) Collect(e *Event) error {
	if e == nil {
		return fmt.Errorf("%w: nil event", ErrContract)
	}
	if n := len(c.events); n > 0 {
		if text := e.String(); text == c.events[n-1].String() {
			return fmt.Errorf("%w: duplicate event: %s", ErrStreamInvariant, text)
		}
	}
	if e.Phrase() == PhraseWentTo {
		if e.PreviousLocation() == nil {
			return fmt.Errorf("%w: %s has no previous location", ErrStreamInvariant, e)
		}
		if SameEntity(e.PreviousLocation(), e.Location()) {
			return fmt.Errorf("%w: %s starts where it ends", ErrStreamInvariant, e)
		}
	}
	c.events = append(c.events, e)
	return nil
}

// Events returns the collected events, oldest first.
func (c *Collector) Events() []*Event {
	return append([]*Event(nil), c.events...)
}

// Len returns the number of collected events.
func (c *Collector) Len() int {
	return len(c.events)
}
