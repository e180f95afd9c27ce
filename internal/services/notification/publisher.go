package notification

import (
	"github.com/terminal-bench/triagedesk/internal/models"
)

// Publisher broadcasts events to observers. Publish must not block the caller
// and gives no delivery guarantee.
type Publisher interface {
	Publish(evt models.Event)
}

// PublisherFunc adapts a function to Publisher
type PublisherFunc func(evt models.Event)

// Publish calls f(evt)
func (f PublisherFunc) Publish(evt models.Event) {
	f(evt)
}

// Discard drops every event
var Discard Publisher = PublisherFunc(func(models.Event) {})

// Fanout publishes each event to every publisher, in order
type Fanout []Publisher

// Publish forwards evt to each publisher
func (f Fanout) Publish(evt models.Event) {
	for _, p := range f {
		p.Publish(evt)
	}
}
