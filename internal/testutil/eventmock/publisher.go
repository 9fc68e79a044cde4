package eventmock

import (
	"context"
	"sync"

	"lendledger/internal/domain/events"
)

var _ events.Publisher = (*Recorder)(nil)

// Recorder keeps every published event. Err, when set, is returned from Publish
// after the event is recorded.
type Recorder struct {
	mu     sync.Mutex
	Err    error
	events []events.Event
}

func (r *Recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.Err
}

func (r *Recorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

// Types returns the event types in publish order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}
