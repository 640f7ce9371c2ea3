package events

import (
	"context"
	"sync"

	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/ports"
)

// Recorder keeps published events in memory. The CLI uses it when Redis is not
// configured and prints what it collected.
type Recorder struct {
	mu     sync.Mutex
	events []domain.LedgerEvent
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, event domain.LedgerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []domain.LedgerEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.LedgerEvent(nil), r.events...)
}

// OfType filters the recorded events by type.
func (r *Recorder) OfType(eventType string) []domain.LedgerEvent {
	var out []domain.LedgerEvent
	for _, e := range r.Events() {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

var _ ports.EventPublisher = (*Recorder)(nil)
