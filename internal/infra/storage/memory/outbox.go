package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "vendorbook/internal/app/outbox"
	infraoutbox "vendorbook/internal/infra/outbox"
)

const (
	stateNew     = "NEW"
	stateClaimed = "CLAIMED"
	stateSent    = "SENT"
	stateFailed  = "FAILED"
)

type outboxEntry struct {
	msg   infraoutbox.Message
	state string
	next  time.Time
	err   string
}

// Outbox keeps event records in memory and serves them to the relay worker
// in insertion order.
type Outbox struct {
	mu      sync.Mutex
	entries []*outboxEntry
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries = append(o.entries, &outboxEntry{
		msg: infraoutbox.Message{
			ID:         record.ID,
			Name:       record.Name,
			Payload:    record.Payload,
			OccurredAt: record.OccurredAt,
			Aggregate:  record.Aggregate,
			Headers:    record.Headers,
		},
		state: stateNew,
		next:  time.Now().UTC(),
	})
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	return nil
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.Message, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now().UTC()
	for _, e := range o.entries {
		if (e.state == stateNew || e.state == stateFailed) && !e.next.After(now) {
			e.state = stateClaimed
			msg := e.msg
			return &msg, nil
		}
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e := o.find(id); e != nil {
		e.state = stateSent
	}
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e := o.find(id); e != nil {
		e.state = stateFailed
		e.next = next
		e.err = errMsg
		e.msg.Attempts++
	}
	return nil
}

// Records lists the stored events with their delivery state.
func (o *Outbox) Records() []OutboxRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]OutboxRecord, 0, len(o.entries))
	for _, e := range o.entries {
		out = append(out, OutboxRecord{Message: e.msg, State: e.state, LastError: e.err})
	}
	return out
}

type OutboxRecord struct {
	Message   infraoutbox.Message
	State     string
	LastError string
}

func (o *Outbox) find(id string) *outboxEntry {
	for _, e := range o.entries {
		if e.msg.ID == id {
			return e
		}
	}
	return nil
}

var (
	_ appoutbox.Outbox  = (*Outbox)(nil)
	_ infraoutbox.Store = (*Outbox)(nil)
)
