package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "skillbridge/internal/app/outbox"
	infraoutbox "skillbridge/internal/infra/outbox"
)

// Outbox queues records in memory. It satisfies both the application outbox
// and the worker store so the relay can run without Mongo.
type Outbox struct {
	mu      sync.Mutex
	records []*infraoutbox.Event
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, &infraoutbox.Event{
		ID:          record.ID,
		Name:        record.Name,
		Payload:     record.Payload,
		OccurredAt:  record.OccurredAt,
		Aggregate:   record.Aggregate,
		Headers:     record.Headers,
		State:       infraoutbox.StateNew,
		NextAttempt: time.Now().UTC(),
	})
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	return nil
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.Event, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now().UTC()
	for _, ev := range o.records {
		if (ev.State == infraoutbox.StateNew || ev.State == infraoutbox.StateFailed) && !ev.NextAttempt.After(now) {
			ev.State = infraoutbox.StateClaimed
			ev.ClaimedBy = workerID
			cp := *ev
			return &cp, nil
		}
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, ev := range o.records {
		if ev.ID == id {
			o.records = append(o.records[:i], o.records[i+1:]...)
			return nil
		}
	}
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, ev := range o.records {
		if ev.ID == id {
			ev.State = infraoutbox.StateFailed
			ev.NextAttempt = next
			ev.LastError = errMsg
			ev.Attempts++
		}
	}
	return nil
}

// Names lists the names of records not yet sent, in insertion order.
func (o *Outbox) Names() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.records))
	for _, ev := range o.records {
		out = append(out, ev.Name)
	}
	return out
}

var (
	_ appoutbox.Outbox  = (*Outbox)(nil)
	_ infraoutbox.Store = (*Outbox)(nil)
)
