package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// PublishObserver is told about every publish attempt.
type PublishObserver interface {
	OutboxPublished(topic string, err error)
}

// Worker relays stored events to the broker as CloudEvents JSON.
type Worker struct {
	Store       Store
	Producer    Producer
	Observer    PublishObserver
	Logger      *slog.Logger
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
}

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drain(ctx); err != nil {
				if w.Logger != nil {
					w.Logger.Error("outbox relay failed", "worker", w.ID, "error", err)
				}
			}
		}
	}
}

// drain publishes due events until none is left or the store fails.
func (w *Worker) drain(ctx context.Context) error {
	for {
		done, err := w.ProcessOnce(ctx)
		if err != nil || done {
			return err
		}
	}
}

// ProcessOnce relays a single due event. done is true when nothing was due.
func (w *Worker) ProcessOnce(ctx context.Context) (done bool, err error) {
	ev, err := w.Store.Claim(ctx, w.workerID())
	if err != nil {
		return true, err
	}
	if ev == nil {
		return true, nil
	}
	topic := w.topicFor(ev.Name)
	payload, headers, err := w.formatPayload(ev)
	if err == nil {
		err = w.Producer.Publish(ctx, topic, ev.Aggregate, payload, headers)
	}
	if w.Observer != nil {
		w.Observer.OutboxPublished(topic, err)
	}
	if err != nil {
		if w.Logger != nil {
			w.Logger.Warn("outbox publish failed", "event", ev.Name, "id", ev.ID, "attempts", ev.Attempts, "error", err)
		}
		return false, w.Store.MarkFailed(ctx, ev.ID, w.nextRetry(ev.Attempts), err.Error())
	}
	return false, w.Store.MarkSent(ctx, ev.ID)
}

func (w *Worker) formatPayload(ev *Event) ([]byte, map[string]string, error) {
	data := map[string]any{}
	if err := json.Unmarshal(ev.Payload, &data); err != nil {
		return nil, nil, err
	}
	envelope := map[string]any{
		"specversion":     "1.0",
		"id":              ev.ID,
		"type":            ev.Name + ".v1",
		"source":          w.source(),
		"subject":         ev.Aggregate,
		"time":            ev.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := ev.Headers["traceparent"]; ok {
		envelope["traceparent"] = trace
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{"content-type": "application/cloudevents+json"}
	for k, v := range ev.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// topicFor maps "booking.confirmed" to "booking.events.v1".
func (w *Worker) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return w.TopicPrefix + base + ".events.v1"
}

func (w *Worker) workerID() string {
	if w.ID != "" {
		return w.ID
	}
	return "outbox-worker"
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) nextRetry(attempts int) time.Time {
	switch {
	case attempts < len(w.Backoff):
		return time.Now().Add(w.Backoff[attempts])
	case len(w.Backoff) > 0:
		return time.Now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return time.Now().Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://skillbridge"
}
