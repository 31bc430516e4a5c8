package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"skillbridge/internal/app/bus"
	"skillbridge/internal/app/failure"
)

// IdempotentMessage is implemented by messages whose first outcome must be
// replayed for repeated deliveries of the same key.
type IdempotentMessage interface {
	bus.Message
	IdempotencyKey() string
	ResultPrototype() any // pointer matching the handler result type
}

type IdempotencyRecord struct {
	Key        string
	Payload    []byte
	Error      string
	ErrorKind  string
	OccurredAt time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

var errMissingPrototype = errors.New("middleware: idempotent message requires result prototype")

// Idempotency stores the outcome of IdempotentMessage dispatches under their
// key. Only failures that carry a domain kind are remembered; storage and
// unexpected errors stay retryable.
func Idempotency(store IdempotencyStore, codec ResultCodec) Middleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next bus.Bus) bus.Bus {
		return busFunc(func(ctx context.Context, msg bus.Message) (any, error) {
			idMsg, ok := msg.(IdempotentMessage)
			if !ok || idMsg.IdempotencyKey() == "" {
				return next.Dispatch(ctx, msg)
			}
			key := idMsg.Key() + ":" + idMsg.IdempotencyKey()
			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found {
				return replay(rec, idMsg, codec)
			}
			result, err := next.Dispatch(ctx, msg)
			record := IdempotencyRecord{Key: key, OccurredAt: time.Now().UTC()}
			if err != nil {
				kind := failure.KindOf(err)
				if kind == "" || kind == failure.KindPersistence {
					return nil, err
				}
				record.Error = err.Error()
				record.ErrorKind = string(kind)
				if saveErr := store.Save(ctx, record); saveErr != nil {
					return nil, errors.Join(err, saveErr)
				}
				return nil, err
			}
			if result != nil {
				payload, encErr := codec.Encode(result)
				if encErr != nil {
					return nil, encErr
				}
				record.Payload = payload
			}
			if saveErr := store.Save(ctx, record); saveErr != nil {
				return nil, saveErr
			}
			return result, nil
		})
	}
}

func replay(rec IdempotencyRecord, msg IdempotentMessage, codec ResultCodec) (any, error) {
	if rec.Error != "" {
		return nil, failure.New(failure.Kind(rec.ErrorKind), msg.Key(), errors.New(rec.Error))
	}
	if len(rec.Payload) == 0 {
		return nil, nil
	}
	proto := msg.ResultPrototype()
	if proto == nil {
		return nil, errMissingPrototype
	}
	if err := codec.Decode(rec.Payload, proto); err != nil {
		return nil, err
	}
	return proto, nil
}
