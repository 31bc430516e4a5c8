package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Message is a command or query routed through the bus by its key.
type Message interface {
	Key() string
}

// Handler processes one message type and returns its result.
type Handler[M Message, R any] interface {
	Handle(ctx context.Context, msg M) (R, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc[M Message, R any] func(ctx context.Context, msg M) (R, error)

func (f HandlerFunc[M, R]) Handle(ctx context.Context, msg M) (R, error) {
	return f(ctx, msg)
}

type Bus interface {
	Dispatch(ctx context.Context, msg Message) (any, error)
}

var (
	ErrHandlerNotFound = errors.New("bus: handler not found")
	ErrInvalidMessage  = errors.New("bus: invalid message for handler")
	ErrResultType      = errors.New("bus: result type mismatch")
	ErrNilBus          = errors.New("bus: nil bus")
	ErrDuplicateKey    = errors.New("bus: handler already registered")
)

type rawHandler func(ctx context.Context, msg Message) (any, error)

// InMemory keeps the handler registry in a map.
type InMemory struct {
	mu       sync.RWMutex
	handlers map[string]rawHandler
}

func NewInMemory() *InMemory {
	return &InMemory{handlers: make(map[string]rawHandler)}
}

func (b *InMemory) Dispatch(ctx context.Context, msg Message) (any, error) {
	b.mu.RLock()
	h, ok := b.handlers[msg.Key()]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, msg.Key())
	}
	return h(ctx, msg)
}

func (b *InMemory) register(key string, h rawHandler) {
	if key == "" {
		panic("bus: empty key registration")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.handlers[key]; exists {
		panic(fmt.Sprintf("%v: %s", ErrDuplicateKey, key))
	}
	b.handlers[key] = h
}

// Register binds a typed handler to the key of the zero message value.
func Register[M Message, R any](b *InMemory, handler Handler[M, R]) {
	if b == nil {
		panic("bus: nil bus")
	}
	var zero M
	key := zero.Key()
	b.register(key, func(ctx context.Context, raw Message) (any, error) {
		msg, ok := raw.(M)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidMessage, key)
		}
		return handler.Handle(ctx, msg)
	})
}

// Dispatch sends msg through b and asserts the result type.
func Dispatch[M Message, R any](ctx context.Context, b Bus, msg M) (R, error) {
	var zero R
	if b == nil {
		return zero, ErrNilBus
	}
	res, err := b.Dispatch(ctx, msg)
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	value, ok := res.(R)
	if !ok {
		return zero, ErrResultType
	}
	return value, nil
}
