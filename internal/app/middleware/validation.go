package middleware

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"skillbridge/internal/app/bus"
	"skillbridge/internal/app/failure"
)

type Validator interface {
	Validate(ctx context.Context, message any) error
}

// StructValidator checks `validate` struct tags on messages.
type StructValidator struct {
	v *validator.Validate
}

func NewStructValidator() StructValidator {
	return StructValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate reports tag violations as INVALID_BOOKING failures.
func (s StructValidator) Validate(ctx context.Context, message any) error {
	err := s.v.StructCtx(ctx, message)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		op := ""
		if m, ok := message.(bus.Message); ok {
			op = m.Key()
		}
		return failure.New(failure.KindInvalidBooking, op, verrs)
	}
	return err
}

func Validation(v Validator) Middleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next bus.Bus) bus.Bus {
		return busFunc(func(ctx context.Context, msg bus.Message) (any, error) {
			if err := v.Validate(ctx, msg); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, msg)
		})
	}
}
