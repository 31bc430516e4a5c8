package booking

import "fmt"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal is true for COMPLETED, CANCELLED and anything unrecognised.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("booking: invalid status %q", raw)
	}
	return s, nil
}

// PaymentStatus tracks the out-of-band payment between student and tutor.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING_PAYMENT"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentConfirmed PaymentStatus = "CONFIRMED"
)

func (p PaymentStatus) next() PaymentStatus {
	switch p {
	case PaymentPending:
		return PaymentPaid
	case PaymentPaid:
		return PaymentConfirmed
	}
	return ""
}

func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	switch p := PaymentStatus(raw); p {
	case PaymentPending, PaymentPaid, PaymentConfirmed:
		return p, nil
	case "":
		return PaymentPending, nil
	}
	return "", fmt.Errorf("booking: invalid payment status %q", raw)
}
