package models

import "fmt"

// BookingStatus is the closed set of booking lifecycle states. Raw strings
// from persistence or API input must go through ParseBookingStatus so an
// unknown value can never leak into business logic.
type BookingStatus string

const (
	StatusPending     BookingStatus = "pending"
	StatusDepositWait BookingStatus = "deposit_wait"
	StatusConfirmed   BookingStatus = "confirmed"
	StatusCancelled   BookingStatus = "cancelled"
	StatusRejected    BookingStatus = "rejected"
)

func ParseBookingStatus(raw string) (BookingStatus, error) {
	switch s := BookingStatus(raw); s {
	case StatusPending, StatusDepositWait, StatusConfirmed, StatusCancelled, StatusRejected:
		return s, nil
	default:
		return "", fmt.Errorf("unknown booking status: %q", raw)
	}
}

// Active reports whether the booking occupies its slot on the calendar.
// Only deposit_wait and confirmed block other requests.
func (s BookingStatus) Active() bool {
	return s == StatusDepositWait || s == StatusConfirmed
}

// Terminal reports whether no further transition is possible.
func (s BookingStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusRejected
}

// CanTransitionTo encodes the lifecycle:
// pending -> deposit_wait | rejected | cancelled,
// deposit_wait -> confirmed | rejected | cancelled,
// confirmed -> cancelled (the only exit),
// cancelled / rejected -> nothing.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusDepositWait || next == StatusRejected || next == StatusCancelled
	case StatusDepositWait:
		return next == StatusConfirmed || next == StatusRejected || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCancelled
	case StatusCancelled, StatusRejected:
		return false
	default:
		return false
	}
}
