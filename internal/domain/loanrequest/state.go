package loanrequest

import (
	"time"

	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/fault"
)

// transitions is the loan request state machine. Statuses only ever move
// forward through it; anything else is a state_conflict.
var transitions = map[string][]string{
	StatusPending:   {StatusPartial, StatusFulfilled, StatusCancelled},
	StatusPartial:   {StatusFulfilled, StatusCancelled},
	StatusFulfilled: {StatusActive},
	StatusActive:    {StatusCompleted, StatusDefaulted},
}

func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextFundingStatus derives the status implied by a funded accumulator:
// untouched requests are pending, partially funded ones partial, and an
// exact fill is fulfilled. Funding beyond the requested amount is never
// valid and must be rejected before this is called.
func NextFundingStatus(requestedMinor, fundedMinor int64) string {
	switch {
	case fundedMinor <= 0:
		return StatusPending
	case fundedMinor < requestedMinor:
		return StatusPartial
	default:
		return StatusFulfilled
	}
}

// ValidateContribution checks whether a split of amountMinor can be accepted
// against the request right now. Contributions that would overshoot the
// remaining capacity are rejected outright, never clamped: the final split
// must land the accumulator exactly on the requested amount.
func ValidateContribution(req *Entity, amountMinor int64, now time.Time) error {
	if req.Status != StatusPending && req.Status != StatusPartial {
		return fault.New(fault.StateConflict, "request is "+req.Status)
	}
	if !now.Before(req.ExpiresAt) {
		return fault.New(fault.StateConflict, "request has expired")
	}
	if amountMinor <= 0 {
		return fault.New(fault.InvalidAmount, "contribution must be positive")
	}
	if amountMinor > req.RemainingMinor() {
		return fault.New(fault.InvalidAmount, "contribution exceeds remaining capacity")
	}
	return nil
}

// CanCancel reports whether a request may still be cancelled: only before it
// is fully funded.
func CanCancel(req *Entity) error {
	if req.Status != StatusPending && req.Status != StatusPartial {
		return fault.New(fault.StateConflict, "request is "+req.Status)
	}
	if req.AmountFundedMinor >= req.AmountMinor {
		return fault.New(fault.StateConflict, "request is fully funded")
	}
	return nil
}
