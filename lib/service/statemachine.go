package service

import (
	"strings"
)

// Status is the closed set of payment states. Gateway-provided strings
// are parsed at the boundary, anything unrecognized maps to
// StatusUnknown and is never applied.
type Status string

const (
	StatusCreated       Status = "created"
	StatusWaiting       Status = "waiting"
	StatusConfirming    Status = "confirming"
	StatusConfirmed     Status = "confirmed"
	StatusPartiallyPaid Status = "partially_paid"
	StatusFinished      Status = "finished"
	StatusFailed        Status = "failed"
	StatusExpired       Status = "expired"
	StatusRefunded      Status = "refunded"
	StatusUnknown       Status = "unknown"
)

func ParseStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusCreated:
		return StatusCreated
	case StatusWaiting:
		return StatusWaiting
	case StatusConfirming:
		return StatusConfirming
	case StatusConfirmed:
		return StatusConfirmed
	case StatusPartiallyPaid:
		return StatusPartiallyPaid
	case StatusFinished:
		return StatusFinished
	case StatusFailed:
		return StatusFailed
	case StatusExpired:
		return StatusExpired
	case StatusRefunded:
		return StatusRefunded
	}
	return StatusUnknown
}

// Direct edges of the payment lifecycle. A reported status is legal
// when it is reachable from the current one over these edges, so
// webhooks that skip intermediate states (waiting straight to
// finished) still apply, while backward transitions never do.
//
// Deposit creation has one path outside this graph: when the gateway
// rejects the invoice request, the record goes from created straight
// to failed. That record never had an invoice, so no webhook or sweep
// can ever touch it again.
var statusEdges = map[Status][]Status{
	StatusCreated:       {StatusWaiting},
	StatusWaiting:       {StatusConfirming, StatusFailed, StatusExpired},
	StatusConfirming:    {StatusConfirmed, StatusPartiallyPaid, StatusFailed},
	StatusConfirmed:     {StatusFinished},
	StatusPartiallyPaid: {StatusFinished},
	StatusFinished:      {StatusRefunded},
}

// IsTerminal reports whether a status ends the lifecycle. Terminal
// payments are excluded from reconciliation sweeps and kept for audit.
// finished still has the refund edge but does not get swept.
func IsTerminal(s Status) bool {
	switch s {
	case StatusFinished, StatusFailed, StatusExpired, StatusRefunded:
		return true
	}
	return false
}

func TerminalStatuses() []string {
	return []string{
		string(StatusFinished),
		string(StatusFailed),
		string(StatusExpired),
		string(StatusRefunded),
	}
}

func reachable(from, to Status) bool {
	for _, next := range statusEdges[from] {
		if next == to || reachable(next, to) {
			return true
		}
	}
	return false
}

type Outcome int

const (
	// OutcomeApply : legal forward transition, update the record
	OutcomeApply Outcome = iota
	// OutcomeDuplicate : reported status equals the current one, no-op
	OutcomeDuplicate
	// OutcomeIllegal : backward, unreachable or unrecognized status,
	// recorded in the history as ignored, never fatal
	OutcomeIllegal
)

type Decision struct {
	Outcome Outcome
	// Credit is set on the one transition that triggers the wallet
	// credit. The crediting point is final settlement, not confirmation.
	Credit bool
}

// Transition decides what to do with a reported status given the
// record's current status. Pure logic, no side effects.
func Transition(current, reported Status) Decision {
	if reported == StatusUnknown {
		return Decision{Outcome: OutcomeIllegal}
	}
	if reported == current {
		return Decision{Outcome: OutcomeDuplicate}
	}
	if !reachable(current, reported) {
		return Decision{Outcome: OutcomeIllegal}
	}
	return Decision{
		Outcome: OutcomeApply,
		Credit:  reported == StatusFinished,
	}
}
