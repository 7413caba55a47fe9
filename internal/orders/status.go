package orders

import "sort"

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

var validNextStatus = map[Status]map[Status]bool{
	StatusPending:   {StatusPaid: true, StatusCancelled: true},
	StatusPaid:      {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed: {StatusCancelled: true},
	StatusCancelled: {},
}

// paymentStatus is forward-only: success is terminal, failed may still
// move to success on a late success signal.
var validNextPayment = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending: {PaymentSuccess: true, PaymentFailed: true},
	PaymentFailed:  {PaymentSuccess: true},
	PaymentSuccess: {},
}

func CanTransition(from, to Status) bool {
	return validNextStatus[from][to]
}

func CanTransitionPayment(from, to PaymentStatus) bool {
	return validNextPayment[from][to]
}

// IsTerminal reports whether a status has no outgoing transitions.
func IsTerminal(s Status) bool {
	return len(validNextStatus[s]) == 0
}

// StatusesAllowing lists the statuses from which to is directly reachable.
// Store guards are derived from this so the transition table stays the
// single source of the legal-transition set.
func StatusesAllowing(to Status) []Status {
	var out []Status
	for from, next := range validNextStatus {
		if next[to] {
			out = append(out, from)
		}
	}
	sortStatuses(out)
	return out
}

func PaymentStatusesAllowing(to PaymentStatus) []PaymentStatus {
	var out []PaymentStatus
	for from, next := range validNextPayment {
		if next[to] {
			out = append(out, from)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func NonTerminalStatuses() []Status {
	var out []Status
	for s, next := range validNextStatus {
		if len(next) > 0 {
			out = append(out, s)
		}
	}
	sortStatuses(out)
	return out
}

func sortStatuses(ss []Status) {
	sort.Slice(ss, func(i, j int) bool { return ss[i] < ss[j] })
}
