package domain

// Status is the local lifecycle state of a ChargeRecord.
type Status string

const (
	StatusPending         Status = "pending"
	StatusAuthorized      Status = "authorized"
	StatusCaptured        Status = "captured"
	StatusCaptureDeclined Status = "capture_declined"
	StatusCanceled        Status = "canceled"
	StatusRefundInitiated Status = "refund_initiated"
	StatusRefunded        Status = "refunded"
	StatusRefundDeclined  Status = "refund_declined"
)

// rule describes how a charge enters a target status: the set of valid
// predecessor states and the timestamp column stamped on first entry.
type rule struct {
	from  []Status
	stamp string
}

// transitions is the whole state machine. A transition whose current
// status is not a listed predecessor is a silent no-op, which makes every
// transition safe to issue redundantly from racing triggers.
var transitions = map[Status]rule{
	StatusAuthorized:      {from: []Status{StatusPending}, stamp: "authorized_at"},
	StatusCaptured:        {from: []Status{StatusPending, StatusAuthorized}, stamp: "captured_at"},
	StatusCaptureDeclined: {from: []Status{StatusAuthorized}, stamp: "capture_declined_at"},
	StatusCanceled:        {from: []Status{StatusAuthorized}, stamp: "canceled_at"},
	StatusRefundInitiated: {from: []Status{StatusCaptured}, stamp: "refund_initiated_at"},
	StatusRefunded:        {from: []Status{StatusRefundInitiated}, stamp: "refunded_at"},
	StatusRefundDeclined:  {from: []Status{StatusRefundInitiated}, stamp: "refund_declined_at"},
}

// Predecessors returns the states from which target is reachable. An
// unknown target has no predecessors.
func Predecessors(target Status) []Status {
	return transitions[target].from
}

// StampColumn returns the timestamp column recorded on first entry into
// target.
func StampColumn(target Status) string {
	return transitions[target].stamp
}

// MayTransition reports whether a charge in from may enter target.
func MayTransition(from, target Status) bool {
	for _, s := range transitions[target].from {
		if s == from {
			return true
		}
	}
	return false
}

// Settled reports whether the charge has left StatusPending, i.e. some
// trigger already decided its fate. The timeout worker skips settled
// charges.
func (s Status) Settled() bool {
	return s != StatusPending
}
