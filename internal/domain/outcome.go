package domain

// Outcome reports how a domain operation ended when the result is an expected
// business case rather than a failure.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeNotFound Outcome = "not_found"
	// OutcomeRejected: the entity exists but its state forbids the operation
	// (no copy available, nothing to return, loan already returned).
	OutcomeRejected Outcome = "rejected"
)

func (o Outcome) OK() bool { return o == OutcomeOK }

func (o Outcome) String() string { return string(o) }
