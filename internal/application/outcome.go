package application

// OutcomeKind classifies what happened to one account within a batch
// operation.
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeSkipped OutcomeKind = "skipped"
	OutcomeFailed  OutcomeKind = "failed"
)

// Outcome is the per-account line of a batch report. Count is the number of
// profiles persisted and only meaningful for OutcomeSuccess.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
	Count  int
}

func skipped(reason string) Outcome { return Outcome{Kind: OutcomeSkipped, Reason: reason} }
func failed(reason string) Outcome  { return Outcome{Kind: OutcomeFailed, Reason: reason} }
func success(count int) Outcome     { return Outcome{Kind: OutcomeSuccess, Count: count} }
