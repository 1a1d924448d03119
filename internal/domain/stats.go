package domain

import "time"

// Outcome is the result of distributing a single batch.
type Outcome int

const (
	OutcomeStored Outcome = iota
	OutcomeFailureRecorded
	OutcomeDuplicate
	OutcomeRejected
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStored:
		return "stored"
	case OutcomeFailureRecorded:
		return "failure_recorded"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeRejected:
		return "rejected"
	default:
		return "error"
	}
}

// DistributeStats holds statistics about one distribute call.
type DistributeStats struct {
	Received   int
	Stored     int
	Failures   int
	Duplicates int
	Rejected   int
	Errors     int
	Duration   time.Duration
}

// Add records one outcome.
func (s *DistributeStats) Add(o Outcome) {
	switch o {
	case OutcomeStored:
		s.Stored++
	case OutcomeFailureRecorded:
		s.Failures++
	case OutcomeDuplicate:
		s.Duplicates++
	case OutcomeRejected:
		s.Rejected++
	default:
		s.Errors++
	}
}
