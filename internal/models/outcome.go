package models

import (
	"database/sql"
	"fmt"
)

// Outcome is the tri-state result of an auth attempt as recorded by the
// honeypot. The stored flag is nullable, so Unknown is a real state.
type Outcome int8

const (
	OutcomeUnknown Outcome = iota
	OutcomeFailure
	OutcomeSuccess
)

// ClassifyOutcome maps a stored success flag onto an Outcome. Null is Unknown,
// zero is Failure and every other value is Success.
func ClassifyOutcome(raw sql.NullInt64) Outcome {
	switch {
	case !raw.Valid:
		return OutcomeUnknown
	case raw.Int64 == 0:
		return OutcomeFailure
	default:
		return OutcomeSuccess
	}
}

// Raw returns the canonical stored form of o.
func (o Outcome) Raw() sql.NullInt64 {
	switch o {
	case OutcomeSuccess:
		return sql.NullInt64{Int64: 1, Valid: true}
	case OutcomeFailure:
		return sql.NullInt64{Int64: 0, Valid: true}
	default:
		return sql.NullInt64{}
	}
}

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(text []byte) error {
	switch string(text) {
	case "success":
		*o = OutcomeSuccess
	case "failure":
		*o = OutcomeFailure
	case "unknown":
		*o = OutcomeUnknown
	default:
		return fmt.Errorf("unknown outcome %q", string(text))
	}
	return nil
}
