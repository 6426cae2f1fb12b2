package models

import "errors"

// Severity tells the boundary layer whose fault an error is without tying the
// core to any transport's status codes.
type Severity int

const (
	SeverityBackend Severity = iota
	SeverityClient
)

func (s Severity) String() string {
	if s == SeverityClient {
		return "client"
	}
	return "backend"
}

// SeverityOf walks the error chain for the first error that reports a
// severity. Errors that do not are backend errors.
func SeverityOf(err error) Severity {
	var s interface{ Severity() Severity }
	if errors.As(err, &s) {
		return s.Severity()
	}
	return SeverityBackend
}
