package core

// ValidationError reports malformed request input, detected before any store
// access. The HTTP layer maps it to a 400 response.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// ReportError names the combined-report section whose sub-query failed.
// A single failed section fails the whole report.
type ReportError struct {
	Section string
	Err     error
}

func (e *ReportError) Error() string {
	return "report section " + e.Section + ": " + e.Err.Error()
}

func (e *ReportError) Unwrap() error {
	return e.Err
}
