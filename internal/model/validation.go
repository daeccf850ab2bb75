package model

// ValidationError reports a single rejected input field.  The Field names
// the offending value and Reason is a short human-readable explanation that
// handlers may return to the caller verbatim.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// invalid is a small constructor shorthand used by the model validators.
func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
