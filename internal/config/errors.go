package config

import "fmt"

// ValidationError reports a field that is missing, malformed, or placed in a
// descriptor layer where it is structurally forbidden. It is raised before
// any build starts; a run with an invalid plan never partially executes.
type ValidationError struct {
	Service string
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("service %q: invalid %s: %s", e.Service, e.Field, e.Reason)
}
