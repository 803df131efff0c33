package descriptor

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// NotFoundError reports an absent descriptor document. Version and platform
// manifests are optional, so callers inspect this error to tell a missing
// manifest apart from a broken one.
type NotFoundError struct {
	Service string
	Kind    string
	Path    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("service %q: no %s at %s", e.Service, e.Kind, e.Path)
}

// NotFound marks the error as a missing-document condition.
func (e *NotFoundError) NotFound() bool { return true }

// ParseError wraps HCL diagnostics produced while reading or decoding a
// descriptor document.
type ParseError struct {
	Path  string
	Diags hcl.Diagnostics
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %s", e.Path, e.Diags.Error())
}

func (e *ParseError) Unwrap() error { return e.Diags }
