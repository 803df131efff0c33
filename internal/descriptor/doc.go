// Package descriptor loads and validates the on-disk HCL form of service
// descriptors, version manifests, platform manifests, and the repository
// configuration, translating them into the format-agnostic model defined by
// the `config` package.
//
// The store never returns partial data: a document either loads completely
// or fails with a typed error. Absent manifests are a normal condition
// reported as NotFoundError so callers can distinguish "service has no
// manifest" from real failures.
package descriptor
