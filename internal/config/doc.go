// Package config defines the format-agnostic descriptor model for services,
// version manifests, and platform manifests, along with the Config Resolver
// that merges descriptor layers into the effective configuration for one
// build node.
//
// The model is the single source of truth for the `dag`, `hashdef`, and
// `orchestrator` packages. Loading and validating the on-disk HCL form is
// the job of the `descriptor` package.
package config
