// Package filesystem provides implementations of types.FS: a direct OS
// implementation for real deployments and an afero-backed one for
// pure-logic tests.
package filesystem
