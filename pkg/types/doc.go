// Package types contains the shared data model for the deployment engine:
// declared file entries, built generations, low-level filesystem operations
// and the interfaces collaborators plug into.
package types
