// Package template defines the engine-agnostic seam between the batch
// generator and concrete template engines. An Engine compiles template text
// once; the resulting Compiled value renders one row mapping at a time and is
// safe to reuse across rows.
package template
