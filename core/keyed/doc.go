// Package keyed provides per-key serialization primitives: a mutex that only
// blocks callers sharing a key, and a sequencer that runs submitted work for a
// key strictly in submission order while different keys run concurrently.
package keyed
