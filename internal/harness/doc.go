// Package harness runs declarative editor scenarios for conformance
// testing.
//
// A scenario is a YAML file describing a sequence of editor operations
// (frame/layer edits, gestures, grouping, undo/redo) plus assertions on
// the resulting document, selection, and canvas draw order. Scenarios
// run against a real document store and reconciler wired to the
// in-memory fake engine, with a fixed id generator so every run is
// byte-for-byte reproducible. Golden snapshots of the final state guard
// against behavioral drift.
package harness
