// Package scene keeps the live canvas engine consistent with the
// document model.
//
// The canvas engine owns a mutable set of render objects with its own
// ideas about draw order and selection. The document model is
// authoritative; the reconciler diffs it against the live object set and
// applies minimal create/update/remove operations, rebuilding draw order
// from scratch on every pass. The selection bridge maps engine pick
// events onto model selection and back. The interaction controller
// mutates render objects directly during gestures for responsiveness and
// commits the result to the model on completion.
//
// Render objects are owned exclusively by the reconciler and the
// interaction controller. No other component may create, remove, or
// reorder them; the selection bridge only reads objects and sets the
// engine's active selection.
package scene
