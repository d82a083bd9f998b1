// Package doc holds the authoritative document model: an ordered sequence
// of frames, each owning an ordered sequence of layers.
//
// The model is pure data plus a Store that owns all mutation. Rendering,
// selection picking, and generation are collaborators that read the model
// and commit changes exclusively through Store actions. Layer order within
// a frame is significant: it defines z-order.
package doc
