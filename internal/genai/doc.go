// Package genai is the provider-agnostic image generation pipeline:
// a uniform provider capability interface, an orchestrator that adds
// retry with exponential backoff, per-attempt timeouts, cancellation,
// and progress reporting, and HTTP-backed provider implementations.
//
// Generation results are wrapped into layer creation requests and
// committed to the document model through the normal patch path; the
// orchestrator itself never touches the model.
package genai
