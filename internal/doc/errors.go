package doc

import (
	"errors"
	"fmt"
)

// ModelError represents an integrity violation detected by a Store action:
// a caller referenced a frame or layer that does not exist, or attempted a
// structurally invalid mutation.
//
// Model errors are always returned synchronously and never swallowed -
// they indicate a caller or reconciliation bug, not a transient condition.
type ModelError struct {
	// Code identifies the error category.
	Code ModelErrorCode

	// Message is a human-readable description.
	Message string

	// FrameID identifies the frame involved, if any.
	FrameID string

	// LayerID identifies the layer involved, if any.
	LayerID string
}

// ModelErrorCode categorizes model integrity errors.
type ModelErrorCode string

const (
	// ErrCodeFrameNotFound indicates a referenced frame id does not exist.
	ErrCodeFrameNotFound ModelErrorCode = "FRAME_NOT_FOUND"

	// ErrCodeLayerNotFound indicates a referenced layer id does not exist
	// in the given frame.
	ErrCodeLayerNotFound ModelErrorCode = "LAYER_NOT_FOUND"

	// ErrCodeDuplicateLayer indicates an insert would duplicate a layer id
	// within a frame.
	ErrCodeDuplicateLayer ModelErrorCode = "DUPLICATE_LAYER"

	// ErrCodeInvalidReorder indicates a reorder list is not a permutation
	// of the frame's current top-level layer ids.
	ErrCodeInvalidReorder ModelErrorCode = "INVALID_REORDER"

	// ErrCodeGroupNotFound indicates a referenced group id does not exist
	// in the given frame.
	ErrCodeGroupNotFound ModelErrorCode = "GROUP_NOT_FOUND"

	// ErrCodeNotAGroup indicates an ungroup target is not a group layer.
	ErrCodeNotAGroup ModelErrorCode = "NOT_A_GROUP"

	// ErrCodeEmptyGroup indicates a group request named no layers.
	ErrCodeEmptyGroup ModelErrorCode = "EMPTY_GROUP"

	// ErrCodeNestedGroup indicates a group request named a layer that is
	// itself a group. Groups are single-level.
	ErrCodeNestedGroup ModelErrorCode = "NESTED_GROUP"
)

// Error implements the error interface.
func (e *ModelError) Error() string {
	switch {
	case e.FrameID != "" && e.LayerID != "":
		return fmt.Sprintf("%s: %s (frame=%s, layer=%s)", e.Code, e.Message, e.FrameID, e.LayerID)
	case e.FrameID != "":
		return fmt.Sprintf("%s: %s (frame=%s)", e.Code, e.Message, e.FrameID)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsNotFound returns true if the error is a missing-frame or missing-layer
// integrity error. Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var me *ModelError
	if errors.As(err, &me) {
		switch me.Code {
		case ErrCodeFrameNotFound, ErrCodeLayerNotFound, ErrCodeGroupNotFound:
			return true
		}
	}
	return false
}

// NewFrameNotFound creates a ModelError for a missing frame.
func NewFrameNotFound(frameID string) *ModelError {
	return &ModelError{
		Code:    ErrCodeFrameNotFound,
		Message: "frame does not exist",
		FrameID: frameID,
	}
}

// NewLayerNotFound creates a ModelError for a missing layer.
func NewLayerNotFound(frameID, layerID string) *ModelError {
	return &ModelError{
		Code:    ErrCodeLayerNotFound,
		Message: "layer does not exist in frame",
		FrameID: frameID,
		LayerID: layerID,
	}
}

// NewGroupNotFound creates a ModelError for a missing group.
func NewGroupNotFound(frameID, groupID string) *ModelError {
	return &ModelError{
		Code:    ErrCodeGroupNotFound,
		Message: "group does not exist in frame",
		FrameID: frameID,
		LayerID: groupID,
	}
}
