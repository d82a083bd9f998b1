package doc

import (
	"log/slog"
	"math"
)

// GroupLayers reparents the named top-level layers into a new group layer
// and returns the group id. Pushes history.
//
// Members keep their absolute visual position: the group origin is the
// bounding-box origin of the members, and each child's coordinates are
// translated into the group's local space. Members are taken in frame
// z-order regardless of the order ids are given in, and the group is
// inserted at the z-position of the bottom-most member.
//
// Ownership is exclusive: after grouping, the member ids exist only as
// children of the group, never also at top level.
func (s *Store) GroupLayers(frameID string, ids []string) (string, error) {
	s.mu.Lock()
	fi := s.frameIndex(frameID)
	if fi < 0 {
		s.mu.Unlock()
		return "", NewFrameNotFound(frameID)
	}
	if len(ids) == 0 {
		s.mu.Unlock()
		return "", &ModelError{
			Code:    ErrCodeEmptyGroup,
			Message: "group requires at least one layer",
			FrameID: frameID,
		}
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		li := layerIndex(&s.frames[fi], id)
		if li < 0 {
			s.mu.Unlock()
			return "", NewLayerNotFound(frameID, id)
		}
		// Groups are single-level: a group can never be a member of
		// another group.
		if s.frames[fi].Layers[li].Kind == KindGroup {
			s.mu.Unlock()
			return "", &ModelError{
				Code:    ErrCodeNestedGroup,
				Message: "group members must not be groups",
				FrameID: frameID,
				LayerID: id,
			}
		}
		want[id] = true
	}

	s.hist.Push(s.frames)

	frame := &s.frames[fi]
	insertAt := -1
	var members, rest []Layer
	for i, l := range frame.Layers {
		if want[l.ID] {
			if insertAt < 0 {
				insertAt = i - len(members)
			}
			members = append(members, l)
		} else {
			rest = append(rest, frame.Layers[i])
		}
	}

	originX, originY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, m := range members {
		originX = math.Min(originX, m.X)
		originY = math.Min(originY, m.Y)
		maxX = math.Max(maxX, m.X+m.Width)
		maxY = math.Max(maxY, m.Y+m.Height)
	}
	for i := range members {
		members[i].X -= originX
		members[i].Y -= originY
	}

	group := Layer{
		ID:       s.idgen.Generate(),
		Name:     "Group",
		Kind:     KindGroup,
		Visible:  true,
		Opacity:  DefaultOpacity,
		X:        originX,
		Y:        originY,
		Width:    maxX - originX,
		Height:   maxY - originY,
		ScaleX:   1,
		ScaleY:   1,
		Children: members,
	}

	frame.Layers = append(rest[:insertAt:insertAt], append([]Layer{group}, rest[insertAt:]...)...)
	s.sanitizeSelection()
	slog.Debug("layers grouped", "frame", frameID, "group", group.ID, "members", len(members))
	s.mu.Unlock()

	s.notify()
	return group.ID, nil
}

// UngroupLayers dissolves a group, reparenting its children back to the
// frame at the group's z-position. Pushes history.
//
// Child coordinates are translated out of the group's local space so
// every layer keeps its absolute visual position - grouping followed by
// ungrouping is a coordinate round-trip.
func (s *Store) UngroupLayers(frameID, groupID string) error {
	s.mu.Lock()
	fi := s.frameIndex(frameID)
	if fi < 0 {
		s.mu.Unlock()
		return NewFrameNotFound(frameID)
	}
	frame := &s.frames[fi]
	gi := layerIndex(frame, groupID)
	if gi < 0 {
		s.mu.Unlock()
		return NewGroupNotFound(frameID, groupID)
	}
	group := frame.Layers[gi]
	if group.Kind != KindGroup {
		s.mu.Unlock()
		return &ModelError{
			Code:    ErrCodeNotAGroup,
			Message: "layer is not a group",
			FrameID: frameID,
			LayerID: groupID,
		}
	}

	s.hist.Push(s.frames)

	children := group.Children
	for i := range children {
		children[i].X += group.X
		children[i].Y += group.Y
	}

	layers := make([]Layer, 0, len(frame.Layers)-1+len(children))
	layers = append(layers, frame.Layers[:gi]...)
	layers = append(layers, children...)
	layers = append(layers, frame.Layers[gi+1:]...)
	frame.Layers = layers
	s.sanitizeSelection()
	slog.Debug("group dissolved", "frame", frameID, "group", groupID, "children", len(children))
	s.mu.Unlock()

	s.notify()
	return nil
}
