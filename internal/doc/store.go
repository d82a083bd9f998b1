package doc

import (
	"log/slog"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/easelhq/easel/internal/history"
)

// Store is the single source of truth for the document. All mutation
// flows through its action methods; no collaborator mutates frames
// directly.
//
// Every committed mutation fires the registered change subscribers, which
// is how the scene reconciler learns that a pass is due. Subscribers are
// invoked after the store lock is released.
//
// Discrete structural actions (create/delete frame, create/delete layer,
// group/ungroup) push the pre-mutation snapshot onto the history store.
// Property updates, reorders, and selection changes do not: they are
// either continuous gestures or cheap to re-apply.
type Store struct {
	mu        sync.Mutex
	frames    []Frame
	selection Selection
	hist      *history.History[[]Frame]
	idgen     IDGenerator
	subs      []func()
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithHistoryCap overrides the undo/redo stack cap (default 50).
func WithHistoryCap(n int) StoreOption {
	return func(s *Store) {
		s.hist = history.New(CloneFrames, history.WithCap[[]Frame](n))
	}
}

// NewStore creates an empty document store.
//
// Tests construct isolated instances with a FixedGenerator; production
// code uses UUIDv7Generator. There is deliberately no package-level
// singleton.
func NewStore(idgen IDGenerator, opts ...StoreOption) *Store {
	s := &Store{
		hist:  history.New(CloneFrames),
		idgen: idgen,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers a subscriber invoked after every committed mutation.
// Subscribers run outside the store lock and may read the store freely.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) notify() {
	s.mu.Lock()
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// Frames returns a deep clone of the frame sequence in model order.
func (s *Store) Frames() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CloneFrames(s.frames)
}

// Frame returns a deep clone of the frame with the given id.
func (s *Store) Frame(id string) (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.frameIndex(id); i >= 0 {
		return CloneFrame(s.frames[i]), true
	}
	return Frame{}, false
}

// Layer returns a deep clone of a top-level layer within a frame.
func (s *Store) Layer(frameID, layerID string) (Layer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fi := s.frameIndex(frameID)
	if fi < 0 {
		return Layer{}, false
	}
	if li := layerIndex(&s.frames[fi], layerID); li >= 0 {
		return CloneLayer(s.frames[fi].Layers[li]), true
	}
	return Layer{}, false
}

// Selection returns a copy of the current selection state.
func (s *Store) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.selection
	sel.LayerIDs = append([]string(nil), s.selection.LayerIDs...)
	return sel
}

// AddFrame creates a frame from the preset and returns its id.
// Pushes history: frame creation is a discrete structural action.
func (s *Store) AddFrame(preset *FramePreset) string {
	s.mu.Lock()
	f := Frame{
		ID:      s.idgen.Generate(),
		Name:    "Frame",
		Width:   DefaultFrameWidth,
		Height:  DefaultFrameHeight,
		Visible: true,
	}
	if preset != nil {
		if preset.Name != "" {
			f.Name = norm.NFC.String(preset.Name)
		}
		if preset.Width > 0 {
			f.Width = preset.Width
		}
		if preset.Height > 0 {
			f.Height = preset.Height
		}
		if preset.Background != "" {
			f.Background = preset.Background
		}
	}
	s.hist.Push(s.frames)
	s.frames = append(s.frames, f)
	slog.Debug("frame added", "frame", f.ID, "name", f.Name)
	s.mu.Unlock()

	s.notify()
	return f.ID
}

// DeleteFrame removes a frame and all its layers.
// Pushes history. Cascades: every contained layer goes with the frame.
func (s *Store) DeleteFrame(id string) error {
	s.mu.Lock()
	i := s.frameIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return NewFrameNotFound(id)
	}
	s.hist.Push(s.frames)
	s.frames = append(s.frames[:i], s.frames[i+1:]...)
	s.sanitizeSelection()
	slog.Debug("frame deleted", "frame", id)
	s.mu.Unlock()

	s.notify()
	return nil
}

// UpdateFrame applies a partial update to a frame. No history push:
// property edits are continuous or trivially re-applied.
func (s *Store) UpdateFrame(id string, patch FramePatch) error {
	s.mu.Lock()
	i := s.frameIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return NewFrameNotFound(id)
	}
	patch.apply(&s.frames[i])
	s.mu.Unlock()

	s.notify()
	return nil
}

// DuplicateFrame deep-clones a frame under fresh ids, offset slightly so
// the copy is visible, and returns the new frame id. Pushes history.
//
// Layer ids are regenerated as well: render objects are keyed by layer id
// across the whole canvas, so duplicated layers must not collide.
func (s *Store) DuplicateFrame(id string) (string, error) {
	s.mu.Lock()
	i := s.frameIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return "", NewFrameNotFound(id)
	}
	dup := CloneFrame(s.frames[i])
	dup.ID = s.idgen.Generate()
	dup.Name = dup.Name + " copy"
	dup.X += 20
	dup.Y += 20
	regenerateLayerIDs(dup.Layers, s.idgen)

	s.hist.Push(s.frames)
	s.frames = append(s.frames, dup)
	slog.Debug("frame duplicated", "source", id, "frame", dup.ID)
	s.mu.Unlock()

	s.notify()
	return dup.ID, nil
}

func regenerateLayerIDs(layers []Layer, idgen IDGenerator) {
	for i := range layers {
		layers[i].ID = idgen.Generate()
		regenerateLayerIDs(layers[i].Children, idgen)
	}
}

// AddLayer appends a layer to a frame and returns its id. Pushes history.
//
// The template's ID is honored when set (imports and tests); otherwise a
// fresh id is generated. Zero scale factors and opacity are normalized to
// identity/fully-opaque, and new layers are always created visible.
func (s *Store) AddLayer(frameID string, template Layer) (string, error) {
	s.mu.Lock()
	fi := s.frameIndex(frameID)
	if fi < 0 {
		s.mu.Unlock()
		return "", NewFrameNotFound(frameID)
	}

	l := CloneLayer(template)
	if l.ID == "" {
		l.ID = s.idgen.Generate()
	} else if layerIndex(&s.frames[fi], l.ID) >= 0 {
		s.mu.Unlock()
		return "", &ModelError{
			Code:    ErrCodeDuplicateLayer,
			Message: "layer id already exists in frame",
			FrameID: frameID,
			LayerID: l.ID,
		}
	}
	l.Name = norm.NFC.String(l.Name)
	l.Visible = true
	if l.Opacity == 0 {
		l.Opacity = DefaultOpacity
	}
	if l.ScaleX == 0 {
		l.ScaleX = 1
	}
	if l.ScaleY == 0 {
		l.ScaleY = 1
	}

	s.hist.Push(s.frames)
	s.frames[fi].Layers = append(s.frames[fi].Layers, l)
	slog.Debug("layer added", "frame", frameID, "layer", l.ID, "kind", l.Kind)
	s.mu.Unlock()

	s.notify()
	return l.ID, nil
}

// DeleteLayer removes a top-level layer from a frame. Pushes history.
func (s *Store) DeleteLayer(frameID, layerID string) error {
	s.mu.Lock()
	fi := s.frameIndex(frameID)
	if fi < 0 {
		s.mu.Unlock()
		return NewFrameNotFound(frameID)
	}
	li := layerIndex(&s.frames[fi], layerID)
	if li < 0 {
		s.mu.Unlock()
		return NewLayerNotFound(frameID, layerID)
	}
	s.hist.Push(s.frames)
	layers := s.frames[fi].Layers
	s.frames[fi].Layers = append(layers[:li], layers[li+1:]...)
	s.sanitizeSelection()
	slog.Debug("layer deleted", "frame", frameID, "layer", layerID)
	s.mu.Unlock()

	s.notify()
	return nil
}

// UpdateLayer applies a partial update to a top-level layer.
// No history push: this is the commit path for continuous gestures.
func (s *Store) UpdateLayer(frameID, layerID string, patch LayerPatch) error {
	s.mu.Lock()
	fi := s.frameIndex(frameID)
	if fi < 0 {
		s.mu.Unlock()
		return NewFrameNotFound(frameID)
	}
	li := layerIndex(&s.frames[fi], layerID)
	if li < 0 {
		s.mu.Unlock()
		return NewLayerNotFound(frameID, layerID)
	}
	patch.apply(&s.frames[fi].Layers[li])
	s.mu.Unlock()

	s.notify()
	return nil
}

// ReorderLayers replaces a frame's top-level layer order. The ordered id
// list must be a permutation of the current top-level ids.
func (s *Store) ReorderLayers(frameID string, orderedIDs []string) error {
	s.mu.Lock()
	fi := s.frameIndex(frameID)
	if fi < 0 {
		s.mu.Unlock()
		return NewFrameNotFound(frameID)
	}
	current := s.frames[fi].Layers
	if len(orderedIDs) != len(current) {
		s.mu.Unlock()
		return &ModelError{
			Code:    ErrCodeInvalidReorder,
			Message: "ordered ids are not a permutation of the frame's layers",
			FrameID: frameID,
		}
	}
	byID := make(map[string]int, len(current))
	for i, l := range current {
		byID[l.ID] = i
	}
	reordered := make([]Layer, 0, len(current))
	for _, id := range orderedIDs {
		i, ok := byID[id]
		if !ok {
			s.mu.Unlock()
			return &ModelError{
				Code:    ErrCodeInvalidReorder,
				Message: "ordered ids are not a permutation of the frame's layers",
				FrameID: frameID,
				LayerID: id,
			}
		}
		delete(byID, id)
		reordered = append(reordered, current[i])
	}
	s.hist.Push(s.frames)
	s.frames[fi].Layers = reordered
	s.mu.Unlock()

	s.notify()
	return nil
}

// SelectFrame sets the selected frame and clears layer selection.
// Passing an empty id clears the whole selection.
func (s *Store) SelectFrame(id string) error {
	s.mu.Lock()
	if id != "" && s.frameIndex(id) < 0 {
		s.mu.Unlock()
		return NewFrameNotFound(id)
	}
	s.selection = Selection{FrameID: id}
	s.mu.Unlock()

	s.notify()
	return nil
}

// SelectLayers sets the selected layer ids. The owning frame of the first
// id becomes the selected frame; every id must be a top-level layer of
// that frame. An empty list clears layer selection but preserves the
// selected frame - selecting "nothing" never deselects the working frame.
func (s *Store) SelectLayers(ids []string) error {
	s.mu.Lock()
	if len(ids) == 0 {
		s.selection.LayerIDs = nil
		s.mu.Unlock()
		s.notify()
		return nil
	}

	fi := -1
	for i := range s.frames {
		if layerIndex(&s.frames[i], ids[0]) >= 0 {
			fi = i
			break
		}
	}
	if fi < 0 {
		s.mu.Unlock()
		return NewLayerNotFound("", ids[0])
	}
	for _, id := range ids[1:] {
		if layerIndex(&s.frames[fi], id) < 0 {
			s.mu.Unlock()
			return NewLayerNotFound(s.frames[fi].ID, id)
		}
	}
	s.selection = Selection{
		FrameID:  s.frames[fi].ID,
		LayerIDs: append([]string(nil), ids...),
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// SelectLayersInFrame sets the selected layer ids within a named frame.
// Layer ids are only unique per frame, so callers that already know the
// owning frame (the canvas pick path) must name it rather than letting
// the first id's owner be inferred document-wide.
func (s *Store) SelectLayersInFrame(frameID string, ids []string) error {
	s.mu.Lock()
	fi := s.frameIndex(frameID)
	if fi < 0 {
		s.mu.Unlock()
		return NewFrameNotFound(frameID)
	}
	for _, id := range ids {
		if layerIndex(&s.frames[fi], id) < 0 {
			s.mu.Unlock()
			return NewLayerNotFound(frameID, id)
		}
	}
	s.selection = Selection{
		FrameID:  frameID,
		LayerIDs: append([]string(nil), ids...),
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// Undo restores the most recent past snapshot. Returns false if there is
// nothing to undo.
func (s *Store) Undo() bool {
	s.mu.Lock()
	snapshot, ok := s.hist.Undo(s.frames)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.frames = snapshot
	s.sanitizeSelection()
	slog.Debug("undo applied", "past", s.hist.PastLen(), "future", s.hist.FutureLen())
	s.mu.Unlock()

	s.notify()
	return true
}

// Redo restores the most recent future snapshot. Returns false if there
// is nothing to redo.
func (s *Store) Redo() bool {
	s.mu.Lock()
	snapshot, ok := s.hist.Redo(s.frames)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.frames = snapshot
	s.sanitizeSelection()
	slog.Debug("redo applied", "past", s.hist.PastLen(), "future", s.hist.FutureLen())
	s.mu.Unlock()

	s.notify()
	return true
}

// History exposes the underlying history store for diagnostics and tests.
func (s *Store) History() *history.History[[]Frame] {
	return s.hist
}

// SetFrames replaces the entire document, clearing selection and history.
// Used when loading a document file.
func (s *Store) SetFrames(frames []Frame) {
	s.mu.Lock()
	s.frames = CloneFrames(frames)
	s.selection = Selection{}
	s.hist.Clear()
	s.mu.Unlock()

	s.notify()
}

// sanitizeSelection drops selection references to entities that no longer
// exist, preserving the selection invariant after undo/redo and deletes.
// Caller must hold s.mu.
func (s *Store) sanitizeSelection() {
	if s.selection.FrameID == "" && len(s.selection.LayerIDs) == 0 {
		return
	}
	fi := s.frameIndex(s.selection.FrameID)
	if fi < 0 {
		s.selection = Selection{}
		return
	}
	kept := s.selection.LayerIDs[:0]
	for _, id := range s.selection.LayerIDs {
		if layerIndex(&s.frames[fi], id) >= 0 {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		kept = nil
	}
	s.selection.LayerIDs = kept
}

// frameIndex returns the index of the frame with the given id, or -1.
// Caller must hold s.mu.
func (s *Store) frameIndex(id string) int {
	for i := range s.frames {
		if s.frames[i].ID == id {
			return i
		}
	}
	return -1
}

// layerIndex returns the index of the top-level layer with the given id,
// or -1.
func layerIndex(f *Frame, id string) int {
	for i := range f.Layers {
		if f.Layers[i].ID == id {
			return i
		}
	}
	return -1
}
