package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/easelhq/easel/internal/doc"
	"github.com/easelhq/easel/internal/docfile"
	"github.com/easelhq/easel/internal/scene"
)

// InspectResult is the JSON payload of the inspect command.
type InspectResult struct {
	Version    int            `json:"version"`
	FrameCount int            `json:"frame_count"`
	LayerCount int            `json:"layer_count"`
	Frames     []FrameSummary `json:"frames"`
	DrawOrder  []string       `json:"draw_order"`
}

// FrameSummary describes one frame for inspection output.
type FrameSummary struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Size   string         `json:"size"`
	Layers []LayerSummary `json:"layers"`
}

// LayerSummary describes one layer for inspection output.
type LayerSummary struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Kind     string         `json:"kind"`
	Visible  bool           `json:"visible"`
	Children []LayerSummary `json:"children,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <document>",
		Short: "Show a document's frame tree and canonical draw order",
		Long: `Inspect a document file: frames, layers, group structure, and the
draw order the canvas would render (frames first, then image-bearing
layers per frame).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runInspect(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	d, errs := docfile.Load(path)
	if len(errs) > 0 {
		_ = formatter.Error(ErrCodeGeneric, errs[0].Error(), toIssues(errs))
		return WrapExitError(ExitCommandError, "cannot load document", errs[0])
	}

	result := summarize(d)
	if formatter.JSON() {
		return formatter.Success(result)
	}
	return writeInspectText(formatter, result)
}

func summarize(d docfile.Document) InspectResult {
	result := InspectResult{
		Version:    d.Version,
		FrameCount: len(d.Frames),
		DrawOrder:  scene.DrawOrder(d.Frames),
	}
	for _, f := range d.Frames {
		fs := FrameSummary{
			ID:   f.ID,
			Name: f.Name,
			Size: fmt.Sprintf("%gx%g", f.Width, f.Height),
		}
		for _, l := range f.Layers {
			fs.Layers = append(fs.Layers, summarizeLayer(l))
			result.LayerCount += countLayers(l)
		}
		result.Frames = append(result.Frames, fs)
	}
	return result
}

func summarizeLayer(l doc.Layer) LayerSummary {
	ls := LayerSummary{
		ID:      l.ID,
		Name:    l.Name,
		Kind:    string(l.Kind),
		Visible: l.Visible,
	}
	for _, child := range l.Children {
		ls.Children = append(ls.Children, summarizeLayer(child))
	}
	return ls
}

func countLayers(l doc.Layer) int {
	n := 1
	for _, child := range l.Children {
		n += countLayers(child)
	}
	return n
}

func writeInspectText(formatter *OutputFormatter, result InspectResult) error {
	w := formatter.Writer
	fmt.Fprintf(w, "Document v%d: %d frame(s), %d layer(s)\n", result.Version, result.FrameCount, result.LayerCount)
	for _, f := range result.Frames {
		fmt.Fprintf(w, "\n%s (%s) %s\n", f.Name, f.ID, f.Size)
		for _, l := range f.Layers {
			writeLayerText(w, l, 1)
		}
	}
	fmt.Fprintf(w, "\nDraw order:\n")
	for i, key := range result.DrawOrder {
		fmt.Fprintf(w, "  %2d. %s\n", i+1, key)
	}
	return nil
}

func writeLayerText(w io.Writer, l LayerSummary, depth int) {
	marker := ""
	if !l.Visible {
		marker = " (hidden)"
	}
	fmt.Fprintf(w, "%s- %s [%s] (%s)%s\n", strings.Repeat("  ", depth), l.Name, l.Kind, l.ID, marker)
	for _, child := range l.Children {
		writeLayerText(w, child, depth+1)
	}
}
