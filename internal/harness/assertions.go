package harness

import (
	"fmt"
	"strings"
)

// EvaluateAssertions checks every assertion against the result's final
// state and returns failure messages. An empty return means all
// assertions held.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if msg := evaluate(result, &a); msg != "" {
			failures = append(failures, fmt.Sprintf("assertions[%d] (%s): %s", i, a.Type, msg))
		}
	}
	return failures
}

func evaluate(result *Result, a *Assertion) string {
	final := result.Final

	switch a.Type {
	case AssertDrawOrder:
		if !equalStrings(final.DrawOrder, a.Keys) {
			return fmt.Sprintf("draw order is [%s], want [%s]",
				strings.Join(final.DrawOrder, " "), strings.Join(a.Keys, " "))
		}

	case AssertObjectCount:
		if final.ObjectCount != a.Count {
			return fmt.Sprintf("engine has %d objects, want %d", final.ObjectCount, a.Count)
		}

	case AssertFrameCount:
		if len(final.Frames) != a.Count {
			return fmt.Sprintf("document has %d frames, want %d", len(final.Frames), a.Count)
		}

	case AssertSelection:
		if final.Selection.FrameID != a.Frame {
			return fmt.Sprintf("selected frame is %q, want %q", final.Selection.FrameID, a.Frame)
		}
		if !equalStrings(final.Selection.LayerIDs, a.Layers) {
			return fmt.Sprintf("selected layers are [%s], want [%s]",
				strings.Join(final.Selection.LayerIDs, " "), strings.Join(a.Layers, " "))
		}

	case AssertHistory:
		if final.HistoryPast != a.Past {
			return fmt.Sprintf("history has %d past snapshots, want %d", final.HistoryPast, a.Past)
		}
		if final.HistoryFut != a.Future {
			return fmt.Sprintf("history has %d future snapshots, want %d", final.HistoryFut, a.Future)
		}
	}
	return ""
}

func equalStrings(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
