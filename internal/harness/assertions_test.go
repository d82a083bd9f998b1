package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/easelhq/easel/internal/doc"
)

func finalResult(final FinalState) *Result {
	r := NewResult()
	r.Final = final
	return r
}

func TestEvaluateAssertionsDrawOrder(t *testing.T) {
	result := finalResult(FinalState{DrawOrder: []string{"f1", "f1/l1"}})

	failures := EvaluateAssertions(result, []Assertion{
		{Type: AssertDrawOrder, Keys: []string{"f1", "f1/l1"}},
	})
	assert.Empty(t, failures)

	failures = EvaluateAssertions(result, []Assertion{
		{Type: AssertDrawOrder, Keys: []string{"f1/l1", "f1"}},
	})
	assert.Len(t, failures, 1)
	assert.Contains(t, failures[0], "draw order")
}

func TestEvaluateAssertionsCounts(t *testing.T) {
	result := finalResult(FinalState{
		Frames:      []doc.Frame{{ID: "f1"}},
		ObjectCount: 3,
	})

	failures := EvaluateAssertions(result, []Assertion{
		{Type: AssertObjectCount, Count: 3},
		{Type: AssertFrameCount, Count: 1},
	})
	assert.Empty(t, failures)

	failures = EvaluateAssertions(result, []Assertion{
		{Type: AssertObjectCount, Count: 2},
	})
	assert.Len(t, failures, 1)
}

func TestEvaluateAssertionsSelection(t *testing.T) {
	result := finalResult(FinalState{
		Selection: doc.Selection{FrameID: "f1", LayerIDs: []string{"l1"}},
	})

	failures := EvaluateAssertions(result, []Assertion{
		{Type: AssertSelection, Frame: "f1", Layers: []string{"l1"}},
	})
	assert.Empty(t, failures)

	failures = EvaluateAssertions(result, []Assertion{
		{Type: AssertSelection, Frame: "f2"},
	})
	assert.Len(t, failures, 1)
	assert.Contains(t, failures[0], "selected frame")
}

func TestEvaluateAssertionsHistory(t *testing.T) {
	result := finalResult(FinalState{HistoryPast: 2, HistoryFut: 1})

	failures := EvaluateAssertions(result, []Assertion{
		{Type: AssertHistory, Past: 2, Future: 1},
	})
	assert.Empty(t, failures)

	failures = EvaluateAssertions(result, []Assertion{
		{Type: AssertHistory, Past: 0, Future: 0},
	})
	assert.Len(t, failures, 1)
}
