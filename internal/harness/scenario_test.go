package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenarioFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenarioRejectsUnknownFields(t *testing.T) {
	path := writeScenarioFile(t, `
name: typo
description: has a typo'd key
steps:
  - op: add_frame
assertion:
  - type: frame_count
    count: 1
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assertion")
}

func TestLoadScenarioRequiresSteps(t *testing.T) {
	path := writeScenarioFile(t, `
name: empty
description: no steps
assertions:
  - type: frame_count
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps")
}

func TestLoadScenarioRejectsUnknownOp(t *testing.T) {
	path := writeScenarioFile(t, `
name: bad-op
description: unknown op name
steps:
  - op: teleport_frame
    frame: f1
assertions:
  - type: frame_count
    count: 1
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teleport_frame")
}

func TestLoadScenarioRequiresOpTargets(t *testing.T) {
	path := writeScenarioFile(t, `
name: missing-target
description: delete_layer without layer
steps:
  - op: delete_layer
    frame: f1
assertions:
  - type: frame_count
    count: 1
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "layer is required")
}

func TestLoadScenarioRejectsUnknownAssertionType(t *testing.T) {
	path := writeScenarioFile(t, `
name: bad-assert
description: unknown assertion type
steps:
  - op: add_frame
assertions:
  - type: vibes
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vibes")
}
