package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Embedded(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(nil, &stdout, &stderr)

	assert.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "embedded:manor.yaml")
	assert.Contains(t, stdout.String(), "embedded:wraithmoor.yaml")
	assert.Contains(t, stdout.String(), "The Haunted Manor is valid (8 scenes, 4 items, 7 puzzles)")
}

func TestRun_Files(t *testing.T) {
	dir := t.TempDir()

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte(`
name: Broken
entry: hall
scenes:
  - id: hall
    title: Hall
    description: Bare walls.
    exits: [cellar]
    hotspots:
      - id: door
        name: Door
        requires: ["item:crowbar"]
        action: { type: move, target: cellar }
`), 0o644))

	var stdout, stderr bytes.Buffer
	code := run([]string{broken, filepath.Join(dir, "missing.yaml")}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "Validating "+broken)
	assert.Contains(t, stderr.String(), "cellar")
	assert.Contains(t, stderr.String(), "crowbar")
	assert.Contains(t, stderr.String(), "failed to load")
	assert.Contains(t, stderr.String(), "Validation failed for 2 of 2 catalog(s)")
}
