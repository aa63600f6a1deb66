package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `
name: dog_is_animal
description: an asserted fact can be justified and found
setup:
  - op: node
    uri: /source/contributor/alice
flow:
  - op: assert
    relation: /relation/IsA
    args: [/concept/en/dog, /concept/en/animal]
  - op: justify
    source: /source/contributor/alice
    target: '/assertion/["/relation/IsA","/concept/en/dog","/concept/en/animal"]'
assertions:
  - type: edge_count
    edge: justifies
    source: /source/contributor/alice
    count: 1
`

const failingScenario = `
name: missing_cat
description: asserts a node that is never created
flow:
  - op: node
    uri: /concept/en/dog
assertions:
  - type: node_exists
    uri: /concept/en/cat
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCheck_AllPass(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "dog.yaml", passingScenario)

	run := runCLI(t, testDB(t), "--format", "json", "check", dir)
	require.NoError(t, run.err, run.stdout)

	var result CheckResult
	resp := decodeResponse(t, run.stdout, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Passed)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "dog_is_animal", result.Scenarios[0].Name)
}

func TestCheck_FailureExitsOne(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "dog.yaml", passingScenario)
	writeScenario(t, dir, "cat.yaml", failingScenario)

	run := runCLI(t, testDB(t), "check", dir)
	require.Error(t, run.err)
	assert.Equal(t, ExitFailure, GetExitCode(run.err))
	assert.Contains(t, run.stdout, "✓ dog_is_animal")
	assert.Contains(t, run.stdout, "✗ missing_cat")
	assert.Contains(t, run.stdout, "1 passed, 1 failed, 2 total")
}

func TestCheck_Filter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "dog.yaml", passingScenario)
	writeScenario(t, dir, "cat.yaml", failingScenario)

	run := runCLI(t, testDB(t), "check", dir, "--filter", "d*")
	require.NoError(t, run.err, run.stdout)
	assert.Contains(t, run.stdout, "1 passed, 0 failed, 1 total")
}

func TestCheck_InvalidScenarioFails(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yml", "name: broken\n")

	run := runCLI(t, testDB(t), "check", dir)
	require.Error(t, run.err)
	assert.Equal(t, ExitFailure, GetExitCode(run.err))
	assert.Contains(t, run.stdout, "failed to load scenario")
}

func TestCheck_GoldenUpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "dog.yaml", passingScenario)

	run := runCLI(t, testDB(t), "check", dir, "--update")
	require.NoError(t, run.err, run.stdout)

	golden := goldenFilePath(path)
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name": "dog_is_animal"`)

	run = runCLI(t, testDB(t), "check", dir)
	require.NoError(t, run.err, run.stdout)

	require.NoError(t, os.WriteFile(golden, []byte("{}\n"), 0o644))
	run = runCLI(t, testDB(t), "check", dir)
	require.Error(t, run.err)
	assert.Contains(t, run.stdout, "trace does not match golden file")
}

func TestCheck_MissingDirectory(t *testing.T) {
	run := runCLI(t, testDB(t), "check", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, run.err)
	assert.Equal(t, ExitCommandError, GetExitCode(run.err))
	assert.Contains(t, run.stdout, "INPUT")
}

func TestCheck_EmptyDirectory(t *testing.T) {
	run := runCLI(t, testDB(t), "check", t.TempDir())
	require.NoError(t, run.err)
	assert.Contains(t, run.stdout, "No scenarios found.")
}

func TestFindScenarioFiles_SkipsGolden(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a.yaml", passingScenario)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0o755))
	writeScenario(t, filepath.Join(dir, "golden"), "stale.yaml", passingScenario)
	writeScenario(t, dir, "notes.txt", "ignored")

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yaml")}, files)

	_, err = findScenarioFiles(dir, "[")
	require.Error(t, err)
}

func TestCheck_FailureJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "cat.yaml", failingScenario)

	run := runCLI(t, testDB(t), "--format", "json", "check", dir)
	require.Error(t, run.err)

	var result CheckResult
	resp := decodeResponse(t, run.stdout, &result)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Scenarios, 1)
	assert.NotEmpty(t, result.Scenarios[0].Errors)
}
