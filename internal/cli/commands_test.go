package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/conceptgraph/internal/graph"
)

const (
	dogURI    = "/concept/en/dog"
	animalURI = "/concept/en/animal"
)

var isADog = graph.AssertionURI("/relation/IsA", []string{dogURI, animalURI})

type cliRun struct {
	stdout string
	stderr string
	err    error
}

// runCLI executes the root command against the SQLite database at db.
func runCLI(t *testing.T, db string, args ...string) cliRun {
	t.Helper()
	for _, key := range []string{"CONCEPTGRAPH_BACKEND", "CONCEPTGRAPH_SQLITE_PATH", "CONCEPTGRAPH_LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append([]string{"--db", db}, args...))

	err := cmd.Execute()
	return cliRun{stdout: out.String(), stderr: errOut.String(), err: err}
}

// decodeResponse parses a JSON CLIResponse and, on success, its data
// into v.
func decodeResponse(t *testing.T, stdout string, v any) CLIResponse {
	t.Helper()
	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &raw), stdout)
	if v != nil && raw.Data != nil {
		require.NoError(t, json.Unmarshal(raw.Data, v))
	}
	return CLIResponse{Status: raw.Status, Error: raw.Error}
}

func testDB(t *testing.T) string {
	return filepath.Join(t.TempDir(), "graph.db")
}

func TestAssertAndShow(t *testing.T) {
	db := testDB(t)

	run := runCLI(t, db, "--format", "json", "assert", "IsA", dogURI, animalURI,
		"--source", "contributor,omcs,alice", "--weight", "0.5")
	require.NoError(t, run.err, run.stdout)

	var asserted AssertResult
	resp := decodeResponse(t, run.stdout, &asserted)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, isADog, asserted.Assertion.URI)
	assert.Equal(t, graph.TypeAssertion, asserted.Assertion.Type)
	require.NotNil(t, asserted.Justification)
	assert.Equal(t, "/source/contributor/omcs/alice", asserted.Justification.Start.URI)
	assert.Equal(t, isADog, asserted.Justification.End.URI)

	run = runCLI(t, db, "--format", "json", "show", isADog)
	require.NoError(t, run.err, run.stdout)

	var shown ShowResult
	decodeResponse(t, run.stdout, &shown)
	assert.Equal(t, asserted.Assertion.ID, shown.Node.ID)
	require.NotNil(t, shown.Relation)
	assert.Equal(t, "/relation/IsA", shown.Relation.URI)
	require.Len(t, shown.Args, 2)
	assert.Equal(t, dogURI, shown.Args[0].URI)
	assert.Equal(t, animalURI, shown.Args[1].URI)
	assert.Equal(t, []Justification{{Source: "/source/contributor/omcs/alice", Weight: 0.5}}, shown.Justifications)
}

func TestAssert_Idempotent(t *testing.T) {
	db := testDB(t)

	var first, second AssertResult
	run := runCLI(t, db, "--format", "json", "assert", "/relation/IsA", dogURI, animalURI)
	require.NoError(t, run.err)
	decodeResponse(t, run.stdout, &first)

	run = runCLI(t, db, "--format", "json", "assert", "IsA", dogURI, animalURI)
	require.NoError(t, run.err)
	decodeResponse(t, run.stdout, &second)

	assert.Equal(t, first.Assertion.ID, second.Assertion.ID)
	assert.Nil(t, second.Justification)
}

func TestAssert_TextOutput(t *testing.T) {
	run := runCLI(t, testDB(t), "assert", "IsA", dogURI, animalURI, "--source", "test")
	require.NoError(t, run.err)
	assert.Contains(t, run.stdout, "Assertion: "+isADog)
	assert.Contains(t, run.stdout, "Justified by /source/test (weight 1)")
}

func TestAssert_WeightOutOfRange(t *testing.T) {
	db := testDB(t)

	run := runCLI(t, db, "--format", "json", "assert", "IsA", dogURI, animalURI,
		"--source", "test", "--weight", "1.5")
	require.Error(t, run.err)
	assert.Equal(t, ExitFailure, GetExitCode(run.err))

	resp := decodeResponse(t, run.stdout, nil)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "VALIDATION", resp.Error.Code)

	// Nothing was written.
	run = runCLI(t, db, "--format", "json", "find", "/assertion/*")
	require.NoError(t, run.err)
	var found FindResult
	decodeResponse(t, run.stdout, &found)
	assert.Zero(t, found.Count)
}

func TestAssert_InvalidArgument(t *testing.T) {
	run := runCLI(t, testDB(t), "--format", "json", "assert", "IsA", "/widget/x", animalURI)
	require.Error(t, run.err)
	assert.Equal(t, ExitFailure, GetExitCode(run.err))
	assert.Equal(t, "VALIDATION", decodeResponse(t, run.stdout, nil).Error.Code)
}

func TestAssert_RequiresArgs(t *testing.T) {
	run := runCLI(t, testDB(t), "assert", "IsA")
	require.Error(t, run.err)
}

func TestShow_NotFound(t *testing.T) {
	run := runCLI(t, testDB(t), "--format", "json", "show", "/concept/en/cat")
	require.Error(t, run.err)
	assert.Equal(t, ExitFailure, GetExitCode(run.err))
	assert.Equal(t, "NOT_FOUND", decodeResponse(t, run.stdout, nil).Error.Code)
}

func TestShow_Concept(t *testing.T) {
	db := testDB(t)
	require.NoError(t, runCLI(t, db, "assert", "IsA", dogURI, animalURI).err)

	run := runCLI(t, db, "show", dogURI)
	require.NoError(t, run.err)
	assert.Contains(t, run.stdout, "URI:  "+dogURI)
	assert.Contains(t, run.stdout, "Type: concept")
	assert.Contains(t, run.stdout, "name = dog")
	assert.NotContains(t, run.stdout, "Relation:")
}

func TestFind(t *testing.T) {
	db := testDB(t)
	require.NoError(t, runCLI(t, db, "assert", "IsA", dogURI, animalURI).err)

	run := runCLI(t, db, "--format", "json", "find", "/concept/en/*")
	require.NoError(t, run.err)
	var all FindResult
	decodeResponse(t, run.stdout, &all)
	assert.Equal(t, 2, all.Count)
	assert.False(t, all.Truncated)

	run = runCLI(t, db, "--format", "json", "find", "/concept/en/*", "--limit", "1")
	require.NoError(t, run.err)
	var limited FindResult
	decodeResponse(t, run.stdout, &limited)
	assert.Equal(t, 1, limited.Count)
	assert.True(t, limited.Truncated)

	run = runCLI(t, db, "find", "/frame/*")
	require.NoError(t, run.err)
	assert.Contains(t, run.stdout, "No nodes match /frame/*")
}

func TestDelete(t *testing.T) {
	db := testDB(t)
	require.NoError(t, runCLI(t, db, "assert", "IsA", dogURI, animalURI, "--source", "contributor,alice").err)

	run := runCLI(t, db, "--format", "json", "delete", dogURI)
	require.Error(t, run.err)
	assert.Equal(t, ExitFailure, GetExitCode(run.err))
	assert.Equal(t, "INTEGRITY", decodeResponse(t, run.stdout, nil).Error.Code)

	run = runCLI(t, db, "delete", "/source/contributor/alice")
	require.NoError(t, run.err, run.stdout)
	assert.Contains(t, run.stdout, "Deleted /source/contributor/alice")

	run = runCLI(t, db, "--format", "json", "show", isADog)
	require.NoError(t, run.err)
	var shown ShowResult
	decodeResponse(t, run.stdout, &shown)
	assert.Empty(t, shown.Justifications)

	run = runCLI(t, db, "delete", "/source/contributor/alice")
	require.Error(t, run.err)
	assert.Contains(t, run.stdout, "Error [NOT_FOUND]")
}

func TestNormalize(t *testing.T) {
	db := testDB(t)
	raw := graph.AssertionURI("/relation/IsA", []string{"/concept/en/dogs", "/concept/en/animals"})
	require.NoError(t, runCLI(t, db, "assert", "IsA", "/concept/en/dogs", "/concept/en/animals").err)
	require.NoError(t, runCLI(t, db, "assert", "IsA", dogURI, animalURI).err)

	run := runCLI(t, db, "--format", "json", "normalize", raw, isADog, "--weight", "0.75")
	require.NoError(t, run.err, run.stdout)
	var res NormalizeResult
	decodeResponse(t, run.stdout, &res)
	assert.Equal(t, graph.EdgeNormalized, res.Edge.Type)
	assert.Equal(t, raw, res.Edge.Start.URI)
	assert.Equal(t, isADog, res.Edge.End.URI)

	run = runCLI(t, db, "--format", "json", "show", isADog)
	require.NoError(t, run.err)
	var shown ShowResult
	decodeResponse(t, run.stdout, &shown)
	assert.Equal(t, []Justification{{Source: raw, Weight: 0.75}}, shown.Justifications)
}

func TestNormalize_RejectsNegativeWeight(t *testing.T) {
	db := testDB(t)
	run := runCLI(t, db, "--format", "json", "normalize", isADog, isADog, "--weight", "-0.5")
	require.Error(t, run.err)
	assert.Equal(t, "VALIDATION", decodeResponse(t, run.stdout, nil).Error.Code)
}

func TestInvalidBackend(t *testing.T) {
	run := runCLI(t, testDB(t), "--backend", "postgres", "--format", "json", "find", "/*")
	require.Error(t, run.err)
	assert.Equal(t, ExitCommandError, GetExitCode(run.err))
	assert.Equal(t, ErrCodeConfig, decodeResponse(t, run.stdout, nil).Error.Code)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "conceptgraph.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("backend: sqlite\nexport:\n  recency_window: 0\n"), 0o600))

	run := runCLI(t, testDB(t), "--config", cfgPath, "find", "/*")
	require.Error(t, run.err)
	assert.Equal(t, ExitCommandError, GetExitCode(run.err))
	assert.Contains(t, run.stdout, "recency_window")
}

func TestUnreachableBackend(t *testing.T) {
	// A directory cannot be opened as a database file.
	run := runCLI(t, t.TempDir(), "--format", "json", "find", "/*")
	require.Error(t, run.err)
	assert.Equal(t, ExitCommandError, GetExitCode(run.err))
	assert.Equal(t, "BACKEND_UNAVAILABLE", decodeResponse(t, run.stdout, nil).Error.Code)
}

func newDBpediaServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/page/Dog", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a class="uri" href="http://www.w3.org/1999/02/22-rdf-syntax-ns#type">rdf:type</a>
<ul><li><a href="http://dbpedia.org/ontology/Animal">dbo:Animal</a></li></ul>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHarvest_Live(t *testing.T) {
	srv := newDBpediaServer(t)
	db := testDB(t)
	titles := filepath.Join(t.TempDir(), "titles.txt")
	require.NoError(t, os.WriteFile(titles, []byte("Dog\nNothing Here\n"), 0o600))

	run := runCLI(t, db, "--format", "json", "harvest", titles, "--base-url", srv.URL+"/page/")
	require.NoError(t, run.err, run.stdout)
	var res HarvestResult
	decodeResponse(t, run.stdout, &res)
	assert.Equal(t, 2, res.Titles)
	assert.Equal(t, 1, res.Assertions)
	assert.Equal(t, 1, res.Skipped)
	assert.Nil(t, res.Export)

	run = runCLI(t, db, "--format", "json", "find", "/assertion/*")
	require.NoError(t, run.err)
	var found FindResult
	decodeResponse(t, run.stdout, &found)
	assert.Equal(t, 1, found.Count)
}

func TestHarvest_Export(t *testing.T) {
	srv := newDBpediaServer(t)
	dir := t.TempDir()
	script := filepath.Join(dir, "load.groovy")
	titles := filepath.Join(dir, "titles.txt")
	require.NoError(t, os.WriteFile(titles, []byte("Dog\n"), 0o600))

	run := runCLI(t, testDB(t), "harvest", titles, "--export", script, "--base-url", srv.URL+"/page/")
	require.NoError(t, run.err, run.stdout)
	assert.Contains(t, run.stdout, "assertions: 1")
	assert.Contains(t, run.stdout, "Script:")

	data, err := os.ReadFile(script)
	require.NoError(t, err)
	body := string(data)
	assert.Contains(t, body, "makeNode('/relation/rdf:type'")
	assert.Contains(t, body, "makeEdge('justifies', '/source/web/dbpedia.org'")
	assert.Equal(t, 1, strings.Count(body, "makeNode('/source/web/dbpedia.org'"))
}

func TestHarvest_Stdin(t *testing.T) {
	srv := newDBpediaServer(t)
	for _, key := range []string{"CONCEPTGRAPH_BACKEND", "CONCEPTGRAPH_SQLITE_PATH", "CONCEPTGRAPH_LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("Dog\n"))
	cmd.SetArgs([]string{"--db", testDB(t), "harvest", "-", "--base-url", srv.URL + "/page/"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "assertions: 1")
}

func TestHarvest_MissingTitles(t *testing.T) {
	run := runCLI(t, testDB(t), "harvest", filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, run.err)
	assert.Equal(t, ExitCommandError, GetExitCode(run.err))
	assert.Contains(t, run.stdout, "Error [INPUT]")
}
