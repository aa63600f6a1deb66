package harvest

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/conceptgraph/internal/export"
	"github.com/roach88/conceptgraph/internal/graph"
	"github.com/roach88/conceptgraph/internal/store"
)

const dogPage = `<html><body>
<table>
<tr><td><a class="uri" href="http://www.w3.org/2000/01/rdf-schema#label">rdfs:label</a></td>
<td><ul><li>Dog</li></ul></td></tr>
<tr><td><a class="uri" href="http://www.w3.org/1999/02/22-rdf-syntax-ns#type">rdf:type</a></td>
<td><ul>
<li><a href="http://dbpedia.org/ontology/Animal">dbo:Animal</a></li>
<li><a href="http://dbpedia.org/ontology/Mammal">dbo:Mammal</a></li>
</ul></td></tr>
<tr><td><a class="uri" href="http://www.w3.org/2002/07/owl#sameAs">owl:sameAs</a></td>
<td><ul><li><a href="http://example.org/dog">other</a></li></ul></td></tr>
</table>
</body></html>`

const rockPage = `<html><body><p>No types here.</p></body></html>`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/page/Dog", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, dogPage)
	})
	mux.HandleFunc("/page/Rock", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rockPage)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// recorder is an Ingester that logs every call.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) log(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) GetOrCreateWebConcept(_ context.Context, url string) (graph.Node, error) {
	r.log("web %s", url)
	return graph.Node{Type: graph.TypeWebConcept, URI: graph.WebConceptURI(url)}, nil
}

func (r *recorder) GetOrCreateRelation(_ context.Context, name string) (graph.Node, error) {
	r.log("relation %s", name)
	return graph.Node{Type: graph.TypeRelation, URI: graph.RelationURI(name)}, nil
}

func (r *recorder) GetOrCreateSource(_ context.Context, segments []string) (graph.Node, error) {
	r.log("source %s", strings.Join(segments, "/"))
	return graph.Node{Type: graph.TypeSource, URI: graph.SourceURI(segments)}, nil
}

func (r *recorder) GetOrCreateAssertion(_ context.Context, rel graph.Ref, args []graph.Ref, _ graph.Properties) (graph.Node, error) {
	r.log("assert %d args", len(args))
	return graph.Node{Type: graph.TypeAssertion, URI: "/assertion/x"}, nil
}

func (r *recorder) Justify(_ context.Context, source, target graph.Ref, weight float64) (graph.Edge, error) {
	r.log("justify %v", weight)
	return graph.Edge{Type: graph.EdgeJustifies}, nil
}

func TestRun_RecordsTypes(t *testing.T) {
	srv := newTestServer(t)
	rec := &recorder{}
	h := &Harvester{Graph: rec, BaseURL: srv.URL + "/page/", Concurrency: 2}

	res, err := h.Run(context.Background(), strings.NewReader("Dog\n\nRock\nMissing\n"))
	require.NoError(t, err)

	assert.Equal(t, Result{Titles: 3, Pages: 2, Assertions: 2, Skipped: 2}, res)
	assert.Equal(t, []string{
		"relation rdf:type",
		"source web/dbpedia.org",
		"web " + srv.URL + "/page/Dog",
		"web http://dbpedia.org/ontology/Animal",
		"assert 2 args",
		"justify 1",
		"web http://dbpedia.org/ontology/Mammal",
		"assert 2 args",
		"justify 1",
	}, rec.calls)
}

func TestRun_PreservesTitleOrder(t *testing.T) {
	var titles []string
	mux := http.NewServeMux()
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("T%d", i)
		titles = append(titles, name)
		mux.HandleFunc("/page/"+name, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `<a class="uri" href="%s">t</a><ul><li><a href="http://x/%s">x</a></li></ul>`, rdfTypeURI, name)
		})
	}
	srv := httptest.NewServer(mux)
	defer srv.Close()

	rec := &recorder{}
	h := &Harvester{Graph: rec, BaseURL: srv.URL + "/page/", Concurrency: 3}
	res, err := h.Run(context.Background(), strings.NewReader(strings.Join(titles, "\n")))
	require.NoError(t, err)
	assert.Equal(t, 10, res.Assertions)

	var pages []string
	for _, c := range rec.calls {
		if strings.HasPrefix(c, "web "+srv.URL) {
			pages = append(pages, strings.TrimPrefix(c, "web "+srv.URL+"/page/"))
		}
	}
	assert.Equal(t, titles, pages)
}

func TestRun_Cancelled(t *testing.T) {
	srv := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := &Harvester{Graph: &recorder{}, BaseURL: srv.URL + "/page/"}
	_, err := h.Run(ctx, strings.NewReader("Dog\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_RequiresGraph(t *testing.T) {
	_, err := (&Harvester{}).Run(context.Background(), strings.NewReader("Dog\n"))
	assert.Error(t, err)
}

func TestRun_LiveGraph(t *testing.T) {
	srv := newTestServer(t)
	s, err := store.Open(filepath.Join(t.TempDir(), "harvest.db"))
	require.NoError(t, err)
	g := graph.New(s)
	defer g.Close()
	ctx := context.Background()

	h := &Harvester{Graph: g, BaseURL: srv.URL + "/page/"}
	res, err := h.Run(ctx, strings.NewReader("Dog\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Assertions)

	rel, found, err := g.GetNode(ctx, "/relation/rdf:type")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, rdfTypeURI, rel.Props[sameAsKey])

	var assertions int
	for n, err := range g.FindNodes(ctx, "/assertion/*") {
		require.NoError(t, err)
		parts, err := g.GetRelAndArgs(ctx, n)
		require.NoError(t, err)
		assert.Equal(t, rel.ID, parts[0].ID)
		assert.Equal(t, graph.WebConceptURI(srv.URL+"/page/Dog"), parts[1].URI)
		assertions++
	}
	assert.Equal(t, 2, assertions)

	src, found, err := g.GetNode(ctx, "/source/web/dbpedia.org")
	require.NoError(t, err)
	require.True(t, found)
	justified, err := g.Store().IncidentEdges(ctx, src.ID, graph.Outgoing, graph.EdgeJustifies)
	require.NoError(t, err)
	assert.Len(t, justified, 2)
}

func TestRun_ExportKeepsRelationProps(t *testing.T) {
	srv := newTestServer(t)
	var buf bytes.Buffer
	w, err := export.New(&buf, export.WithRecencyWindow(2))
	require.NoError(t, err)

	h := &Harvester{Graph: w, BaseURL: srv.URL + "/page/"}
	res, err := h.Run(context.Background(), strings.NewReader("Dog\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, 2, res.Assertions)

	var relLines int
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.HasPrefix(line, "makeNode('/relation/rdf:type'") {
			relLines++
			assert.Contains(t, line, rdfTypeURI)
		}
	}
	assert.Greater(t, relLines, 1, "relation should be re-emitted after leaving the window")
}

func TestPageURL(t *testing.T) {
	h := &Harvester{}
	assert.Equal(t, "http://dbpedia.org/page/New_York_City", h.PageURL("New York City"))
}

func TestExtractTypes(t *testing.T) {
	types, err := ExtractTypes(strings.NewReader(dogPage))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"http://dbpedia.org/ontology/Animal",
		"http://dbpedia.org/ontology/Mammal",
	}, types)
}

func TestExtractTypes_NoAnchor(t *testing.T) {
	types, err := ExtractTypes(strings.NewReader(rockPage))
	require.NoError(t, err)
	assert.Empty(t, types)
}

func TestExtractTypes_NestedList(t *testing.T) {
	page := `<a class="uri" href="` + rdfTypeURI + `">t</a>
<ul><li><a href="http://x/A">A</a><ul><li><a href="http://x/B">B</a></li></ul></li></ul>
<ul><li><a href="http://x/after">no</a></li></ul>`

	types, err := ExtractTypes(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, []string{"http://x/A", "http://x/B"}, types)
}
