// Package harvest imports rdf:type facts from DBpedia pages into a graph.
package harvest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/conceptgraph/internal/graph"
	"github.com/roach88/conceptgraph/internal/logging"
)

const (
	// DefaultBaseURL is prefixed to every title to form the page URL.
	DefaultBaseURL = "http://dbpedia.org/page/"

	// DefaultConcurrency bounds simultaneous page fetches.
	DefaultConcurrency = 4

	typeRelation = "rdf:type"
	sameAsKey    = "owl:sameAs"
	rdfTypeURI   = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

	maxPageBytes = 8 << 20
)

// sourcePath names the provenance node, /source/web/dbpedia.org.
var sourcePath = []string{"web", "dbpedia.org"}

// Ingester is the part of the graph API a harvest needs. Both the live
// graph and the export writer satisfy it.
type Ingester interface {
	GetOrCreateWebConcept(ctx context.Context, url string) (graph.Node, error)
	GetOrCreateRelation(ctx context.Context, name string) (graph.Node, error)
	GetOrCreateSource(ctx context.Context, segments []string) (graph.Node, error)
	GetOrCreateAssertion(ctx context.Context, relation graph.Ref, args []graph.Ref, props graph.Properties) (graph.Node, error)
	Justify(ctx context.Context, source, target graph.Ref, weight float64) (graph.Edge, error)
}

// nodeCreator is implemented by ingesters that accept creation properties.
// The harvester uses it to tag the relation with owl:sameAs.
type nodeCreator interface {
	GetOrCreateNode(ctx context.Context, u string, props graph.Properties) (graph.Node, error)
}

// Harvester fetches DBpedia pages and records each page's types as
// rdf:type assertions justified by the DBpedia source.
type Harvester struct {
	Graph       Ingester
	Client      *http.Client
	BaseURL     string
	Concurrency int
	Logger      *log.Logger
}

// Result summarizes a run.
type Result struct {
	Titles     int `json:"titles"`
	Pages      int `json:"pages"`
	Assertions int `json:"assertions"`
	Skipped    int `json:"skipped"`
}

// page is one fetched title.
type page struct {
	title string
	url   string
	types []string
	ok    bool
}

// Run reads one title per line from titles and harvests each page.
//
// Pages are fetched concurrently, in batches, and written to the graph in
// title order. Titles that cannot be fetched, or whose page lists no
// types, are logged and counted as skipped. A graph error ends the run.
func (h *Harvester) Run(ctx context.Context, titles io.Reader) (Result, error) {
	if h.Graph == nil {
		return Result{}, errors.New("harvest: graph required")
	}
	h.defaults()

	var (
		res   Result
		batch []string
		state runState
	)
	flush := func() error {
		pages, err := h.fetchAll(ctx, batch)
		if err != nil {
			return err
		}
		for _, p := range pages {
			if err := h.record(ctx, &state, &res, p); err != nil {
				return err
			}
		}
		batch = batch[:0]
		return nil
	}

	scanner := bufio.NewScanner(titles)
	for scanner.Scan() {
		line := scanner.Bytes()
		if !utf8.Valid(line) {
			h.Logger.Warn("could not decode title", "line", fmt.Sprintf("%q", line))
			res.Titles++
			res.Skipped++
			continue
		}
		title := strings.TrimSpace(string(line))
		if title == "" {
			continue
		}
		res.Titles++
		batch = append(batch, title)
		if len(batch) == h.Concurrency*4 {
			if err := flush(); err != nil {
				return res, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("read titles: %w", err)
	}
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return res, err
		}
	}

	h.Logger.Info("harvest finished", "titles", res.Titles, "pages", res.Pages,
		"assertions", res.Assertions, "skipped", res.Skipped)
	return res, nil
}

func (h *Harvester) defaults() {
	if h.Client == nil {
		h.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if h.BaseURL == "" {
		h.BaseURL = DefaultBaseURL
	}
	if h.Concurrency <= 0 {
		h.Concurrency = DefaultConcurrency
	}
	if h.Logger == nil {
		h.Logger = logging.Discard()
	}
}

// PageURL returns the DBpedia page URL for a title. Spaces become
// underscores, as in Wikipedia titles.
func (h *Harvester) PageURL(title string) string {
	base := h.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return base + strings.ReplaceAll(title, " ", "_")
}

// fetchAll fetches a batch of titles with bounded concurrency. Fetch
// failures are recorded on the page; only cancellation is an error.
func (h *Harvester) fetchAll(ctx context.Context, titles []string) ([]page, error) {
	pages := make([]page, len(titles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.Concurrency)
	for i, title := range titles {
		g.Go(func() error {
			p := page{title: title, url: h.PageURL(title)}
			types, err := h.fetchTypes(gctx, p.url)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				h.Logger.Warn("could not get page", "title", title, "err", err)
			} else {
				p.types, p.ok = types, true
			}
			pages[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

func (h *Harvester) fetchTypes(ctx context.Context, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")
	req.Header.Set("User-Agent", "conceptgraph-harvest/1.0")

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %s", resp.Status)
	}
	return ExtractTypes(io.LimitReader(resp.Body, maxPageBytes))
}

// runState holds the nodes shared by every assertion of a run, created on
// first use.
type runState struct {
	relation graph.Node
	source   graph.Node
	ready    bool
}

func (h *Harvester) record(ctx context.Context, st *runState, res *Result, p page) error {
	if !p.ok {
		res.Skipped++
		return nil
	}
	res.Pages++
	if len(p.types) == 0 {
		h.Logger.Warn("no types found", "title", p.title)
		res.Skipped++
		return nil
	}
	h.Logger.Info("found page", "title", p.title, "types", len(p.types))

	if !st.ready {
		if err := h.prepare(ctx, st); err != nil {
			return err
		}
	}

	concept, err := h.Graph.GetOrCreateWebConcept(ctx, p.url)
	if err != nil {
		return fmt.Errorf("harvest %q: %w", p.title, err)
	}
	for _, t := range p.types {
		typeConcept, err := h.Graph.GetOrCreateWebConcept(ctx, t)
		if err != nil {
			return fmt.Errorf("harvest %q: %w", p.title, err)
		}
		a, err := h.Graph.GetOrCreateAssertion(ctx, st.relation, []graph.Ref{concept, typeConcept}, nil)
		if err != nil {
			return fmt.Errorf("harvest %q: %w", p.title, err)
		}
		if _, err := h.Graph.Justify(ctx, st.source, a, graph.DefaultWeight); err != nil {
			return fmt.Errorf("harvest %q: %w", p.title, err)
		}
		res.Assertions++
	}
	return nil
}

func (h *Harvester) prepare(ctx context.Context, st *runState) error {
	var err error
	if nc, ok := h.Graph.(nodeCreator); ok {
		st.relation, err = nc.GetOrCreateNode(ctx, graph.RelationURI(typeRelation), graph.Properties{sameAsKey: rdfTypeURI})
	} else {
		st.relation, err = h.Graph.GetOrCreateRelation(ctx, typeRelation)
	}
	if err != nil {
		return fmt.Errorf("harvest: relation: %w", err)
	}
	if st.source, err = h.Graph.GetOrCreateSource(ctx, sourcePath); err != nil {
		return fmt.Errorf("harvest: source: %w", err)
	}
	st.ready = true
	return nil
}
