package export

import "github.com/roach88/conceptgraph/internal/graph"

// DefaultRecencyWindow is how many recently emitted nodes a Writer
// remembers.
const DefaultRecencyWindow = 20

// recentNodes is a fixed-size ring of the most recently emitted nodes.
// Lookups are linear; the window is small.
type recentNodes struct {
	buf  []graph.Node
	next int
	full bool
}

func newRecentNodes(size int) *recentNodes {
	if size < 1 {
		size = 1
	}
	return &recentNodes{buf: make([]graph.Node, size)}
}

// add records n, evicting the oldest entry once the ring is full.
func (r *recentNodes) add(n graph.Node) {
	r.buf[r.next] = n
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
}

// get returns the remembered node with URI u.
func (r *recentNodes) get(u string) (graph.Node, bool) {
	for _, n := range r.buf[:r.len()] {
		if n.URI == u {
			return n, true
		}
	}
	return graph.Node{}, false
}

func (r *recentNodes) len() int {
	if r.full {
		return len(r.buf)
	}
	return r.next
}
