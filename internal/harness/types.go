package harness

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq   int    `json:"seq"`
	Op    string `json:"op"`
	Input string `json:"input,omitempty"`

	// Result is the URI of the node produced, or type(start, end) for edges.
	Result string `json:"result,omitempty"`

	// Error is the graph error code when the step failed.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace lists setup and flow steps in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains one message per failed expectation.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addTrace appends an event, numbering it.
func (r *Result) addTrace(ev TraceEvent) {
	ev.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, ev)
}
