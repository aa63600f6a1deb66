package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/conceptgraph/internal/graph"
)

// Scenario is a sequence of graph operations with expectations about their
// outcome and about the final graph.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Setup establishes initial state. Every setup step must succeed.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow is the sequence under test.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final graph.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one graph operation. Which fields apply depends on Op.
type Step struct {
	Op string `yaml:"op"`

	// URI is the node for node and delete.
	URI string `yaml:"uri,omitempty"`

	// Relation and Args describe an assertion; Args alone lists conjuncts.
	Relation string   `yaml:"relation,omitempty"`
	Args     []string `yaml:"args,omitempty"`

	// Source and Target are the endpoints for edge, justify and normalize.
	Source string `yaml:"source,omitempty"`
	Target string `yaml:"target,omitempty"`

	// Edge is the edge type for the edge op.
	Edge string `yaml:"edge,omitempty"`

	// Weight defaults to 1.
	Weight *float64 `yaml:"weight,omitempty"`

	Props map[string]any `yaml:"props,omitempty"`

	// Expect checks the outcome. Nil means the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the expected outcome of a step.
type Expect struct {
	// URI is the expected URI of the produced node.
	URI string `yaml:"uri,omitempty"`

	// Error is the expected graph error code, e.g. INTEGRITY. VALIDATION
	// also matches MALFORMED_URI.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the final graph.
type Assertion struct {
	Type string `yaml:"type"`

	// URI is the node checked by node_exists, node_absent, node_props, args.
	URI string `yaml:"uri,omitempty"`

	// Pattern is the wildcard pattern for node_count.
	Pattern string `yaml:"pattern,omitempty"`

	// Edge, Source and Target select edges for edge_count. At least one of
	// Source and Target is required.
	Edge   string `yaml:"edge,omitempty"`
	Source string `yaml:"source,omitempty"`
	Target string `yaml:"target,omitempty"`

	// Args is the expected argument order for args.
	Args []string `yaml:"args,omitempty"`

	// Props is a subset of expected properties for node_props.
	Props map[string]any `yaml:"props,omitempty"`

	// Count is the expected number for node_count and edge_count.
	Count int `yaml:"count,omitempty"`
}

// Operation names.
const (
	OpNode        = "node"
	OpAssert      = "assert"
	OpConjunction = "conjunction"
	OpEdge        = "edge"
	OpJustify     = "justify"
	OpNormalize   = "normalize"
	OpDelete      = "delete"
)

// Assertion type constants.
const (
	AssertNodeExists = "node_exists"
	AssertNodeAbsent = "node_absent"
	AssertNodeCount  = "node_count"
	AssertNodeProps  = "node_props"
	AssertArgs       = "args"
	AssertEdgeCount  = "edge_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: expect is not allowed in setup", i)
		}
	}
	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(s Step) error {
	switch s.Op {
	case OpNode, OpDelete:
		if s.URI == "" {
			return fmt.Errorf("uri is required for %s", s.Op)
		}
	case OpAssert:
		if s.Relation == "" || len(s.Args) == 0 {
			return fmt.Errorf("relation and args are required for assert")
		}
	case OpConjunction:
		if len(s.Args) == 0 {
			return fmt.Errorf("args are required for conjunction")
		}
	case OpEdge:
		if !graph.EdgeType(s.Edge).Valid() {
			return fmt.Errorf("unknown edge type %q", s.Edge)
		}
		fallthrough
	case OpJustify, OpNormalize:
		if s.Source == "" || s.Target == "" {
			return fmt.Errorf("source and target are required for %s", s.Op)
		}
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", s.Op)
	}
	if s.Expect != nil && s.Expect.URI != "" && s.Expect.Error != "" {
		return fmt.Errorf("expect: uri and error are mutually exclusive")
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertNodeExists, AssertNodeAbsent:
		if a.URI == "" {
			return fmt.Errorf("uri is required for %s", a.Type)
		}
	case AssertNodeProps:
		if a.URI == "" || len(a.Props) == 0 {
			return fmt.Errorf("uri and props are required for node_props")
		}
	case AssertArgs:
		if a.URI == "" {
			return fmt.Errorf("uri is required for args")
		}
	case AssertNodeCount:
		if a.Pattern == "" {
			return fmt.Errorf("pattern is required for node_count")
		}
	case AssertEdgeCount:
		if !graph.EdgeType(a.Edge).Valid() {
			return fmt.Errorf("unknown edge type %q", a.Edge)
		}
		if a.Source == "" && a.Target == "" {
			return fmt.Errorf("source or target is required for edge_count")
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	if a.Count < 0 {
		return fmt.Errorf("count must be non-negative")
	}
	return nil
}
