// Package harness runs graph scenarios as executable contract tests.
//
// A scenario is a YAML file listing graph operations and the state the
// graph must end up in. Each scenario runs against a fresh in-memory SQLite
// store unless the caller supplies a graph.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	setup:
//	  - op: node
//	    uri: /source/contributor/alice
//	flow:
//	  - op: assert
//	    relation: /relation/IsA
//	    args: [/concept/en/dog, /concept/en/animal]
//	    expect:
//	      uri: '/assertion/["/relation/IsA","/concept/en/dog","/concept/en/animal"]'
//	  - op: delete
//	    uri: /concept/en/dog
//	    expect:
//	      error: INTEGRITY
//	assertions:
//	  - type: node_exists
//	    uri: /concept/en/dog
//	  - type: edge_count
//	    edge: justifies
//	    target: /concept/en/dog
//	    count: 0
//
// # Operations
//
//   - node: get or create the node at uri, with props on creation
//   - assert: get or create the assertion of relation over args
//   - conjunction: get or create the conjunction of args
//   - edge: get or create an edge of type edge from source to target
//   - justify: justify target by source with weight (default 1)
//   - normalize: derive target as the normalized form of source
//   - delete: integrity-checked deletion of uri
//
// Setup steps must succeed. Flow steps are checked against their expect
// clause; a flow step without one must succeed.
//
// # Assertion Types
//
//   - node_exists / node_absent: exact lookup of uri
//   - node_count: number of nodes matching a wildcard pattern
//   - node_props: subset match of a node's properties
//   - args: an assertion's arguments in position order
//   - edge_count: number of edges of a type leaving source and/or
//     entering target
//
// Every executed step is recorded in the result trace, which golden tests
// compare against testdata/golden/<scenario>.golden.
package harness
