// Package testbed builds disposal trees from declarative scenarios and
// drains them, recording release order, faults, and timing.
//
// A scenario is a YAML document describing a tree of simulated resources:
//
//	name: web-server-teardown
//	mode: async
//	timeout: 2s
//	resources:
//	  - name: listener
//	    kind: immediate
//	  - name: sessions
//	    kind: composite
//	    children:
//	      - name: session-1
//	        kind: async
//	        delay: 50ms
//	      - name: session-2
//	        kind: async
//	        fail: "connection reset"
//
// Each leaf simulates its release shape: immediate resources block for
// their delay, asynchronous resources wait on a timer while honoring the
// cancellation token, and either can fail with a configured message.
// Composite nodes become nested coordinators.
//
// The Runner drains the tree through the real disposal machinery and
// returns a Report. An observer callback streams events live, which is
// what the cmd/run TUI consumes.
package testbed
