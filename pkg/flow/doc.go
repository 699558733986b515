// Package flow provides a step-based workflow framework.
//
// A flow is a directed acyclic graph of steps built once with the Add
// functions: linear steps with a single successor, fanout steps whose
// branches run as parallel tasks, and join steps that collect one input per
// branch once every branch has succeeded. Each step executes as an isolated
// task that produces named, write-once artifacts consumed by downstream
// tasks.
//
// The runner walks the graph in dependency order and fails fast: the first
// task failure marks the run failed, running siblings finish best-effort and
// no partial join is ever admitted.
//
// Profiling scopes measure arbitrary blocks of work inside a step body and
// aggregate their timings across concurrently executing branches; see the
// profile subpackage.
package flow
