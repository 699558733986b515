// Package model provides the data structures for the flow package.
// It defines the step records that make up a flow graph, the task and run
// statuses, and the option interface used to hook into the flow lifecycle.
package model
