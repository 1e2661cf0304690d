// Package graph builds the dependency graph the scheduler consumes. It turns
// flat (prerequisite, dependent) pairs into an index-based directed graph,
// rejects cycles, and exposes the frontier layers and global topological
// order the scheduling policies walk.
package graph
