// Package schedule assigns start and due dates to the nodes of a validated
// dependency graph. Two policies are available: Layered gives every task of
// a dependency layer the same start date with no daily limit, Batched walks
// one global topological order in fixed-size daily batches. The package is
// a pure computation; runs share no state and may execute in parallel.
package schedule
