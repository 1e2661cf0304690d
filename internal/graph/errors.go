package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCycle marks a dependency graph that is not a DAG.
	ErrCycle = errors.New("dependency cycle")
	// ErrUnknownReference marks an edge naming a task the caller did not declare.
	ErrUnknownReference = errors.New("unknown task reference")
)

// CycleError reports the tasks that could not be stripped from the graph
// because they sit on, or downstream of, a cycle.
type CycleError struct {
	// Remaining lists every node left after frontier stripping, in node order.
	Remaining []TaskID
	// Path is one concrete cycle, closed by repeating its first node.
	Path []TaskID
}

func (e *CycleError) Error() string {
	if e == nil {
		return ""
	}
	if len(e.Path) > 0 {
		return fmt.Sprintf("%s: %s", ErrCycle, joinIDs(e.Path, " -> "))
	}
	return fmt.Sprintf("%s among %s", ErrCycle, joinIDs(e.Remaining, ", "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// UnknownReferenceError reports edge endpoints missing from the declared
// task set.
type UnknownReferenceError struct {
	IDs []TaskID
	// Context optionally names where the references came from.
	Context string
}

func (e *UnknownReferenceError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("%s: %s", ErrUnknownReference, joinIDs(e.IDs, ", "))
	if e.Context != "" {
		msg = e.Context + ": " + msg
	}
	return msg
}

func (e *UnknownReferenceError) Unwrap() error { return ErrUnknownReference }

func joinIDs(ids []TaskID, sep string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, sep)
}
