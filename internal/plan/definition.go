package plan

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/kingrea/taskcal/internal/graph"
)

// DependencyMap maps a task key to the keys of its prerequisites. It is an
// alternative to listing depends_on inline on each task.
type DependencyMap map[string][]string

// Clone returns a deep copy of the map.
func (m DependencyMap) Clone() DependencyMap {
	if len(m) == 0 {
		return nil
	}
	out := make(DependencyMap, len(m))
	for key, deps := range m {
		out[key] = cloneStrings(deps)
	}
	return out
}

// Definition declares the tasks of one project and how they depend on each
// other, plus optional scheduling overrides.
type Definition struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name,omitempty" yaml:"name,omitempty"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Tasks       []TaskRef     `json:"tasks" yaml:"tasks"`
	Graph       DependencyMap `json:"graph,omitempty" yaml:"graph,omitempty"`
	Schedule    ScheduleSpec  `json:"schedule,omitempty" yaml:"schedule,omitempty"`
}

// TaskRef describes one task. ID is the opaque tracker identifier; when it
// is empty the task is keyed by Name until ResolveNames maps it.
type TaskRef struct {
	ID        string   `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string   `json:"name,omitempty" yaml:"name,omitempty"`
	DependsOn []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
}

// Key returns the identifier the task is referenced by.
func (ref TaskRef) Key() string {
	if ref.ID != "" {
		return ref.ID
	}
	return ref.Name
}

// Label returns a human readable name for the task.
func (ref TaskRef) Label() string {
	if ref.Name != "" {
		return ref.Name
	}
	return ref.ID
}

// Clone returns a deep copy of the task reference.
func (ref TaskRef) Clone() TaskRef {
	return TaskRef{ID: ref.ID, Name: ref.Name, DependsOn: cloneStrings(ref.DependsOn)}
}

// Clone returns a deep copy of the definition.
func (def Definition) Clone() Definition {
	clone := Definition{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
		Graph:       def.Graph.Clone(),
		Schedule:    def.Schedule.Clone(),
	}
	if len(def.Tasks) > 0 {
		clone.Tasks = make([]TaskRef, len(def.Tasks))
		for i, ref := range def.Tasks {
			clone.Tasks[i] = ref.Clone()
		}
	}
	return clone
}

// Validate reports every problem found in the definition at once.
func (def Definition) Validate() error {
	var result *multierror.Error
	if def.ID == "" {
		result = multierror.Append(result, fmt.Errorf("plan: id is required"))
	}
	if len(def.Tasks) == 0 {
		result = multierror.Append(result, fmt.Errorf("plan %s: at least one task is required", def.ID))
	}
	seen := make(map[string]struct{}, len(def.Tasks))
	for idx, ref := range def.Tasks {
		key := ref.Key()
		if key == "" {
			result = multierror.Append(result, fmt.Errorf("plan %s task[%d]: id or name is required", def.ID, idx))
			continue
		}
		if _, exists := seen[key]; exists {
			result = multierror.Append(result, fmt.Errorf("plan %s: duplicate task %s", def.ID, key))
			continue
		}
		seen[key] = struct{}{}
	}
	var unknown []graph.TaskID
	reported := map[string]struct{}{}
	report := func(key string) {
		if _, ok := seen[key]; ok {
			return
		}
		if _, dup := reported[key]; dup {
			return
		}
		reported[key] = struct{}{}
		unknown = append(unknown, graph.TaskID(key))
	}
	for _, ref := range def.Tasks {
		for _, dep := range ref.DependsOn {
			report(dep)
		}
	}
	for _, key := range sortedKeys(def.Graph) {
		report(key)
		for _, dep := range def.Graph[key] {
			report(dep)
		}
	}
	if len(unknown) > 0 {
		result = multierror.Append(result, &graph.UnknownReferenceError{IDs: unknown, Context: "plan " + def.ID})
	}
	if err := def.Schedule.validate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("plan %s schedule: %w", def.ID, err))
	}
	return result.ErrorOrNil()
}

// Normalized clones the definition, trims identifiers, folds the graph map
// into each task's depends_on list, and validates the result.
func (def Definition) Normalized() (Definition, error) {
	clone := def.Clone()
	clone.ID = strings.TrimSpace(clone.ID)
	clone.Name = strings.TrimSpace(clone.Name)
	if clone.ID == "" && clone.Name != "" {
		clone.ID = slug(clone.Name)
	}
	for i := range clone.Tasks {
		ref := &clone.Tasks[i]
		ref.ID = strings.TrimSpace(ref.ID)
		ref.Name = strings.TrimSpace(ref.Name)
		ref.DependsOn = mergeDependencies(nil, ref.DependsOn)
	}
	for i := range clone.Tasks {
		ref := &clone.Tasks[i]
		if extra, ok := clone.Graph[ref.Key()]; ok {
			ref.DependsOn = mergeDependencies(ref.DependsOn, extra)
		}
	}
	if err := clone.Validate(); err != nil {
		return Definition{}, err
	}
	clone.Graph = nil
	return clone, nil
}

// Task returns the task with the given key.
func (def Definition) Task(key string) (TaskRef, bool) {
	for _, ref := range def.Tasks {
		if ref.Key() == key {
			return ref, true
		}
	}
	return TaskRef{}, false
}

// TaskIDs returns every task key in declaration order.
func (def Definition) TaskIDs() []graph.TaskID {
	out := make([]graph.TaskID, 0, len(def.Tasks))
	for _, ref := range def.Tasks {
		out = append(out, graph.TaskID(ref.Key()))
	}
	return out
}

// Names maps each task key to its display label.
func (def Definition) Names() map[graph.TaskID]string {
	out := make(map[graph.TaskID]string, len(def.Tasks))
	for _, ref := range def.Tasks {
		out[graph.TaskID(ref.Key())] = ref.Label()
	}
	return out
}

// Edges returns one (prerequisite, dependent) pair per declared dependency,
// ordered by task and then by dependency declaration.
func (def Definition) Edges() []graph.Edge {
	var edges []graph.Edge
	for _, ref := range def.Tasks {
		for _, dep := range ref.DependsOn {
			edges = append(edges, graph.Edge{
				Prerequisite: graph.TaskID(dep),
				Dependent:    graph.TaskID(ref.Key()),
			})
		}
	}
	return edges
}

// Isolated lists tasks that take part in no dependency relationship. They
// never enter the graph and are never scheduled.
func (def Definition) Isolated() []graph.TaskID {
	linked := make(map[string]struct{})
	for _, ref := range def.Tasks {
		if len(ref.DependsOn) == 0 {
			continue
		}
		linked[ref.Key()] = struct{}{}
		for _, dep := range ref.DependsOn {
			linked[dep] = struct{}{}
		}
	}
	var out []graph.TaskID
	for _, ref := range def.Tasks {
		if _, ok := linked[ref.Key()]; !ok {
			out = append(out, graph.TaskID(ref.Key()))
		}
	}
	return out
}

// ResolveNames rewrites a name-keyed definition to opaque identifiers using
// names (task name -> identifier). Tasks that already carry an ID keep it.
// Any name without a mapping fails with *graph.UnknownReferenceError.
func (def Definition) ResolveNames(names map[string]string) (Definition, error) {
	clone := def.Clone()
	keyToID := make(map[string]string, len(clone.Tasks))
	var missing []graph.TaskID
	for i := range clone.Tasks {
		ref := &clone.Tasks[i]
		if ref.ID != "" {
			keyToID[ref.ID] = ref.ID
			if ref.Name != "" {
				keyToID[ref.Name] = ref.ID
			}
			continue
		}
		id, ok := names[ref.Name]
		if !ok || strings.TrimSpace(id) == "" {
			missing = append(missing, graph.TaskID(ref.Name))
			continue
		}
		ref.ID = strings.TrimSpace(id)
		keyToID[ref.Name] = ref.ID
	}
	if len(missing) > 0 {
		return Definition{}, &graph.UnknownReferenceError{IDs: missing, Context: "name map"}
	}
	for i := range clone.Tasks {
		ref := &clone.Tasks[i]
		for j, dep := range ref.DependsOn {
			if id, ok := keyToID[dep]; ok {
				ref.DependsOn[j] = id
			}
		}
	}
	return clone.Normalized()
}

func mergeDependencies(base, extra []string) []string {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, values := range [][]string{base, extra} {
		for _, dep := range values {
			dep = strings.TrimSpace(dep)
			if dep == "" {
				continue
			}
			if _, ok := seen[dep]; ok {
				continue
			}
			seen[dep] = struct{}{}
			out = append(out, dep)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func slug(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	return strings.Join(strings.FieldsFunc(value, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}), "-")
}
