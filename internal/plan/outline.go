package plan

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ParseOutline reads the plain outline format: a line names a task, the
// `* name` lines that follow list its prerequisites, and a blank line ends
// the block. Lines starting with '#' are comments. A heading that repeats
// adds to the earlier block. Prerequisites never given their own heading
// are declared as tasks after all headed ones. Tasks are keyed by name; use
// ResolveNames to switch to tracker identifiers.
func ParseOutline(id string, r io.Reader) (Definition, error) {
	def := Definition{ID: id}
	index := make(map[string]int)
	var implicit []string
	implicitSeen := make(map[string]struct{})
	current := -1

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			current = -1
		case strings.HasPrefix(line, "#"):
			continue
		case strings.HasPrefix(line, "*"):
			if current < 0 {
				return Definition{}, fmt.Errorf("plan: outline line %d: dependency %q has no task heading", lineNo, line)
			}
			dep := strings.TrimSpace(strings.TrimLeft(line, "*"))
			if dep == "" {
				return Definition{}, fmt.Errorf("plan: outline line %d: empty dependency", lineNo)
			}
			def.Tasks[current].DependsOn = append(def.Tasks[current].DependsOn, dep)
			if _, ok := implicitSeen[dep]; !ok {
				implicitSeen[dep] = struct{}{}
				implicit = append(implicit, dep)
			}
		default:
			pos, ok := index[line]
			if !ok {
				pos = len(def.Tasks)
				index[line] = pos
				def.Tasks = append(def.Tasks, TaskRef{Name: line})
			}
			current = pos
		}
	}
	if err := scanner.Err(); err != nil {
		return Definition{}, fmt.Errorf("plan: read outline: %w", err)
	}
	for _, name := range implicit {
		if _, ok := index[name]; ok {
			continue
		}
		index[name] = len(def.Tasks)
		def.Tasks = append(def.Tasks, TaskRef{Name: name})
	}
	return def.Normalized()
}

// ParseNameMap reads `name, identifier` lines into a map. Lines without a
// comma are skipped and a repeated name keeps its last identifier.
func ParseNameMap(r io.Reader) (map[string]string, error) {
	names := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, ",") {
			continue
		}
		parts := strings.SplitN(line, ",", 2)
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		names[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("plan: read name map: %w", err)
	}
	return names, nil
}
