package render

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/taskcal/internal/calendar"
	"github.com/kingrea/taskcal/internal/graph"
	"github.com/kingrea/taskcal/internal/plan"
	"github.com/kingrea/taskcal/internal/schedule"
)

const planYAML = `
id: launch
tasks:
  - id: "1"
    name: Design
  - id: "2"
    name: Build
    depends_on: ["1"]
  - id: "3"
    name: Docs
    depends_on: ["1"]
  - id: "4"
    name: Retro
`

func scheduled(t *testing.T, capacity schedule.Capacity) (plan.Definition, *schedule.Result) {
	t.Helper()
	def, err := plan.ParseDefinitionYAML([]byte(planYAML))
	if err != nil {
		t.Fatalf("parse plan: %v", err)
	}
	g, err := graph.Build(def.Edges())
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	cfg := schedule.DefaultConfig(calendar.Date(2025, time.January, 6))
	cfg.MaxTasksPerDay = capacity
	res, err := schedule.Schedule(g, cfg)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	return def, res
}

func TestTableListsTasksAndSummary(t *testing.T) {
	def, res := scheduled(t, schedule.Uncapped())
	out := Table(res, def.Names(), def.Isolated())
	for _, want := range []string{"TASK", "Design", "Build", "2025-01-06", "2025-01-07", "policy layered", "Not scheduled (no dependencies): Retro"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestSummary(t *testing.T) {
	_, res := scheduled(t, schedule.CapAt(1))
	want := "3 tasks over 3 start dates, 2025-01-06 to 2025-01-08 (policy batched(1/day), 1-day tasks, weekend sunday,saturday)"
	if got := Summary(res); got != want {
		t.Fatalf("summary = %q, want %q", got, want)
	}
}

func TestYAMLDocument(t *testing.T) {
	def, res := scheduled(t, schedule.CapAt(2))
	out, err := YAML(res, def.Names(), def.Isolated())
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	var doc Document
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.MaxTasksPerDay == nil || *doc.MaxTasksPerDay != 2 {
		t.Fatalf("max tasks per day = %v", doc.MaxTasksPerDay)
	}
	want := []Entry{
		{ID: "1", Name: "Design", StartOn: "2025-01-06", DueOn: "2025-01-06", Slot: 0},
		{ID: "2", Name: "Build", StartOn: "2025-01-07", DueOn: "2025-01-07", Slot: 1},
		{ID: "3", Name: "Docs", StartOn: "2025-01-07", DueOn: "2025-01-07", Slot: 1},
	}
	if diff := cmp.Diff(want, doc.Tasks); diff != "" {
		t.Fatalf("tasks mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"4"}, doc.Unscheduled); diff != "" {
		t.Fatalf("unscheduled mismatch (-want +got):\n%s", diff)
	}
}

func TestDependencies(t *testing.T) {
	def, _ := scheduled(t, schedule.Uncapped())
	want := "Task: Design | Dependencies: No dependencies\n" +
		"Task: Build | Dependencies: Design\n" +
		"Task: Docs | Dependencies: Design\n" +
		"Task: Retro | Dependencies: No dependencies\n"
	if got := Dependencies(def); got != want {
		t.Fatalf("dependencies output:\n%s", got)
	}
}

func TestDependents(t *testing.T) {
	def, _ := scheduled(t, schedule.Uncapped())
	g, err := graph.Build(def.Edges())
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	want := "Task: Design | Needed by: Build, Docs\n" +
		"Task: Build | Needed by: No dependents\n" +
		"Task: Docs | Needed by: No dependents\n" +
		"Task: Retro | Needed by: No dependents\n"
	if got := Dependents(def, g); got != want {
		t.Fatalf("dependents output:\n%s", got)
	}
}
