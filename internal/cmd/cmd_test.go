package cmd

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/taskcal/internal/config"
	"github.com/kingrea/taskcal/internal/graph"
	"github.com/kingrea/taskcal/internal/render"
	"github.com/kingrea/taskcal/internal/schedule"
	"github.com/kingrea/taskcal/internal/tracker"
)

const diamondPlan = `
id: launch
tasks:
  - id: A
    name: Design
  - id: B
    name: Build
    depends_on: [A]
  - id: C
    name: Docs
    depends_on: [A]
  - id: D
    name: Ship
    depends_on: [B, C]
`

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{config.EnvStartDate, config.EnvDurationDays, config.EnvMaxTasksPerDay, config.EnvWeekend} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(strings.TrimLeft(content, "\n")), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	full := append([]string{"taskcal", "--dir", dir}, args...)
	err := newApp(&out, BuildArgs{Version: "test"}).Run(full)
	return out.String(), err
}

func decode(t *testing.T, out string) render.Document {
	t.Helper()
	var doc render.Document
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	return doc
}

func starts(doc render.Document) map[string]string {
	out := make(map[string]string, len(doc.Tasks))
	for _, e := range doc.Tasks {
		out[e.ID] = e.StartOn
	}
	return out
}

func TestScheduleYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	planPath := writeFile(t, filepath.Join(dir, "plan.yaml"), diamondPlan)
	out, err := run(t, dir, "schedule", "--plan", planPath, "--start", "2025-01-06", "--format", "yaml")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	doc := decode(t, out)
	want := map[string]string{"A": "2025-01-06", "B": "2025-01-07", "C": "2025-01-07", "D": "2025-01-08"}
	if diff := cmp.Diff(want, starts(doc)); diff != "" {
		t.Fatalf("start dates mismatch (-want +got):\n%s", diff)
	}
	if doc.Policy != schedule.PolicyLayered {
		t.Fatalf("policy = %s", doc.Policy)
	}
}

func TestScheduleLinesWithCap(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	planPath := writeFile(t, filepath.Join(dir, "plan.yaml"), diamondPlan)
	out, err := run(t, dir, "schedule", "-p", planPath, "-s", "2025-01-06", "-m", "1", "-f", "lines")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	want := "Task Design (A) scheduled from 2025-01-06 to 2025-01-06\n" +
		"Task Build (B) scheduled from 2025-01-07 to 2025-01-07\n" +
		"Task Docs (C) scheduled from 2025-01-08 to 2025-01-08\n" +
		"Task Ship (D) scheduled from 2025-01-09 to 2025-01-09\n"
	if out != want {
		t.Fatalf("lines output:\n%s", out)
	}
}

func TestScheduleOptionPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".taskcal", "config.yaml"), `
version: 1
plan: plan.yaml
schedule:
  start: 2025-01-06
  duration_days: 3
  max_tasks_per_day: 1
`)
	writeFile(t, filepath.Join(dir, "plan.yaml"), diamondPlan+`
schedule:
  duration_days: 1
`)
	t.Setenv(config.EnvMaxTasksPerDay, "2")

	out, err := run(t, dir, "schedule", "--format", "yaml")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	doc := decode(t, out)
	if doc.StartDate != "2025-01-06" || doc.DurationDays != 1 {
		t.Fatalf("config and plan values not layered: %+v", doc)
	}
	if doc.MaxTasksPerDay == nil || *doc.MaxTasksPerDay != 2 {
		t.Fatalf("environment should override the config cap, got %v", doc.MaxTasksPerDay)
	}

	out, err = run(t, dir, "schedule", "--format", "yaml", "--uncapped", "--duration", "2")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	doc = decode(t, out)
	if doc.MaxTasksPerDay != nil || doc.Policy != schedule.PolicyLayered || doc.DurationDays != 2 {
		t.Fatalf("flags should win: %+v", doc)
	}
}

func TestScheduleWritesUpdateFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	planPath := writeFile(t, filepath.Join(dir, "plan.yaml"), diamondPlan)
	outPath := filepath.Join(dir, "out", "dates.yaml")
	out, err := run(t, dir, "schedule", "--plan", planPath, "--start", "2025-01-06", "--out", outPath)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if !strings.Contains(out, "4 tasks over 3 start dates") {
		t.Fatalf("table summary missing:\n%s", out)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("update file: %v", err)
	}
	var decoded struct {
		Updates []tracker.DateUpdate `yaml:"updates"`
	}
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.Updates) != 4 || decoded.Updates[3].DueOn != "2025-01-08" {
		t.Fatalf("unexpected updates %+v", decoded.Updates)
	}
}

func TestScheduleRejectsBadInput(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	planPath := writeFile(t, filepath.Join(dir, "plan.yaml"), diamondPlan)

	if _, err := run(t, dir, "schedule", "--plan", planPath, "--format", "csv"); err == nil {
		t.Fatalf("expected unknown format error")
	}
	if _, err := run(t, dir, "schedule", "--plan", planPath, "--uncapped", "--max-per-day", "2"); err == nil {
		t.Fatalf("expected conflicting flag error")
	}
	_, err := run(t, dir, "schedule", "--plan", planPath, "--max-per-day", "0")
	if !errors.Is(err, schedule.ErrInvalidConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
	_, err = run(t, dir, "schedule", "--plan", planPath, "--duration", "0")
	if !errors.Is(err, schedule.ErrInvalidConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestScheduleCycleIsJournaled(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if _, err := run(t, dir, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	planPath := writeFile(t, filepath.Join(dir, "loop.yaml"), `
id: loop
tasks:
  - id: A
    depends_on: [B]
  - id: B
    depends_on: [A]
`)
	out, err := run(t, dir, "schedule", "--plan", planPath, "--start", "2025-01-06")
	if !errors.Is(err, graph.ErrCycle) {
		t.Fatalf("expected cycle error, got %v", err)
	}
	if strings.Contains(out, "scheduled") {
		t.Fatalf("cycle must not print a schedule:\n%s", out)
	}
	logOut, err := run(t, dir, "log")
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if !strings.Contains(logOut, "ERROR plan loop: dependency cycle") {
		t.Fatalf("journal missing cycle entry:\n%s", logOut)
	}
}

func TestDepsOutline(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	planPath := writeFile(t, filepath.Join(dir, "tasks.txt"), `
Build site
* Design mockups
* Buy domain

Write docs
* Build site
`)
	out, err := run(t, dir, "deps", planPath)
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	want := "Task: Build site | Dependencies: Design mockups, Buy domain\n" +
		"Task: Write docs | Dependencies: Build site\n" +
		"Task: Design mockups | Dependencies: No dependencies\n" +
		"Task: Buy domain | Dependencies: No dependencies\n"
	if out != want {
		t.Fatalf("deps output:\n%s", out)
	}
}

func TestInitThenScheduleDefaultPlan(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "plans", "q1.yaml"), diamondPlan)
	out, err := run(t, dir, "init", "--plan", "plans/q1.yaml")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "initialized .taskcal") {
		t.Fatalf("init output: %s", out)
	}
	out, err = run(t, dir, "schedule", "--start", "2025-01-06", "--format", "yaml")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if got := len(decode(t, out).Tasks); got != 4 {
		t.Fatalf("scheduled %d tasks from the default plan, want 4", got)
	}
	logOut, err := run(t, dir, "log", "--lines", "1")
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if !strings.Contains(logOut, "plan launch: 4 tasks over 3 start dates") || !strings.Contains(logOut, "(showing 1 of") {
		t.Fatalf("log output:\n%s", logOut)
	}
}

func TestLogWithoutRuns(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	out, err := run(t, dir, "log")
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if !strings.Contains(out, "no runs recorded") {
		t.Fatalf("log output: %s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, config.Dir)); !os.IsNotExist(err) {
		t.Fatalf("log created %s in an uninitialised project (stat err %v)", config.Dir, err)
	}
}

func TestScheduleLeavesUninitialisedProjectUntouched(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	planPath := writeFile(t, filepath.Join(dir, "plan.yaml"), diamondPlan)
	if _, err := run(t, dir, "schedule", "--plan", planPath, "--start", "2025-01-06"); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, config.Dir)); !os.IsNotExist(err) {
		t.Fatalf("schedule created %s in an uninitialised project (stat err %v)", config.Dir, err)
	}
}

func TestSchedulePlanFromStdin(t *testing.T) {
	clearEnv(t)
	defer func(prev io.Reader) { stdin = prev }(stdin)
	stdin = strings.NewReader(diamondPlan)
	out, err := run(t, t.TempDir(), "schedule", "--plan", "-", "--start", "2025-01-06", "--format", "yaml")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if got := starts(decode(t, out))["D"]; got != "2025-01-08" {
		t.Fatalf("D starts %s, want 2025-01-08", got)
	}
}

func TestDepsReverse(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	planPath := writeFile(t, filepath.Join(dir, "plan.yaml"), diamondPlan)
	out, err := run(t, dir, "deps", "--reverse", planPath)
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	want := "Task: Design | Needed by: Build, Docs\n" +
		"Task: Build | Needed by: Ship\n" +
		"Task: Docs | Needed by: Ship\n" +
		"Task: Ship | Needed by: No dependents\n"
	if out != want {
		t.Fatalf("reverse deps output:\n%s", out)
	}
}
