package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func noEnv(string) (string, bool) { return "", false }

func envOf(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func writeFile(t *testing.T, fsys afero.Fs, path, content string) {
	t.Helper()
	if err := afero.WriteFile(fsys, path, []byte(strings.TrimSpace(content)+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNewConfigDefaultsWhenMissing(t *testing.T) {
	fsys := afero.NewMemMapFs()
	c, err := NewConfig("/proj", WithFs(fsys), WithLookupEnv(noEnv))
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Project.Version)
	}
	if c.PlanPath() != filepath.Join("/proj", "plan.yaml") {
		t.Fatalf("unexpected default plan path %s", c.PlanPath())
	}
	if !c.ScheduleDefaults().IsZero() || !c.Env.IsZero() {
		t.Fatalf("expected no schedule overrides")
	}
	if c.Initialized() {
		t.Fatalf("project without .taskcal reported as initialised")
	}
}

func TestInitDirWritesLoadableConfig(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := InitDir(fsys, "/proj"); err != nil {
		t.Fatalf("InitDir: %v", err)
	}
	if ok, _ := afero.DirExists(fsys, "/proj/.taskcal/logs"); !ok {
		t.Fatalf("logs directory not created")
	}
	c, err := NewConfig("/proj", WithFs(fsys), WithLookupEnv(noEnv))
	if err != nil {
		t.Fatalf("default config should load: %v", err)
	}
	if !c.Initialized() {
		t.Fatalf("InitDir did not initialise the project")
	}
	spec := c.ScheduleDefaults()
	if spec.DurationDays != 1 || len(spec.Weekend) != 2 || spec.MaxTasksPerDay != nil {
		t.Fatalf("unexpected defaults %+v", spec)
	}

	// A second init keeps the existing file.
	writeFile(t, fsys, "/proj/.taskcal/config.yaml", "version: 1\nplan: other.yaml")
	if err := InitDir(fsys, "/proj"); err != nil {
		t.Fatalf("InitDir: %v", err)
	}
	data, _ := afero.ReadFile(fsys, "/proj/.taskcal/config.yaml")
	if !strings.Contains(string(data), "other.yaml") {
		t.Fatalf("InitDir overwrote config:\n%s", data)
	}
}

func TestNewConfigParsesYaml(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/proj/.taskcal/config.yaml", `
version: 1
plan: plans/launch.yaml
schedule:
  start: 2025-01-06
  duration_days: 2
  weekend: [friday, saturday]
  max_tasks_per_day: 3
`)
	c, err := NewConfig("/proj", WithFs(fsys), WithLookupEnv(noEnv))
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.PlanPath() != filepath.Join("/proj", "plans", "launch.yaml") {
		t.Fatalf("expected plan path to be resolved, got %s", c.PlanPath())
	}
	spec := c.ScheduleDefaults()
	if spec.Start != "2025-01-06" || spec.DurationDays != 2 || spec.MaxTasksPerDay == nil || *spec.MaxTasksPerDay != 3 {
		t.Fatalf("unexpected schedule %+v", spec)
	}
}

func TestNewConfigValidation(t *testing.T) {
	cases := map[string]string{
		"version":  "version: -1",
		"capacity": "schedule:\n  max_tasks_per_day: 0",
		"duration": "schedule:\n  duration_days: -2",
		"weekend":  "schedule:\n  weekend: [someday]",
		"all days": "schedule:\n  weekend: [mon, tue, wed, thu, fri, sat, sun]",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			writeFile(t, fsys, "/proj/.taskcal/config.yaml", body)
			_, err := NewConfig("/proj", WithFs(fsys), WithLookupEnv(noEnv))
			if err == nil || !strings.HasPrefix(err.Error(), "config:") {
				t.Fatalf("expected config error, got %v", err)
			}
		})
	}
}

func TestEnvOverridesDotenv(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/proj/.env", `
TASKCAL_START_DATE=2025-02-03
TASKCAL_DURATION_DAYS=3
TASKCAL_WEEKEND=none
`)
	c, err := NewConfig("/proj", WithFs(fsys), WithLookupEnv(envOf(map[string]string{
		EnvDurationDays:   "2",
		EnvMaxTasksPerDay: "4",
	})))
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.Env.Start != "2025-02-03" {
		t.Fatalf("start from .env not applied: %+v", c.Env)
	}
	if c.Env.DurationDays != 2 {
		t.Fatalf("process env should win over .env, got %d", c.Env.DurationDays)
	}
	if c.Env.MaxTasksPerDay == nil || *c.Env.MaxTasksPerDay != 4 {
		t.Fatalf("capacity not applied: %+v", c.Env)
	}
	if c.Env.Weekend == nil || len(c.Env.Weekend) != 0 {
		t.Fatalf("expected explicit empty weekend, got %#v", c.Env.Weekend)
	}
}

func TestEnvRejectsBadValues(t *testing.T) {
	for key, value := range map[string]string{
		EnvStartDate:      "06/01/2025",
		EnvDurationDays:   "zero",
		EnvMaxTasksPerDay: "0",
		EnvWeekend:        "caturday",
	} {
		_, err := NewConfig("/proj", WithFs(afero.NewMemMapFs()), WithLookupEnv(envOf(map[string]string{key: value})))
		if err == nil || !strings.Contains(err.Error(), key) {
			t.Fatalf("%s=%s: expected error naming the variable, got %v", key, value, err)
		}
	}
}

func TestSetDefaultPlanPersists(t *testing.T) {
	fsys := afero.NewMemMapFs()
	c, err := NewConfig("/proj", WithFs(fsys), WithLookupEnv(noEnv))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetDefaultPlan("plans/q3.yaml"); err != nil {
		t.Fatalf("SetDefaultPlan: %v", err)
	}
	data, err := afero.ReadFile(fsys, "/proj/.taskcal/config.yaml")
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if !strings.Contains(string(data), "plan: plans/q3.yaml") {
		t.Fatalf("expected relative plan path in config:\n%s", data)
	}
	reloaded, err := NewConfig("/proj", WithFs(fsys), WithLookupEnv(noEnv))
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.PlanPath() != filepath.Join("/proj", "plans", "q3.yaml") {
		t.Fatalf("reloaded plan path %s", reloaded.PlanPath())
	}
	if err := c.SetDefaultPlan("  "); err == nil {
		t.Fatalf("expected error for empty plan path")
	}
}
