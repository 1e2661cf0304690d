// internal/config/config.go
//
// This package handles configuration and the .taskcal directory structure.
// A project that uses taskcal keeps its defaults in .taskcal/config.yaml,
// optionally overridden by TASKCAL_* environment variables or a .env file.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/taskcal/internal/calendar"
	"github.com/kingrea/taskcal/internal/plan"
	"github.com/kingrea/taskcal/internal/schedule"
)

const (
	// Dir is the name of the directory we create in each project
	Dir = ".taskcal"

	// EnvFile is read from the project directory when present.
	EnvFile = ".env"

	EnvStartDate      = "TASKCAL_START_DATE"
	EnvDurationDays   = "TASKCAL_DURATION_DAYS"
	EnvMaxTasksPerDay = "TASKCAL_MAX_TASKS_PER_DAY"
	EnvWeekend        = "TASKCAL_WEEKEND"
)

const defaultProjectConfigYAML = `# taskcal project configuration
version: 1

# Plan file scheduled when --plan is not given, relative to the project root.
plan: plan.yaml

# Scheduling defaults. A plan's own schedule block, TASKCAL_* environment
# variables and command line flags override these, in that order.
schedule:
  duration_days: 1
  weekend: [saturday, sunday]
  # Leave unset to let every unblocked task start on the same day.
  # max_tasks_per_day: 3
`

// ProjectConfig models .taskcal/config.yaml.
type ProjectConfig struct {
	Version  int               `yaml:"version"`
	Plan     string            `yaml:"plan,omitempty"`
	Schedule plan.ScheduleSpec `yaml:"schedule,omitempty"`
}

// Config holds the runtime configuration for taskcal.
type Config struct {
	// ProjectDir is the directory taskcal was run from
	ProjectDir string

	// TaskcalDir is ProjectDir/.taskcal
	TaskcalDir string

	Project ProjectConfig

	// Env holds the schedule overrides found in the environment.
	Env plan.ScheduleSpec

	fs       afero.Fs
	dotenv   map[string]string
	lookupFn func(string) (string, bool)
}

// Option customises NewConfig.
type Option func(*Config)

// WithFs reads and writes project files through fs.
func WithFs(fsys afero.Fs) Option {
	return func(c *Config) {
		if fsys != nil {
			c.fs = fsys
		}
	}
}

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(c *Config) {
		if fn != nil {
			c.lookupFn = fn
		}
	}
}

// InitDir creates the .taskcal directory structure in the given project
// directory and writes a default config.yaml unless one exists.
//
// Structure created:
// .taskcal/
// ├── config.yaml
// └── logs/         <- Run journal
func InitDir(fsys afero.Fs, projectDir string) error {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	dir := filepath.Join(projectDir, Dir)
	if err := fsys.MkdirAll(filepath.Join(dir, "logs"), 0o755); err != nil {
		return fmt.Errorf("config: ensure %s: %w", dir, err)
	}
	return ensureProjectConfig(fsys, filepath.Join(dir, "config.yaml"))
}

// NewConfig creates a new Config instance populated with project settings
// and environment overrides. A missing .taskcal directory is not an error;
// the defaults apply.
func NewConfig(projectDir string, opts ...Option) (*Config, error) {
	cfg := &Config{
		ProjectDir: projectDir,
		TaskcalDir: filepath.Join(projectDir, Dir),
		Project:    defaultProjectConfig(),
		fs:         afero.NewOsFs(),
		lookupFn:   os.LookupEnv,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	if err := cfg.loadDotenv(); err != nil {
		return nil, err
	}
	env, err := cfg.readEnv()
	if err != nil {
		return nil, err
	}
	cfg.Env = env
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.TaskcalDir, "logs")
}

// Initialized reports whether the project has a .taskcal directory.
func (c *Config) Initialized() bool {
	ok, err := afero.DirExists(c.fs, c.TaskcalDir)
	return err == nil && ok
}

// Fs returns the filesystem project files are read through.
func (c *Config) Fs() afero.Fs {
	return c.fs
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.TaskcalDir, "config.yaml")
}

// PlanPath returns the default plan file, resolved against the project
// directory.
func (c *Config) PlanPath() string {
	if c.Project.Plan == "" {
		return filepath.Join(c.ProjectDir, plan.DefaultPlanFile)
	}
	return c.Project.Plan
}

// ScheduleDefaults returns the schedule block of the project config.
func (c *Config) ScheduleDefaults() plan.ScheduleSpec {
	return c.Project.Schedule.Clone()
}

// SetDefaultPlan updates the default plan path and persists the value back
// to .taskcal/config.yaml.
func (c *Config) SetDefaultPlan(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("config: plan path is required")
	}
	c.Project.Plan = path
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func (c *Config) loadDotenv() error {
	path := filepath.Join(c.ProjectDir, EnvFile)
	f, err := c.fs.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	values, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.dotenv = values
	return nil
}

// lookup prefers the process environment over the .env file.
func (c *Config) lookup(key string) (string, bool) {
	if value, ok := c.lookupFn(key); ok {
		return strings.TrimSpace(value), true
	}
	value, ok := c.dotenv[key]
	return strings.TrimSpace(value), ok
}

func (c *Config) readEnv() (plan.ScheduleSpec, error) {
	var spec plan.ScheduleSpec
	if value, ok := c.lookup(EnvStartDate); ok && value != "" {
		if _, err := calendar.ParseDate(value); err != nil {
			return plan.ScheduleSpec{}, fmt.Errorf("config: %s: %w", EnvStartDate, err)
		}
		spec.Start = value
	}
	if value, ok := c.lookup(EnvDurationDays); ok && value != "" {
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return plan.ScheduleSpec{}, fmt.Errorf("config: %s must be an integer >= 1, got %q", EnvDurationDays, value)
		}
		spec.DurationDays = n
	}
	if value, ok := c.lookup(EnvMaxTasksPerDay); ok && value != "" {
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return plan.ScheduleSpec{}, fmt.Errorf("config: %s must be an integer >= 1, got %q", EnvMaxTasksPerDay, value)
		}
		spec.MaxTasksPerDay = &n
	}
	if value, ok := c.lookup(EnvWeekend); ok && value != "" {
		days := SplitList(value)
		if _, err := calendar.ParseWeekend(days); err != nil {
			return plan.ScheduleSpec{}, fmt.Errorf("config: %s: %w", EnvWeekend, err)
		}
		spec.Weekend = days
	}
	return spec, nil
}

// SplitList splits a comma separated value. "none" yields an empty,
// non-nil list so it can clear the weekend.
func SplitList(value string) []string {
	if strings.EqualFold(value, "none") {
		return []string{}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{Version: 1}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Plan = resolvePath(base, pc.Plan)
	pc.Schedule.Start = strings.TrimSpace(pc.Schedule.Start)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	// Any date works as a base; only the overlay is checked.
	base := schedule.DefaultConfig(calendar.Date(2000, time.January, 3))
	cfg, err := pc.Schedule.Apply(base)
	if err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(fsys afero.Fs, path string) error {
	if _, err := fsys.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return afero.WriteFile(fsys, path, []byte(defaultProjectConfigYAML), 0o644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize(c.ProjectDir)
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.fs.MkdirAll(c.TaskcalDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure taskcal dir: %w", err)
	}
	stored := c.Project
	if rel, err := filepath.Rel(c.ProjectDir, stored.Plan); err == nil && !strings.HasPrefix(rel, "..") {
		stored.Plan = rel
	}
	data, err := yaml.Marshal(stored)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := afero.WriteFile(c.fs, c.ProjectConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
