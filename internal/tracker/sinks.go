package tracker

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/taskcal/internal/calendar"
	"github.com/kingrea/taskcal/internal/graph"
	"github.com/kingrea/taskcal/internal/schedule"
)

// WriterSink prints one line per task.
type WriterSink struct {
	W     io.Writer
	Names map[graph.TaskID]string
}

// SetDates implements DateSink.
func (s WriterSink) SetDates(_ context.Context, id graph.TaskID, a schedule.Assignment) error {
	label := string(id)
	if name, ok := s.Names[id]; ok && name != "" && name != label {
		label = fmt.Sprintf("%s (%s)", name, id)
	}
	_, err := fmt.Fprintf(s.W, "Task %s scheduled from %s to %s\n", label, calendar.Format(a.Start), calendar.Format(a.Due))
	return err
}

// DateUpdate is the per-task record FileSink writes, shaped like a tracker
// update request.
type DateUpdate struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name,omitempty"`
	StartOn string `yaml:"start_on"`
	DueOn   string `yaml:"due_on"`
}

// FileSink collects updates and writes them as one YAML document on Close.
type FileSink struct {
	fs    afero.Fs
	path  string
	names map[graph.TaskID]string

	mu      sync.Mutex
	updates []DateUpdate
}

// NewFileSink writes to path on fs; a nil fs writes to the operating system.
func NewFileSink(fs afero.Fs, path string, names map[graph.TaskID]string) *FileSink {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileSink{fs: fs, path: path, names: names}
}

// SetDates implements DateSink.
func (s *FileSink) SetDates(_ context.Context, id graph.TaskID, a schedule.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, DateUpdate{
		ID:      string(id),
		Name:    s.names[id],
		StartOn: calendar.Format(a.Start),
		DueOn:   calendar.Format(a.Due),
	})
	return nil
}

// Updates returns the collected records.
func (s *FileSink) Updates() []DateUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DateUpdate, len(s.updates))
	copy(out, s.updates)
	return out
}

// Close writes the collected updates.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := yaml.Marshal(map[string]any{"updates": s.updates})
	if err != nil {
		return fmt.Errorf("tracker: encode updates: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("tracker: ensure %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(s.fs, s.path, data, 0o644); err != nil {
		return fmt.Errorf("tracker: write %s: %w", s.path, err)
	}
	return nil
}

// MultiSink fans each update out to several sinks, stopping at the first
// error.
type MultiSink []DateSink

// SetDates implements DateSink.
func (m MultiSink) SetDates(ctx context.Context, id graph.TaskID, a schedule.Assignment) error {
	for _, sink := range m {
		if err := sink.SetDates(ctx, id, a); err != nil {
			return err
		}
	}
	return nil
}
