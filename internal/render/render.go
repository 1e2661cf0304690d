// Package render formats scheduling results and plan dependencies for the
// terminal and for machine-readable output.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/taskcal/internal/calendar"
	"github.com/kingrea/taskcal/internal/graph"
	"github.com/kingrea/taskcal/internal/plan"
	"github.com/kingrea/taskcal/internal/schedule"
)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")).Padding(0, 1)
	dateStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Padding(0, 1)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
)

// Table renders one row per task in schedule order, followed by a summary
// line naming the policy and any tasks left unscheduled.
func Table(res *schedule.Result, names map[graph.TaskID]string, unscheduled []graph.TaskID) string {
	rows := make([][]string, 0, res.Len())
	for _, id := range res.IDs() {
		a, _ := res.Lookup(id)
		rows = append(rows, []string{
			string(id),
			names[id],
			calendar.Format(a.Start),
			calendar.Format(a.Due),
			strconv.Itoa(a.Slot),
		})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("TASK", "NAME", "START", "DUE", "SLOT").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 2 || col == 3 {
				return dateStyle
			}
			return cellStyle
		})

	var b strings.Builder
	b.WriteString(t.String())
	b.WriteString("\n")
	b.WriteString(summaryStyle.Render(Summary(res)))
	b.WriteString("\n")
	if len(unscheduled) > 0 {
		labels := make([]string, len(unscheduled))
		for i, id := range unscheduled {
			labels[i] = label(id, names)
		}
		b.WriteString(warnStyle.Render("Not scheduled (no dependencies): " + strings.Join(labels, ", ")))
		b.WriteString("\n")
	}
	return b.String()
}

// Summary describes a result in one line.
func Summary(res *schedule.Result) string {
	cfg := res.Config()
	days := res.Days()
	span := "no tasks"
	if len(days) > 0 {
		last := days[len(days)-1]
		due := cfg.DueDate(last.Date)
		span = fmt.Sprintf("%s to %s", calendar.Format(days[0].Date), calendar.Format(due))
	}
	return fmt.Sprintf("%d tasks over %d start dates, %s (policy %s, %d-day tasks, weekend %s)",
		res.Len(), len(days), span, res.Policy(), cfg.TaskDurationDays, weekendLabel(cfg.Weekend))
}

// Entry is the YAML shape of one scheduled task.
type Entry struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name,omitempty"`
	StartOn string `yaml:"start_on"`
	DueOn   string `yaml:"due_on"`
	Slot    int    `yaml:"slot"`
}

// Document is the YAML shape of a result.
type Document struct {
	Policy         string   `yaml:"policy"`
	StartDate      string   `yaml:"start_date"`
	DurationDays   int      `yaml:"duration_days"`
	Weekend        []string `yaml:"weekend"`
	MaxTasksPerDay *int     `yaml:"max_tasks_per_day,omitempty"`
	Tasks          []Entry  `yaml:"tasks"`
	Unscheduled    []string `yaml:"unscheduled,omitempty"`
}

// NewDocument converts a result into its YAML shape.
func NewDocument(res *schedule.Result, names map[graph.TaskID]string, unscheduled []graph.TaskID) Document {
	cfg := res.Config()
	doc := Document{
		Policy:       res.Policy(),
		StartDate:    calendar.Format(cfg.StartDate),
		DurationDays: cfg.TaskDurationDays,
		Weekend:      cfg.Weekend.Names(),
	}
	if limit, ok := cfg.MaxTasksPerDay.Limit(); ok {
		doc.MaxTasksPerDay = &limit
	}
	for _, id := range res.IDs() {
		a, _ := res.Lookup(id)
		doc.Tasks = append(doc.Tasks, Entry{
			ID:      string(id),
			Name:    names[id],
			StartOn: calendar.Format(a.Start),
			DueOn:   calendar.Format(a.Due),
			Slot:    a.Slot,
		})
	}
	for _, id := range unscheduled {
		doc.Unscheduled = append(doc.Unscheduled, string(id))
	}
	return doc
}

// YAML renders a result as a YAML document.
func YAML(res *schedule.Result, names map[graph.TaskID]string, unscheduled []graph.TaskID) (string, error) {
	data, err := yaml.Marshal(NewDocument(res, names, unscheduled))
	if err != nil {
		return "", fmt.Errorf("render: encode yaml: %w", err)
	}
	return string(data), nil
}

// Dependencies lists every task of def with the names of its
// prerequisites.
func Dependencies(def plan.Definition) string {
	names := def.Names()
	var b strings.Builder
	for _, ref := range def.Tasks {
		deps := "No dependencies"
		if len(ref.DependsOn) > 0 {
			labels := make([]string, len(ref.DependsOn))
			for i, dep := range ref.DependsOn {
				labels[i] = label(graph.TaskID(dep), names)
			}
			deps = strings.Join(labels, ", ")
		}
		fmt.Fprintf(&b, "Task: %s | Dependencies: %s\n", ref.Label(), deps)
	}
	return b.String()
}

// Dependents lists every task of def with the tasks that wait on it, read
// from g. Tasks outside g depend on nothing and block nothing.
func Dependents(def plan.Definition, g *graph.Graph) string {
	names := def.Names()
	var b strings.Builder
	for _, id := range def.TaskIDs() {
		blocked := "No dependents"
		if g.Has(id) {
			if deps := g.Dependents(id); len(deps) > 0 {
				labels := make([]string, len(deps))
				for i, dep := range deps {
					labels[i] = label(dep, names)
				}
				blocked = strings.Join(labels, ", ")
			}
		}
		fmt.Fprintf(&b, "Task: %s | Needed by: %s\n", label(id, names), blocked)
	}
	return b.String()
}

func label(id graph.TaskID, names map[graph.TaskID]string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return string(id)
}

func weekendLabel(w calendar.Weekend) string {
	if len(w.Days()) == 0 {
		return "none"
	}
	return w.String()
}
