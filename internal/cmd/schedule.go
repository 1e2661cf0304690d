package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli"

	"github.com/kingrea/taskcal/internal/calendar"
	"github.com/kingrea/taskcal/internal/config"
	"github.com/kingrea/taskcal/internal/plan"
	"github.com/kingrea/taskcal/internal/render"
	"github.com/kingrea/taskcal/internal/schedule"
	"github.com/kingrea/taskcal/internal/tracker"
)

const scheduleDescription = `Schedules the plan given by --plan, or the plan named in
.taskcal/config.yaml. Options are read from the project config, then the
plan's own schedule block, then TASKCAL_* environment variables (or .env),
then the flags below; later sources win.

Formats:
  table  one row per task with a summary (default)
  yaml   machine-readable document
  lines  one "Task X scheduled from A to B" line per task`

const (
	formatTable = "table"
	formatYAML  = "yaml"
	formatLines = "lines"
)

// now is replaced in tests.
var now = time.Now

var scheduleFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "plan, p",
		Usage: `plan file (.yaml, .yml, .json or outline text), or "-" for YAML on stdin`,
	},
	cli.StringFlag{
		Name:  "names, n",
		Usage: "CSV file mapping task names to tracker ids",
	},
	cli.StringFlag{
		Name:  "start, s",
		Usage: "first candidate start date, YYYY-MM-DD (default: today)",
	},
	cli.IntFlag{
		Name:  "duration, d",
		Usage: "calendar days each task occupies",
	},
	cli.StringFlag{
		Name:  "weekend, w",
		Usage: `comma separated excluded weekdays, or "none"`,
	},
	cli.IntFlag{
		Name:  "max-per-day, m",
		Usage: "cap on tasks starting on the same day",
	},
	cli.BoolFlag{
		Name:  "uncapped",
		Usage: "ignore any configured daily cap",
	},
	cli.StringFlag{
		Name:  "format, f",
		Usage: "output format: table, yaml or lines",
		Value: formatTable,
	},
	cli.StringFlag{
		Name:  "out, o",
		Usage: "also write the assigned dates as a YAML update file",
	},
}

func scheduleAction(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	format := ctx.String("format")
	switch format {
	case formatTable, formatYAML, formatLines:
	default:
		return fmt.Errorf("schedule: unknown format %q (want table, yaml or lines)", format)
	}
	if ctx.Bool("uncapped") && ctx.IsSet("max-per-day") {
		return fmt.Errorf("schedule: --uncapped and --max-per-day are mutually exclusive")
	}

	conf, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	book := openLogbook(ctx, conf)

	planPath := ctx.String("plan")
	if planPath == "" {
		planPath = conf.PlanPath()
	}
	def, err := loadPlan(planPath, ctx.String("names"))
	if err != nil {
		book.Error("load %s: %v", planPath, err)
		return err
	}

	spec, err := flagSchedule(ctx)
	if err != nil {
		return err
	}
	spec = conf.ScheduleDefaults().Merge(def.Schedule).Merge(conf.Env).Merge(spec)
	cfg, err := spec.Apply(schedule.DefaultConfig(calendar.Truncate(now())))
	if err != nil {
		return err
	}
	if ctx.Bool("uncapped") {
		cfg.MaxTasksPerDay = schedule.Uncapped()
	}

	names := def.Names()
	var sinks tracker.MultiSink
	if format == formatLines {
		sinks = append(sinks, tracker.WriterSink{W: ctx.App.Writer, Names: names})
	}
	var fileSink *tracker.FileSink
	if out := ctx.String("out"); out != "" {
		fileSink = tracker.NewFileSink(nil, out, names)
		sinks = append(sinks, fileSink)
	}
	var sink tracker.DateSink
	if len(sinks) > 0 {
		sink = sinks
	}

	book.Info("scheduling plan %s from %s", def.ID, planPath)
	res, err := tracker.Run(context.Background(), tracker.PlanSource{Definition: def}, cfg, sink, schedule.WithLogger(book))
	if err != nil {
		book.Error("plan %s: %v", def.ID, err)
		return err
	}
	if fileSink != nil {
		if err := fileSink.Close(); err != nil {
			book.Error("plan %s: %v", def.ID, err)
			return err
		}
	}
	book.Info("plan %s: %s", def.ID, render.Summary(res))

	unscheduled := def.Isolated()
	switch format {
	case formatTable:
		fmt.Fprint(ctx.App.Writer, render.Table(res, names, unscheduled))
	case formatYAML:
		doc, err := render.YAML(res, names, unscheduled)
		if err != nil {
			return err
		}
		fmt.Fprint(ctx.App.Writer, doc)
	}
	return nil
}

// flagSchedule collects the schedule options given on the command line.
func flagSchedule(ctx *cli.Context) (plan.ScheduleSpec, error) {
	var spec plan.ScheduleSpec
	if ctx.IsSet("start") {
		spec.Start = ctx.String("start")
	}
	if ctx.IsSet("duration") {
		n := ctx.Int("duration")
		if n < 1 {
			return spec, &schedule.ConfigError{Field: "task_duration_days", Reason: fmt.Sprintf("must be >= 1, got %d", n)}
		}
		spec.DurationDays = n
	}
	if ctx.IsSet("weekend") {
		spec.Weekend = config.SplitList(ctx.String("weekend"))
	}
	if ctx.IsSet("max-per-day") {
		n := ctx.Int("max-per-day")
		spec.MaxTasksPerDay = &n
	}
	return spec, nil
}
