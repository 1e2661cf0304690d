// Package cmd implements the taskcal command line: scheduling a plan,
// listing its dependencies, preparing a project and reading the run journal.
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/urfave/cli"

	"github.com/kingrea/taskcal/internal/config"
	"github.com/kingrea/taskcal/internal/logbook"
	"github.com/kingrea/taskcal/internal/plan"
)

// stdinPlan names the plan read from standard input.
const stdinPlan = "-"

// stdin is replaced in tests.
var stdin io.Reader = os.Stdin

// BuildArgs carries values stamped in at link time.
type BuildArgs struct {
	Version string
	Commit  string
	Date    string
}

const description = `taskcal assigns calendar dates to interdependent tasks.

A plan lists tasks and the tasks they depend on, either as YAML/JSON or as
an outline of headings with indented dependency lines. Every task starts on
a workday after all of its prerequisites are due; an optional daily cap
limits how many tasks may start on the same day.`

// Execute runs the command line against args (including the program name).
func Execute(args []string, bArgs BuildArgs) error {
	return newApp(os.Stdout, bArgs).Run(args)
}

func newApp(out io.Writer, bArgs BuildArgs) *cli.App {
	app := cli.NewApp()
	app.Name = "taskcal"
	app.HelpName = "taskcal"
	app.Usage = "dependency-aware task calendar"
	app.UsageText = "taskcal [--dir DIR] <command> [arguments...]"
	app.Description = description
	app.Version = bArgs.Version
	if app.Version == "" {
		app.Version = "dev"
	}
	app.Writer = out
	app.ErrWriter = out
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "dir, C",
			Usage: "project directory holding .taskcal/ (default: current directory)",
			Value: ".",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:        "schedule",
			Aliases:     []string{"s"},
			Usage:       "assign start and due dates to every task of a plan",
			Description: scheduleDescription,
			Action:      scheduleAction,
			Flags:       scheduleFlags,
		},
		{
			Name:      "deps",
			Aliases:   []string{"d"},
			Usage:     "list every task of a plan with its dependencies",
			ArgsUsage: "[plan]",
			Action:    depsAction,
			Flags:     depsFlags,
		},
		{
			Name:   "init",
			Usage:  "create .taskcal/ with a default config",
			Action: initAction,
			Flags:  initFlags,
		},
		{
			Name:    "log",
			Aliases: []string{"l"},
			Usage:   "show the most recent scheduling runs",
			Action:  logAction,
			Flags:   logFlags,
		},
		{
			Name:      "version",
			Aliases:   []string{"v"},
			Usage:     "prints the installed version",
			UsageText: " ",
			Action: func(ctx *cli.Context) error {
				fmt.Fprintf(ctx.App.Writer, "%s %s (%s_%s)\nBuild: %s=%s\n",
					app.Name, app.Version, runtime.GOOS, runtime.GOARCH, bArgs.Date, bArgs.Commit)
				return nil
			},
		},
	}
	app.HideVersion = true
	return app
}

// projectDir resolves the --dir flag to an absolute path.
func projectDir(ctx *cli.Context) (string, error) {
	dir := ctx.GlobalString("dir")
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve project dir %s: %w", dir, err)
	}
	return abs, nil
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	dir, err := projectDir(ctx)
	if err != nil {
		return nil, err
	}
	return config.NewConfig(dir)
}

// openLogbook returns the project journal, or nil when the project was never
// initialised or the journal cannot be opened; a nil *logbook.Logbook
// discards entries.
func openLogbook(ctx *cli.Context, conf *config.Config) *logbook.Logbook {
	if !conf.Initialized() {
		return nil
	}
	book, err := logbook.New(filepath.Join(conf.LogsDir(), logbook.FileName), logbook.WithFs(conf.Fs()))
	if err != nil {
		fmt.Fprintf(ctx.App.ErrWriter, "%s: journal disabled: %v\n", ctx.App.HelpName, err)
		return nil
	}
	return book
}

// loadPlan loads the plan at path, or a YAML plan from standard input when
// path is "-", and resolves names through namesPath when it is set.
func loadPlan(path, namesPath string) (plan.Definition, error) {
	loader := plan.NewLoader(nil)
	if path != stdinPlan {
		return loader.LoadWithNames(path, namesPath)
	}
	def, err := plan.LoadDefinitionReader(stdin)
	if err != nil {
		return plan.Definition{}, err
	}
	if namesPath == "" {
		return def, nil
	}
	names, err := loader.LoadNameMap(namesPath)
	if err != nil {
		return plan.Definition{}, err
	}
	resolved, err := def.ResolveNames(names)
	if err != nil {
		return plan.Definition{}, fmt.Errorf("plan: stdin: %w", err)
	}
	return resolved, nil
}
