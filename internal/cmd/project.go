package cmd

import (
	"fmt"
	"strings"

	"github.com/urfave/cli"

	"github.com/kingrea/taskcal/internal/config"
	"github.com/kingrea/taskcal/internal/graph"
	"github.com/kingrea/taskcal/internal/render"
)

var (
	depsFlags = []cli.Flag{
		cli.StringFlag{
			Name:  "names, n",
			Usage: "CSV file mapping task names to tracker ids",
		},
		cli.BoolFlag{
			Name:  "check",
			Usage: "also fail when the dependencies form a cycle",
		},
		cli.BoolFlag{
			Name:  "reverse, r",
			Usage: "list the tasks waiting on each task instead",
		},
	}

	initFlags = []cli.Flag{
		cli.StringFlag{
			Name:  "plan, p",
			Usage: "record this plan file as the project default",
		},
	}

	logFlags = []cli.Flag{
		cli.IntFlag{
			Name:  "lines, n",
			Usage: "number of journal lines to show",
			Value: 20,
		},
	}
)

func depsAction(ctx *cli.Context) error {
	conf, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	planPath := ctx.Args().First()
	if planPath == "" {
		planPath = conf.PlanPath()
	}
	def, err := loadPlan(planPath, ctx.String("names"))
	if err != nil {
		return err
	}
	if !ctx.Bool("check") && !ctx.Bool("reverse") {
		fmt.Fprint(ctx.App.Writer, render.Dependencies(def))
		return nil
	}
	g, err := graph.Build(def.Edges(), graph.WithKnownTasks(def.TaskIDs()...))
	if err != nil {
		return err
	}
	if ctx.Bool("reverse") {
		fmt.Fprint(ctx.App.Writer, render.Dependents(def, g))
		return nil
	}
	fmt.Fprint(ctx.App.Writer, render.Dependencies(def))
	return nil
}

func initAction(ctx *cli.Context) error {
	dir, err := projectDir(ctx)
	if err != nil {
		return err
	}
	if err := config.InitDir(nil, dir); err != nil {
		return err
	}
	if planPath := ctx.String("plan"); planPath != "" {
		conf, err := config.NewConfig(dir)
		if err != nil {
			return err
		}
		if err := conf.SetDefaultPlan(planPath); err != nil {
			return err
		}
	}
	fmt.Fprintf(ctx.App.Writer, "initialized %s in %s\n", config.Dir, dir)
	return nil
}

func logAction(ctx *cli.Context) error {
	conf, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	n := ctx.Int("lines")
	if n < 1 {
		return fmt.Errorf("log: --lines must be >= 1")
	}
	book := openLogbook(ctx, conf)
	if !book.Exists() {
		fmt.Fprintln(ctx.App.Writer, "taskcal: no runs recorded")
		return nil
	}
	lines, total := book.Tail(n)
	if total == 0 {
		fmt.Fprintln(ctx.App.Writer, "taskcal: no runs recorded")
		return nil
	}
	fmt.Fprintln(ctx.App.Writer, strings.Join(lines, "\n"))
	if total > len(lines) {
		fmt.Fprintf(ctx.App.Writer, "(showing %d of %d lines)\n", len(lines), total)
	}
	return nil
}
