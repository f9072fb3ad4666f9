// Command lowerc is a compile/dump-cost/check CLI over compiler/driver
// (SPEC_FULL.md §4.12). With the lexer/parser out of scope, its
// arguments name a unit registered in compiler/fixtures rather than a
// .spmd source path.
package main

import (
	"context"
	"fmt"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/vexlang/lower/compiler/cost"
	"github.com/vexlang/lower/compiler/driver"
	"github.com/vexlang/lower/compiler/fixtures"
	"github.com/vexlang/lower/compiler/format"
)

func main() {
	compileCmd := &cli.Command{
		Name:        "compile",
		Description: "compile a fixture unit and print its CFG",
		Action:      compileAct,
		Args:        cli.Args{},
	}

	dumpCostCmd := &cli.Command{
		Name:        "dump-cost",
		Description: "print the statement cost breakdown of a fixture unit",
		Action:      dumpCostAct,
		Args:        cli.Args{},
	}

	checkCmd := &cli.Command{
		Name:        "check",
		Description: "type-check a fixture unit and report diagnostics",
		Action:      checkAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "lowerc",
		Description: "lowerc compiles vexlang/lower fixture units",
		Commands: []*cli.Command{
			compileCmd,
			dumpCostCmd,
			checkCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func compileAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		unit, err := fixtures.Load(a)
		if err != nil {
			return errors.Wrap(err, "load %v", a)
		}

		pkg, diags, err := driver.Compile(ctx, unit, driver.Options{})
		for _, d := range diags {
			tlog.Printw("diagnostic", "pos", d.Pos, "message", d.Message)
		}
		if err != nil {
			return errors.Wrap(err, "compile %v", a)
		}

		out, err := format.Package(ctx, nil, pkg)
		if err != nil {
			return errors.Wrap(err, "format %v", a)
		}

		fmt.Print(string(out))
	}

	return nil
}

func dumpCostAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		unit, err := fixtures.Load(a)
		if err != nil {
			return errors.Wrap(err, "load %v", a)
		}

		for _, fn := range unit.Funcs {
			out, err := cost.Dump(ctx, nil, fn.Body)
			if err != nil {
				return errors.Wrap(err, "dump-cost %v", fn.Name)
			}
			fmt.Printf("func %v (cost %d)\n%s", fn.Name, cost.Stmt(fn.Body), string(out))
		}
	}

	return nil
}

func checkAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		unit, err := fixtures.Load(a)
		if err != nil {
			return errors.Wrap(err, "load %v", a)
		}

		_, diags, err := driver.Compile(ctx, unit, driver.Options{})
		if err != nil {
			return errors.Wrap(err, "check %v", a)
		}

		if len(diags) == 0 {
			fmt.Printf("%s: ok\n", a)
			continue
		}

		for _, d := range diags {
			fmt.Printf("%s: %d: %s\n", a, d.Pos, d.Message)
		}
	}

	return nil
}
