// Command lowerwatch recompiles a fixture unit (compiler/fixtures)
// whenever a watched directory changes, and offers an interactive
// repl for poking at the last successful compilation's CFG
// (SPEC_FULL.md §4.12). With the lexer/parser out of scope, "on
// change" means any filesystem event reported for the watched
// directory itself (subdirectories are not watched), not a reparse of
// its contents.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dc0d/onexit"
	"github.com/fsnotify/fsnotify"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/vexlang/lower/compiler/driver"
	"github.com/vexlang/lower/compiler/fixtures"
	"github.com/vexlang/lower/compiler/ir"
)

func main() {
	flag.Parse()
	args := flag.Args()

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: lowerwatch <watch|repl> <unit> [dir]")
		os.Exit(2)
	}

	mode, unit := args[0], args[1]

	switch mode {
	case "watch":
		dir := "."
		if len(args) > 2 {
			dir = args[2]
		}
		if err := runWatch(unit, dir); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case "repl":
		if err := runRepl(unit); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q (want watch or repl)\n", mode)
		os.Exit(2)
	}
}

func recompile(ctx context.Context, unitName string) (driver.Unit, *ir.Package, error) {
	unit, err := fixtures.Load(unitName)
	if err != nil {
		return driver.Unit{}, nil, errors.Wrap(err, "load %v", unitName)
	}

	pkg, diags, err := driver.Compile(ctx, unit, driver.Options{})
	if err != nil {
		return driver.Unit{}, nil, errors.Wrap(err, "compile %v", unitName)
	}

	tlog.Printw("recompiled", "unit", unitName, "funcs", len(pkg.Funcs), "diagnostics", len(diags))
	for _, d := range diags {
		tlog.Printw("diagnostic", "pos", d.Pos, "message", d.Message)
	}

	return unit, pkg, nil
}

// runWatch mirrors the teacher's watch-a-directory shape: compile
// once eagerly, then on every fsnotify event (debounced the same way,
// draining the channel for 10ms before reacting) recompile again.
// Shutdown is coordinated with onexit so a recompile in flight
// finishes before the process exits.
func runWatch(unitName, dir string) error {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	if _, _, err := recompile(ctx, unitName); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "new watcher")
	}
	onexit.Register(func() { watcher.Close() })

	if err := watcher.Add(dir); err != nil {
		return errors.Wrap(err, "watch %v", dir)
	}

	done := make(chan struct{})
	onexit.Register(func() { close(done) })

	for {
		select {
		case _, ok := <-watcher.Events:
			if !ok {
				return nil
			}

		drain:
			for {
				time.Sleep(10 * time.Millisecond)
				select {
				case <-watcher.Events:
				default:
					break drain
				}
			}

			if _, _, err := recompile(ctx, unitName); err != nil {
				tlog.Printw("recompile failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			tlog.Printw("watcher error", "error", err)
		case <-done:
			return nil
		}
	}
}
