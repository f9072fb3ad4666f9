package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"tlog.app/go/errors"

	"github.com/vexlang/lower/compiler/ast"
	"github.com/vexlang/lower/compiler/cost"
	"github.com/vexlang/lower/compiler/driver"
	"github.com/vexlang/lower/compiler/format"
	"github.com/vexlang/lower/compiler/ir"
)

const (
	replPrompt       = "\033[32mlower>\033[0m "
	replResultPrompt = "\033[31m=\033[0m "
)

// runRepl compiles unitName once and then answers :dump/:cost/:mask
// commands against that last successful compilation, in the teacher's
// readline.NewEx/Readline loop shape (scm/prompt.go).
func runRepl(unitName string) error {
	ctx := context.Background()

	unit, pkg, err := recompile(ctx, unitName)
	if err != nil {
		return err
	}

	l, err := readline.NewEx(&readline.Config{
		Prompt:            replPrompt,
		HistoryFile:       ".lowerwatch-history.tmp",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return errors.Wrap(err, "readline")
	}
	defer l.Close()
	l.CaptureExitSignal()

	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return errors.Wrap(err, "readline")
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		out, err := replEval(ctx, pkg, unit, line)
		if err != nil {
			fmt.Println(err)
			continue
		}

		fmt.Print(replResultPrompt)
		fmt.Println(out)
	}
}

func replEval(ctx context.Context, pkg *ir.Package, unit driver.Unit, line string) (string, error) {
	cmd, rest, _ := strings.Cut(line, " ")
	fnName := strings.TrimSpace(rest)

	switch cmd {
	case ":dump":
		f, err := findFunc(pkg, fnName)
		if err != nil {
			return "", err
		}
		b, err := format.Func(ctx, nil, f)
		if err != nil {
			return "", errors.Wrap(err, "dump %v", fnName)
		}
		return string(b), nil
	case ":cost":
		body, err := findBody(unit, fnName)
		if err != nil {
			return "", err
		}
		b, err := cost.Dump(ctx, nil, body)
		if err != nil {
			return "", errors.Wrap(err, "cost %v", fnName)
		}
		return fmt.Sprintf("cost %d\n%s", cost.Stmt(body), string(b)), nil
	case ":mask":
		f, err := findFunc(pkg, fnName)
		if err != nil {
			return "", err
		}
		return dumpMasks(f), nil
	default:
		return "", errors.New("unknown command %q (want :dump, :cost, :mask)", cmd)
	}
}

func findFunc(pkg *ir.Package, name string) (*ir.Func, error) {
	for _, f := range pkg.Funcs {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, errors.New("no such func %q", name)
}

func findBody(unit driver.Unit, name string) (ast.Stmt, error) {
	for _, fn := range unit.Funcs {
		if fn.Name == name {
			return fn.Body, nil
		}
	}
	return nil, errors.New("no such func %q", name)
}

// dumpMasks lists every mask-carrying instruction in f: the blend
// writes and mask reductions statement lowering emits for varying
// control flow, each with its width and whether it was decidable at
// compile time.
func dumpMasks(f *ir.Func) string {
	var b strings.Builder
	for i, v := range f.Exprs {
		switch v := v.(type) {
		case ir.MaskedStore:
			fmt.Fprintf(&b, "%%%d: maskedstore width=%d const=%v\n", i, v.Mask.Width(), v.Mask.Const())
		case ir.MaskAll:
			fmt.Fprintf(&b, "%%%d: mask.all width=%d const=%v\n", i, v.Mask.Width(), v.Mask.Const())
		case ir.MaskAny:
			fmt.Fprintf(&b, "%%%d: mask.any width=%d const=%v\n", i, v.Mask.Width(), v.Mask.Const())
		case ir.MaskToI64:
			fmt.Fprintf(&b, "%%%d: mask.lanemask width=%d const=%v\n", i, v.Mask.Width(), v.Mask.Const())
		}
	}
	if b.Len() == 0 {
		return "(no mask-carrying instructions)"
	}
	return b.String()
}
