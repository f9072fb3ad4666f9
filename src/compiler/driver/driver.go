// Package driver ties the type-check/optimize/emit passes together
// per compilation unit (SPEC_FULL.md §4.11): for every function in the
// unit, type-check its body (dropping statements that failed and
// continuing with siblings, per spec.md §7's propagation policy), then
// optimize, then emit into a fresh *emit.Func.
//
// Grounded on front/analyze.go's Analyze "loop over f.Funcs, wrap each
// in tlog + errors.Wrap" shape.
package driver

import (
	"context"

	"github.com/google/uuid"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/vexlang/lower/compiler/ast"
	"github.com/vexlang/lower/compiler/emit"
	"github.com/vexlang/lower/compiler/ir"
	"github.com/vexlang/lower/compiler/lower"
)

type (
	// Function is one compilation unit function: a name, a target
	// width and an already-resolved body; it has no parameter list (the
	// lexer/parser/symbol resolver that would produce these are an
	// external collaborator, spec.md §1).
	Function struct {
		Name  string
		Width int // SIMD vector width for this function's target
		Body  ast.Stmt
	}

	// Unit is the input to Compile: every function to lower together,
	// sharing one diagnostic sink.
	Unit struct {
		Name  string
		Funcs []Function
	}

	// Options configures policy choices left open by spec.md §9.
	Options struct {
		// ZeroFillUninitialized, when true, stores a zero value instead
		// of an undefined one for declarations with no initializer.
		// Default false, matching spec.md §9's documented default.
		ZeroFillUninitialized bool
	}
)

// Compile runs type-check, optimize, and emit over every function in
// unit, in order, returning the resulting package alongside every
// diagnostic collected across the whole unit. A non-empty diagnostic
// list does not stop later functions from being processed.
func Compile(ctx context.Context, unit Unit, opts Options) (*ir.Package, []lower.Diagnostic, error) {
	unitID := uuid.New()
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile unit", "unit", unit.Name, "id", unitID)
	defer tr.Finish()

	pkg := &ir.Package{Path: unit.Name}
	diags := &lower.Diagnostics{ZeroFillUninitialized: opts.ZeroFillUninitialized}

	for _, fn := range unit.Funcs {
		f, err := compileFunc(ctx, diags, fn)
		if err != nil {
			return nil, diags.Items(), errors.Wrap(err, "%v", fn.Name)
		}
		pkg.Funcs = append(pkg.Funcs, f)
	}

	tlog.Printw("compiled unit", "funcs", len(pkg.Funcs), "diagnostics", len(diags.Items()))

	return pkg, diags.Items(), nil
}

func compileFunc(ctx context.Context, diags *lower.Diagnostics, fn Function) (_ *ir.Func, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile func", "func", fn.Name)
	defer tr.Finish()

	body, ok := lower.TypeCheck(ctx, diags, fn.Body)
	if !ok {
		return nil, errors.New("type-check failed for %v", fn.Name)
	}

	body = lower.Optimize(ctx, body)

	f := ir.NewFunc(fn.Name)
	width := fn.Width
	if width == 0 {
		width = 4
	}
	ec := emit.NewFunc(f, width)
	ec.SetCurrentBasicBlock(ec.CreateBasicBlock("entry"))
	ec.SetFunctionExit(ec.CreateBasicBlock("exit"))

	lower.Emit(ec, diags, body)

	return f, nil
}
