// Package lower implements the three statement passes spec §4.1 names
// (type-check, optimize, emit) plus declaration lowering (§4.2),
// masked if-statement lowering (§4.3), loop lowering (§4.4), print/
// assert lowering (§4.7, §4.8), against the concrete compiler/emit
// context, compiler/expr black box, and compiler/ast statement tree.
//
// Grounded on front/compile7.go's compileStmt/compileIf/compileFor
// dispatch shape (a big type switch per statement variant, threading a
// *Scope through recursive calls) and the original ispc statement
// lowering in original_source/stmt.cpp for exact masked-control-flow
// semantics spec.md only describes at a higher level.
package lower

// Diagnostic is a type-check error reported at a source position
// (spec §7's "type-check errors"): "cannot convert X to bool", "can't
// assign type X to Y", wrong brace arity, and so on.
type Diagnostic struct {
	Pos     int
	Message string
}

// Diagnostics accumulates Diagnostic values across an entire
// compilation unit (spec §7's propagation policy: errors are reported
// eagerly and locally, and do not stop sibling statements from being
// processed). It also carries the unit's emit-time policy choices
// (spec §9's open question), since it is already threaded through
// every emit-side call in this package.
type Diagnostics struct {
	items []Diagnostic

	// ZeroFillUninitialized selects the store emitted for a declaration
	// with no initializer: zero (true) instead of the documented
	// default, undefined (false). See DESIGN.md's Open Question
	// resolution.
	ZeroFillUninitialized bool
}

func (d *Diagnostics) Errorf(pos int, format string, args ...any) {
	d.items = append(d.items, Diagnostic{Pos: pos, Message: sprintf(format, args...)})
}

func (d *Diagnostics) Items() []Diagnostic { return d.items }

func (d *Diagnostics) HasErrors() bool { return len(d.items) > 0 }
