// Package symtab owns Symbol records and the lexical scope chain they
// are declared in. The AST only ever holds references into a table
// owned here (spec §3.2, §9 "Symbol-carries-mutable-fields").
package symtab

import (
	"github.com/google/uuid"
	"tlog.app/go/tlog"

	"github.com/vexlang/lower/compiler/types"
)

type (
	StorageClass int

	// Symbol is referenced, never owned, by DeclStmt and Expr Symbol
	// nodes. Only the lowering pass writes Loc/ParentFunc/VaryingCFDepth/Const,
	// and only once per field per symbol (spec §9).
	Symbol struct {
		Name    string
		Type    types.Type
		Storage StorageClass
		Pos     int

		// Set once by lowering.
		Loc            any // emit-context storage location (alloca/global), opaque here to avoid an import cycle with compiler/emit
		ParentFunc     any
		VaryingCFDepth int
		Const          any // captured compile-time constant value, opaque: compiler/lower knows how to interpret it
	}

	// Table is the symbol table for one compilation unit: a tree of
	// Scopes, each owning the Symbols declared directly in it.
	Table struct {
		UnitID uuid.UUID
		root   *Scope
	}

	// Scope is one lexical scope (function body, block, loop, ...). It
	// mirrors the teacher's front.Scope defs/vars split: Symbols are
	// declared-once, Symbol lookups walk the parent chain.
	Scope struct {
		parent  *Scope
		table   *Table
		symbols map[string]*Symbol
	}
)

const (
	Auto StorageClass = iota
	Static
)

func (c StorageClass) String() string {
	if c == Static {
		return "static"
	}
	return "auto"
}

// NewTable creates a fresh table with a stamped unit id, logged once so
// a later trace can correlate scope/mask logs back to the unit that
// produced them.
func NewTable() *Table {
	t := &Table{UnitID: uuid.New()}
	t.root = &Scope{table: t, symbols: map[string]*Symbol{}}

	tlog.Printw("new symbol table", "unit", t.UnitID)

	return t
}

func (t *Table) Root() *Scope { return t.root }

// Nested opens a child scope of s, the way StartScope/EndScope in the
// emit context brackets a compound statement (spec §5).
func (s *Scope) Nested() *Scope {
	return &Scope{parent: s, table: s.table, symbols: map[string]*Symbol{}}
}

func (s *Scope) Parent() *Scope { return s.parent }

// Declare adds a new Symbol to this scope. Redeclaration in the same
// scope is a caller error (the resolver, out of scope here, is
// responsible for rejecting it before this core ever sees it); Declare
// panics defensively rather than silently shadowing.
func (s *Scope) Declare(name string, typ types.Type, storage StorageClass, pos int) *Symbol {
	if _, ok := s.symbols[name]; ok {
		panic("symtab: redeclared in same scope: " + name)
	}

	sym := &Symbol{Name: name, Type: typ, Storage: storage, Pos: pos, VaryingCFDepth: -1}
	s.symbols[name] = sym

	return sym
}

// Lookup walks the scope chain outward, like the teacher's Scope.find.
func (s *Scope) Lookup(name string) (*Symbol, bool) {
	for c := s; c != nil; c = c.parent {
		if sym, ok := c.symbols[name]; ok {
			return sym, true
		}
	}

	return nil, false
}
