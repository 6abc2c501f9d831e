// Package ir models the minimal subset of a compiler's intermediate
// representation that the instrumentation engine (spec.md §4.3) needs:
// modules, functions, basic blocks, instructions, and per-instruction
// debug locations. The real IR framework — parsing, optimization, code
// generation — is an external collaborator (spec.md §1); this package
// stands in for the surface that collaborator exposes, so the engine
// itself can be fully implemented and tested without a real compiler
// attached.
package ir

import "path/filepath"

// DIFile is the debug-info file record a function's Subprogram points
// at, mirroring an LLVM DIFile's (directory, filename) pair.
type DIFile struct {
	Directory string
	Filename  string
}

// Path returns the absolute path formed by joining Directory and
// Filename, per spec.md §4.1's file-record "name" field.
func (f *DIFile) Path() string {
	return filepath.Join(f.Directory, f.Filename)
}

// Subprogram is the debug subprogram a Function may carry. A Function
// with a nil Subprogram, or a Subprogram with a nil File, has no source
// debug info and per spec.md §4.3 must not be instrumented.
type Subprogram struct {
	Name string // unmangled, source-level function name
	File *DIFile
	Line int // definition line
}

// InstKind classifies an Instruction for the purposes the engine cares
// about: escape detection, phi fixing, and debug-value rewriting.
type InstKind int

const (
	InstOther InstKind = iota
	InstPhi
	InstCall
	InstRet
	InstBr
	InstCondBr
	InstSwitch
	InstResume
	InstDbgValue
)

// Operand is a generic instruction operand: at most one of Inst, Block,
// or Const is set. Inst references another instruction's result within
// the same function (the thing a value-remap table remaps); Block
// references a basic block (the thing a block-remap table remaps);
// Const is an opaque literal (an immediate, a global reference, etc.)
// that cloning passes through unchanged.
type Operand struct {
	Inst  *Instruction
	Block *BasicBlock
	Const interface{}
}

// PhiIncoming is one (value, predecessor) pair of a phi instruction.
type PhiIncoming struct {
	Value Operand
	Block *BasicBlock
}

// Instruction is one IR instruction. Line is the source line of its
// debug location, or 0 if it carries none.
type Instruction struct {
	Kind     InstKind
	Block    *BasicBlock
	Line     int
	Col      int
	Callee   string // for InstCall
	NoReturn bool   // for InstCall: true for a tail call that does not return
	Operands []Operand
	Targets  []*BasicBlock // branch targets, for InstBr/InstCondBr/InstSwitch
	Incoming []PhiIncoming // for InstPhi
}

// IsTerminator reports whether inst ends its basic block.
func (inst *Instruction) IsTerminator() bool {
	switch inst.Kind {
	case InstRet, InstBr, InstCondBr, InstSwitch, InstResume:
		return true
	default:
		return inst.Kind == InstCall && inst.NoReturn
	}
}

// BasicBlock is a straight-line sequence of instructions ending in a
// terminator (or, mid-construction, possibly not yet).
type BasicBlock struct {
	Name         string
	Parent       *Function
	Instructions []*Instruction
}

// Append adds inst to the end of b's instruction list and sets its back
// pointer.
func (b *BasicBlock) Append(inst *Instruction) {
	inst.Block = b
	b.Instructions = append(b.Instructions, inst)
}

// Terminator returns b's last instruction, or nil if b is empty.
func (b *BasicBlock) Terminator() *Instruction {
	if len(b.Instructions) == 0 {
		return nil
	}
	return b.Instructions[len(b.Instructions)-1]
}

// FirstInsertionIndex returns the index of the first instruction after
// any leading phi nodes — the IR's "first insertion point", mirroring
// BasicBlock::getFirstInsertionPt().
func (b *BasicBlock) FirstInsertionIndex() int {
	for i, inst := range b.Instructions {
		if inst.Kind != InstPhi {
			return i
		}
	}
	return len(b.Instructions)
}

// InsertAt inserts inst at index i, shifting later instructions back.
func (b *BasicBlock) InsertAt(i int, inst *Instruction) {
	inst.Block = b
	b.Instructions = append(b.Instructions, nil)
	copy(b.Instructions[i+1:], b.Instructions[i:])
	b.Instructions[i] = inst
}

// InsertBefore inserts inst immediately before target within b.
func (b *BasicBlock) InsertBefore(target *Instruction, inst *Instruction) {
	for i, existing := range b.Instructions {
		if existing == target {
			b.InsertAt(i, inst)
			return
		}
	}
}

// Function is one IR function. A Function with no Blocks is a
// declaration (no body) and, per spec.md §4.3, must not be instrumented.
type Function struct {
	Name       string // link/mangled name
	Subprogram *Subprogram
	Blocks     []*BasicBlock
}

// Empty reports whether f is a declaration with no body.
func (f *Function) Empty() bool { return len(f.Blocks) == 0 }

// EntryBlock returns f's first basic block. Callers must check Empty
// first.
func (f *Function) EntryBlock() *BasicBlock { return f.Blocks[0] }

// HasDebugInfo reports whether f carries a usable subprogram and file,
// per spec.md §4.3's skip policy.
func (f *Function) HasDebugInfo() bool {
	return f.Subprogram != nil && f.Subprogram.File != nil
}

// EscapePoints returns every normal or exceptional escape point of f:
// every InstRet, every non-returning InstCall (a tail call that does not
// return), and every InstResume — the union spec.md §4.3 requires exit
// probes to bracket. This mirrors what EscapeEnumerator gives the
// original pass.
func (f *Function) EscapePoints() []*Instruction {
	var points []*Instruction
	for _, b := range f.Blocks {
		for _, inst := range b.Instructions {
			switch inst.Kind {
			case InstRet, InstResume:
				points = append(points, inst)
			case InstCall:
				if inst.NoReturn {
					points = append(points, inst)
				}
			}
		}
	}
	return points
}

// GlobalCtor is one entry of a Module's global-constructors list.
type GlobalCtor struct {
	Priority int
	Func     *Function
}

// Module is the translation unit the instrumentation engine rewrites.
type Module struct {
	Functions   []*Function
	globalCtors []GlobalCtor
	declared    map[string]*Function // extern function declarations, e.g. probe ABI symbols
}

// NewModule returns an empty Module.
func NewModule() *Module {
	return &Module{declared: make(map[string]*Function)}
}

// AddFunction appends fn to m.
func (m *Module) AddFunction(fn *Function) {
	m.Functions = append(m.Functions, fn)
}

// FindFunction returns the function named name, if any.
func (m *Module) FindFunction(name string) (*Function, bool) {
	for _, f := range m.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// GetOrInsertDeclaration returns the declaration-only Function named
// name, inserting a fresh one (no body) if absent, mirroring
// Module::getOrInsertFunction for externally-defined symbols such as
// the probe ABI.
func (m *Module) GetOrInsertDeclaration(name string) *Function {
	if fn, ok := m.declared[name]; ok {
		return fn
	}
	fn := &Function{Name: name}
	m.declared[name] = fn
	return fn
}

// GlobalCtors returns m's global-constructors list in insertion order;
// the entries are not sorted by priority.
func (m *Module) GlobalCtors() []GlobalCtor {
	return m.globalCtors
}

// AppendGlobalCtor idempotently registers fn as a global constructor at
// priority. If fn is already registered, this is a no-op, per spec.md
// §4.3 ("Duplicate insertion is idempotent").
func (m *Module) AppendGlobalCtor(priority int, fn *Function) {
	for _, c := range m.globalCtors {
		if c.Func == fn {
			return
		}
	}
	m.globalCtors = append(m.globalCtors, GlobalCtor{Priority: priority, Func: fn})
}
