package instrument

import (
	"github.com/maoif/trec/ir"
	"github.com/maoif/trec/probe"
)

// ensureModuleCtor inserts the module's trec.module_ctor function if
// absent, and registers it as a priority-0 global constructor. Both
// steps are idempotent, per spec.md §4.3.
func ensureModuleCtor(m *ir.Module) *ir.Function {
	ctor, ok := m.FindFunction(probe.ModuleCtorName)
	if !ok {
		entry := &ir.BasicBlock{Name: "entry"}
		entry.Append(&ir.Instruction{Kind: ir.InstCall, Callee: probe.InitSymbol})
		entry.Append(&ir.Instruction{Kind: ir.InstRet})

		ctor = &ir.Function{Name: probe.ModuleCtorName, Blocks: []*ir.BasicBlock{entry}}
		m.AddFunction(ctor)
	}
	m.AppendGlobalCtor(0, ctor)
	return ctor
}
