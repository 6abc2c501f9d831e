package instrument

import (
	"strings"

	"github.com/maoif/trec/ir"
	"github.com/maoif/trec/probe"
)

// shouldSkip implements the skip policy of spec.md §4.3: a function is
// left untouched when it is a declaration, is the engine's own module
// constructor or a compiler-generated C++ support routine, carries no
// usable debug info, or is defined under a C++ standard header.
func shouldSkip(f *ir.Function) bool {
	if f.Empty() {
		return true
	}
	if f.Name == probe.ModuleCtorName || strings.HasPrefix(f.Name, probe.CxxNamePrefix) {
		return true
	}
	if !f.HasDebugInfo() {
		return true
	}
	if strings.Contains(f.Subprogram.File.Path(), probe.CxxHeaderSubstring) {
		return true
	}
	return false
}
