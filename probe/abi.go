// Package probe defines the fixed ABI (spec.md §4.4) the instrumentation
// engine emits calls against and the runtime library implements: three
// externally-visible, non-unwinding, C-linkage symbols, each taking a
// single 64-bit ID, plus a zero-argument init hook.
package probe

const (
	// EnterSymbol records entry time for id on the current thread.
	EnterSymbol = "__trec_perf_enter"

	// ExitSymbol records the delta since the matching entry into id's
	// histogram on the current thread.
	ExitSymbol = "__trec_perf_exit"

	// RecordBBLSymbol returns a 64-bit predicate: non-zero requests the
	// fine-instrumented clone, zero requests the cold path.
	RecordBBLSymbol = "__trec_perf_record_bbl"

	// InitSymbol is called exactly once at process startup from the
	// module constructor.
	InitSymbol = "__trec_init"

	// ModuleCtorName is the synthetic module-constructor function the
	// engine inserts into every module it instruments.
	ModuleCtorName = "trec.module_ctor"
)

// CxxNamePrefix marks compiler-generated C++ runtime support functions
// (e.g. __cxx_global_var_init) that the skip policy (spec.md §4.3)
// leaves uninstrumented.
const CxxNamePrefix = "__cxx"

// CxxHeaderSubstring marks files under a C++ standard library include
// path; functions defined there are skipped (spec.md §4.3).
const CxxHeaderSubstring = "include/c++"
