// Command trec-rt is the runtime library half of the probe ABI
// (spec.md §4.4), built as a C shared object (`go build -buildmode=c-shared`)
// and linked into an instrumented binary alongside its object files. It
// is adapted from the teacher's profiler.go and instrument/inst.go: both
// export C-linkage probe functions from a `package main` compiled with
// cgo, initialize process state from an `init` function that locks the
// calling goroutine to its OS thread, and flush accumulated state either
// periodically or on a caught signal. This version backs the fixed
// four-symbol probe ABI (spec.md §4.4) rather than the teacher's
// gprof-style `__cyg_profile_func_{enter,exit}` pair, and its state
// lives in package runtimelib rather than inline package-level globals.
//
// It also registers an atexit hook, mirroring perfRT.cpp's
// atexit(__trec_deinit): a host program that returns normally from main
// or calls exit() never delivers a signal, so without this hook a
// sub-second run would never flush.
package main

/*
#include <stdlib.h>
void trecAtExitCallback(void);
static void trecRegisterAtExit(void) { atexit(trecAtExitCallback); }
*/
import "C"

import (
	"os"
	"os/signal"
	"runtime"

	"github.com/maoif/trec/config"
	"github.com/maoif/trec/runtimelib"
)

func init() {
	runtime.LockOSThread()

	cfg, err := config.GetRuntimeConfig()
	if err != nil {
		config.FatalDiagnostic("%v", err)
		return
	}
	if err := runtimelib.Init(cfg); err != nil {
		config.FatalDiagnostic("%v", err)
		return
	}

	C.trecRegisterAtExit()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs)
	go func() {
		<-sigs
		runtimelib.Shutdown()
		os.Exit(0)
	}()
}

//export trecAtExitCallback
func trecAtExitCallback() {
	runtimelib.Shutdown()
}

//export __trec_init
func __trec_init() {
	// The process-wide Runtime is already built by this file's init;
	// __trec_init exists so the module constructor the instrumentation
	// engine inserts (spec.md §4.3) has something to call, matching the
	// ABI contract even though this build's own init already ran it.
}

//export __trec_perf_enter
func __trec_perf_enter(id C.ulonglong) {
	runtimelib.Enter(uint64(id))
}

//export __trec_perf_exit
func __trec_perf_exit(id C.ulonglong) {
	runtimelib.Exit(uint64(id))
}

//export __trec_perf_record_bbl
func __trec_perf_record_bbl(id C.ulonglong) C.ulonglong {
	return C.ulonglong(runtimelib.RecordBBL(uint64(id)))
}

func main() {}
