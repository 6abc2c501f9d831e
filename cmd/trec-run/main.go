// Command trec-run launches an instrumented binary, relaying its stdio
// and signals like a transparent wrapper, and optionally publishes a
// flush-summary report once it exits. It is adapted from the teacher's
// wrap/wrap.go (signal relay around a child process) and wrapper/child.go
// (stdout/stderr pipe relay), with the device-registration and
// managed-backend logic they built around that relay dropped: this
// command's only job is running one instrumented process and, if asked,
// handing its output to the reporter package.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"time"

	"github.com/maoif/trec/config"
	"github.com/maoif/trec/reporter"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s command [args ...]\n", os.Args[0])
	os.Exit(2)
}

func relayOutput(r io.Reader, w io.Writer) {
	s := bufio.NewScanner(r)
	for s.Scan() {
		fmt.Fprintln(w, s.Text())
	}
}

func run(cmd *exec.Cmd) (int, error) {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return 0, err
	}

	if err := cmd.Start(); err != nil {
		return 0, err
	}

	go relayOutput(stdout, os.Stdout)
	go relayOutput(stderr, os.Stderr)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs)
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	for {
		select {
		case s := <-sigs:
			cmd.Process.Signal(s)
		case err := <-done:
			if exitErr, ok := err.(*exec.ExitError); ok {
				return exitErr.ExitCode(), nil
			}
			if err != nil {
				return 0, err
			}
			return 0, nil
		}
	}
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cmd := exec.Command(os.Args[1], os.Args[2:]...)
	cmd.Env = os.Environ()

	code, err := run(cmd)
	if err != nil {
		config.FatalDiagnostic("%v", err)
		os.Exit(1)
	}

	reportChild(code)
	os.Exit(code)
}

func reportChild(exitCode int) {
	brokers := reporter.BrokersFromEnv(os.Getenv(config.EnvReportBrokers))
	if brokers == nil {
		return
	}

	rc, err := config.GetRuntimeConfig()
	if err != nil || rc.DataDir == "" {
		return
	}

	summary, err := reporter.Collect(rc.DataDir, time.Now())
	if err != nil {
		config.FatalDiagnostic("collect flush summary: %v", err)
		return
	}
	if err := reporter.Publish(brokers, summary); err != nil {
		config.FatalDiagnostic("publish flush summary: %v", err)
	}
}
