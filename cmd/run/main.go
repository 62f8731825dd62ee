package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	disposable "github.com/Azzazelloqq/Disposable"
	"github.com/Azzazelloqq/Disposable/testbed"
)

func main() {
	var (
		scenarioFile = flag.String("scenario", "", "Path to scenario YAML file")
		mode         = flag.String("mode", "", "Override drain mode (sync|async)")
		timeout      = flag.Duration("timeout", 0, "Override async drain deadline")
		strict       = flag.Bool("strict", false, "Refuse blocking adaptations of async releases")
		verbose      = flag.Bool("v", false, "Enable debug logging")
		interactive  = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *scenarioFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: run -scenario <file.yaml> [-mode sync|async] [-timeout 2s]")
		fmt.Fprintln(os.Stderr, "       run -scenario <file.yaml> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		disposable.SetLogger(logger)
	}

	scenario, err := loadScenario(*scenarioFile, *mode, *timeout, *strict)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(scenario); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(scenario); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadScenario(path, modeOverride string, timeout time.Duration, strict bool) (*testbed.Scenario, error) {
	scenario, err := testbed.Load(path)
	if err != nil {
		return nil, err
	}
	if modeOverride != "" {
		scenario.Mode = testbed.Mode(modeOverride)
	}
	if timeout > 0 {
		scenario.Timeout = testbed.Duration(timeout)
	}
	if strict {
		scenario.Strict = true
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return scenario, nil
}

func run(scenario *testbed.Scenario) error {
	fmt.Printf("Scenario: %s\n", scenario.Name)
	fmt.Printf("Mode: %s\n", scenario.Mode)
	fmt.Printf("Resources: %d\n\n", scenario.Total())

	runner := testbed.NewRunner(scenario, testbed.WithObserver(func(e testbed.Event) {
		if e.Err != nil {
			fmt.Printf("  ✗ %-20s %-10s %v (%s)\n", e.Name, e.Kind, e.Err, e.Elapsed.Round(time.Microsecond))
			return
		}
		fmt.Printf("  ✓ %-20s %-10s released (%s)\n", e.Name, e.Kind, e.Elapsed.Round(time.Microsecond))
	}))

	report := runner.Run(context.Background())

	fmt.Printf("\nReleased %d/%d in %s\n", len(report.Released()), report.Total, report.Elapsed.Round(time.Microsecond))
	if report.Err != nil {
		return report.Err
	}
	return nil
}
