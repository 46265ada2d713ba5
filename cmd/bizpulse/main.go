// Bizpulse analyzes one day of business figures from the command line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/linnemanlabs/go-core/cfg"
	"github.com/linnemanlabs/go-core/log"
	v "github.com/linnemanlabs/go-core/version"

	"github.com/linnemanlabs/bizpulse/internal/business"
	bc "github.com/linnemanlabs/bizpulse/internal/cfg"
	"github.com/linnemanlabs/bizpulse/internal/inputfile"
)

const appName = "bizpulse"
const component = "cli"

// stdinPath reads a JSON request from standard input.
const stdinPath = "-"

// sampleInput is analyzed when no -input is given.
var sampleInput = business.Input{
	DailyRevenue:       1200,
	DailyCost:          1000,
	NumberOfCustomers:  50,
	PreviousDayRevenue: 1000,
	PreviousDayCost:    800,
}

// selfTestInput must produce a loss and the negative profit alert.
var selfTestInput = business.Input{
	DailyRevenue:       1500,
	DailyCost:          1700,
	NumberOfCustomers:  50,
	PreviousDayRevenue: 1000,
	PreviousDayCost:    1000,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	v.AppName = appName
	v.Component = component
	vi := v.Get()

	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		cliCfg bc.CLIConfig
		logCfg log.Config
	)
	cliCfg.RegisterFlags(fs)
	logCfg.RegisterFlags(fs)
	var showVersion bool
	fs.BoolVar(&showVersion, "V", false, "Print version+build information and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		_, err := fmt.Fprintf(stdout, "%s (%s) %s (commit=%s, go=%s)\n",
			vi.AppName, vi.Component, vi.Version, vi.Commit, vi.GoVersion)
		return err
	}

	cfg.FillFromEnv(fs, "BIZPULSE_", func(format string, args ...any) {
		fmt.Fprintf(stderr, format+"\n", args...)
	})

	if err := errors.Join(cliCfg.Validate(), logCfg.Validate()); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	lg, err := log.New(logCfg.ToOptions(v.AppName))
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = lg.Sync() }()

	L := lg.With("component", vi.Component)
	ctx = log.WithContext(ctx, L)

	return execute(ctx, cliCfg, L, stdin, stdout)
}

// execute runs the mode selected by c and writes documents to stdout.
func execute(ctx context.Context, c bc.CLIConfig, L log.Logger, stdin io.Reader, stdout io.Writer) error {
	engine := business.NewEngine(L, business.EngineHooks{})

	if c.SelfTest {
		return selfTest(ctx, engine, c, stdout)
	}

	if c.Watch {
		// An invalid file at startup is not fatal; the next save may fix it.
		if err := analyzeFile(ctx, engine, c, stdin, stdout); err != nil {
			L.Error(ctx, err, "initial analysis failed")
		}
		return inputfile.Watch(ctx, c.Input, L, func(req *business.Request) {
			if err := analyzeAndPrint(ctx, engine, req, c, stdout); err != nil {
				L.Error(ctx, err, "analysis failed")
			}
		})
	}

	return analyzeFile(ctx, engine, c, stdin, stdout)
}

func analyzeFile(ctx context.Context, engine *business.Engine, c bc.CLIConfig, stdin io.Reader, stdout io.Writer) error {
	req, err := loadRequest(c.Input, stdin)
	if err != nil {
		return err
	}
	return analyzeAndPrint(ctx, engine, req, c, stdout)
}

func loadRequest(path string, stdin io.Reader) (*business.Request, error) {
	switch path {
	case "":
		return business.NewRequest(sampleInput), nil
	case stdinPath:
		return inputfile.Decode(stdin, inputfile.FormatJSON)
	default:
		return inputfile.Load(path)
	}
}

func analyzeAndPrint(ctx context.Context, engine *business.Engine, req *business.Request, c bc.CLIConfig, stdout io.Writer) error {
	state, err := engine.Invoke(ctx, req)
	if err != nil {
		return err
	}
	return writeDocument(stdout, state, c)
}

func writeDocument(w io.Writer, state *business.State, c bc.CLIConfig) error {
	var doc any = state.Output
	if c.Full {
		doc = state
	}

	var (
		body []byte
		err  error
	)
	switch c.Format {
	case bc.FormatYAML:
		body, err = business.RenderYAML(doc)
	default:
		body, err = business.RenderJSON(doc)
	}
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	_, err = w.Write(body)
	return err
}

func selfTest(ctx context.Context, engine *business.Engine, c bc.CLIConfig, stdout io.Writer) error {
	state, err := engine.Analyze(ctx, selfTestInput)
	if err != nil {
		return fmt.Errorf("self-test failed: %w", err)
	}

	out := state.Output
	if out.Profit != -200 {
		return fmt.Errorf("self-test failed: profit = %v, want -200", out.Profit)
	}
	if !slices.Contains(out.Alerts, business.AlertNegativeProfit) {
		return fmt.Errorf("self-test failed: alerts %q missing %q", out.Alerts, business.AlertNegativeProfit)
	}

	if _, err := fmt.Fprintln(stdout, "self-test passed"); err != nil {
		return err
	}
	return writeDocument(stdout, state, c)
}
