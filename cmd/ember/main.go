// Command ember runs, checks and interactively evaluates Ember programs.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/metaphox/ember-lang/config"
	"github.com/metaphox/ember-lang/diag"
	"github.com/metaphox/ember-lang/engine"
)

const appName = "ember"

// Version is overridden at link time with -ldflags "-X main.Version=...".
var Version = "dev"

func red(s string) string   { return "\x1b[31m" + s + "\x1b[0m" }
func green(s string) string { return "\x1b[32m" + s + "\x1b[0m" }

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	args := os.Args[2:]
	switch cmd := os.Args[1]; cmd {
	case "run":
		os.Exit(cmdRun(args))
	case "check":
		os.Exit(cmdCheck(args))
	case "repl":
		os.Exit(cmdRepl(args))
	case "init":
		os.Exit(cmdInit(args))
	case "version":
		fmt.Println(appName, Version)
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage(os.Stderr)
		os.Exit(2)
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, `Ember %s

Usage:
  %s run [-config file] [-v] <file.em>     Validate and run a program.
  %s check [-config file] [-v] <file.em>   Validate a program without running it.
  %s repl [-config file] [-v]              Start the interactive prompt.
  %s init [path]                           Write a default %s.
  %s version                               Print the version.

`, Version, appName, appName, appName, appName, config.DefaultFile, appName)
}

// ── Shared setup ──────────────────────────────────────────────────────────────

// setup parses the common flags of a subcommand and returns the loaded
// configuration, a logger, and the remaining arguments.
func setup(name string, args []string) (*config.Config, *slog.Logger, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	cfgPath := fs.String("config", "", "configuration file (default ./"+config.DefaultFile+")")
	verbose := fs.Bool("v", false, "log pipeline phases to stderr")
	if err := fs.Parse(args); err != nil {
		return nil, nil, nil, err
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return nil, nil, nil, err
	}
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("config: %w", err)
	}
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	if cfg.Path != "" {
		logger.Debug("loaded config", "path", cfg.Path)
	}
	return cfg, logger, fs.Args(), nil
}

// report prints err as rendered diagnostics on stderr.
func report(err error, color bool) {
	msg := diag.Render(err)
	if color {
		msg = red(msg)
	}
	fmt.Fprint(os.Stderr, msg)
}

// compileFile reads and parses the single file named in args.
func compileFile(name string, args []string, logger *slog.Logger) (*engine.Program, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("usage: %s %s <file.em>", appName, name)
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", args[0], err)
	}
	return engine.Compile(args[0], string(src),
		engine.WithLogger(logger),
		engine.WithStdout(os.Stdout))
}

// ── run / check ───────────────────────────────────────────────────────────────

func cmdRun(args []string) int {
	cfg, logger, rest, err := setup("run", args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 2
	}
	prog, err := compileFile("run", rest, logger)
	if err != nil {
		report(err, cfg.REPL.Color)
		return 1
	}
	// Output is streamed to stdout as it is printed; the returned copy is
	// not needed here.
	if _, err := prog.Interpret(); err != nil {
		report(err, cfg.REPL.Color)
		return 1
	}
	return 0
}

func cmdCheck(args []string) int {
	cfg, logger, rest, err := setup("check", args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 2
	}
	prog, err := compileFile("check", rest, logger)
	if err != nil {
		report(err, cfg.REPL.Color)
		return 1
	}
	if err := prog.Validate(); err != nil {
		report(err, cfg.REPL.Color)
		return 1
	}
	msg := prog.Name + ": ok"
	if cfg.REPL.Color {
		msg = green(msg)
	}
	fmt.Println(msg)
	return 0
}

// ── init ──────────────────────────────────────────────────────────────────────

func cmdInit(args []string) int {
	path := config.DefaultFile
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(os.Stderr, "%s: %s already exists\n", appName, path)
		return 1
	}
	if err := config.Write(config.Default(), path); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	fmt.Println("wrote", path)
	return 0
}
