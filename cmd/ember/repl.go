package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/metaphox/ember-lang/engine"
)

const banner = `Ember interactive prompt. Type :quit to exit.`

func cmdRepl(args []string) int {
	cfg, logger, _, err := setup("repl", args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 2
	}
	fmt.Println(banner)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	hist := cfg.REPL.HistoryPath()
	if hist != "" {
		if f, err := os.Open(hist); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}
	save := func() {
		if hist == "" {
			return
		}
		if err := saveHistory(ln, hist); err != nil {
			logger.Warn("cannot save history", "path", hist, "err", err)
		}
	}
	defer save()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go exitOnSignal(sigc, func() {
		save()
		ln.Close()
	}, os.Exit)

	session := engine.NewSession(engine.WithLogger(logger))
	for {
		src, ok := readByParseProbe(ln, cfg.REPL.Prompt, cfg.REPL.ContinuationPrompt)
		if !ok {
			fmt.Println()
			return 0
		}

		trimmed := strings.TrimSpace(src)
		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, ":"):
			if strings.ToLower(trimmed) == ":quit" {
				return 0
			}
			fmt.Println("unknown command. Type :quit to exit.")
			continue
		}

		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		out, err := session.Run(src)
		if out != "" {
			fmt.Println(out)
		}
		if err != nil {
			report(err, cfg.REPL.Color)
		}
	}
}

// historyWriter is the part of *liner.State that saves the history.
type historyWriter interface {
	WriteHistory(w io.Writer) (int, error)
}

// saveHistory replaces the file at path with the history of h.
func saveHistory(h historyWriter, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := h.WriteHistory(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// exitOnSignal waits for a signal on sigc, runs cleanup and exits with
// status 130. exit is os.Exit outside tests; it skips deferred calls, so
// everything that must happen before exiting belongs in cleanup.
func exitOnSignal(sigc <-chan os.Signal, cleanup func(), exit func(int)) {
	<-sigc
	cleanup()
	exit(130)
}

// readByParseProbe reads lines until they parse, or fail to parse for a
// reason other than running out of input.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder
	for {
		p := prompt
		if b.Len() > 0 {
			p = cont
		}
		line, err := ln.Prompt(p)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			// Ctrl-C discards the pending input.
			b.Reset()
			continue
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if _, err := engine.Compile("<probe>", src); engine.IsIncomplete(err) {
			continue
		}
		return src, true
	}
}
