package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/tuannm99/novarow/internal"
	"github.com/tuannm99/novarow/internal/engine"
)

const prompt = "novarow> "

func loadConfig(path, workdir string) (*internal.NovaRowConfig, error) {
	cfg := internal.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = internal.LoadConfig(path); err != nil {
			return nil, err
		}
	}
	if workdir != "" {
		cfg.Storage.Workdir = workdir
	}
	return cfg, nil
}

func setupLogger(cfg *internal.NovaRowConfig) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler
	if cfg.Log.Format == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h).With("app", cfg.AppName))
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		cfgPath = flag.String("config", "", "YAML config file")
		workdir = flag.String("dir", "", "store directory (overrides storage.workdir)")
		oneShot = flag.String("c", "", "execute commands separated by ';' and exit")
	)
	flag.Parse()

	cfg, err := loadConfig(*cfgPath, *workdir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	setupLogger(cfg)

	store, err := engine.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		return 1
	}
	sess := newSession(store, os.Stdout)
	defer func() {
		if err := sess.close(); err != nil {
			fmt.Fprintf(os.Stderr, "close: %v\n", err)
		}
	}()

	// one-shot mode
	if strings.TrimSpace(*oneShot) != "" {
		for _, cmd := range strings.Split(*oneShot, ";") {
			if err := sess.exec(cmd); err != nil {
				if errors.Is(err, errQuit) {
					return 0
				}
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				return 1
			}
		}
		return 0
	}

	h := NewHistory(cfg.CLI.HistoryFile)
	_ = h.Load(cfg.CLI.HistoryMax)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		return 1
	}
	defer func() { _ = rl.Close() }()

	// preload history into readline (so arrow-up works immediately)
	for _, line := range h.lines {
		_ = rl.SaveHistory(line)
	}

	fmt.Printf("store %s\n", store.Dir())
	fmt.Println("type \\help for help")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			// EOF
			fmt.Println()
			return 0
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "\\history" {
			h.Print(os.Stdout, 50)
			continue
		}

		_ = h.Append(line)
		_ = rl.SaveHistory(compactOneLine(line))

		if err := sess.exec(line); err != nil {
			if errors.Is(err, errQuit) {
				return 0
			}
			fmt.Printf("error: %v\n", err)
		}
		rl.SetPrompt(sess.prompt())
	}
}
