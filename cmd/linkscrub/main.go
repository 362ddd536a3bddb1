package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/devraulu/linkscrub/pkg/batch"
	"github.com/devraulu/linkscrub/pkg/cleaner"
	"github.com/devraulu/linkscrub/pkg/config"
	"github.com/devraulu/linkscrub/pkg/logger"
	"github.com/devraulu/linkscrub/pkg/process"
	"github.com/devraulu/linkscrub/pkg/storage"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the TOML configuration")
	htmlBase := flag.String("html", "", "read an HTML document from stdin and clean its links, resolving relative links against this URL")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		slog.Error("fatal: couldn't load config", slog.Any("err", err))
		os.Exit(1)
	}

	logger.InitLogger(cfg)

	opts, err := cfg.Cleaner.Build()
	if err != nil {
		slog.Error("fatal: invalid cleaner config", slog.Any("err", err))
		os.Exit(1)
	}

	inputs, err := readInputs(flag.Args(), *htmlBase, os.Stdin)
	if err != nil {
		slog.Error("fatal: couldn't read urls", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store storage.Storage
	if cfg.DSN != "" {
		pg, err := storage.Open(ctx, cfg.DSN)
		if err != nil {
			slog.Error("fatal: couldn't open link log", slog.Any("err", err))
			os.Exit(1)
		}
		defer pg.Close()
		store = pg
	}

	r := batch.New(cleaner.New(opts), store, cfg.Cleaner.Workers)
	results := r.Run(ctx, inputs)

	if failed := writeResults(os.Stdout, results); failed > 0 {
		os.Exit(1)
	}
}

func readInputs(args []string, htmlBase string, stdin io.Reader) ([]string, error) {
	if htmlBase != "" {
		links, err := process.ExtractLinks(stdin, htmlBase)
		if err != nil {
			return nil, err
		}
		if len(links) == 0 {
			return nil, batch.ErrNoInputs
		}
		return links, nil
	}
	if len(args) > 0 {
		return args, nil
	}
	return batch.LoadInputs(stdin)
}

// writeResults prints one line per input. A URL that could not be cleaned is
// passed through unchanged.
func writeResults(w io.Writer, results []batch.Result) int {
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintln(w, res.Input)
			continue
		}
		fmt.Fprintln(w, res.URL.String())
	}
	return failed
}
