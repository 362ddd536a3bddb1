package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/devraulu/linkscrub/pkg/cleaner"
	"github.com/devraulu/linkscrub/pkg/config"
	"github.com/devraulu/linkscrub/pkg/logger"
	"github.com/devraulu/linkscrub/pkg/process"
	"github.com/devraulu/linkscrub/pkg/storage"
)

type CleanResponse struct {
	OriginalURL string `json:"original_url"`
	CleanedURL  string `json:"cleaned_url,omitempty"`
	Error       string `json:"error,omitempty"`
}

type LinkResponse struct {
	RawURL     string    `json:"raw_url"`
	CleanedURL string    `json:"cleaned_url"`
	Timestamp  time.Time `json:"timestamp"`
}

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the TOML configuration")
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store storage.Storage = storage.NewMemoryStorage()
	if cfg.DSN != "" {
		pg, err := storage.Open(ctx, cfg.DSN)
		if err != nil {
			slog.Error("fatal: couldn't open link log", slog.Any("err", err))
			os.Exit(1)
		}
		store = pg
	}
	defer store.Close()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      newMux(cleaner.New(opts), store),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: opts.Timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", slog.Any("err", err))
		}
	}()

	slog.Info("starting web server", "addr", cfg.Server.Addr, "redirect_policy", opts.RedirectPolicy.String(), "rules", len(opts.Rules))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("fatal: server failed", slog.Any("err", err))
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func newMux(c *cleaner.Cleaner, store storage.Storage) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /clean", handleClean(c, store))
	mux.HandleFunc("GET /recent", handleRecent(store))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func handleClean(c *cleaner.Cleaner, store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("url")
		if raw == "" {
			writeJSON(w, http.StatusBadRequest, CleanResponse{Error: "missing url parameter"})
			return
		}

		cleaned, err := c.Clean(r.Context(), raw)
		if err != nil {
			slog.Warn("clean failed", slog.String("url", raw), slog.Any("err", err))
			writeJSON(w, http.StatusUnprocessableEntity, CleanResponse{OriginalURL: raw, Error: err.Error()})
			return
		}

		out := cleaned.String()
		key, err := process.DedupeKey(out)
		if err != nil {
			key = out
		}
		if err := store.SaveLink(r.Context(), storage.Link{
			RawURL:        raw,
			CleanedURL:    out,
			NormalizedURL: key,
			Timestamp:     time.Now(),
		}); err != nil {
			slog.Error("failed to save link", slog.String("url", out), slog.Any("err", err))
		}

		slog.Info("clean", slog.String("url", raw), slog.String("cleaned", out))
		writeJSON(w, http.StatusOK, CleanResponse{OriginalURL: raw, CleanedURL: out})
	}
}

func handleRecent(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 500 {
				http.Error(w, "limit must be between 1 and 500", http.StatusBadRequest)
				return
			}
			limit = n
		}

		links, err := store.RecentLinks(r.Context(), limit)
		if err != nil {
			http.Error(w, "recent links failed", http.StatusInternalServerError)
			return
		}

		out := make([]LinkResponse, 0, len(links))
		for _, l := range links {
			out = append(out, LinkResponse{RawURL: l.RawURL, CleanedURL: l.CleanedURL, Timestamp: l.Timestamp})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", slog.Any("err", err))
	}
}
