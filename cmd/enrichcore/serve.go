package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/foliolegal/enrichcore/pkg/events"
	"github.com/foliolegal/enrichcore/pkg/job"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd starts the enrichment HTTP/SSE server. The transport layer is
// out of the core's scope per spec.md — a thin net/http mux is enough
// here, with no router dependency since chi is not wired to any
// SPEC_FULL.md component.
type ServeCmd struct {
	Address string `help:"Address to listen on (overrides config)." placeholder:"HOST:PORT"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := withSignalCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig(ctx, cli.Config)
	if err != nil {
		return err
	}
	if c.Address != "" {
		cfg.Server.Address = c.Address
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /jobs", a.handleSubmit)
	mux.HandleFunc("GET /jobs/{id}/events", a.handleEvents)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: cfg.Server.Address, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("\nenrichcore server ready: http://%s\n", cfg.Server.Address)
	fmt.Println("Press Ctrl+C to stop")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// handleSubmit accepts a document, creates a pending job, persists it, and
// runs the pipeline in the background; clients poll/stream /jobs/{id}/events
// for progress.
func (a *app) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content  string `json:"content"`
		Format   string `json:"format"`
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	format := job.Format(req.Format)
	if format == "" {
		format = job.FormatText
	}

	j := job.New(generateJobID(), job.Input{Content: req.Content, Format: format, Filename: req.Filename})
	if err := a.jobs.Save(r.Context(), j); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	go func() {
		bg := context.Background()
		if err := a.Run(bg, j); err != nil {
			slog.Error("pipeline run failed", "job_id", j.ID, "error", err)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"job_id": j.ID})
}

func (a *app) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sink := &flushWriter{w: w, f: flusher}
	writer := events.NewWriter(sink)
	if err := events.Stream(r.Context(), a.jobs, id, writer, a.cfg.Server.EventPollPeriod); err != nil {
		slog.Warn("event stream ended", "job_id", id, "error", err)
	}
}

type flushWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

func (fw *flushWriter) Write(p []byte) (int, error) { return fw.w.Write(p) }
func (fw *flushWriter) Flush()                      { fw.f.Flush() }
