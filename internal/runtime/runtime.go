package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/imranpollob/document-echo/internal/audiocache"
	"github.com/imranpollob/document-echo/internal/bus"
	"github.com/imranpollob/document-echo/internal/config"
	"github.com/imranpollob/document-echo/internal/natsserver"
	"github.com/imranpollob/document-echo/internal/player"
	"github.com/imranpollob/document-echo/internal/reader"
	"github.com/imranpollob/document-echo/internal/speech"
)

// Runtime wires the document-echo services together for one process:
// telemetry, bus, audio cache, synthesizer, orchestrator, and the HTTP
// health/metrics surface.
type Runtime struct {
	cfg         config.Config
	logger      *slog.Logger
	httpServer  *http.Server
	tracerClose func(context.Context) error
	ready       atomic.Bool
	wg          sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry

	embedded, err := natsserver.Start(r.cfg.Bus, r.logger)
	if err != nil {
		return fmt.Errorf("failed to start embedded bus: %w", err)
	}
	defer embedded.Shutdown()

	busClient, err := bus.Connect(ctx, r.cfg.Bus, r.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to bus: %w", err)
	}
	defer busClient.Close()

	// Cache trouble never blocks playback: a failed durable tier degrades
	// to memory-only caching.
	store, err := audiocache.OpenStore(ctx, r.cfg.Cache, r.logger)
	if err != nil {
		r.logger.Warn("durable cache unavailable, continuing memory-only", slog.String("error", err.Error()))
		store = nil
	}
	defer store.Close()

	cache, err := audiocache.New(r.cfg.Cache.MemoryEntries, store, r.logger)
	if err != nil {
		return fmt.Errorf("failed to build audio cache: %w", err)
	}

	synth, err := r.buildSynthesizer(ctx)
	if err != nil {
		return fmt.Errorf("failed to build synthesizer: %w", err)
	}

	renderer := player.NewBusRenderer(busClient, r.logger)
	orch := player.NewOrchestrator(ctx, cache, synth, renderer, player.Options{
		Voice:         r.cfg.Speech.Voice,
		Speed:         r.cfg.Speech.Speed,
		Locale:        r.cfg.Speech.Locale,
		PrefetchAhead: r.cfg.Playback.PrefetchAhead,
		SynthTimeout:  time.Duration(r.cfg.Speech.SynthTimeoutMS) * time.Millisecond,
	}, r.logger)
	defer orch.Close()

	playerSvc := player.NewService(busClient, orch, r.logger)
	if err := playerSvc.Start(); err != nil {
		return fmt.Errorf("failed to start player service: %w", err)
	}
	defer playerSvc.Close()

	readerSvc := reader.NewService(busClient, orch, r.logger)
	if err := readerSvc.Start(); err != nil {
		return fmt.Errorf("failed to start reader service: %w", err)
	}
	defer readerSvc.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", r.handleHealth)
	mux.HandleFunc("/readyz", r.handleReady)
	if metricHandler != nil {
		mux.Handle("/metrics", metricHandler)
	}

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started", slog.String("addr", addr), slog.String("engine", r.cfg.Speech.Engine))

	<-ctx.Done()
	r.ready.Store(false)
	r.logger.Info("runtime stopping")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	r.wg.Wait()

	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return nil
}

// buildSynthesizer constructs the preferred backend. Failures of the remote
// backend at runtime are handled per segment by the orchestrator; only
// misconfiguration is fatal here.
func (r *Runtime) buildSynthesizer(ctx context.Context) (speech.Synthesizer, error) {
	if r.cfg.Speech.Engine == "remote" {
		remote := speech.NewRemoteSynth(r.cfg.Speech.Endpoint)
		voicesCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if voices, err := remote.Voices(voicesCtx); err != nil {
			r.logger.Warn("remote voice inventory unavailable", slog.String("error", err.Error()))
		} else {
			r.logger.Info("remote voices available", slog.Int("count", len(voices)))
		}
		return remote, nil
	}

	switch r.cfg.Speech.DeviceMode {
	case "exec":
		return speech.NewExecSynth(r.cfg.Speech.DeviceCommand)
	default:
		return speech.NewMockSynth(), nil
	}
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Runtime) handleReady(w http.ResponseWriter, _ *http.Request) {
	if r.ready.Load() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}
