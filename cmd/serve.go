package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newsward/osint-core/internal/dispatch"
	"github.com/newsward/osint-core/internal/model"
	"github.com/newsward/osint-core/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lookup API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initCore(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(env),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(env *coreEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/providers", func(w http.ResponseWriter, req *http.Request) {
		handleProviders(env, w)
	})
	r.Get("/api/history", func(w http.ResponseWriter, req *http.Request) {
		handleHistory(env, w, req)
	})
	r.Post("/api/lookup", func(w http.ResponseWriter, req *http.Request) {
		handleLookup(env, w, req)
	})
	return r
}

type providerInfo struct {
	ID      string   `json:"id"`
	Enabled bool     `json:"enabled_by_default"`
	Timeout string   `json:"timeout"`
	Kinds   []string `json:"kinds"`
}

func handleProviders(env *coreEnv, w http.ResponseWriter) {
	out := make([]providerInfo, 0)
	for _, id := range env.Registry.List() {
		d := env.Registry.Get(id).Descriptor()
		kinds := make([]string, 0, len(d.Capabilities))
		for _, k := range d.Capabilities {
			kinds = append(kinds, string(k))
		}
		out = append(out, providerInfo{
			ID:      d.ID,
			Enabled: d.EnabledByDefault,
			Timeout: d.Timeout.String(),
			Kinds:   kinds,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func handleHistory(env *coreEnv, w http.ResponseWriter, req *http.Request) {
	records, err := env.History.List(req.Context(), store.HistoryFilter{
		Target: req.URL.Query().Get("target"),
		Limit:  50,
	})
	if err != nil {
		zap.L().Error("history list failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
		return
	}
	if records == nil {
		records = []model.HistoryRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// lookupRequest is the inbound shape for POST /api/lookup.
type lookupRequest struct {
	Target      string        `json:"target"`
	Kind        string        `json:"kind"`
	ProviderIDs []string      `json:"provider_ids"`
	Filters     model.Filters `json:"filters"`
}

func handleLookup(env *coreEnv, w http.ResponseWriter, req *http.Request) {
	var body lookupRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	kind, err := model.ParseQueryKind(body.Kind)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	query := model.Query{Target: body.Target, Kind: kind, Filters: body.Filters}

	// The request context is the session's lifetime: a client disconnect
	// cancels every in-flight provider call.
	sess := env.Service.NewSession()
	result, err := sess.Run(req.Context(), query, body.ProviderIDs)
	if err != nil {
		if errors.Is(err, dispatch.ErrNoProviders) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		zap.L().Error("lookup failed",
			zap.String("target", query.Target),
			zap.Error(err),
		)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
