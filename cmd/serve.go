package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/batimetric/pricing-engine/internal/model"
	"github.com/batimetric/pricing-engine/pkg/catalog"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pricing HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			// The signal context is already canceled; give in-flight
			// requests their own drain window.
			drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(drainCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(env *engineEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(requestLogger)

	r.Post("/price", handlePrice(env))
	r.Post("/feedback", handleFeedback(env))
	r.Get("/search", handleSearch(env))
	r.Get("/health", handleHealth(env))

	return r
}

// requestLogger tags every request with a uuid and logs its outcome.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func handlePrice(env *engineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var proposal model.Proposal
		if err := json.NewDecoder(r.Body).Decode(&proposal); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := env.Engine.PriceProposal(r.Context(), proposal)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func handleFeedback(env *engineEnv) http.HandlerFunc {
	type feedbackIn struct {
		ProposalID   string   `json:"proposal_id"`
		ItemType     string   `json:"item_type"`
		ItemLabel    string   `json:"item_label"`
		FeedbackType string   `json:"feedback_type"`
		ActualPrice  *float64 `json:"actual_price,omitempty"`
		Comment      string   `json:"comment,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in feedbackIn
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if in.ItemLabel == "" {
			writeError(w, http.StatusBadRequest, "item_label is required")
			return
		}

		id, err := env.Ledger.Append(r.Context(), model.Correction{
			ProposalID:   in.ProposalID,
			ItemType:     model.ItemType(in.ItemType),
			ItemLabel:    in.ItemLabel,
			FeedbackType: model.FeedbackType(in.FeedbackType),
			ActualPrice:  in.ActualPrice,
			Comment:      in.Comment,
		})
		if err != nil {
			zap.L().Error("feedback append failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not record feedback")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "id": id})
	}
}

func handleSearch(env *engineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == "" {
			writeError(w, http.StatusBadRequest, "q is required")
			return
		}
		topK, _ := strconv.Atoi(r.URL.Query().Get("top_k"))

		hits, err := env.Catalog.Match(r.Context(), catalog.MatchRequest{
			QueryText:      q,
			TopK:           topK,
			CategoryFilter: r.URL.Query().Get("category"),
		})
		if err != nil {
			zap.L().Error("catalog search failed", zap.Error(err))
			writeError(w, http.StatusBadGateway, "catalog service unavailable")
			return
		}
		writeJSON(w, http.StatusOK, hits)
	}
}

func handleHealth(env *engineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := map[string]any{"status": "ok"}

		if stats, err := env.Catalog.CollectionStats(r.Context()); err == nil {
			out["catalog_products"] = stats.ProductCount
		}
		if records, err := env.Ledger.List(r.Context()); err == nil {
			out["ledger_records"] = len(records)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
