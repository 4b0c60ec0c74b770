package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/goalgraph/pkg/coordinator"
	gerrors "github.com/matzehuels/goalgraph/pkg/errors"
	"github.com/matzehuels/goalgraph/pkg/goal"
	"github.com/matzehuels/goalgraph/pkg/layout"
)

// newServeCmd creates the serve command running the HTTP API.
func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

The API exposes the document, the computed layout, and the progress history,
and accepts the same mutations as the CLI. With the mongo backend, changes
made by other clients are applied live.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Serve.Addr = addr
			}

			c, stop, err := newCoordinator(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer stop()

			return runServer(ctx, cfg.Serve.Addr, c, logger)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config, :8080)")
	return cmd
}

func runServer(ctx context.Context, addr string, c *coordinator.Coordinator, logger *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(c, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// newRouter builds the chi router for the API.
func newRouter(c *coordinator.Coordinator, logger *log.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", handleGetGraph(c))
		r.Get("/layout", handleGetLayout(c))
		r.Get("/layout/{graph}", handleGetLayout(c))
		r.Get("/progress", handleGetProgress(c))

		r.Post("/nodes", handleAddNode(c))
		r.Post("/nodes/{id}/status", handleSetStatus(c))
		r.Put("/nodes/{id}/size", handleObserveSize(c))
		r.Delete("/nodes/{id}", handleDeleteNode(c))

		r.Post("/relationships", handleAddRelationship(c))
		r.Put("/viewport", handleUpdateViewport(c))
	})

	return r
}

// requestLogger logs each request at debug level with method, path, and duration.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, req)
			logger.Debug("request",
				"method", req.Method,
				"path", req.URL.Path,
				"duration", time.Since(start).Round(time.Microsecond),
			)
		})
	}
}

// =============================================================================
// Handlers
// =============================================================================

func handleGetGraph(c *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, c.Document())
	}
}

func handleGetLayout(c *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if g := chi.URLParam(req, "graph"); g != "" {
			c.SetActiveGraph(goal.GraphID(g))
		}
		writeJSON(w, http.StatusOK, c.View())
	}
}

func handleGetProgress(c *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, c.View().History)
	}
}

func handleAddNode(c *coordinator.Coordinator) http.HandlerFunc {
	type request struct {
		Label              string        `json:"label"`
		Type               string        `json:"type"`
		PercentageOfParent float64       `json:"percentage_of_parent"`
		Parents            []goal.NodeID `json:"parents"`
	}
	return func(w http.ResponseWriter, req *http.Request) {
		var body request
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, gerrors.New(gerrors.ErrCodeInvalidNode, "invalid request body"))
			return
		}
		id, err := c.AddNode(req.Context(), body.Label, body.Type, body.PercentageOfParent, body.Parents)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]goal.NodeID{"id": id})
	}
}

func handleSetStatus(c *coordinator.Coordinator) http.HandlerFunc {
	type request struct {
		Status goal.Status `json:"status"`
	}
	return func(w http.ResponseWriter, req *http.Request) {
		var body request
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, gerrors.New(gerrors.ErrCodeInvalidStatus, "invalid request body"))
			return
		}
		id := goal.NodeID(chi.URLParam(req, "id"))
		if err := c.SetNodeStatus(req.Context(), id, body.Status); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleObserveSize(c *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var size layout.Size
		if err := json.NewDecoder(req.Body).Decode(&size); err != nil {
			writeError(w, gerrors.New(gerrors.ErrCodeInvalidNode, "invalid request body"))
			return
		}
		c.ObserveSize(goal.NodeID(chi.URLParam(req, "id")), size)
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleDeleteNode(c *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id := goal.NodeID(chi.URLParam(req, "id"))
		if err := c.DeleteNode(req.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleAddRelationship(c *coordinator.Coordinator) http.HandlerFunc {
	type request struct {
		Source goal.NodeID `json:"source"`
		Target goal.NodeID `json:"target"`
	}
	return func(w http.ResponseWriter, req *http.Request) {
		var body request
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, gerrors.New(gerrors.ErrCodeInvalidRelationship, "invalid request body"))
			return
		}
		if err := c.AddRelationship(req.Context(), body.Source, body.Target); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleUpdateViewport(c *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var vp goal.Viewport
		if err := json.NewDecoder(req.Body).Decode(&vp); err != nil {
			writeError(w, gerrors.New(gerrors.ErrCodeInvalidNode, "invalid request body"))
			return
		}
		if err := c.UpdateViewport(req.Context(), vp); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// =============================================================================
// Responses
// =============================================================================

type apiError struct {
	Code    gerrors.Code `json:"code"`
	Message string       `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps error codes to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch gerrors.GetCode(err) {
	case gerrors.ErrCodeNodeNotFound, gerrors.ErrCodeDocumentNotFound:
		status = http.StatusNotFound
	case gerrors.ErrCodeInvalidNode, gerrors.ErrCodeInvalidStatus, gerrors.ErrCodeInvalidRelationship:
		status = http.StatusBadRequest
	case gerrors.ErrCodeCycleDetected:
		status = http.StatusConflict
	case gerrors.ErrCodeSyncFetch, gerrors.ErrCodeSyncWrite, gerrors.ErrCodeSyncSubscribe:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]apiError{"error": {
		Code:    gerrors.GetCode(err),
		Message: gerrors.UserMessage(err),
	}})
}
