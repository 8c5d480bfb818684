package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/groundwater-cli/internal/config"
	"github.com/sells-group/groundwater-cli/internal/engine"
	"github.com/sells-group/groundwater-cli/internal/years"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve groundwater queries over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		if secs := cfg.Index.ReloadIntervalSecs; secs > 0 {
			go env.Index.Watch(ctx, env.Store, time.Duration(secs)*time.Second)
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(env.Engine, cfg.Server),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port), zap.Int("index_nodes", env.Engine.Index().Nodes))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// buildRouter mounts the query API over eng.
func buildRouter(eng *engine.Engine, sc config.ServerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: sc.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(rateLimit(rate.NewLimiter(rate.Limit(sc.RateLimit), sc.RateBurst)))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		st := eng.Index()
		writeJSON(w, http.StatusOK, map[string]any{
			"status":           "ok",
			"index_nodes":      st.Nodes,
			"index_generation": st.Generation,
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/years", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, eng.AvailableYears(req.Context()))
		})
		r.Get("/metrics", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"metrics": eng.Metrics()})
		})
		r.Get("/locations/resolve", func(w http.ResponseWriter, req *http.Request) {
			q := req.URL.Query()
			writeJSON(w, http.StatusOK, eng.Resolve(req.Context(), q.Get("name"), q.Get("type"), q.Get("parent")))
		})
		r.Get("/locations/children", func(w http.ResponseWriter, req *http.Request) {
			q := req.URL.Query()
			writeJSON(w, http.StatusOK, eng.ListChildren(req.Context(), engine.ChildrenRequest{
				Type:   q.Get("type"),
				Parent: q.Get("parent"),
			}))
		})
		r.Get("/groundwater", func(w http.ResponseWriter, req *http.Request) {
			q := req.URL.Query()
			yp, err := queryYears(req)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			writeJSON(w, http.StatusOK, eng.ResolveAndFetch(req.Context(), engine.LookupRequest{
				Name:   q.Get("name"),
				Type:   q.Get("type"),
				Parent: q.Get("parent"),
				Metric: q.Get("metric"),
				Years:  yp,
			}))
		})
		r.Get("/compare", func(w http.ResponseWriter, req *http.Request) {
			q := req.URL.Query()
			yp, err := queryYears(req)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			writeJSON(w, http.StatusOK, eng.Compare(req.Context(), engine.CompareRequest{
				Names:  q["names"],
				Type:   q.Get("type"),
				Metric: q.Get("metric"),
				Years:  yp,
			}))
		})
		r.Get("/rank", func(w http.ResponseWriter, req *http.Request) {
			q := req.URL.Query()
			yp, err := queryYears(req)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			limit := 0
			if s := q.Get("limit"); s != "" {
				if limit, err = strconv.Atoi(s); err != nil {
					writeError(w, http.StatusBadRequest, eris.Errorf("limit must be an integer, got %q", s))
					return
				}
			}
			writeJSON(w, http.StatusOK, eng.Rank(req.Context(), engine.RankRequest{
				Metric: q.Get("metric"),
				Type:   q.Get("type"),
				Order:  q.Get("order"),
				Limit:  limit,
				Within: q.Get("within"),
				Years:  yp,
			}))
		})
		r.Post("/index/reload", func(w http.ResponseWriter, req *http.Request) {
			st, err := eng.ReloadIndex(req.Context())
			if err != nil {
				zap.L().Error("index reload failed", zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{
					"error":            "index reload failed",
					"index_nodes":      st.Nodes,
					"index_generation": st.Generation,
				})
				return
			}
			writeJSON(w, http.StatusOK, st)
		})
	})

	return r
}

// queryYears reads the year selectors. Only a malformed all flag is
// rejected here; year values are validated by the engine.
func queryYears(req *http.Request) (years.Params, error) {
	q := req.URL.Query()
	p := years.Params{
		Year: q.Get("year"),
		From: q.Get("from"),
		To:   q.Get("to"),
	}
	for _, v := range q["years"] {
		for _, y := range strings.Split(v, ",") {
			if y = strings.TrimSpace(y); y != "" {
				p.Specific = append(p.Specific, y)
			}
		}
	}
	if s := q.Get("all"); s != "" {
		all, err := strconv.ParseBool(s)
		if err != nil {
			return years.Params{}, eris.Errorf("all must be a boolean, got %q", s)
		}
		p.All = all
	}
	return p, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

const requestIDHeader = "X-Request-ID"

// requestID propagates the caller's request id or assigns a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("request",
			zap.String("request_id", r.Header.Get(requestIDHeader)),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

// rateLimit rejects requests beyond the shared limiter's budget.
func rateLimit(l *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				w.Header().Set("Retry-After", "1")
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
