// Package server exposes the catalog and the simulators over HTTP.
//
// Request bodies use "useAfterburner". The misspelled "useAfterburnner"
// sent by older clients is still accepted and takes precedence.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/dragsim/internal/log"
	"github.com/san-kum/dragsim/internal/metrics"
	"github.com/san-kum/dragsim/internal/sim"
	"github.com/san-kum/dragsim/internal/vehicles"
)

const (
	DefaultCacheSize = 256
	CacheTTL         = time.Hour
	shutdownTimeout  = 5 * time.Second
)

type Server struct {
	catalog *vehicles.Catalog
	cfg     sim.Config
	cache   *expirable.LRU[string, []byte]
	lg      *log.Logger
	router  *mux.Router
}

// New builds the router. cacheSize <= 0 selects DefaultCacheSize.
func New(catalog *vehicles.Catalog, cfg sim.Config, cacheSize int, lg *log.Logger) *Server {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	s := &Server{
		catalog: catalog,
		cfg:     cfg,
		cache:   expirable.NewLRU[string, []byte](cacheSize, nil, CacheTTL),
		lg:      lg,
		router:  mux.NewRouter(),
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/vehicles", s.listVehicles).Methods("GET")
	api.HandleFunc("/vehicles/{id}", s.getVehicle).Methods("GET")
	api.HandleFunc("/simulate", s.simulate).Methods("POST", "OPTIONS")
	api.HandleFunc("/race", s.race).Methods("POST", "OPTIONS")
	api.HandleFunc("/density", s.density).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	s.router.Use(s.instrument, cors)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.lg.Info("REST API server running", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.RecordRequest(route, strconv.Itoa(rec.code))
		s.lg.Debug("request",
			"method", r.Method,
			"route", route,
			"status", rec.code,
			"elapsed", time.Since(start))
	})
}
