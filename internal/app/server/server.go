package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taskboard/internal/domain/analytics"
	"taskboard/internal/domain/core"
	"taskboard/internal/platform/config"
	"taskboard/internal/platform/db"
	"taskboard/internal/platform/kv"
	corehandler "taskboard/internal/transport/http/handlers/core"
	dashboardhandler "taskboard/internal/transport/http/handlers/dashboard"
	"taskboard/internal/transport/http/middleware"
)

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}

	var reportStore analytics.KV
	if cfg.RedisAddr != "" {
		redisStore, err := kv.New(ctx, cfg.RedisAddr)
		if err != nil {
			log.Printf("redis unavailable, report cache is in-memory only: %v", err)
		} else {
			defer redisStore.Close()
			reportStore = redisStore
		}
	}

	store := core.NewStore(pool)
	engine := analytics.NewEngine(store)
	cache := analytics.NewCache(cfg.ReportKey, cfg.CacheTTL, reportStore)
	scheduler := analytics.NewScheduler(engine, cache, store)
	scheduler.Start(ctx, cfg.RefreshInterval)
	defer scheduler.Stop()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics)
		router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		corehandler.NewHandler(store).RegisterRoutes(r)
		dashboardhandler.NewHandler(scheduler).RegisterRoutes(r)
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})

	log.Printf("taskboard server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, r.URL.Path)
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
