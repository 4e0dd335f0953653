package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	api "github.com/tvetlabs/tvet-platform/internal/api/http"
	"github.com/tvetlabs/tvet-platform/internal/cache"
	"github.com/tvetlabs/tvet-platform/internal/config"
	"github.com/tvetlabs/tvet-platform/internal/db"
	"github.com/tvetlabs/tvet-platform/internal/event"
	"github.com/tvetlabs/tvet-platform/internal/notify"
	"github.com/tvetlabs/tvet-platform/internal/quiz"
	"github.com/tvetlabs/tvet-platform/internal/syncx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("db open failed")
	}
	defer dbh.Close()

	// --- Event bus + collaborators ---
	bus := event.NewBus(log)
	event.NewLogRepo(dbh, log).Attach(bus)
	notify.New(bus, log).Attach()

	// --- Quiz engine ---
	history := quiz.NewSQLHistory(dbh, cfg.HistoryCap, log)
	fsProvider, err := quiz.NewFSProvider(cfg.QuizDataDir)
	if err != nil {
		log.WithError(err).Fatal("quiz data dir")
	}
	provider := quiz.Fallback(fsProvider, log)
	mgr := quiz.NewManager(provider, history, bus, log)
	defer mgr.CloseAll()

	// --- Background sync ---
	queue := syncx.NewSQLQueue(dbh)
	worker, err := syncx.NewWorker(queue, cfg.UpstreamURL, nil, log)
	if err != nil {
		log.WithError(err).Fatal("sync worker")
	}
	worker.Attach(bus)

	// --- Cache dispatcher ---
	policy := cache.DefaultPolicy()
	if cfg.PolicyPath != "" {
		policy, err = cache.LoadPolicy(cfg.PolicyPath)
		if err != nil {
			log.WithError(err).Fatal("cache policy")
		}
	}
	store, err := cache.NewFSStore(cfg.CacheDir)
	if err != nil {
		log.WithError(err).Fatal("cache store")
	}
	upstream, err := cache.NewUpstream(cfg.UpstreamURL, nil)
	if err != nil {
		log.WithError(err).Fatal("upstream")
	}
	dispatcher := cache.NewDispatcher(policy, store, upstream, log)

	installCtx, cancelInstall := context.WithTimeout(context.Background(), 60*time.Second)
	if err := dispatcher.Install(installCtx); err != nil {
		// install must succeed atomically; the host runtime restarts us
		log.WithError(err).Fatal("precache install failed")
	}
	cancelInstall()
	if err := dispatcher.Activate(context.Background()); err != nil {
		log.WithError(err).Warn("stale cache cleanup failed")
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(ar chi.Router) {
		ar.Get("/quizzes/{quizType}", api.GetQuizHandler(provider))

		ar.Post("/sessions", api.StartSessionHandler(mgr))
		ar.Get("/sessions/{sessionID}", api.GetSessionHandler(mgr))
		ar.Post("/sessions/{sessionID}/answers", api.RecordAnswerHandler(mgr))
		ar.Post("/sessions/{sessionID}/next", api.NavigateHandler(mgr, true))
		ar.Post("/sessions/{sessionID}/previous", api.NavigateHandler(mgr, false))
		ar.Post("/sessions/{sessionID}/submit", api.SubmitHandler(mgr))
		ar.Post("/sessions/{sessionID}/restart", api.RestartHandler(mgr))
		ar.Delete("/sessions/{sessionID}", api.CloseSessionHandler(mgr))

		ar.Get("/history", api.GetHistoryHandler(history))
		ar.Delete("/history", api.ClearHistoryHandler(history))

		ar.Post("/sync/{tag}", api.TriggerSyncHandler(worker))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	// everything else goes through the caching proxy
	r.NotFound(dispatcher.ServeHTTP)
	r.MethodNotAllowed(dispatcher.ServeHTTP)

	// periodic background sync
	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go worker.Run(runCtx, cfg.SyncInterval)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.WithFields(logrus.Fields{
			"addr":     cfg.HTTPAddr,
			"db":       cfg.DBDriver,
			"upstream": cfg.UpstreamURL,
		}).Info("gateway listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server")
		}
	}()

	<-runCtx.Done()
	log.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown incomplete")
	}
	mgr.CloseAll()
}
