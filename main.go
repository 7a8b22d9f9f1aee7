package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	chimiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/homebase-app/homebase/chore"
	"github.com/homebase-app/homebase/config"
	"github.com/homebase-app/homebase/database"
	"github.com/homebase-app/homebase/event"
	"github.com/homebase-app/homebase/expense"
	"github.com/homebase-app/homebase/group"
	"github.com/homebase-app/homebase/logging"
	"github.com/homebase-app/homebase/middleware"
	"github.com/homebase-app/homebase/profile"
	"github.com/homebase-app/homebase/session"
	"github.com/homebase-app/homebase/shopping"
)

func main() {
	godotenv.Load()
	logging.Setup()

	// Monetary amounts serialize as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true

	cfg := config.Load()

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		printErrorAndExit("database connection", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		printErrorAndExit("running migrations", err)
	}

	profileRepo := profile.NewRepository(db)
	sessionRepo := session.NewRepository(db)
	groupRepo := group.NewRepository(db)
	eventRepo := event.NewRepository(db)
	expenseRepo := expense.NewRepository(db)
	shoppingRepo := shopping.NewRepository(db)
	choreRepo := chore.NewRepository(db)

	expander := expense.NewExpander(eventRepo, cfg.MaxOccurrences)

	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Metrics)
	router.Use(middleware.Auth(sessionRepo))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/auth", profile.NewHandler(profileRepo, sessionRepo).Routes)
	router.Route("/api/groups", group.NewHandler(groupRepo).Routes)
	router.Route("/api/events", event.NewHandler(eventRepo).Routes)
	router.Route("/api/expenses", expense.NewHandler(expenseRepo, expander, groupRepo).Routes)
	router.Route("/api/shopping", shopping.NewHandler(shoppingRepo).Routes)
	router.Route("/api/chores", chore.NewHandler(choreRepo).Routes)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		printErrorAndExit("server", err)
	}
}

func printErrorAndExit(msg string, e error) {
	slog.Error(msg, "error", e)
	os.Exit(1)
}
