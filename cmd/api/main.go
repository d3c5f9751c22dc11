package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/svq/chalet-bookings/internal/availability"
	"github.com/svq/chalet-bookings/internal/calendar"
	"github.com/svq/chalet-bookings/internal/http/handlers"
	apimw "github.com/svq/chalet-bookings/internal/http/middleware"
	"github.com/svq/chalet-bookings/internal/platform/mailer"
	"github.com/svq/chalet-bookings/internal/repo/postgres"
	"github.com/svq/chalet-bookings/internal/selection"
	"github.com/svq/chalet-bookings/internal/service"
	"github.com/svq/chalet-bookings/internal/store"
	"github.com/svq/chalet-bookings/pkg/config"
	"github.com/svq/chalet-bookings/pkg/database"
	"github.com/svq/chalet-bookings/pkg/events"
	"github.com/svq/chalet-bookings/pkg/logger"
	mw "github.com/svq/chalet-bookings/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid redis URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	repo := postgres.NewBookingRepository(pool)

	bookings := store.New(repo)
	if err := bookings.Refresh(ctx); err != nil {
		logger.Error("Failed to load bookings", "error", err)
		os.Exit(1)
	}

	// other instances' mutations land here and trigger a re-list
	if err := eventBus.Subscribe(events.BookingChanged, func(msg *events.Message) {
		if err := bookings.Refresh(context.Background()); err != nil {
			logger.Error("Change-feed refresh failed", "error", err)
		}
	}); err != nil {
		logger.Error("Failed to subscribe to booking changes", "error", err)
		os.Exit(1)
	}

	season := calendar.Season{Start: cfg.Season.Start, End: cfg.Season.End}
	engine := availability.NewEngine(bookings)
	sessions := selection.NewRegistry(season, engine, 30*time.Minute)
	svc := service.NewBookingService(repo, bookings, selectMailer(cfg), eventBus)

	guest := handlers.NewGuestHandler(bookings, engine, sessions, svc, season)
	owner := handlers.NewOwnerHandler(bookings, svc, cfg.Owner)

	submitLimiter := apimw.NewRateLimiter(rdb, apimw.RateLimitConfig{
		Requests: 5,
		Window:   time.Minute,
		KeyFunc:  apimw.StayRequestRateLimitKeyFunc,
	})

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("chalet-api"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", handlers.SelectionSessionHeader},
		ExposedHeaders:   []string{handlers.SelectionSessionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/calendar", guest.Calendar)
		r.Get("/availability", guest.Availability)
		r.Get("/stays", guest.ListStays)
		r.With(
			submitLimiter.Middleware(),
			mw.IdempotencyMiddleware(mw.NewRedisIdempotencyStore(rdb)),
		).Post("/bookings", guest.CreateBooking)

		r.Route("/selection", func(r chi.Router) {
			r.Post("/click", guest.SelectionClick)
			r.Post("/hover", guest.SelectionHover)
			r.Post("/cancel", guest.SelectionCancel)
		})

		r.Post("/owner/login", owner.Login)
		r.Route("/owner/bookings", func(r chi.Router) {
			r.Use(apimw.RequireOwner(cfg.Owner.JWTSecret))
			r.Get("/", owner.List)
			r.Post("/{id}/approve", owner.Approve)
			r.Post("/{id}/reject", owner.Reject)
			r.Delete("/{id}", owner.Delete)
		})
		r.With(apimw.RequireOwner(cfg.Owner.JWTSecret)).Get("/owner/stats", owner.Stats)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down chalet API...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
	}()

	logger.Info("Starting chalet API", "port", cfg.Server.Port,
		"season_start", cfg.Season.Start, "season_end", cfg.Season.End)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// selectMailer picks the notification backend: dev logging, MailerSend
// when an API key is configured, plain SMTP otherwise.
func selectMailer(cfg *config.Config) mailer.Service {
	email := cfg.Email
	switch {
	case email.DevMode:
		return mailer.NewDevMailer(email.OwnerName, email.OwnerEmail)
	case email.MailerSendKey != "":
		return mailer.NewMailer(email.MailerSendKey, email.SMTPFrom, email.OwnerName, email.OwnerEmail)
	default:
		return mailer.NewSMTPMailer(
			email.SMTPHost, email.SMTPPort, email.SMTPFrom,
			email.SMTPUser, email.SMTPPass,
			email.OwnerName, email.OwnerEmail,
		)
	}
}
