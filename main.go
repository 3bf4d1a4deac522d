package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"habitsAPI/handlers"
	"habitsAPI/internal/bootstrap"
	"habitsAPI/internal/clock"
	"habitsAPI/internal/config"
	"habitsAPI/internal/logger"
	"habitsAPI/internal/metrics"
	"habitsAPI/internal/notification"
	"habitsAPI/internal/storage"
	"habitsAPI/middleware"
	"habitsAPI/services"

	_ "net/http/pprof"
)

const (
	dispatchWorkers   = 5
	dispatchQueueSize = 100
)

type app struct {
	store       storage.Store
	dispatcher  *services.NotificationDispatcher
	limiter     *middleware.RateLimiter
	userService *services.UserService

	habitHandler        *handlers.HabitHandler
	socialHandler       *handlers.SocialHandler
	leaderboardHandler  *handlers.LeaderboardHandler
	userHandler         *handlers.UserHandler
	notificationHandler *handlers.NotificationHandler
	webhookHandler      *handlers.WebhookHandler
	healthHandler       *handlers.HealthHandler
}

func newApp(cfg *config.Config, store storage.Store, clk clock.Clock) (*app, error) {
	dispatcher := services.NewNotificationDispatcher(dispatchWorkers, dispatchQueueSize)

	habitService := services.NewHabitService(store, clk, cfg.Location())
	userService := services.NewUserService(store)
	socialService := services.NewSocialService(store, habitService)
	leaderboardService := services.NewLeaderboardService(store, habitService)
	notificationService := services.NewNotificationService(store, dispatcher)
	habitService.SetNotifier(notificationService)

	webhookHandler, err := handlers.NewWebhookHandler(userService, cfg.ClerkWebhookSecret)
	if err != nil {
		dispatcher.Stop()
		return nil, err
	}

	return &app{
		store:       store,
		dispatcher:  dispatcher,
		limiter:     middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		userService: userService,

		habitHandler:        handlers.NewHabitHandler(habitService),
		socialHandler:       handlers.NewSocialHandler(socialService, userService),
		leaderboardHandler:  handlers.NewLeaderboardHandler(leaderboardService),
		userHandler:         handlers.NewUserHandler(userService),
		notificationHandler: handlers.NewNotificationHandler(notificationService),
		webhookHandler:      webhookHandler,
		healthHandler:       handlers.NewHealthHandler(store),
	}, nil
}

func (a *app) router(cfg *config.Config) *mux.Router {
	r := mux.NewRouter()

	standardRouter := r.PathPrefix("/").Subrouter()
	standardRouter.Use(a.limiter.Middleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(cfg.MetricsUser, cfg.MetricsPass)(promhttp.Handler()))
	standardRouter.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(cfg.PprofSecret)(http.DefaultServeMux))

	standardRouter.HandleFunc("/health", a.healthHandler.Health).Methods("GET")
	standardRouter.HandleFunc("/webhooks/clerk", a.webhookHandler.HandleClerkWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := standardRouter.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)
	protected.Use(middleware.UserResolver(a.userService))

	protected.HandleFunc("/user", a.userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user", a.userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user", a.userHandler.DeleteAccount).Methods("DELETE")

	protected.HandleFunc("/habits", a.habitHandler.ListHabits).Methods("GET")
	protected.HandleFunc("/habits", a.habitHandler.CreateHabit).Methods("POST")
	protected.HandleFunc("/habits/{id}", a.habitHandler.UpdateHabit).Methods("PUT")
	protected.HandleFunc("/habits/{id}", a.habitHandler.DeleteHabit).Methods("DELETE")
	protected.HandleFunc("/habits/{id}/toggle", a.habitHandler.ToggleCompletion).Methods("POST")
	protected.HandleFunc("/habits/{id}/completions", a.habitHandler.GetCompletions).Methods("GET")

	protected.HandleFunc("/social/search", a.socialHandler.SearchUsers).Methods("GET")
	protected.HandleFunc("/social/follow", a.socialHandler.Follow).Methods("POST")
	protected.HandleFunc("/social/unfollow", a.socialHandler.Unfollow).Methods("POST")
	protected.HandleFunc("/social/friends", a.socialHandler.GetFriends).Methods("GET")
	protected.HandleFunc("/social/activity", a.socialHandler.GetActivityFeed).Methods("GET")
	protected.HandleFunc("/social/profile/{userId}", a.socialHandler.GetProfile).Methods("GET")

	protected.HandleFunc("/leaderboard", a.leaderboardHandler.GetGlobalLeaderboard).Methods("GET")
	protected.HandleFunc("/leaderboard/friends", a.leaderboardHandler.GetFriendsLeaderboard).Methods("GET")

	protected.HandleFunc("/notifications", a.notificationHandler.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/{id}/read", a.notificationHandler.MarkAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/register-device", a.notificationHandler.RegisterDevice).Methods("POST")

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	return gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(origins),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)
}

func main() {
	if err := run(); err != nil {
		logger.Fatal("server exited", "err", err)
	}
}

func run() error {
	cfg, err := bootstrap.Setup()
	if err != nil {
		return err
	}

	clerk.SetKey(cfg.ClerkSecretKey)
	metrics.InitPrometheus()

	store, err := bootstrap.OpenStore(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	a, err := newApp(cfg, store, clock.Real{})
	if err != nil {
		return err
	}
	defer a.dispatcher.Stop()

	fcmService, err := notification.NewFCMService(context.Background(), cfg.FCMServiceAccount, cfg.FCMCredentialsFile)
	if err != nil {
		logger.Warn("could not initialize FCM, push notifications disabled", "err", err)
	} else {
		a.dispatcher.SetPushProvider(fcmService)
		logger.Info("FCM push provider initialized")
	}

	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	go a.limiter.Cleanup(cleanupCtx)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      corsHandler(cfg.CORSAllowedOrigins)(a.router(cfg)),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", server.Addr, "storage", cfg.StorageDriver, "timezone", cfg.StreakTimezone)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("got signal, shutting down", "signal", sig.String())
	case err, ok := <-serverErr:
		if ok {
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}

	logger.Info("server shutdown complete")
	return nil
}
