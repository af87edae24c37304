package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"gramtrack/internal/config"
	"gramtrack/internal/database"
	"gramtrack/internal/handlers"
	"gramtrack/internal/logger"
	"gramtrack/internal/repository"
	"gramtrack/internal/security"
	"gramtrack/internal/service"
	"gramtrack/internal/settings"
	"gramtrack/internal/sources"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.LogLevel, cfg.LogPretty)
	defer log.Sync()

	db, err := database.Initialize(cfg)
	if err != nil {
		log.Fatal("failed to initialize database", logger.Error(err))
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatal("failed to run migrations", logger.Error(err))
	}

	manifest, err := sources.LoadManifest(cfg.SourcesPath)
	if err != nil {
		log.Fatal("failed to load source manifest", logger.Error(err))
	}
	loader := sources.NewLoader(cfg.SourcesPath, manifest, log)

	store := settings.NewStore(
		settings.NewSQLBackend(db),
		settings.NewDiskBackend(cfg.LocalStorePath),
		log,
	)

	userRepo := repository.NewUserRepository(db)

	authService := service.NewAuthService(userRepo, log, cfg.SessionDuration)
	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, log)
	if err != nil {
		log.Fatal("failed to initialize email service", logger.Error(err))
	}
	searchService := service.NewSearchService()
	statsService := service.NewStatsService()
	groupsService := service.NewGroupsService(store)

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Scopes:       []string{"openid", "email", "profile"},
				Endpoint:     google.Endpoint,
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
		"apple": {
			Name:  "apple",
			Label: "Apple",
			Config: &oauth2.Config{
				ClientID:     cfg.AppleClientID,
				ClientSecret: cfg.AppleClientSecret,
				Scopes:       []string{"email", "name"},
				Endpoint: oauth2.Endpoint{
					AuthURL:  "https://appleid.apple.com/auth/authorize",
					TokenURL: "https://appleid.apple.com/auth/token",
				},
			},
			AuthParams: map[string]string{"response_mode": "query"},
		},
	}

	rateLimiter := security.NewRateLimiter(10, time.Minute)
	defer rateLimiter.Stop()
	mw := handlers.NewMiddleware(authService, rateLimiter, log)

	authHandler := handlers.NewAuthHandler(authService, emailService, log, oauthProviders, cfg.OAuthRedirectBaseURL)
	studyHandler := handlers.NewStudyHandler(loader, manifest, store, searchService, statsService, log)
	groupsHandler := handlers.NewGroupsHandler(groupsService, log)

	mux := http.NewServeMux()

	// Account endpoints
	mux.HandleFunc("POST /api/register", mw.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /api/login", mw.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /api/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/me", mw.Identify(authHandler.Me))
	mux.HandleFunc("POST /api/forgot-password", mw.RateLimit(authHandler.ForgotPassword))
	mux.HandleFunc("GET /api/reset-password/validate", authHandler.ValidateResetToken)
	mux.HandleFunc("POST /api/reset-password", mw.RateLimit(authHandler.ResetPassword))

	// OAuth endpoints
	mux.HandleFunc("GET /auth/providers", authHandler.Providers)
	mux.HandleFunc("GET /auth/{provider}/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", authHandler.OAuthCallback)

	// Study endpoints
	mux.HandleFunc("GET /api/sources", mw.Identify(studyHandler.Sources))
	mux.HandleFunc("GET /api/search", mw.Identify(studyHandler.Search))
	mux.HandleFunc("POST /api/read", mw.Identify(studyHandler.SetReadStatus))
	mux.HandleFunc("POST /api/filters", mw.Identify(studyHandler.SetFilter))
	mux.HandleFunc("POST /api/filters/all", mw.Identify(studyHandler.SetAllFilters))
	mux.HandleFunc("POST /api/locks", mw.Identify(studyHandler.SetLock))

	// Settings endpoints
	mux.HandleFunc("GET /api/settings", mw.Identify(studyHandler.Settings))
	mux.HandleFunc("POST /api/settings/unread-only", mw.Identify(studyHandler.SetUnreadOnly))
	mux.HandleFunc("POST /api/settings/read-only", mw.Identify(studyHandler.SetReadOnly))
	mux.HandleFunc("POST /api/settings/theme", mw.Identify(studyHandler.SetTheme))

	// Statistics endpoints
	mux.HandleFunc("GET /api/stats", mw.Identify(studyHandler.Stats))
	mux.HandleFunc("GET /api/heatmap", mw.Identify(studyHandler.Heatmap))
	mux.HandleFunc("GET /api/recent", mw.Identify(studyHandler.Recent))

	// Group endpoints
	mux.HandleFunc("GET /api/groups", mw.Identify(groupsHandler.List))
	mux.HandleFunc("POST /api/groups", mw.Identify(groupsHandler.Add))
	mux.HandleFunc("DELETE /api/groups/{id}", mw.Identify(groupsHandler.Delete))

	// Static files
	mux.Handle("/", http.FileServer(http.Dir(cfg.StaticFilesPath)))

	handler := handlers.Logging(log)(mux)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go cleanupExpired(authService, log)

	go func() {
		log.Info("server starting", logger.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", logger.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", logger.Error(err))
	}
	log.Info("server stopped")
}

// cleanupExpired periodically removes expired sessions and reset tokens
func cleanupExpired(authService *service.AuthService, log logger.Logger) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := authService.CleanupExpiredSessions(); err != nil {
			log.Error("failed to clean up expired sessions", logger.Error(err))
		}
		if err := authService.CleanupExpiredPasswordResetTokens(); err != nil {
			log.Error("failed to clean up expired reset tokens", logger.Error(err))
		}
	}
}
