package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"insightpaper/internal/cache"
	"insightpaper/internal/config"
	"insightpaper/internal/database"
	"insightpaper/internal/handlers"
	"insightpaper/internal/llm"
	"insightpaper/internal/repository"
	"insightpaper/internal/security"
	"insightpaper/internal/service"
	"insightpaper/internal/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()

	// Initialize database (sqlserver, postgres or mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	modelCatalog := cache.NewCachedModels(repository.NewModelRepository(db), cfg.ModelCacheTTL)

	challenges, closeChallenges := newChallengeStore(ctx, cfg, tokenRepo)
	defer closeChallenges()

	transport, closeTransport := newMailTransport(ctx, cfg)
	defer closeTransport()
	emailService, err := service.NewEmailService(transport, cfg.ClientURL)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	var blobs service.BlobStore
	if cfg.FirebaseBucket != "" {
		store, err := storage.NewFirebaseStore(ctx, cfg.FirebaseBucket, cfg.FirebaseCredentialsFile)
		if err != nil {
			log.Fatalf("Failed to initialize file storage: %v", err)
		}
		defer store.Close()
		blobs = store
	} else {
		log.Println("FIREBASE_BUCKET not set, document uploads are disabled")
	}

	llmClient := llm.NewClient(cfg.LLMServerURL, cfg.LLMTimeout)
	tokens := security.NewTokens(
		cfg.JWTSecret, cfg.JWTExpiresIn,
		cfg.RefreshSecret, cfg.RefreshExpiresIn,
		cfg.ForgotPasswordSecret, cfg.ForgotPasswordExpiresIn,
	)

	// Initialize services
	authService := service.NewAuthService(userRepo, tokenRepo, challenges, tokens, emailService, cfg.OTPIssuer, cfg.ClientURL)
	courseService := service.NewCourseService(courseRepo, emailService, cfg.SearchConcurrency)
	documentService := service.NewDocumentService(documentRepo, courseRepo, llmClient, blobs, emailService, cfg.SearchConcurrency)
	questionService := service.NewQuestionService(questionRepo, llmClient, modelCatalog)
	notificationService := service.NewNotificationService(notificationRepo)
	modelService := service.NewModelService(modelCatalog)

	limiter := security.NewRateLimiter(cfg.LoginRateLimit, time.Minute)
	defer limiter.Stop()

	// Initialize handlers
	router := &handlers.Router{
		Middleware:    handlers.NewMiddleware(tokens, limiter),
		Metrics:       handlers.NewMetrics(),
		CORSOrigins:   cfg.CORSOrigins,
		Status:        handlers.NewStatusHandler(db, cfg.StatusTimeout),
		Users:         handlers.NewUserHandler(authService, security.CookiePolicy{Domain: cfg.CookieDomain, Production: cfg.IsProduction()}, cfg.AuthCookieMaxAge, cfg.RefreshCookieMaxAge),
		Courses:       handlers.NewCourseHandler(courseService),
		Documents:     handlers.NewDocumentHandler(documentService),
		Questions:     handlers.NewQuestionHandler(questionService),
		Notifications: handlers.NewNotificationHandler(notificationService),
		Models:        handlers.NewModelHandler(modelService),
	}

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}

// newChallengeStore picks where emailed OTP challenges live.
func newChallengeStore(ctx context.Context, cfg *config.Config, tokenRepo *repository.TokenRepository) (service.ChallengeStore, func()) {
	if cfg.OTPStore != "redis" {
		return tokenRepo, func() {}
	}
	client, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	log.Println("OTP challenges stored in redis")
	return cache.NewRedisChallengeStore(client), func() {
		if err := client.Close(); err != nil {
			log.Printf("Error closing redis client: %v", err)
		}
	}
}

// newMailTransport builds the single long-lived mail transport.
func newMailTransport(ctx context.Context, cfg *config.Config) (service.Transport, func()) {
	if cfg.MailFrom == "" {
		log.Println("MAIL_FROM not set, emails will only be logged")
		return service.LogTransport{}, func() {}
	}
	switch cfg.MailTransport {
	case "ses":
		t, err := service.NewSESTransport(ctx, cfg.AWSRegion, cfg.MailFrom, cfg.MailFromName)
		if err != nil {
			log.Fatalf("Failed to initialize SES transport: %v", err)
		}
		return t, func() {}
	default:
		t, err := service.NewSMTPTransport(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPassword, cfg.MailFrom, cfg.MailFromName)
		if err != nil {
			log.Fatalf("Failed to initialize SMTP transport: %v", err)
		}
		return t, func() {
			if err := t.Close(); err != nil {
				log.Printf("Error closing SMTP connection: %v", err)
			}
		}
	}
}
