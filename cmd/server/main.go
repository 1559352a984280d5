package main

import (
	"context"
	"errors"
	"leadchat-backend/internal/api"
	"leadchat-backend/internal/auth"
	"leadchat-backend/internal/config"
	"leadchat-backend/internal/handlers"
	"leadchat-backend/internal/llm"
	"leadchat-backend/internal/notify"
	"leadchat-backend/internal/services"
	"leadchat-backend/internal/store"
	"leadchat-backend/internal/store/memory"
	"leadchat-backend/internal/store/postgres"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const notifyTimeout = 30 * time.Second

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("FATAL: Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer closeLog()
	slog.SetDefault(logger)
	logger.Info("Starting Cloud Miami lead chat backend...", "env", cfg.Environment, "port", cfg.HTTPPort)

	// 2. Initialize the lead store
	leadStore, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("FATAL: Unable to initialize store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// 3. Initialize LLM clients
	chatClient, extractClient, err := openModels(cfg)
	if err != nil {
		logger.Error("FATAL: Unable to initialize LLM client", "error", err)
		os.Exit(1)
	}
	if chatClient == nil {
		logger.Warn("OPENAI_API_KEY not set, chat endpoints will answer 503")
	}

	// 4. Notification channels
	notifier := buildNotifier(cfg, logger)

	verifier, err := auth.NewPasswordVerifier(cfg.AdminPassword, cfg.AdminPasswordHash)
	if err != nil {
		logger.Error("FATAL: Invalid admin password configuration", "error", err)
		os.Exit(1)
	}
	if verifier == nil {
		logger.Warn("ADMIN_PASSWORD not set, admin login is disabled")
	}

	// --- Initialize Services ---
	bg := services.NewBackground(cfg.ExtractionWorkers, logger)
	leadService := services.NewLeadService(leadStore, notifier, bg, notifyTimeout, logger)
	meetingService := services.NewMeetingService(leadStore, leadService, logger)
	chatService := services.NewChatService(chatClient, services.DefaultSystemPrompt, cfg.ChatHistoryLimit, cfg.LLMTimeout, logger)
	authService := services.NewAuthService(verifier, cfg.JWTSecret, cfg.TokenExpiration, logger)

	var extractor *services.LeadExtractor
	if extractClient != nil {
		extractor = services.NewLeadExtractor(extractClient, leadService, logger)
	}
	pipeline := services.NewLeadPipeline(extractor, bg, cfg.ExtractionTimeout, logger)

	// --- Initialize Handlers ---
	rl := api.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	routerDeps := api.RouterDependencies{
		ServiceHandler: handlers.NewServiceHandlers(leadStore, handlers.Capabilities{
			Model:      chatService.Enabled(),
			ModelName:  chatService.ModelName(),
			Store:      cfg.DatabaseURL != "",
			Email:      cfg.EmailEnabled(),
			Slack:      cfg.SlackEnabled(),
			Admin:      authService.Enabled(),
			RateLimits: cfg.RateLimitPerMinute > 0,
		}),
		AuthHandler:     handlers.NewAuthHandler(authService),
		ChatHandler:     handlers.NewChatHandlers(chatService, pipeline, logger),
		LeadHandler:     handlers.NewLeadHandlers(leadService, meetingService, logger),
		CalendarHandler: handlers.NewCalendarHandlers(meetingService, cfg.CalendarWebhookSecret, logger),
		RateLimiter:     rl,
		Config:          cfg,
		Logger:          logger,
	}
	router := api.NewRouter(routerDeps)

	// 5. Configure and Start HTTP Server
	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.LLMTimeout + 30*time.Second, // Streams run up to the LLM timeout
		IdleTimeout:       120 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("FATAL: Could not listen", "addr", server.Addr, "error", err)
			os.Exit(1)
		}
	}()

	<-stopChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server graceful shutdown failed", "error", err)
	}
	// Extractions and notifications started by finished turns still get to land.
	if err := pipeline.Wait(shutdownCtx); err != nil {
		logger.Warn("Background tasks did not drain", "error", err)
	}
	rl.Close()

	logger.Info("Server shutdown complete.")
}

// openStore connects to Postgres when DATABASE_URL is set and falls back to the
// in-memory store otherwise.
func openStore(cfg *config.Config, logger *slog.Logger) (store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, leads are kept in memory and lost on restart")
		return memory.NewMemoryStore(), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbpool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := dbpool.Ping(ctx); err != nil {
		dbpool.Close()
		return nil, nil, err
	}

	pgStore := postgres.NewPostgresStore(dbpool, logger)
	if err := pgStore.Migrate(ctx); err != nil {
		dbpool.Close()
		return nil, nil, err
	}
	logger.Info("Database connection pool established and schema applied")
	return pgStore, dbpool.Close, nil
}

func openModels(cfg *config.Config) (chat, extract *llm.Client, err error) {
	if cfg.OpenAIKey == "" {
		return nil, nil, nil
	}
	chatModel, err := llm.NewOpenAIModel(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	if err != nil {
		return nil, nil, err
	}
	chat = llm.NewClient(chatModel, cfg.OpenAIModel, llm.DefaultSettings)

	extractModel := chatModel
	if cfg.OpenAIExtractionModel != cfg.OpenAIModel {
		if extractModel, err = llm.NewOpenAIModel(cfg.OpenAIKey, cfg.OpenAIExtractionModel, cfg.OpenAIBaseURL); err != nil {
			return nil, nil, err
		}
	}
	// Extraction wants deterministic arguments.
	extract = llm.NewClient(extractModel, cfg.OpenAIExtractionModel, llm.Settings{Temperature: 0, MaxTokens: 500})
	return chat, extract, nil
}

func buildNotifier(cfg *config.Config, logger *slog.Logger) notify.Notifier {
	var channels []notify.Notifier
	// Each channel retries on its own so one failing channel never re-sends the other.
	retry := func(n notify.Notifier) notify.Notifier {
		return notify.NewRetryNotifier(n, uint64(cfg.NotifyMaxRetries), time.Second, logger)
	}
	if cfg.EmailEnabled() {
		channels = append(channels, retry(notify.NewEmailNotifier(notify.EmailConfig{
			Host:         cfg.SMTPHost,
			Port:         cfg.SMTPPort,
			User:         cfg.SMTPUser,
			Password:     cfg.SMTPPassword,
			From:         cfg.NotifyFrom,
			To:           cfg.NotifyTo,
			DashboardURL: cfg.AdminDashboardURL,
		})))
	} else {
		logger.Warn("SMTP not configured, email notifications disabled")
	}
	if cfg.SlackEnabled() {
		channels = append(channels, retry(notify.NewSlackNotifier(cfg.SlackBotToken, cfg.SlackChannelID, cfg.AdminDashboardURL)))
	}
	if len(channels) == 0 {
		return notify.NopNotifier{}
	}
	return notify.NewMultiNotifier(channels...)
}
