package api

import (
	"leadchat-backend/internal/config"
	"leadchat-backend/internal/handlers"
	"leadchat-backend/internal/metrics"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	ServiceHandler  *handlers.ServiceHandlers
	AuthHandler     *handlers.AuthHandler
	ChatHandler     *handlers.ChatHandlers
	LeadHandler     *handlers.LeadHandlers
	CalendarHandler *handlers.CalendarHandlers
	RateLimiter     *RateLimiter
	Config          *config.Config
	Logger          *slog.Logger
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rl := deps.RateLimiter
	if rl == nil {
		rl = NewRateLimiter(0, time.Minute)
	}

	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	// Streaming turns are bounded by the LLM timeout, so the request deadline sits above it.
	r.Use(middleware.Timeout(deps.Config.LLMTimeout + 15*time.Second))

	// --- CORS Configuration ---
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "X-Webhook-Secret"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Public Routes ---
	r.Get("/", deps.ServiceHandler.HandleRoot)
	r.Get("/health", deps.ServiceHandler.HandleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Visitor-facing endpoints share the per-IP budget.
		r.Group(func(r chi.Router) {
			r.Use(RateLimitMiddleware(rl))
			r.Post("/chat/stream", deps.ChatHandler.HandleChatStream)
			r.Post("/chat/complete", deps.ChatHandler.HandleChatComplete)
			r.Post("/leads", deps.LeadHandler.HandleCreateLead)
		})

		// Authenticated by the shared secret header, when one is configured.
		r.Post("/calendar/webhook", deps.CalendarHandler.HandleWebhook)

		r.Post("/admin/login", deps.AuthHandler.HandleLogin)

		// --- Admin Routes (JWT Required) ---
		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(deps.Config.JWTSecret, logger))

			r.Get("/calendar", deps.CalendarHandler.HandleListMeetings)
			r.Route("/admin/leads", func(r chi.Router) {
				r.Get("/", deps.LeadHandler.HandleListLeads)
				r.Get("/{email}", deps.LeadHandler.HandleGetLead)
				r.Get("/{email}/conversations", deps.LeadHandler.HandleListConversations)
				r.Get("/{email}/meetings", deps.LeadHandler.HandleListLeadMeetings)
				r.Post("/{email}/meetings", deps.LeadHandler.HandleCreateLeadMeeting)
			})
		})
	})

	return r
}

// RequestLogger logs one structured line per request.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("component", "http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				level := slog.LevelInfo
				if status >= http.StatusInternalServerError {
					level = slog.LevelError
				}
				logger.Log(r.Context(), level, "request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
					"remote", r.RemoteAddr,
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
