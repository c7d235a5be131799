package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stillpointAPI/handlers"
	"stillpointAPI/internal/workers"
	"stillpointAPI/middleware"
	"stillpointAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	profileService      *services.ProfileService
	notificationService *services.NotificationService
	goalService         *services.GoalService
	streakService       *services.StreakService
	tokenService        *services.TokenService
	entitlementService  *services.EntitlementService
	badgeService        *services.BadgeService
	practiceService     *services.PracticeService
	statsService        *services.StatsService
	planService         *services.PlanService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to database")

	graceDays := 1
	if v := os.Getenv("STREAK_GRACE_DAYS"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			log.Fatal("STREAK_GRACE_DAYS must be a non-negative integer")
		}
		graceDays = parsed
	}

	balanceNotifier := services.NewBalanceNotifier()

	profileService = services.NewProfileService(dbPool)
	notificationService = services.NewNotificationService(dbPool)
	goalService = services.NewGoalService(dbPool, notificationService)
	streakService = services.NewStreakService(dbPool, services.StreakConfig{GraceDays: graceDays}, goalService, notificationService)
	tokenService = services.NewTokenService(dbPool, balanceNotifier)
	entitlementService = services.NewEntitlementService(dbPool, tokenService)
	badgeService = services.NewBadgeService(dbPool, notificationService)
	practiceService = services.NewPracticeService(dbPool, goalService)
	statsService = services.NewStatsService(dbPool)
	planService = services.NewPlanService(dbPool)

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	profileHandler := handlers.NewProfileHandler(profileService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	goalHandler := handlers.NewGoalHandler(goalService)
	streakHandler := handlers.NewStreakHandler(streakService)
	tokenHandler := handlers.NewTokenHandler(tokenService)
	contentHandler := handlers.NewContentHandler(entitlementService)
	badgeHandler := handlers.NewBadgeHandler(badgeService)
	practiceHandler := handlers.NewPracticeHandler(practiceService)
	statsHandler := handlers.NewStatsHandler(statsService)
	planHandler := handlers.NewPlanHandler(planService)
	webhookHandler := handlers.NewWebhookHandler(profileService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()
	workers.StartSessionReaper(dbPool)

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "stillpoint-api"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := r.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/profile", profileHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/profile", profileHandler.DeleteAccount).Methods("DELETE")

	protected.HandleFunc("/sessions/sync", practiceHandler.SyncSession).Methods("POST")
	protected.HandleFunc("/breathing-sessions", practiceHandler.RecordBreathingSession).Methods("POST")
	protected.HandleFunc("/courses/enroll", practiceHandler.EnrollInCourse).Methods("POST")
	protected.HandleFunc("/courses/progress", practiceHandler.UpdateCourseProgress).Methods("PUT")

	protected.HandleFunc("/streaks", streakHandler.GetStreaks).Methods("GET")
	protected.HandleFunc("/streaks/update", streakHandler.UpdateStreak).Methods("POST")

	protected.HandleFunc("/goals", goalHandler.GetActiveGoals).Methods("GET")
	protected.HandleFunc("/goals", goalHandler.CreateGoal).Methods("POST")
	protected.HandleFunc("/goals/{goalId}", goalHandler.CancelGoal).Methods("DELETE")

	protected.HandleFunc("/badges", badgeHandler.GetBadges).Methods("GET")
	protected.HandleFunc("/badges/check", badgeHandler.CheckBadges).Methods("POST")

	protected.HandleFunc("/tokens/balance", tokenHandler.GetBalance).Methods("GET")
	protected.HandleFunc("/tokens/balance/stream", tokenHandler.StreamBalance).Methods("GET")
	protected.HandleFunc("/tokens/purchase", tokenHandler.PurchaseTokens).Methods("POST")
	protected.HandleFunc("/tokens/spend", tokenHandler.SpendTokens).Methods("POST")
	protected.HandleFunc("/tokens/transactions", tokenHandler.GetTransactions).Methods("GET")

	protected.HandleFunc("/content/purchase", contentHandler.PurchaseContent).Methods("POST")
	protected.HandleFunc("/content/access", contentHandler.CheckAccess).Methods("GET")
	protected.HandleFunc("/content/purchases", contentHandler.GetPurchases).Methods("GET")

	protected.HandleFunc("/stats/dashboard", statsHandler.GetDashboardSummary).Methods("GET")
	protected.HandleFunc("/stats/progress", statsHandler.GetProgressStats).Methods("GET")

	protected.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/unread-count", notificationHandler.GetUnreadCount).Methods("GET")
	protected.HandleFunc("/notifications/{notificationId}/read", notificationHandler.MarkAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/read-all", notificationHandler.MarkAllAsRead).Methods("PUT")

	protected.HandleFunc("/practice-plan", planHandler.GetPlan).Methods("GET")
	protected.HandleFunc("/practice-plan", planHandler.UpsertPlan).Methods("PUT")
	protected.HandleFunc("/practice-plan", planHandler.DeactivatePlan).Methods("DELETE")

	// CORS configuration
	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
