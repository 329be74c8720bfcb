package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"freshr-backend/internal/config"
	"freshr-backend/internal/database"
	"freshr-backend/internal/handlers"
	"freshr-backend/internal/middleware"
	"freshr-backend/internal/repository"
	"freshr-backend/internal/router"
	"freshr-backend/internal/services"
	"freshr-backend/internal/session"
	"freshr-backend/internal/websocket"
	"freshr-backend/migrations"
)

func main() {
	log.Println("🚀 Starting FRESHR Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, migrations.FS); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	quizRepo := repository.NewQuizRepo(pool)
	sessionRepo := repository.NewSessionRepo(pool)
	attemptRepo := repository.NewAttemptRepo(pool)
	favoriteRepo := repository.NewFavoriteRepo(pool)
	profileRepo := repository.NewProfileRepo(pool)

	// ──── Step 5: Initialize LLM Provider ────
	var llm services.LLM
	switch cfg.LLMProvider {
	case "openai":
		llm = services.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
		log.Printf("✓ OpenAI-compatible client initialized (%s)", cfg.OpenAIModel)
	default:
		gemini, err := services.NewGeminiProvider(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("✗ Gemini client initialization failed: %v", err)
		}
		defer gemini.Close()
		llm = gemini
		log.Printf("✓ Gemini client initialized (%s)", cfg.GeminiModel)
	}

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	generator := services.NewGenerator(llm, cfg.LLMConcurrentReqs, cfg.LLMTimeout)
	fileExtractService := services.NewFileExtractService()
	sessionEngine := session.NewEngine(sessionRepo, websocket.NewRedisPublisher(redisClients.Commands), session.SystemClock{})

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth)
	log.Println("✓ WebSocket hub started")

	// ──── Initialize Handlers ────
	h := router.Handlers{
		Quiz:         handlers.NewQuizHandler(generator, fileExtractService, quizRepo, favoriteRepo),
		Session:      handlers.NewSessionHandler(sessionEngine, quizRepo),
		Attempt:      handlers.NewAttemptHandler(attemptRepo, quizRepo, sessionEngine, handlers.NewRedisSubmitLock(redisClients.Commands)),
		Profile:      handlers.NewProfileHandler(profileRepo),
		Analytics:    handlers.NewAnalyticsHandler(attemptRepo, quizRepo),
		Presentation: handlers.NewPresentationHandler(generator, fileExtractService),
		Health: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"postgres": pool,
			"redis":    redisClients,
		}),
	}

	generateLimiter := middleware.NewRateLimiter(20, time.Minute)

	// ──── Step 7: Start HTTP Server ────
	r := router.New(jwtAuth, h, generateLimiter, wsHub, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		generateLimiter.Stop()
		wsHub.Shutdown()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ FRESHR Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
