package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/krishibandhu/krishibandhu-backend/internal/config"
	"github.com/krishibandhu/krishibandhu-backend/internal/database"
	"github.com/krishibandhu/krishibandhu-backend/internal/handler"
	"github.com/krishibandhu/krishibandhu-backend/internal/queue"
	"github.com/krishibandhu/krishibandhu-backend/internal/repository"
	"github.com/krishibandhu/krishibandhu-backend/internal/router"
	"github.com/krishibandhu/krishibandhu-backend/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	rdb := config.NewRedisClient() // nil disables rate limiting, caching and the translation cache

	// Repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	predictions := repository.NewPredictionRepo(db)
	irrigationRepo := repository.NewIrrigationRepo(db)
	assistantQueries := repository.NewAssistantRepo(db)

	// External service handles, constructed once and shared.
	weather := service.NewWeatherClient(cfg.WeatherAPIKey)
	classifier := service.NewClassifier(cfg.DiseaseModelURL)
	irrigator := service.NewIrrigator(cfg.IrrigationModelURL)
	translator := service.NewTranslator(rdb)
	llm := service.NewLLMClient(cfg.GroqAPIKey)
	tts := service.NewTTSClient(cfg.AudioDir)
	stt := service.NewTranscriber(cfg.STTModelURL)

	h := router.Handlers{
		Auth:       handler.NewAuthHandler(cfg, users, tokens),
		Profile:    handler.NewProfileHandler(users, irrigationRepo, assistantQueries, predictions),
		Disease:    handler.NewDiseaseHandler(classifier, predictions),
		Irrigation: handler.NewIrrigationHandler(weather, irrigator, llm, irrigationRepo),
		Climate:    handler.NewClimateHandler(weather),
		Assistant:  handler.NewAssistantHandler(translator, llm, tts, stt, weather, assistantQueries),
	}

	// Background activity log consumer; reconnects on its own.
	go func() {
		if err := queue.StartActivityConsumer(); err != nil {
			log.Printf("activity consumer stopped: %v", err)
		}
	}()

	// Periodic sweep of expired token rows. Lookups already reject
	// expired tokens; the sweep only keeps the table bounded.
	if cfg.TokenSweepInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.TokenSweepInterval)
			defer ticker.Stop()
			for range ticker.C {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if n, err := tokens.DeleteExpired(ctx); err != nil {
					log.Printf("token sweep failed: %v", err)
				} else if n > 0 {
					log.Printf("token sweep removed %d expired rows", n)
				}
				cancel()
			}
		}()
	}

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	router.RegisterRoutes(e, h, tokens, users, rdb, cfg.AudioDir)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
