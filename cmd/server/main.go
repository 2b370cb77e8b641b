package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/drop-four/internal/api"
	"github.com/drop-four/internal/config"
	"github.com/drop-four/internal/engine"
	"github.com/drop-four/internal/game"
	"github.com/drop-four/internal/kafka"
	"github.com/drop-four/internal/matchmaker"
	"github.com/drop-four/internal/storage"
	"github.com/drop-four/internal/websocket"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	// Initialize PostgreSQL store
	store, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Warn().Err(err).Msg("database not available, games won't be persisted")
		store = nil
	} else {
		defer store.Close()
	}

	// Initialize Kafka producer
	brokers := strings.Split(cfg.KafkaBrokers, ",")
	producer, err := kafka.NewProducer(brokers)
	if err != nil {
		log.Warn().Err(err).Msg("Kafka producer not available")
	}
	defer producer.Close()

	// Initialize Kafka consumer (optional)
	var consumer *kafka.Consumer
	if producer.IsEnabled() {
		consumer, err = kafka.NewConsumer(brokers)
		if err != nil {
			log.Warn().Err(err).Msg("Kafka consumer not available")
		} else {
			consumer.Start()
			defer consumer.Stop()
		}
	}

	// Initialize matchmaker
	settings := game.Settings{
		Rows:      cfg.BoardRows,
		Cols:      cfg.BoardCols,
		BaseDepth: cfg.SearchDepth,
	}
	mm := matchmaker.NewMatchmaker(settings, cfg.MatchTimeout)

	// Initialize WebSocket hub
	hub := websocket.NewHub(mm)

	// Set up game start callback for Kafka events
	mm.SetOnGameStart(func(g *game.Game) {
		producer.EmitGameStart(g)
	})

	// Set up bot decision callback for Kafka events
	hub.SetOnBotDecision(func(g *game.Game, d *engine.Decision) {
		producer.EmitBotDecision(g, d)
	})

	// Set up game end callback for persistence and Kafka
	hub.SetOnGameEnd(func(g *game.Game) {
		producer.EmitGameEnd(g)

		if store != nil {
			if err := store.SaveGame(context.Background(), g); err != nil {
				log.Error().Err(err).Str("gameID", g.ID).Msg("failed to save game")
			}
		}
	})

	// Start WebSocket hub
	go hub.Run()

	// Create message handler
	handler := websocket.NewHandler(hub, mm)

	// Set up HTTP router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		apiHandlers := api.NewHandlers(store, mm, producer, consumer)
		apiHandlers.RegisterRoutes(r)
	})

	// WebSocket endpoint
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		websocket.ServeWs(hub, handler, w, r)
	})

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Int("rows", cfg.BoardRows).
			Int("cols", cfg.BoardCols).
			Int("depth", cfg.SearchDepth).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
