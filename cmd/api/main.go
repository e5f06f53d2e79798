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

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/sensihi/copilot/internal/config"
	"github.com/sensihi/copilot/internal/handler"
	"github.com/sensihi/copilot/internal/model/persona"
	"github.com/sensihi/copilot/internal/service/ai"
	"github.com/sensihi/copilot/internal/service/analytics"
	copilotService "github.com/sensihi/copilot/internal/service/copilot"
	"github.com/sensihi/copilot/internal/service/guard"
	"github.com/sensihi/copilot/internal/service/retrieval"
	"github.com/sensihi/copilot/internal/service/retrieval/vectorstore"
	qdrantStore "github.com/sensihi/copilot/internal/service/retrieval/vectorstore/qdrant"
	supabaseStore "github.com/sensihi/copilot/internal/service/retrieval/vectorstore/supabase"
	"github.com/sensihi/copilot/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	sessions := newSessionStore(cfg.Session)
	defer sessions.Close()
	go session.RunSweeper(ctx, sessions, cfg.Session.SweepInterval)

	g := guard.New(guard.Config{
		Window:                cfg.Guard.Window,
		MaxRequestsPerWindow:  cfg.Guard.MaxRequestsPerWindow,
		MaxMessagesPerSession: cfg.Guard.MaxMessagesPerSession,
		SessionTTL:            cfg.Session.TTL,
	})

	// Missing AI credentials degrade the endpoint to a configuration
	// error instead of crashing startup.
	var generator copilotService.Generator
	var embedder retrieval.Embedder
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, ai.Config{
			APIKey:      cfg.AI.APIKey,
			BaseURL:     cfg.AI.BaseURL,
			Model:       cfg.AI.ChatModel,
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.MaxTokens,
			Timeout:     cfg.AI.Timeout,
		})
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
		} else {
			generator = aiService
			log.Println("AI service initialized successfully")
		}

		embedder, err = retrieval.NewOpenAIEmbedder(ctx, retrieval.OpenAIEmbedderConfig{
			APIKey:  cfg.AI.APIKey,
			BaseURL: cfg.AI.BaseURL,
			Model:   cfg.AI.EmbeddingModel,
		})
		if err != nil {
			log.Printf("warning: failed to initialize embedder: %v", err)
			embedder = nil
		}
	} else {
		log.Println("provider credentials not configured, copilot endpoint will report a configuration error")
	}

	search := newVectorStore(cfg.Vector)
	if search != nil {
		defer search.Close()
	}

	resolver := retrieval.NewResolver(sessions, embedder, search, retrieval.Config{
		MinQueryLength:  cfg.Vector.MinQueryLength,
		MatchThreshold:  cfg.Vector.MatchThreshold,
		MatchCount:      cfg.Vector.MatchCount,
		UpstreamTimeout: cfg.Vector.Timeout,
	})

	emitter := analytics.NewEmitter(cfg.Analytics.QueueCapacity)
	go emitter.RunFlusher(ctx, cfg.Analytics.FlushInterval, analytics.LogSink)

	personaStore := persona.NewMemoryStore(persona.Seed())

	svc := copilotService.NewService(g, sessions, resolver, generator, personaStore, emitter)
	router := handler.NewRouter(svc, cfg.Server.AllowedOrigins)

	startServer(ctx, cfg.Server, router)
}

func newSessionStore(cfg config.SessionConfig) session.Store {
	if cfg.Driver == string(session.StoreTypeRedis) && cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		store, err := session.NewStore(session.StoreTypeRedis,
			session.WithRedisClient(client),
			session.WithTTL(cfg.TTL),
		)
		if err == nil {
			log.Println("session store: redis")
			return store
		}
		log.Printf("warning: redis session store unavailable, falling back to memory: %v", err)
	}

	store, err := session.NewStore(session.StoreTypeMemory, session.WithTTL(cfg.TTL))
	if err != nil {
		log.Fatalf("failed to create session store: %v", err)
	}
	return store
}

func newVectorStore(cfg config.VectorConfig) vectorstore.Store {
	if !cfg.Enabled() {
		log.Println("document store credentials not configured, retrieval will fall back to static content")
		return nil
	}

	switch cfg.Backend {
	case "qdrant":
		store, err := qdrantStore.New(qdrantStore.Config{
			URL:            cfg.QdrantURL,
			CollectionName: cfg.QdrantCollection,
			APIKey:         cfg.QdrantAPIKey,
		})
		if err != nil {
			log.Printf("warning: failed to initialize qdrant store: %v", err)
			return nil
		}
		log.Println("vector store: qdrant")
		return store

	default:
		store, err := supabaseStore.New(supabaseStore.Config{
			URL:        cfg.SupabaseURL,
			ServiceKey: cfg.SupabaseKey,
		})
		if err != nil {
			log.Printf("warning: failed to initialize supabase store: %v", err)
			return nil
		}
		log.Println("vector store: supabase")
		return store
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Sensihi copilot backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
