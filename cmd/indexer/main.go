// Command indexer serves the indexing HTTP API used by the library backend.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"library-backend/internal/indexer"
	"library-backend/internal/indexer/vectorstore"
	"library-backend/internal/indexer/vectorstore/memory"
	"library-backend/internal/indexer/vectorstore/pgvector"
	"library-backend/internal/llm/gemini"
	"library-backend/internal/llm/openai"
	"library-backend/internal/shared/config"
	"library-backend/internal/shared/server"
	"library-backend/internal/shared/server/middleware"
	"library-backend/internal/shared/storage/db"
)

// Dimension of book_chunks.embedding in the embedded migrations.
const pgvectorDimension = 768

func main() {
	cfg := config.LoadIndexer()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var geminiClient *gemini.Client
	if cfg.EmbeddingProvider == "gemini" || cfg.LLMProvider == "gemini" {
		opts := gemini.Options{
			APIKey:     cfg.GeminiAPIKey,
			EmbedModel: cfg.GeminiEmbedModel,
			RPM:        cfg.GeminiRPM,
		}
		if cfg.LLMProvider == "gemini" {
			opts.ChatModel = cfg.LLMModel
		}
		c, err := gemini.New(ctx, opts)
		if err != nil {
			log.Fatalf("gemini: %v", err)
		}
		defer c.Close()
		geminiClient = c
	}

	var embedder indexer.Embedder = indexer.HashEmbedder{Dimension: cfg.VectorDim}
	if cfg.EmbeddingProvider == "gemini" {
		embedder = geminiClient
	}

	answerer, err := buildAnswerer(cfg, geminiClient)
	if err != nil {
		log.Fatalf("answerer: %v", err)
	}

	store, sqlDB, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatalf("vector store: %v", err)
	}
	if sqlDB != nil {
		defer sqlDB.Close()
	}

	svc := indexer.NewService(embedder, store, answerer, indexer.Config{ChunkSize: cfg.ChunkSize})

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	indexer.NewHandler(svc).RegisterRoutes(r)

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Starting indexer on %s (embeddings=%s llm=%s store=%s dim=%d)",
			srv.Addr, cfg.EmbeddingProvider, cfg.LLMProvider, cfg.VectorStore, cfg.VectorDim)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func buildAnswerer(cfg config.IndexerConfig, g *gemini.Client) (indexer.Answerer, error) {
	switch cfg.LLMProvider {
	case "gemini":
		return indexer.PromptAnswerer{Model: g}, nil
	case "openai":
		client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		return indexer.PromptAnswerer{Model: client}, nil
	default:
		return indexer.ExcerptAnswerer{}, nil
	}
}

func buildStore(ctx context.Context, cfg config.IndexerConfig) (vectorstore.Store, *sql.DB, error) {
	if cfg.VectorStore != "pgvector" {
		s, err := memory.New(cfg.VectorDim)
		return s, nil, err
	}
	if cfg.VectorDim != pgvectorDimension {
		return nil, nil, fmt.Errorf("VECTOR_STORE=pgvector requires VECTOR_DIM=%d", pgvectorDimension)
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultIndexerOptions()))
	if err != nil {
		return nil, nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	s, err := pgvector.New(sqlDB, cfg.VectorDim)
	if err != nil {
		sqlDB.Close()
		return nil, nil, err
	}
	return s, sqlDB, nil
}
