package main

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"multivector-rag/internal/ai"
	"multivector-rag/internal/config"
	"multivector-rag/internal/extract"
	"multivector-rag/internal/logger"
	"multivector-rag/internal/store"
	"multivector-rag/services"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: ragload <document.pdf> [query...]")
		os.Exit(2)
	}
	path := os.Args[1]

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	ctx := context.Background()

	embedder, err := ai.NewGeminiEmbedder(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to create embedder:", err)
	}
	defer embedder.Close()

	// Summary cache: Redis when enabled, otherwise recompute every load
	var cache services.SummaryCache = store.NoopSummaryCache{}
	if cfg.CacheEnabled {
		rdb, err := config.NewRedisClient(cfg)
		if err != nil {
			log.Fatal("Failed to connect to Redis:", err)
		}
		defer rdb.Close()
		cache = store.NewRedisSummaryCache(rdb, time.Duration(cfg.CacheTTLMins)*time.Minute)
	}

	// Vector store backend
	var vectors services.VectorStore = store.NewMemoryVectorStore()
	if cfg.VectorBackend == "mongo" {
		mongoClient, err := config.ConnectMongoDB(cfg)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB:", err)
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			mongoClient.Disconnect(disconnectCtx)
		}()

		documentID := fmt.Sprintf("%x", sha256.Sum256([]byte(path)))
		vectors = store.NewMongoVectorStore(mongoClient, cfg, documentID)
	}

	together := ai.NewTogetherClient(cfg)
	summarizer := services.NewSummarizationService(together, cache, cfg.SummaryMaxChars)
	loader := services.NewPDFLoader(extract.NewPDFExtractor(), summarizer, embedder, vectors, cfg.DefaultTopK)

	result, err := loader.Load(ctx, path)
	if err != nil {
		log.Fatal("Failed to load document:", err)
	}

	fmt.Printf("Loaded %d elements (%d text blocks)\n", len(result.Chunks()), len(result.Texts()))

	if len(os.Args) > 2 {
		query := strings.Join(os.Args[2:], " ")
		matches, err := result.Retriever.Retrieve(ctx, query, cfg.DefaultTopK)
		if err != nil {
			log.Fatal("Retrieval failed:", err)
		}
		for i, el := range matches {
			fmt.Printf("%d. [%s] %s\n", i+1, el.Kind, snippet(el.RawContent, 160))
		}
	}
}

func snippet(text string, maxLen int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
