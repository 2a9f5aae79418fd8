package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/aqua777/go-ragserve/classify"
	"github.com/aqua777/go-ragserve/config"
	"github.com/aqua777/go-ragserve/embedding"
	"github.com/aqua777/go-ragserve/history"
	"github.com/aqua777/go-ragserve/index"
	"github.com/aqua777/go-ragserve/llm"
	"github.com/aqua777/go-ragserve/pipeline"
	"github.com/aqua777/go-ragserve/server"
	"github.com/aqua777/go-ragserve/token"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes classification, chat, and history endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides API_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	settings, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if servePort > 0 {
		settings.APIPort = servePort
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	ctx := context.Background()

	// One OpenAI client serves embeddings and, with the default provider,
	// both chat models.
	clientCfg := openai.DefaultConfig(settings.OpenAIAPIKey)
	if settings.OpenAIBaseURL != "" {
		clientCfg.BaseURL = settings.OpenAIBaseURL
	}
	client := openai.NewClientWithConfig(clientCfg)

	embedder := embedding.NewOpenAIEmbeddingWithClient(client, settings.EmbeddingModel).WithLogger(logger)

	var classifyLLM, chatLLM llm.LLMWithStructuredOutput
	switch settings.LLMProvider {
	case "gemini":
		geminiClassify, err := llm.NewGeminiLLM(ctx, settings.GeminiAPIKey, settings.ClassifyModel)
		if err != nil {
			return fmt.Errorf("failed to create classify llm: %w", err)
		}
		defer geminiClassify.Close()
		geminiChat, err := llm.NewGeminiLLM(ctx, settings.GeminiAPIKey, settings.ChatModel)
		if err != nil {
			return fmt.Errorf("failed to create chat llm: %w", err)
		}
		defer geminiChat.Close()
		classifyLLM = geminiClassify.WithTemperature(0).WithLogger(logger)
		chatLLM = geminiChat.WithTemperature(settings.ChatTemperature).WithLogger(logger)
	default:
		classifyLLM = llm.NewOpenAILLMWithClient(client, settings.ClassifyModel).
			WithTemperature(0).
			WithLogger(logger)
		chatLLM = llm.NewOpenAILLMWithClient(client, settings.ChatModel).
			WithTemperature(settings.ChatTemperature).
			WithLogger(logger)
	}

	counter, err := token.NewCounterForModel(settings.ClassifyModel)
	if err != nil {
		return fmt.Errorf("failed to create token counter: %w", err)
	}

	idx, err := buildIndex(ctx, settings, logger)
	if err != nil {
		return err
	}

	store, err := history.Connect(ctx, settings.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return fmt.Errorf("failed to ensure database schema: %w", err)
	}

	retriever := pipeline.NewVectorRetriever(idx, embedder, settings.TopK, settings.ScoreThreshold).
		WithLogger(logger)
	generator := classify.NewGenerator(classifyLLM).
		WithTokenCounter(counter).
		WithLogger(logger)
	classifier := pipeline.NewOrchestrator(retriever, generator).
		WithRunTimeout(settings.RunTimeout).
		WithLogger(logger)

	srv, err := server.New(server.Config{
		Settings:   settings,
		Logger:     logger,
		Store:      store,
		Index:      idx,
		Embedder:   embedder,
		Retriever:  retriever,
		Classifier: classifier,
		Pool:       pipeline.NewPool(settings.Workers),
		ChatLLM:    chatLLM,
		Counter:    counter,
	})
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// buildIndex creates the configured vector index backend.
func buildIndex(ctx context.Context, settings *config.Settings, logger *slog.Logger) (index.Index, error) {
	switch settings.VectorBackend {
	case "qdrant":
		qdrant := index.NewQdrantIndex(settings.QdrantURL, settings.QdrantAPIKey, settings.Collection).
			WithLogger(logger)
		if err := qdrant.EnsureCollection(ctx, settings.EmbeddingDim); err != nil {
			return nil, fmt.Errorf("failed to ensure qdrant collection: %w", err)
		}
		return qdrant, nil
	case "memory":
		return index.NewMemoryIndex(), nil
	default:
		chromem, err := index.NewChromemIndex(settings.ChromemPath, settings.Collection)
		if err != nil {
			return nil, fmt.Errorf("failed to open chromem index: %w", err)
		}
		return chromem, nil
	}
}
