package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"

	"github.com/wolfman30/hospital-ai-platform/cmd/mainconfig"
	"github.com/wolfman30/hospital-ai-platform/internal/api/router"
	"github.com/wolfman30/hospital-ai-platform/internal/assistant"
	appconfig "github.com/wolfman30/hospital-ai-platform/internal/config"
	"github.com/wolfman30/hospital-ai-platform/internal/doctors"
	"github.com/wolfman30/hospital-ai-platform/internal/http/handlers"
	"github.com/wolfman30/hospital-ai-platform/internal/intent"
	"github.com/wolfman30/hospital-ai-platform/internal/llm"
	"github.com/wolfman30/hospital-ai-platform/internal/medicines"
	"github.com/wolfman30/hospital-ai-platform/internal/observability/metrics"
	"github.com/wolfman30/hospital-ai-platform/internal/patients"
	"github.com/wolfman30/hospital-ai-platform/internal/retrieval"
	"github.com/wolfman30/hospital-ai-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel, cfg.Env)
	logger.Info("starting hospital-ai-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	model, modelID, err := buildLLMClient(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize model client", "error", err)
		os.Exit(1)
	}

	// Storage: Postgres when DATABASE_URL is set, in-memory otherwise.
	var (
		doctorRepo   doctors.Repository
		patientRepo  patients.Repository
		medicineRepo medicines.Repository
		pool         *pgxpool.Pool
		sqlDB        *sql.DB
	)
	if cfg.DatabaseURL != "" {
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		sqlDB = stdlib.OpenDBFromPool(pool)
		defer func() { _ = sqlDB.Close() }()

		doctorRepo = doctors.NewPostgresRepository(pool)
		patientRepo = patients.NewPostgresRepository(pool)
		medicineRepo = medicines.NewSQLRepository(sqlDB)
		logger.Info("using postgres-backed repositories")
	} else {
		memDoctors := doctors.NewMemoryRepository(defaultRoster())
		doctorRepo = memDoctors
		patientRepo = patients.NewMemoryRepository(func(ctx context.Context, id int64) (string, string, error) {
			doc, err := memDoctors.GetByID(ctx, id)
			if err != nil {
				return "", "", err
			}
			return doc.Name, doc.Specialization, nil
		})
		medicineRepo = medicines.NewMemoryRepository(defaultInventory())
		logger.Warn("DATABASE_URL not set, using in-memory repositories")
	}

	allocatorMetrics := metrics.NewAllocatorMetrics(nil)
	queryMetrics := metrics.NewQueryMetrics(nil)

	doctorSvc := doctors.NewService(doctorRepo, cfg.ReservationTTL, logger, allocatorMetrics)
	assigner := doctors.NewAssigner(doctorSvc, model, modelID, logger)

	index := buildKnowledgeIndex(ctx, cfg, logger)

	svc := assistant.NewService(assistant.Params{
		Classifier: intent.NewClassifier(model, modelID, logger),
		Extractor:  intent.NewExtractor(model, modelID, logger),
		Doctors:    doctorSvc,
		Assigner:   assigner,
		Patients:   patientRepo,
		Medicines:  medicineRepo,
		Index:      index,
		Client:     model,
		Model:      modelID,
		MaxTokens:  cfg.LLMMaxTokens,
		TopK:       cfg.RetrievalTopK,
		Threshold:  cfg.SimilarityThreshold,
		SnippetLen: cfg.SnippetLength,
		Logger:     logger,
		Metrics:    queryMetrics,
	})

	dispatcher := buildDispatcher(ctx, cfg, svc, logger)

	queryHandler := handlers.NewQueryHandler(dispatcher, logger)
	r := router.New(&router.Config{
		Logger:             logger,
		QueryHandler:       queryHandler,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: []string{"*"},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Reclaim expired reservations in the background; registration also
	// sweeps inline, this keeps the pool fresh between registrations.
	sweepCtx, stopSweep := context.WithCancel(ctx)
	go runSweep(sweepCtx, doctorSvc, cfg.SweepInterval, logger)

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		logger.Error("dispatcher shutdown failed", "error", err)
	}

	logger.Info("server stopped")
}

// buildLLMClient picks the LLM provider from configuration. With both Bedrock
// and Gemini configured it chains them so a Bedrock outage degrades to
// Gemini instead of failing queries. Every call carries the LLM_TIMEOUT
// wall-clock budget; exceeding it surfaces as an ordinary completion error.
func buildLLMClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (llm.Client, string, error) {
	var bedrock llm.Client
	if cfg.LLMProvider == "bedrock" || cfg.LLMProvider == "auto" {
		if cfg.BedrockModelID != "" {
			awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
			if err != nil {
				return nil, "", err
			}
			bedrock = llm.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg))
		}
	}

	var gemini llm.Client
	if cfg.LLMProvider == "gemini" || cfg.LLMProvider == "auto" {
		if cfg.GeminiAPIKey != "" {
			client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
			if err != nil {
				return nil, "", err
			}
			gemini = client
		}
	}

	var client llm.Client
	var modelID string
	switch {
	case bedrock != nil && gemini != nil:
		logger.Info("model: bedrock with gemini fallback", "model", cfg.BedrockModelID)
		client, modelID = llm.NewFallbackClient(bedrock, gemini, logger.Logger), cfg.BedrockModelID
	case bedrock != nil:
		logger.Info("model: bedrock", "model", cfg.BedrockModelID)
		client, modelID = bedrock, cfg.BedrockModelID
	case gemini != nil:
		logger.Info("model: gemini", "model", cfg.GeminiModelID)
		client, modelID = gemini, cfg.GeminiModelID
	default:
		logger.Error("no model configured; set BEDROCK_MODEL_ID or GEMINI_API_KEY")
		os.Exit(1)
		return nil, "", nil
	}
	return llm.NewTimeoutClient(client, cfg.LLMTimeout), modelID, nil
}

// buildKnowledgeIndex assembles the retrieval stack: an OpenAI-compatible
// embedder over an in-memory index, hydrated from the Redis document store.
// Missing embedding credentials disable knowledge queries rather than the
// whole service.
func buildKnowledgeIndex(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) retrieval.VectorIndex {
	if cfg.EmbeddingAPIKey == "" {
		logger.Warn("EMBEDDING_API_KEY not set, knowledge base queries disabled")
		return nil
	}

	clientCfg := openai.DefaultConfig(cfg.EmbeddingAPIKey)
	if cfg.EmbeddingBaseURL != "" {
		clientCfg.BaseURL = cfg.EmbeddingBaseURL
	}
	embedder := retrieval.NewOpenAIEmbedder(openai.NewClientWithConfig(clientCfg), cfg.EmbeddingModel)
	index := retrieval.NewMemoryVectorIndex(embedder)

	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		store := retrieval.NewRedisStore(client)
		hydrateCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
		if err := store.Hydrate(hydrateCtx, index); err != nil {
			logger.Error("failed to hydrate knowledge index", "error", err)
		} else {
			logger.Info("knowledge index hydrated", "documents", index.Len())
		}
	}

	return index
}

// buildDispatcher selects the queue backing for the orchestrator.
func buildDispatcher(ctx context.Context, cfg *appconfig.Config, svc *assistant.Service, logger *logging.Logger) assistant.Dispatcher {
	if cfg.UseMemoryQueue || cfg.QueryQueueURL == "" {
		logger.Info("query orchestrator using in-memory queue", "workers", cfg.WorkerCount)
		return assistant.NewOrchestrator(svc, assistant.NewMemoryQueue(256), logger,
			assistant.WithWorkerCount(cfg.WorkerCount))
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config for SQS, falling back to memory queue", "error", err)
		return assistant.NewOrchestrator(svc, assistant.NewMemoryQueue(256), logger,
			assistant.WithWorkerCount(cfg.WorkerCount))
	}
	sqsQueue := assistant.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.QueryQueueURL)
	logger.Info("query orchestrator using SQS", "queue_url", cfg.QueryQueueURL, "workers", cfg.WorkerCount)
	return assistant.NewOrchestrator(svc, sqsQueue, logger,
		assistant.WithWorkerCount(cfg.WorkerCount))
}

func runSweep(ctx context.Context, svc *doctors.Service, interval time.Duration, logger *logging.Logger) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			released, err := svc.ReleaseStale(ctx)
			if err != nil {
				logger.Error("background sweep failed", "error", err)
				continue
			}
			if released > 0 {
				logger.Info("background sweep released reservations", "count", released)
			}
		}
	}
}

func defaultRoster() []doctors.Doctor {
	return []doctors.Doctor{
		{ID: 1, Name: "Dr. Asha Verma", Specialization: "Cardiology"},
		{ID: 2, Name: "Dr. Rohan Iyer", Specialization: "Neurology"},
		{ID: 3, Name: "Dr. Meera Pillai", Specialization: "Orthopedics"},
		{ID: 4, Name: "Dr. Kabir Shah", Specialization: "General Medicine"},
		{ID: 5, Name: "Dr. Nisha Rao", Specialization: "Pediatrics"},
	}
}

func defaultInventory() []medicines.Medicine {
	return []medicines.Medicine{
		{ID: 1, Name: "Paracetamol 500mg", Quantity: 200, Price: 2.50},
		{ID: 2, Name: "Ibuprofen 200mg", Quantity: 150, Price: 3.75},
		{ID: 3, Name: "Amoxicillin 250mg", Quantity: 80, Price: 8.00},
		{ID: 4, Name: "Cetirizine 10mg", Quantity: 120, Price: 1.90},
		{ID: 5, Name: "Omeprazole 20mg", Quantity: 60, Price: 5.25},
	}
}
