package admin

import (
	"context"
	"fmt"
	"log"

	"github.com/cloo-solutions/docsmith/internal/config"
	"github.com/cloo-solutions/docsmith/internal/database"
	"github.com/cloo-solutions/docsmith/internal/embedding"
	"github.com/cloo-solutions/docsmith/internal/index/memory"
	"github.com/cloo-solutions/docsmith/internal/llm"
	"github.com/cloo-solutions/docsmith/internal/loader"
	"github.com/cloo-solutions/docsmith/internal/openai"
	"github.com/cloo-solutions/docsmith/internal/repository"
	"github.com/cloo-solutions/docsmith/internal/service"
	"github.com/cloo-solutions/docsmith/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

// App holds the services built from a Config.
type App struct {
	Config     *config.Config
	Index      service.Index
	Embedder   service.EmbeddingClient
	LLM        llm.Client
	Confluence *loader.ConfluenceClient
	Objects    *storage.S3Client

	Ingestion *service.IngestionService
	Retrieval *service.RetrievalService
	Generator *service.GeneratorService
	Documents *service.DocumentService
	Reconcile *service.ReconcileService
	Export    *service.ExportService

	pool *pgxpool.Pool
}

// BuildOptions tunes startup for a single command.
type BuildOptions struct {
	SkipMigrations bool
	// EnsureBucket creates the S3 bucket if it does not exist.
	EnsureBucket bool
}

// Build wires the index, embedder, generator and optional integrations.
func Build(ctx context.Context, cfg *config.Config, opts BuildOptions) (*App, error) {
	app := &App{Config: cfg}

	if err := app.openIndex(ctx, opts); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Embedder = embedder

	client, err := newLLM(ctx, cfg, app.Embedder)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.LLM = client

	if cfg.HasS3() {
		objects, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		if opts.EnsureBucket {
			if err := objects.EnsureBucket(ctx); err != nil {
				app.Close()
				return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
			}
			log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		}
		app.Objects = objects
	}

	chunkCfg := service.NewChunkConfig(cfg.ChunkSize, cfg.ChunkOverlap)
	if cfg.MaxChunksPerDocument > 0 {
		chunkCfg.MaxChunks = cfg.MaxChunksPerDocument
	}

	app.Ingestion = service.NewIngestionService(app.Index, app.Embedder, loader.NewPDFLoader(), chunkCfg)
	if cfg.HasConfluence() {
		app.Confluence = loader.NewConfluenceClient(loader.ConfluenceConfig{
			BaseURL:           cfg.ConfluenceURL,
			Username:          cfg.ConfluenceUsername,
			APIToken:          cfg.ConfluenceAPIToken,
			RequestsPerSecond: cfg.ConfluenceRPS,
		})
		app.Ingestion.SetConfluence(app.Confluence)
	}
	if app.Objects != nil {
		app.Ingestion.SetArchive(app.Objects)
	}

	tmpl := service.DefaultTemplate()
	if cfg.TemplatePath != "" {
		tmpl, err = service.LoadTemplate(cfg.TemplatePath)
		if err != nil {
			app.Close()
			return nil, err
		}
	}

	app.Retrieval = service.NewRetrievalService(app.Index, app.Embedder)
	app.Generator = service.NewGeneratorService(app.Retrieval, app.LLM, tmpl, cfg.SectionTopK)
	app.Generator.SetGenerationParams(cfg.LLMMaxTokens, cfg.LLMTemperature)
	app.Documents = service.NewDocumentService(app.Index)
	app.Reconcile = service.NewReconcileService(app.Index)

	// A nil *S3Client must not become a non-nil ObjectStore.
	var objects service.ObjectStore
	if app.Objects != nil {
		objects = app.Objects
	}
	app.Export = service.NewExportService(cfg.ExportDir, objects)

	log.Printf("index=%s embedder=%s llm=%s", cfg.VectorBackend, app.Embedder.ModelName(), app.LLM.Name())
	return app, nil
}

func (a *App) openIndex(ctx context.Context, opts BuildOptions) error {
	cfg := a.Config
	switch cfg.VectorBackend {
	case config.BackendPostgres:
		pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Println("connected to database")
		if !opts.SkipMigrations {
			if err := database.Migrate(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
				pool.Close()
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}
		a.pool = pool
		a.Index = repository.NewVectorStore(pool)
	default:
		store, err := memory.Open(cfg.IndexDir)
		if err != nil {
			return fmt.Errorf("failed to open index: %w", err)
		}
		log.Printf("opened index at %s", store.Path())
		a.Index = store
	}
	return nil
}

// Close releases the database pool and the local embedding model, if any.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	if local, ok := a.Embedder.(*embedding.LocalEmbedder); ok {
		local.Close()
	}
}

func newEmbedder(cfg *config.Config) (service.EmbeddingClient, error) {
	switch cfg.EmbedderKind() {
	case config.ProviderOpenAI:
		return openAIClient(cfg), nil
	case config.ProviderHashing:
		return embedding.NewHashingEmbedder(cfg.HashingDimensions), nil
	default:
		local, err := embedding.LoadLocal(embedding.LocalConfig{
			ModelsDir:  cfg.ModelsDir,
			ModelName:  cfg.LocalModel,
			Dimensions: cfg.EmbeddingDimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create local embedder: %w", err)
		}
		log.Printf("loaded local embedding model %s", local.ModelName())
		return local, nil
	}
}

func openAIClient(cfg *config.Config) *openai.Client {
	return openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		BaseURL:             cfg.OpenAIBaseURL,
		EmbeddingModel:      cfg.EmbeddingModel,
		EmbeddingDimensions: cfg.EmbeddingDimensions,
		ChatModel:           cfg.LLMModel,
	})
}

func newLLM(ctx context.Context, cfg *config.Config, embedder service.EmbeddingClient) (llm.Client, error) {
	switch cfg.LLMKind() {
	case config.ProviderOpenAI:
		if c, ok := embedder.(*openai.Client); ok {
			return llm.NewOpenAI(c), nil
		}
		return llm.NewOpenAI(openAIClient(cfg)), nil
	case config.ProviderBedrock:
		b, err := llm.NewBedrockFromRegion(ctx, cfg.AWSRegion, cfg.BedrockModelID)
		if err != nil {
			return nil, fmt.Errorf("failed to create bedrock client: %w", err)
		}
		return b, nil
	default:
		return llm.NewExtractive(), nil
	}
}
