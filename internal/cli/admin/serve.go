package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/loomnotes/loom/internal/api/handlers"
	"github.com/loomnotes/loom/internal/chunker"
	"github.com/loomnotes/loom/internal/cohere"
	"github.com/loomnotes/loom/internal/config"
	"github.com/loomnotes/loom/internal/domain"
	"github.com/loomnotes/loom/internal/jobs"
	"github.com/loomnotes/loom/internal/llm"
	"github.com/loomnotes/loom/internal/repository"
	"github.com/loomnotes/loom/internal/server"
	"github.com/loomnotes/loom/internal/service"
	"github.com/loomnotes/loom/internal/storage"
	"github.com/loomnotes/loom/internal/telemetry"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the loom API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides LOOM_PORT)")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SentryDSN != "" {
		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: cfg.SentrySampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	if portFlag, _ := cmd.Flags().GetInt("port"); portFlag > 0 {
		cfg.Port = portFlag
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	employeeRepo := repository.NewEmployeeRepository(pool)
	documentRepo := repository.NewDocumentRepository(pool)
	handoverRepo := repository.NewHandoverRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	ingestJobRepo := repository.NewIngestJobRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	var sourceStore service.SourceStore
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    cfg.S3UsePathStyle,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		sourceStore = s3Client
	}

	auditSvc := service.NewAuditService(auditRepo, cfg.AuditQueueSize)
	defer auditSvc.Close()

	var (
		askSvc      handlers.AskService
		ingestSvc   *service.IngestionService
		ingestWorkr *jobs.Worker
	)

	if cfg.HasCohere() {
		cohereClient := cohere.NewClientWithConfig(cohere.Config{
			APIKey:              cfg.CohereAPIKey,
			EmbeddingModel:      cfg.EmbeddingModel,
			RerankModel:         cfg.RerankModel,
			EmbeddingDimensions: cfg.EmbeddingDimensions,
		})

		textChunker, err := chunker.New(chunker.Config{
			TargetTokens:  cfg.ChunkTargetTokens,
			OverlapTokens: cfg.ChunkOverlapTokens,
		})
		if err != nil {
			return fmt.Errorf("failed to create chunker: %w", err)
		}

		ingestSvc = service.NewIngestionService(documentRepo, txRunner, textChunker, cohereClient, sourceStore)

		if sourceStore != nil {
			processor := jobs.NewIngestWorker(ingestJobRepo, ingestSvc)
			ingestWorkr = jobs.NewWorker(processor, 10*time.Second)
			go ingestWorkr.Start(ctx)
			log.Println("ingest worker started")
		}

		if cfg.HasGroq() {
			llmClient := llm.NewClientWithConfig(llm.Config{
				APIKey: cfg.GroqAPIKey,
				Model:  cfg.LLMModel,
			})

			retrievalSvc := service.NewRetrievalService(chunkRepo, cfg.EmbeddingDimensions, cfg.OversampleK)
			rerankSvc := service.NewRerankService(cohereClient, cfg.FinalK)
			synthesisSvc := service.NewSynthesisService(llmClient)

			askSvc = service.NewAskService(cohereClient, retrievalSvc, rerankSvc, synthesisSvc, auditSvc, service.AskTimeouts{
				Embed:  cfg.EmbedTimeout,
				Rerank: cfg.RerankTimeout,
				LLM:    cfg.LLMTimeout,
			})
		}
	}

	if askSvc == nil {
		askSvc = &noOpAskService{}
	}

	var creator handlers.DocumentCreator
	if ingestSvc != nil {
		creator = ingestSvc
	} else {
		creator = &noOpDocumentCreator{}
	}

	var ingester service.HandoverIngester
	if ingestSvc != nil {
		ingester = ingestSvc
	}

	documentSvc := service.NewDocumentService(documentRepo)
	handoverSvc := service.NewHandoverService(handoverRepo, ingester)

	router := server.NewRouter(server.RouterConfig{
		JWTSecret:        []byte(cfg.JWTSecret),
		IdentityResolver: employeeRepo,
		SearchHandler:    handlers.NewSearchHandler(askSvc),
		DocumentHandler:  handlers.NewDocumentHandler(documentSvc, creator),
		HandoverHandler:  handlers.NewHandoverHandler(handoverSvc),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if ingestWorkr != nil {
		ingestWorkr.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

type noOpAskService struct{}

func (s *noOpAskService) Ask(ctx context.Context, identity *domain.Identity, query string) (*service.Answer, error) {
	return nil, fmt.Errorf("search not configured: LOOM_COHERE_API_KEY and LOOM_GROQ_API_KEY required")
}

type noOpDocumentCreator struct{}

func (s *noOpDocumentCreator) CreateDocument(ctx context.Context, input service.CreateDocumentInput) (*domain.Document, error) {
	return nil, fmt.Errorf("document ingestion not configured: LOOM_COHERE_API_KEY required")
}

func runMigrations(databaseURL, migrationsPath string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://"+migrationsPath,
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else {
		log.Printf("migrations: database at version %d", version)
	}

	return nil
}
