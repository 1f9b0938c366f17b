package admin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/loomnotes/loom/internal/chunker"
	"github.com/loomnotes/loom/internal/cohere"
	"github.com/loomnotes/loom/internal/domain"
	"github.com/loomnotes/loom/internal/repository"
	"github.com/loomnotes/loom/internal/service"
	"github.com/loomnotes/loom/internal/storage"
	"github.com/spf13/cobra"
)

func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file.md>",
		Short: "Ingest a markdown document",
		Long:  "Create a document from a markdown file and index it for retrieval",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}

	cmd.Flags().StringP("title", "t", "", "Document title (defaults to the file name)")
	cmd.Flags().String("project", "", "Owning project (required for private documents)")
	cmd.Flags().String("visibility", "public", "Document visibility (public or private)")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	path := args[0]

	title, _ := cmd.Flags().GetString("title")
	project, _ := cmd.Flags().GetString("project")
	visibility, _ := cmd.Flags().GetString("visibility")

	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	pool, cfg, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if !cfg.HasCohere() {
		return fmt.Errorf("ingest requires LOOM_COHERE_API_KEY")
	}

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
		sourceStore = s3Client
	}

	ingestSvc := service.NewIngestionService(
		repository.NewDocumentRepository(pool),
		repository.NewTxRunner(pool),
		textChunker,
		cohereClient,
		sourceStore,
	)

	doc, err := ingestSvc.CreateDocument(ctx, service.CreateDocumentInput{
		Title:        title,
		OwnerProject: project,
		Visibility:   domain.Visibility(visibility),
		Body:         string(body),
	})
	if err != nil {
		return fmt.Errorf("failed to ingest document: %w", err)
	}

	fmt.Printf("Document created: %s (%s)\n", doc.Title, doc.ID)
	if doc.SourceURI != "" {
		fmt.Printf("Source stored at %s; indexing will complete in the background\n", doc.SourceURI)
	}
	return nil
}
